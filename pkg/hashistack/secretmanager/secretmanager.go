package secretmanager

import (
	"os"
	"time"

	vault "github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("secretmanager", fx.Provide(ProvideVault))

// Enabled reports whether the environment points at a vault server.
func Enabled() bool {
	_, ok := os.LookupEnv("VAULT_ADDR")
	return ok
}

// ProvideVault builds a client from the VAULT_* environment. VAULT_TOKEN, when
// present, authenticates every request.
func ProvideVault() (*vault.Client, error) {
	client, err := vault.New(
		vault.WithEnvironment(),
		vault.WithRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		if err := client.SetToken(token); err != nil {
			return nil, err
		}
	}

	zap.L().Info("vault client ready", zap.String("addr", os.Getenv("VAULT_ADDR")))
	return client, nil
}
