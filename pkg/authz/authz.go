package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"

	ActRead  = "read"
	ActWrite = "write"

	principalKey = "authz.principal"
)

var Module = fx.Module("authz", fx.Provide(NewEnforcer))

// Principal is the caller as asserted by the identity service in front of
// this API.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		p, ok := v.(Principal)
		return p, ok
	}
	p := Principal{
		ID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
		Role: strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole))),
	}
	if p.ID == "" {
		return Principal{}, false
	}
	c.Set(principalKey, p)
	return p, true
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the model and policy from ACCESS_CONTROL paths, falling
// back to the embedded defaults.
func NewEnforcer(cfg *config.Config) (*Enforcer, error) {
	var (
		m   model.Model
		err error
	)
	if path := cfg.AccessControl.Model; path != "" && fileExists(path) {
		m, err = model.NewModelFromFile(path)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if path := cfg.AccessControl.Policy; path != "" && fileExists(path) {
		e, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(path))
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(e, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Enforcer{enforcer: e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) >= 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts, err)
			}
		case parts[0] == "g" && len(parts) >= 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts, err)
			}
		}
	}
	return nil
}

func (e *Enforcer) Allowed(p Principal, obj, act string) (bool, error) {
	if p.Role == "" {
		return false, nil
	}
	return e.enforcer.Enforce(p.Role, obj, act)
}

// Require admits callers whose role grants act on obj.
func (e *Enforcer) Require(obj, act string) gin.HandlerFunc {
	return e.require(obj, act, "")
}

// RequireSelfOr also admits the client named by the route param acting on
// its own data.
func (e *Enforcer) RequireSelfOr(param, obj, act string) gin.HandlerFunc {
	return e.require(obj, act, param)
}

func (e *Enforcer) require(obj, act, selfParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			_ = c.Error(errutil.Unauthorized("missing caller principal", nil))
			c.Abort()
			return
		}

		if selfParam != "" && p.ID == c.Param(selfParam) {
			c.Next()
			return
		}

		allowed, err := e.Allowed(p, obj, act)
		if err != nil {
			zap.L().Error("authorization check failed", zap.String("obj", obj), zap.String("act", act), zap.Error(err))
			_ = c.Error(errutil.Internal("authorization check failed", err))
			c.Abort()
			return
		}
		if !allowed {
			_ = c.Error(errutil.Forbidden("You don't have permission to perform this action", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
