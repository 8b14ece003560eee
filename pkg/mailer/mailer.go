package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/config"
	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// StatusAccepted is the only status SendGrid returns for a queued message.
const StatusAccepted = http.StatusAccepted

var Module = fx.Module("mailer", fx.Provide(NewGateway))

type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
}

// Gateway submits a message and reports the gateway's status code. Any
// status other than 202 comes back with a MailGatewayFailure error.
type Gateway interface {
	Send(ctx context.Context, msg Message) (int, error)
}

type Options struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
}

type SendGrid struct {
	opts    Options
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[int]
	logger  *zap.Logger
}

func NewGateway(cfg *config.Config) Gateway {
	return New(Options{
		APIKey:  cfg.SendGrid.ApiKey,
		BaseURL: cfg.SendGrid.BaseURL,
		Timeout: cfg.IOTimeout,
	})
}

func New(opts Options) *SendGrid {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.sendgrid.com"
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Attempts == 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}

	logger := zap.L().Named("mailer")
	return &SendGrid{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		breaker: gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
			Name:        "sendgrid",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("mail gateway circuit changed state",
					zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To []address `json:"to"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// statusError carries a non-202 response through retry and the breaker.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sendgrid responded %d: %s", e.code, e.body)
}

func (s *SendGrid) Send(ctx context.Context, msg Message) (int, error) {
	if s.opts.APIKey == "" {
		return 0, errutil.MailGatewayFailure("SendGrid API key not configured", nil)
	}

	payload, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: msg.To}}}},
		From:             address{Email: msg.From, Name: msg.FromName},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/html", Value: msg.HTML}},
	})
	if err != nil {
		return 0, errutil.Internal("failed to encode mail payload", err)
	}

	code, err := s.breaker.Execute(func() (int, error) {
		var last int
		err := retry.Do(
			func() error {
				code, err := s.post(ctx, payload)
				last = code
				if err == nil {
					return nil
				}
				var se *statusError
				if errors.As(err, &se) && se.code < http.StatusInternalServerError {
					return retry.Unrecoverable(err)
				}
				return err
			},
			retry.Attempts(s.opts.Attempts),
			retry.Delay(s.opts.Delay),
			retry.MaxDelay(5*time.Second),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				s.logger.Warn("retrying mail send", zap.Uint("attempt", n), zap.Error(err))
			}),
		)
		return last, err
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return 0, errutil.MailGatewayFailure("mail gateway unavailable", err)
	case err != nil:
		return code, errutil.MailGatewayFailure(fmt.Sprintf("mail gateway rejected message with status %d", code), err)
	}
	return code, nil
}

func (s *SendGrid) post(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return 0, retry.Unrecoverable(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return resp.StatusCode, nil
}
