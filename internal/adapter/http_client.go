package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/internal/config"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

const pushEndpoint = "/api/records/push"

type httpServerGateway struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPServerGateway constructs the HTTP/JSON implementation of
// [ServerGateway]. It normalises and validates the base URL from
// cfg.BaseURL and configures the underlying resty client with the resolved
// base URL and request timeout.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid URL.
func NewHTTPServerGateway(cfg config.Adapter, log *logger.Logger) (ServerGateway, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter base url: %w", err)
	}

	cli := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	g := &httpServerGateway{client: cli, logger: log}
	g.SetToken(cfg.AuthToken)

	return g, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerGateway]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent requests.
func (g *httpServerGateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = strings.TrimSpace(token)
}

// Token implements [ServerGateway].
func (g *httpServerGateway) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// TokenSubject implements [ServerGateway]. The token signature is not
// verified; the subject is informational only.
func (g *httpServerGateway) TokenSubject() (string, error) {
	token := g.Token()
	if token == "" {
		return "", errors.New("no token set")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	return claims.GetSubject()
}

// Push implements [ServerGateway].
func (g *httpServerGateway) Push(ctx context.Context, record codec.WireRecord) (models.ServerAck, error) {
	resp, err := g.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(record).
		Post(pushEndpoint)
	if err != nil {
		return models.ServerAck{}, fmt.Errorf("push request (local_id=%s): %w: %w", record.LocalID, ErrUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ServerAck{}, fmt.Errorf("push (local_id=%s): %w", record.LocalID, err)
	}

	var ack models.ServerAck
	if err = json.Unmarshal(resp.Body(), &ack); err != nil {
		return models.ServerAck{}, fmt.Errorf("decode push acknowledgment (local_id=%s): %w: %w", record.LocalID, ErrBadAck, err)
	}

	if ack.Status != models.AckStatusOK || ack.ID == "" {
		return models.ServerAck{}, fmt.Errorf("push acknowledgment missing success marker (local_id=%s): %w", record.LocalID, ErrBadAck)
	}

	return ack, nil
}

// Ping implements [ServerGateway].
func (g *httpServerGateway) Ping(ctx context.Context) error {
	resp, err := g.client.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return fmt.Errorf("ping request: %w: %w", ErrUnavailable, err)
	}

	return mapHTTPError(resp)
}

func (g *httpServerGateway) authedRequest(ctx context.Context) *resty.Request {
	req := g.client.R().SetContext(ctx)
	if token := g.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}

	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrServerRejected, code, body)
	}
	if code >= http.StatusBadRequest {
		return fmt.Errorf("%w: http %d: %s", ErrPayloadRejected, code, body)
	}

	return fmt.Errorf("unexpected http status %d: %s", code, body)
}
