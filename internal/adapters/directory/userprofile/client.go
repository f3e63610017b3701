package userprofile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-profile-service/internal/platform/httpclient"
	"pet-profile-service/internal/platform/metrics"
)

var (
	ErrNotConfigured = errors.New("user-profile client not configured")
	ErrUpstream      = errors.New("user-profile upstream error")
)

const (
	DefaultUserPath     = "/user/"
	DefaultAPIKeyHeader = "X-Api-Key"
)

// Config del cliente al servicio de perfiles de usuario.
type Config struct {
	BaseURL string

	// UserPath se concatena con el id escapado: GET {BaseURL}{UserPath}{id}.
	UserPath string

	// APIKey opcional; se manda en APIKeyHeader (default "X-Api-Key").
	APIKey       string
	APIKeyHeader string

	Timeout time.Duration
}

// Client implementa directory.UserDirectory.
type Client struct {
	http     *httpclient.Client
	userPath string
}

func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		h := strings.TrimSpace(cfg.APIKeyHeader)
		if h == "" {
			h = DefaultAPIKeyHeader
		}
		hc.Headers = map[string]string{h: key}
	}

	p := strings.TrimSpace(cfg.UserPath)
	if p == "" {
		p = DefaultUserPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return &Client{http: hc, userPath: p}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

// UserExists:
// - 200 con body "truthy" => existe
// - 200 con body vacío/null/false, o 404 => no existe
// - cualquier otro status, error de red o timeout => ErrUpstream
func (c *Client) UserExists(ctx context.Context, userID string) (bool, error) {
	exists, err := c.lookup(ctx, userID)
	switch {
	case err != nil:
		metrics.DirectoryLookups.WithLabelValues("error").Inc()
	case exists:
		metrics.DirectoryLookups.WithLabelValues("found").Inc()
	default:
		metrics.DirectoryLookups.WithLabelValues("not_found").Inc()
	}
	return exists, err
}

func (c *Client) lookup(ctx context.Context, userID string) (bool, error) {
	if !c.IsConfigured() {
		return false, ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, errors.New("userID required")
	}

	var body json.RawMessage
	err := c.http.DoJSON(ctx, http.MethodGet, c.userPath+url.PathEscape(userID), nil, nil, &body)
	if err != nil {
		if code, ok := httpclient.StatusCode(err); ok {
			if code == http.StatusNotFound {
				return false, nil
			}
			return false, fmt.Errorf("%w: status=%d", ErrUpstream, code)
		}
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return truthy(body), nil
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// AllowAll responde que todo usuario existe. Solo para dev
// (USER_SERVICE_ALLOW_ALL=true); nunca llama upstream.
type AllowAll struct{}

func (AllowAll) UserExists(_ context.Context, userID string) (bool, error) {
	metrics.DirectoryLookups.WithLabelValues("found").Inc()
	return strings.TrimSpace(userID) != "", nil
}
