package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"coursepocket/internal/domain"
)

// Client talks to the upstream learning API. Every call is attempt-once: no
// retries, no caching, no client-side timeout (cancellation comes from the
// caller's context).
type Client struct {
	BaseURL string
	HTTP    *http.Client

	log *logrus.Logger
}

func New(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		log:     log,
	}
}

// Login exchanges credentials for an auth envelope. The envelope is returned
// as-is even on non-2xx statuses; only transport or parse failures error.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthEnvelope, error) {
	return c.postAuth(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account. Same contract as Login.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthEnvelope, error) {
	return c.postAuth(ctx, "/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) postAuth(ctx context.Context, path string, payload map[string]string) (*AuthEnvelope, error) {
	op := "POST " + path

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	raw, err := readAndClose(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	c.log.Debugf("%s -> %d", op, resp.StatusCode)

	var envelope AuthEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &domain.NetworkError{Op: op, Err: fmt.Errorf("json parse error: %w", err)}
	}
	return &envelope, nil
}

// ValidateSession probes GET /me with the bearer token. True only when the
// transport succeeds and the server answers 2xx; an expired token and an
// unreachable server are indistinguishable here.
func (c *Client) ValidateSession(ctx context.Context, token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/me", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// FetchRandomUsers pulls the public random-users feed.
func (c *Client) FetchRandomUsers(ctx context.Context) ([]FeedUser, error) {
	return fetchFeed[FeedUser](ctx, c, c.feedURL("randomusers"))
}

// FetchRandomProducts pulls the public random-products feed.
func (c *Client) FetchRandomProducts(ctx context.Context) ([]FeedProduct, error) {
	return fetchFeed[FeedProduct](ctx, c, c.feedURL("randomproducts"))
}

// feedURL rewrites the auth base into the public feed path, mirroring the
// upstream API layout ("/users" -> "/public/<feed>").
func (c *Client) feedURL(feed string) string {
	return strings.Replace(c.BaseURL, "/users", "/public/"+feed, 1)
}

func fetchFeed[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	op := "GET " + url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	raw, err := readAndClose(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	c.log.Debugf("%s -> %d (%d bytes)", op, resp.StatusCode, len(raw))

	items, err := decodeList[T](raw)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	return items, nil
}

// decodeList tolerates the feed shapes seen in the wild: a bare array, a
// {data: [...]} wrapper, or {data: {data: [...]}}. Valid JSON holding no
// list (an error envelope, say) yields an empty result, not an error.
func decodeList[T any](raw []byte) ([]T, error) {
	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("json parse error: %w", err)
	}
	if len(wrapped.Data) == 0 {
		return nil, nil
	}

	if err := json.Unmarshal(wrapped.Data, &direct); err == nil {
		return direct, nil
	}

	var nested struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(wrapped.Data, &nested); err == nil {
		return nested.Data, nil
	}
	return nil, nil
}

func readAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}
