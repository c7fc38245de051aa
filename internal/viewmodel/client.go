package viewmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"plantcare/internal/domain"
)

// ErrNotArray reports a list response whose body is not a JSON array.
var ErrNotArray = errors.New("list response is not an array")

// APIError is a non-success response from the plant API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to the plant API rooted at a base URL such as
// "http://localhost:8080/api".
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client. A nil hc uses http.DefaultClient.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

type ackBody struct {
	Message string        `json:"message"`
	Plant   *domain.Plant `json:"plant"`
	Error   string        `json:"error"`
}

// List fetches every plant.
func (c *Client) List(ctx context.Context) ([]domain.Plant, error) {
	raw, err := c.do(ctx, http.MethodGet, "/plants", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return nil, ErrNotArray
	}
	var plants []domain.Plant
	if err := json.Unmarshal(raw, &plants); err != nil {
		return nil, fmt.Errorf("decode plants: %w", err)
	}
	return plants, nil
}

// Create adds a plant and returns the stored record.
func (c *Client) Create(ctx context.Context, name, species string) (*domain.Plant, error) {
	return c.mutate(ctx, http.MethodPost, "/plants", editBody(name, species), http.StatusCreated)
}

// Update overwrites name and species. The plant is nil when the server
// matched no row.
func (c *Client) Update(ctx context.Context, id, name, species string) (*domain.Plant, error) {
	return c.mutate(ctx, http.MethodPatch, "/plants/"+url.PathEscape(id), editBody(name, species), http.StatusOK)
}

// Water marks the plant watered today.
func (c *Client) Water(ctx context.Context, id string) (*domain.Plant, error) {
	return c.mutate(ctx, http.MethodPatch, "/plants/"+url.PathEscape(id)+"/water", nil, http.StatusOK)
}

// Delete removes the plant.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, http.MethodDelete, "/plants/"+url.PathEscape(id), nil, http.StatusOK)
	return err
}

// Login signs in with the owner password. The session cookie is kept by
// the http.Client's jar.
func (c *Client) Login(ctx context.Context, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"password": password}, http.StatusOK)
	return err
}

func editBody(name, species string) map[string]any {
	return map[string]any{"name": name, "species": species}
}

func (c *Client) mutate(ctx context.Context, method, path string, body any, want int) (*domain.Plant, error) {
	raw, err := c.do(ctx, method, path, body, want)
	if err != nil {
		return nil, err
	}
	var ack ackBody
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return ack.Plant, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		var ack ackBody
		_ = json.Unmarshal(raw, &ack)
		return nil, &APIError{Status: resp.StatusCode, Message: ack.Error}
	}
	return raw, nil
}
