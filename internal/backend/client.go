/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

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
	"time"

	"opsdash/internal/domain"
	"opsdash/internal/layout"
)

// Client is a minimal HTTP client for the layout API, used by the CLI's remote mode.
type Client struct {
	BaseURL   string
	Token     string // bearer token
	IssuerKey string // sent with IssueToken only
	client    *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	b := strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d", e.Method, e.Path, e.Status)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	return c.do(ctx, method, path, nil, body, dest)
}

func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&apiErr)
		return &APIError{Method: method, Path: u.Path, Status: resp.StatusCode, Message: apiErr.Error}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// IssueToken asks the server for a bearer token for subject, presenting IssuerKey.
func (c *Client) IssueToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	var hdr http.Header
	if c.IssuerKey != "" {
		hdr = http.Header{IssuerKeyHeader: []string{c.IssuerKey}}
	}
	req := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", hdr, req, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("server returned an empty token")
	}
	return out.Token, nil
}

// Catalog returns the picker listing for category ("" or "all" for every category).
func (c *Client) Catalog(ctx context.Context, category string) (*CatalogView, error) {
	var v CatalogView
	path := "/api/catalog"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Layout fetches the caller's layout.
func (c *Client) Layout(ctx context.Context) (*LayoutView, error) {
	var v LayoutView
	if err := c.doJSON(ctx, http.MethodGet, "/api/layout", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveLayout replaces the caller's layout set.
func (c *Client) SaveLayout(ctx context.Context, set domain.LayoutSet) (*LayoutView, error) {
	var v LayoutView
	if err := c.doJSON(ctx, http.MethodPut, "/api/layout", set, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AddWidget adds an instance of widgetType. An empty id lets the server mint one.
// Rejections unwrap to the layout package's sentinel errors.
func (c *Client) AddWidget(ctx context.Context, id, widgetType string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/layout/widgets", map[string]string{"id": id, "type": widgetType}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusConflict:
			if strings.HasPrefix(apiErr.Message, layout.ErrDuplicateInstance.Error()) {
				return "", fmt.Errorf("%w: %s", layout.ErrDuplicateInstance, id)
			}
			return "", fmt.Errorf("%w: %s", layout.ErrCapacityExceeded, apiErr.Message)
		case http.StatusUnprocessableEntity:
			return "", fmt.Errorf("%w: %s", layout.ErrUnknownWidgetType, widgetType)
		case http.StatusBadRequest:
			return "", fmt.Errorf("%w: %s", layout.ErrInvalidInstanceID, apiErr.Message)
		}
	}
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// RemoveWidget removes an instance from every breakpoint.
func (c *Client) RemoveWidget(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/layout/widgets/"+url.PathEscape(id), nil, nil)
}

// Reset restores the default layout.
func (c *Client) Reset(ctx context.Context) (*LayoutView, error) {
	var v LayoutView
	if err := c.doJSON(ctx, http.MethodPost, "/api/layout/reset", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Render fetches the text projection for breakpoint bp.
func (c *Client) Render(ctx context.Context, bp string) (string, error) {
	u := c.BaseURL + "/api/layout/render?legend=1&bp=" + url.QueryEscape(bp)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Method: http.MethodGet, Path: "/api/layout/render", Status: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return string(b), err
}
