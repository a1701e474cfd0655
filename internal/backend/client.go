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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sashcad/internal/domain"
)

// Client is the HTTP client the desktop app uses against the backend
// API when project sync is enabled.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a backend client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout adjusts the request timeout, e.g. from backend config.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.client.Timeout = d
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
		var apiErr struct {
			Error string `json:"error"`
		}
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); rerr == nil {
			_ = json.Unmarshal(b, &apiErr)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("server %s %s: %s: %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("server %s %s: %s", method, path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   string `json:"store,omitempty"`
}

// Health checks server reachability and store status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, &hs)
	return hs, err
}

// Authenticate requests a bearer token and stores it on the client.
func (c *Client) Authenticate(ctx context.Context, subject string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"subject": subject}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/token", body, &resp); err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// ListProjects returns summaries of projects stored on the server.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var resp struct {
		Projects []ProjectSummary `json:"projects"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/projects/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// GetProject fetches one full project manifest.
func (c *Client) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/projects/"+id, nil, &p)
	return p, err
}

// SaveProject uploads a project manifest and returns the server id.
func (c *Client) SaveProject(ctx context.Context, p domain.Project) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/projects/", p, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteProject removes a project from the server.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/projects/"+id, nil, nil)
}
