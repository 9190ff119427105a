// Package heroku implements the Platform client against the Heroku v3 API.
package heroku

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sfwcore/herobot/internal/model"
)

const (
	DefaultAPIURL = "https://api.heroku.com"

	acceptHeader = "application/vnd.heroku+json; version=3"

	defaultLogLines = 100
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ model.Platform = (*Client)(nil)

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type app struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WebURL    string `json:"web_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (a app) toModel() model.App {
	return model.App{
		ID:        a.ID,
		Name:      a.Name,
		WebURL:    a.WebURL,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// doRequest performs a single authenticated call. Network failures and
// timeouts surface as model.ErrUnavailable; status interpretation is left to
// the caller.
func (c *Client) doRequest(
	ctx context.Context,
	token, method, path string,
	body any,
	extraHeaders map[string]string,
) (int, []byte, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	return resp.StatusCode, respBody, nil
}

func unavailableStatus(op string, status int) error {
	return fmt.Errorf("%w: %s: status %d", model.ErrUnavailable, op, status)
}

func (c *Client) ValidateToken(
	ctx context.Context,
	token string,
) (bool, error) {
	status, _, err := c.doRequest(
		ctx, token, http.MethodGet, "/account", nil, nil,
	)
	if err != nil {
		return false, err
	}

	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, unavailableStatus("validate token", status)
	}
}

func (c *Client) ListApps(
	ctx context.Context,
	token string,
) ([]model.App, error) {
	status, body, err := c.doRequest(
		ctx, token, http.MethodGet, "/apps", nil, nil,
	)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, unavailableStatus("list apps", status)
	}

	var raw []app
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	apps := make([]model.App, 0, len(raw))
	for _, a := range raw {
		apps = append(apps, a.toModel())
	}

	return apps, nil
}

func (c *Client) GetApp(
	ctx context.Context,
	token, name string,
) (*model.App, error) {
	status, body, err := c.doRequest(
		ctx, token, http.MethodGet, "/apps/"+name, nil, nil,
	)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, model.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, unavailableStatus("get app", status)
	}

	var raw app
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	a := raw.toModel()
	return &a, nil
}

// RestartApp restarts every dyno of the app.
func (c *Client) RestartApp(ctx context.Context, token, name string) error {
	status, _, err := c.doRequest(
		ctx, token, http.MethodDelete, "/apps/"+name+"/dynos", nil, nil,
	)
	if err != nil {
		return err
	}

	if status == http.StatusNotFound {
		return model.ErrNotFound
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return unavailableStatus("restart app", status)
	}

	return nil
}

// GetLogs creates a log session and fetches its logplex URL.
func (c *Client) GetLogs(
	ctx context.Context,
	token, name string,
	lines int,
) (string, error) {
	if lines <= 0 {
		lines = defaultLogLines
	}

	reqBody := map[string]any{
		"lines": lines,
		"tail":  false,
	}

	status, body, err := c.doRequest(
		ctx, token, http.MethodPost, "/apps/"+name+"/log-sessions", reqBody, nil,
	)
	if err != nil {
		return "", err
	}

	if status == http.StatusNotFound {
		return "", model.ErrNotFound
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", unavailableStatus("create log session", status)
	}

	var session struct {
		LogplexURL string `json:"logplex_url"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, session.LogplexURL, nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	logs, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	return string(logs), nil
}

// SlugURL resolves the download URL of the slug behind the latest release.
func (c *Client) SlugURL(
	ctx context.Context,
	token, name string,
) (string, error) {
	headers := map[string]string{
		"Range": "version ..; order=desc,max=1",
	}

	status, body, err := c.doRequest(
		ctx, token, http.MethodGet, "/apps/"+name+"/releases", nil, headers,
	)
	if err != nil {
		return "", err
	}

	if status == http.StatusNotFound {
		return "", model.ErrNotFound
	}
	if status != http.StatusOK && status != http.StatusPartialContent {
		return "", unavailableStatus("list releases", status)
	}

	var releases []struct {
		Slug struct {
			ID string `json:"id"`
		} `json:"slug"`
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(releases) == 0 || releases[0].Slug.ID == "" {
		return "", fmt.Errorf("no releases with a slug for app %s", name)
	}

	status, body, err = c.doRequest(
		ctx,
		token,
		http.MethodGet,
		"/apps/"+name+"/slugs/"+releases[0].Slug.ID,
		nil,
		nil,
	)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK {
		return "", unavailableStatus("get slug", status)
	}

	var slug struct {
		Blob struct {
			URL string `json:"url"`
		} `json:"blob"`
	}
	if err := json.Unmarshal(body, &slug); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return slug.Blob.URL, nil
}

// AppExists distinguishes "taken" from "free": only a not-found status means
// the name is available.
func (c *Client) AppExists(
	ctx context.Context,
	token, name string,
) (bool, error) {
	status, _, err := c.doRequest(
		ctx, token, http.MethodGet, "/apps/"+name, nil, nil,
	)
	if err != nil {
		return false, err
	}

	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, unavailableStatus("check app name", status)
	}
}

func (c *Client) CreateApp(
	ctx context.Context,
	token, name string,
) (*model.App, error) {
	reqBody := map[string]string{"name": name}

	status, body, err := c.doRequest(
		ctx, token, http.MethodPost, "/apps", reqBody, nil,
	)
	if err != nil {
		return nil, err
	}

	if status != http.StatusCreated && status != http.StatusOK {
		return nil, unavailableStatus("create app", status)
	}

	var raw app
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	a := raw.toModel()
	return &a, nil
}

func (c *Client) SetConfig(
	ctx context.Context,
	token, name string,
	vars map[string]string,
) error {
	status, _, err := c.doRequest(
		ctx, token, http.MethodPatch, "/apps/"+name+"/config-vars", vars, nil,
	)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return unavailableStatus("set config vars", status)
	}

	return nil
}

func (c *Client) CreateBuild(
	ctx context.Context,
	token, name, archiveURL, version string,
) error {
	reqBody := map[string]any{
		"source_blob": map[string]string{
			"url":     archiveURL,
			"version": version,
		},
	}

	status, _, err := c.doRequest(
		ctx, token, http.MethodPost, "/apps/"+name+"/builds", reqBody, nil,
	)
	if err != nil {
		return err
	}

	if status != http.StatusCreated && status != http.StatusOK {
		return unavailableStatus("create build", status)
	}

	return nil
}
