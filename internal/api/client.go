package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when the server has no such file.
var ErrNotFound = errors.New("not found")

const defaultTimeout = 15 * time.Second

// maxFileSize caps FileContent reads.
const maxFileSize = 16 << 20

// Client talks to the agent server's REST endpoints.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func NewClient(base, token string) *Client {
	return &Client{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		http:  &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient swaps the underlying client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// AgentConfig is the subset of GET /api/config the client uses.
type AgentConfig struct {
	Agent struct {
		Name           string `json:"name"`
		Description    string `json:"description,omitempty"`
		WelcomeMessage string `json:"welcomeMessage,omitempty"`
	} `json:"agent"`
	UI struct {
		Title    string          `json:"title,omitempty"`
		Features map[string]bool `json:"features,omitempty"`
	} `json:"ui"`
	Files struct {
		OutputDirectory  string   `json:"outputDirectory,omitempty"`
		WatchDirectories []string `json:"watchDirectories,omitempty"`
	} `json:"files"`
	WebSocket struct {
		Host string `json:"host,omitempty"`
		Port int    `json:"port,omitempty"`
	} `json:"websocket"`
	Tools struct {
		DisplayNames     map[string]string `json:"displayNames,omitempty"`
		LongRunningTools []string          `json:"longRunningTools,omitempty"`
	} `json:"tools"`
}

// Title prefers ui.title, then agent.name.
func (a *AgentConfig) Title() string {
	if a.UI.Title != "" {
		return a.UI.Title
	}
	return a.Agent.Name
}

// Config fetches GET /api/config.
func (c *Client) Config(ctx context.Context) (*AgentConfig, error) {
	resp, err := c.get(ctx, "/api/config")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var cfg AgentConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &cfg, nil
}

// FileTree fetches GET /api/files/tree?path=dir. An empty dir lets the
// server use its configured output directory.
func (c *Client) FileTree(ctx context.Context, dir string) ([]FileNode, error) {
	p := "/api/files/tree"
	if dir != "" {
		p += "?path=" + url.QueryEscape(dir)
	}
	resp, err := c.get(ctx, p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	var nodes []FileNode
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return nodes, nil
}

// FileContent fetches GET /api/files/<path> and returns the raw body.
func (c *Client) FileContent(ctx context.Context, filePath string) ([]byte, error) {
	clean := strings.TrimPrefix(path.Clean("/"+filePath), "/")
	if clean == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	segs := strings.Split(clean, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	resp, err := c.get(ctx, "/api/files/"+strings.Join(segs, "/"))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
	}
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%s: larger than %d bytes", clean, maxFileSize)
	}
	return data, nil
}

// HTTP helpers

func (c *Client) get(ctx context.Context, p string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+p, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func checkStatus(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
