package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"boardcheck/pkg/logging"
)

// DefaultHTTPTimeout bounds a single round trip when no client is injected.
const DefaultHTTPTimeout = 30 * time.Second

const boardsPath = "/1/boards"

// Client issues board operations against the Trello REST API.
type Client struct {
	baseURL    *url.URL
	creds      Credentials
	httpClient *http.Client
}

// ClientOption configures the board client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, creds Credentials, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		creds:      creds,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	logging.Info("TrelloClient", "Base URL configured: %s", u.String())
	return c, nil
}

// Create creates a board named name. Only HTTP 200 counts as success.
func (c *Client) Create(ctx context.Context, name string) (*Board, error) {
	logging.Info("TrelloClient", "Creating board with name: %s", name)

	status, body, err := c.do(ctx, http.MethodPost, boardsPath, url.Values{"name": {name}})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		logging.Error("TrelloClient", nil, "Board creation failed. Body: %s", body)
		return nil, &BoardError{Op: "create", StatusCode: status, Body: body}
	}

	board, err := decodeBoard(body)
	if err != nil {
		return nil, err
	}
	logging.Info("TrelloClient", "Board created: id=%s name=%s url=%s", board.ID, board.Name, board.URL)
	return board, nil
}

// Get fetches a board by id.
func (c *Client) Get(ctx context.Context, id string) (*Board, error) {
	status, body, err := c.do(ctx, http.MethodGet, boardPath(id), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &BoardError{Op: "get", BoardID: id, StatusCode: status, Body: body}
	}
	return decodeBoard(body)
}

// UpdateName renames a board and returns the server's view of it.
func (c *Client) UpdateName(ctx context.Context, id, newName string) (*Board, error) {
	logging.Info("TrelloClient", "Renaming board %s to %s", id, newName)

	status, body, err := c.do(ctx, http.MethodPut, boardPath(id), url.Values{"name": {newName}})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &BoardError{Op: "update", BoardID: id, StatusCode: status, Body: body}
	}
	return decodeBoard(body)
}

// Delete removes a board.
func (c *Client) Delete(ctx context.Context, id string) error {
	logging.Info("TrelloClient", "Deleting board %s", id)

	status, body, err := c.do(ctx, http.MethodDelete, boardPath(id), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &BoardError{Op: "delete", BoardID: id, StatusCode: status, Body: body}
	}
	return nil
}

// Exists reports whether a board can be read. 404 and 400 mean the board is
// absent; any other non-200 status is returned as a *BoardError rather than
// being read as "does not exist".
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	status, body, err := c.do(ctx, http.MethodGet, boardPath(id), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound, http.StatusBadRequest:
		return false, nil
	default:
		return false, &BoardError{Op: "exists", BoardID: id, StatusCode: status, Body: body}
	}
}

// StatusCode returns the raw status of a read, for negative-path checks.
func (c *Client) StatusCode(ctx context.Context, id string) (int, error) {
	status, _, err := c.do(ctx, http.MethodGet, boardPath(id), nil)
	if err != nil {
		return 0, err
	}
	return status, nil
}

func boardPath(id string) string {
	return boardsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (int, string, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.creds.Key)
	q.Set("token", c.creds.Token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response body: %w", err)
	}

	logging.Debug("TrelloClient", "%s %s -> %d", method, path, resp.StatusCode)
	return resp.StatusCode, string(data), nil
}

func decodeBoard(body string) (*Board, error) {
	var b Board
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		return nil, fmt.Errorf("failed to decode board: %w", err)
	}
	return &b, nil
}
