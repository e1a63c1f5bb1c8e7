package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Notion API base URL.
	BaseURL = "https://api.notion.com/v1"

	// APIVersion is the pinned Notion API version.
	APIVersion = "2022-06-28"

	// MinInterval keeps the client under the documented average of three
	// requests per second per integration.
	MinInterval = 334 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page size accepted by list endpoints.
	MaxPageSize = 100
)

// API is the subset of the Notion API the crawler consumes.
// *Client implements it; tests substitute in-memory fakes.
type API interface {
	RetrievePage(ctx context.Context, id string) (*Page, error)
	RetrieveDatabase(ctx context.Context, id string) (*Database, error)
	QueryDatabase(ctx context.Context, id string, pageSize int, cursor string) (*QueryResponse, error)
	ListBlockChildren(ctx context.Context, id string, pageSize int, cursor string) (*BlocksResponse, error)
	ListComments(ctx context.Context, blockID string, cursor string) (*CommentsResponse, error)
	RetrievePageProperty(ctx context.Context, pageID, propertyID, cursor string) (*PropertyItemResponse, error)
}

// Client is a throttled Notion API client.
type Client struct {
	token      string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMinInterval sets the minimum spacing between requests.
// Zero disables client-side throttling.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client authenticated with an integration token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(MinInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one throttled request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr = &APIError{Object: "error", Message: string(bytes.TrimSpace(respBody))}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

// pageQuery builds the query string shared by paginated GET endpoints.
func pageQuery(pageSize int, cursor string) url.Values {
	q := url.Values{}
	if pageSize > 0 {
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		}
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	return q
}

// RetrievePage fetches a page's metadata and properties.
func (c *Client) RetrievePage(ctx context.Context, id string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id), nil, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RetrieveDatabase fetches a database and its schema.
func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(id), nil, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// queryRequest is the body of a database query.
type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryDatabase fetches one page of database rows.
func (c *Client) QueryDatabase(ctx context.Context, id string, pageSize int, cursor string) (*QueryResponse, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	var resp QueryResponse
	body := &queryRequest{StartCursor: cursor, PageSize: pageSize}
	if err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(id)+"/query", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBlockChildren fetches one page of a block's children.
func (c *Client) ListBlockChildren(ctx context.Context, id string, pageSize int, cursor string) (*BlocksResponse, error) {
	var resp BlocksResponse
	path := "/blocks/" + url.PathEscape(id) + "/children"
	if err := c.do(ctx, http.MethodGet, path, pageQuery(pageSize, cursor), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListComments fetches one page of unresolved comments on a block or page.
func (c *Client) ListComments(ctx context.Context, blockID string, cursor string) (*CommentsResponse, error) {
	q := pageQuery(0, cursor)
	q.Set("block_id", blockID)
	var resp CommentsResponse
	if err := c.do(ctx, http.MethodGet, "/comments", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RetrievePageProperty fetches one page of a paginated property value.
func (c *Client) RetrievePageProperty(ctx context.Context, pageID, propertyID, cursor string) (*PropertyItemResponse, error) {
	var resp PropertyItemResponse
	// Property ids arrive already URL-encoded and are used verbatim.
	path := "/pages/" + url.PathEscape(pageID) + "/properties/" + propertyID
	if err := c.do(ctx, http.MethodGet, path, pageQuery(0, cursor), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
