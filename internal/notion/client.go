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

	"github.com/ternarybob/arbor"
)

const (
	// DefaultBaseURL is the base URL for the Notion API.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	// DefaultTimeout is the per-attempt timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the documented average rate (requests per second).
	DefaultRateLimit = 3

	// DefaultPageSize is the largest page size the API accepts.
	DefaultPageSize = 100
)

// Client is a Notion API client. All requests share one Fetcher, so
// pacing and retry apply across every concurrent caller.
type Client struct {
	baseURL    string
	secret     string
	version    string
	pageSize   int
	httpClient *http.Client
	logger     arbor.ILogger

	rateLimit        float64
	throttleInterval time.Duration
	timeout          time.Duration
	retry            RetryConfig
	fetcher          *Fetcher
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the sustained rate limit. Zero disables it.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		c.rateLimit = requestsPerSecond
	}
}

// WithThrottleInterval sets the minimum quiet time between calls.
func WithThrottleInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.throttleInterval = interval
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetry sets the retry policy.
func WithRetry(retry RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = retry
	}
}

// WithVersion sets the Notion-Version header.
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// WithPageSize sets the page size used for paginated listings.
func WithPageSize(pageSize int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 && pageSize <= DefaultPageSize {
			c.pageSize = pageSize
		}
	}
}

// NewClient creates a new Notion API client.
func NewClient(secret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:          DefaultBaseURL,
		secret:           secret,
		version:          DefaultVersion,
		pageSize:         DefaultPageSize,
		httpClient:       &http.Client{},
		logger:           arbor.NewLogger(),
		rateLimit:        DefaultRateLimit,
		throttleInterval: DefaultThrottleInterval,
		timeout:          DefaultTimeout,
		retry:            NewDefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.fetcher = NewFetcher(c.rateLimit, c.throttleInterval, c.timeout, c.retry, c.logger)

	return c
}

// Fetcher returns the shared fetch primitive
func (c *Client) Fetcher() *Fetcher {
	return c.fetcher
}

// do performs one request through the fetcher and decodes the JSON response.
func (c *Client) do(ctx context.Context, name, method, path string, params url.Values, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	return c.fetcher.Call(ctx, name, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.secret)
		req.Header.Set("Notion-Version", c.version)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Msg("Notion API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return decodeAPIError(resp, path)
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	})
}

func decodeAPIError(resp *http.Response, endpoint string) error {
	data, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(data),
		Endpoint:   endpoint,
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Object == "error" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}

	return apiErr
}

// QueryDatabase fetches one page of database rows.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req QueryDatabaseRequest) (*QueryDatabaseResponse, error) {
	if req.PageSize == 0 {
		req.PageSize = c.pageSize
	}

	var result QueryDatabaseResponse
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, "databases.query", http.MethodPost, path, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueryAllPages drains every page of a database query.
func (c *Client) QueryAllPages(ctx context.Context, databaseID string, req QueryDatabaseRequest) ([]PageObject, error) {
	return DrainAll(ctx, func(ctx context.Context, cursor string) (Page[PageObject], error) {
		pageReq := req
		pageReq.StartCursor = cursor

		res, err := c.QueryDatabase(ctx, databaseID, pageReq)
		if err != nil {
			return Page[PageObject]{}, err
		}

		c.logger.Debug().
			Str("database_id", databaseID).
			Int("results", len(res.Results)).
			Bool("has_more", res.HasMore).
			Msg("Fetched database query page")

		return Page[PageObject]{
			Results:    res.Results,
			HasMore:    res.HasMore,
			NextCursor: cursorValue(res.NextCursor),
		}, nil
	})
}

// RetrieveDatabase fetches the database descriptor.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*DatabaseObject, error) {
	var result DatabaseObject
	if err := c.do(ctx, "databases.retrieve", http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RetrieveBlock fetches a single block without its children.
func (c *Client) RetrieveBlock(ctx context.Context, blockID string) (*BlockObject, error) {
	var result BlockObject
	if err := c.do(ctx, "blocks.retrieve", http.MethodGet, "/v1/blocks/"+url.PathEscape(blockID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBlockChildren fetches one page of a block's children.
func (c *Client) ListBlockChildren(ctx context.Context, blockID string, cursor string) (*BlockChildrenResponse, error) {
	params := url.Values{}
	params.Set("page_size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		params.Set("start_cursor", cursor)
	}

	var result BlockChildrenResponse
	path := "/v1/blocks/" + url.PathEscape(blockID) + "/children"
	if err := c.do(ctx, "blocks.children.list", http.MethodGet, path, params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllBlockChildren drains every page of a block's children.
func (c *Client) ListAllBlockChildren(ctx context.Context, blockID string) ([]BlockObject, error) {
	return DrainAll(ctx, func(ctx context.Context, cursor string) (Page[BlockObject], error) {
		res, err := c.ListBlockChildren(ctx, blockID, cursor)
		if err != nil {
			return Page[BlockObject]{}, err
		}
		return Page[BlockObject]{
			Results:    res.Results,
			HasMore:    res.HasMore,
			NextCursor: cursorValue(res.NextCursor),
		}, nil
	})
}

// RetrievePage fetches a single page (database row).
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*PageObject, error) {
	var result PageObject
	if err := c.do(ctx, "pages.retrieve", http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdatePageProperties patches page properties and returns the updated page.
func (c *Client) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]interface{}) (*PageObject, error) {
	var result PageObject
	body := UpdatePageRequest{Properties: properties}
	if err := c.do(ctx, "pages.update", http.MethodPatch, "/v1/pages/"+url.PathEscape(pageID), nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
