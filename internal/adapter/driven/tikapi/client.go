// Package tikapi implements the TikTokClient port against the TikAPI
// third-party REST gateway (https://api.tikapi.io).
package tikapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"

	"github.com/efisher/tiktrends/internal/domain/model"
	"github.com/efisher/tiktrends/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TikTokClient = (*Client)(nil)

const defaultBaseURL = "https://api.tikapi.io"

// pageSize is the item count requested per page on paginated endpoints.
const pageSize = 50

// Client implements the driven.TikTokClient port over the TikAPI REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a TikAPI client with the following transport stack:
//  1. rate limiter (steady outbound request rate, burst of 1)
//  2. httpcache (ETag-based conditional request caching)
//
// requestsPerSecond bounds the steady request rate against the gateway.
func NewClient(apiKey string, requestsPerSecond float64) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	transport := &throttledTransport{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		base:    cacheTransport,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

// followingResponse is the wire shape of GET /public/followingList.
type followingResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	UserList []struct {
		User struct {
			SecUID   string `json:"secUid"`
			UniqueID string `json:"uniqueId"`
		} `json:"user"`
	} `json:"userList"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor"`
}

// postsResponse is the wire shape of GET /public/posts.
type postsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ItemList []struct {
		CreateTime int64 `json:"createTime"`
		Stats      struct {
			PlayCount int64 `json:"playCount"`
			DiggCount int64 `json:"diggCount"`
		} `json:"stats"`
	} `json:"itemList"`
	HasMore bool   `json:"hasMore"`
	Cursor  string `json:"cursor"`
}

// FetchFollowing retrieves every account the given account follows, walking
// nextCursor pagination until the API reports no more pages.
func (c *Client) FetchFollowing(ctx context.Context, secUID string) ([]model.Creator, error) {
	var creators []model.Creator
	cursor := ""
	page := 0

	for {
		page++
		query := url.Values{
			"secUid": {secUID},
			"count":  {fmt.Sprint(pageSize)},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp followingResponse
		if err := c.get(ctx, "/public/followingList", query, &resp); err != nil {
			return nil, fmt.Errorf("listing following for %s (page %d): %w", secUID, page, err)
		}

		for _, entry := range resp.UserList {
			if entry.User.SecUID == "" || entry.User.UniqueID == "" {
				continue
			}
			creators = append(creators, model.Creator{
				Username: entry.User.UniqueID,
				SecUID:   entry.User.SecUID,
			})
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	slog.Debug("following list fetched", "sec_uid", secUID, "creators", len(creators), "pages", page)

	if creators == nil {
		creators = []model.Creator{}
	}
	return creators, nil
}

// FetchPosts retrieves the account's posts created at or after since. The API
// returns posts newest first, except that pinned posts lead the first page
// regardless of age; pagination therefore stops only once a page's final
// (oldest) item falls before the window, so a stale pinned post cannot cut
// off newer posts on later pages.
func (c *Client) FetchPosts(ctx context.Context, secUID string, since time.Time) ([]model.Post, error) {
	var posts []model.Post
	cursor := ""
	page := 0

	for {
		page++
		query := url.Values{
			"secUid": {secUID},
			"count":  {fmt.Sprint(pageSize)},
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp postsResponse
		if err := c.get(ctx, "/public/posts", query, &resp); err != nil {
			return nil, fmt.Errorf("listing posts for %s (page %d): %w", secUID, page, err)
		}

		if len(resp.ItemList) == 0 {
			break
		}

		for _, item := range resp.ItemList {
			createdAt := time.Unix(item.CreateTime, 0).UTC()
			if createdAt.Before(since) {
				continue
			}
			posts = append(posts, model.Post{
				CreatedAt: createdAt,
				Views:     item.Stats.PlayCount,
				Likes:     item.Stats.DiggCount,
			})
		}

		oldest := time.Unix(resp.ItemList[len(resp.ItemList)-1].CreateTime, 0).UTC()
		if oldest.Before(since) || !resp.HasMore || resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	slog.Debug("posts fetched", "sec_uid", secUID, "posts", len(posts), "pages", page)

	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// apiStatus is the subset of every TikAPI response used for error reporting.
type apiStatus interface {
	errorMessage() (string, bool)
}

func (r followingResponse) errorMessage() (string, bool) {
	return r.Message, r.Status != "" && r.Status != "success"
}

func (r postsResponse) errorMessage() (string, bool) {
	return r.Message, r.Status != "" && r.Status != "success"
}

// get performs an authenticated GET request and decodes the JSON body into
// out. HTTP-level and API-level ("status":"error") failures both return errors.
func (c *Client) get(ctx context.Context, path string, query url.Values, out apiStatus) error {
	u := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if msg, isErr := out.errorMessage(); isErr {
		return fmt.Errorf("api error: %s", msg)
	}

	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
