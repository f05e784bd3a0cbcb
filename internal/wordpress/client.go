// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wordpress is a minimal client for the WordPress REST API
// using application password authentication.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second

	// taxonomyPageSize is the per_page value used when walking
	// categories and tags.
	taxonomyPageSize = 100
)

// Client talks to one WordPress site.
type Client struct {
	baseURL  string
	username string
	password string

	connectHTTP *http.Client
	requestHTTP *http.Client
}

// NewClient creates a client for a site. The URL may be given with or
// without a trailing slash.
func NewClient(siteURL, username, appPassword string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(siteURL, "/"),
		username:    username,
		password:    appPassword,
		connectHTTP: &http.Client{Timeout: connectTimeout},
		requestHTTP: &http.Client{Timeout: requestTimeout},
	}
}

// User is the authenticated WordPress account.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Post is a created or updated WordPress post.
type Post struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// Media is an uploaded media item.
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// Term is a category or tag.
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostParams describes the post payload sent to WordPress. Slug is a
// suggestion; WordPress may uniquify it and returns the effective slug
// on the Post.
type PostParams struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Status        string            `json:"status"`
	Slug          string            `json:"slug,omitempty"`
	Excerpt       string            `json:"excerpt,omitempty"`
	FeaturedMedia int64             `json:"featured_media,omitempty"`
	Categories    []int64           `json:"categories,omitempty"`
	Tags          []int64           `json:"tags,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// TestConnection verifies the credentials by loading the current user.
func (c *Client) TestConnection(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wp-json/wp/v2/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("wordpress request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.connectHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordpress call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wordpress read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wordpress error (status %d): %s", resp.StatusCode, string(body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("wordpress decode: %w", err)
	}
	return &user, nil
}

// CreatePost publishes a new post.
func (c *Client) CreatePost(ctx context.Context, params PostParams) (*Post, error) {
	return c.sendPost(ctx, c.baseURL+"/wp-json/wp/v2/posts", params)
}

// UpdatePost updates an existing post by ID.
func (c *Client) UpdatePost(ctx context.Context, postID int64, params PostParams) (*Post, error) {
	return c.sendPost(ctx, fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, postID), params)
}

func (c *Client) sendPost(ctx context.Context, url string, params PostParams) (*Post, error) {
	jsonBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("wordpress marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("wordpress request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.requestHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordpress call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wordpress read: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("wordpress error (status %d): %s", resp.StatusCode, string(body))
	}

	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("wordpress decode: %w", err)
	}
	return &post, nil
}

// UploadMedia uploads a file to the media library.
func (c *Client) UploadMedia(ctx context.Context, filename string, data []byte) (*Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("wordpress media form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("wordpress media write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("wordpress media close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/media", &buf)
	if err != nil {
		return nil, fmt.Errorf("wordpress request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.requestHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordpress call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wordpress read: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("wordpress error (status %d): %s", resp.StatusCode, string(body))
	}

	var media Media
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, fmt.Errorf("wordpress decode: %w", err)
	}
	return &media, nil
}

// ListCategories returns all categories, walking every page.
func (c *Client) ListCategories(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "categories")
}

// ListTags returns all tags, walking every page.
func (c *Client) ListTags(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "tags")
}

func (c *Client) listTerms(ctx context.Context, taxonomy string) ([]Term, error) {
	var out []Term
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/wp-json/wp/v2/%s?per_page=%d&page=%d",
			c.baseURL, taxonomy, taxonomyPageSize, page)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("wordpress request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)

		resp, err := c.requestHTTP.Do(req)
		if err != nil {
			return nil, fmt.Errorf("wordpress call: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("wordpress read: %w", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			// WordPress answers 400 with rest_post_invalid_page_number
			// when paging past the last page.
			if page > 1 && resp.StatusCode == http.StatusBadRequest {
				return out, nil
			}
			return nil, fmt.Errorf("wordpress error (status %d): %s", resp.StatusCode, string(body))
		}

		var terms []Term
		if err := json.Unmarshal(body, &terms); err != nil {
			return nil, fmt.Errorf("wordpress decode: %w", err)
		}
		out = append(out, terms...)

		if len(terms) < taxonomyPageSize {
			return out, nil
		}
		if total := resp.Header.Get("X-WP-TotalPages"); total != "" {
			if n, err := strconv.Atoi(total); err == nil && page >= n {
				return out, nil
			}
		}
	}
}
