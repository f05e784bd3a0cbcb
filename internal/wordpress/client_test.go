// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/users/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "abcd efgh" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		_ = json.NewEncoder(w).Encode(User{ID: 1, Name: "Admin"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "admin", "abcd efgh")
	u, err := c.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if u.ID != 1 || u.Name != "Admin" {
		t.Errorf("user = %+v", u)
	}
}

func TestTestConnectionUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_access"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "wrong")
	if _, err := c.TestConnection(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var params PostParams
		_ = json.NewDecoder(r.Body).Decode(&params)
		if params.Title != "My Post" || params.Status != "publish" {
			t.Errorf("params = %+v", params)
		}
		if params.FeaturedMedia != 77 {
			t.Errorf("featured_media = %d", params.FeaturedMedia)
		}
		if params.Slug != "my-post" || params.Excerpt != "A short post." {
			t.Errorf("slug = %q, excerpt = %q", params.Slug, params.Excerpt)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Post{ID: 42, Link: "https://blog.test/my-post-2", Slug: "my-post-2", Status: "publish"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	post, err := c.CreatePost(context.Background(), PostParams{
		Title: "My Post", Content: "<p>Body</p>", Status: "publish",
		Slug: "my-post", Excerpt: "A short post.", FeaturedMedia: 77,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.ID != 42 || post.Link != "https://blog.test/my-post-2" {
		t.Errorf("post = %+v", post)
	}
	// WordPress may uniquify the requested slug; the client surfaces it.
	if post.Slug != "my-post-2" {
		t.Errorf("slug = %q, want my-post-2", post.Slug)
	}
}

func TestCreatePostOmitsEmptyOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		for _, key := range []string{"slug", "excerpt", "featured_media", "categories", "tags", "meta"} {
			if _, present := raw[key]; present {
				t.Errorf("empty field %q serialized", key)
			}
		}
		_ = json.NewEncoder(w).Encode(Post{ID: 1, Link: "https://blog.test/p"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	if _, err := c.CreatePost(context.Background(), PostParams{
		Title: "Bare", Content: "<p>Body</p>", Status: "draft",
	}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
}

func TestUpdatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Post{ID: 42, Link: "https://blog.test/my-post"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	post, err := c.UpdatePost(context.Background(), 42, PostParams{Title: "Updated"})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if post.ID != 42 {
		t.Errorf("post = %+v", post)
	}
}

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/media" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "photo.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "jpeg-bytes" {
			t.Errorf("file content = %q", data)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Media{ID: 77, SourceURL: "https://blog.test/photo.jpg"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	media, err := c.UploadMedia(context.Background(), "photo.jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if media.ID != 77 || media.SourceURL != "https://blog.test/photo.jpg" {
		t.Errorf("media = %+v", media)
	}
}

func TestListCategoriesPaginates(t *testing.T) {
	pageOne := make([]Term, 100)
	for i := range pageOne {
		pageOne[i] = Term{ID: int64(i + 1), Name: fmt.Sprintf("Cat %d", i+1)}
	}
	pageTwo := []Term{{ID: 101, Name: "Last"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
		}
		w.Header().Set("X-WP-TotalPages", "2")
		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(pageOne)
		case "2":
			_ = json.NewEncoder(w).Encode(pageTwo)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	terms, err := c.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(terms) != 101 {
		t.Errorf("terms = %d, want 101", len(terms))
	}
	if terms[100].Name != "Last" {
		t.Errorf("last term = %+v", terms[100])
	}
}

func TestListTagsStopsOnInvalidPage(t *testing.T) {
	full := make([]Term, 100)
	for i := range full {
		full[i] = Term{ID: int64(i + 1)}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No X-WP-TotalPages header; the client discovers the end by
		// paging until WordPress rejects the page number.
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode(full)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_page_number"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	terms, err := c.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(terms) != 100 {
		t.Errorf("terms = %d, want 100", len(terms))
	}
}
