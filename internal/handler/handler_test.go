// Copyright (c) 2025-2026 Affipub Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/affipub/affipub/internal/ai"
	"github.com/affipub/affipub/internal/imaging"
	"github.com/affipub/affipub/internal/model"
	"github.com/affipub/affipub/internal/service"
	"github.com/affipub/affipub/internal/store"
	"github.com/affipub/affipub/internal/wordpress"
)

type stubGenerator struct {
	content string
	err     error
}

func (g *stubGenerator) Complete(context.Context, string, string) (*ai.Completion, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Completion{Content: g.content, OutputTokens: 500}, nil
}

type stubWP struct {
	createdPosts int
	failConnect  error
}

func (s *stubWP) TestConnection(context.Context) (*wordpress.User, error) {
	if s.failConnect != nil {
		return nil, s.failConnect
	}
	return &wordpress.User{ID: 3, Name: "Editor"}, nil
}

func (s *stubWP) UploadMedia(_ context.Context, filename string, _ []byte) (*wordpress.Media, error) {
	return &wordpress.Media{ID: 11, SourceURL: "https://blog.test/media/" + filename}, nil
}

func (s *stubWP) CreatePost(_ context.Context, params wordpress.PostParams) (*wordpress.Post, error) {
	s.createdPosts++
	return &wordpress.Post{ID: 500, Link: "https://blog.test/post", Status: params.Status}, nil
}

func (s *stubWP) UpdatePost(_ context.Context, postID int64, params wordpress.PostParams) (*wordpress.Post, error) {
	return &wordpress.Post{ID: postID, Link: "https://blog.test/post", Status: params.Status}, nil
}

type testEnv struct {
	st     *store.Store
	gen    *stubGenerator
	wp     *stubWP
	server http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "affipub-api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	_ = f.Close()

	db, err := store.NewDB(f.Name())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	st := store.New(db)
	if _, err := st.EnsureDefaultUser(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultUser: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := &stubGenerator{content: "<p>Generated paragraph about the topic.</p><h2>Details</h2><p>More.</p>"}
	wp := &stubWP{}
	events := service.NewEventService(st)
	publisher := service.NewPublisher(st, gen, func(model.Site) service.WordPress { return wp }, events, logger)
	media := service.NewMediaService(st, imaging.NewProcessor(t.TempDir()), events)

	h := NewHandler(st, publisher, media, logger)
	return &testEnv{st: st, gen: gen, wp: wp, server: h.Routes(100)}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v (body %s)", err, rec.Body.String())
	}
	return resp.Data
}

func (e *testEnv) seedSite(t *testing.T) model.Site {
	t.Helper()
	site, err := e.st.CreateSite(context.Background(), model.Site{
		UserID: 1, Name: "Blog", URL: "https://blog.test",
		Username: "admin", AppPassword: "pw", IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	return site
}

func (e *testEnv) seedArticle(t *testing.T) model.Article {
	t.Helper()
	article, err := e.st.CreateArticle(context.Background(), model.Article{
		UserID: 1, Topic: "best budget drones", Title: "Best Budget Drones",
		HTMLContent: "<p>Drone content for testing.</p>", ContentStage: "pillar",
		Keywords: "drones, budget",
	})
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	return article
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestGenerateEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/generate", map[string]any{
		"topic":           "best budget drones",
		"prompt":          "focus on beginners",
		"affiliate_links": []string{"https://aff.test/drone"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	article := decodeData[ArticleResponse](t, rec)
	if article.Status != model.ArticleStatusPreview {
		t.Errorf("status = %q", article.Status)
	}
	if article.ContentStage != "pillar" {
		t.Errorf("stage = %q", article.ContentStage)
	}
	if article.HTMLContent == "" {
		t.Error("html content missing from response")
	}
}

func TestGenerateRequiresTopic(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/generate", map[string]any{"prompt": "no topic"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	e := newTestEnv(t)
	e.gen.err = fmt.Errorf("api error (status 529): overloaded")

	rec := e.do(t, http.MethodPost, "/api/generate", map[string]any{"topic": "anything"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestArticleListAndGet(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodGet, "/api/articles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeData[[]ArticleResponse](t, rec)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("list = %+v", list)
	}
	// List entries carry no body fields.
	if list[0].HTMLContent != "" {
		t.Error("list entry carries html content")
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d", a.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decodeData[ArticleResponse](t, rec)
	if got.HTMLContent == "" {
		t.Error("get response missing html content")
	}
}

func TestArticleOwnerScoping(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/articles/%d", a.ID), nil)
	req.Header.Set("X-User-ID", "2")
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-user status = %d, want 404", rec.Code)
	}
}

func TestArticleUpdate(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodPut, fmt.Sprintf("/api/articles/%d", a.ID), map[string]any{
		"title":          "Edited Title",
		"edited_content": "<p>hand edited</p>",
		"status":         "draft",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeData[ArticleResponse](t, rec)
	if got.Title != "Edited Title" || got.Status != model.ArticleStatusDraft {
		t.Errorf("updated = %+v", got)
	}

	// Only preview and draft can be set directly.
	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/articles/%d", a.ID), map[string]any{"status": "published"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("direct publish status = %d, want 422", rec.Code)
	}
}

func TestArticleDelete(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/api/articles/%d", a.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d", a.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestPublishEndpoint(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)
	site := e.seedSite(t)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/api/articles/%d/publish", a.ID), map[string]any{
		"site_id": site.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeData[ArticleResponse](t, rec)
	if got.Status != model.ArticleStatusPublished || got.WordPressPostID != "500" {
		t.Errorf("published = %+v", got)
	}
	if e.wp.createdPosts != 1 {
		t.Errorf("created posts = %d", e.wp.createdPosts)
	}
}

func TestPublishRequiresSiteID(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/api/articles/%d/publish", a.ID), map[string]any{})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLinkSuggestionsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d/link-suggestions", a.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	for _, key := range []string{"auto_links", "manual_rules", "related_posts", "keywords_found"} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Errorf("response missing %q: %s", key, rec.Body.String())
		}
	}
}

func TestUploadImageEndpoint(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(jpegBuf.Bytes()); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/articles/%d/images", a.ID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	uploaded := decodeData[model.ArticleImage](t, rec)
	if uploaded.Width != 400 || uploaded.Height != 300 {
		t.Errorf("dimensions = %dx%d", uploaded.Width, uploaded.Height)
	}

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/articles/%d/images", a.ID), nil)
	images := decodeData[[]model.ArticleImage](t, rec)
	if len(images) != 1 {
		t.Fatalf("images = %d", len(images))
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/articles/%d/images/%d", a.ID, images[0].ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete image status = %d", rec.Code)
	}
}

func TestSiteLifecycle(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/sites", map[string]any{
		"name": "Blog", "url": "https://blog.test/", "username": "admin", "app_password": "secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	site := decodeData[model.Site](t, rec)
	if site.URL != "https://blog.test" {
		t.Errorf("url not normalized: %q", site.URL)
	}
	// The app password never leaves the API.
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("app password leaked in response")
	}

	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/sites/%d", site.ID), map[string]any{
		"name": "Renamed", "url": site.URL, "username": "admin", "is_active": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeData[model.Site](t, rec)
	if updated.Name != "Renamed" || updated.IsActive {
		t.Errorf("updated = %+v", updated)
	}

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/api/sites/%d/test", site.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("test status = %d", rec.Code)
	}
	result := decodeData[SiteTestResponse](t, rec)
	if !result.Connected || result.UserName != "Editor" {
		t.Errorf("test result = %+v", result)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/sites/%d", site.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestSiteValidation(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/sites", map[string]any{"name": "Blog", "url": "ftp://x", "username": "a", "app_password": "p"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRuleLifecycle(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	rec := e.do(t, http.MethodPost, "/api/rules", map[string]any{
		"keyword": "  Drone Reviews  ", "target_article_id": a.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	rule := decodeData[model.LinkRule](t, rec)
	if rule.Keyword != "drone reviews" {
		t.Errorf("keyword not normalized: %q", rule.Keyword)
	}
	if rule.Priority != model.DefaultRulePriority || rule.MaxUsage != model.DefaultRuleMaxUsage {
		t.Errorf("defaults not applied: %+v", rule)
	}

	rec = e.do(t, http.MethodPut, fmt.Sprintf("/api/rules/%d", rule.ID), map[string]any{
		"priority": 8, "is_active": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeData[model.LinkRule](t, rec)
	if updated.Priority != 8 || updated.IsActive {
		t.Errorf("updated = %+v", updated)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/rules/%d", rule.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestRuleRejectsForeignTarget(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedArticle(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rules", strings.NewReader(
		fmt.Sprintf(`{"keyword":"drones","target_article_id":%d}`, a.ID)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "2")
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	profile := decodeData[model.LinkingProfile](t, rec)
	if profile.MaxInternalLinks != model.DefaultMaxInternalLinks || !profile.AutoLinkEnabled {
		t.Errorf("default profile = %+v", profile)
	}

	rec = e.do(t, http.MethodPut, "/api/profile", map[string]any{
		"max_internal_links": 3, "vary_anchor_text": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeData[model.LinkingProfile](t, rec)
	if updated.MaxInternalLinks != 3 || updated.VaryAnchorText {
		t.Errorf("updated = %+v", updated)
	}
	// Untouched fields keep their stored values.
	if !updated.AutoCreateRules {
		t.Error("auto_create_rules changed although omitted")
	}
}

func TestStagesEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/stages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Data) != 6 {
		t.Fatalf("stages = %d, want 6", len(resp.Data))
	}
	if resp.Data[0]["key"] != "pillar" {
		t.Errorf("first stage = %v", resp.Data[0]["key"])
	}
	// System prompts stay internal.
	if _, ok := resp.Data[0]["system_prompt"]; ok {
		t.Error("system prompt exposed in API")
	}
}

func TestStrategyAdvance(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/strategy", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	strategy := decodeData[StrategyResponse](t, rec)
	if strategy.CurrentStage.Key != "pillar" {
		t.Fatalf("initial stage = %q", strategy.CurrentStage.Key)
	}

	rec = e.do(t, http.MethodPost, "/api/strategy/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance status = %d", rec.Code)
	}
	strategy = decodeData[StrategyResponse](t, rec)
	if strategy.CurrentStage.Key != "conversion" {
		t.Errorf("advanced stage = %q", strategy.CurrentStage.Key)
	}

	// The last stage stays put.
	for i := 0; i < 10; i++ {
		rec = e.do(t, http.MethodPost, "/api/strategy/advance", nil)
	}
	strategy = decodeData[StrategyResponse](t, rec)
	if strategy.CurrentStage.Key != "brand" {
		t.Errorf("final stage = %q", strategy.CurrentStage.Key)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seedArticle(t)
	failed, _ := e.st.CreateArticle(ctx, model.Article{UserID: 1, Topic: "x", HTMLContent: "<p>x</p>"})
	_ = e.st.MarkArticleFailed(ctx, 1, failed.ID, "boom")

	rec := e.do(t, http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	dash := decodeData[DashboardResponse](t, rec)
	if dash.Total != 2 || dash.Failed != 1 || dash.Published != 0 {
		t.Errorf("dashboard = %+v", dash)
	}
	if len(dash.RecentArticles) != 2 {
		t.Errorf("recent = %d", len(dash.RecentArticles))
	}
}
