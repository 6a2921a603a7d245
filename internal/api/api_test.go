package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kenaz-moc/internal/moc"
	"github.com/starford/kenaz-moc/internal/mocservice"
	"github.com/starford/kenaz-moc/internal/storage"
	"github.com/starford/kenaz-moc/internal/testutil"
)

var vaultFiles = map[string]string{
	"Videos/Talk.md": `---
title: Go Talk
ctime: 2024-03-05T10:00:00Z
categories:
  - "[[Programming]]"
cover: "[[cover.png]]"
---
`,
	"Videos/Intro.md": `---
ctime: 2024-01-01T00:00:00Z
---
See [[Talk]].
`,
	"Topics/Programming.md": "# Programming\n",
	"Assets/cover.png":      "\x89PNG\r\n\x1a\n",
}

// testEnv sets up a synced vault, service, and router for testing.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (http.Handler, storage.Provider) {
	t.Helper()
	router, store, _ := testEnvFull(t, RouterOptions{AuthEnabled: authToken != "", Token: authToken})
	return router, store
}

func testEnvFull(t *testing.T, opts RouterOptions) (http.Handler, storage.Provider, *mocservice.Service) {
	t.Helper()
	store, db := testutil.SyncedVault(t, vaultFiles)
	svc := mocservice.NewService(store, db, mocservice.Config{
		Output:  "MOC.md",
		Folders: []string{"Videos/"},
		Indexes: []moc.IndexSpec{{Field: "categories", Label: "Category"}},
	}, testutil.Logger())
	opts.VaultRoot = store.Root()
	opts.AssetsDir = "Assets"
	return NewRouter(svc, opts), store, svc
}

func TestRenderMOC(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/moc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("X-Render-ID") == "" || w.Header().Get("ETag") == "" {
		t.Errorf("missing render headers: %v", w.Header())
	}
	body := w.Body.String()
	for _, want := range []string{"### Talk", "### Intro", "## Category Index"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderMOC_Folders(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/moc?folder=Topics/&folder=Videos/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d", w.Code)
	}
	body := w.Body.String()
	if strings.Index(body, "## Topics") > strings.Index(body, "## Videos") {
		t.Errorf("folders not rendered in request order:\n%s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/moc?folder=../etc", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("folder outside vault = %d, want 400", w.Code)
	}
}

func TestRenderMOC_NotModified(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/moc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	etag := w.Header().Get("ETag")

	req = httptest.NewRequest(http.MethodGet, "/moc", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("unchanged render = %d, want 304", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("304 with body %q", w.Body.String())
	}
}

func TestPublishMOC(t *testing.T) {
	var published []*mocservice.Result
	router, store, _ := testEnvFull(t, RouterOptions{
		OnPublish: func(r *mocservice.Result) { published = append(published, r) },
	})

	req := httptest.NewRequest(http.MethodPost, "/moc/publish", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("publish status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PublishResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Written || resp.Output != "MOC.md" || resp.Pages != 2 {
		t.Errorf("response = %+v", resp)
	}
	if len(published) != 1 {
		t.Errorf("onPublish called %d times, want 1", len(published))
	}
	if _, err := store.Read("MOC.md"); err != nil {
		t.Errorf("output note not written: %v", err)
	}

	// Unchanged: no rewrite, no callback.
	req = httptest.NewRequest(http.MethodPost, "/moc/publish", nil)
	req.Header.Set("If-Match", `"`+resp.Checksum+`"`)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("second publish status = %d, body = %s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Written || len(published) != 1 {
		t.Errorf("unchanged publish rewrote the note: %+v", resp)
	}
}

func TestPublishMOC_Conflict(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/moc/publish", nil)
	req.Header.Set("If-Match", `"stale"`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("stale If-Match = %d, want 409", w.Code)
	}
}

func TestListPages(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/pages?folder=Videos/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("pages status = %d", w.Code)
	}
	var resp PagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || resp.Pages[0].Path != "Videos/Talk.md" || resp.Pages[0].Title != "Go Talk" {
		t.Errorf("response = %+v", resp)
	}
}

func TestResolveLink(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/resolve?link=talk", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body = %s", w.Code, w.Body.String())
	}
	var target ResolveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &target); err != nil {
		t.Fatal(err)
	}
	if target.Path != "Videos/Talk.md" || len(target.Backlinks) != 1 || target.Backlinks[0] != "Videos/Intro.md" {
		t.Errorf("target = %+v", target)
	}
}

func TestResolveLink_Errors(t *testing.T) {
	router, _ := testEnv(t, "")

	for url, want := range map[string]int{
		"/resolve":              http.StatusBadRequest,
		"/resolve?link=Nowhere": http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("GET %s = %d, want %d", url, w.Code, want)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed pages = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/moc/publish", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/moc", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	router, _, _ := testEnvFull(t, RouterOptions{AuthEnabled: authEnabled, Token: token, Events: sseHandler})
	return router
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// Asset tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAsset(t *testing.T) {
	router, store := testEnv(t, "")

	w := uploadFile(t, router, "shot.png", []byte("\x89PNG\r\n\x1a\nshot"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AssetUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "Assets/shot.png" || resp.Cover != "[[shot.png]]" || resp.URL != "/api/assets/shot.png" {
		t.Errorf("response = %+v", resp)
	}

	data, err := os.ReadFile(filepath.Join(store.Root(), "Assets", "shot.png"))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("shot")) {
		t.Errorf("content mismatch")
	}

	req := httptest.NewRequest(http.MethodGet, "/assets/shot.png", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), data) {
		t.Errorf("serve = %d, body = %q", w.Code, w.Body.String())
	}

	if w := uploadFile(t, router, "shot.png", data); w.Code != http.StatusConflict {
		t.Errorf("duplicate upload = %d, want 409", w.Code)
	}
}

func TestUploadAsset_Rejected(t *testing.T) {
	router, store := testEnv(t, "")

	for _, name := range []string{"notes.txt", ".hidden.png"} {
		w := uploadFile(t, router, name, []byte("data"))
		if w.Code == http.StatusCreated {
			t.Errorf("upload %q accepted", name)
		}
	}

	// multipart may clean "../" so either it is rejected or it lands inside Assets.
	uploadFile(t, router, "../escape.png", []byte("data"))
	if _, err := os.Stat(filepath.Join(store.Root(), "escape.png")); err == nil {
		t.Error("file escaped assets directory")
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "..", "escape.png")); err == nil {
		t.Error("file escaped vault directory")
	}
}

func TestUploadAsset_MissingFileField(t *testing.T) {
	router, _ := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeAsset_NotFoundAndTraversal(t *testing.T) {
	ah := NewAssetHandler(t.TempDir(), "Assets")
	r := chi.NewRouter()
	r.Get("/assets/{filename}", ah.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/assets/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", w.Code)
	}

	for _, name := range []string{"../secret.md", "..%2Fsecret.png", "notes.md"} {
		req := httptest.NewRequest(http.MethodGet, "/assets/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		// chi may not route the traversal paths at all (404), or the handler rejects (400).
		if w.Code == http.StatusOK {
			t.Errorf("%q should not return 200", name)
		}
	}
}
