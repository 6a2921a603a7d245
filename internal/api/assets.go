package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kenaz-moc/internal/link"
)

const maxUploadBytes = 10 << 20 // 10 MB

// AssetHandler serves and accepts the images referenced by MOC pages.
type AssetHandler struct {
	vaultRoot string
	dir       string
}

// NewAssetHandler creates a handler for the assetsDir directory of the vault.
func NewAssetHandler(vaultRoot, assetsDir string) *AssetHandler {
	return &AssetHandler{vaultRoot: vaultRoot, dir: assetsDir}
}

func (h *AssetHandler) assetsPath() string {
	return filepath.Join(h.vaultRoot, filepath.FromSlash(h.dir))
}

// safeName validates that the filename is a plain image name (no path
// separators, no traversal) and returns its absolute path.
func (h *AssetHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !link.IsImage(cleaned) {
		return "", fmt.Errorf("not an image: %s", name)
	}
	abs := filepath.Join(h.assetsPath(), cleaned)
	if !strings.HasPrefix(abs, h.assetsPath()+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes assets directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/assets/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/assets (multipart/form-data, field "file").
// The watcher indexes the new file, after which pages can reference it.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); statErr == nil {
		writeJSON(w, http.StatusConflict, errorBody("asset already exists"))
		return
	}

	if err := os.MkdirAll(h.assetsPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create assets dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	name := filepath.Base(abs)
	writeJSON(w, http.StatusCreated, AssetUploadResponse{
		Path:  path.Join(h.dir, name),
		Size:  written,
		Cover: "[[" + name + "]]",
		URL:   path.Join("/api/assets", name),
	})
}
