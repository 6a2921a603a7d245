package api

import (
	"net/http"

	"github.com/starford/kenaz-moc/internal/checksum"
	"github.com/starford/kenaz-moc/internal/mocservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *mocservice.Service
	onPublish func(*mocservice.Result)
}

// NewHandler creates a new Handler. onPublish may be nil.
func NewHandler(svc *mocservice.Service, onPublish func(*mocservice.Result)) *Handler {
	return &Handler{svc: svc, onPublish: onPublish}
}

// RenderMOC handles GET /api/moc.
//
//	@Summary		Render the Map of Content without writing it
//	@Tags			moc
//	@Produce		text/markdown
//	@Param			folder			query		[]string	false	"Folder prefix (repeatable, defaults to the configured folders)"
//	@Param			If-None-Match	header		string		false	"Checksum of a previous render"
//	@Success		200				{string}	string
//	@Success		304				"Unchanged"
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/moc [get]
func (h *Handler) RenderMOC(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Render(r.Context(), r.URL.Query()["folder"])
	if err != nil {
		writeError(w, "render moc", err)
		return
	}

	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	w.Header().Set("X-Render-ID", res.RenderID)
	if inm := r.Header.Get("If-None-Match"); inm != "" && checksum.FromETag(inm) == res.Checksum {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Markdown))
}

// PublishMOC handles POST /api/moc/publish.
//
//	@Summary		Render the configured folders and write the MOC note
//	@Tags			moc
//	@Produce		json
//	@Param			If-Match	header		string	false	"SHA-256 checksum of the MOC note on disk"
//	@Success		200			{object}	PublishResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/moc/publish [post]
func (h *Handler) PublishMOC(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Publish(r.Context(), checksum.FromETag(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "publish moc", err)
		return
	}
	if res.Written && h.onPublish != nil {
		h.onPublish(res)
	}
	w.Header().Set("ETag", checksum.ETag(res.Checksum))
	writeJSON(w, http.StatusOK, newPublishResponse(res))
}

// ListPages handles GET /api/pages.
//
//	@Summary		List the pages of a folder, newest first
//	@Tags			moc
//	@Produce		json
//	@Param			folder	query		string	false	"Folder prefix (empty for the whole vault)"
//	@Success		200		{object}	PagesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.Pages(r.Context(), r.URL.Query().Get("folder"))
	if err != nil {
		writeError(w, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, PagesResponse{Pages: pages, Total: len(pages)})
}

// ResolveLink handles GET /api/resolve.
//
//	@Summary		Resolve a wiki-link name to a vault file
//	@Tags			moc
//	@Produce		json
//	@Param			link	query		string	true	"Link name, e.g. Programming or [[Programming|label]]"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("link")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'link' is required"))
		return
	}
	target, err := h.svc.Resolve(r.Context(), name)
	if err != nil {
		writeError(w, "resolve link", err)
		return
	}
	writeJSON(w, http.StatusOK, target)
}
