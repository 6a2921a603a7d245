package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kenaz-moc/internal/mocservice"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// VaultRoot and AssetsDir locate the directory served under /assets.
	VaultRoot string
	AssetsDir string
	// OnPublish is called after a publish request rewrote the MOC note.
	OnPublish func(*mocservice.Result)
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *mocservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc, opts.OnPublish)
	ah := NewAssetHandler(opts.VaultRoot, opts.AssetsDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// MOC preview and publish.
	r.Get("/moc", h.RenderMOC)
	r.Post("/moc/publish", h.PublishMOC)

	// Lookups used by editors.
	r.Get("/pages", h.ListPages)
	r.Get("/resolve", h.ResolveLink)

	// Images referenced by the rendered MOC.
	r.Get("/assets/{filename}", ah.ServeFile)
	r.Post("/assets", ah.Upload)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
