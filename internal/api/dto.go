package api

import (
	"time"

	"github.com/starford/kenaz-moc/internal/mocservice"
)

// PublishResponse is returned by POST /api/moc/publish.
type PublishResponse struct {
	RenderID   string    `json:"render_id" example:"6f1c3c1e-0a53-4f43-9d43-2b1b9f0f5c11" validate:"required"`
	Output     string    `json:"output" example:"MOC.md" validate:"required"`
	Checksum   string    `json:"checksum" example:"abc123..." validate:"required"`
	Pages      int       `json:"pages" example:"42" validate:"required"`
	Written    bool      `json:"written" validate:"required"`
	RenderedAt time.Time `json:"rendered_at" validate:"required"`
}

func newPublishResponse(res *mocservice.Result) PublishResponse {
	return PublishResponse{
		RenderID:   res.RenderID,
		Output:     res.Output,
		Checksum:   res.Checksum,
		Pages:      res.Pages,
		Written:    res.Written,
		RenderedAt: res.RenderedAt,
	}
}

// PageSummary is a page as listed by GET /api/pages (aliased from the domain layer).
type PageSummary = mocservice.PageSummary

// PagesResponse wraps a page listing.
type PagesResponse struct {
	Pages []PageSummary `json:"pages" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// ResolveResponse is a resolved link target (aliased from the domain layer).
type ResolveResponse = mocservice.Target

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Path  string `json:"path" example:"Assets/cover.png" validate:"required"`
	Size  int64  `json:"size" example:"12345" validate:"required"`
	Cover string `json:"cover" example:"[[cover.png]]" validate:"required"`
	URL   string `json:"url" example:"/api/assets/cover.png" validate:"required"`
}
