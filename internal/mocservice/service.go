// Package mocservice renders and publishes the Map of Content note from the
// vault index.
package mocservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starford/kenaz-moc/internal/apperr"
	"github.com/starford/kenaz-moc/internal/ast"
	"github.com/starford/kenaz-moc/internal/checksum"
	"github.com/starford/kenaz-moc/internal/index"
	"github.com/starford/kenaz-moc/internal/link"
	"github.com/starford/kenaz-moc/internal/moc"
	"github.com/starford/kenaz-moc/internal/parser"
	"github.com/starford/kenaz-moc/internal/storage"
)

// Config describes what the service renders and where it publishes.
type Config struct {
	// Output is the vault path of the published MOC note.
	Output  string
	Folders []string
	Indexes []moc.IndexSpec
	Style   ast.Style
}

// Result is one rendered document.
type Result struct {
	RenderID   string    `json:"render_id"`
	Markdown   string    `json:"markdown"`
	Checksum   string    `json:"checksum"`
	Pages      int       `json:"pages"`
	RenderedAt time.Time `json:"rendered_at"`
	// Output and Written are only set by Publish.
	Output  string `json:"output,omitempty"`
	Written bool   `json:"written"`
}

// PageSummary is the listing form of a page.
type PageSummary struct {
	Path       string   `json:"path"`
	Basename   string   `json:"basename"`
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	CTime      string   `json:"ctime,omitempty"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Image      string   `json:"image,omitempty"`
}

// Target is a resolved link together with the notes linking to it.
type Target struct {
	Path      string   `json:"path"`
	Extension string   `json:"extension"`
	Backlinks []string `json:"backlinks"`
}

// Service coordinates storage, the index and the MOC builder.
type Service struct {
	store  storage.Provider
	db     *index.DB
	cfg    Config
	logger *slog.Logger

	publishMu sync.Mutex
}

// NewService creates a new MOC service. A zero cfg.Style uses ast.DefaultStyle.
func NewService(store storage.Provider, db *index.DB, cfg Config, logger *slog.Logger) *Service {
	if cfg.Style == (ast.Style{}) {
		cfg.Style = ast.DefaultStyle()
	}
	return &Service{store: store, db: db, cfg: cfg, logger: logger}
}

// Output returns the vault path of the published note.
func (s *Service) Output() string { return s.cfg.Output }

// Folders returns the configured folders.
func (s *Service) Folders() []string { return s.cfg.Folders }

func (s *Service) builder() *moc.Builder {
	var exclude []string
	if s.cfg.Output != "" {
		exclude = append(exclude, s.cfg.Output)
	}
	return moc.NewBuilder(s.db, link.NewConverter(s.db, s.cfg.Style.ImageWidth), moc.Options{
		Style:   s.cfg.Style,
		Exclude: exclude,
	})
}

// Render builds the MOC for folders, or for the configured folders when
// none are given.
func (s *Service) Render(ctx context.Context, folders []string) (*Result, error) {
	if len(folders) == 0 {
		folders = s.cfg.Folders
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("%w: no folders to render", apperr.ErrInvalidArgument)
	}
	for _, f := range folders {
		if err := validateFolder(f); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := s.builder()
	doc, pages, err := b.Build(moc.DocumentSpec{Folders: folders, Indexes: s.cfg.Indexes})
	if err != nil {
		return nil, err
	}
	markdown := b.Style().Render(doc)

	res := &Result{
		RenderID:   uuid.NewString(),
		Markdown:   markdown,
		Checksum:   checksum.Sum([]byte(markdown)),
		Pages:      len(pages),
		RenderedAt: time.Now().UTC(),
	}
	s.logger.Debug("moc: rendered",
		slog.String("render_id", res.RenderID),
		slog.Int("pages", res.Pages),
		slog.Any("folders", folders))
	return res, nil
}

// Publish renders the configured folders and writes the output note when
// its content changed. A non-empty ifMatch must equal the checksum of the
// note currently on disk.
func (s *Service) Publish(ctx context.Context, ifMatch string) (*Result, error) {
	if s.cfg.Output == "" {
		return nil, fmt.Errorf("%w: no output note configured", apperr.ErrInvalidArgument)
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	res, err := s.Render(ctx, nil)
	if err != nil {
		return nil, err
	}
	res.Output = s.cfg.Output

	var current string
	existing, err := s.store.Read(s.cfg.Output)
	switch {
	case err == nil:
		current = checksum.Sum(existing)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	if ifMatch != "" && ifMatch != current {
		return nil, apperr.ErrConflict
	}
	if current == res.Checksum {
		s.logger.Debug("moc: output unchanged", slog.String("render_id", res.RenderID))
		return res, nil
	}

	data := []byte(res.Markdown)
	if err := s.store.Write(s.cfg.Output, data); err != nil {
		return nil, err
	}
	if err := s.IndexFile(s.cfg.Output, data); err != nil {
		return nil, err
	}
	res.Written = true

	s.logger.Info("moc: published",
		slog.String("render_id", res.RenderID),
		slog.String("path", s.cfg.Output),
		slog.Int("pages", res.Pages))
	return res, nil
}

// Pages lists the pages under folder, newest first.
func (s *Service) Pages(ctx context.Context, folder string) ([]PageSummary, error) {
	if err := validateFolder(folder); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := s.builder().BuildPages(folder)
	if err != nil {
		return nil, err
	}
	out := make([]PageSummary, len(pages))
	for i, p := range pages {
		out[i] = PageSummary{
			Path:       p.Note.Path,
			Basename:   p.Note.Basename,
			Title:      p.DisplayTitle(),
			URL:        p.URL,
			CTime:      p.CTime,
			Tags:       nonNilSlice(p.Tags),
			Categories: nonNilSlice(p.Categories),
			Image:      p.Image,
		}
	}
	return out, nil
}

// Resolve resolves a link name, bare or written as [[name|label]].
func (s *Service) Resolve(_ context.Context, name string) (*Target, error) {
	name = strings.TrimSpace(name)
	if l := link.ParseWikiLink(name); l != nil {
		name = l.Path
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty link", apperr.ErrInvalidArgument)
	}
	t, ok := s.db.ResolveLink(name)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	base := path.Base(t.Path)
	bl, err := s.db.Backlinks(name, t.Path, base, strings.TrimSuffix(t.Path, ".md"), strings.TrimSuffix(base, ".md"))
	if err != nil {
		return nil, err
	}
	return &Target{Path: t.Path, Extension: t.Extension, Backlinks: nonNilSlice(bl)}, nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(p string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertNote(index.NoteRow{
		Path:            p,
		Title:           res.Title,
		Checksum:        checksum.Sum(data),
		Tags:            res.Tags,
		Frontmatter:     res.Frontmatter,
		FrontmatterKeys: res.Keys,
		UpdatedAt:       time.Now(),
	}, res.Links)
}

func validateFolder(folder string) error {
	if strings.HasPrefix(folder, "/") {
		return fmt.Errorf("%w: folder %q must be relative", apperr.ErrInvalidArgument, folder)
	}
	for _, seg := range strings.Split(folder, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: folder %q escapes the vault", apperr.ErrInvalidArgument, folder)
		}
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
