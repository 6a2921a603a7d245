package internal

import "io"

// Run modes.
const (
	// ModeServe runs the HTTP API, the watcher and the auto-publisher.
	ModeServe = "serve"
	// ModeRender writes the rendered MOC to the output writer.
	ModeRender = "render"
	// ModePublish renders and writes the MOC note once.
	ModePublish = "publish"
	// ModeMCP serves the MCP tools over stdio.
	ModeMCP = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    string
	folders []string
	out     io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode selects what Run does. The default is ModeServe.
func WithMode(mode string) Option {
	return func(a *application) {
		a.mode = mode
	}
}

// WithFolders overrides the configured folders in ModeRender.
func WithFolders(folders []string) Option {
	return func(a *application) {
		a.folders = folders
	}
}

// WithOutput sets where ModeRender writes the document. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
