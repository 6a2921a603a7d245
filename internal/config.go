package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/kenaz-moc/internal/ast"
	"github.com/starford/kenaz-moc/internal/logging"
	"github.com/starford/kenaz-moc/internal/moc"
	"github.com/starford/kenaz-moc/internal/mocservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	MOC    MOCConfig         `yaml:"moc"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.MOC.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = logging.FormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.FormatJSON, logging.FormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MOCConfig describes the Map of Content: which folders it lists, which
// indexes follow them, where it is published and how it is rendered.
type MOCConfig struct {
	// Output is the vault path of the generated note. Empty disables publishing.
	Output    string        `yaml:"output"`
	Folders   []string      `yaml:"folders"`
	Indexes   []IndexConfig `yaml:"indexes"`
	Style     StyleConfig   `yaml:"style"`
	AssetsDir string        `yaml:"assets_dir"`
	Watch     WatchConfig   `yaml:"watch"`
}

// Validate validates the MOC configuration.
func (c *MOCConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.By(markdownPath)),
		validation.Field(&c.Folders, validation.Required, validation.Each(validation.Required, validation.By(vaultRelative))),
		validation.Field(&c.Indexes),
		validation.Field(&c.AssetsDir, validation.By(vaultRelative)),
	); err != nil {
		return fmt.Errorf("moc: %w", err)
	}
	if err := c.Style.Validate(); err != nil {
		return fmt.Errorf("moc: style: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("moc: watch: %w", err)
	}
	return nil
}

// ServiceConfig converts the section into the render service configuration.
func (c *MOCConfig) ServiceConfig() mocservice.Config {
	indexes := make([]moc.IndexSpec, 0, len(c.Indexes))
	for _, ic := range c.Indexes {
		indexes = append(indexes, moc.IndexSpec{
			Field:         ic.Field,
			Label:         ic.Label,
			HideSingleton: ic.HideSingleton,
		})
	}
	return mocservice.Config{
		Output:  c.Output,
		Folders: c.Folders,
		Indexes: indexes,
		Style:   c.Style.Style(),
	}
}

// IndexConfig describes one cross-folder index.
type IndexConfig struct {
	Field         string `yaml:"field"`
	Label         string `yaml:"label"`
	HideSingleton bool   `yaml:"hide_singleton"`
}

// Validate validates the index configuration.
func (c IndexConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Field, validation.Required),
		validation.Field(&c.Label, validation.Required),
	)
}

// StyleConfig holds the markdown serializer options. Empty values fall
// back to the defaults.
type StyleConfig struct {
	HeadingMarker string `yaml:"heading_marker"`
	Tab           string `yaml:"tab"`
	Dash          string `yaml:"dash"`
	ImageWidth    int    `yaml:"image_width"`
}

// Validate validates the style configuration.
func (c *StyleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dash, validation.In("-", "*", "+")),
		validation.Field(&c.ImageWidth, validation.Min(0)),
	)
}

// Style returns the serializer style with defaults filled in.
func (c *StyleConfig) Style() ast.Style {
	s := ast.DefaultStyle()
	if c.HeadingMarker != "" {
		s.HeadingMarker = c.HeadingMarker
	}
	if c.Tab != "" {
		s.Tab = c.Tab
	}
	if c.Dash != "" {
		s.Dash = c.Dash
	}
	if c.ImageWidth > 0 {
		s.ImageWidth = c.ImageWidth
	}
	return s
}

// WatchConfig controls publishing on vault changes in serve mode.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

func markdownPath(value interface{}) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if !strings.HasSuffix(strings.ToLower(p), ".md") {
		return fmt.Errorf("must be a .md file")
	}
	return vaultRelative(p)
}

func vaultRelative(value interface{}) error {
	p, _ := value.(string)
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("must be relative to the vault")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Errorf("must not leave the vault")
		}
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	style := ast.DefaultStyle()
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./kenaz-moc.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		MOC: MOCConfig{
			Output: "MOC.md",
			Indexes: []IndexConfig{
				{Field: "categories", Label: "Category"},
				{Field: "tags", Label: "Tag"},
			},
			Style: StyleConfig{
				HeadingMarker: style.HeadingMarker,
				Tab:           style.Tab,
				Dash:          style.Dash,
				ImageWidth:    style.ImageWidth,
			},
			AssetsDir: "Assets",
			Watch: WatchConfig{
				Enabled:  true,
				Debounce: mocservice.DefaultDebounce,
			},
		},
	}
}
