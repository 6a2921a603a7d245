package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/kenaz-moc/internal"
	pkgconfig "github.com/starford/kenaz-moc/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runMode(mode string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
		}

		if mode == internal.ModeRender {
			opts = append(opts, internal.WithFolders(cmd.StringSlice("folder")))
			if out := cmd.String("output"); out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				opts = append(opts, internal.WithOutput(f))
			}
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "kenaz-moc",
		Usage:  "Generate a Map of Content note for a Markdown vault",
		Action: runMode(internal.ModeServe),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "Render the MOC and print it without touching the vault",
				Action: runMode(internal.ModeRender),
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "folder",
						Aliases: []string{"f"},
						Usage:   "Folder to render (repeatable, defaults to the configured folders)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the document to this file instead of stdout",
					},
				},
			},
			{
				Name:   "publish",
				Usage:  "Render the configured folders and write the MOC note",
				Action: runMode(internal.ModePublish),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and republish the MOC on vault changes",
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MOC tools over MCP stdio",
				Action: runMode(internal.ModeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
