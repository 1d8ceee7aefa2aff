package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func plan(ctx context.Context, cmd *cli.Command) error {
	source := cmd.Args().First()
	if source == "" {
		return fmt.Errorf("usage: ansuz plan <source note>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.CreatePlan(ctx, source, internal.WithConfig(cfg))
}

func generate(ctx context.Context, cmd *cli.Command) error {
	planPath := cmd.Args().First()
	if planPath == "" {
		return fmt.Errorf("usage: ansuz generate <plan note>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("overwrite") {
		cfg.Generation.Overwrite = true
	}
	return internal.GenerateNotes(ctx, planPath, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "ansuz",
		Usage:   "Turn a source note into a plan of atomic notes and generate them from vault templates",
		Version: internal.Version,
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
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live progress events",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the pipeline as MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "plan",
				Usage:     "Create a plan note from a source note",
				ArgsUsage: "<source note>",
				Action:    plan,
			},
			{
				Name:      "generate",
				Usage:     "Generate the notes listed in a plan",
				ArgsUsage: "<plan note>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace notes that already exist",
					},
				},
				Action: generate,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		stop()
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
