// Command translationsd serves the translation store API and runs its
// maintenance tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-translations/internal/api"
	"github.com/goliatone/go-translations/internal/auth"
	"github.com/goliatone/go-translations/internal/config"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/seeding"
	"github.com/goliatone/go-translations/pkg/di"
)

type cli struct {
	Serve        serveCmd        `cmd:"" help:"Serve the HTTP API."`
	Migrate      migrateCmd      `cmd:"" help:"Create the database schema."`
	Seed         seedCmd         `cmd:"" help:"Create the default locales and tags."`
	Generate     generateCmd     `cmd:"" help:"Generate synthetic translations for load testing."`
	HashPassword hashPasswordCmd `cmd:"" name:"hash-password" help:"Print a bcrypt hash for an auth user entry."`
}

type runtime struct {
	ctx    context.Context
	stdout io.Writer
	load   func() (config.Config, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var grammar cli
	parser, err := kong.New(&grammar,
		kong.Name("translationsd"),
		kong.Description("Multi-locale translation store."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return kctx.Run(&runtime{ctx: ctx, stdout: stdout, load: config.Load})
}

func (rt *runtime) container() (*di.Container, config.Config, error) {
	cfg, err := rt.load()
	if err != nil {
		return nil, config.Config{}, err
	}
	container, err := di.NewContainerFromConfig(rt.ctx, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	return container, cfg, nil
}

type serveCmd struct {
	Migrate bool `help:"Create the schema before serving." default:"true" negatable:""`
}

func (c *serveCmd) Run(rt *runtime) error {
	container, cfg, err := rt.container()
	if err != nil {
		return err
	}
	defer container.Close()

	logger := container.Logger("translations.server")

	if c.Migrate {
		if err := container.Migrate(rt.ctx); err != nil {
			return err
		}
	}

	authService, err := auth.NewService(auth.Config{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
		Users:    cfg.Auth.Users,
		Logger:   logging.AuthLogger(container.LoggerProvider()),
	})
	if err != nil {
		return err
	}

	server, err := api.New(api.Options{
		Repository:      container.Translations(),
		Auth:            authService,
		Health:          container.Ping,
		PerMinute:       cfg.RateLimit.PerMinute,
		ExportPerMinute: cfg.RateLimit.ExportPerMinute,
		Logger:          logging.APILogger(container.LoggerProvider()),
	})
	if err != nil {
		return err
	}
	defer server.Close()

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-rt.ctx.Done():
	}

	logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type migrateCmd struct{}

func (c *migrateCmd) Run(rt *runtime) error {
	container, _, err := rt.container()
	if err != nil {
		return err
	}
	defer container.Close()

	if err := container.Migrate(rt.ctx); err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, "schema ready")
	return nil
}

type seedCmd struct{}

func (c *seedCmd) Run(rt *runtime) error {
	container, _, err := rt.container()
	if err != nil {
		return err
	}
	defer container.Close()

	result, err := seeding.Seed(rt.ctx, container.Locales(), container.Tags())
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "seeded %d locales and %d tags\n", len(result.Locales), len(result.Tags))
	return nil
}

type generateCmd struct {
	Count   int    `help:"Number of translations to generate." default:"100000"`
	Locales int    `help:"Number of locales to use." default:"3"`
	Tags    int    `help:"Number of tags to use." default:"5"`
	Seed    uint64 `help:"Random seed, 0 for a random run." default:"0"`
}

func (c *generateCmd) Run(rt *runtime) error {
	container, _, err := rt.container()
	if err != nil {
		return err
	}
	defer container.Close()

	summary, err := container.Generator().Generate(rt.ctx, seeding.GenerateOptions{
		Count:   c.Count,
		Locales: c.Locales,
		Tags:    c.Tags,
		Seed:    c.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.stdout, "generated %d translations\n", summary.Generated)
	fmt.Fprintf(rt.stdout, "  locales:      %d\n", summary.Locales)
	fmt.Fprintf(rt.stdout, "  tags:         %d\n", summary.Tags)
	fmt.Fprintf(rt.stdout, "  translations: %d\n", summary.Translations)
	return nil
}

type hashPasswordCmd struct {
	Password string `arg:"" help:"Password to hash."`
}

func (c *hashPasswordCmd) Run(rt *runtime) error {
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.stdout, hash)
	return nil
}
