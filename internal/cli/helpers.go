package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/config"
	"github.com/akciovadasz/backend/internal/logger"
)

// environment is shared by all subcommands. open is swapped out in tests.
type environment struct {
	out     io.Writer
	globals *GlobalFlags
	open    func(ctx context.Context, cfg *config.Config, verbose bool) (*app.App, error)
}

// config loads the env file, if any, and reads the configuration.
func (e *environment) config() (*config.Config, error) {
	if e.globals != nil && e.globals.EnvFile != "" {
		if err := godotenv.Load(e.globals.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", e.globals.EnvFile, err)
		}
	}
	return config.Load(), nil
}

func (e *environment) jsonOutput() bool {
	return e.globals != nil && e.globals.JSON
}

// withApp builds the application, runs fn and closes the application.
func (e *environment) withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := e.config()
	if err != nil {
		return err
	}
	verbose := e.globals != nil && e.globals.Verbose

	a, err := e.open(ctx, cfg, verbose)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: close: %v\n", cerr)
		}
	}()

	return fn(ctx, a)
}

// openApp wires the application the way the API server does. Logs go to
// stderr so they never mix with command output.
func openApp(ctx context.Context, cfg *config.Config, verbose bool) (*app.App, error) {
	level := cfg.LogLevel
	if level == "" && !verbose {
		level = "warn"
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logger.ParseLevel(level, cfg.Env),
	}))
	return app.New(ctx, cfg, log, app.Options{})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatTime prints t in loc, or "never" for the zero/epoch time.
func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() || t.Unix() == 0 {
		return "never"
	}
	return t.In(loc).Format("2006-01-02 15:04:05 MST")
}
