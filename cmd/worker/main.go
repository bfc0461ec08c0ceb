package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/natalis-app/natalis-backend/config"
	"github.com/natalis-app/natalis-backend/internal/bootstrap"
	"github.com/natalis-app/natalis-backend/internal/charts/sanitize"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
)

const usage = `usage:
  worker rebuild <profileID>   render one profile's chart now
  worker sweep                 render every missing or failed chart once
  worker sanitize <file.svg>   print sanitized markup`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	switch os.Args[1] {
	case "rebuild":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		runWithApp(func(ctx context.Context, app *bootstrap.App) error {
			outcome := app.Orchestrator.EnsureChart(ctx, os.Args[2])
			fmt.Println(outcome)
			return nil
		})
	case "sweep":
		runWithApp(RunSweep)
	case "sanitize":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		if err := RunSanitize(os.Args[2], os.Getenv("CHART_THEME_DEFAULTS")); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
}

func runWithApp(fn func(ctx context.Context, app *bootstrap.App) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	zap.ReplaceGlobals(zl)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	app, err := bootstrap.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		log.Fatal(err)
	}
}

// RunSweep queues one batch of stale profiles and drains it in process.
func RunSweep(ctx context.Context, app *bootstrap.App) error {
	n, err := app.Scheduler.Sweep(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		id, ok := app.Queue.Take(ctx)
		if !ok {
			break
		}
		fmt.Printf("%s %s\n", id, app.Orchestrator.EnsureChart(ctx, id))
	}
	return nil
}

// RunSanitize prints the display form of a stored chart file.
func RunSanitize(path, themePath string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	opts, err := sanitize.LoadOptions(themePath)
	if err != nil {
		return err
	}
	fmt.Print(sanitize.New(opts).Sanitize(string(raw)))
	return nil
}
