package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"tricount/internal/backend"
	"tricount/internal/cli"
	"tricount/internal/config"
	"tricount/internal/log"
	"tricount/internal/services"
	"tricount/internal/storage"
	"tricount/internal/tricount"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()
	ctx = log.NewContext(ctx, logger)

	if err := run(ctx, cfg, logger, opts, os.Stdout); err != nil {
		var authErr *services.AuthError
		if errors.As(err, &authErr) {
			logger.Error("Authentication failed", log.FieldError, err)
		} else {
			logger.Error("Export failed", log.FieldError, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, opts options, out io.Writer) error {
	sinks, err := backend.OpenSinks(cfg, logger)
	if err != nil {
		return fmt.Errorf("open sinks: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("Failed to close sinks", log.FieldError, err)
		}
	}()

	if opts.history > 0 {
		if sinks.Journal == nil {
			return errors.New("-history needs JOURNAL_DB_PATH")
		}
		return printHistory(ctx, sinks.Journal, opts.history, out)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	var (
		source      tricount.Source
		identifiers []string
	)
	if len(opts.files) > 0 {
		source, identifiers = tricount.FileSource{}, opts.files
	} else {
		client := tricount.NewClient(tricount.Config{
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.HTTPTimeout,
		})
		// repeated identifiers are fetched once
		source = tricount.NewCachedSource(client, len(opts.identifiers), 0)
		identifiers = opts.identifiers
	}

	pcfg := services.DefaultProcessorConfig()
	pcfg.Concurrency = cfg.Concurrency
	if sinks.Journal != nil {
		pcfg.Recorder = sinks.Journal
	}
	if sinks.Notifier != nil {
		pcfg.Notifier = sinks.Notifier
	}

	logger.Info("Starting tricount-export",
		log.FieldBackend, backendCfg.Type.String(),
		log.FieldCount, len(identifiers),
		log.FieldPath, opts.folder)

	return services.NewProcessor(source, result.Writer, pcfg).Process(ctx, identifiers, opts.folder)
}

func printHistory(ctx context.Context, journal *storage.Journal, limit int, out io.Writer) error {
	records, err := journal.RecentExports(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tIDENTIFIER\tSTATUS\tREF/ERROR")
	for _, r := range records {
		detail := r.Ref
		if r.Status == storage.StatusFailed {
			detail = r.Stage + ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), shortRun(r.RunID), r.Identifier, r.Status, detail)
	}
	return w.Flush()
}

func shortRun(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
