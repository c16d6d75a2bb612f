// Command razhodi-csv parses, imports and exports the expense spreadsheets
// from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"razhodi/internal/backend"
	"razhodi/internal/cli"
	"razhodi/internal/csvsheet"
	applog "razhodi/internal/log"
	"razhodi/internal/services"
)

// opener builds the configured backend for the store modes.
type opener func(ctx context.Context, logger *applog.Logger) (*backend.Result, error)

func main() {
	logger := applog.New(applog.Config{Component: applog.ComponentCLI, Writer: os.Stderr})
	if err := run(context.Background(), os.Args[1:], os.Stdout, logger, openConfigured); err != nil {
		fmt.Fprintln(os.Stderr, "razhodi-csv:", err)
		os.Exit(1)
	}
}

func openConfigured(ctx context.Context, logger *applog.Logger) (*backend.Result, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *applog.Logger, open opener) error {
	fs := flag.NewFlagSet("razhodi-csv", flag.ContinueOnError)
	mode := fs.String("mode", "parse", "parse, import or export")
	in := fs.String("in", "", "CSV file to read (parse, import)")
	out := fs.String("out", ".", "directory to write the export to")
	apartment := fs.String("apartment", "", "apartment name (import, export)")
	year := fs.Int("year", time.Now().Year(), "year to export")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *mode {
	case "parse":
		if *in == "" {
			return errors.New("-in is required")
		}
		text, err := os.ReadFile(*in)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(csvsheet.Parse(string(text)))

	case "import":
		if *in == "" || *apartment == "" {
			return errors.New("-in and -apartment are required")
		}
		text, err := os.ReadFile(*in)
		if err != nil {
			return err
		}
		return withBackend(ctx, logger, open, func(res *backend.Result) error {
			apt, err := res.Store.FindApartmentByName(ctx, *apartment)
			if err != nil {
				return err
			}
			report, err := services.NewImportService(res.Store, res.Publisher, nil).Import(ctx, apt.ID, string(text))
			if err != nil {
				return err
			}
			applog.NewStructuredLogger(logger).
				LogImport(ctx, apt.ID, filepath.Base(*in), report.Imported, report.SkippedCategories, report.Years)
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})

	case "export":
		if *apartment == "" {
			return errors.New("-apartment is required")
		}
		return withBackend(ctx, logger, open, func(res *backend.Result) error {
			apt, err := res.Store.FindApartmentByName(ctx, *apartment)
			if err != nil {
				return err
			}
			svc := services.NewExportService(res.Store)
			input, err := svc.Input(ctx, apt.ID, *year)
			if err != nil {
				return err
			}
			path := exportPath(*out, csvsheet.FileName(input.ApartmentName, input.Year))
			if err := writeFile(path, func(w io.Writer) error { return csvsheet.Write(w, input) }); err != nil {
				return err
			}
			logger.Info("Grid exported",
				applog.FieldApartmentID, apt.ID,
				applog.FieldYear, input.Year,
				"file", path)
			_, err = fmt.Fprintln(stdout, path)
			return err
		})

	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

// exportPath joins dir and name with path separators in name replaced, so
// an apartment name can never point outside dir.
func exportPath(dir, name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
	return filepath.Join(dir, name)
}

// writeFile creates path and fills it with write. A failed write leaves no
// file behind.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func withBackend(ctx context.Context, logger *applog.Logger, open opener, fn func(*backend.Result) error) error {
	res, err := open(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup error", "error", err)
		}
	}()
	return fn(res)
}
