// Command coordgrid reprojects coordinates copied from a spreadsheet. It
// reads the clipboard (or -in), asks for the column mapping and coordinate
// systems in the terminal, and writes the result as CSV and/or back to the
// clipboard when the menu is closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/coordgrid/internal/application"
	"github.com/JonMunkholm/coordgrid/internal/config"
	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/geodesy"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
	"github.com/JonMunkholm/coordgrid/internal/table"
)

func main() {
	in := flag.String("in", "", "read tab-separated text from this file instead of the clipboard")
	out := flag.String("out", "", "write the result table as CSV to this file on exit")
	copyResult := flag.Bool("copy", false, "copy the result table to the clipboard on exit")
	source := flag.String("source", "", "source CRS, e.g. 4326 or \"WGS 84 (4326)\"")
	target := flag.String("target", "", "target CRS")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	if err := run(*in, *out, *copyResult, *source, *target, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "coordgrid:", core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(in, out string, copyResult bool, source, target, logPath string) error {
	// The CLI does not override variables already set in the shell
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the menu, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logging.SetupWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := crs.Open(ctx, cfg.Catalog, cfg.Database)
	if err != nil {
		return err
	}
	transformer := geodesy.New(catalog)
	defer transformer.Close()

	service := core.NewService(catalog, reproject.NewEngine(transformer), core.Config{
		MaxRows:            cfg.Window.MaxRows,
		MaxCols:            cfg.Window.MaxCols,
		SuggestLimit:       cfg.Catalog.SuggestLimit,
		MaxReprojections:   1,
		ReprojectQueueWait: cfg.Reproject.MaxWaitTime,
		ReprojectTimeout:   cfg.Reproject.Timeout,
	})
	id, err := service.NewWindow(ctx)
	if err != nil {
		return err
	}

	clip := application.SystemClipboard{}

	text, err := readInput(in, clip)
	if err != nil {
		return err
	}

	if source != "" && target != "" {
		if err := service.SetCRS(ctx, id, source, target); err != nil {
			return err
		}
	}

	model := application.New(ctx, application.Options{
		Service:      service,
		WindowID:     id,
		Clipboard:    clip,
		OutPath:      out,
		InitialText:  text,
		SuggestLimit: cfg.Catalog.SuggestLimit,
		Debounce:     cfg.Catalog.Debounce,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	// Unblocks a paste still waiting for the mapping dialog
	cancel()

	return writeOutputs(context.Background(), service, id, out, copyResult, clip)
}

// readInput returns the -in file, or the clipboard when no file is given. A
// file loses its UTF-8 BOM. An unreadable clipboard starts with an empty
// table.
func readInput(path string, clip application.Clipboard) (string, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		defer f.Close()
		return table.ReadText(f)
	}

	text, err := clip.ReadAll()
	if err != nil {
		slog.Warn("clipboard not readable, starting empty", "error", err)
		return "", nil
	}
	return text, nil
}

func writeOutputs(ctx context.Context, service *core.Service, id, out string, copyResult bool, clip application.Clipboard) error {
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		err = service.ExportCSV(ctx, id, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		switch {
		case errors.Is(err, core.ErrNothingToExport):
			os.Remove(out)
			fmt.Fprintln(os.Stderr, "coordgrid: nothing converted, no CSV written")
		case err != nil:
			return err
		default:
			fmt.Fprintln(os.Stderr, "coordgrid: wrote", out)
		}
	}

	if copyResult {
		text, ok, err := service.Copy(id, core.TableResult)
		if err != nil {
			return err
		}
		if ok {
			if err := clip.WriteAll(text); err != nil {
				return fmt.Errorf("write clipboard: %w", err)
			}
			fmt.Fprintln(os.Stderr, "coordgrid: result copied to clipboard")
		}
	}
	return nil
}
