// cmd/phpcbf/main.go
package main

import (
	"context"
	"fmt"
	"io"
	stlog "log" // Standard log for fatal errors before the logger is ready
	"os"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/phpcbf/internal/buffer"
	"github.com/bethropolis/phpcbf/internal/config"
	"github.com/bethropolis/phpcbf/internal/diffview"
	"github.com/bethropolis/phpcbf/internal/event"
	"github.com/bethropolis/phpcbf/internal/fixer"
	"github.com/bethropolis/phpcbf/internal/host"
	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/patch"
)

const version = "0.3.0"

// cliBufferID names the single buffer the CLI operates on.
const cliBufferID = "cli"

func main() {
	// --- Flag parsing ---
	var flags config.Flags
	args := flags.ParseFlags()

	if *flags.Version {
		fmt.Printf("%s %s\n", config.AppName, version)
		return
	}

	// --- Configuration ---
	cfg, err := config.Load(*flags.ConfigFilePath, &flags)
	if err != nil {
		stlog.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Logger initialization ---
	var logOut io.Writer = os.Stderr
	if cfg.Logger.File != "" && cfg.Logger.File != "-" {
		logFile, err := os.OpenFile(cfg.Logger.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			stlog.Fatalf("Failed to open log file '%s': %v", cfg.Logger.File, err)
		}
		defer logFile.Close()
		logOut = logFile
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level), logOut)

	if len(args) != 1 {
		logger.Fatalf("usage: %s [flags] <file.php>", config.AppName)
	}
	filePath := args[0]
	logger.Debugf("Fixing file: %s", filePath)

	// --- Host setup ---
	buf := buffer.New()
	if err := buf.Load(filePath); err != nil {
		logger.Fatalf("Error loading '%s': %v", filePath, err)
	}

	events := event.NewManager()
	editorHost := host.NewHeadless(events)
	editorHost.SetStatusSink(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	editorHost.SetErrorSink(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	editorHost.AddBuffer(cliBufferID, buf)

	fix := fixer.New(editorHost, cfg)
	if err := fix.Initialize(); err != nil {
		logger.Fatalf("Error initializing fixer: %v", err)
	}

	// --- Run one manual fix ---
	original := buf.String()
	if err := fix.FixBuffer(context.Background(), cliBufferID); err != nil {
		os.Exit(1)
	}
	fixed := buf.String()

	// --- Output ---
	switch {
	case *flags.Diff:
		if edit, changed := patch.Compute(original, fixed); changed {
			fmt.Print(diffview.Render(original, edit))
		}
	case *flags.Write:
		if buf.IsModified() {
			if err := buf.Save(""); err != nil {
				logger.Fatalf("Error writing '%s': %v", filePath, err)
			}
			logger.Infof("Wrote %s", filePath)
		}
	case *flags.Clip:
		if err := clipboard.WriteAll(fixed); err != nil {
			logger.Fatalf("Error copying to clipboard: %v", err)
		}
	default:
		if _, err := os.Stdout.WriteString(fixed); err != nil {
			logger.Fatalf("Error writing output: %v", err)
		}
	}
}
