package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"shakalnost/internal/core"
	"shakalnost/internal/history"
	"shakalnost/internal/pipeline"
	"shakalnost/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the pipeline whenever the settings file changes",
	Long: `Watch reprocesses the input each time the settings file is saved and
rewrites the output. Edits arriving faster than SHAKAL_DEBOUNCE are coalesced
and a new run supersedes one still in flight.

Commands on stdin: "u" undo, "r" redo, "q" quit.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("input", "i", "", "Input image file")
	watchCmd.Flags().StringP("output", "o", "", "Output image file")
	watchCmd.Flags().StringP("settings", "s", "", "TOML parameter file to watch")
	watchCmd.Flags().Bool("gpu-emulation", false, "Run displacement on the emulated accelerator")
	watchCmd.MarkFlagRequired("input")
	watchCmd.MarkFlagRequired("output")
	watchCmd.MarkFlagRequired("settings")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	settingsPath, _ := cmd.Flags().GetString("settings")
	gpuEmulation, _ := cmd.Flags().GetBool("gpu-emulation")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, logger, gpuEmulation)
	if err != nil {
		return err
	}
	defer e.close()

	src, err := e.loader.Load(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	settingsPath = filepath.Clean(settingsPath)
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(settingsPath)); err != nil {
		return fmt.Errorf("watching %s: %w", settingsPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := make(chan string)
	go readCommands(ctx, commands)

	sess := session.New(history.NewWithCapacity(cfg.HistorySize), func(entry history.Entry) error {
		return e.loader.Save(entry.Image, outputPath)
	}, logger)
	deliver := func(r pipeline.Result) {
		if err := sess.Deliver(r); err != nil {
			logger.WithError(err).Error("Failed to write output")
		}
	}
	step := func(name string, fn func() (bool, error)) {
		ok, err := fn()
		switch {
		case err != nil:
			logger.WithError(err).Error("Failed to write output")
		case !ok:
			fmt.Printf("nothing to %s\n", name)
		}
	}
	pending := true

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	logger.WithField("settings", settingsPath).Info("Watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == settingsPath && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("Watcher error")

		case c := <-commands:
			switch c {
			case "u":
				step("undo", sess.Undo)
			case "r":
				step("redo", sess.Redo)
			case "q":
				return nil
			default:
				fmt.Println(`commands: "u" undo, "r" redo, "q" quit`)
			}

		case <-ticker.C:
			if pending && e.runner.ShouldUpdate(cfg.Debounce) {
				pending = false
				settings, err := core.LoadSettings(settingsPath)
				if err != nil {
					logger.WithError(err).Warn("Ignoring unreadable settings")
				} else if err := e.runner.Submit(src, settings.Clamp(), deliver); err != nil {
					return err
				}
			}
			e.runner.Poll()
		}
	}
}

func readCommands(ctx context.Context, out chan<- string) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		select {
		case out <- strings.TrimSpace(sc.Text()):
		case <-ctx.Done():
			return
		}
	}
}
