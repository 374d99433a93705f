package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dir2yaml/internal/watch"
)

const (
	watchUse              = "watch [directories...]"
	watchAlias            = "w"
	watchShortDescription = "rewrite the snapshot whenever files change (" + watchAlias + ")"
	watchLongDescription  = `Write a snapshot, then keep watching the directories and write a fresh
snapshot after every burst of changes. Each rebuild is a full re-scan.
Stop with Ctrl+C.`
	watchUsageExample = `  # Keep snapshot.yaml current while editing
  dir2yaml watch -o snapshot.yaml ./src`

	debounceFlagName        = "debounce"
	debounceFlagDescription = "quiet period that ends a burst of changes"

	watchStartedMessage = "watching for changes"
	rebuildMessage      = "change detected, rebuilding snapshot"
)

// createWatchCommand returns the watch subcommand.
func createWatchCommand(app *application) *cobra.Command {
	var options snapshotOptions
	var debounce time.Duration

	watchCommand := &cobra.Command{
		Use:     watchUse,
		Aliases: []string{watchAlias},
		Short:   watchShortDescription,
		Long:    watchLongDescription,
		Example: watchUsageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			logger, loggerError := app.logger()
			if loggerError != nil {
				return loggerError
			}
			defer func() {
				_ = logger.Sync()
			}()
			request, requestError := app.resolveSnapshotRequest(command, options, arguments)
			if requestError != nil {
				return requestError
			}
			ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.runWatch(ctx, request, debounce, logger)
		},
	}
	addSnapshotFlags(watchCommand, &options)
	watchCommand.Flags().DurationVar(&debounce, debounceFlagName, watch.DefaultDebounce, debounceFlagDescription)
	return watchCommand
}

// runWatch writes the first snapshot, then rebuilds after every debounced change until ctx ends.
func (app *application) runWatch(ctx context.Context, request snapshotRequest, debounce time.Duration, logger *zap.Logger) error {
	var ignoredPaths []string
	if request.outputPath != "" {
		ignoredPaths = append(ignoredPaths, request.outputPath)
	}
	watcher, watcherError := watch.New(watch.Options{
		Roots:          request.roots,
		IgnorePatterns: request.ignorePatterns,
		IgnoredPaths:   ignoredPaths,
		Debounce:       debounce,
		Logger:         logger,
	})
	if watcherError != nil {
		return watcherError
	}

	if snapshotError := app.runSnapshot(ctx, request, logger); snapshotError != nil {
		return snapshotError
	}
	logger.Info(watchStartedMessage, zap.Strings("roots", request.roots))

	return watcher.Run(ctx, func(rebuildContext context.Context) error {
		logger.Info(rebuildMessage)
		return app.runSnapshot(rebuildContext, request, logger)
	})
}
