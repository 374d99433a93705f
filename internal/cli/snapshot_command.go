package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/dir2yaml/internal/config"
	"github.com/temirov/dir2yaml/internal/document"
	"github.com/temirov/dir2yaml/internal/progress"
	"github.com/temirov/dir2yaml/internal/snapshot"
	"github.com/temirov/dir2yaml/internal/tokenizer"
	"github.com/temirov/dir2yaml/internal/types"
	"github.com/temirov/dir2yaml/internal/utils"
)

const (
	snapshotUse              = "snapshot [directories...]"
	snapshotAlias            = "s"
	snapshotShortDescription = "write a YAML snapshot of directories (" + snapshotAlias + ")"
	snapshotLongDescription  = `Capture directories as one YAML document.
Directories come from the arguments, or from the selected profile when none are given.
The document goes to standard output unless --output or --copy is set.`
	snapshotUsageExample = `  # Snapshot two directories under one project name
  dir2yaml snapshot -p demo ./api ./web

  # Use the "work" profile, exclude logs and copy the result
  dir2yaml snapshot --profile work -e '*.tmp' --copy`

	profileFlagName          = "profile"
	profileFlagDescription   = "profile to read directories and defaults from (default: active profile)"
	projectFlagName          = "project"
	projectFlagShorthand     = "p"
	projectFlagDescription   = "project name written to the document"
	exclusionFlagName        = "exclude"
	exclusionFlagShorthand   = "e"
	exclusionFlagDescription = "ignore pattern matched against entry names (repeatable)"
	maxSizeFlagName          = "max-size"
	maxSizeFlagDescription   = "largest file size in bytes whose content is captured"
	noSizeLimitFlagName      = "no-size-limit"
	noSizeLimitDescription   = "capture content regardless of file size"
	outputFlagName           = "output"
	outputFlagShorthand      = "o"
	outputFlagDescription    = "write the document to this file"
	copyFlagName             = "copy"
	copyFlagDescription      = "copy the document to the system clipboard"
	tokensFlagName           = "tokens"
	tokensFlagDescription    = "log the token count of the document"
	modelFlagName            = "model"
	modelFlagDescription     = "tokenizer model to use for token counting"

	documentWrittenMessage = "snapshot written"
	documentCopiedMessage  = "snapshot copied to clipboard"
	tokenCountMessage      = "document token count"
	errorWriteOutputFormat = "write snapshot to %s: %w"
	errorCountTokensFormat = "count document tokens: %w"
)

// snapshotOptions holds the flags shared by snapshot and watch.
type snapshotOptions struct {
	profileName       string
	projectName       string
	exclusionPatterns []string
	maxFileSize       uint64
	noSizeLimit       bool
	outputPath        string
	copyToClipboard   bool
	countTokens       bool
	tokenModel        string
}

// snapshotRequest is a fully resolved snapshot invocation.
type snapshotRequest struct {
	roots            []string
	projectName      string
	ignorePatterns   []string
	maxFileSizeBytes *uint64
	outputPath       string
	copyToClipboard  bool
	countTokens      bool
	tokenModel       string
}

func addSnapshotFlags(command *cobra.Command, options *snapshotOptions) {
	flagSet := command.Flags()
	flagSet.StringVar(&options.profileName, profileFlagName, "", profileFlagDescription)
	flagSet.StringVarP(&options.projectName, projectFlagName, projectFlagShorthand, "", projectFlagDescription)
	flagSet.StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	flagSet.Uint64Var(&options.maxFileSize, maxSizeFlagName, config.DefaultMaxFileSizeBytes, maxSizeFlagDescription)
	flagSet.BoolVar(&options.noSizeLimit, noSizeLimitFlagName, false, noSizeLimitDescription)
	flagSet.StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerToggleFlag(flagSet, &options.copyToClipboard, copyFlagName, "", copyFlagDescription)
	registerToggleFlag(flagSet, &options.countTokens, tokensFlagName, "", tokensFlagDescription)
	flagSet.StringVar(&options.tokenModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	command.MarkFlagsMutuallyExclusive(maxSizeFlagName, noSizeLimitFlagName)
}

// createSnapshotCommand returns the snapshot subcommand.
func createSnapshotCommand(app *application) *cobra.Command {
	var options snapshotOptions

	snapshotCommand := &cobra.Command{
		Use:     snapshotUse,
		Aliases: []string{snapshotAlias},
		Short:   snapshotShortDescription,
		Long:    snapshotLongDescription,
		Example: snapshotUsageExample,
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
			return app.runSnapshot(command.Context(), request, logger)
		},
	}
	addSnapshotFlags(snapshotCommand, &options)
	return snapshotCommand
}

// resolveSnapshotRequest merges flags over the selected profile.
func (app *application) resolveSnapshotRequest(command *cobra.Command, options snapshotOptions, arguments []string) (snapshotRequest, error) {
	workingDirectory, workingDirectoryError := app.currentDirectory()
	if workingDirectoryError != nil {
		return snapshotRequest{}, workingDirectoryError
	}
	applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: app.configPath,
	})
	if loadError != nil {
		return snapshotRequest{}, loadError
	}
	_, profile, profileError := applicationConfiguration.ActiveProfile(options.profileName)
	if profileError != nil {
		return snapshotRequest{}, profileError
	}

	directories := arguments
	if len(directories) == 0 {
		directories = profile.Directories
	}
	roots, rootsError := resolveRoots(workingDirectory, directories)
	if rootsError != nil {
		return snapshotRequest{}, rootsError
	}

	request := snapshotRequest{
		roots:            roots,
		projectName:      options.projectName,
		ignorePatterns:   utils.DeduplicatePatterns(append(append([]string{}, profile.IgnorePatterns...), options.exclusionPatterns...)),
		maxFileSizeBytes: profile.SizeLimit(),
		copyToClipboard:  options.copyToClipboard,
		countTokens:      options.countTokens,
		tokenModel:       options.tokenModel,
	}
	if request.projectName == "" {
		request.projectName = profile.ProjectName
	}
	if request.projectName == "" {
		request.projectName = document.DefaultProjectName(roots)
	}
	switch {
	case options.noSizeLimit:
		request.maxFileSizeBytes = nil
	case command.Flags().Changed(maxSizeFlagName):
		limit := options.maxFileSize
		request.maxFileSizeBytes = &limit
	}
	if options.outputPath != "" {
		request.outputPath = options.outputPath
		if !filepath.IsAbs(request.outputPath) {
			request.outputPath = filepath.Join(workingDirectory, request.outputPath)
		}
	}
	return request, nil
}

// runSnapshot builds, renders and delivers one document.
func (app *application) runSnapshot(ctx context.Context, request snapshotRequest, logger *zap.Logger) error {
	trees, buildError := buildTrees(ctx, request, logger)
	if buildError != nil {
		return buildError
	}
	renderedDocument, serializeError := document.Serialize(trees, request.projectName)
	if serializeError != nil {
		return serializeError
	}
	return app.deliverDocument(request, renderedDocument, logger)
}

// buildTrees runs the builder in one goroutine while another drains its
// progress notices into debug logs.
func buildTrees(ctx context.Context, request snapshotRequest, logger *zap.Logger) ([]types.RootTree, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	queue := progress.NewQueue()
	group, _ := errgroup.WithContext(ctx)

	var trees []types.RootTree
	group.Go(func() error {
		defer queue.Close()
		treeBuilder := snapshot.TreeBuilder{
			IgnorePatterns:   request.ignorePatterns,
			MaxFileSizeBytes: request.maxFileSizeBytes,
			Progress:         queue,
		}
		trees = treeBuilder.Build(request.roots)
		return nil
	})
	group.Go(func() error {
		for message := range queue.Messages() {
			logger.Debug(message.String(), zap.String("kind", string(message.Kind)))
		}
		return nil
	})

	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	return trees, nil
}

func (app *application) deliverDocument(request snapshotRequest, renderedDocument string, logger *zap.Logger) error {
	if request.countTokens {
		counter, encodingName, counterError := tokenizer.NewCounter(tokenizer.Config{Model: request.tokenModel})
		if counterError != nil {
			return counterError
		}
		tokenCount, countError := tokenizer.CountDocument(counter, renderedDocument)
		if countError != nil {
			return fmt.Errorf(errorCountTokensFormat, countError)
		}
		logger.Info(tokenCountMessage, zap.Int("tokens", tokenCount), zap.String("model", encodingName))
	}

	documentFields := []zap.Field{
		zap.String("size", utils.FormatFileSize(uint64(len(renderedDocument)))),
		zap.String("content_limit", utils.FormatSizeLimit(request.maxFileSizeBytes)),
	}
	if request.outputPath != "" {
		if writeError := os.WriteFile(request.outputPath, []byte(renderedDocument), 0o644); writeError != nil {
			return fmt.Errorf(errorWriteOutputFormat, request.outputPath, writeError)
		}
		logger.Info(documentWrittenMessage, append([]zap.Field{zap.String("path", request.outputPath)}, documentFields...)...)
	}
	if request.copyToClipboard {
		if copyError := app.copier.Copy(renderedDocument); copyError != nil {
			return copyError
		}
		logger.Info(documentCopiedMessage, documentFields...)
	}
	if request.outputPath == "" && !request.copyToClipboard {
		if _, printError := fmt.Fprint(app.stdout, renderedDocument); printError != nil {
			return printError
		}
	}
	return nil
}
