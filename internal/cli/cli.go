// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dir2yaml/internal/services/clipboard"
	"github.com/temirov/dir2yaml/internal/utils"
)

const (
	rootUse              = "dir2yaml"
	rootShortDescription = "dir2yaml command line interface"
	rootLongDescription  = `dir2yaml captures one or more directory trees, including file metadata,
SHA-256 hashes and text content, as a single YAML document.
Secrets, oversized files and binaries are listed with a placeholder instead of their content.
Use profiles to keep directories, ignore patterns and size limits between runs.`

	versionFlagName        = "version"
	versionFlagDescription = "display application version"
	versionTemplate        = "dir2yaml version: %s\n"
	verboseFlagName        = "verbose"
	verboseFlagShorthand   = "v"
	verboseFlagDescription = "log every directory and file as it is scanned"
	configFlagName         = "config"
	configFlagDescription  = "path to the configuration file (default ./" + utils.ConfigFileName + ")"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// application carries the process-level collaborators shared by all commands.
type application struct {
	stdout           io.Writer
	copier           clipboard.Copier
	workingDirectory func() (string, error)
	newLogger        func(verbose bool) (*zap.Logger, error)

	verbose    bool
	configPath string
}

func newApplication() *application {
	return &application{
		stdout:           os.Stdout,
		copier:           clipboard.NewService(),
		workingDirectory: os.Getwd,
		newLogger:        utils.NewLeveledLogger,
	}
}

// Execute runs the dir2yaml application.
func Execute() error {
	rootCommand := createRootCommand(newApplication())
	rootCommand.SetArgs(normalizeToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, printError := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return printError
			}
			return command.Help()
		},
	}
	rootCommand.SetOut(app.stdout)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	registerToggleFlag(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, verboseFlagShorthand, verboseFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createSnapshotCommand(app),
		createWatchCommand(app),
		createInitCommand(app),
		createProfileCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func (app *application) logger() (*zap.Logger, error) {
	logger, loggerError := app.newLogger(app.verbose)
	if loggerError != nil {
		return nil, fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	return logger, nil
}

func (app *application) currentDirectory() (string, error) {
	workingDirectory, workingDirectoryError := app.workingDirectory()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}
