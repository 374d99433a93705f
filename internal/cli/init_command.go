package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/dir2yaml/internal/config"
	"github.com/temirov/dir2yaml/internal/utils"
)

const (
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a configuration file holding a single default profile.
Without --global the file is ./` + utils.ConfigFileName + ` in the working directory.`
	globalFlagName        = "global"
	globalFlagDescription = "write the per-user configuration under the home directory"
	forceFlagName         = "force"
	forceFlagDescription  = "overwrite an existing configuration file"
	initWrittenTemplate   = "configuration written to %s\n"
)

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := app.currentDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), initWrittenTemplate, writtenPath)
			return printError
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
