package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/dir2yaml/internal/config"
	"github.com/temirov/dir2yaml/internal/utils"
)

const (
	profileUse              = "profile"
	profileShortDescription = "manage configuration profiles"
	profileLongDescription  = `List, select and edit the profiles stored in a configuration file.
Profiles are read from ./` + utils.ConfigFileName + ` unless --config or --global is given.
Profile names are case-insensitive and stored in lower case.`

	profileGlobalFlagDescription = "edit the per-user configuration under the home directory"

	activeProfileMarker   = "* "
	inactiveProfileMarker = "  "
	profileLineTemplate   = "%s%s\n"
	profileNameTemplate   = "%s\n"
	errorEncodeProfile    = "encode profile %s: %w"
)

type profileCommandOptions struct {
	global bool
}

// createProfileCommand returns the profile subcommand tree.
func createProfileCommand(app *application) *cobra.Command {
	var options profileCommandOptions

	profileCommand := &cobra.Command{
		Use:   profileUse,
		Short: profileShortDescription,
		Long:  profileLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	profileCommand.PersistentFlags().BoolVar(&options.global, globalFlagName, false, profileGlobalFlagDescription)

	profileCommand.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list profiles, marking the active one",
			Args:  cobra.NoArgs,
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				for _, profileName := range store.ProfileNames() {
					marker := inactiveProfileMarker
					if profileName == store.ActiveProfileName() {
						marker = activeProfileMarker
					}
					if _, printError := fmt.Fprintf(command.OutOrStdout(), profileLineTemplate, marker, profileName); printError != nil {
						return printError
					}
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "use <name>",
			Short: "make a profile active",
			Args:  cobra.ExactArgs(1),
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				return store.SetActive(arguments[0])
			}),
		},
		&cobra.Command{
			Use:   "create",
			Short: "add an empty profile and make it active",
			Args:  cobra.NoArgs,
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				createdName, createError := store.CreateProfile()
				if createError != nil {
					return createError
				}
				_, printError := fmt.Fprintf(command.OutOrStdout(), profileNameTemplate, createdName)
				return printError
			}),
		},
		&cobra.Command{
			Use:   "duplicate <name>",
			Short: "copy a profile and make the copy active",
			Args:  cobra.ExactArgs(1),
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				duplicateName, duplicateError := store.DuplicateProfile(arguments[0])
				if duplicateError != nil {
					return duplicateError
				}
				_, printError := fmt.Fprintf(command.OutOrStdout(), profileNameTemplate, duplicateName)
				return printError
			}),
		},
		&cobra.Command{
			Use:   "rename <old> <new>",
			Short: "rename a profile",
			Args:  cobra.ExactArgs(2),
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				return store.RenameProfile(arguments[0], arguments[1])
			}),
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "delete a profile; deleting the last one restores the default",
			Args:  cobra.ExactArgs(1),
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				return store.DeleteProfile(arguments[0])
			}),
		},
		&cobra.Command{
			Use:   "show [name]",
			Short: "print a profile (default: the active one)",
			Args:  cobra.MaximumNArgs(1),
			RunE: app.withStore(&options, func(command *cobra.Command, store *config.Store, arguments []string) error {
				profileName := store.ActiveProfileName()
				if len(arguments) == 1 {
					profileName = arguments[0]
				}
				profile, profileError := store.Profile(profileName)
				if profileError != nil {
					return profileError
				}
				encoded, encodeError := yaml.Marshal(profile)
				if encodeError != nil {
					return fmt.Errorf(errorEncodeProfile, profileName, encodeError)
				}
				_, printError := command.OutOrStdout().Write(encoded)
				return printError
			}),
		},
		createProfileSetCommand(app, &options),
	)
	return profileCommand
}

// createProfileSetCommand returns "profile set", which stores snapshot settings under a profile.
func createProfileSetCommand(app *application, options *profileCommandOptions) *cobra.Command {
	var projectName string
	var exclusionPatterns []string
	var maxFileSize uint64
	var noSizeLimit bool

	setCommand := &cobra.Command{
		Use:   "set <name> [directories...]",
		Short: "store directories and settings under a profile and make it active",
		Long: `Store settings under a profile, creating it when missing.
Given directories replace the stored list; flags that are not given keep their stored values.`,
		Args: cobra.MinimumNArgs(1),
		RunE: app.withStore(options, func(command *cobra.Command, store *config.Store, arguments []string) error {
			profile, profileError := store.Profile(arguments[0])
			if profileError != nil {
				profile = config.NewProfile()
			}
			if len(arguments) > 1 {
				workingDirectory, workingDirectoryError := app.currentDirectory()
				if workingDirectoryError != nil {
					return workingDirectoryError
				}
				roots, rootsError := resolveRoots(workingDirectory, arguments[1:])
				if rootsError != nil {
					return rootsError
				}
				profile.Directories = roots
			}
			flagSet := command.Flags()
			if flagSet.Changed(projectFlagName) {
				profile.ProjectName = projectName
			}
			if flagSet.Changed(exclusionFlagName) {
				profile.IgnorePatterns = exclusionPatterns
			}
			switch {
			case noSizeLimit:
				profile.NoSizeLimit = true
			case flagSet.Changed(maxSizeFlagName):
				limit := maxFileSize
				profile.MaxFileSizeBytes = &limit
				profile.NoSizeLimit = false
			}
			return store.SaveProfile(arguments[0], profile)
		}),
	}
	setCommand.Flags().StringVarP(&projectName, projectFlagName, projectFlagShorthand, "", projectFlagDescription)
	setCommand.Flags().StringArrayVarP(&exclusionPatterns, exclusionFlagName, exclusionFlagShorthand, nil, exclusionFlagDescription)
	setCommand.Flags().Uint64Var(&maxFileSize, maxSizeFlagName, config.DefaultMaxFileSizeBytes, maxSizeFlagDescription)
	setCommand.Flags().BoolVar(&noSizeLimit, noSizeLimitFlagName, false, noSizeLimitDescription)
	setCommand.MarkFlagsMutuallyExclusive(maxSizeFlagName, noSizeLimitFlagName)
	return setCommand
}

type storeAction func(command *cobra.Command, store *config.Store, arguments []string) error

// withStore opens the store selected by --global or --config before running action.
func (app *application) withStore(options *profileCommandOptions, action storeAction) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		storePath, pathError := app.storePath(options.global)
		if pathError != nil {
			return pathError
		}
		store, openError := config.OpenStore(storePath)
		if openError != nil {
			return openError
		}
		return action(command, store, arguments)
	}
}

func (app *application) storePath(global bool) (string, error) {
	if global {
		return config.GlobalConfigurationPath()
	}
	workingDirectory, workingDirectoryError := app.currentDirectory()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	return config.LocalConfigurationPath(workingDirectory, app.configPath)
}
