package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/dir2yaml/internal/utils"
)

const (
	// DefaultProfileName names the profile written by init and restored when the last profile is deleted.
	DefaultProfileName = "default"
	// DefaultMaxFileSizeBytes is the content size limit used when a profile does not set one.
	DefaultMaxFileSizeBytes uint64 = 500000

	errorWorkingDirectoryFormat = "determine working directory: %w"
	errorResolvePathFormat      = "resolve configuration path %s: %w"
	errorStatFormat             = "stat configuration %s: %w"
	errorDirectoryPathFormat    = "configuration path %s is a directory"
	errorReadFormat             = "read configuration from %s: %w"
	errorDecodeFormat           = "decode configuration from %s: %w"
	errorUnknownProfileFormat   = "profile %q does not exist"
)

// ErrUnknownProfile reports a profile name missing from the configuration.
var ErrUnknownProfile = errors.New("unknown profile")

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration is the profile store as read from disk.
type ApplicationConfiguration struct {
	ActiveProfileName string                          `mapstructure:"active_profile" yaml:"active_profile"`
	Profiles          map[string]ProfileConfiguration `mapstructure:"profiles" yaml:"profiles"`
}

// ProfileConfiguration is one named set of snapshot options.
type ProfileConfiguration struct {
	ProjectName    string   `mapstructure:"project_name" yaml:"project_name"`
	Directories    []string `mapstructure:"directories" yaml:"directories"`
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
	// MaxFileSizeBytes is nil when unset. Zero is a real limit.
	MaxFileSizeBytes *uint64 `mapstructure:"max_file_size_bytes" yaml:"max_file_size_bytes,omitempty"`
	NoSizeLimit      bool    `mapstructure:"no_size_limit" yaml:"no_size_limit,omitempty"`
}

// NewProfile returns an empty profile carrying the default size limit.
func NewProfile() ProfileConfiguration {
	limit := DefaultMaxFileSizeBytes
	return ProfileConfiguration{
		Directories:      []string{},
		IgnorePatterns:   []string{},
		MaxFileSizeBytes: &limit,
	}
}

// DefaultApplicationConfiguration holds a single default profile.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		ActiveProfileName: DefaultProfileName,
		Profiles:          map[string]ProfileConfiguration{DefaultProfileName: NewProfile()},
	}
}

// SizeLimit returns the content size limit, or nil when no_size_limit is set.
func (profile ProfileConfiguration) SizeLimit() *uint64 {
	if profile.NoSizeLimit {
		return nil
	}
	if profile.MaxFileSizeBytes == nil {
		limit := DefaultMaxFileSizeBytes
		return &limit
	}
	limit := *profile.MaxFileSizeBytes
	return &limit
}

func (profile ProfileConfiguration) clone() ProfileConfiguration {
	cloned := ProfileConfiguration{
		ProjectName:    profile.ProjectName,
		Directories:    append([]string{}, profile.Directories...),
		IgnorePatterns: append([]string{}, profile.IgnorePatterns...),
		NoSizeLimit:    profile.NoSizeLimit,
	}
	if profile.MaxFileSizeBytes != nil {
		limit := *profile.MaxFileSizeBytes
		cloned.MaxFileSizeBytes = &limit
	}
	return cloned
}

// ActiveProfile resolves the profile named explicitly, else the active one.
// With no profiles configured at all the default profile is returned.
func (configuration ApplicationConfiguration) ActiveProfile(explicitName string) (string, ProfileConfiguration, error) {
	profileName := normalizeProfileName(explicitName)
	if profileName == "" {
		profileName = normalizeProfileName(configuration.ActiveProfileName)
	}
	if len(configuration.Profiles) == 0 && (profileName == "" || profileName == DefaultProfileName) {
		return DefaultProfileName, NewProfile(), nil
	}
	if profileName == "" {
		profileName = firstProfileName(configuration.Profiles)
	}
	profile, exists := configuration.Profiles[profileName]
	if !exists {
		return "", ProfileConfiguration{}, fmt.Errorf(errorUnknownProfileFormat+": %w", profileName, ErrUnknownProfile)
	}
	return profileName, profile.clone(), nil
}

// Merge overlays override onto the receiver. Profiles are replaced by name.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := ApplicationConfiguration{
		ActiveProfileName: configuration.ActiveProfileName,
		Profiles:          make(map[string]ProfileConfiguration, len(configuration.Profiles)+len(override.Profiles)),
	}
	for profileName, profile := range configuration.Profiles {
		result.Profiles[normalizeProfileName(profileName)] = profile.clone()
	}
	for profileName, profile := range override.Profiles {
		result.Profiles[normalizeProfileName(profileName)] = profile.clone()
	}
	if override.ActiveProfileName != "" {
		result.ActiveProfileName = override.ActiveProfileName
	}
	result.ActiveProfileName = normalizeProfileName(result.ActiveProfileName)
	return result
}

// LoadApplicationConfiguration merges the global file and then the local file.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if globalPath, globalPathError := GlobalConfigurationPath(); globalPathError == nil {
		globalConfiguration, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfiguration)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	localConfiguration, loadError := loadConfigurationFromPath(localPath)
	if loadError != nil {
		return ApplicationConfiguration{}, loadError
	}
	merged = merged.Merge(localConfiguration)

	for profileName, profile := range merged.Profiles {
		profile.IgnorePatterns = utils.DeduplicatePatterns(profile.IgnorePatterns)
		merged.Profiles[profileName] = profile
	}
	return merged, nil
}

// GlobalConfigurationPath returns the per-user configuration file path.
func GlobalConfigurationPath() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", homeError
	}
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), nil
}

// LocalConfigurationPath returns the configuration file used for workingDirectory,
// honoring an explicit path relative to it.
func LocalConfigurationPath(workingDirectory string, explicitPath string) (string, error) {
	return resolveLocalConfigPath(workingDirectory, explicitPath)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolutePath, absoluteError := filepath.Abs(explicitPath)
			if absoluteError != nil {
				return "", fmt.Errorf(errorResolvePathFormat, explicitPath, absoluteError)
			}
			return absolutePath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

// loadConfigurationFromPath reads path with viper. A missing file yields an empty configuration.
func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	fileInfo, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatFormat, path, statError)
	}
	if fileInfo.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorDirectoryPathFormat, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadFormat, path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeFormat, path, decodeError)
	}
	return configuration, nil
}

func normalizeProfileName(profileName string) string {
	return strings.ToLower(strings.TrimSpace(profileName))
}
