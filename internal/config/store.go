package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	generatedProfilePrefix = "profile"
	duplicateSuffix        = "-copy"

	errorProfileExistsFormat = "profile %q already exists"
	errorEmptyProfileName    = "profile name must not be empty"
	errorSaveFormat          = "save configuration to %s: %w"
	errorEncodeFormat        = "encode configuration: %w"
)

// ErrProfileExists reports a profile name that is already taken.
var ErrProfileExists = errors.New("profile exists")

// Store edits the profiles kept in a single configuration file.
// Every mutating operation writes the file before returning.
type Store struct {
	path          string
	configuration ApplicationConfiguration
}

// OpenStore loads the store at path. A missing file starts from the default configuration.
func OpenStore(path string) (*Store, error) {
	store := &Store{path: path}
	if loadError := store.Load(); loadError != nil {
		return nil, loadError
	}
	return store, nil
}

// Path returns the file backing the store.
func (store *Store) Path() string {
	return store.path
}

// Load rereads the backing file.
func (store *Store) Load() error {
	loadedConfiguration, loadError := loadConfigurationFromPath(store.path)
	if loadError != nil {
		return loadError
	}
	store.configuration = DefaultApplicationConfiguration().withOverride(loadedConfiguration)
	return nil
}

// Save writes the configuration to the backing file.
func (store *Store) Save() error {
	encoded, encodeError := yaml.Marshal(store.configuration)
	if encodeError != nil {
		return fmt.Errorf(errorEncodeFormat, encodeError)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(store.path), 0o755); mkdirError != nil {
		return fmt.Errorf(errorSaveFormat, store.path, mkdirError)
	}
	if writeError := os.WriteFile(store.path, encoded, 0o600); writeError != nil {
		return fmt.Errorf(errorSaveFormat, store.path, writeError)
	}
	return nil
}

// Configuration returns a copy of the stored configuration.
func (store *Store) Configuration() ApplicationConfiguration {
	return ApplicationConfiguration{}.Merge(store.configuration)
}

// ProfileNames returns the profile names in ascending order.
func (store *Store) ProfileNames() []string {
	profileNames := make([]string, 0, len(store.configuration.Profiles))
	for profileName := range store.configuration.Profiles {
		profileNames = append(profileNames, profileName)
	}
	sort.Strings(profileNames)
	return profileNames
}

// ActiveProfileName returns the name of the active profile.
func (store *Store) ActiveProfileName() string {
	return store.configuration.ActiveProfileName
}

// Profile returns a copy of the named profile.
func (store *Store) Profile(profileName string) (ProfileConfiguration, error) {
	normalizedName := normalizeProfileName(profileName)
	profile, exists := store.configuration.Profiles[normalizedName]
	if !exists {
		return ProfileConfiguration{}, unknownProfileError(normalizedName)
	}
	return profile.clone(), nil
}

// SetActive marks an existing profile as active.
func (store *Store) SetActive(profileName string) error {
	normalizedName := normalizeProfileName(profileName)
	if _, exists := store.configuration.Profiles[normalizedName]; !exists {
		return unknownProfileError(normalizedName)
	}
	store.configuration.ActiveProfileName = normalizedName
	return store.Save()
}

// SaveProfile stores profile under profileName and makes it active.
func (store *Store) SaveProfile(profileName string, profile ProfileConfiguration) error {
	normalizedName := normalizeProfileName(profileName)
	if normalizedName == "" {
		return errors.New(errorEmptyProfileName)
	}
	store.configuration.Profiles[normalizedName] = profile.clone()
	store.configuration.ActiveProfileName = normalizedName
	return store.Save()
}

// CreateProfile adds an empty profile named profileN, N one past the highest in use.
func (store *Store) CreateProfile() (string, error) {
	highestNumber := 0
	for profileName := range store.configuration.Profiles {
		suffix, hasPrefix := strings.CutPrefix(profileName, generatedProfilePrefix)
		if !hasPrefix {
			continue
		}
		if number, parseError := strconv.Atoi(suffix); parseError == nil && number > highestNumber {
			highestNumber = number
		}
	}
	profileName := generatedProfilePrefix + strconv.Itoa(highestNumber+1)
	if saveError := store.SaveProfile(profileName, NewProfile()); saveError != nil {
		return "", saveError
	}
	return profileName, nil
}

// DuplicateProfile copies sourceName to <sourceName>-copy, or -copy-2, -copy-3 and so on.
func (store *Store) DuplicateProfile(sourceName string) (string, error) {
	sourceProfile, profileError := store.Profile(sourceName)
	if profileError != nil {
		return "", profileError
	}
	baseName := normalizeProfileName(sourceName) + duplicateSuffix
	duplicateName := baseName
	for index := 2; store.hasProfile(duplicateName); index++ {
		duplicateName = baseName + "-" + strconv.Itoa(index)
	}
	if saveError := store.SaveProfile(duplicateName, sourceProfile); saveError != nil {
		return "", saveError
	}
	return duplicateName, nil
}

// RenameProfile moves oldName to newName, carrying the active marker along.
func (store *Store) RenameProfile(oldName string, newName string) error {
	normalizedOldName := normalizeProfileName(oldName)
	normalizedNewName := normalizeProfileName(newName)
	if normalizedNewName == "" {
		return errors.New(errorEmptyProfileName)
	}
	profile, exists := store.configuration.Profiles[normalizedOldName]
	if !exists {
		return unknownProfileError(normalizedOldName)
	}
	if store.hasProfile(normalizedNewName) {
		return fmt.Errorf(errorProfileExistsFormat+": %w", normalizedNewName, ErrProfileExists)
	}
	delete(store.configuration.Profiles, normalizedOldName)
	store.configuration.Profiles[normalizedNewName] = profile
	if store.configuration.ActiveProfileName == normalizedOldName {
		store.configuration.ActiveProfileName = normalizedNewName
	}
	return store.Save()
}

// DeleteProfile removes a profile. Removing the last one restores the default configuration.
func (store *Store) DeleteProfile(profileName string) error {
	normalizedName := normalizeProfileName(profileName)
	if !store.hasProfile(normalizedName) {
		return unknownProfileError(normalizedName)
	}
	if len(store.configuration.Profiles) == 1 {
		store.configuration = DefaultApplicationConfiguration()
		return store.Save()
	}
	delete(store.configuration.Profiles, normalizedName)
	if store.configuration.ActiveProfileName == normalizedName {
		store.configuration.ActiveProfileName = store.ProfileNames()[0]
	}
	return store.Save()
}

func (store *Store) hasProfile(profileName string) bool {
	_, exists := store.configuration.Profiles[profileName]
	return exists
}

// withOverride replaces the receiver with loaded when it carries any profiles,
// repairing a missing or dangling active profile.
func (configuration ApplicationConfiguration) withOverride(loaded ApplicationConfiguration) ApplicationConfiguration {
	if len(loaded.Profiles) == 0 {
		return configuration
	}
	result := ApplicationConfiguration{}.Merge(loaded)
	if _, exists := result.Profiles[result.ActiveProfileName]; !exists {
		result.ActiveProfileName = firstProfileName(result.Profiles)
	}
	return result
}

func firstProfileName(profiles map[string]ProfileConfiguration) string {
	firstName := ""
	for profileName := range profiles {
		if firstName == "" || profileName < firstName {
			firstName = profileName
		}
	}
	return firstName
}

func unknownProfileError(profileName string) error {
	return fmt.Errorf(errorUnknownProfileFormat+": %w", profileName, ErrUnknownProfile)
}
