package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ossa-ma/recovrr/internal/models"
)

// profileFile is the on-disk shape of a profile seed file. A file may hold
// either a single profile or a list under a "profiles" key.
type profileFile struct {
	Profiles []models.SearchProfile `yaml:"profiles"`
}

// LoadProfilesFromFiles loads search profile seed files (YAML) from a
// directory into profile storage. Profiles with an ID are upserted under
// that ID so re-running the loader is idempotent; profiles without one get
// a generated ID on first save.
func (m *Manager) LoadProfilesFromFiles(ctx context.Context, dirPath string) error {
	m.logger.Debug().Str("dir", dirPath).Msg("Loading search profiles from files")

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug().Str("dir", dirPath).Msg("Profiles directory not found, skipping")
			return nil
		}
		return err
	}

	loadedCount := 0
	skippedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		loaded, skipped, errors := m.loadProfilesFromFile(ctx, filePath)
		loadedCount += loaded
		skippedCount += skipped
		errorCount += errors
	}

	m.logger.Info().
		Int("loaded", loadedCount).
		Int("skipped", skippedCount).
		Int("errors", errorCount).
		Msg("Finished loading search profiles from files")

	return nil
}

// loadProfilesFromFile loads profiles from a single YAML file
func (m *Manager) loadProfilesFromFile(ctx context.Context, filePath string) (loaded, skipped, errors int) {
	m.logger.Debug().Str("file", filePath).Msg("Loading search profiles from file")

	content, err := os.ReadFile(filePath)
	if err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to read profile file")
		return 0, 0, 1
	}

	profiles, err := parseProfileFile(content)
	if err != nil {
		m.logger.Warn().Err(err).Str("file", filePath).Msg("Failed to parse profile file")
		return 0, 0, 1
	}

	fileName := filepath.Base(filePath)
	for i := range profiles {
		profile := &profiles[i]
		if strings.TrimSpace(profile.Name) == "" {
			m.logger.Warn().Str("file", fileName).Msg("Skipping profile with empty name")
			skipped++
			continue
		}
		if strings.TrimSpace(profile.OwnerEmail) == "" {
			m.logger.Warn().Str("file", fileName).Str("name", profile.Name).Msg("Skipping profile with no owner email")
			skipped++
			continue
		}

		if err := m.profile.SaveProfile(ctx, profile); err != nil {
			m.logger.Warn().Err(err).Str("file", fileName).Str("name", profile.Name).Msg("Failed to save profile")
			errors++
			continue
		}
		loaded++
	}

	return loaded, skipped, errors
}

// parseProfileFile accepts either a "profiles:" list or a single top-level
// profile document.
func parseProfileFile(content []byte) ([]models.SearchProfile, error) {
	var file profileFile
	if err := yaml.Unmarshal(content, &file); err == nil && len(file.Profiles) > 0 {
		return file.Profiles, nil
	}

	var single models.SearchProfile
	if err := yaml.Unmarshal(content, &single); err != nil {
		return nil, err
	}
	if single.Name == "" {
		return nil, nil
	}
	return []models.SearchProfile{single}, nil
}
