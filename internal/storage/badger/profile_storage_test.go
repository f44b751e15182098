package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossa-ma/recovrr/internal/models"
)

func TestSaveProfile_And_ActiveProfiles(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	active := &models.SearchProfile{
		Name:       "Stolen bike",
		Make:       "Specialized",
		Model:      "Allez",
		OwnerEmail: "owner@example.com",
		Active:     true,
	}
	inactive := &models.SearchProfile{
		Name:       "Recovered camera",
		OwnerEmail: "owner@example.com",
		Active:     false,
	}

	require.NoError(t, manager.ProfileStorage().SaveProfile(ctx, active))
	require.NoError(t, manager.ProfileStorage().SaveProfile(ctx, inactive))

	assert.NotEmpty(t, active.ID)
	assert.False(t, active.CreatedAt.IsZero())

	profiles, err := manager.ProfileStorage().ActiveProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Stolen bike", profiles[0].Name)

	stored, err := manager.ProfileStorage().GetProfile(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Specialized", stored.Make)
}

func TestLoadProfilesFromFiles(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	dir := t.TempDir()

	seed := `profiles:
  - name: "Stolen bike"
    make: "Trek"
    model: "Domane"
    owner_email: "owner@example.com"
    active: true
  - name: ""
    owner_email: "skipped@example.com"
  - name: "No email"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.yaml"), []byte(seed), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	err := manager.LoadProfilesFromFiles(ctx, dir)
	require.NoError(t, err)

	profiles, err := manager.ProfileStorage().ActiveProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Stolen bike", profiles[0].Name)
	assert.Equal(t, "Trek", profiles[0].Make)
}

func TestLoadProfilesFromFiles_SingleDocument(t *testing.T) {
	manager := setupTestManager(t)
	ctx := context.Background()

	dir := t.TempDir()
	seed := `name: "Stolen laptop"
make: "Apple"
model: "MacBook Pro 14"
owner_email: "owner@example.com"
active: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "laptop.yml"), []byte(seed), 0644))

	require.NoError(t, manager.LoadProfilesFromFiles(ctx, dir))

	profiles, err := manager.ProfileStorage().ActiveProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Stolen laptop", profiles[0].Name)
}
