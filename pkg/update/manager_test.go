package update

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/differ"
	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/registry"
)

const testRegistryJSON = `[
  {
    "name": "Department of Forestry and Fire Protection",
    "canonicalName": "Forestry and Fire Protection",
    "aliases": ["CAL FIRE"],
    "orgCode": "3540",
    "budgetStatus": "active",
    "budgets": {"2023": 2900000000}
  },
  {
    "name": "Department of Motor Vehicles",
    "canonicalName": "Motor Vehicles",
    "aliases": ["DMV"],
    "orgCode": "2740",
    "budgetStatus": "active"
  }
]`

func writeTestRegistry(t *testing.T) (*registry.Registry, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryJSON), 0o644))

	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg, path
}

func newTestManager() *Manager {
	return NewManager(WithLogger(logging.Nop))
}

func TestApply(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	cs := &differ.ChangeSet{
		RecordID: "3540",
		Changes: []differ.FieldChange{
			{Path: "budgets.2024", After: float64(3100000000), Type: differ.ChangeTypeAdd},
			{Path: "note", After: "2024 budget applied", Type: differ.ChangeTypeAdd},
		},
	}

	require.NoError(t, m.Apply(reg, cs))

	// In-memory registry reflects the change.
	rec, err := reg.Find("3540")
	require.NoError(t, err)
	assert.Equal(t, float64(3100000000), rec.Budgets["2024"])
	assert.Equal(t, "2024 budget applied", rec.Note)

	// The file on disk reloads with the change.
	reloaded, err := registry.Load(path)
	require.NoError(t, err)
	loaded, err := reloaded.Find("3540")
	require.NoError(t, err)
	assert.Equal(t, float64(3100000000), loaded.Budgets["2024"])

	// A backup of the pre-change file exists.
	backup, err := os.ReadFile(path + constants.BackupSuffix)
	require.NoError(t, err)
	assert.JSONEq(t, testRegistryJSON, string(backup))

	// The staging file was consumed by the rename.
	_, err = os.Stat(path + constants.TempSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyEmptyChangeSetIsNoOp(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	require.NoError(t, m.Apply(reg, &differ.ChangeSet{RecordID: "3540"}))

	// No backup means no write happened.
	_, err := os.Stat(path + constants.BackupSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyRejectsProtectedFields(t *testing.T) {
	for _, field := range []string{"orgCode", "parentCode", "name", "canonicalName"} {
		t.Run(field, func(t *testing.T) {
			reg, path := writeTestRegistry(t)
			m := newTestManager()

			cs := &differ.ChangeSet{
				RecordID: "3540",
				Changes: []differ.FieldChange{
					{Path: "note", After: "harmless", Type: differ.ChangeTypeAdd},
					{Path: field, After: "mutated", Type: differ.ChangeTypeUpdate},
				},
			}

			err := m.Apply(reg, cs)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			// The rejection is total: the harmless change did not land
			// either, in memory or on disk.
			rec, findErr := reg.Find("3540")
			require.NoError(t, findErr)
			assert.Empty(t, rec.Note)

			data, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.JSONEq(t, testRegistryJSON, string(data))
		})
	}
}

func TestApplyUnknownRecord(t *testing.T) {
	reg, _ := writeTestRegistry(t)
	m := newTestManager()

	cs := &differ.ChangeSet{
		RecordID: "9999",
		Changes:  []differ.FieldChange{{Path: "note", After: "x", Type: differ.ChangeTypeAdd}},
	}

	err := m.Apply(reg, cs)
	assert.True(t, errors.IsNotFound(err))
}

func TestApplyValidationFailureLeavesDiskUntouched(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	// Negative budget fails record validation after the in-memory apply.
	cs := &differ.ChangeSet{
		RecordID: "3540",
		Changes: []differ.FieldChange{
			{Path: "budgets.2024", After: float64(-5), Type: differ.ChangeTypeAdd},
		},
	}

	err := m.Apply(reg, cs)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// In-memory registry unchanged.
	rec, findErr := reg.Find("3540")
	require.NoError(t, findErr)
	_, exists := rec.Budgets["2024"]
	assert.False(t, exists)

	// Disk unchanged, no backup written.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.JSONEq(t, testRegistryJSON, string(data))
	_, statErr := os.Stat(path + constants.BackupSuffix)
	assert.True(t, os.IsNotExist(statErr))
}

// A removal in the change-set must actually remove the field, not be
// masked by the record's existing value.
func TestApplyRemoval(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	cs := &differ.ChangeSet{
		RecordID: "3540",
		Changes: []differ.FieldChange{
			{Path: "budgets", Before: map[string]any{"2023": float64(2900000000)}, Type: differ.ChangeTypeRemove},
		},
	}

	require.NoError(t, m.Apply(reg, cs))

	rec, err := reg.Find("3540")
	require.NoError(t, err)
	assert.Nil(t, rec.Budgets)

	reloaded, err := registry.Load(path)
	require.NoError(t, err)
	loaded, err := reloaded.Find("3540")
	require.NoError(t, err)
	assert.Nil(t, loaded.Budgets)
}

// A stale staging file from a crashed previous run must not poison the
// next apply.
func TestApplySurvivesStaleStagingFile(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	require.NoError(t, os.WriteFile(path+constants.TempSuffix, []byte("garbage from a crash"), 0o644))

	cs := &differ.ChangeSet{
		RecordID: "2740",
		Changes: []differ.FieldChange{
			{Path: "budgets.2024", After: float64(100), Type: differ.ChangeTypeAdd},
		},
	}

	require.NoError(t, m.Apply(reg, cs))

	reloaded, err := registry.Load(path)
	require.NoError(t, err)
	loaded, err := reloaded.Find("2740")
	require.NoError(t, err)
	assert.Equal(t, float64(100), loaded.Budgets["2024"])
}

func TestApplySequentialChangeSets(t *testing.T) {
	reg, path := writeTestRegistry(t)
	m := newTestManager()

	first := &differ.ChangeSet{
		RecordID: "3540",
		Changes:  []differ.FieldChange{{Path: "budgets.2024", After: float64(1), Type: differ.ChangeTypeAdd}},
	}
	second := &differ.ChangeSet{
		RecordID: "2740",
		Changes:  []differ.FieldChange{{Path: "positions.2024", After: float64(2), Type: differ.ChangeTypeAdd}},
	}

	require.NoError(t, m.Apply(reg, first))
	require.NoError(t, m.Apply(reg, second))

	reloaded, err := registry.Load(path)
	require.NoError(t, err)

	fire, err := reloaded.Find("3540")
	require.NoError(t, err)
	assert.Equal(t, float64(1), fire.Budgets["2024"])

	dmv, err := reloaded.Find("2740")
	require.NoError(t, err)
	assert.Equal(t, float64(2), dmv.Positions["2024"])

	// The backup holds the state before the latest apply, so it includes
	// the first change.
	backup, err := registry.Parse(mustRead(t, path+constants.BackupSuffix))
	require.NoError(t, err)
	backupFire, err := backup.Find("3540")
	require.NoError(t, err)
	assert.Equal(t, float64(1), backupFire.Budgets["2024"])
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestSaveToWriter(t *testing.T) {
	reg, _ := writeTestRegistry(t)
	m := newTestManager()

	var buf bytes.Buffer
	require.NoError(t, m.Save(reg, WithWriter(&buf)))
	_, err := registry.Parse(buf.Bytes())
	assert.NoError(t, err)

	buf.Reset()
	require.NoError(t, m.Save(reg, WithWriter(&buf), WithFormat(FormatYAML)))
	assert.Contains(t, buf.String(), "canonicalName: Forestry and Fire Protection")
}

func TestSaveNewFile(t *testing.T) {
	reg, _ := writeTestRegistry(t)
	m := newTestManager()

	target := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, m.Save(reg, WithPath(target)))

	exported, err := registry.Load(target)
	require.NoError(t, err)
	assert.Equal(t, reg.Len(), exported.Len())
}

func TestSaveWithoutDestination(t *testing.T) {
	reg := registry.New(nil)
	m := newTestManager()

	err := m.Save(reg)
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.True(t, FormatJSON.IsValid())
	assert.False(t, Format(42).IsValid())
}
