// Package update applies approved change-sets to the registry with backup,
// re-validation, and atomic replace. The on-disk registry is never observed
// partially written or invalid: every accepted mutation has a restorable
// backup, every write goes through a verified staging file, and any failure
// rolls the file back.
package update

import (
	"bytes"
	"os"

	"github.com/rs/zerolog"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/differ"
	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/registry"
)

// protectedFields are the identity and hierarchy anchors this engine is
// never permitted to mutate. A change-set touching any of them is rejected
// whole; there is no partial apply.
var protectedFields = []string{
	"orgCode",
	"parentCode",
	"name",
	"canonicalName",
}

// Manager applies approved change-sets to a registry file.
type Manager struct {
	protected []string
	log       zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithProtectedFields overrides the protected field list.
func WithProtectedFields(fields []string) Option {
	return func(m *Manager) {
		m.protected = fields
	}
}

// WithLogger sets the logger used to record write outcomes.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a Manager with the default protected field list.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		protected: protectedFields,
		log:       *logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply applies an approved change-set to the registry and persists it.
// The protocol, in order: reject protected-field mutations outright, back
// up the registry file, apply in memory, re-validate, stage to a temp file,
// verify the staged file re-parses and re-validates, then atomically
// replace the original. On any failure after the backup, the original file
// is restored and the in-memory registry is left unchanged.
func (m *Manager) Apply(reg *registry.Registry, cs *differ.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}

	// 1. Protected fields: reject outright, nothing applied.
	for _, field := range m.protected {
		if cs.Touches(field) {
			m.log.Error().
				Str("record", cs.RecordID).
				Str("field", field).
				Msg("change-set touches protected field, rejected")
			return errors.NewValidationError(cs.RecordID, field, "protected field may not be mutated")
		}
	}

	rec, err := reg.Find(cs.RecordID)
	if err != nil {
		return err
	}

	// 2. Apply to a fresh value and re-validate before anything touches
	// disk. The target must start zeroed: replaying a removal must not be
	// masked by values merged in from a pre-populated copy.
	updated := &registry.Record{}
	if err := differ.Apply(rec, cs.Changes, updated); err != nil {
		return err
	}

	staged := reg.Copy()
	stagedRec, err := staged.Find(cs.RecordID)
	if err != nil {
		return err
	}
	*stagedRec = *updated

	if err := staged.Validate(); err != nil {
		m.log.Error().
			Str("record", cs.RecordID).
			Err(err).
			Msg("change-set failed re-validation, discarded")
		return err
	}

	// 3. Persist with backup and atomic replace.
	if err := m.persist(staged); err != nil {
		return err
	}

	// 4. Only now mutate the caller's in-memory registry.
	*rec = *updated

	m.log.Info().
		Str("record", cs.RecordID).
		Int("changes", len(cs.Changes)).
		Str("path", reg.Path()).
		Msg("change-set applied")
	return nil
}

// persist writes the registry through the backup/stage/verify/replace
// sequence.
func (m *Manager) persist(reg *registry.Registry) error {
	path := reg.Path()
	if path == "" {
		return &errors.ConfigError{Component: "update", Message: "registry has no path to persist to"}
	}

	backupPath := path + constants.BackupSuffix
	tempPath := path + constants.TempSuffix

	// Snapshot the current file before any write.
	original, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWriteError(path, "backup", false, err)
	}
	if err := os.WriteFile(backupPath, original, constants.FilePerm); err != nil {
		return errors.NewWriteError(path, "backup", false, err)
	}

	// Stage the new content.
	var buf bytes.Buffer
	if err := reg.WriteJSON(&buf); err != nil {
		return errors.NewWriteError(path, "stage", false, err)
	}
	if err := os.WriteFile(tempPath, buf.Bytes(), constants.FilePerm); err != nil {
		return errors.NewWriteError(path, "stage", false, err)
	}

	// Verify the staged file re-parses and re-validates before it can
	// replace the original.
	if _, err := registry.Load(tempPath); err != nil {
		removeErr := os.Remove(tempPath)
		m.log.Error().
			Err(err).
			Str("path", tempPath).
			Msg("staged registry failed verification")
		if removeErr != nil {
			m.log.Warn().Err(removeErr).Str("path", tempPath).Msg("could not remove staging file")
		}
		return errors.NewWriteError(path, "verify", false, err)
	}

	// Atomic replace. A crash before this point leaves the original file
	// untouched; a failure here restores from backup.
	if err := os.Rename(tempPath, path); err != nil {
		restored := m.restore(path, backupPath)
		return errors.NewWriteError(path, "replace", restored, err)
	}

	m.log.Info().
		Str("path", path).
		Str("backup", backupPath).
		Msg("registry persisted")
	return nil
}

// restore copies the backup back over the registry file. Returns true if
// the restore succeeded.
func (m *Manager) restore(path, backupPath string) bool {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		m.log.Error().Err(err).Str("path", backupPath).Msg("backup unreadable, restore failed")
		return false
	}
	if err := os.WriteFile(path, data, constants.FilePerm); err != nil {
		m.log.Error().Err(err).Str("path", path).Msg("restore from backup failed")
		return false
	}
	m.log.Warn().Str("path", path).Msg("registry restored from backup")
	return true
}

// Save persists the registry without a change-set, using the same staged
// atomic-replace discipline, or writes to an alternate path/writer/format
// given in options. Used for exports and for initial registry creation.
func (m *Manager) Save(reg *registry.Registry, opts ...SaveOption) error {
	options := Defaults().Apply(opts...)

	// Writer output bypasses the staging discipline; it does not touch the
	// registry file.
	if options.Writer() != nil {
		switch options.Format() {
		case FormatYAML:
			return reg.WriteYAML(options.Writer())
		default:
			return reg.WriteJSON(options.Writer())
		}
	}

	path := options.Path()
	if path == "" {
		path = reg.Path()
	}
	if path == "" {
		return &errors.ConfigError{Component: "update", Message: "no path or writer to save to"}
	}

	if options.Format() == FormatYAML {
		var buf bytes.Buffer
		if err := reg.WriteYAML(&buf); err != nil {
			return err
		}
		return errors.WrapIO("write", path, os.WriteFile(path, buf.Bytes(), constants.FilePerm))
	}

	// New file: nothing to back up, write directly through a temp stage.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		var buf bytes.Buffer
		if err := reg.WriteJSON(&buf); err != nil {
			return errors.NewWriteError(path, "stage", false, err)
		}
		tempPath := path + constants.TempSuffix
		if err := os.WriteFile(tempPath, buf.Bytes(), constants.FilePerm); err != nil {
			return errors.NewWriteError(path, "stage", false, err)
		}
		if err := os.Rename(tempPath, path); err != nil {
			return errors.NewWriteError(path, "replace", false, err)
		}
		return nil
	}

	saved := reg.Copy()
	saved.SetPath(path)
	return m.persist(saved)
}
