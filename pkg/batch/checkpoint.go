// Package batch drives resolve→diff→approve→apply over large inputs with
// resumable progress. A run checkpoints after every N units and at
// completion; on restart it loads the latest checkpoint and skips
// already-recorded units, so a killed run reproduces the same aggregate
// counts as an uninterrupted one.
package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/errors"
)

// checkpointPattern matches checkpoint files; the timestamp in the name
// makes the latest selectable by lexical sort.
const (
	checkpointPrefix     = "checkpoint-"
	checkpointExt        = ".json"
	checkpointTimeFormat = "20060102T150405.000"
)

// Outcome classifies what happened to one unit.
type Outcome string

const (
	// OutcomeMatched means the unit resolved and its change-set applied
	// (or proposed no changes).
	OutcomeMatched Outcome = "matched"
	// OutcomeAmbiguous means resolution surfaced multiple candidates.
	OutcomeAmbiguous Outcome = "ambiguous"
	// OutcomeUnmatched means no record was accepted for the unit.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeFailed means the unit errored (validation, declined approval,
	// exhausted retries).
	OutcomeFailed Outcome = "failed"
)

// UnitResult records the outcome of one processed unit.
type UnitResult struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Checkpoint is the durable progress marker for a batch run.
type Checkpoint struct {
	Timestamp       time.Time    `json:"timestamp"`
	ProcessedCount  int          `json:"processedCount"`
	TotalCount      int          `json:"totalCount"`
	LastProcessedID string       `json:"lastProcessedId"`
	Results         []UnitResult `json:"results"`
}

// Processed returns the set of unit IDs already recorded.
func (c *Checkpoint) Processed() map[string]bool {
	done := make(map[string]bool, len(c.Results))
	for _, r := range c.Results {
		done[r.ID] = true
	}
	return done
}

// Record appends a unit result and advances the progress counters.
func (c *Checkpoint) Record(result UnitResult) {
	c.Results = append(c.Results, result)
	c.ProcessedCount = len(c.Results)
	c.LastProcessedID = result.ID
}

// Save writes the checkpoint to a timestamp-named file in dir. The write
// goes through a temp file and rename so a crash mid-write never leaves a
// truncated checkpoint as the latest.
func (c *Checkpoint) Save(dir string) error {
	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	c.Timestamp = time.Now().UTC()
	name := checkpointPrefix + c.Timestamp.Format(checkpointTimeFormat) + checkpointExt
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WrapParse("json", path, err)
	}

	tempPath := path + constants.TempSuffix
	if err := os.WriteFile(tempPath, data, constants.FilePerm); err != nil {
		return errors.WrapIO("write", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// LoadLatest loads the most recent checkpoint in dir, or nil if none
// exists.
func LoadLatest(dir string) (*Checkpoint, error) {
	names, err := checkpointFiles(dir)
	if err != nil || len(names) == 0 {
		return nil, err
	}

	latest := filepath.Join(dir, names[len(names)-1])
	data, err := os.ReadFile(latest)
	if err != nil {
		return nil, errors.WrapIO("read", latest, err)
	}

	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.WrapParse("json", latest, err)
	}
	return &c, nil
}

// Discard removes all checkpoint files in dir. Called on clean finish.
func Discard(dir string) error {
	names, err := checkpointFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return errors.WrapIO("remove", name, err)
		}
	}
	return nil
}

// checkpointFiles lists checkpoint file names in dir, sorted ascending so
// the last entry is the latest.
func checkpointFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || len(name) < len(checkpointPrefix)+len(checkpointExt) {
			continue
		}
		if name[:len(checkpointPrefix)] == checkpointPrefix && filepath.Ext(name) == checkpointExt {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
