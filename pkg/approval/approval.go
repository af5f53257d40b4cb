// Package approval abstracts the human-in-the-loop gate on registry
// mutations. The console prompt is a terminal dependency; by injecting the
// Provider interface, batch runs can substitute an automated policy (or a
// future UI) without touching any other component.
package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/differ"
	"github.com/agencymap/agencymap/pkg/registry"
)

// Provider decides whether a proposed change-set may be applied.
type Provider interface {
	// Propose presents a change-set for the record and returns whether it
	// was approved.
	Propose(ctx context.Context, rec *registry.Record, cs *differ.ChangeSet) (bool, error)
}

// Console prompts a human on a terminal for each change-set.
type Console struct {
	In  io.Reader
	Out io.Writer
}

// NewConsole creates a Console provider over stdin/stdout.
func NewConsole() *Console {
	return &Console{In: os.Stdin, Out: os.Stdout}
}

// Propose prints the diff and reads a y/n answer. An EOF on input counts
// as a decline, so a disconnected terminal never auto-approves.
func (c *Console) Propose(_ context.Context, rec *registry.Record, cs *differ.ChangeSet) (bool, error) {
	fmt.Fprintf(c.Out, "\nProposed change to %s:\n%s\n", rec, cs)
	if cs.Score > 0 {
		fmt.Fprintf(c.Out, "match confidence: %.3f\n", cs.Score)
	}
	fmt.Fprint(c.Out, "apply? [y/N]: ")

	reader := bufio.NewReader(c.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Auto approves change-sets whose match confidence meets a threshold and
// declines everything below it.
type Auto struct {
	Threshold float64
}

// NewAuto creates the standard automated policy (approve at score ≥ 0.95).
func NewAuto() *Auto {
	return &Auto{Threshold: constants.AutoApproveThreshold}
}

// Propose approves when the change-set's score meets the threshold.
func (a *Auto) Propose(_ context.Context, _ *registry.Record, cs *differ.ChangeSet) (bool, error) {
	return cs.Score >= a.Threshold, nil
}

// Always approves every change-set. Useful in tests and trusted pipelines.
type Always struct{}

// Propose approves unconditionally.
func (Always) Propose(_ context.Context, _ *registry.Record, _ *differ.ChangeSet) (bool, error) {
	return true, nil
}

// Never declines every change-set. Useful for dry runs: the full pipeline
// executes but nothing mutates.
type Never struct{}

// Propose declines unconditionally.
func (Never) Propose(_ context.Context, _ *registry.Record, _ *differ.ChangeSet) (bool, error) {
	return false, nil
}
