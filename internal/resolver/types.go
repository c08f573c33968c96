package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stacklok/usb-ids-registry/internal/registry"
)

// Provenance records where a FetchResult's registry came from
type Provenance string

const (
	// ProvenanceNetwork means a candidate source was fetched and parsed
	ProvenanceNetwork Provenance = "network"

	// ProvenanceSnapshot means every candidate failed and the snapshot was used
	ProvenanceSnapshot Provenance = "snapshot"
)

// ErrNoDataAvailable is matched by the error returned when every candidate
// failed and no snapshot could be loaded
var ErrNoDataAvailable = errors.New("no usb.ids data obtainable")

// SnapshotLoader supplies the fallback registry. Load returns an error
// matching snapshot.ErrNotFound when no snapshot exists.
type SnapshotLoader interface {
	Load(ctx context.Context) (registry.Registry, error)
	Location() string
}

// Attempt is the failure of one candidate source
type Attempt struct {
	Source string
	Err    error
}

// FetchResult is the outcome of a successful resolve
type FetchResult struct {
	// Registry is the parsed or restored registry. It is never mutated.
	Registry registry.Registry

	// Provenance is network or snapshot
	Provenance Provenance

	// Source is the winning candidate's name or the snapshot location
	Source string

	// Hash is the SHA-256 of the raw network text; empty for snapshots
	Hash string

	// Stats describes the parse; zero for snapshots
	Stats registry.ParseStats

	// Attempts lists, in order, every candidate that failed before the result
	Attempts []Attempt
}

// FailedSources returns the names of the failed candidates in order
func (r *FetchResult) FailedSources() []string {
	return attemptSources(r.Attempts)
}

// NoDataError is returned when every candidate failed and no snapshot exists
type NoDataError struct {
	Attempts    []Attempt
	SnapshotErr error
}

// Error returns the error message
func (e *NoDataError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d source(s) failed", ErrNoDataAvailable, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Source, a.Err)
	}
	if e.SnapshotErr != nil {
		fmt.Fprintf(&b, "; snapshot: %v", e.SnapshotErr)
	}
	return b.String()
}

// Is reports whether target is ErrNoDataAvailable
func (*NoDataError) Is(target error) bool {
	return target == ErrNoDataAvailable
}

// Unwrap returns the snapshot error
func (e *NoDataError) Unwrap() error {
	return e.SnapshotErr
}

// FailedSources returns the names of the failed candidates in order
func (e *NoDataError) FailedSources() []string {
	return attemptSources(e.Attempts)
}

func attemptSources(attempts []Attempt) []string {
	names := make([]string, 0, len(attempts))
	for _, a := range attempts {
		names = append(names, a.Source)
	}
	return names
}
