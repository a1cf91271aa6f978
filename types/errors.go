package types

import "golang.org/x/xerrors"

// Error kinds returned by the public overlay operations. Callers match them
// with xerrors.Is after any number of wrapping layers.
var (
	// ErrIDOutOfRange is returned when an identifier does not fit the ring,
	// i.e. id >= 2^m.
	ErrIDOutOfRange = xerrors.New("id out of range")

	// ErrIDConflict is returned when inserting a node whose identifier is
	// already taken.
	ErrIDConflict = xerrors.New("id conflict")

	// ErrNodeNotFound is returned when an operation references an id that is
	// not part of the overlay, or when the overlay is empty.
	ErrNodeNotFound = xerrors.New("node not found")

	// ErrLastNodeRemoval is returned when removing the only remaining node.
	// An active overlay never transitions back to empty.
	ErrLastNodeRemoval = xerrors.New("last node removal")

	// ErrNameNotFound is returned by lookup and delete when no value is
	// stored under the given name.
	ErrNameNotFound = xerrors.New("name not found")

	// ErrSnapshotVersionMismatch is returned by restore when the document
	// carries an unsupported version.
	ErrSnapshotVersionMismatch = xerrors.New("snapshot version mismatch")

	// ErrSnapshotInconsistent is returned by restore when the document does
	// not describe a healthy overlay. The previous overlay state is kept.
	ErrSnapshotInconsistent = xerrors.New("snapshot inconsistent")

	// ErrRebalanceDivergence is returned by rebalance when stabilization
	// still mutates the topology after the configured number of passes.
	ErrRebalanceDivergence = xerrors.New("rebalance divergence")
)
