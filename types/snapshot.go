package types

// SnapshotVersion is the document version this package writes and the only
// version restore accepts.
const SnapshotVersion = 1

// SnapshotDocument is a self-contained capture of the full overlay state.
// The core treats it as a plain data structure; any serializer may encode it
// (the struct tags cover JSON and YAML).
type SnapshotDocument struct {
	Version   int            `json:"version" yaml:"version"`
	BitLength int            `json:"m" yaml:"m"`
	CreatedAt int64          `json:"created_at" yaml:"created_at"`
	Nodes     []SnapshotNode `json:"nodes" yaml:"nodes"`
}

// SnapshotNode captures one node: its links, its finger table, and its local
// store. PredecessorID is nil only when the predecessor was absent at
// snapshot time, which can happen for a node captured mid-join.
type SnapshotNode struct {
	ID            uint64         `json:"id" yaml:"id"`
	SuccessorID   uint64         `json:"successor_id" yaml:"successor_id"`
	PredecessorID *uint64        `json:"predecessor_id" yaml:"predecessor_id"`
	FingerIDs     []uint64       `json:"finger_ids" yaml:"finger_ids"`
	Store         []SnapshotItem `json:"store" yaml:"store"`
}

// SnapshotItem is one stored entry. Value holds the bytes exactly as stored
// at the owner, so a value wrapped by a codec round-trips without the codec.
type SnapshotItem struct {
	Key   uint64 `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Value []byte `json:"value" yaml:"value"`
}
