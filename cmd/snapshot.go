package cmd

import (
	"os"

	"go.dedis.ch/chord/types"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// saveSnapshot encodes the document as YAML and writes it to the path.
func saveSnapshot(path string, doc *types.SnapshotDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return xerrors.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerrors.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads a YAML snapshot document from the path.
func loadSnapshot(path string) (*types.SnapshotDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read snapshot: %w", err)
	}

	doc := &types.SnapshotDocument{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, xerrors.Errorf("failed to decode snapshot: %w", err)
	}
	return doc, nil
}
