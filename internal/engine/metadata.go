package engine

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Kind identifies the type of a vault entry.
type Kind string

const (
	KindVersion Kind = "version"
	KindDeleted Kind = "deleted"
)

// Metadata is the JSON sidecar content written alongside every vault
// payload. origAbs is enough, on its own, for a restore operation to
// recover the original absolute source path without any other state.
type Metadata struct {
	Kind      Kind   `json:"kind"`
	Timestamp string `json:"ts"`
	SrcRoot   string `json:"srcRoot"`
	DstRoot   string `json:"dstRoot"`
	Namespace string `json:"namespace"`
	Rel       string `json:"rel"`
	OrigAbs   string `json:"origAbs"`
	Payload   string `json:"payload"`
}

// NewMetadata builds a Metadata record for a vault entry.
func NewMetadata(kind Kind, ts string, opts *Options, rel, payloadPath string) Metadata {
	return Metadata{
		Kind:      kind,
		Timestamp: ts,
		SrcRoot:   opts.Source,
		DstRoot:   opts.Destination,
		Namespace: opts.Namespace(),
		Rel:       rel,
		OrigAbs:   filepath.Join(opts.Source, filepath.FromSlash(rel)),
		Payload:   payloadPath,
	}
}

// WriteSidecar marshals m as compact JSON and writes it to sidecarPath via fs.
func WriteSidecar(fs FileSystem, sidecarPath string, m Metadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling sidecar metadata: %w", err)
	}
	w, err := fs.Create(sidecarPath)
	if err != nil {
		return fmt.Errorf("creating sidecar %s: %w", sidecarPath, err)
	}
	defer w.Close()
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing sidecar %s: %w", sidecarPath, err)
	}
	return nil
}

// ReadSidecar reads and unmarshals the sidecar at sidecarPath.
func ReadSidecar(fs FileSystem, sidecarPath string) (Metadata, error) {
	var m Metadata
	r, err := fs.Open(sidecarPath)
	if err != nil {
		return m, fmt.Errorf("opening sidecar %s: %w", sidecarPath, err)
	}
	defer r.Close()

	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("decoding sidecar %s: %w", sidecarPath, err)
	}
	return m, nil
}
