package driver

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"facet/internal/mir"
	"facet/internal/types"
)

// Current schema version - increment when the snapshot format changes.
const snapshotSchemaVersion uint16 = 1

// Digest is a sha256 content hash.
type Digest [sha256.Size]byte

// snapshotBody carries everything needed to reconstruct a module: the
// function bodies and the type interner their TypeIDs point into.
type snapshotBody struct {
	Types  *types.Snapshot
	Module *mir.Module
}

// snapshotFile is the on-disk envelope: a schema tag and an integrity hash
// around the msgpack-encoded body.
type snapshotFile struct {
	Schema uint16
	Digest Digest
	Body   []byte
}

// ErrSnapshotSchema reports a snapshot written by an incompatible version.
var ErrSnapshotSchema = errors.New("unsupported snapshot schema")

// ErrSnapshotCorrupt reports a snapshot whose body does not match its digest.
var ErrSnapshotCorrupt = errors.New("snapshot digest mismatch")

// WriteSnapshot serializes the module and its type tables to path. The
// write is atomic: the payload lands in a temp file first and is renamed
// over the target.
func WriteSnapshot(path string, m *mir.Module, typesIn *types.Interner) error {
	var body bytes.Buffer
	err := msgpack.NewEncoder(&body).Encode(&snapshotBody{
		Types:  typesIn.Snapshot(),
		Module: m,
	})
	if err != nil {
		return fmt.Errorf("encode module: %w", err)
	}

	file := snapshotFile{
		Schema: snapshotSchemaVersion,
		Digest: sha256.Sum256(body.Bytes()),
		Body:   body.Bytes(),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(&file); err != nil {
		_ = f.Close()      //nolint:errcheck
		_ = os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot loads a module snapshot, verifying schema and integrity.
func ReadSnapshot(path string) (*mir.Module, *types.Interner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = f.Close() //nolint:errcheck
	}()

	var file snapshotFile
	if err := msgpack.NewDecoder(f).Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if file.Schema != snapshotSchemaVersion {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrSnapshotSchema, file.Schema, snapshotSchemaVersion)
	}
	if sha256.Sum256(file.Body) != file.Digest {
		return nil, nil, ErrSnapshotCorrupt
	}

	var body snapshotBody
	if err := msgpack.NewDecoder(bytes.NewReader(file.Body)).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode module body: %w", err)
	}
	if body.Module == nil {
		return nil, nil, fmt.Errorf("%w: empty module", ErrSnapshotCorrupt)
	}
	typesIn, err := types.FromSnapshot(body.Types)
	if err != nil {
		return nil, nil, fmt.Errorf("restore type tables: %w", err)
	}
	return body.Module, typesIn, nil
}
