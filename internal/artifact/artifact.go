// Package artifact persists and loads the four index artifacts (inverted
// index, IDF table, document norms, document metadata) as flat serialized
// files. Each file carries a fixed binary envelope: a little-endian header
// with magic bytes, format version, and artifact kind, a JSON payload, and a
// crc32 footer. Files are written to a .tmp path and renamed on success.
package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/nkoenen/fieldsearch/internal/index"
	"github.com/nkoenen/fieldsearch/pkg/errors"
)

const (
	MagicBytes    uint32 = 0x46534152
	FormatVersion uint32 = 1
	HeaderSize    int    = 20
	FooterSize    int    = 4
)

// Kind identifies which artifact a file holds, so a misplaced file fails
// loudly instead of decoding into the wrong structure.
type Kind uint32

const (
	KindIndex Kind = iota + 1
	KindIDF
	KindNorms
	KindMeta
)

// Artifact file names within the data directory.
const (
	FileIndex = "index.fsx"
	FileIDF   = "idf.fsx"
	FileNorms = "norms.fsx"
	FileMeta  = "meta.fsx"
)

// Write atomically serializes payload into an envelope file at path.
func Write(path string, kind Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling artifact %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(kind))
	binary.LittleEndian.PutUint64(header[12:20], uint64(len(data)))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer, crc32.ChecksumIEEE(data))

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("writing artifact header: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing artifact payload: %w", err)
	}
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing artifact footer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing artifact file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming artifact file: %w", err)
	}
	return nil
}

// Read loads the envelope file at path into out, verifying magic, version,
// kind, and checksum. A missing file maps to ErrMissingArtifact so callers
// can fail fast with a "rebuild required" message instead of degrading to an
// empty index.
func Read(path string, kind Kind, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrMissingArtifact, path)
		}
		return fmt.Errorf("reading artifact %s: %w", path, err)
	}
	if len(data) < HeaderSize+FooterSize {
		return fmt.Errorf("%w: %s truncated", errors.ErrCorruptArtifact, path)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicBytes {
		return fmt.Errorf("%w: %s has bad magic bytes %x", errors.ErrCorruptArtifact, path, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: %s has unsupported format version %d", errors.ErrCorruptArtifact, path, version)
	}
	if got := Kind(binary.LittleEndian.Uint32(data[8:12])); got != kind {
		return fmt.Errorf("%w: %s holds artifact kind %d, want %d", errors.ErrCorruptArtifact, path, got, kind)
	}
	size := binary.LittleEndian.Uint64(data[12:20])
	if uint64(len(data)) != uint64(HeaderSize)+size+uint64(FooterSize) {
		return fmt.Errorf("%w: %s payload size mismatch", errors.ErrCorruptArtifact, path)
	}
	payload := data[HeaderSize : HeaderSize+int(size)]
	checksum := binary.LittleEndian.Uint32(data[HeaderSize+int(size):])
	if crc32.ChecksumIEEE(payload) != checksum {
		return fmt.Errorf("%w: %s checksum mismatch", errors.ErrCorruptArtifact, path)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", errors.ErrCorruptArtifact, path, err)
	}
	return nil
}

// SaveAll persists the four build outputs into dir.
func SaveAll(dir string, idx *index.Index, idf index.IDFTable, norms index.DocNorms, meta index.DocMeta) error {
	if err := Write(filepath.Join(dir, FileIndex), KindIndex, idx); err != nil {
		return err
	}
	if err := Write(filepath.Join(dir, FileIDF), KindIDF, idf); err != nil {
		return err
	}
	if err := Write(filepath.Join(dir, FileNorms), KindNorms, norms); err != nil {
		return err
	}
	return Write(filepath.Join(dir, FileMeta), KindMeta, meta)
}

// LoadAll reads the four artifacts from dir, failing fast on the first
// missing or corrupt file.
func LoadAll(dir string) (*index.Index, index.IDFTable, index.DocNorms, index.DocMeta, error) {
	var idx index.Index
	if err := Read(filepath.Join(dir, FileIndex), KindIndex, &idx); err != nil {
		return nil, nil, nil, nil, err
	}
	var idf index.IDFTable
	if err := Read(filepath.Join(dir, FileIDF), KindIDF, &idf); err != nil {
		return nil, nil, nil, nil, err
	}
	var norms index.DocNorms
	if err := Read(filepath.Join(dir, FileNorms), KindNorms, &norms); err != nil {
		return nil, nil, nil, nil, err
	}
	var meta index.DocMeta
	if err := Read(filepath.Join(dir, FileMeta), KindMeta, &meta); err != nil {
		return nil, nil, nil, nil, err
	}
	return &idx, idf, norms, meta, nil
}
