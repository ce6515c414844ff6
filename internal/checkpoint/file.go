// Package checkpoint implements binary checkpoint/restart for property
// stores, plus a Postgres catalog of written checkpoints. A checkpoint file
// is a small self-describing header followed by every property's raw element
// stream in declaration order and a blake2b-256 digest trailer. The element
// streams themselves carry no length or type tags: restart code must rebuild
// the same declarations and resize stores to the recorded point counts
// before loading.
package checkpoint

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/emberfem/ember/internal/binio"
	"github.com/emberfem/ember/internal/property"
)

const (
	magic       = "EMCK"
	formatV1    = 1
	digestBytes = blake2b.Size256
)

// IntegrityError reports a corrupt or truncated checkpoint file.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checkpoint: %s: %s", e.Path, e.Reason)
}

// Header is the file-level metadata of a checkpoint.
type Header struct {
	Version uint16
	Step    int64
	Streams uint32 // number of property streams that follow
}

// Write creates a checkpoint file at path holding every collection's
// properties in order and returns the hex digest of the file body. One
// collection per history slot, in the same order Read will use.
func Write(path string, step int64, colls []*property.Collection) (string, error) {
	streams := uint32(0)
	for _, c := range colls {
		streams += uint32(c.Len())
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("checkpoint: create %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("checkpoint: init digest: %w", err)
	}
	w := binio.NewWriter(io.MultiWriter(f, h))

	writeHeader(w, Header{Version: formatV1, Step: step, Streams: streams})
	for _, c := range colls {
		if err := c.Store(w); err != nil {
			return "", fmt.Errorf("checkpoint: write %s: %w", path, err)
		}
	}
	if err := w.Err(); err != nil {
		return "", fmt.Errorf("checkpoint: write %s: %w", path, err)
	}

	sum := h.Sum(nil)
	if _, err := f.Write(sum); err != nil {
		return "", fmt.Errorf("checkpoint: write digest %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("checkpoint: sync %s: %w", path, err)
	}
	return hex.EncodeToString(sum), nil
}

// Read opens a checkpoint file, verifies its digest, and loads every
// collection in the same order Write used. Every store must already be
// resized to its recorded point count.
func Read(path string, colls []*property.Collection) (Header, error) {
	hdr, body, _, err := openVerified(path)
	if err != nil {
		return Header{}, err
	}
	r := binio.NewReader(body)
	for _, c := range colls {
		if err := c.Load(r); err != nil {
			return hdr, fmt.Errorf("checkpoint: read %s: %w", path, err)
		}
	}
	return hdr, nil
}

// Inspect verifies a checkpoint file's digest and returns its header plus
// the hex digest. Used by ckptinfo.
func Inspect(path string) (Header, string, error) {
	hdr, _, sum, err := openVerified(path)
	if err != nil {
		return Header{}, "", err
	}
	return hdr, hex.EncodeToString(sum), nil
}

// openVerified reads the whole file, checks magic, version, and digest, and
// returns the header, a reader positioned at the first property stream, and
// the stored digest.
func openVerified(path string) (Header, io.Reader, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	if len(raw) < len(magic)+digestBytes {
		return Header{}, nil, nil, &IntegrityError{Path: path, Reason: "file too short"}
	}

	body, sum := raw[:len(raw)-digestBytes], raw[len(raw)-digestBytes:]
	if !bytes.Equal(sum, blake2bSum(body)) {
		return Header{}, nil, nil, &IntegrityError{Path: path, Reason: "digest mismatch"}
	}

	// binio buffers nothing, so after the header the underlying bytes.Reader
	// sits exactly at the first property stream.
	br := bytes.NewReader(body)
	hdr, err := readHeader(binio.NewReader(br))
	if err != nil {
		return Header{}, nil, nil, &IntegrityError{Path: path, Reason: err.Error()}
	}
	return hdr, br, sum, nil
}

func blake2bSum(b []byte) []byte {
	var h hash.Hash
	h, _ = blake2b.New256(nil)
	h.Write(b)
	return h.Sum(nil)
}

func writeHeader(w *binio.Writer, hdr Header) {
	w.WriteBytes([]byte(magic))
	w.WriteU16(hdr.Version)
	w.WriteI64(hdr.Step)
	w.WriteU32(hdr.Streams)
}

func readHeader(r *binio.Reader) (Header, error) {
	got := r.ReadBytes(len(magic))
	if r.Err() != nil {
		return Header{}, r.Err()
	}
	if string(got) != magic {
		return Header{}, fmt.Errorf("bad magic %q", got)
	}
	hdr := Header{
		Version: r.ReadU16(),
		Step:    r.ReadI64(),
		Streams: r.ReadU32(),
	}
	if r.Err() != nil {
		return Header{}, r.Err()
	}
	if hdr.Version != formatV1 {
		return Header{}, fmt.Errorf("unsupported format version %d", hdr.Version)
	}
	return hdr, nil
}
