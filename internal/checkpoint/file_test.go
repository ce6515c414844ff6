package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfem/ember/internal/property"
)

func buildCollections(points int) (*property.Collection, *property.Store[float64], *property.Store[[]int64]) {
	c := property.NewCollection()
	f := property.NewStore(property.Float64(), points)
	seq := property.NewStore(property.SequenceOf(property.Int64()), points)
	c.Add(f)
	c.Add(seq)
	return c, f, seq
}

func TestWriteReadRoundTrip(t *testing.T) {
	src, f, seq := buildCollections(3)
	f.SetAt(0, 1.5)
	f.SetAt(2, -7.25)
	seq.SetAt(1, []int64{4, 5, 6})

	path := filepath.Join(t.TempDir(), "step_000005.ckpt")
	digest, err := Write(path, 5, []*property.Collection{src})
	require.NoError(t, err)
	assert.Len(t, digest, 64) // blake2b-256 hex

	dst, df, dseq := buildCollections(3) // pre-sized to the recorded length
	hdr, err := Read(path, []*property.Collection{dst})
	require.NoError(t, err)

	assert.Equal(t, int64(5), hdr.Step)
	assert.Equal(t, uint32(2), hdr.Streams)
	assert.Equal(t, f.Data(), df.Data())
	assert.Equal(t, []int64{4, 5, 6}, dseq.At(1))
	assert.Empty(t, dseq.At(0))
}

func TestInspect(t *testing.T) {
	src, _, _ := buildCollections(2)
	path := filepath.Join(t.TempDir(), "a.ckpt")
	digest, err := Write(path, 9, []*property.Collection{src})
	require.NoError(t, err)

	hdr, got, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), hdr.Step)
	assert.Equal(t, uint16(1), hdr.Version)
	assert.Equal(t, digest, got)
}

func TestCorruptionDetected(t *testing.T) {
	src, _, _ := buildCollections(2)
	path := filepath.Join(t.TempDir(), "a.ckpt")
	_, err := Write(path, 1, []*property.Collection{src})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Read(path, nil)
	require.Error(t, err)

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Contains(t, integrity.Reason, "digest")
}

func TestTruncationDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("EMCK"), 0o644))

	_, _, err := Inspect(path)
	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
}

func TestReadWrongSizeFails(t *testing.T) {
	src, _, _ := buildCollections(4)
	path := filepath.Join(t.TempDir(), "a.ckpt")
	_, err := Write(path, 1, []*property.Collection{src})
	require.NoError(t, err)

	// A destination sized too large runs off the end of the stream.
	dst, _, _ := buildCollections(10)
	_, err = Read(path, []*property.Collection{dst})
	require.Error(t, err)
}
