package tilegrid

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid() *Grid {
	g := New(2, 1)
	g.Records = append(g.Records,
		Record{Wall: true, ID: 1},
		Record{Torch: true, ID: 0x0102, Paint: 7},
	)
	return g
}

func TestMarshalBinary(t *testing.T) {
	b, err := sampleGrid().MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		0, 0, 2, 0, 1, 0,
		1, 0, 1, 0, 0,
		0, 1, 2, 1, 7,
	}
	assert.Equal(t, want, b)
	assert.Equal(t, len(want), sampleGrid().Size())
}

func TestMarshalRecordCount(t *testing.T) {
	g := New(2, 2)
	g.Records = append(g.Records, Record{})
	_, err := g.MarshalBinary()
	assert.ErrorIs(t, err, errRecordCount)
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleGrid()))

	got, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleGrid(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalBinary(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    []byte
		records int
		err     error
	}{
		{"short", []byte{0, 0, 1}, 0, errShortHeader},
		{"header only", []byte{0, 0, 0, 0, 0, 0}, 0, nil},
		{"partial record", []byte{0, 0, 1, 0, 1, 0, 1, 0, 5, 0}, 0, nil},
		{"one and a half", []byte{0, 0, 1, 0, 1, 0, 1, 0, 5, 0, 3, 1, 1}, 1, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var g Grid
			err := g.UnmarshalBinary(tc.data)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, g.Records, tc.records)
		})
	}
}

func TestFiles(t *testing.T) {
	for _, name := range []string{"photo1.txt", "photo1.txt" + CompressedExt} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, sampleGrid()))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, sampleGrid().Records, got.Records)
			assert.Equal(t, uint16(2), got.Width)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temporary files left behind")
		})
	}
}

func TestCompressedDiffers(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.txt")
	packed := filepath.Join(dir, "a.txt"+CompressedExt)
	require.NoError(t, WriteFile(plain, sampleGrid()))
	require.NoError(t, WriteFile(packed, sampleGrid()))

	a, err := os.ReadFile(plain)
	require.NoError(t, err)
	b, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, b[:4], "zstd magic")
}

func TestWriteAtomicFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	boom := errors.New("boom")
	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
}
