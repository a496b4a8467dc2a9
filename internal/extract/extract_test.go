package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/failure"
)

type entry struct {
	name string
	body string // ignored for names ending in "/"
}

func writeArchive(t *testing.T, entries ...entry) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		if e.name[len(e.name)-1] != '/' {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())

	p := filepath.Join(t.TempDir(), "generated_project123.zip")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))
	return p
}

func newRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "Downloads", "generated_project")
}

func TestExtract_DirectoryAndFile(t *testing.T) {
	root := newRoot(t)
	archive := writeArchive(t, entry{name: "a/"}, entry{name: "a/b.txt", body: "hello"})

	got, err := NewExtractor(root, false, nil).Extract(archive)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	info, err := os.Stat(filepath.Join(root, "a"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExtract_CreatesMissingParents(t *testing.T) {
	root := newRoot(t)
	archive := writeArchive(t, entry{name: "src/main/app.go", body: "package main"})

	_, err := NewExtractor(root, false, nil).Extract(archive)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "src", "main", "app.go"))
}

func TestExtract_EmptyArchive(t *testing.T) {
	root := newRoot(t)
	archive := writeArchive(t)

	got, err := NewExtractor(root, false, nil).Extract(archive)
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.DirExists(t, root)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_MalformedArchiveLeavesRootUntouched(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.MkdirAll(root, 0755))
	existing := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	tests := []struct {
		name    string
		content []byte
	}{
		{"not a zip", []byte(`{"error":"oops"}`)},
		{"empty", nil},
		{"truncated", func() []byte {
			data, err := os.ReadFile(writeArchive(t, entry{name: "x.txt", body: "data"}))
			require.NoError(t, err)
			return data[:len(data)/2]
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := filepath.Join(t.TempDir(), "bad.zip")
			require.NoError(t, os.WriteFile(bad, tt.content, 0644))

			_, err := NewExtractor(root, false, nil).Extract(bad)
			require.Error(t, err)
			assert.ErrorIs(t, err, failure.ErrArchiveRead)

			entries, err := os.ReadDir(root)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			data, err := os.ReadFile(existing)
			require.NoError(t, err)
			assert.Equal(t, "old", string(data))
		})
	}
}

func TestExtract_MalformedArchiveDoesNotCreateRoot(t *testing.T) {
	root := newRoot(t)
	bad := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0644))

	_, err := NewExtractor(root, false, nil).Extract(bad)
	assert.ErrorIs(t, err, failure.ErrArchiveRead)
	assert.NoDirExists(t, root)
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.txt", "a/../../evil.txt", "/abs.txt"} {
		t.Run(name, func(t *testing.T) {
			root := newRoot(t)
			archive := writeArchive(t, entry{name: "ok.txt", body: "fine"}, entry{name: name, body: "bad"})

			_, err := NewExtractor(root, false, nil).Extract(archive)
			require.Error(t, err)
			assert.ErrorIs(t, err, failure.ErrArchiveRead)

			assert.NoFileExists(t, filepath.Join(root, "ok.txt"), "nothing is written when any entry is rejected")
			assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "evil.txt"))
		})
	}
}

func TestExtract_AllowUnsafePaths(t *testing.T) {
	root := newRoot(t)
	archive := writeArchive(t, entry{name: "../sibling.txt", body: "out"})

	_, err := NewExtractor(root, true, nil).Extract(archive)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(root), "sibling.txt"))
	require.NoError(t, err)
	assert.Equal(t, "out", string(data))
}

func TestExtract_IdempotentRerun(t *testing.T) {
	root := newRoot(t)
	archive := writeArchive(t, entry{name: "a/"}, entry{name: "a/b.txt", body: "hello"})
	ex := NewExtractor(root, false, nil)

	first, err := ex.Extract(archive)
	require.NoError(t, err)
	second, err := ex.Extract(archive)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, err := os.ReadFile(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExtract_OverwritesButKeepsUnrelatedFiles(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("a much longer old body"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.txt"), []byte("other"), 0644))

	archive := writeArchive(t, entry{name: "b.txt", body: "new"})
	_, err := NewExtractor(root, false, nil).Extract(archive)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.FileExists(t, filepath.Join(root, "other.txt"))
}

func TestExtract_MissingArchiveIsIOError(t *testing.T) {
	_, err := NewExtractor(newRoot(t), false, nil).Extract(filepath.Join(t.TempDir(), "gone.zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrIO)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ExtractionRoot = filepath.Join(t.TempDir(), "out")
	cfg.AllowUnsafePaths = true

	ex, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.ExtractionRoot, ex.Root())
	assert.True(t, ex.allowUnsafe)
}
