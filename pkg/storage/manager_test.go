package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilename(t *testing.T) {
	tests := map[string]string{
		"image123_jpg":        "image123.jpg",
		"a_b_c_png":           "a_b_c.png",
		"image123.jpg":        "image123.jpg",
		"already_ok.jpeg":     "already_ok.jpeg",
		"noextension":         "noextension.jpg",
		"trailing_":           "trailing.",
		"_jpg":                ".jpg",
		"weird.name_with_jpg": "weird.name_with_jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeFilename(in), in)
	}
}

func TestNormalizeFilenameProperties(t *testing.T) {
	inputs := []string{"", "x", "a_b", "a_b_c", "photo_12345_jpeg", "_", "__", "abc_def_"}
	for _, in := range inputs {
		once := NormalizeFilename(in)
		assert.Equal(t, once, NormalizeFilename(once), "idempotent for %q", in)
		assert.Equal(t, 1, strings.Count(once, "."), "exactly one period for %q", in)
	}
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "abc.jpg", FilenameFromURL("https://cdn.example.com/photos/main/abc_jpg?X-Amz-Signature=1"))
	assert.Equal(t, "abc.jpg", FilenameFromURL("https://cdn.example.com/photos/main/abc.jpg"))

	fallback := FilenameFromURL("https://cdn.example.com/")
	assert.Equal(t, FallbackFilename("https://cdn.example.com/"), fallback)
	assert.True(t, strings.HasPrefix(fallback, "procare_"))
	assert.True(t, strings.HasSuffix(fallback, ".jpg"))

	assert.Equal(t, FallbackFilename("%zz"), FilenameFromURL("%zz"), "unparsable URL")
}

func TestFilenameFromURLRejectsDotNames(t *testing.T) {
	for _, raw := range []string{
		"https://cdn.example.com/photos/..",
		"https://cdn.example.com/photos/%2E%2E",
		"https://cdn.example.com/photos/.",
		"https://cdn.example.com/photos/.hidden_jpg",
		"https://cdn.example.com/photos/.abc.jpg.123.part",
	} {
		name := FilenameFromURL(raw)
		assert.Equal(t, FallbackFilename(raw), name, "%s", raw)
		assert.False(t, strings.HasPrefix(name, "."), "%s", raw)
	}

	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.False(t, m.Exists(FilenameFromURL("https://cdn.example.com/photos/..")))
}

func TestFallbackFilenameIsDeterministic(t *testing.T) {
	a := FallbackFilename("https://example.com/?id=1")
	b := FallbackFilename("https://example.com/?id=1")
	c := FallbackFilename("https://example.com/?id=2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("procare_")+32+len(".jpg"))
}

func TestManagerSaveAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.False(t, m.Exists("a.jpg"))

	path, err := m.Save(bytes.NewReader([]byte("data")), "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), path)
	assert.True(t, m.Exists("a.jpg"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), content)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestManagerSaveFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.Save(failingReader{}, "a.jpg")
	require.Error(t, err)
	assert.False(t, m.Exists("a.jpg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewManagerRemovesPartials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.jpg.123.part"), []byte("half"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("whole"), 0644))

	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.True(t, m.Exists("b.jpg"))
	_, err = os.Stat(filepath.Join(dir, ".a.jpg.123.part"))
	assert.True(t, os.IsNotExist(err))
}

func TestManagerReserve(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Reserve("same.jpg") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, m.Reserve("other.jpg"))
}
