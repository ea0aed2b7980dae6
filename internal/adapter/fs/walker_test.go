package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestWalker_ListNonRecursiveSorted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.py":        "print('b')\n",
		"a.py":        "print('a')\n",
		"notes.txt":   "not code",
		"pkg/deep.py": "print('deep')\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.py"), 0755))

	files, err := NewWalker([]string{"*.py"}, nil).List(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.py"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.py"), files[1].Path)
	assert.Equal(t, int64(len("print('a')\n")), files[0].Size)
}

func TestWalker_Excludes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.go":      "package main\n",
		"main_test.go": "package main\n",
	})

	files, err := NewWalker([]string{".go"}, []string{"*_test.go"}).List(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "main.go", filepath.Base(files[0].Path))
}

func TestWalker_MissingDir(t *testing.T) {
	_, err := NewWalker(nil, nil).List(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNormalizePattern(t *testing.T) {
	assert.Equal(t, "*.py", NormalizePattern(".py"))
	assert.Equal(t, "*.py", NormalizePattern("*.py"))
	assert.Equal(t, "*.{go,py}", NormalizePattern("*.{go,py}"))
	assert.Equal(t, "main.go", NormalizePattern("main.go"))
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("*.py"))
	assert.Error(t, ValidatePattern("[.py"))
}

func TestReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"x.py": "x = 1\n"})

	text, err := Reader{}.ReadFile(filepath.Join(dir, "x.py"))
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", text)
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\n", NormalizeNewlines("a\r\nb\r\n"))
	assert.Equal(t, "a\nb\n", NormalizeNewlines("a\rb\r"))
	assert.Equal(t, "a\n\nb", NormalizeNewlines("a\r\n\rb"))
	assert.Equal(t, "plain\n", NormalizeNewlines("plain\n"))
}
