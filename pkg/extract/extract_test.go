/*
Copyright The Reginleif Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, members map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "natives.jar")
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(members))
	for n := range members {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(members[n]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return p
}

func TestFilter(t *testing.T) {
	f, err := NewFilter([]string{"META-INF/", "*.sha1", "", "docs/**"})
	require.NoError(t, err)

	tests := map[string]bool{
		"META-INF/MANIFEST.MF":   true,
		"META-INF/":              true,
		"META-INF":               true,
		"liblwjgl.so.sha1":       true,
		"sub/liblwjgl.so.sha1":   false,
		"docs/a/b.txt":           true,
		"liblwjgl.so":            false,
		"lwjgl.dll":              false,
		"META-INFO/whatever.txt": false,
	}
	for name, want := range tests {
		assert.Equal(t, want, f.Excluded(name), name)
	}

	var nilFilter *Filter
	assert.False(t, nilFilter.Excluded("anything"))
}

func TestFilterBadPattern(t *testing.T) {
	_, err := NewFilter([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestZip(t *testing.T) {
	src := writeZip(t, map[string]string{
		"META-INF/MANIFEST.MF":  "Manifest-Version: 1.0",
		"liblwjgl.so":           "elf",
		"linux/x64/libglfw.so":  "glfw",
		"linux/x64/libglfw.sha": "hash",
	})
	dir := filepath.Join(t.TempDir(), "natives", "1.20.1")

	written, err := Zip(src, dir, []string{"META-INF/", "**.sha"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"liblwjgl.so", "linux/x64/libglfw.so"}, written)

	data, err := os.ReadFile(filepath.Join(dir, "linux", "x64", "libglfw.so"))
	require.NoError(t, err)
	assert.Equal(t, "glfw", string(data))
	assert.NoDirExists(t, filepath.Join(dir, "META-INF"))
	assert.NoFileExists(t, filepath.Join(dir, "linux", "x64", "libglfw.sha"))
}

func TestZipStaysInsideDir(t *testing.T) {
	src := writeZip(t, map[string]string{"../../escape.so": "bad"})
	base := t.TempDir()
	dir := filepath.Join(base, "natives")

	written, err := Zip(src, dir, nil)
	require.NoError(t, err)
	assert.Len(t, written, 1)
	assert.FileExists(t, filepath.Join(dir, "escape.so"))
	assert.NoFileExists(t, filepath.Join(base, "escape.so"))
}

func TestZipOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.so"), []byte("old"), 0o644))

	_, err := Zip(writeZip(t, map[string]string{"lib.so": "new"}), dir, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "lib.so"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestZipNotAnArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bogus.jar")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o644))

	_, err := Zip(p, t.TempDir(), nil)
	assert.Error(t, err)
}
