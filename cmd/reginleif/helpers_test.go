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

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/reginleif/reginleif/pkg/cli"
	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/manifest"
)

// cmdTestCase describes a command line and what it should produce.
type cmdTestCase struct {
	name      string
	cmd       string
	wantError bool
	// contains lists substrings the output must have.
	contains []string
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeActionCommand(tt.cmd)
			if tt.wantError && err == nil {
				t.Errorf("expected error, got success with the following output:\n%s", out)
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got: '%v'", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("expected output to contain %q, got:\n%s", s, out)
				}
			}
		})
	}
}

func executeActionCommand(cmd string) (*cobra.Command, string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	root := newRootCmd(buf, args)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err := root.ExecuteC()
	return c, buf.String(), err
}

// testEnv points every location reginleif uses into a temporary directory
// and reloads the global settings from it.
type testEnv struct {
	dir       string
	cache     string
	root      string
	manifests string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:       dir,
		cache:     filepath.Join(dir, "cache"),
		root:      filepath.Join(dir, "instances"),
		manifests: filepath.Join(dir, "manifests"),
	}
	require.NoError(t, os.MkdirAll(env.manifests, 0o755))

	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "REGINLEIF_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "xdg-cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	t.Setenv("REGINLEIF_CACHE", env.cache)
	t.Setenv("REGINLEIF_ROOT", env.root)
	t.Setenv("REGINLEIF_MANIFEST_URL", env.manifests)
	t.Setenv("REGINLEIF_MAX_ATTEMPTS", "1")

	old := settings
	settings = cli.New()
	t.Cleanup(func() { settings = old })
	return env
}

// writeDefinition stores def where a directory source looks for it.
func (e *testEnv) writeDefinition(t *testing.T, def *manifest.VersionDefinition) {
	t.Helper()
	data, err := json.Marshal(def)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.manifests, def.ID+".json"), data, 0o644))
}

// fileServer serves fixed content by path and 404 for everything else.
type fileServer struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string][]byte
}

func newFileServer(t *testing.T) *fileServer {
	t.Helper()
	fs := &fileServer{files: map[string][]byte{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		data, ok := fs.files[r.URL.Path]
		fs.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) add(p string, data []byte) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = data
	return fs.URL + p
}

// entry serves body and returns an entry describing it.
func (fs *fileServer) entry(id, body string) manifest.Entry {
	return manifest.Entry{
		ID:     id,
		URL:    fs.add("/files/"+id, []byte(body)),
		Path:   "files/" + id,
		Digest: digest.FromString(digest.SHA1, body),
		Size:   int64(len(body)),
	}
}
