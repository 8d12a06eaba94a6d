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

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string
		config  string

		// expected values
		debug          bool
		cache          string
		root           string
		manifestURL    string
		maxConcurrency int
		attemptTimeout time.Duration
	}{
		{
			name:           "defaults",
			cache:          "/cache/reginleif/objects",
			root:           "/data/reginleif/instances",
			manifestURL:    defaultManifestURL,
			maxConcurrency: defaultMaxConcurrency,
			attemptTimeout: defaultAttemptTimeout,
		},
		{
			name:           "with flags set",
			args:           "--debug --cache=/tmp/objects --root=/srv/game --max-concurrency 3 --attempt-timeout=30s",
			debug:          true,
			cache:          "/tmp/objects",
			root:           "/srv/game",
			manifestURL:    defaultManifestURL,
			maxConcurrency: 3,
			attemptTimeout: 30 * time.Second,
		},
		{
			name:           "with envvars set",
			envvars:        map[string]string{"REGINLEIF_DEBUG": "1", "REGINLEIF_CACHE": "/env/objects", "REGINLEIF_MANIFEST_URL": "https://mirror.example.com/v1", "REGINLEIF_MAX_CONCURRENCY": "16", "REGINLEIF_ATTEMPT_TIMEOUT": "1m"},
			debug:          true,
			cache:          "/env/objects",
			root:           "/data/reginleif/instances",
			manifestURL:    "https://mirror.example.com/v1",
			maxConcurrency: 16,
			attemptTimeout: time.Minute,
		},
		{
			name:           "with config file set",
			config:         "cache: /file/objects\nroot: /file/root\nmaxConcurrency: 4\nattemptTimeout: 10s\n",
			cache:          "/file/objects",
			root:           "/file/root",
			manifestURL:    defaultManifestURL,
			maxConcurrency: 4,
			attemptTimeout: 10 * time.Second,
		},
		{
			name:           "with config file, envvars and flags set",
			config:         "cache: /file/objects\nroot: /file/root\nmaxConcurrency: 4\ndebug: true\n",
			envvars:        map[string]string{"REGINLEIF_ROOT": "/env/root", "REGINLEIF_MAX_CONCURRENCY": "16"},
			args:           "--max-concurrency=2",
			debug:          true,
			cache:          "/file/objects",
			root:           "/env/root",
			manifestURL:    defaultManifestURL,
			maxConcurrency: 2,
			attemptTimeout: defaultAttemptTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)

			if tt.config != "" {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o644))
				t.Setenv("REGINLEIF_CONFIG", path)
			}
			for k, v := range tt.envvars {
				t.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)

			settings, err := Load()
			require.NoError(t, err)
			settings.AddFlags(flags)
			if tt.args != "" {
				require.NoError(t, flags.Parse(strings.Split(tt.args, " ")))
			}

			assert.Equal(t, tt.debug, settings.Debug, "debug")
			assert.Equal(t, tt.cache, settings.Cache, "cache")
			assert.Equal(t, tt.root, settings.Root, "root")
			assert.Equal(t, tt.manifestURL, settings.ManifestURL, "manifest url")
			assert.Equal(t, tt.maxConcurrency, settings.MaxConcurrency, "max concurrency")
			assert.Equal(t, tt.attemptTimeout, settings.AttemptTimeout, "attempt timeout")
			assert.NoError(t, settings.Validate())
		})
	}
}

func TestTOMLConfig(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache = "/toml/objects"
max_attempts = 7
insecure_skip_tls_verify = true
`), 0o644))
	t.Setenv("REGINLEIF_CONFIG", path)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/toml/objects", settings.Cache)
	assert.Equal(t, 7, settings.MaxAttempts)
	assert.True(t, settings.InsecureSkipTLSVerify)
}

func TestBadConfig(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nonsense: [\n"), 0o644))
	t.Setenv("REGINLEIF_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)

	// New still yields usable settings
	settings := New()
	assert.Equal(t, defaultMaxConcurrency, settings.MaxConcurrency)

	require.NoError(t, os.WriteFile(path, []byte("attemptTimeout: soon\n"), 0o644))
	_, err = Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("unknownKey: 1\n"), 0o644))
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolateEnv(t)

	s := New()
	require.NoError(t, s.Validate())

	s.MaxConcurrency = 0
	assert.Error(t, s.Validate())

	s = New()
	s.MaxAttempts = 0
	assert.Error(t, s.Validate())

	s = New()
	s.Root = ""
	assert.Error(t, s.Validate())
}

func TestEnvOrBool(t *testing.T) {
	const envName = "TEST_ENV_OR_BOOL"
	tests := []struct {
		name     string
		env      string
		val      string
		def      bool
		expected bool
	}{
		{
			name:     "unset with default false",
			def:      false,
			expected: false,
		},
		{
			name:     "unset with default true",
			def:      true,
			expected: true,
		},
		{
			name:     "blank env with default true",
			env:      envName,
			def:      true,
			expected: true,
		},
		{
			name:     "env true with default false",
			env:      envName,
			val:      "true",
			def:      false,
			expected: true,
		},
		{
			name:     "env false with default true",
			env:      envName,
			val:      "false",
			def:      true,
			expected: false,
		},
		{
			name:     "env fails parsing with default true",
			env:      envName,
			val:      "NOT_A_BOOL",
			def:      true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(tt.env, tt.val)
			}
			actual := envBoolOr(tt.env, tt.def)
			if actual != tt.expected {
				t.Errorf("expected result %t, got %t", tt.expected, actual)
			}
		})
	}
}

func TestEnvVars(t *testing.T) {
	isolateEnv(t)

	vars := New().EnvVars()
	assert.Equal(t, "/cache/reginleif/objects", vars["REGINLEIF_CACHE"])
	assert.Equal(t, "8", vars["REGINLEIF_MAX_CONCURRENCY"])
	assert.NotContains(t, vars, "REGINLEIF_PASSWORD")
}

// isolateEnv points the XDG homes at fixed locations and clears every
// REGINLEIF_ variable for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "REGINLEIF_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv("XDG_CACHE_HOME", "/cache")
	t.Setenv("XDG_CONFIG_HOME", "/config")
	t.Setenv("XDG_DATA_HOME", "/data")
}
