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

/*Package cli describes the operating environment for the reginleif CLI.

Settings are layered. Defaults come from the XDG based paths in
pkg/launchpath. An optional config file overrides the defaults, REGINLEIF_*
environment variables override the file, and command line flags override
everything else.
*/
package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/reginleif/reginleif/pkg/launchpath"
)

const (
	defaultManifestURL    = "https://meta.prismlauncher.org/v1"
	defaultAssetURL       = "https://resources.download.minecraft.net"
	defaultMaxConcurrency = 8
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 5 * time.Minute
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// ConfigFile is the optional YAML or TOML file the settings were read from.
	ConfigFile string
	// Debug indicates whether or not reginleif is running in Debug mode.
	Debug bool
	// Cache is the root of the content-addressed object store.
	Cache string
	// ManifestCache is the directory holding fetched version definitions.
	ManifestCache string
	// Root is the instance directory artifacts are materialized under.
	Root string
	// ManifestURL is the base URL of the version definition index.
	ManifestURL string
	// AssetURL is the base URL asset objects are fetched from.
	AssetURL string
	// MaxConcurrency bounds the number of parallel downloads.
	MaxConcurrency int
	// MaxAttempts is the number of tries per artifact before giving up.
	MaxAttempts int
	// AttemptTimeout bounds a single download attempt.
	AttemptTimeout time.Duration
	// CAFile, CertFile and KeyFile configure TLS for the HTTP getter.
	CAFile   string
	CertFile string
	KeyFile  string
	// InsecureSkipTLSVerify disables server certificate checks.
	InsecureSkipTLSVerify bool
	// Username and Password are sent to the ManifestURL host only.
	Username string
	Password string
}

// New returns settings populated from defaults, the config file and the
// environment. Problems reading the config file are ignored here; use
// Load to see them.
func New() *EnvSettings {
	env, _ := Load()
	return env
}

// Load is like New but reports config file errors.
func Load() (*EnvSettings, error) {
	env := &EnvSettings{
		ConfigFile:     envOr("REGINLEIF_CONFIG", launchpath.ConfigFile()),
		Cache:          launchpath.ObjectStore(),
		ManifestCache:  launchpath.ManifestCache(),
		Root:           launchpath.Instances(),
		ManifestURL:    defaultManifestURL,
		AssetURL:       defaultAssetURL,
		MaxConcurrency: defaultMaxConcurrency,
		MaxAttempts:    defaultMaxAttempts,
		AttemptTimeout: defaultAttemptTimeout,
	}

	err := env.loadFile(env.ConfigFile)

	env.Debug = envBoolOr("REGINLEIF_DEBUG", env.Debug)
	env.Cache = envOr("REGINLEIF_CACHE", env.Cache)
	env.ManifestCache = envOr("REGINLEIF_MANIFEST_CACHE", env.ManifestCache)
	env.Root = envOr("REGINLEIF_ROOT", env.Root)
	env.ManifestURL = envOr("REGINLEIF_MANIFEST_URL", env.ManifestURL)
	env.AssetURL = envOr("REGINLEIF_ASSET_URL", env.AssetURL)
	env.MaxConcurrency = envIntOr("REGINLEIF_MAX_CONCURRENCY", env.MaxConcurrency)
	env.MaxAttempts = envIntOr("REGINLEIF_MAX_ATTEMPTS", env.MaxAttempts)
	env.AttemptTimeout = envDurationOr("REGINLEIF_ATTEMPT_TIMEOUT", env.AttemptTimeout)
	env.CAFile = envOr("REGINLEIF_CA_FILE", env.CAFile)
	env.CertFile = envOr("REGINLEIF_CERT_FILE", env.CertFile)
	env.KeyFile = envOr("REGINLEIF_KEY_FILE", env.KeyFile)
	env.InsecureSkipTLSVerify = envBoolOr("REGINLEIF_INSECURE_SKIP_TLS_VERIFY", env.InsecureSkipTLSVerify)
	env.Username = envOr("REGINLEIF_USERNAME", env.Username)
	env.Password = envOr("REGINLEIF_PASSWORD", env.Password)

	return env, err
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.StringVar(&s.Cache, "cache", s.Cache, "path to the content-addressed object store")
	fs.StringVar(&s.ManifestCache, "manifest-cache", s.ManifestCache, "path to the directory holding fetched version definitions")
	fs.StringVar(&s.Root, "root", s.Root, "instance directory artifacts are placed under")
	fs.StringVar(&s.ManifestURL, "manifest-url", s.ManifestURL, "base URL of the version definition index")
	fs.StringVar(&s.AssetURL, "asset-url", s.AssetURL, "base URL asset objects are fetched from")
	fs.IntVar(&s.MaxConcurrency, "max-concurrency", s.MaxConcurrency, "maximum number of parallel downloads")
	fs.IntVar(&s.MaxAttempts, "max-attempts", s.MaxAttempts, "download attempts per artifact before giving up")
	fs.DurationVar(&s.AttemptTimeout, "attempt-timeout", s.AttemptTimeout, "time limit for a single download attempt")
	fs.StringVar(&s.CAFile, "ca-file", s.CAFile, "verify certificates of HTTPS-enabled servers using this CA bundle")
	fs.StringVar(&s.CertFile, "cert-file", s.CertFile, "identify HTTPS client using this SSL certificate file")
	fs.StringVar(&s.KeyFile, "key-file", s.KeyFile, "identify HTTPS client using this SSL key file")
	fs.BoolVar(&s.InsecureSkipTLSVerify, "insecure-skip-tls-verify", s.InsecureSkipTLSVerify, "skip tls certificate checks for downloads")
	fs.StringVar(&s.Username, "username", s.Username, "username for the manifest server")
	fs.StringVar(&s.Password, "password", s.Password, "password for the manifest server")
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envBoolOr(name string, def bool) bool {
	if name == "" {
		return def
	}
	envVal := envOr(name, strconv.FormatBool(def))
	ret, err := strconv.ParseBool(envVal)
	if err != nil {
		return def
	}
	return ret
}

func envIntOr(name string, def int) int {
	if name == "" {
		return def
	}
	envVal := envOr(name, strconv.Itoa(def))
	ret, err := strconv.Atoi(envVal)
	if err != nil {
		return def
	}
	return ret
}

func envDurationOr(name string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// EnvVars returns the effective settings as environment variables.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"REGINLEIF_BIN":                      os.Args[0],
		"REGINLEIF_CACHE_HOME":               launchpath.CachePath(""),
		"REGINLEIF_CONFIG_HOME":              launchpath.ConfigPath(""),
		"REGINLEIF_DATA_HOME":                launchpath.DataPath(""),
		"REGINLEIF_CONFIG":                   s.ConfigFile,
		"REGINLEIF_DEBUG":                    fmt.Sprint(s.Debug),
		"REGINLEIF_CACHE":                    s.Cache,
		"REGINLEIF_MANIFEST_CACHE":           s.ManifestCache,
		"REGINLEIF_ROOT":                     s.Root,
		"REGINLEIF_MANIFEST_URL":             s.ManifestURL,
		"REGINLEIF_ASSET_URL":                s.AssetURL,
		"REGINLEIF_MAX_CONCURRENCY":          strconv.Itoa(s.MaxConcurrency),
		"REGINLEIF_MAX_ATTEMPTS":             strconv.Itoa(s.MaxAttempts),
		"REGINLEIF_ATTEMPT_TIMEOUT":          s.AttemptTimeout.String(),
		"REGINLEIF_INSECURE_SKIP_TLS_VERIFY": strconv.FormatBool(s.InsecureSkipTLSVerify),
	}
}
