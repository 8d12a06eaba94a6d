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
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// fileConfig is the on-disk form of the settings. Unset fields leave the
// defaults alone.
type fileConfig struct {
	Debug                 *bool  `json:"debug,omitempty" toml:"debug"`
	Cache                 string `json:"cache,omitempty" toml:"cache"`
	ManifestCache         string `json:"manifestCache,omitempty" toml:"manifest_cache"`
	Root                  string `json:"root,omitempty" toml:"root"`
	ManifestURL           string `json:"manifestURL,omitempty" toml:"manifest_url"`
	AssetURL              string `json:"assetURL,omitempty" toml:"asset_url"`
	MaxConcurrency        int    `json:"maxConcurrency,omitempty" toml:"max_concurrency"`
	MaxAttempts           int    `json:"maxAttempts,omitempty" toml:"max_attempts"`
	AttemptTimeout        string `json:"attemptTimeout,omitempty" toml:"attempt_timeout"`
	CAFile                string `json:"caFile,omitempty" toml:"ca_file"`
	CertFile              string `json:"certFile,omitempty" toml:"cert_file"`
	KeyFile               string `json:"keyFile,omitempty" toml:"key_file"`
	InsecureSkipTLSVerify *bool  `json:"insecureSkipTLSVerify,omitempty" toml:"insecure_skip_tls_verify"`
	Username              string `json:"username,omitempty" toml:"username"`
	Password              string `json:"password,omitempty" toml:"password"`
}

// loadFile applies the config file at path. A missing file is not an error.
func (s *EnvSettings) loadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "reading config file %s", path)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return errors.Wrapf(err, "parsing config file %s", path)
		}
	default:
		if err := yaml.UnmarshalStrict(data, &fc); err != nil {
			return errors.Wrapf(err, "parsing config file %s", path)
		}
	}
	return s.apply(fc)
}

func (s *EnvSettings) apply(fc fileConfig) error {
	if fc.Debug != nil {
		s.Debug = *fc.Debug
	}
	setString(&s.Cache, fc.Cache)
	setString(&s.ManifestCache, fc.ManifestCache)
	setString(&s.Root, fc.Root)
	setString(&s.ManifestURL, fc.ManifestURL)
	setString(&s.AssetURL, fc.AssetURL)
	setString(&s.CAFile, fc.CAFile)
	setString(&s.CertFile, fc.CertFile)
	setString(&s.KeyFile, fc.KeyFile)
	setString(&s.Username, fc.Username)
	setString(&s.Password, fc.Password)
	if fc.MaxConcurrency != 0 {
		s.MaxConcurrency = fc.MaxConcurrency
	}
	if fc.MaxAttempts != 0 {
		s.MaxAttempts = fc.MaxAttempts
	}
	if fc.InsecureSkipTLSVerify != nil {
		s.InsecureSkipTLSVerify = *fc.InsecureSkipTLSVerify
	}
	if fc.AttemptTimeout != "" {
		d, err := time.ParseDuration(fc.AttemptTimeout)
		if err != nil {
			return errors.Wrapf(err, "invalid attemptTimeout %q", fc.AttemptTimeout)
		}
		s.AttemptTimeout = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate reports settings that cannot drive an install.
func (s *EnvSettings) Validate() error {
	switch {
	case s.MaxConcurrency < 1:
		return errors.Errorf("max concurrency must be at least 1, got %d", s.MaxConcurrency)
	case s.MaxAttempts < 1:
		return errors.Errorf("max attempts must be at least 1, got %d", s.MaxAttempts)
	case s.AttemptTimeout < 0:
		return errors.Errorf("attempt timeout must not be negative, got %s", s.AttemptTimeout)
	case s.Cache == "":
		return errors.New("cache directory is not set")
	case s.Root == "":
		return errors.New("instance root is not set")
	}
	return nil
}
