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

package tlsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTLSConfigInsecure(t *testing.T) {
	cfg, err := NewTLSConfig(WithInsecureSkipVerify(true))
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Empty(t, cfg.Certificates)
	assert.Nil(t, cfg.RootCAs)
}

func TestNewTLSConfigEmptyFilesAreIgnored(t *testing.T) {
	cfg, err := NewTLSConfig(WithCertKeyPairFiles("", ""), WithCAFile(""))
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestNewTLSConfigMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := NewTLSConfig(
		WithCAFile(filepath.Join(dir, "missing-ca.crt")),
		WithCertKeyPairFiles(filepath.Join(dir, "missing.crt"), filepath.Join(dir, "missing.key")),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read CA file")
	assert.Contains(t, err.Error(), "unable to read cert file")
}

func TestNewTLSConfigBadCA(t *testing.T) {
	ca := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(ca, []byte("not a certificate"), 0o644))

	_, err := NewTLSConfig(WithCAFile(ca))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append certificates")
}
