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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginleif/reginleif/pkg/manifest"
)

func TestVersionsCmd(t *testing.T) {
	newTestEnv(t)
	srv := newFileServer(t)

	details, err := json.Marshal(manifest.PackageDetails{
		FormatVersion: 1,
		Name:          "Minecraft",
		UID:           "net.minecraft",
		Versions: []manifest.VersionInfo{
			{Version: "1.20.1", Type: "release", Recommended: true, ReleaseTime: "2023-06-12T13:25:51+00:00"},
			{Version: "23w31a", Type: "snapshot", ReleaseTime: "2023-08-01T12:00:00+00:00"},
			{Version: "1.20.2", Type: "release", ReleaseTime: "2023-09-20T09:02:57+00:00"},
		},
	})
	require.NoError(t, err)
	srv.add("/net.minecraft/index.json", details)
	list, err := json.Marshal(manifest.PackageList{
		FormatVersion: 1,
		Packages:      []manifest.PackageInfo{{Name: "Minecraft", UID: "net.minecraft"}},
	})
	require.NoError(t, err)
	srv.add("/index.json", list)
	t.Setenv("REGINLEIF_MANIFEST_URL", srv.URL)
	settings.ManifestURL = srv.URL

	versions := func(cmd string) []string {
		t.Helper()
		_, out, err := executeActionCommand(cmd)
		require.NoError(t, err, out)
		var vs []manifest.VersionInfo
		require.NoError(t, json.Unmarshal([]byte(out), &vs))
		var names []string
		for _, v := range vs {
			names = append(names, v.Version)
		}
		return names
	}

	assert.Equal(t, []string{"1.20.2", "1.20.1", "23w31a"}, versions("versions net.minecraft -o json"))
	assert.Equal(t, []string{"1.20.2", "1.20.1"}, versions("versions net.minecraft --type release -o json"))
	assert.Equal(t, []string{"1.20.1"}, versions("versions net.minecraft --recommended -o json"))
	assert.Equal(t, []string{"1.20.2"}, versions("versions net.minecraft -m 1 -o json"))

	runTestCmd(t, []cmdTestCase{{
		name:     "table output",
		cmd:      "versions net.minecraft",
		contains: []string{"VERSION", "RECOMMENDED", "23w31a"},
	}, {
		name:     "yaml output",
		cmd:      "versions net.minecraft --recommended -o yaml",
		contains: []string{"version: 1.20.1"},
	}, {
		name:      "unknown package",
		cmd:       "versions org.quiltmc",
		wantError: true,
	}, {
		name:      "missing package argument",
		cmd:       "versions",
		wantError: true,
		contains:  []string{"requires 1 argument"},
	}})
}

func TestVersionsCmdNeedsIndex(t *testing.T) {
	newTestEnv(t)

	_, _, err := executeActionCommand("versions net.minecraft")
	assert.Error(t, err)
}
