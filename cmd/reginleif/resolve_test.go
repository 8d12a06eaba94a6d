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

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/manifest"
)

func TestResolveCmd(t *testing.T) {
	env, srv := installFixture(t)
	override := srv.entry("a", "overridden")
	override.Rules = []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: "windows"}}}
	env.writeDefinition(t, &manifest.VersionDefinition{
		ID:           "windows-only",
		InheritsFrom: "base",
		Entries:      []manifest.Entry{override},
	})

	_, out, err := executeActionCommand("resolve child -o json")
	require.NoError(t, err, out)
	var descs []artifact.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	var ids []string
	for _, d := range descs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	// The override only applies on windows; elsewhere it removes the entry.
	_, out, err = executeActionCommand("resolve windows-only --os linux -o json")
	require.NoError(t, err, out)
	descs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	require.Len(t, descs, 1)
	assert.Equal(t, "b", descs[0].ID)

	_, out, err = executeActionCommand("resolve windows-only --os windows -o json")
	require.NoError(t, err, out)
	descs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &descs))
	require.Len(t, descs, 2)
	assert.Equal(t, int64(len("overridden")), descs[0].Size)

	runTestCmd(t, []cmdTestCase{{
		name:     "table output",
		cmd:      "resolve child",
		contains: []string{"ID", "KIND", "files/c"},
	}, {
		name:      "unknown version",
		cmd:       "resolve nope",
		wantError: true,
	}})
}

func TestResolveCmdMissingParent(t *testing.T) {
	env, _ := installFixture(t)
	env.writeDefinition(t, &manifest.VersionDefinition{ID: "orphan", InheritsFrom: "gone"})

	_, _, err := executeActionCommand("resolve orphan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
}
