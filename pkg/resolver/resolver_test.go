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

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/manifest"
)

var linux = artifact.Environment{OS: artifact.OSLinux, Arch: artifact.ArchX86_64}

func entry(id, path string) manifest.Entry {
	return manifest.Entry{
		ID:     id,
		URL:    "https://example.com/" + id,
		Path:   path,
		Digest: digest.FromString(digest.SHA256, id+path),
		Kind:   artifact.KindFile,
	}
}

func def(id, parent string, entries ...manifest.Entry) *manifest.VersionDefinition {
	return &manifest.VersionDefinition{ID: id, InheritsFrom: parent, Entries: entries}
}

func paths(descs []artifact.Descriptor) map[string]string {
	out := map[string]string{}
	for _, d := range descs {
		out[d.ID] = d.Path
	}
	return out
}

func ids(descs []artifact.Descriptor) []string {
	var out []string
	for _, d := range descs {
		out = append(out, d.ID)
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		defs   Set
		root   string
		expect []string
		kind   ErrorKind
	}{
		{
			name:   "single definition",
			defs:   Set{"root": def("root", "", entry("A", "a"), entry("B", "b"))},
			root:   "root",
			expect: []string{"A", "B"},
		},
		{
			name: "child entries follow inherited ones",
			defs: Set{
				"root":  def("root", "", entry("A", "a")),
				"child": def("child", "root", entry("B", "b")),
			},
			root:   "child",
			expect: []string{"A", "B"},
		},
		{
			name: "override keeps first-seen position",
			defs: Set{
				"root":  def("root", "", entry("A", "a"), entry("B", "b")),
				"child": def("child", "root", entry("C", "c"), entry("A", "a2")),
			},
			root:   "child",
			expect: []string{"A", "B", "C"},
		},
		{
			name: "three levels",
			defs: Set{
				"root":   def("root", "", entry("A", "a")),
				"mid":    def("mid", "root", entry("B", "b")),
				"leaf":   def("leaf", "mid", entry("C", "c")),
				"unused": def("unused", "", entry("Z", "z")),
			},
			root:   "leaf",
			expect: []string{"A", "B", "C"},
		},
		{
			name: "cycle",
			defs: Set{
				"root": def("root", "X"),
				"X":    def("X", "Y"),
				"Y":    def("Y", "X"),
			},
			root: "root",
			kind: CycleDetected,
		},
		{
			name: "self reference",
			defs: Set{"root": def("root", "root")},
			root: "root",
			kind: CycleDetected,
		},
		{
			name: "missing parent",
			defs: Set{"child": def("child", "root")},
			root: "child",
			kind: MissingParent,
		},
		{
			name: "missing root",
			defs: Set{},
			root: "root",
			kind: MissingParent,
		},
		{
			name: "malformed entry",
			defs: Set{"root": def("root", "", entry("A", "../escape"))},
			root: "root",
			kind: MalformedEntry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descs, err := Resolve(tt.defs, tt.root, linux)
			if tt.kind != 0 {
				var rerr *Error
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, tt.kind, rerr.Kind)
				assert.Nil(t, descs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, ids(descs))
		})
	}
}

func TestResolveOverride(t *testing.T) {
	defs := Set{
		"parent": def("parent", "", entry("A", "path1"), entry("B", "path2")),
		"child":  def("child", "parent", entry("A", "path3")),
	}

	descs, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "path3", "B": "path2"}, paths(descs))
}

func TestResolveDeterministic(t *testing.T) {
	defs := Set{
		"root":  def("root", "", entry("A", "a"), entry("B", "b"), entry("C", "c"), entry("D", "d")),
		"child": def("child", "root", entry("E", "e"), entry("B", "b2"), entry("F", "f")),
	}

	first, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Resolve(defs, "child", linux)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestResolveCycleErrors(t *testing.T) {
	defs := Set{
		"root": def("root", "X"),
		"X":    def("X", "Y"),
		"Y":    def("Y", "X"),
	}
	_, err := Resolve(defs, "root", linux)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.NotErrorIs(t, err, ErrMissingParent)
	assert.Contains(t, err.Error(), "root -> X -> Y -> X")
}

func TestResolveFiltersByEnvironment(t *testing.T) {
	osxOnly := entry("objc", "objc")
	osxOnly.Rules = []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: "osx"}}}

	notOSX := entry("A-default", "a-new")
	notOSX.Rules = []artifact.Rule{{Action: artifact.Allow}, {Action: artifact.Disallow, OS: &artifact.OSRule{Name: "osx"}}}
	onOSX := entry("A-osx", "a-old")
	onOSX.Rules = []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: "osx"}}}

	defs := Set{"root": def("root", "", osxOnly, notOSX, onOSX)}

	descs, err := Resolve(defs, "root", linux)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A-default": "a-new"}, paths(descs))

	descs, err = Resolve(defs, "root", artifact.Environment{OS: artifact.OSX, Arch: artifact.ArchARM64})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"objc": "objc", "A-osx": "a-old"}, paths(descs))
}

func TestResolveInapplicableOverrideDropsID(t *testing.T) {
	override := entry("A", "child/a")
	override.Rules = []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: "osx"}}}
	defs := Set{
		"parent": def("parent", "", entry("A", "parent/a"), entry("B", "b")),
		"child":  def("child", "parent", override),
	}

	descs, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"B": "b"}, paths(descs))

	descs, err = Resolve(defs, "child", artifact.Environment{OS: artifact.OSX, Arch: artifact.ArchX86_64})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "child/a", "B": "b"}, paths(descs))
}

func TestResolvePlatformVariantsOfOneLibrary(t *testing.T) {
	variant := func(version, os string) manifest.Library {
		return manifest.Library{
			Name:  "org.lwjgl:lwjgl:" + version,
			URL:   "https://maven.example.com",
			SHA1:  digest.FromString(digest.SHA1, version),
			Rules: []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: os}}},
		}
	}
	defs := Set{"root": {ID: "root", Libraries: []manifest.Library{
		variant("3.2.2", "linux"),
		variant("3.2.1", "osx"),
	}}}

	descs, err := Resolve(defs, "root", linux)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "libraries/org/lwjgl/lwjgl/3.2.2/lwjgl-3.2.2.jar", descs[0].Path)
}

func TestResolveInapplicableEntryDoesNotClaimDestination(t *testing.T) {
	windows := entry("B", "shared")
	windows.Rules = []artifact.Rule{{Action: artifact.Allow, OS: &artifact.OSRule{Name: "windows"}}}
	defs := Set{
		"root":  def("root", "", entry("A", "shared")),
		"child": def("child", "root", windows),
	}

	descs, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(descs))
}

func TestResolveUniqueDestinations(t *testing.T) {
	defs := Set{
		"root":  def("root", "", entry("A", "shared"), entry("B", "b")),
		"child": def("child", "root", entry("C", "shared")),
	}

	descs, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, ids(descs))
}

func TestResolveLibraries(t *testing.T) {
	lib := func(version string) manifest.Library {
		return manifest.Library{
			Name: "org.ow2.asm:asm:" + version,
			URL:  "https://maven.example.com",
			SHA1: digest.FromString(digest.SHA1, version),
		}
	}
	defs := Set{
		"vanilla": {ID: "vanilla", Libraries: []manifest.Library{lib("9.3")}},
		"modded":  {ID: "modded", InheritsFrom: "vanilla", Libraries: []manifest.Library{lib("9.6")}},
	}

	descs, err := Resolve(defs, "modded", linux)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, "libraries/org/ow2/asm/asm/9.6/asm-9.6.jar", descs[0].Path)
}

func TestEndToEndDescriptors(t *testing.T) {
	a := entry("A", "a")
	a.Size = 10
	b := entry("B", "b")
	b.Size = 20
	defs := Set{
		"root":  def("root", "", a),
		"child": def("child", "root", b),
	}

	descs, err := Resolve(defs, "child", linux)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ids(descs))
	assert.Equal(t, int64(10), descs[0].Size)
	assert.Equal(t, int64(20), descs[1].Size)
}

func TestLoad(t *testing.T) {
	src := manifest.MemorySource{
		"root":   def("root", ""),
		"child":  def("child", "root"),
		"orphan": def("orphan", "gone"),
		"loopA":  def("loopA", "loopB"),
		"loopB":  def("loopB", "loopA"),
	}
	ctx := context.Background()

	defs, err := Load(ctx, src, "child")
	require.NoError(t, err)
	assert.Len(t, defs, 2)

	_, err = Load(ctx, src, "orphan")
	assert.ErrorIs(t, err, ErrMissingParent)
	assert.ErrorIs(t, err, manifest.ErrNotFound)

	_, err = Load(ctx, src, "nobody")
	assert.ErrorIs(t, err, manifest.ErrNotFound)
	assert.NotErrorIs(t, err, ErrMissingParent)

	_, err = Load(ctx, src, "loopA")
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestMerge(t *testing.T) {
	root := &manifest.VersionDefinition{
		ID:          "1.20.1",
		MainClass:   "net.minecraft.client.main.Main",
		Arguments:   "--username ${auth_player_name}",
		Type:        "release",
		ReleaseTime: "2023-06-12T13:25:51+00:00",
		AssetIndex:  &manifest.AssetIndexRef{ID: "5"},
	}
	loader := &manifest.VersionDefinition{
		ID:           "fabric-loader-0.15.1",
		InheritsFrom: "1.20.1",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
	}

	merged := Merge([]*manifest.VersionDefinition{root, loader})
	assert.Equal(t, "fabric-loader-0.15.1", merged.ID)
	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", merged.MainClass)
	assert.Equal(t, "release", merged.Type)
	require.NotNil(t, merged.AssetIndex)
	assert.Equal(t, "5", merged.AssetIndex.ID)
	assert.Empty(t, merged.InheritsFrom)
}
