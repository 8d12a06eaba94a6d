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

package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/digest"
)

// ErrMalformedSource is returned when a definition cannot be decoded or does
// not match the definition schema.
var ErrMalformedSource = errors.New("malformed version definition")

//go:embed schema/version.schema.json
var definitionSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(definitionSchema)

// Entry is a generic artifact entry as written in a definition.
type Entry artifact.Descriptor

// AssetIndexRef points at the asset index a version uses.
type AssetIndexRef struct {
	ID        string        `json:"id"`
	SHA1      digest.Digest `json:"sha1"`
	Size      int64         `json:"size,omitempty"`
	TotalSize int64         `json:"totalSize,omitempty"`
	URL       string        `json:"url"`
}

// Descriptor returns the descriptor for the index file itself.
func (a AssetIndexRef) Descriptor() artifact.Descriptor {
	return artifact.Descriptor{
		ID:     AssetIndexID,
		URL:    a.URL,
		Path:   "assets/indexes/" + a.ID + ".json",
		Digest: a.SHA1,
		Size:   a.Size,
		Kind:   artifact.KindAssetIndex,
	}
}

// AssetIndexID is the logical id of the asset index descriptor. A child
// definition that names its own index replaces the parent's.
const AssetIndexID = "asset-index"

// VersionDefinition is one manifest node. Definitions are read-only once
// loaded.
type VersionDefinition struct {
	ID           string         `json:"id"`
	InheritsFrom string         `json:"inheritsFrom,omitempty"`
	Entries      []Entry        `json:"entries,omitempty"`
	Libraries    []Library      `json:"libraries,omitempty"`
	MavenFiles   []Library      `json:"mavenFiles,omitempty"`
	MainJar      *Library       `json:"mainJar,omitempty"`
	AssetIndex   *AssetIndexRef `json:"assetIndex,omitempty"`

	// Launch metadata, passed through untouched.
	MainClass   string `json:"mainClass,omitempty"`
	Arguments   string `json:"minecraftArguments,omitempty"`
	Type        string `json:"type,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
}

// Descriptors flattens the entries of d alone, in declaration order:
// generic entries, libraries, maven files, the main jar and finally the
// asset index. Parents are not consulted.
func (d *VersionDefinition) Descriptors(env artifact.Environment) ([]artifact.Descriptor, error) {
	var out []artifact.Descriptor

	for i, e := range d.Entries {
		desc := artifact.Descriptor(e)
		if desc.Kind == "" {
			desc.Kind = artifact.KindFile
		}
		if err := desc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s: entry %d", d.ID, i)
		}
		out = append(out, desc)
	}

	add := func(libs []Library, kind artifact.Kind, section string) error {
		for i, lib := range libs {
			descs, err := lib.Descriptors(env, kind)
			if err != nil {
				return errors.Wrapf(err, "%s: %s %d", d.ID, section, i)
			}
			out = append(out, descs...)
		}
		return nil
	}
	if err := add(d.Libraries, artifact.KindLibrary, "library"); err != nil {
		return nil, err
	}
	if err := add(d.MavenFiles, artifact.KindLibrary, "maven file"); err != nil {
		return nil, err
	}
	if d.MainJar != nil {
		if err := add([]Library{*d.MainJar}, artifact.KindClient, "main jar"); err != nil {
			return nil, err
		}
	}

	if d.AssetIndex != nil {
		desc := d.AssetIndex.Descriptor()
		if err := desc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "%s: asset index", d.ID)
		}
		out = append(out, desc)
	}
	return out, nil
}

// Decode parses a JSON or YAML definition and validates it against the
// definition schema.
func Decode(data []byte) (*VersionDefinition, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var def VersionDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrapf(ErrMalformedSource, "%v", err)
	}
	return &def, nil
}

// Validate checks data against the definition schema.
func Validate(data []byte) (reterr error) {
	defer func() {
		if r := recover(); r != nil {
			reterr = errors.Wrapf(ErrMalformedSource, "unable to validate schema: %s", r)
		}
	}()

	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return errors.Wrapf(ErrMalformedSource, "%v", err)
	}
	if bytes.Equal(doc, []byte("null")) {
		return errors.Wrap(ErrMalformedSource, "empty document")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.Wrapf(ErrMalformedSource, "%v", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, desc := range result.Errors() {
			sb.WriteString(fmt.Sprintf("\n- %s", desc))
		}
		return errors.Wrapf(ErrMalformedSource, "schema violations:%s", sb.String())
	}
	return nil
}

// Encode renders d as indented JSON.
func Encode(d *VersionDefinition) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
