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
	"strings"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/digest"
)

// librariesDir is where library files land under an instance root.
const librariesDir = "libraries"

// LibraryArtifact is one downloadable file of a library.
type LibraryArtifact struct {
	Path   string        `json:"path,omitempty"`
	URL    string        `json:"url"`
	SHA1   digest.Digest `json:"sha1,omitempty"`
	SHA256 digest.Digest `json:"sha256,omitempty"`
	Size   int64         `json:"size,omitempty"`
}

func (a LibraryArtifact) digest() digest.Digest {
	if !a.SHA256.IsZero() {
		return a.SHA256
	}
	return a.SHA1
}

// Downloads holds the main artifact and the platform classifiers of a library.
type Downloads struct {
	Artifact    *LibraryArtifact           `json:"artifact,omitempty"`
	Classifiers map[string]LibraryArtifact `json:"classifiers,omitempty"`
}

// Library is a launcher library entry. A library either lists explicit
// downloads, or names a maven repository in URL and is fetched from the
// path its coordinate maps to.
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	SHA1      digest.Digest     `json:"sha1,omitempty"`
	Size      int64             `json:"size,omitempty"`
	Downloads *Downloads        `json:"downloads,omitempty"`
	Rules     []artifact.Rule   `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *artifact.Extract `json:"extract,omitempty"`
}

// IsMaven reports whether l is the repository-only form.
func (l Library) IsMaven() bool {
	return l.Downloads == nil
}

// Descriptors returns the files l contributes on env: the main artifact
// first, then the native classifier for env if there is one.
func (l Library) Descriptors(env artifact.Environment, kind artifact.Kind) ([]artifact.Descriptor, error) {
	coord, err := ParseCoordinate(l.Name)
	if err != nil {
		return nil, err
	}

	if l.IsMaven() {
		if l.URL == "" {
			return nil, errors.Wrapf(artifact.ErrMalformed, "library %s has neither downloads nor a repository url", l.Name)
		}
		d := artifact.Descriptor{
			ID:     l.id(coord),
			URL:    strings.TrimSuffix(l.URL, "/") + "/" + coord.Path(),
			Path:   librariesDir + "/" + coord.Path(),
			Digest: l.SHA1,
			Size:   l.Size,
			Rules:  l.Rules,
			Kind:   kind,
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return []artifact.Descriptor{d}, nil
	}

	var out []artifact.Descriptor
	if a := l.Downloads.Artifact; a != nil {
		d, err := l.descriptor(coord, *a, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	if classifier, ok := l.nativeClassifier(env); ok {
		a, ok := l.Downloads.Classifiers[classifier]
		if !ok {
			return nil, errors.Wrapf(artifact.ErrMalformed, "library %s names native classifier %q but does not provide it", l.Name, classifier)
		}
		d, err := l.descriptor(coord.WithClassifier(classifier), a, artifact.KindNative)
		if err != nil {
			return nil, err
		}
		d.Extract = l.Extract
		out = append(out, d)
	}
	return out, nil
}

// id is the logical id of coord. Libraries with rules are qualified by them,
// so variants of one library for different platforms do not replace each
// other when definitions are folded.
func (l Library) id(coord Coordinate) string {
	if len(l.Rules) == 0 {
		return coord.Key()
	}
	return coord.Key() + "[" + artifact.Rules(l.Rules).String() + "]"
}

func (l Library) descriptor(coord Coordinate, a LibraryArtifact, kind artifact.Kind) (artifact.Descriptor, error) {
	p := a.Path
	if p == "" {
		p = coord.Path()
	}
	d := artifact.Descriptor{
		ID:     l.id(coord),
		URL:    a.URL,
		Path:   librariesDir + "/" + p,
		Digest: a.digest(),
		Size:   a.Size,
		Rules:  l.Rules,
		Kind:   kind,
	}
	return d, d.Validate()
}

// nativeClassifier picks the classifier for env, preferring the exact
// platform name (osx-arm64) over the bare OS name (osx).
func (l Library) nativeClassifier(env artifact.Environment) (string, bool) {
	if len(l.Natives) == 0 {
		return "", false
	}
	c, ok := l.Natives[env.Platform()]
	if !ok {
		c, ok = l.Natives[env.OS]
	}
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(c, "${arch}", env.Bits()), true
}
