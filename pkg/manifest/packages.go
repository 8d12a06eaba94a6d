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
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/getter"
)

// PackageInfo names a package in the package list and the digest of its
// details document.
type PackageInfo struct {
	Name   string        `json:"name"`
	UID    string        `json:"uid"`
	SHA256 digest.Digest `json:"sha256"`
}

// PackageList is the root of the package index.
type PackageList struct {
	FormatVersion int           `json:"formatVersion"`
	Packages      []PackageInfo `json:"packages"`
}

// Find returns the package with the given uid.
func (l *PackageList) Find(uid string) (PackageInfo, bool) {
	for _, p := range l.Packages {
		if p.UID == uid {
			return p, true
		}
	}
	return PackageInfo{}, false
}

// Dependency is a package a version requires or conflicts with.
type Dependency struct {
	UID      string `json:"uid"`
	Equals   string `json:"equals,omitempty"`
	Suggests string `json:"suggests,omitempty"`
}

// VersionInfo describes one version of a package.
type VersionInfo struct {
	Version     string        `json:"version"`
	Recommended bool          `json:"recommended"`
	ReleaseTime string        `json:"releaseTime"`
	SHA256      digest.Digest `json:"sha256"`
	Type        string        `json:"type,omitempty"`
	Requires    []Dependency  `json:"requires,omitempty"`
	Conflicts   []Dependency  `json:"conflicts,omitempty"`
	Volatile    bool          `json:"volatile,omitempty"`
}

// Released parses ReleaseTime. Unparsable times are the zero time.
func (v VersionInfo) Released() time.Time {
	t, err := time.Parse(time.RFC3339, v.ReleaseTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PackageDetails lists every version of one package.
type PackageDetails struct {
	FormatVersion int           `json:"formatVersion"`
	Name          string        `json:"name"`
	UID           string        `json:"uid"`
	Versions      []VersionInfo `json:"versions"`
}

// DefinitionID is the Source id of a version of this package.
func (p *PackageDetails) DefinitionID(v VersionInfo) string {
	return p.UID + "/" + v.Version
}

// Find returns the named version.
func (p *PackageDetails) Find(version string) (VersionInfo, bool) {
	for _, v := range p.Versions {
		if v.Version == version {
			return v, true
		}
	}
	return VersionInfo{}, false
}

// Sorted returns the versions newest first. Semantic versions are ordered
// by precedence; versions that do not parse follow them, newest release
// first.
func (p *PackageDetails) Sorted() []VersionInfo {
	type keyed struct {
		info VersionInfo
		sv   *semver.Version
	}
	ks := make([]keyed, len(p.Versions))
	for i, v := range p.Versions {
		ks[i].info = v
		if sv, err := semver.NewVersion(v.Version); err == nil {
			ks[i].sv = sv
		}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		switch {
		case a.sv != nil && b.sv != nil:
			if !a.sv.Equal(b.sv) {
				return a.sv.GreaterThan(b.sv)
			}
		case a.sv != nil:
			return true
		case b.sv != nil:
			return false
		}
		return a.info.Released().After(b.info.Released())
	})

	out := make([]VersionInfo, len(ks))
	for i, k := range ks {
		out[i] = k.info
	}
	return out
}

// Recommended returns the recommended versions, newest first.
func (p *PackageDetails) Recommended() []VersionInfo {
	var out []VersionInfo
	for _, v := range p.Sorted() {
		if v.Recommended {
			out = append(out, v)
		}
	}
	return out
}

// Latest returns the newest version of the given type, or of any type when
// typ is empty.
func (p *PackageDetails) Latest(typ string) (VersionInfo, bool) {
	for _, v := range p.Sorted() {
		if typ == "" || v.Type == typ {
			return v, true
		}
	}
	return VersionInfo{}, false
}

// Index reads a package index laid out as
//
//	<BaseURL>/index.json
//	<BaseURL>/<uid>/index.json
//	<BaseURL>/<uid>/<version>.json
//
// Package details are verified against the digest in the package list, and
// version definitions against the digest in the package details.
type Index struct {
	BaseURL string
	Getter  getter.Getter
}

// Packages fetches the package list.
func (i *Index) Packages(ctx context.Context) (*PackageList, error) {
	u, err := joinURL(i.BaseURL, "index.json")
	if err != nil {
		return nil, err
	}
	data, err := fetch(ctx, i.Getter, u, nil)
	if err != nil {
		return nil, err
	}
	var l PackageList
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrapf(ErrMalformedSource, "package list: %v", err)
	}
	return &l, nil
}

// Package fetches and verifies the details of p.
func (i *Index) Package(ctx context.Context, p PackageInfo) (*PackageDetails, error) {
	if err := validID(p.UID); err != nil {
		return nil, err
	}
	u, err := joinURL(i.BaseURL, p.UID+"/index.json")
	if err != nil {
		return nil, err
	}
	var expected *digest.Digest
	if !p.SHA256.IsZero() {
		expected = &p.SHA256
	}
	data, err := fetch(ctx, i.Getter, u, expected)
	if err != nil {
		return nil, err
	}
	var d PackageDetails
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(ErrMalformedSource, "package %s: %v", p.UID, err)
	}
	return &d, nil
}

// Definition fetches and verifies the definition of version v of pkg.
func (i *Index) Definition(ctx context.Context, pkg *PackageDetails, v VersionInfo) (*VersionDefinition, error) {
	id := pkg.DefinitionID(v)
	if err := validID(id); err != nil {
		return nil, err
	}
	u, err := joinURL(i.BaseURL, id+".json")
	if err != nil {
		return nil, err
	}
	var expected *digest.Digest
	if !v.SHA256.IsZero() {
		expected = &v.SHA256
	}
	data, err := fetch(ctx, i.Getter, u, expected)
	if getter.IsNotFound(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s at %s", id, u)
	}
	if err != nil {
		return nil, err
	}
	return decodeAs(id, data)
}
