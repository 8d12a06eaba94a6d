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

package artifact

import (
	"path"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/digest"
)

// ErrMalformed indicates a descriptor that cannot be fetched or placed.
var ErrMalformed = errors.New("malformed artifact")

// Kind classifies what an artifact is used for.
type Kind string

const (
	KindLibrary    Kind = "library"
	KindNative     Kind = "native"
	KindClient     Kind = "client"
	KindAsset      Kind = "asset"
	KindAssetIndex Kind = "asset-index"
	KindFile       Kind = "file"
)

// Valid reports whether k is a known kind. The empty kind is treated as KindFile.
func (k Kind) Valid() bool {
	switch k {
	case "", KindLibrary, KindNative, KindClient, KindAsset, KindAssetIndex, KindFile:
		return true
	}
	return false
}

// Extract lists the archive members to leave out when a native archive is
// unpacked.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Descriptor is one fetchable file. Descriptors are values; nothing in this
// module mutates one after it has been produced by a resolver.
type Descriptor struct {
	// ID is the logical identity used for overrides, e.g. a maven
	// coordinate without the version.
	ID string `json:"id"`
	// URL is the address the bytes are fetched from.
	URL string `json:"url"`
	// Path is the slash separated destination, relative to an instance root.
	Path string `json:"path"`
	// Digest is the expected content digest.
	Digest digest.Digest `json:"digest"`
	// Size is the expected length in bytes. Zero means unknown.
	Size int64 `json:"size,omitempty"`
	// Rules decide whether the descriptor applies to an environment.
	Rules []Rule `json:"rules,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
	// Extract is set for native archives that are unpacked after download.
	Extract *Extract `json:"extract,omitempty"`
}

// Applies reports whether d is required on env.
func (d Descriptor) Applies(env Environment) bool {
	return Rules(d.Rules).Applies(env)
}

// Validate checks that d can be fetched, verified and placed.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.Wrap(ErrMalformed, "missing id")
	}
	if !govalidator.IsRequestURL(d.URL) {
		return errors.Wrapf(ErrMalformed, "%s: invalid url %q", d.ID, d.URL)
	}
	if err := ValidatePath(d.Path); err != nil {
		return errors.Wrapf(err, "%s", d.ID)
	}
	if err := d.Digest.Validate(); err != nil {
		return errors.Wrapf(ErrMalformed, "%s: %v", d.ID, err)
	}
	if d.Size < 0 {
		return errors.Wrapf(ErrMalformed, "%s: negative size %d", d.ID, d.Size)
	}
	if !d.Kind.Valid() {
		return errors.Wrapf(ErrMalformed, "%s: unknown kind %q", d.ID, d.Kind)
	}
	for i := range d.Rules {
		if err := d.Rules[i].Validate(); err != nil {
			return errors.Wrapf(err, "%s: rule %d", d.ID, i)
		}
	}
	return nil
}

// ValidatePath rejects destination paths that could escape an instance root.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return errors.Wrap(ErrMalformed, "empty path")
	case strings.Contains(p, "\\"), strings.Contains(p, ":"):
		return errors.Wrapf(ErrMalformed, "path %q must be slash separated and relative", p)
	case path.IsAbs(p):
		return errors.Wrapf(ErrMalformed, "path %q is absolute", p)
	}
	for _, elem := range strings.Split(p, "/") {
		if elem == ".." {
			return errors.Wrapf(ErrMalformed, "path %q leaves the instance root", p)
		}
	}
	if clean := path.Clean(p); clean == "." {
		return errors.Wrapf(ErrMalformed, "path %q names no file", p)
	}
	return nil
}
