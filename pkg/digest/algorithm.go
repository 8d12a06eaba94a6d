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

package digest

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"hash"
)

// Algorithm identifies a digest algorithm.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// Canonical is the algorithm used when callers do not care which one is picked.
const Canonical = SHA256

// Available reports whether the algorithm is supported.
func (a Algorithm) Available() bool {
	switch a {
	case SHA1, SHA256:
		return true
	}
	return false
}

// Size returns the length in bytes of a digest computed with a.
// It returns 0 for unsupported algorithms.
func (a Algorithm) Size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	}
	return 0
}

// New returns a fresh hash.Hash for a. It panics on an unsupported
// algorithm; call Available first when the value comes from input.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New() //nolint:gosec
	case SHA256:
		return sha256.New()
	}
	panic("digest: unsupported algorithm " + string(a))
}

func (a Algorithm) String() string { return string(a) }

// algorithmForSize maps a decoded digest length back to its algorithm.
func algorithmForSize(n int) (Algorithm, bool) {
	switch n {
	case sha1.Size:
		return SHA1, true
	case sha256.Size:
		return SHA256, true
	}
	return "", false
}
