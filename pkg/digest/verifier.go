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
	"encoding/hex"
	"hash"
	"io"

	"github.com/pkg/errors"
)

// Verifier accumulates written bytes and compares them against an expected
// digest.
type Verifier struct {
	expected Digest
	h        hash.Hash
	n        int64
}

// NewVerifier returns a Verifier for d.
func NewVerifier(d Digest) (*Verifier, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{expected: d, h: d.Algorithm.New()}, nil
}

func (v *Verifier) Write(p []byte) (int, error) {
	n, err := v.h.Write(p)
	v.n += int64(n)
	return n, err
}

// Written returns the number of bytes hashed so far.
func (v *Verifier) Written() int64 { return v.n }

// Sum returns the digest of everything written so far.
func (v *Verifier) Sum() Digest {
	return Digest{Algorithm: v.expected.Algorithm, Hex: hex.EncodeToString(v.h.Sum(nil))}
}

// Verified reports whether the bytes written match the expected digest.
func (v *Verifier) Verified() bool {
	return v.Sum().Hex == v.expected.Hex
}

// Reader hashes bytes as they pass through it. Once the underlying reader is
// exhausted the digest and length are checked; a length overrun is reported
// as soon as it happens.
type Reader struct {
	r    io.Reader
	v    *Verifier
	size int64
	err  error
}

// NewReader wraps r so that reading it to EOF verifies the content against
// expected. A size greater than zero enables length checking. Reads return
// ErrSizeMismatch or ErrDigestMismatch in place of io.EOF on failure.
func NewReader(r io.Reader, expected Digest, size int64) (*Reader, error) {
	v, err := NewVerifier(expected)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, v: v, size: size}, nil
}

func (vr *Reader) Read(p []byte) (int, error) {
	if vr.err != nil {
		return 0, vr.err
	}
	if vr.size > 0 {
		// Read one byte past the expected size so an overrun surfaces
		// without waiting for EOF.
		if left := vr.size - vr.v.Written() + 1; int64(len(p)) > left {
			p = p[:left]
		}
	}

	n, err := vr.r.Read(p)
	if n > 0 {
		vr.v.Write(p[:n])
		if vr.size > 0 && vr.v.Written() > vr.size {
			vr.err = errors.Wrapf(ErrSizeMismatch, "read more than the expected %d bytes", vr.size)
			return 0, vr.err
		}
	}

	switch {
	case err == io.EOF:
		vr.err = vr.check()
		if vr.err == nil {
			vr.err = io.EOF
		}
		return n, vr.err
	case err != nil:
		vr.err = err
	}
	return n, err
}

func (vr *Reader) check() error {
	if vr.size > 0 && vr.v.Written() != vr.size {
		return errors.Wrapf(ErrSizeMismatch, "expected %d bytes, got %d", vr.size, vr.v.Written())
	}
	if !vr.v.Verified() {
		return errors.Wrapf(ErrDigestMismatch, "expected %s, got %s", vr.v.expected, vr.v.Sum())
	}
	return nil
}

// Written returns the number of bytes read so far.
func (vr *Reader) Written() int64 { return vr.v.Written() }

// Sum returns the digest of the bytes read so far.
func (vr *Reader) Sum() Digest { return vr.v.Sum() }
