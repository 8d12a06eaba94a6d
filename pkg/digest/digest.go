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
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDigest is returned when a digest string cannot be parsed.
	ErrInvalidDigest = errors.New("invalid digest")
	// ErrDigestMismatch is returned when content does not hash to the expected digest.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrSizeMismatch is returned when content is not the expected length.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Digest is an algorithm paired with the lowercase hex encoding of a hash.
type Digest struct {
	Algorithm Algorithm
	Hex       string
}

// Parse parses s as "<algorithm>:<hex>" or as bare hex. For bare hex the
// algorithm is chosen from the decoded length.
func Parse(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Digest{}, errors.Wrap(ErrInvalidDigest, "empty digest")
	}

	if alg, value, ok := strings.Cut(s, ":"); ok {
		d := Digest{Algorithm: Algorithm(strings.ToLower(alg)), Hex: strings.ToLower(value)}
		if err := d.Validate(); err != nil {
			return Digest{}, err
		}
		return d, nil
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, errors.Wrapf(ErrInvalidDigest, "%q is not hex", s)
	}
	alg, ok := algorithmForSize(len(raw))
	if !ok {
		return Digest{}, errors.Wrapf(ErrInvalidDigest, "unexpected digest length %d", len(raw))
	}
	return Digest{Algorithm: alg, Hex: hex.EncodeToString(raw)}, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package level variables.
func MustParse(s string) Digest {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Validate checks that d names a supported algorithm and carries a hex
// value of the right length.
func (d Digest) Validate() error {
	if !d.Algorithm.Available() {
		return errors.Wrapf(ErrInvalidDigest, "unsupported algorithm %q", d.Algorithm)
	}
	if len(d.Hex) != d.Algorithm.Size()*2 {
		return errors.Wrapf(ErrInvalidDigest, "%s digest must be %d hex characters", d.Algorithm, d.Algorithm.Size()*2)
	}
	for _, c := range d.Hex {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return errors.Wrapf(ErrInvalidDigest, "%q is not lowercase hex", d.Hex)
		}
	}
	return nil
}

// IsZero reports whether d is the zero value.
func (d Digest) IsZero() bool { return d.Algorithm == "" && d.Hex == "" }

func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algorithm) + ":" + d.Hex
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string yields
// the zero Digest.
func (d *Digest) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Digest{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FromReader hashes everything read from r.
func FromReader(alg Algorithm, r io.Reader) (Digest, error) {
	if !alg.Available() {
		return Digest{}, errors.Wrapf(ErrInvalidDigest, "unsupported algorithm %q", alg)
	}
	h := alg.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	return Digest{Algorithm: alg, Hex: hex.EncodeToString(h.Sum(nil))}, nil
}

// FromBytes hashes b.
func FromBytes(alg Algorithm, b []byte) Digest {
	h := alg.New()
	h.Write(b)
	return Digest{Algorithm: alg, Hex: hex.EncodeToString(h.Sum(nil))}
}

// FromString hashes s.
func FromString(alg Algorithm, s string) Digest {
	return FromBytes(alg, []byte(s))
}
