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
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	helloSHA1   = "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"
	helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Digest
		wantErr bool
	}{
		{name: "bare sha1", input: helloSHA1, want: Digest{SHA1, helloSHA1}},
		{name: "bare sha256", input: helloSHA256, want: Digest{SHA256, helloSHA256}},
		{name: "prefixed sha1", input: "sha1:" + helloSHA1, want: Digest{SHA1, helloSHA1}},
		{name: "prefixed sha256", input: "sha256:" + helloSHA256, want: Digest{SHA256, helloSHA256}},
		{name: "uppercase is normalized", input: strings.ToUpper(helloSHA1), want: Digest{SHA1, helloSHA1}},
		{name: "prefixed uppercase", input: "SHA256:" + strings.ToUpper(helloSHA256), want: Digest{SHA256, helloSHA256}},
		{name: "empty", input: "", wantErr: true},
		{name: "not hex", input: "zzzz", wantErr: true},
		{name: "odd length", input: "abc", wantErr: true},
		{name: "wrong length", input: "abcd", wantErr: true},
		{name: "unknown algorithm", input: "md5:" + helloSHA1, wantErr: true},
		{name: "length does not match algorithm", input: "sha256:" + helloSHA1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDigest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, "sha1:"+helloSHA1, FromString(SHA1, "hello").String())
	assert.Equal(t, "sha256:"+helloSHA256, FromBytes(SHA256, []byte("hello")).String())

	d, err := FromReader(SHA256, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, helloSHA256, d.Hex)

	_, err = FromReader("md5", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func TestTextRoundTrip(t *testing.T) {
	type doc struct {
		Digest Digest `json:"digest"`
	}

	var in doc
	require.NoError(t, json.Unmarshal([]byte(`{"digest":"`+helloSHA1+`"}`), &in))
	assert.Equal(t, Digest{SHA1, helloSHA1}, in.Digest)

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"digest":"sha1:`+helloSHA1+`"}`, string(out))

	var empty doc
	require.NoError(t, json.Unmarshal([]byte(`{"digest":""}`), &empty))
	assert.True(t, empty.Digest.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"digest":"nope"}`), &empty))
}

func TestVerifier(t *testing.T) {
	v, err := NewVerifier(MustParse(helloSHA256))
	require.NoError(t, err)

	_, _ = v.Write([]byte("hel"))
	assert.False(t, v.Verified())
	_, _ = v.Write([]byte("lo"))
	assert.True(t, v.Verified())
	assert.Equal(t, int64(5), v.Written())

	_, err = NewVerifier(Digest{})
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func readAll(t *testing.T, content string, expected Digest, size int64) ([]byte, error) {
	t.Helper()
	r, err := NewReader(strings.NewReader(content), expected, size)
	require.NoError(t, err)
	var out []byte
	buf := make([]byte, 2)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
	}
}

func TestReader(t *testing.T) {
	good := MustParse(helloSHA256)

	t.Run("matching content", func(t *testing.T) {
		out, err := readAll(t, "hello", good, 5)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(out))
	})

	t.Run("unknown size", func(t *testing.T) {
		_, err := readAll(t, "hello", good, 0)
		require.NoError(t, err)
	})

	t.Run("digest mismatch", func(t *testing.T) {
		_, err := readAll(t, "jello", good, 5)
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	t.Run("short content", func(t *testing.T) {
		_, err := readAll(t, "hell", good, 5)
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})

	t.Run("overrun is rejected before EOF", func(t *testing.T) {
		out, err := readAll(t, "hello world, this is far too long", good, 5)
		assert.ErrorIs(t, err, ErrSizeMismatch)
		assert.LessOrEqual(t, len(out), 5)
	})

	t.Run("errors are sticky", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("jello"), good, 0)
		require.NoError(t, err)
		_, err = io.ReadAll(r)
		require.ErrorIs(t, err, ErrDigestMismatch)
		_, err = r.Read(make([]byte, 1))
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})
}
