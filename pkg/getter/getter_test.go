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

package getter

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginleif/reginleif/pkg/cli"
)

func TestProvider(t *testing.T) {
	p := Provider{
		[]string{"one", "three"},
		func(_ ...Option) (Getter, error) { return nil, nil },
	}

	if !p.Provides("three") {
		t.Error("Expected provider to provide three")
	}
}

func TestProviders(t *testing.T) {
	ps := Providers{
		{[]string{"one", "three"}, func(_ ...Option) (Getter, error) { return nil, nil }},
		{[]string{"two", "four"}, func(_ ...Option) (Getter, error) { return nil, nil }},
	}

	if _, err := ps.ByScheme("one"); err != nil {
		t.Error(err)
	}
	if _, err := ps.ByScheme("four"); err != nil {
		t.Error(err)
	}

	if _, err := ps.ByScheme("five"); err == nil {
		t.Error("Did not expect handler for five")
	}
}

func TestAll(t *testing.T) {
	settings := cli.New()
	all := All(settings)
	require.Len(t, all, 2)

	for _, scheme := range []string{"http", "https", "file"} {
		_, err := all.ByScheme(scheme)
		assert.NoError(t, err, scheme)
	}
	_, err := all.ForURL("ftp://example.com/x")
	assert.Error(t, err)
}

func TestFileGetter(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(name, []byte("payload"), 0o644))

	g := NewFileGetter()
	resp, err := g.Get(context.Background(), "file://"+filepath.ToSlash(name))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int64(7), resp.Size)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	_, err = g.Get(context.Background(), "file://"+filepath.ToSlash(filepath.Join(dir, "missing")))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Get(ctx, "file://"+filepath.ToSlash(name))
	assert.Error(t, err)
}

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		err  *Error
		want bool
	}{
		{&Error{Kind: Unreachable}, true},
		{&Error{Kind: Timeout}, true},
		{&Error{Kind: HTTPStatus, StatusCode: http.StatusNotFound}, false},
		{&Error{Kind: HTTPStatus, StatusCode: http.StatusForbidden}, false},
		{&Error{Kind: HTTPStatus, StatusCode: http.StatusRequestTimeout}, true},
		{&Error{Kind: HTTPStatus, StatusCode: http.StatusTooManyRequests}, true},
		{&Error{Kind: HTTPStatus, StatusCode: http.StatusBadGateway}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Retryable(), tt.err.Error())
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("u", nil))

	var gerr *Error
	require.ErrorAs(t, Classify("u", context.DeadlineExceeded), &gerr)
	assert.Equal(t, Timeout, gerr.Kind)

	require.ErrorAs(t, Classify("u", io.ErrUnexpectedEOF), &gerr)
	assert.Equal(t, Unreachable, gerr.Kind)

	orig := &Error{Kind: HTTPStatus, StatusCode: 500}
	require.ErrorAs(t, Classify("u", orig), &gerr)
	assert.Same(t, orig, gerr)
}
