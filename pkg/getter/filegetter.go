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
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileGetter reads file:// URLs from the local filesystem. It serves local
// mirrors and tests.
type FileGetter struct{}

// NewFileGetter returns a FileGetter.
func NewFileGetter() *FileGetter { return &FileGetter{} }

// Get opens the file named by href.
func (g *FileGetter) Get(ctx context.Context, href string, _ ...Option) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(href, err)
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", href)
	}
	if u.Scheme != "file" {
		return nil, errors.Errorf("file getter cannot fetch %q", href)
	}

	f, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: HTTPStatus, URL: href, StatusCode: http.StatusNotFound, Err: err}
		}
		return nil, &Error{Kind: Unreachable, URL: href, Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &Error{Kind: Unreachable, URL: href, Err: err}
	}
	return &Response{Body: f, Size: fi.Size()}, nil
}
