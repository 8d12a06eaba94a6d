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

// Package extract unpacks native library archives.
package extract // import "github.com/reginleif/reginleif/pkg/extract"

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/internal/fileutil"
)

// Filter decides which archive members are left out.
//
// A pattern ending in "/" excludes everything below that directory, as in
// the common "META-INF/". Any other pattern is a glob matched against the
// full member name, with "/" as separator.
type Filter struct {
	prefixes []string
	globs    []glob.Glob
}

// NewFilter compiles exclude patterns.
func NewFilter(exclude []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range exclude {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			f.prefixes = append(f.prefixes, p)
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "bad exclude pattern %q", p)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Excluded reports whether the member name is filtered out.
func (f *Filter) Excluded(name string) bool {
	if f == nil {
		return false
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(name, p) || name+"/" == p {
			return true
		}
	}
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Zip unpacks the zip archive at src into dir and returns the names of the
// files it wrote. Members cannot escape dir. Each file is written to a
// temporary name first, so an interrupted run leaves no truncated file
// behind.
func Zip(src, dir string, exclude []string) ([]string, error) {
	filter, err := NewFilter(exclude)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", src)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if name == "" || filter.Excluded(name) {
			continue
		}

		path, err := securejoin.SecureJoin(dir, name)
		if err != nil {
			return written, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(path, 0o755); err != nil {
				return written, err
			}
		case mode.IsRegular():
			if err := writeMember(f, path); err != nil {
				return written, errors.Wrapf(err, "extract %s", f.Name)
			}
			written = append(written, name)
		default:
			return written, fmt.Errorf("unsupported member type %s in %s", mode.Type(), f.Name)
		}
	}
	return written, nil
}

func writeMember(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	// Stop at the declared size so a lying header cannot fill the disk.
	r := io.LimitReader(rc, int64(f.UncompressedSize64))
	return fileutil.AtomicWriteFile(path, r, 0o755)
}
