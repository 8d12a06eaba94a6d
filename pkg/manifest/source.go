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
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/reginleif/reginleif/internal/fileutil"
	"github.com/reginleif/reginleif/internal/logging"
	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/getter"
)

// ErrNotFound is returned by a Source that has no definition for an id.
var ErrNotFound = errors.New("version definition not found")

// maxDefinitionSize bounds how much of a remote definition is read.
const maxDefinitionSize = 32 << 20

// Source loads version definitions by id. Ids may contain slashes to group
// versions by package, e.g. "net.minecraft/1.20.1".
type Source interface {
	Load(ctx context.Context, id string) (*VersionDefinition, error)
}

func validID(id string) error {
	if id == "" || strings.HasPrefix(id, "/") || strings.Contains(id, "\\") {
		return errors.Wrapf(ErrNotFound, "invalid version id %q", id)
	}
	for _, elem := range strings.Split(id, "/") {
		if elem == "" || elem == "." || elem == ".." {
			return errors.Wrapf(ErrNotFound, "invalid version id %q", id)
		}
	}
	return nil
}

// DirSource reads definitions from a directory, either as <dir>/<id>.json
// or <dir>/<id>/<id>.json. YAML files with a .yaml extension are accepted
// as well.
type DirSource struct {
	Dir string
}

// Load implements Source.
func (s DirSource) Load(ctx context.Context, id string) (*VersionDefinition, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Base(filepath.FromSlash(id))
	candidates := []string{
		id + ".json",
		id + ".yaml",
		id + "/" + base + ".json",
		id + "/" + base + ".yaml",
	}
	for _, c := range candidates {
		p, err := securejoin.SecureJoin(s.Dir, filepath.FromSlash(c))
		if err != nil {
			return nil, errors.Wrapf(err, "resolving %s", c)
		}
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", p)
		}
		return decodeAs(id, data)
	}
	return nil, errors.Wrapf(ErrNotFound, "%s in %s", id, s.Dir)
}

// MemorySource serves definitions from a map. It backs bundled definitions
// and tests.
type MemorySource map[string]*VersionDefinition

// Load implements Source.
func (s MemorySource) Load(_ context.Context, id string) (*VersionDefinition, error) {
	d, ok := s[id]
	if !ok || d == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}
	return d, nil
}

// HTTPSource fetches <BaseURL>/<id>.json through a getter. When CacheDir is
// set every fetched definition is written there, and the cached copy is
// used if the server cannot be reached.
type HTTPSource struct {
	BaseURL  string
	Getter   getter.Getter
	CacheDir string
	Log      logrus.FieldLogger
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context, id string) (*VersionDefinition, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	u, err := joinURL(s.BaseURL, id+".json")
	if err != nil {
		return nil, err
	}

	data, err := fetch(ctx, s.Getter, u, nil)
	switch {
	case getter.IsNotFound(err):
		return nil, errors.Wrapf(ErrNotFound, "%s at %s", id, u)
	case err != nil:
		if cached, cerr := s.cached(id); cerr == nil {
			logging.OrDiscard(s.Log).WithError(err).WithField("id", id).Warn("using cached version definition")
			return decodeAs(id, cached)
		}
		return nil, err
	}

	def, err := decodeAs(id, data)
	if err != nil {
		return nil, err
	}
	if err := s.store(id, data); err != nil {
		logging.OrDiscard(s.Log).WithError(err).WithField("id", id).Debug("caching version definition failed")
	}
	return def, nil
}

func (s *HTTPSource) cachePath(id string) (string, error) {
	if s.CacheDir == "" {
		return "", errors.New("no cache directory")
	}
	return securejoin.SecureJoin(s.CacheDir, filepath.FromSlash(id+".json"))
}

func (s *HTTPSource) cached(id string) ([]byte, error) {
	p, err := s.cachePath(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *HTTPSource) store(id string, data []byte) error {
	p, err := s.cachePath(id)
	if err != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(p, bytes.NewReader(data), 0o644)
}

// decodeAs decodes data and checks that it describes id. The declared id
// may be the full id or its last path element.
func decodeAs(id string, data []byte) (*VersionDefinition, error) {
	def, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", id)
	}
	if def.ID != id && def.ID != filepath.Base(filepath.FromSlash(id)) {
		return nil, errors.Wrapf(ErrMalformedSource, "definition for %q declares id %q", id, def.ID)
	}
	return def, nil
}

// fetch reads a whole document through g, verifying it against expected
// when given.
func fetch(ctx context.Context, g getter.Getter, u string, expected *digest.Digest) ([]byte, error) {
	resp, err := g.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var r io.Reader = io.LimitReader(resp.Body, maxDefinitionSize)
	if expected != nil {
		vr, err := digest.NewReader(r, *expected, 0)
		if err != nil {
			return nil, err
		}
		r = vr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		if errors.Is(err, digest.ErrDigestMismatch) {
			return nil, errors.Wrapf(err, "verifying %s", u)
		}
		return nil, getter.Classify(u, err)
	}
	return data, nil
}

func joinURL(base, rel string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return "", errors.Wrapf(err, "invalid base url %q", base)
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return "", errors.Wrapf(err, "invalid path %q", rel)
	}
	return u.ResolveReference(ref).String(), nil
}
