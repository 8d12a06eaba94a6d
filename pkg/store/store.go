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

package store

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/reginleif/reginleif/internal/fileutil"
	"github.com/reginleif/reginleif/internal/logging"
	"github.com/reginleif/reginleif/pkg/digest"
)

const lockFile = ".lock"

// lockTimeout bounds how long Open waits for another process to finish
// cleaning the store.
var lockTimeout = 30 * time.Second

// Store is a content-addressed blob store. It is safe for concurrent use.
type Store struct {
	root string
	log  logrus.FieldLogger

	// mu is held shared by writers and exclusively by Clean, so that Clean
	// never removes this process's own in-flight temporary files.
	mu   sync.RWMutex
	lock *flock.Flock
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for housekeeping messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open opens or creates the store at root. If no other process has the
// store open, abandoned temporary files are deleted first.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &IOError{Op: "open", Path: root, Err: err}
	}
	s.lock = flock.New(filepath.Join(root, lockFile))

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, &IOError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	if locked {
		n, err := s.removePartials()
		if err != nil {
			s.log.WithError(err).Warn("could not remove all abandoned temporary files")
		}
		if n > 0 {
			s.log.WithField("count", n).Debug("removed abandoned temporary files")
		}
		if err := s.lock.Unlock(); err != nil {
			return nil, &IOError{Op: "unlock", Path: s.lock.Path(), Err: err}
		}
	} else {
		s.log.Debug("store is open in another process, skipping cleanup")
	}

	if err := s.shareLock(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) shareLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := s.lock.TryRLockContext(ctx, 50*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return &IOError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	if !locked {
		return &IOError{Op: "lock", Path: s.lock.Path(), Err: ErrBusy}
	}
	return nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Close releases the store lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Path returns where the blob for d is kept. The file exists only if d
// has been committed.
func (s *Store) Path(d digest.Digest) string {
	h := d.Hex
	if len(h) < 4 {
		return filepath.Join(s.root, string(d.Algorithm), h)
	}
	return filepath.Join(s.root, string(d.Algorithm), h[0:2], h[2:4], h)
}

// Has reports whether d has been committed.
func (s *Store) Has(d digest.Digest) bool {
	if d.Validate() != nil {
		return false
	}
	fi, err := os.Stat(s.Path(d))
	return err == nil && fi.Mode().IsRegular()
}

// sourceReader remembers errors raised while reading the source, so that
// they can be told apart from local write failures.
type sourceReader struct {
	r   io.Reader
	err error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}
	return n, err
}

// Commit streams src into the store under d. The content is verified while
// it is written; on a mismatch the temporary file is discarded and the store
// is unchanged. A size greater than zero is checked too, and a source that
// runs past it is abandoned immediately.
//
// Errors are digest.ErrDigestMismatch or digest.ErrSizeMismatch for bad
// content, the source's own error if reading it failed, or *IOError.
func (s *Store) Commit(d digest.Digest, size int64, src io.Reader) error {
	vr, err := digest.NewReader(src, d, size)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dest := s.Path(d)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &IOError{Op: "commit", Path: dest, Err: err}
	}

	sr := &sourceReader{r: vr}
	if err := fileutil.AtomicWriteFile(dest, sr, 0o644); err != nil {
		if sr.err != nil {
			return sr.err
		}
		return &IOError{Op: "commit", Path: dest, Err: err}
	}
	return nil
}

// Materialize copies the blob for d to dest. The copy is written to a
// temporary file next to dest and renamed into place. A dest that already
// holds the right content is left alone.
func (s *Store) Materialize(d digest.Digest, dest string) error {
	if !s.Has(d) {
		return errors.Wrapf(ErrNotPresent, "%s", d)
	}
	if ok, _ := fileMatches(dest, d); ok {
		return nil
	}

	blob := s.Path(d)
	f, err := os.Open(blob)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(ErrNotPresent, "%s", d)
		}
		return &IOError{Op: "materialize", Path: blob, Err: err}
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &IOError{Op: "materialize", Path: dest, Err: err}
	}

	vr, err := digest.NewReader(f, d, 0)
	if err != nil {
		return err
	}
	if err := fileutil.AtomicWriteFile(dest, vr, 0o644); err != nil {
		if errors.Is(err, digest.ErrDigestMismatch) {
			s.log.WithField("digest", d.String()).Warn("removing corrupt blob")
			os.Remove(blob)
			return errors.Wrapf(err, "stored blob for %s is corrupt", d)
		}
		return &IOError{Op: "materialize", Path: dest, Err: err}
	}
	return nil
}

// fileMatches reports whether the file at p hashes to d.
func fileMatches(p string, d digest.Digest) (bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()
	got, err := digest.FromReader(d.Algorithm, f)
	if err != nil {
		return false, err
	}
	return got == d, nil
}

// Verify re-hashes the stored blob for d.
func (s *Store) Verify(d digest.Digest) error {
	if !s.Has(d) {
		return errors.Wrapf(ErrNotPresent, "%s", d)
	}
	ok, err := fileMatches(s.Path(d), d)
	if err != nil {
		return &IOError{Op: "verify", Path: s.Path(d), Err: err}
	}
	if !ok {
		return errors.Wrapf(digest.ErrDigestMismatch, "stored blob for %s", d)
	}
	return nil
}

// Remove deletes the blob for d. Removing an absent blob is not an error.
func (s *Store) Remove(d digest.Digest) error {
	if d.Validate() != nil {
		return nil
	}
	if err := os.Remove(s.Path(d)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &IOError{Op: "remove", Path: s.Path(d), Err: err}
	}
	return nil
}

// Entry is a committed blob found by Walk.
type Entry struct {
	Digest digest.Digest
	Size   int64
}

// Walk calls fn for every committed blob. Temporary files and unrelated
// files are skipped. Returning an error from fn stops the walk.
func (s *Store) Walk(fn func(Entry) error) error {
	for _, alg := range []digest.Algorithm{digest.SHA1, digest.SHA256} {
		base := filepath.Join(s.root, string(alg))
		err := filepath.WalkDir(base, func(p string, de fs.DirEntry, err error) error {
			if err != nil {
				if p == base && errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if !de.Type().IsRegular() || fileutil.IsTemp(de.Name()) {
				return nil
			}
			d := digest.Digest{Algorithm: alg, Hex: de.Name()}
			if d.Validate() != nil || s.Path(d) != p {
				return nil
			}
			fi, err := de.Info()
			if err != nil {
				return err
			}
			return fn(Entry{Digest: d, Size: fi.Size()})
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Clean removes abandoned temporary files and returns how many were
// removed. It needs the store to itself: if another process has it open,
// Clean returns ErrBusy. Commits in this process wait for Clean to finish.
func (s *Store) Clean() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Unlock(); err != nil {
		return 0, &IOError{Op: "unlock", Path: s.lock.Path(), Err: err}
	}
	defer func() {
		if err := s.shareLock(); err != nil {
			s.log.WithError(err).Error("could not reacquire store lock")
		}
	}()

	locked, err := s.lock.TryLock()
	if err != nil {
		return 0, &IOError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	if !locked {
		return 0, ErrBusy
	}
	defer s.lock.Unlock()

	return s.removePartials()
}

func (s *Store) removePartials() (int, error) {
	var (
		removed int
		result  *multierror.Error
	)
	err := filepath.WalkDir(s.root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			result = multierror.Append(result, err)
			return nil
		}
		if de.IsDir() || !fileutil.IsTemp(de.Name()) {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result = multierror.Append(result, &IOError{Op: "clean", Path: p, Err: err})
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		result = multierror.Append(result, err)
	}
	return removed, result.ErrorOrNil()
}
