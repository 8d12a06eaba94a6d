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

package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/internal/third_party/dep/fs"
)

// TempSuffix marks files that are still being written. A file carrying this
// suffix is never a complete copy of anything.
const TempSuffix = ".partial"

// IsTemp reports whether name is an in-progress write created by CreateTemp.
func IsTemp(name string) bool {
	return strings.HasSuffix(name, TempSuffix)
}

// CreateTemp creates a new temporary file next to filename, so that a later
// rename stays on the same filesystem.
func CreateTemp(filename string) (*os.File, error) {
	dir, base := filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	return os.CreateTemp(dir, base+".*"+TempSuffix)
}

// AtomicWriteFile atomically (as atomic as os.Rename allows) writes a file to a
// disk.
//
// The content is streamed into a temporary file in the destination directory
// and renamed over filename only once reader is exhausted without error. On
// any failure the temporary file is removed and filename is left untouched.
func AtomicWriteFile(filename string, reader io.Reader, mode os.FileMode) (err error) {
	tempFile, err := CreateTemp(filename)
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer func() {
		if err != nil {
			os.Remove(tempName) // return value is ignored as we are already on error path
		}
	}()

	if _, err = io.Copy(tempFile, reader); err != nil {
		tempFile.Close()
		return err
	}

	if err = tempFile.Sync(); err != nil {
		tempFile.Close()
		return errors.Wrapf(err, "sync %s", tempName)
	}

	if err = tempFile.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tempName, mode); err != nil {
		return err
	}

	return fs.RenameWithFallback(tempName, filename)
}
