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

package action

import (
	"context"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/store"
)

// Verify is the action for checking every blob in the content store.
//
// It provides the implementation of 'reginleif cache verify'.
type Verify struct {
	cfg *Configuration

	// DryRun reports corrupt blobs without removing them.
	DryRun bool
}

// NewVerify creates a new Verify object with the given configuration.
func NewVerify(cfg *Configuration) *Verify {
	return &Verify{cfg: cfg}
}

// VerifyReport lists what a Verify run found.
type VerifyReport struct {
	Checked int
	Bytes   int64
	Corrupt []digest.Digest
}

// Run re-hashes every stored blob. Corrupt blobs are removed unless DryRun
// is set, so the next install fetches them again.
func (v *Verify) Run(ctx context.Context) (*VerifyReport, error) {
	report := &VerifyReport{}
	log := v.cfg.log()

	var entries []store.Entry
	err := v.cfg.Store.Walk(func(e store.Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing content store")
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		report.Bytes += e.Size

		err := v.cfg.Store.Verify(e.Digest)
		switch {
		case err == nil:
			continue
		case errors.Is(err, digest.ErrDigestMismatch):
			report.Corrupt = append(report.Corrupt, e.Digest)
			log.WithField("digest", e.Digest.String()).Warn("corrupt blob")
			if v.DryRun {
				continue
			}
			if err := v.cfg.Store.Remove(e.Digest); err != nil {
				return report, err
			}
		case errors.Is(err, store.ErrNotPresent):
			// Removed while we were walking.
			report.Checked--
			report.Bytes -= e.Size
		default:
			return report, err
		}
	}
	return report, nil
}
