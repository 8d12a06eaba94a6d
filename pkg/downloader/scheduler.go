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

package downloader

import (
	"context"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reginleif/reginleif/internal/logging"
	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/digest"
	"github.com/reginleif/reginleif/pkg/getter"
	"github.com/reginleif/reginleif/pkg/store"
)

// Scheduler downloads artifacts into a Store and materializes them below
// Root.
type Scheduler struct {
	// Store holds verified content.
	Store *store.Store
	// Getters open byte sources by URL scheme.
	Getters getter.Providers
	// Root is the directory descriptor paths are relative to.
	Root string
	// Log receives one debug line per state change.
	Log logrus.FieldLogger
	// Observer, if set, is called on every state change.
	Observer Observer
}

// Run fetches every descriptor and returns one Outcome per descriptor, in
// input order. Run returns an error only for an unusable policy or
// scheduler; per-artifact failures are reported in the outcomes.
//
// Cancelling ctx stops handing out work. Descriptors no worker has picked
// up end as skipped. Attempts already in flight run to completion, bounded
// by the policy's attempt timeout, but are not retried.
func (s *Scheduler) Run(ctx context.Context, descs []artifact.Descriptor, p Policy) ([]Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid download policy")
	}
	if s.Store == nil {
		return nil, errors.New("scheduler has no store")
	}
	log := logging.OrDiscard(s.Log)

	outcomes := make([]Outcome, len(descs))
	dispatched := make([]bool, len(descs))

	workers := p.MaxConcurrency
	if workers > len(descs) {
		workers = len(descs)
	}

	work := make(chan int)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range work {
				outcomes[i] = s.fetch(ctx, log, descs[i], p)
			}
			return nil
		})
	}

dispatch:
	for i := range descs {
		if ctx.Err() != nil {
			break
		}
		select {
		case work <- i:
			dispatched[i] = true
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	_ = g.Wait()

	for i, d := range descs {
		if dispatched[i] {
			continue
		}
		s.emit(log, Event{ID: d.ID, From: Pending, To: Skipped})
		outcomes[i] = Outcome{ID: d.ID, Kind: OutcomeSkipped, Digest: d.Digest, Err: ctx.Err()}
	}
	return outcomes, nil
}

// task tracks one artifact through its states. It is owned by one worker.
type task struct {
	s       *Scheduler
	log     logrus.FieldLogger
	desc    artifact.Descriptor
	state   State
	attempt int
}

func (t *task) to(next State, err error) {
	if terr := mustTransition(t.state, next); terr != nil {
		t.log.WithError(terr).Error("unexpected state change")
	}
	t.s.emit(t.log, Event{ID: t.desc.ID, From: t.state, To: next, Attempt: t.attempt, Err: err})
	t.state = next
}

func (s *Scheduler) emit(log logrus.FieldLogger, e Event) {
	entry := log.WithFields(logrus.Fields{
		"artifact": e.ID,
		"from":     e.From.String(),
		"to":       e.To.String(),
	})
	if e.Attempt > 0 {
		entry = entry.WithField("attempt", e.Attempt)
	}
	if e.Err != nil {
		entry = entry.WithError(e.Err)
	}
	entry.Debug("state change")

	if s.Observer != nil {
		s.Observer(e)
	}
}

func (s *Scheduler) fetch(ctx context.Context, log logrus.FieldLogger, desc artifact.Descriptor, p Policy) Outcome {
	t := &task{s: s, log: log, desc: desc, state: Pending}
	out := Outcome{ID: desc.ID, Digest: desc.Digest}

	dest, err := securejoin.SecureJoin(s.Root, desc.Path)
	if err != nil {
		out.Kind, out.Err = OutcomeStoreFailed, errors.Wrapf(err, "destination for %s", desc.ID)
		return out
	}
	out.Path = dest

	t.to(CacheCheck, nil)
	if s.Store.Has(desc.Digest) {
		t.to(CacheHit, nil)
		err := s.Store.Materialize(desc.Digest, dest)
		if err == nil {
			out.Kind = OutcomeCacheHit
			return out
		}
		if !errors.Is(err, digest.ErrDigestMismatch) {
			out.Kind, out.Err = OutcomeStoreFailed, err
			return out
		}
		// The stored copy was corrupt and has been dropped; fetch it again.
		log.WithField("artifact", desc.ID).WithError(err).Warn("refetching corrupt cache entry")
	}

	for {
		t.attempt++
		out.Attempts = t.attempt
		t.to(Fetching, nil)

		err := s.attempt(ctx, t, p)
		if err == nil {
			t.to(Committed, nil)
			if err := s.Store.Materialize(desc.Digest, dest); err != nil {
				out.Kind, out.Err = OutcomeStoreFailed, err
				return out
			}
			out.Kind, out.Err = OutcomeFetched, nil
			return out
		}
		t.to(Failed, err)
		out.Kind, out.Err = failureKind(err), err

		if !retryable(err) || t.attempt >= p.Retry.MaxAttempts {
			return out
		}
		if !sleep(ctx, Backoff(t.attempt, p.Retry)) {
			t.to(Skipped, ctx.Err())
			out.Kind = OutcomeSkipped
			return out
		}
		t.to(Pending, nil)
		t.to(CacheCheck, nil)
		if s.Store.Has(desc.Digest) {
			// Another worker committed the same content meanwhile.
			t.to(CacheHit, nil)
			if err := s.Store.Materialize(desc.Digest, dest); err == nil {
				out.Kind, out.Err = OutcomeCacheHit, nil
				return out
			}
		}
	}
}

// attempt performs one fetch into the store. It runs on a context that is
// not cancelled with ctx, so the body is either fully verified or abandoned
// by the attempt timeout.
func (s *Scheduler) attempt(ctx context.Context, t *task, p Policy) error {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.AttemptTimeout)
	defer cancel()

	desc := t.desc
	g, err := s.Getters.ForURL(desc.URL)
	if err != nil {
		return &permanentError{err}
	}
	resp, err := g.Get(actx, desc.URL)
	if err != nil {
		return getter.Classify(desc.URL, err)
	}
	defer resp.Body.Close()

	if desc.Size > 0 && resp.Size >= 0 && resp.Size != desc.Size {
		return errors.Wrapf(digest.ErrSizeMismatch, "%s reports %d bytes, expected %d", desc.URL, resp.Size, desc.Size)
	}

	t.to(StreamingVerify, nil)
	err = s.Store.Commit(desc.Digest, desc.Size, resp.Body)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, digest.ErrDigestMismatch), errors.Is(err, digest.ErrSizeMismatch):
		return err
	case errors.Is(err, digest.ErrInvalidDigest):
		return &permanentError{err}
	}
	var ioErr *store.IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return getter.Classify(desc.URL, err)
}

// permanentError marks a failure that another attempt cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var gerr *getter.Error
	if errors.As(err, &gerr) {
		return gerr.Retryable()
	}
	return true
}

func failureKind(err error) OutcomeKind {
	var ioErr *store.IOError
	switch {
	case errors.Is(err, digest.ErrDigestMismatch), errors.Is(err, digest.ErrSizeMismatch):
		return OutcomeVerificationFailed
	case errors.As(err, &ioErr):
		return OutcomeStoreFailed
	}
	return OutcomeSourceUnavailable
}

// sleep waits for d and reports whether ctx was still live afterwards.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
