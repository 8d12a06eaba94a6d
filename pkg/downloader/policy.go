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
	"math"
	"time"

	"github.com/pkg/errors"
)

// RetryPolicy controls how often an artifact is retried and how long to wait
// between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait after the first failed attempt.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
	// Multiplier grows the delay after every further failure.
	Multiplier float64
}

// Policy is the complete configuration of a run. It is passed by value and
// not read again once Run has started.
type Policy struct {
	// MaxConcurrency bounds the number of artifacts fetched at once.
	MaxConcurrency int
	Retry          RetryPolicy
	// AttemptTimeout bounds a single fetch attempt, including the time to
	// stream and verify the body.
	AttemptTimeout time.Duration
}

// DefaultPolicy returns the policy used when nothing else is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrency: 8,
		Retry: RetryPolicy{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		},
		AttemptTimeout: 5 * time.Minute,
	}
}

// Validate checks that p can drive a run.
func (p Policy) Validate() error {
	if p.MaxConcurrency < 1 {
		return errors.Errorf("max concurrency must be at least 1, got %d", p.MaxConcurrency)
	}
	if p.AttemptTimeout <= 0 {
		return errors.Errorf("attempt timeout must be positive, got %s", p.AttemptTimeout)
	}
	return p.Retry.Validate()
}

// Validate checks the retry settings.
func (r RetryPolicy) Validate() error {
	switch {
	case r.MaxAttempts < 1:
		return errors.Errorf("max attempts must be at least 1, got %d", r.MaxAttempts)
	case r.InitialDelay < 0:
		return errors.Errorf("initial delay must not be negative, got %s", r.InitialDelay)
	case r.MaxDelay < r.InitialDelay:
		return errors.Errorf("max delay %s is shorter than initial delay %s", r.MaxDelay, r.InitialDelay)
	case r.Multiplier < 1:
		return errors.Errorf("multiplier must be at least 1, got %g", r.Multiplier)
	}
	return nil
}

// Backoff returns how long to wait after the given failed attempt (counting
// from 1) before the next one: InitialDelay * Multiplier^(attempt-1), capped
// at MaxDelay.
func Backoff(attempt int, r RetryPolicy) time.Duration {
	if attempt < 1 || r.InitialDelay <= 0 {
		return 0
	}
	mult := r.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(r.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if r.MaxDelay > 0 && d > float64(r.MaxDelay) {
		return r.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
