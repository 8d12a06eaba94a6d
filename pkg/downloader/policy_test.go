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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	r := RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{60, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt, r), "attempt %d", tt.attempt)
	}
}

func TestBackoffConstant(t *testing.T) {
	r := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}
	assert.Equal(t, time.Second, Backoff(1, r))
	assert.Equal(t, time.Second, Backoff(9, r))

	assert.Zero(t, Backoff(3, RetryPolicy{}))
}

func TestBackoffIsPure(t *testing.T) {
	r := DefaultPolicy().Retry
	for i := 1; i < 10; i++ {
		assert.Equal(t, Backoff(i, r), Backoff(i, r))
	}
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(*Policy)
		want   string
	}{
		{"no workers", func(p *Policy) { p.MaxConcurrency = 0 }, "max concurrency"},
		{"no timeout", func(p *Policy) { p.AttemptTimeout = 0 }, "attempt timeout"},
		{"no attempts", func(p *Policy) { p.Retry.MaxAttempts = 0 }, "max attempts"},
		{"negative delay", func(p *Policy) { p.Retry.InitialDelay = -time.Second }, "initial delay"},
		{"max below initial", func(p *Policy) { p.Retry.MaxDelay = time.Millisecond }, "max delay"},
		{"shrinking", func(p *Policy) { p.Retry.Multiplier = 0.5 }, "multiplier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}
