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
	"fmt"

	"github.com/reginleif/reginleif/pkg/digest"
)

// OutcomeKind is how an artifact ended.
type OutcomeKind int

const (
	// OutcomeCacheHit means the store already held the content.
	OutcomeCacheHit OutcomeKind = iota
	// OutcomeFetched means the content was downloaded and verified.
	OutcomeFetched
	// OutcomeVerificationFailed means the source kept serving content with
	// the wrong digest or length.
	OutcomeVerificationFailed
	// OutcomeSourceUnavailable means the content could not be retrieved.
	OutcomeSourceUnavailable
	// OutcomeSkipped means the run was cancelled first.
	OutcomeSkipped
	// OutcomeStoreFailed means a local filesystem failure while storing or
	// placing the content.
	OutcomeStoreFailed
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeCacheHit:           "cache hit",
	OutcomeFetched:            "fetched",
	OutcomeVerificationFailed: "verification failed",
	OutcomeSourceUnavailable:  "source unavailable",
	OutcomeSkipped:            "skipped",
	OutcomeStoreFailed:        "store failed",
}

func (k OutcomeKind) String() string {
	if n, ok := outcomeNames[k]; ok {
		return n
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the result for one descriptor.
type Outcome struct {
	ID     string
	Kind   OutcomeKind
	Digest digest.Digest
	// Path is the absolute destination the artifact was placed at.
	Path string
	// Attempts counts fetch attempts. It is zero for cache hits.
	Attempts int
	// Err is the last error seen. It is nil for cache hits and fetches.
	Err error
}

// OK reports whether the artifact is in place.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeCacheHit || o.Kind == OutcomeFetched
}

// Event describes one state change. Observers receive events from several
// workers at once.
type Event struct {
	ID      string
	From    State
	To      State
	Attempt int
	Err     error
}

// Observer is called on every state change.
type Observer func(Event)
