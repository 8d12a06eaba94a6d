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

import "fmt"

// State is a step in the life of one artifact within a run.
type State int

const (
	// Pending means waiting for a worker or for the next attempt.
	Pending State = iota
	// CacheCheck means looking the digest up in the store.
	CacheCheck
	// CacheHit means the store already held the content.
	CacheHit
	// Fetching means a request to the byte source is in progress.
	Fetching
	// StreamingVerify means the body is being hashed into the store.
	StreamingVerify
	// Committed means the content was verified and stored.
	Committed
	// Failed means the last attempt failed.
	Failed
	// Skipped means the run was cancelled before the artifact finished.
	Skipped
)

var stateNames = map[State]string{
	Pending:         "pending",
	CacheCheck:      "cache-check",
	CacheHit:        "cache-hit",
	Fetching:        "fetching",
	StreamingVerify: "streaming-verify",
	Committed:       "committed",
	Failed:          "failed",
	Skipped:         "skipped",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the legal successors of every state. A cached blob that
// turns out to be corrupt when it is materialized is fetched again, hence
// CacheHit -> Fetching.
var transitions = map[State][]State{
	Pending:         {CacheCheck, Skipped},
	CacheCheck:      {CacheHit, Fetching},
	CacheHit:        {Fetching},
	Fetching:        {StreamingVerify, Failed},
	StreamingVerify: {Committed, Failed},
	Failed:          {Pending, Skipped},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// strictTransitions makes mustTransition panic instead of reporting. Tests
// turn it on.
var strictTransitions = false

// mustTransition checks a step. Outside of tests an illegal step is returned
// as an error for the caller to log, since the artifact can still finish.
func mustTransition(from, to State) error {
	if CanTransition(from, to) {
		return nil
	}
	err := fmt.Errorf("illegal state transition %s -> %s", from, to)
	if strictTransitions {
		panic(err)
	}
	return err
}
