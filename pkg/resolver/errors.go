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

package resolver

import (
	"fmt"
	"strings"
)

// ErrorKind classifies resolution failures.
type ErrorKind int

const (
	// CycleDetected means a definition inherits from itself, directly or
	// through its ancestors.
	CycleDetected ErrorKind = iota + 1
	// MissingParent means a definition in the chain could not be found.
	MissingParent
	// MalformedEntry means a definition holds an entry that cannot be
	// turned into a descriptor.
	MalformedEntry
)

func (k ErrorKind) String() string {
	switch k {
	case CycleDetected:
		return "cycle detected"
	case MissingParent:
		return "missing parent"
	case MalformedEntry:
		return "malformed entry"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by Resolve, Chain and Load. Resolution errors are
// fatal; no partial result accompanies them.
type Error struct {
	Kind ErrorKind
	// ID is the definition the failure was detected at.
	ID string
	// Chain is the walk up to the failure, root first.
	Chain []string
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.ID != "" {
		fmt.Fprintf(&sb, " at %q", e.ID)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(e.Chain, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so that errors.Is(err,
// ErrCycleDetected) works regardless of where the cycle was found.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.ID == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrCycleDetected  = &Error{Kind: CycleDetected}
	ErrMissingParent  = &Error{Kind: MissingParent}
	ErrMalformedEntry = &Error{Kind: MalformedEntry}
)
