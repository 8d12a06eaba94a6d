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

package getter

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a byte source could not be opened or read.
type ErrorKind int

const (
	// Unreachable covers connection, DNS and local I/O failures.
	Unreachable ErrorKind = iota
	// HTTPStatus means the server answered with a non-success status.
	HTTPStatus
	// Timeout means the attempt ran out of time.
	Timeout
)

func (k ErrorKind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case HTTPStatus:
		return "http status"
	case Timeout:
		return "timeout"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by getters when a source cannot be read.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case HTTPStatus:
		return fmt.Sprintf("failed to fetch %s : %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	default:
		if e.Err == nil {
			return fmt.Sprintf("failed to fetch %s : %s", e.URL, e.Kind)
		}
		return fmt.Sprintf("failed to fetch %s : %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed. Client errors
// other than 408 and 429 are final.
func (e *Error) Retryable() bool {
	if e.Kind != HTTPStatus {
		return true
	}
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return false
	}
	return true
}

// IsNotFound reports whether err is a 404 from a getter.
func IsNotFound(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == HTTPStatus && gerr.StatusCode == http.StatusNotFound
}

// classify wraps a transport failure, separating timeouts from other errors.
func classify(href string, err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	kind := Unreachable
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		kind = Timeout
	}
	return &Error{Kind: kind, URL: href, Err: err}
}

// Classify converts err into a getter *Error. It is used by callers that
// read a Response body and need to tell timeouts from other failures.
func Classify(href string, err error) error {
	if err == nil {
		return nil
	}
	return classify(href, err)
}
