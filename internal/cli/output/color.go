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

package output

import (
	"github.com/fatih/color"

	"github.com/reginleif/reginleif/pkg/downloader"
)

// ColorizeOutcome returns a colorized version of the outcome kind.
func ColorizeOutcome(kind downloader.OutcomeKind, noColor bool) string {
	if noColor {
		return kind.String()
	}

	switch kind {
	case downloader.OutcomeFetched:
		return color.GreenString(kind.String())
	case downloader.OutcomeVerificationFailed, downloader.OutcomeSourceUnavailable, downloader.OutcomeStoreFailed:
		return color.RedString(kind.String())
	case downloader.OutcomeSkipped:
		return color.YellowString(kind.String())
	default:
		// cache hits are the common case
		return kind.String()
	}
}

// ColorizeHeader returns a colorized version of a header string
func ColorizeHeader(header string, noColor bool) string {
	if noColor {
		return header
	}
	return color.New(color.Bold).Sprint(header)
}

// ColorizeID returns a colorized version of an artifact or version id.
func ColorizeID(id string, noColor bool) string {
	if noColor {
		return id
	}
	return color.CyanString(id)
}
