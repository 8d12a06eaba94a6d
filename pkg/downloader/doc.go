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

/*
Package downloader fetches artifacts into the content store and places them
at their destinations.

A Scheduler runs a fixed number of workers over a list of descriptors. Each
descriptor moves through its own sequence of states (see State), retrying
transport and verification failures with exponential backoff, and ends with
exactly one Outcome. A failing artifact never stops the others.
*/
package downloader // import "github.com/reginleif/reginleif/pkg/downloader"
