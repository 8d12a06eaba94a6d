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
Package manifest loads version definitions and turns their entries into
artifact descriptors.

A version definition lists the files one game version needs and may name a
single parent it inherits from. Definitions are accepted in two shapes that
can be mixed in one document: generic entries that already carry a URL,
destination and digest, and launcher style libraries keyed by maven
coordinates, with optional per-platform native classifiers.
*/
package manifest // import "github.com/reginleif/reginleif/pkg/manifest"
