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
Package artifact describes single fetchable files and the predicates that
decide whether a file applies to a given host.

A Descriptor is the flattened, resolved form of a manifest entry: where to
fetch it from, what it must hash to, and where it lands relative to an
instance root. Rules follow the launcher convention: an empty list always
applies; otherwise evaluation starts disallowed and every matching rule
overwrites the decision with its own action.
*/
package artifact // import "github.com/reginleif/reginleif/pkg/artifact"
