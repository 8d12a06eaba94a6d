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
Package digest computes and verifies content digests over byte streams.

Two algorithms are supported, sha1 and sha256. A Digest is written in its
canonical form as "<algorithm>:<hex>". Manifests in the wild frequently carry
bare hex strings; Parse accepts those as well and picks the algorithm from the
decoded length.
*/
package digest // import "github.com/reginleif/reginleif/pkg/digest"
