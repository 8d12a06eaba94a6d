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
Package store implements a content-addressed blob store keyed by digest.

Blobs live at <root>/<algorithm>/<hex[0:2]>/<hex[2:4]>/<hex>. A blob is
written to a temporary file in its final directory, named
<hex>.<random>.partial, and renamed into place only after its content has
been verified. Anything without the .partial suffix is therefore complete.

A store directory may be shared by several processes. Every open Store
holds a shared lock on <root>/.lock. Leftover temporary files are removed
only by a process that manages to take the lock exclusively, which means no
other process can be writing at that moment.
*/
package store // import "github.com/reginleif/reginleif/pkg/store"
