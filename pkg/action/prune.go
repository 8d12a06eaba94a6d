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

package action

// Prune is the action for removing abandoned temporary files from the
// content store.
//
// It provides the implementation of 'reginleif cache prune'.
type Prune struct {
	cfg *Configuration
}

// NewPrune creates a new Prune object with the given configuration.
func NewPrune(cfg *Configuration) *Prune {
	return &Prune{cfg: cfg}
}

// Run returns the number of files removed.
func (p *Prune) Run() (int, error) {
	return p.cfg.Store.Clean()
}
