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

import (
	"context"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/resolver"
)

// Resolve is the action for listing the artifacts of a version without
// downloading anything.
//
// It provides the implementation of 'reginleif resolve'.
type Resolve struct {
	cfg *Configuration
}

// NewResolve creates a new Resolve object with the given configuration.
func NewResolve(cfg *Configuration) *Resolve {
	return &Resolve{cfg: cfg}
}

// Run resolves rootID for env.
func (r *Resolve) Run(ctx context.Context, rootID string, env artifact.Environment) ([]artifact.Descriptor, error) {
	defs, err := resolver.Load(ctx, r.cfg.Source, rootID)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(defs, rootID, env)
}
