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

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/manifest"
)

// Versions is the action for listing the versions of a package.
//
// It provides the implementation of 'reginleif versions'.
type Versions struct {
	cfg *Configuration

	// RecommendedOnly limits the listing to recommended versions.
	RecommendedOnly bool
	// Type limits the listing to one release type, such as "release" or
	// "snapshot".
	Type string
}

// NewVersions creates a new Versions object with the given configuration.
func NewVersions(cfg *Configuration) *Versions {
	return &Versions{cfg: cfg}
}

// Run returns the versions of the package uid, newest first.
func (v *Versions) Run(ctx context.Context, uid string) ([]manifest.VersionInfo, error) {
	if v.cfg.Index == nil {
		return nil, errors.New("the configured manifest location has no package index")
	}
	list, err := v.cfg.Index.Packages(ctx)
	if err != nil {
		return nil, err
	}
	info, ok := list.Find(uid)
	if !ok {
		return nil, errors.Wrapf(manifest.ErrNotFound, "package %s", uid)
	}
	details, err := v.cfg.Index.Package(ctx, info)
	if err != nil {
		return nil, err
	}

	var out []manifest.VersionInfo
	for _, vi := range details.Sorted() {
		if v.RecommendedOnly && !vi.Recommended {
			continue
		}
		if v.Type != "" && vi.Type != v.Type {
			continue
		}
		out = append(out, vi)
	}
	return out, nil
}
