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

package manifest

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/digest"
)

// AssetObject is one entry of an asset index.
type AssetObject struct {
	Hash digest.Digest `json:"hash"`
	Size int64         `json:"size"`
}

// AssetIndex maps asset names to content hashes.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
	// Virtual and MapToResources are set by legacy indexes whose assets
	// are also expected under their names.
	Virtual        bool `json:"virtual,omitempty"`
	MapToResources bool `json:"map_to_resources,omitempty"`
}

// ParseAssetIndex decodes an asset index document.
func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrapf(ErrMalformedSource, "asset index: %v", err)
	}
	if idx.Objects == nil {
		return nil, errors.Wrap(ErrMalformedSource, "asset index has no objects")
	}
	return &idx, nil
}

// Descriptors expands the index into object descriptors fetched from
// baseURL. Objects are stored once per hash under assets/objects/<hh>/<hash>;
// legacy indexes also get a copy per name. The result is sorted so that
// expansion is deterministic.
func (idx *AssetIndex) Descriptors(indexID, baseURL string) ([]artifact.Descriptor, error) {
	names := make([]string, 0, len(idx.Objects))
	for name := range idx.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	base := strings.TrimSuffix(baseURL, "/")
	seen := map[string]bool{}
	var out []artifact.Descriptor
	for _, name := range names {
		obj := idx.Objects[name]
		if err := obj.Hash.Validate(); err != nil {
			return nil, errors.Wrapf(artifact.ErrMalformed, "asset %s: %v", name, err)
		}
		h := obj.Hash.Hex
		rel := h[:2] + "/" + h
		if !seen[h] {
			seen[h] = true
			out = append(out, artifact.Descriptor{
				ID:     "asset:" + h,
				URL:    base + "/" + rel,
				Path:   "assets/objects/" + rel,
				Digest: obj.Hash,
				Size:   obj.Size,
				Kind:   artifact.KindAsset,
			})
		}

		var legacy string
		switch {
		case idx.MapToResources:
			legacy = "resources/" + name
		case idx.Virtual:
			legacy = "assets/virtual/" + indexID + "/" + name
		default:
			continue
		}
		d := artifact.Descriptor{
			ID:     "asset-name:" + name,
			URL:    base + "/" + rel,
			Path:   legacy,
			Digest: obj.Hash,
			Size:   obj.Size,
			Kind:   artifact.KindAsset,
		}
		if err := artifact.ValidatePath(d.Path); err != nil {
			return nil, errors.Wrapf(err, "asset %s", name)
		}
		out = append(out, d)
	}
	return out, nil
}
