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
Package resolver flattens a chain of inheriting version definitions into an
ordered, deduplicated list of artifact descriptors.

Definitions form a single-parent chain. The chain is walked from the
requested definition to its most distant ancestor with a visited set, so a
cycle is reported instead of followed. Entries are then folded ancestor
first into a table keyed by logical id: a descendant's entry replaces an
ancestor's entry with the same id, and everything else is inherited as is.
Only the folded table is filtered by environment, so an override that does
not apply removes the id instead of bringing back the ancestor's entry.
The output keeps the order in which ids were first seen during the fold.
*/
package resolver // import "github.com/reginleif/reginleif/pkg/resolver"

import (
	"context"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/manifest"
)

// Set holds the definitions a resolution may consult, keyed by id.
type Set map[string]*manifest.VersionDefinition

// Chain returns the inheritance chain of rootID, most distant ancestor first.
func Chain(defs Set, rootID string) ([]*manifest.VersionDefinition, error) {
	var (
		chain   []*manifest.VersionDefinition
		walked  []string
		visited = map[string]bool{}
	)
	for id := rootID; id != ""; {
		walked = append(walked, id)
		if visited[id] {
			return nil, &Error{Kind: CycleDetected, ID: id, Chain: walked}
		}
		visited[id] = true

		def, ok := defs[id]
		if !ok || def == nil {
			return nil, &Error{Kind: MissingParent, ID: id, Chain: walked}
		}
		chain = append(chain, def)
		id = def.InheritsFrom
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Load fetches the chain of rootID from src into a Set. A missing root is
// reported with the source's error; a missing ancestor is MissingParent.
func Load(ctx context.Context, src manifest.Source, rootID string) (Set, error) {
	defs := Set{}
	var walked []string
	for id := rootID; id != ""; {
		walked = append(walked, id)
		if _, ok := defs[id]; ok {
			return nil, &Error{Kind: CycleDetected, ID: id, Chain: walked}
		}

		def, err := src.Load(ctx, id)
		switch {
		case err == nil:
		case id != rootID && errors.Is(err, manifest.ErrNotFound):
			return nil, &Error{Kind: MissingParent, ID: id, Chain: walked, Err: err}
		default:
			return nil, errors.Wrapf(err, "loading %s", id)
		}
		defs[id] = def
		id = def.InheritsFrom
	}
	return defs, nil
}

// Resolve flattens the chain of rootID for env.
//
// The whole chain is folded by id first and the surviving entries are then
// filtered by env. If two applicable ids target the same destination path,
// the one written later in the fold wins. The result is a pure function of
// its inputs.
func Resolve(defs Set, rootID string, env artifact.Environment) ([]artifact.Descriptor, error) {
	chain, err := Chain(defs, rootID)
	if err != nil {
		return nil, err
	}

	type slot struct {
		desc artifact.Descriptor
		seq  int
	}
	var (
		order []string
		table = map[string]slot{}
		seq   int
	)
	for _, def := range chain {
		descs, err := def.Descriptors(env)
		if err != nil {
			return nil, &Error{Kind: MalformedEntry, ID: def.ID, Err: err}
		}
		for _, d := range descs {
			if _, ok := table[d.ID]; !ok {
				order = append(order, d.ID)
			}
			seq++
			table[d.ID] = slot{desc: d, seq: seq}
		}
	}

	var applicable []string
	owner := map[string]slot{}
	for _, id := range order {
		s := table[id]
		if !s.desc.Applies(env) {
			continue
		}
		applicable = append(applicable, id)
		if o, ok := owner[s.desc.Path]; !ok || s.seq > o.seq {
			owner[s.desc.Path] = s
		}
	}

	out := make([]artifact.Descriptor, 0, len(applicable))
	for _, id := range applicable {
		s := table[id]
		if owner[s.desc.Path].desc.ID != id {
			continue
		}
		out = append(out, s.desc)
	}
	return out, nil
}

// Merge folds the launch metadata of a chain, ancestor first: a field set
// by a descendant replaces the ancestor's value. The result carries the id
// of the last definition and no entries.
func Merge(chain []*manifest.VersionDefinition) *manifest.VersionDefinition {
	merged := &manifest.VersionDefinition{}
	for _, def := range chain {
		merged.ID = def.ID
		if def.MainClass != "" {
			merged.MainClass = def.MainClass
		}
		if def.Arguments != "" {
			merged.Arguments = def.Arguments
		}
		if def.Type != "" {
			merged.Type = def.Type
		}
		if def.ReleaseTime != "" {
			merged.ReleaseTime = def.ReleaseTime
		}
		if def.AssetIndex != nil {
			ai := *def.AssetIndex
			merged.AssetIndex = &ai
		}
	}
	return merged
}
