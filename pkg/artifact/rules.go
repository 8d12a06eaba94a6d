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

package artifact

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Action is the outcome a matching rule selects.
type Action string

const (
	Allow    Action = "allow"
	Disallow Action = "disallow"
)

// OSRule narrows a rule to an operating system. Every non-empty field must
// match. Name may be a plain OS name (windows, linux, osx) or a platform
// name such as linux-arm64, which also pins the architecture.
type OSRule struct {
	Name string `json:"name,omitempty"`
	Arch string `json:"arch,omitempty"`
	// Version is a regular expression matched against Environment.Version.
	Version string `json:"version,omitempty"`
}

// UnmarshalJSON accepts both the object form {"name": "osx"} and a bare
// platform string such as "osx-arm64".
func (o *OSRule) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*o = OSRule{Name: name}
		return nil
	}
	type plain OSRule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = OSRule(p)
	return nil
}

func (o *OSRule) matches(env Environment) bool {
	if o.Name != "" {
		os, arch := SplitPlatform(o.Name)
		if os != env.OS {
			return false
		}
		if arch != "" && arch != env.Arch {
			return false
		}
	}
	if o.Arch != "" && NormalizeArch(o.Arch) != env.Arch {
		return false
	}
	if o.Version != "" {
		re, err := regexp.Compile(o.Version)
		if err != nil || !re.MatchString(env.Version) {
			return false
		}
	}
	return true
}

// Rule is one step of an applicability predicate.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Validate rejects unknown actions and bad version patterns.
func (r Rule) Validate() error {
	if r.Action != Allow && r.Action != Disallow {
		return errors.Wrapf(ErrMalformed, "unknown rule action %q", r.Action)
	}
	if r.OS != nil && r.OS.Version != "" {
		if _, err := regexp.Compile(r.OS.Version); err != nil {
			return errors.Wrapf(ErrMalformed, "bad os version pattern %q", r.OS.Version)
		}
	}
	return nil
}

// Matches reports whether every condition in r holds on env.
func (r Rule) Matches(env Environment) bool {
	if r.OS != nil && !r.OS.matches(env) {
		return false
	}
	for name, want := range r.Features {
		if env.Features[name] != want {
			return false
		}
	}
	return true
}

// Rules is an ordered applicability predicate.
type Rules []Rule

// Applies evaluates the rules against env.
func (rs Rules) Applies(env Environment) bool {
	if len(rs) == 0 {
		return true
	}
	allowed := false
	for _, r := range rs {
		if r.Matches(env) {
			allowed = r.Action == Allow
		}
	}
	return allowed
}

// String renders the rules in a compact canonical form such as
// "allow,disallow:osx". Equal predicates render equally.
func (rs Rules) String() string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		var b strings.Builder
		b.WriteString(string(r.Action))
		if r.OS != nil {
			b.WriteString(":" + r.OS.Name)
			if r.OS.Arch != "" {
				b.WriteString("/" + NormalizeArch(r.OS.Arch))
			}
			if r.OS.Version != "" {
				b.WriteString("~" + r.OS.Version)
			}
		}
		names := make([]string, 0, len(r.Features))
		for name := range r.Features {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if r.Features[name] {
				b.WriteString("+" + name)
			} else {
				b.WriteString("-" + name)
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ",")
}
