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
	"strings"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/artifact"
)

// Coordinate is a parsed maven coordinate,
// group:artifact:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate parses a maven coordinate. The extension defaults to jar.
func ParseCoordinate(name string) (Coordinate, error) {
	c := Coordinate{Extension: "jar"}
	if base, ext, ok := strings.Cut(name, "@"); ok {
		name, c.Extension = base, ext
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, errors.Wrapf(artifact.ErrMalformed, "invalid maven coordinate %q", name)
	}
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, `/\`) || p == ".." {
			return Coordinate{}, errors.Wrapf(artifact.ErrMalformed, "invalid maven coordinate %q", name)
		}
	}
	c.Group, c.Artifact, c.Version = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// WithClassifier returns a copy of c using classifier.
func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

// Path returns the repository relative path of the file, e.g.
// org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.Extension
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version + "/" + file
}

// Key identifies the library independent of its version, so that a child
// definition can replace a parent's copy with a different version.
func (c Coordinate) Key() string {
	key := c.Group + ":" + c.Artifact
	if c.Classifier != "" {
		key += ":" + c.Classifier
	}
	return key
}

func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Extension != "jar" {
		s += "@" + c.Extension
	}
	return s
}
