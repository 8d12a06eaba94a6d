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
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Operating system names as they appear in manifests.
const (
	OSWindows = "windows"
	OSLinux   = "linux"
	OSX       = "osx"
)

// Architecture names as they appear in manifests.
const (
	ArchX86    = "x86"
	ArchX86_64 = "x86_64"
	ArchARM32  = "arm32"
	ArchARM64  = "arm64"
)

// Environment describes the host that artifacts are being resolved for.
type Environment struct {
	OS       string          `json:"os"`
	Arch     string          `json:"arch"`
	Version  string          `json:"version,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// platforms maps launcher platform names to the (os, arch) pair they pin.
// An empty arch matches any architecture.
var platforms = map[string][2]string{
	"windows":       {OSWindows, ""},
	"windows-arm64": {OSWindows, ArchARM64},
	"linux":         {OSLinux, ""},
	"linux-arm32":   {OSLinux, ArchARM32},
	"linux-arm64":   {OSLinux, ArchARM64},
	"osx":           {OSX, ""},
	"osx-arm64":     {OSX, ArchARM64},
}

// SplitPlatform returns the OS and architecture named by a platform string.
// Unknown names are returned as the OS with no architecture.
func SplitPlatform(name string) (os, arch string) {
	if p, ok := platforms[name]; ok {
		return p[0], p[1]
	}
	return name, ""
}

// Platform returns the platform name used to key native classifiers.
// Architectures without a dedicated platform name fall back to the OS name.
func (e Environment) Platform() string {
	if e.Arch != "" {
		candidate := e.OS + "-" + e.Arch
		if _, ok := platforms[candidate]; ok {
			return candidate
		}
	}
	return e.OS
}

// Bits returns "64" or "32", the value substituted for ${arch} in native
// classifier names.
func (e Environment) Bits() string {
	switch e.Arch {
	case ArchX86, ArchARM32:
		return "32"
	}
	return "64"
}

// WithFeatures returns a copy of e with the given features set.
func (e Environment) WithFeatures(features map[string]bool) Environment {
	out := e
	out.Features = make(map[string]bool, len(e.Features)+len(features))
	for k, v := range e.Features {
		out.Features[k] = v
	}
	for k, v := range features {
		out.Features[k] = v
	}
	return out
}

// NormalizeOS maps Go and Java style OS names to manifest names.
func NormalizeOS(goos string) string {
	switch strings.ToLower(goos) {
	case "darwin", "macos", "mac os x", "osx":
		return OSX
	case "windows":
		return OSWindows
	}
	return strings.ToLower(goos)
}

// NormalizeArch maps Go and Java style architecture names to manifest names.
func NormalizeArch(goarch string) string {
	switch strings.ToLower(goarch) {
	case "amd64", "x86_64", "x64":
		return ArchX86_64
	case "386", "x86", "i386", "i686":
		return ArchX86
	case "arm64", "aarch64":
		return ArchARM64
	case "arm", "arm32":
		return ArchARM32
	}
	return strings.ToLower(goarch)
}

// DetectEnvironment describes the running host. The OS version is taken from
// the kernel on Linux and from the platform release elsewhere; it is left
// empty when the host cannot be queried.
func DetectEnvironment(ctx context.Context) Environment {
	env := Environment{
		OS:       NormalizeOS(runtime.GOOS),
		Arch:     NormalizeArch(runtime.GOARCH),
		Features: map[string]bool{},
	}
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return env
	}
	if env.OS == OSLinux {
		env.Version = info.KernelVersion
	} else {
		env.Version = info.PlatformVersion
	}
	return env
}
