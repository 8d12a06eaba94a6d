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

package launchpath

// This helper builds paths to reginleif's configuration, cache and data paths.
const lp = lazypath("reginleif")

// ConfigPath returns the path where reginleif stores configuration.
func ConfigPath(elem ...string) string { return lp.configPath(elem...) }

// CachePath returns the path where reginleif stores cached objects.
func CachePath(elem ...string) string { return lp.cachePath(elem...) }

// DataPath returns the path where reginleif stores data.
func DataPath(elem ...string) string { return lp.dataPath(elem...) }

// ObjectStore returns the root of the content-addressed object store.
func ObjectStore() string { return CachePath("objects") }

// ManifestCache returns the directory holding downloaded version definitions.
func ManifestCache() string { return CachePath("manifests") }

// Instances returns the default root under which artifacts are materialized.
func Instances() string { return DataPath("instances") }

// ConfigFile returns the path to the YAML configuration file.
func ConfigFile() string { return ConfigPath("config.yaml") }
