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

// Package action contains the logic for each action that reginleif can
// perform.
//
// This is a library for calling top-level reginleif actions like 'install'
// or 'cache verify'. It is used by the reginleif command line tool, and can
// be embedded by launchers that want the same behavior.
package action // import "github.com/reginleif/reginleif/pkg/action"

import (
	"net/url"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/reginleif/reginleif/internal/logging"
	"github.com/reginleif/reginleif/pkg/cli"
	"github.com/reginleif/reginleif/pkg/downloader"
	"github.com/reginleif/reginleif/pkg/getter"
	"github.com/reginleif/reginleif/pkg/manifest"
	"github.com/reginleif/reginleif/pkg/store"
)

// Configuration injects the dependencies that all actions share.
type Configuration struct {
	// Source loads version definitions.
	Source manifest.Source

	// Index lists the packages and versions a source offers. It is nil when
	// definitions come from a plain directory.
	Index *manifest.Index

	// Store holds verified content.
	Store *store.Store

	// Getters open byte sources by URL scheme.
	Getters getter.Providers

	// Root is the instance directory artifacts are materialized under.
	Root string

	// AssetURL is the base URL asset objects are fetched from.
	AssetURL string

	// Policy is the download policy new actions start from.
	Policy downloader.Policy

	Log logrus.FieldLogger
}

// Init fills cfg from settings and opens the content store. Close must be
// called when cfg is no longer needed.
func (cfg *Configuration) Init(settings *cli.EnvSettings, log logrus.FieldLogger) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	cfg.Log = logging.OrDiscard(log)
	cfg.Root = settings.Root
	cfg.AssetURL = settings.AssetURL

	cfg.Policy = downloader.DefaultPolicy()
	cfg.Policy.MaxConcurrency = settings.MaxConcurrency
	cfg.Policy.Retry.MaxAttempts = settings.MaxAttempts
	if settings.AttemptTimeout > 0 {
		cfg.Policy.AttemptTimeout = settings.AttemptTimeout
	}
	// The client timeout covers reading the body, so it must not cut an
	// attempt short.
	cfg.Getters = getter.All(settings, getter.WithTimeout(cfg.Policy.AttemptTimeout))

	if err := cfg.initSource(settings); err != nil {
		return err
	}

	st, err := store.Open(settings.Cache, store.WithLogger(cfg.Log))
	if err != nil {
		return errors.Wrap(err, "opening content store")
	}
	cfg.Store = st
	return nil
}

// initSource picks a definition source for the manifest location: a
// directory for plain paths, a remote index otherwise.
func (cfg *Configuration) initSource(settings *cli.EnvSettings) error {
	loc := settings.ManifestURL
	u, err := url.Parse(loc)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// A bare path, or a Windows drive letter.
		cfg.Source = manifest.DirSource{Dir: filepath.Clean(loc)}
		return nil
	}

	g, err := cfg.Getters.ByScheme(u.Scheme)
	if err != nil {
		return errors.Wrapf(err, "manifest url %s", loc)
	}
	cfg.Source = &manifest.HTTPSource{
		BaseURL:  loc,
		Getter:   g,
		CacheDir: settings.ManifestCache,
		Log:      cfg.Log,
	}
	cfg.Index = &manifest.Index{BaseURL: loc, Getter: g}
	return nil
}

// Close releases the content store.
func (cfg *Configuration) Close() error {
	if cfg.Store == nil {
		return nil
	}
	return cfg.Store.Close()
}

func (cfg *Configuration) log() logrus.FieldLogger {
	return logging.OrDiscard(cfg.Log)
}

func (cfg *Configuration) scheduler(observer downloader.Observer) *downloader.Scheduler {
	return &downloader.Scheduler{
		Store:    cfg.Store,
		Getters:  cfg.Getters,
		Root:     cfg.Root,
		Log:      cfg.log(),
		Observer: observer,
	}
}
