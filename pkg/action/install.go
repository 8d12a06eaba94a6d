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
	"fmt"
	"os"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/downloader"
	"github.com/reginleif/reginleif/pkg/extract"
	"github.com/reginleif/reginleif/pkg/manifest"
	"github.com/reginleif/reginleif/pkg/resolver"
)

// nativesDir is where native archives are unpacked, per version, below the
// instance root.
const nativesDir = "natives"

// Failure kinds that do not come from the scheduler.
const (
	FailureMalformedIndex = "malformed asset index"
	FailureExtract        = "extract failed"
)

// Install is the action for installing a version.
//
// It provides the implementation of 'reginleif install'.
type Install struct {
	cfg *Configuration

	// Policy controls concurrency and retries. It is copied when Run starts.
	Policy downloader.Policy
	// Environment selects the artifacts that apply. It is copied when Run
	// starts.
	Environment artifact.Environment
	// SkipAssets leaves out the objects listed by the asset index.
	SkipAssets bool
	// SkipNatives leaves native archives packed.
	SkipNatives bool
	// Observer, if set, is told about every artifact state change.
	Observer downloader.Observer
}

// NewInstall creates a new Install object with the given configuration.
func NewInstall(cfg *Configuration) *Install {
	return &Install{
		cfg:    cfg,
		Policy: cfg.Policy,
	}
}

// Failure is an artifact that did not end up in place.
type Failure struct {
	ID     string
	Kind   string
	Reason error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.ID, f.Kind, f.Reason)
}

// InstallReport summarizes an install. A report with failures still
// describes everything that succeeded; the caller decides whether the
// failures matter.
type InstallReport struct {
	// Version is the merged launch metadata of the installed chain.
	Version *manifest.VersionDefinition

	Total     int
	CacheHits int
	Fetched   int
	Skipped   int
	Failed    []Failure

	// Natives is the directory native archives were unpacked into, if any.
	Natives string

	Outcomes []downloader.Outcome
}

// OK reports whether every artifact is in place.
func (r *InstallReport) OK() bool {
	return len(r.Failed) == 0 && r.Skipped == 0
}

// Err returns the failures as one error, or nil.
func (r *InstallReport) Err() error {
	var result *multierror.Error
	for _, f := range r.Failed {
		result = multierror.Append(result, f)
	}
	return result.ErrorOrNil()
}

func (r *InstallReport) add(outcomes []downloader.Outcome) {
	r.Outcomes = append(r.Outcomes, outcomes...)
	for _, o := range outcomes {
		r.Total++
		switch o.Kind {
		case downloader.OutcomeCacheHit:
			r.CacheHits++
		case downloader.OutcomeFetched:
			r.Fetched++
		case downloader.OutcomeSkipped:
			r.Skipped++
		default:
			r.Failed = append(r.Failed, Failure{ID: o.ID, Kind: o.Kind.String(), Reason: o.Err})
		}
	}
}

func (r *InstallReport) fail(id, kind string, err error) {
	r.Failed = append(r.Failed, Failure{ID: id, Kind: kind, Reason: err})
}

// snapshot takes private copies of the policy and environment, so that
// changes made by the caller while Run is going have no effect.
func (i *Install) snapshot() (downloader.Policy, artifact.Environment, error) {
	env, err := copystructure.Copy(i.Environment)
	if err != nil {
		return downloader.Policy{}, artifact.Environment{}, errors.Wrap(err, "copying environment")
	}
	return i.Policy, env.(artifact.Environment), nil
}

// Run installs the version rootID and everything it inherits.
//
// Resolution problems are returned as an error and nothing is downloaded.
// Download problems are listed in the report.
func (i *Install) Run(ctx context.Context, rootID string) (*InstallReport, error) {
	policy, env, err := i.snapshot()
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	defs, err := resolver.Load(ctx, i.cfg.Source, rootID)
	if err != nil {
		return nil, err
	}
	descs, err := resolver.Resolve(defs, rootID, env)
	if err != nil {
		return nil, err
	}
	chain, err := resolver.Chain(defs, rootID)
	if err != nil {
		return nil, err
	}

	log := i.cfg.log().WithField("version", rootID)
	report := &InstallReport{Version: resolver.Merge(chain)}
	sched := i.cfg.scheduler(i.Observer)

	log.WithField("artifacts", len(descs)).Debug("downloading version artifacts")
	outcomes, err := sched.Run(ctx, descs, policy)
	if err != nil {
		return nil, err
	}
	report.add(outcomes)

	if !i.SkipAssets && report.Version.AssetIndex != nil && ctx.Err() == nil {
		if err := i.installAssets(ctx, sched, policy, report, outcomes); err != nil {
			return nil, err
		}
	}

	if !i.SkipNatives {
		i.extractNatives(rootID, descs, outcomes, report)
	}

	sort.Slice(report.Failed, func(a, b int) bool { return report.Failed[a].ID < report.Failed[b].ID })
	return report, nil
}

func (i *Install) installAssets(ctx context.Context, sched *downloader.Scheduler, policy downloader.Policy, report *InstallReport, outcomes []downloader.Outcome) error {
	var index *downloader.Outcome
	for n := range outcomes {
		if outcomes[n].ID == manifest.AssetIndexID {
			index = &outcomes[n]
			break
		}
	}
	if index == nil || !index.OK() {
		// Either filtered out or already reported as failed.
		return nil
	}

	data, err := os.ReadFile(index.Path)
	if err != nil {
		report.fail(index.ID, FailureMalformedIndex, err)
		return nil
	}
	idx, err := manifest.ParseAssetIndex(data)
	if err != nil {
		report.fail(index.ID, FailureMalformedIndex, err)
		return nil
	}
	descs, err := idx.Descriptors(report.Version.AssetIndex.ID, i.cfg.AssetURL)
	if err != nil {
		report.fail(index.ID, FailureMalformedIndex, err)
		return nil
	}

	i.cfg.log().WithField("assets", len(descs)).Debug("downloading asset objects")
	assets, err := sched.Run(ctx, descs, policy)
	if err != nil {
		return err
	}
	report.add(assets)
	return nil
}

func (i *Install) extractNatives(rootID string, descs []artifact.Descriptor, outcomes []downloader.Outcome, report *InstallReport) {
	dir, dirErr := securejoin.SecureJoin(i.cfg.Root, nativesDir+"/"+rootID)
	for n, d := range descs {
		if d.Kind != artifact.KindNative || !outcomes[n].OK() {
			continue
		}
		if dirErr != nil {
			report.fail(d.ID, FailureExtract, dirErr)
			continue
		}
		var exclude []string
		if d.Extract != nil {
			exclude = d.Extract.Exclude
		}
		files, err := extract.Zip(outcomes[n].Path, dir, exclude)
		if err != nil {
			report.fail(d.ID, FailureExtract, err)
			continue
		}
		report.Natives = dir
		i.cfg.log().WithField("artifact", d.ID).WithField("files", len(files)).Debug("unpacked natives")
	}
}
