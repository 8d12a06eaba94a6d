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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/reginleif/reginleif/internal/cli/output"
	"github.com/reginleif/reginleif/pkg/action"
	"github.com/reginleif/reginleif/pkg/cli/require"
	"github.com/reginleif/reginleif/pkg/downloader"
)

const installDesc = `
This command installs a game version into the instance directory.

The version definition and everything it inherits from are loaded from the
manifest location, flattened for the target environment, and every artifact
is downloaded, verified against its digest, and placed under the instance
root. Content already in the object store is not downloaded again.

By default the target environment is the running host. Use '--os', '--arch'
and '--feature' to install for another one:

    $ reginleif install 1.20.1 --os windows --arch x86_64

A failed artifact does not stop the others. When anything failed or was
skipped the command lists it and exits with a non-zero status; running it
again picks up where it left off.
`

type installOptions struct {
	env          environmentOptions
	outfmt       output.Format
	noColor      bool
	skipAssets   bool
	skipNatives  bool
	showProgress bool
}

func newInstallCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	o := &installOptions{}

	cmd := &cobra.Command{
		Use:   "install VERSION",
		Short: "download and verify everything a version needs",
		Long:  installDesc,
		Args:  require.ExactArgs(1),
		RunE: withConfig(cfg, func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, cfg, out, args[0])
		}),
	}

	f := cmd.Flags()
	addEnvironmentFlags(f, &o.env)
	f.BoolVar(&o.skipAssets, "skip-assets", false, "do not download the objects of the asset index")
	f.BoolVar(&o.skipNatives, "skip-natives", false, "do not unpack native libraries")
	f.BoolVar(&o.showProgress, "progress", term.IsTerminal(int(os.Stderr.Fd())), "print a line per finished artifact")
	bindNoColorFlag(f, &o.noColor)
	bindOutputFlag(cmd, &o.outfmt)

	return cmd
}

func (o *installOptions) run(cmd *cobra.Command, cfg *action.Configuration, out io.Writer, version string) error {
	env, err := o.env.environment(cmd.Context())
	if err != nil {
		return err
	}

	client := action.NewInstall(cfg)
	client.Environment = env
	client.SkipAssets = o.skipAssets
	client.SkipNatives = o.skipNatives
	if o.showProgress {
		client.Observer = progressObserver(cmd.ErrOrStderr(), o.noColor)
	}

	// Cancel on SIGINT or SIGTERM. Downloads already running are finished,
	// the rest are reported as skipped.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	cSignal := make(chan os.Signal, 2)
	signal.Notify(cSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(cSignal)
	go func() {
		select {
		case <-cSignal:
			fmt.Fprintf(cmd.ErrOrStderr(), "Install of %s has been cancelled.\n", version)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.WithField("environment", env).Debug("installing " + version)
	report, err := client.Run(ctx, version)
	if err != nil {
		return err
	}
	if err := o.outfmt.Write(out, &installWriter{report: report, noColor: o.noColor}); err != nil {
		return err
	}

	switch {
	case len(report.Failed) > 0:
		return fmt.Errorf("%d of %d artifacts failed", len(report.Failed), report.Total)
	case report.Skipped > 0:
		return fmt.Errorf("%d of %d artifacts were skipped", report.Skipped, report.Total)
	}
	return nil
}

// progressObserver prints one line for every artifact that reaches the
// store or fails an attempt.
func progressObserver(w io.Writer, noColor bool) downloader.Observer {
	var mu sync.Mutex
	return func(e downloader.Event) {
		var line string
		switch e.To {
		case downloader.CacheHit:
			line = fmt.Sprintf("%s %s", output.ColorizeOutcome(downloader.OutcomeCacheHit, noColor), e.ID)
		case downloader.Committed:
			line = fmt.Sprintf("%s %s", output.ColorizeOutcome(downloader.OutcomeFetched, noColor), e.ID)
		case downloader.Failed:
			line = fmt.Sprintf("attempt %d for %s failed: %v", e.Attempt, output.ColorizeID(e.ID, noColor), e.Err)
		default:
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, line)
	}
}

type installWriter struct {
	report  *action.InstallReport
	noColor bool
}

type failureInfo struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

type installInfo struct {
	Version   string        `json:"version"`
	MainClass string        `json:"mainClass,omitempty"`
	Total     int           `json:"total"`
	CacheHits int           `json:"cacheHits"`
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Natives   string        `json:"natives,omitempty"`
	Failed    []failureInfo `json:"failed,omitempty"`
}

func (w *installWriter) info() installInfo {
	r := w.report
	info := installInfo{
		Total:     r.Total,
		CacheHits: r.CacheHits,
		Fetched:   r.Fetched,
		Skipped:   r.Skipped,
		Natives:   r.Natives,
	}
	if r.Version != nil {
		info.Version = r.Version.ID
		info.MainClass = r.Version.MainClass
	}
	for _, f := range r.Failed {
		fi := failureInfo{ID: f.ID, Kind: f.Kind}
		if f.Reason != nil {
			fi.Reason = f.Reason.Error()
		}
		info.Failed = append(info.Failed, fi)
	}
	return info
}

func (w *installWriter) WriteTable(out io.Writer) error {
	info := w.info()

	tbl := uitable.New()
	tbl.AddRow(output.ColorizeHeader("VERSION:", w.noColor), info.Version)
	if info.MainClass != "" {
		tbl.AddRow(output.ColorizeHeader("MAIN CLASS:", w.noColor), info.MainClass)
	}
	tbl.AddRow(output.ColorizeHeader("ARTIFACTS:", w.noColor), info.Total)
	tbl.AddRow(output.ColorizeHeader("CACHED:", w.noColor), info.CacheHits)
	tbl.AddRow(output.ColorizeHeader("FETCHED:", w.noColor), info.Fetched)
	tbl.AddRow(output.ColorizeHeader("SKIPPED:", w.noColor), info.Skipped)
	tbl.AddRow(output.ColorizeHeader("FAILED:", w.noColor), len(info.Failed))
	if info.Natives != "" {
		tbl.AddRow(output.ColorizeHeader("NATIVES:", w.noColor), info.Natives)
	}
	if err := output.EncodeTable(out, tbl); err != nil {
		return err
	}
	if len(info.Failed) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	failures := uitable.New()
	failures.MaxColWidth = 80
	failures.Wrap = true
	failures.AddRow(
		output.ColorizeHeader("ID", w.noColor),
		output.ColorizeHeader("KIND", w.noColor),
		output.ColorizeHeader("REASON", w.noColor),
	)
	for _, f := range info.Failed {
		failures.AddRow(f.ID, f.Kind, f.Reason)
	}
	return output.EncodeTable(out, failures)
}

func (w *installWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, w.info())
}

func (w *installWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, w.info())
}
