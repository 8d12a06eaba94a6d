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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reginleif/reginleif/pkg/action"
	"github.com/reginleif/reginleif/pkg/cli/require"
)

const cacheDesc = `
This command consists of multiple subcommands to maintain the content store
artifacts are downloaded into.
`

const cachePruneDesc = `
Remove the temporary files left behind by interrupted downloads.

Nothing is removed while another reginleif process is using the store.
`

const cacheVerifyDesc = `
Re-hash every object in the content store and remove the ones whose content
no longer matches their digest. Removed objects are downloaded again by the
next install that needs them.
`

func newCacheCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "maintain the content store",
		Long:  cacheDesc,
		Args:  require.NoArgs,
	}
	cmd.AddCommand(
		newCachePruneCmd(cfg, out),
		newCacheVerifyCmd(cfg, out),
	)
	return cmd
}

func newCachePruneCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "remove leftovers of interrupted downloads",
		Long:  cachePruneDesc,
		Args:  require.NoArgs,
		RunE: withConfig(cfg, func(_ *cobra.Command, _ []string) error {
			n, err := action.NewPrune(cfg).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d temporary files from %s\n", n, cfg.Store.Root())
			return nil
		}),
	}
}

func newCacheVerifyCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "re-hash the content store and remove corrupt objects",
		Long:  cacheVerifyDesc,
		Args:  require.NoArgs,
		RunE: withConfig(cfg, func(cmd *cobra.Command, _ []string) error {
			client := action.NewVerify(cfg)
			client.DryRun = dryRun
			report, err := client.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range report.Corrupt {
				if dryRun {
					fmt.Fprintf(out, "corrupt: %s\n", d)
				} else {
					fmt.Fprintf(out, "removed: %s\n", d)
				}
			}
			fmt.Fprintf(out, "Checked %d objects (%d bytes), %d corrupt\n", report.Checked, report.Bytes, len(report.Corrupt))
			if len(report.Corrupt) > 0 && dryRun {
				return fmt.Errorf("%d corrupt objects in %s", len(report.Corrupt), cfg.Store.Root())
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report corrupt objects, do not remove them")
	return cmd
}
