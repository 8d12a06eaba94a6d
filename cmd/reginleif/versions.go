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
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/reginleif/reginleif/internal/cli/output"
	"github.com/reginleif/reginleif/pkg/action"
	"github.com/reginleif/reginleif/pkg/cli/require"
	"github.com/reginleif/reginleif/pkg/manifest"
)

const versionsDesc = `
This command lists the versions of a package in the remote package index,
newest first.

    $ reginleif versions net.minecraft --recommended

Listing versions needs a manifest URL; a local manifest directory has no
package index.
`

type versionsOptions struct {
	outfmt          output.Format
	recommendedOnly bool
	typ             string
	max             int
}

func newVersionsCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	o := &versionsOptions{}

	cmd := &cobra.Command{
		Use:   "versions PACKAGE",
		Short: "list the versions of a package",
		Long:  versionsDesc,
		Args:  require.ExactArgs(1),
		RunE: withConfig(cfg, func(cmd *cobra.Command, args []string) error {
			client := action.NewVersions(cfg)
			client.RecommendedOnly = o.recommendedOnly
			client.Type = o.typ
			versions, err := client.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if o.max > 0 && len(versions) > o.max {
				versions = versions[:o.max]
			}
			return o.outfmt.Write(out, versionList(versions))
		}),
	}

	f := cmd.Flags()
	f.BoolVar(&o.recommendedOnly, "recommended", false, "only list recommended versions")
	f.StringVar(&o.typ, "type", "", "only list versions of this type, e.g. release or snapshot")
	f.IntVarP(&o.max, "max", "m", 0, "maximum number of versions to list (0 for all)")
	bindOutputFlag(cmd, &o.outfmt)

	return cmd
}

type versionList []manifest.VersionInfo

func (l versionList) WriteTable(out io.Writer) error {
	tbl := uitable.New()
	tbl.AddRow("VERSION", "TYPE", "RELEASED", "RECOMMENDED")
	for _, v := range l {
		tbl.AddRow(v.Version, v.Type, v.ReleaseTime, v.Recommended)
	}
	return output.EncodeTable(out, tbl)
}

func (l versionList) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, l)
}

func (l versionList) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, l)
}
