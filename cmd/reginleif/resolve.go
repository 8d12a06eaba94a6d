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
	"github.com/reginleif/reginleif/pkg/artifact"
	"github.com/reginleif/reginleif/pkg/cli/require"
)

const resolveDesc = `
This command prints the artifacts a version needs on the target environment,
in the order they would be downloaded. Nothing is downloaded.

Artifacts declared by a version replace the artifacts of the same id in the
versions it inherits from. Artifacts whose rules exclude the target
environment are left out.
`

type resolveOptions struct {
	env    environmentOptions
	outfmt output.Format
}

func newResolveCmd(cfg *action.Configuration, out io.Writer) *cobra.Command {
	o := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve VERSION",
		Short: "show the artifacts a version needs",
		Long:  resolveDesc,
		Args:  require.ExactArgs(1),
		RunE: withConfig(cfg, func(cmd *cobra.Command, args []string) error {
			env, err := o.env.environment(cmd.Context())
			if err != nil {
				return err
			}
			descs, err := action.NewResolve(cfg).Run(cmd.Context(), args[0], env)
			if err != nil {
				return err
			}
			return o.outfmt.Write(out, descriptorList(descs))
		}),
	}

	addEnvironmentFlags(cmd.Flags(), &o.env)
	bindOutputFlag(cmd, &o.outfmt)

	return cmd
}

type descriptorList []artifact.Descriptor

func (l descriptorList) WriteTable(out io.Writer) error {
	tbl := uitable.New()
	tbl.AddRow("ID", "KIND", "SIZE", "PATH")
	for _, d := range l {
		tbl.AddRow(d.ID, d.Kind, d.Size, d.Path)
	}
	return output.EncodeTable(out, tbl)
}

func (l descriptorList) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, l)
}

func (l descriptorList) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, l)
}
