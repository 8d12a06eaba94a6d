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
	"log"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reginleif/reginleif/internal/cli/output"
	"github.com/reginleif/reginleif/pkg/artifact"
)

const (
	outputFlag  = "output"
	noColorFlag = "no-color"
)

func bindOutputFlag(cmd *cobra.Command, varRef *output.Format) {
	cmd.Flags().VarP(newOutputValue(output.Table, varRef), outputFlag, "o",
		fmt.Sprintf("prints the output in the specified format. Allowed values: %s", strings.Join(output.Formats(), ", ")))

	err := cmd.RegisterFlagCompletionFunc(outputFlag, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var formatNames []string
		for format, desc := range output.FormatsWithDesc() {
			formatNames = append(formatNames, fmt.Sprintf("%s\t%s", format, desc))
		}

		// Sort the results to get a deterministic order for the tests
		sort.Strings(formatNames)
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})

	if err != nil {
		log.Fatal(err)
	}
}

func bindNoColorFlag(f *pflag.FlagSet, varRef *bool) {
	f.BoolVar(varRef, noColorFlag, false, "disable colored output")
}

type outputValue output.Format

func newOutputValue(defaultValue output.Format, p *output.Format) *outputValue {
	*p = defaultValue
	return (*outputValue)(p)
}

func (o *outputValue) String() string {
	return string(*o)
}

func (o *outputValue) Type() string {
	return "format"
}

func (o *outputValue) Set(s string) error {
	outfmt, err := output.ParseFormat(s)
	if err != nil {
		return err
	}
	*o = outputValue(outfmt)
	return nil
}

// environmentOptions describe the host artifacts are resolved for. Anything
// left unset is taken from the running host.
type environmentOptions struct {
	os        string
	arch      string
	osVersion string
	features  []string
}

func addEnvironmentFlags(f *pflag.FlagSet, o *environmentOptions) {
	f.StringVar(&o.os, "os", "", "resolve for this operating system instead of the host's (linux, osx, windows)")
	f.StringVar(&o.arch, "arch", "", "resolve for this architecture instead of the host's (x86, x86_64, arm32, arm64)")
	f.StringVar(&o.osVersion, "os-version", "", "resolve for this operating system version instead of the host's")
	f.StringSliceVar(&o.features, "feature", []string{}, "enable a launch feature, or disable it with name=false (can specify multiple)")
}

func (o *environmentOptions) environment(ctx context.Context) (artifact.Environment, error) {
	env := artifact.DetectEnvironment(ctx)
	if o.os != "" {
		env.OS = artifact.NormalizeOS(o.os)
		env.Version = ""
	}
	if o.arch != "" {
		env.Arch = artifact.NormalizeArch(o.arch)
	}
	if o.osVersion != "" {
		env.Version = o.osVersion
	}

	features := map[string]bool{}
	for _, f := range o.features {
		name, value, hasValue := strings.Cut(f, "=")
		if name == "" {
			return env, fmt.Errorf("invalid feature %q", f)
		}
		enabled := true
		if hasValue {
			switch strings.ToLower(value) {
			case "true", "1", "yes":
			case "false", "0", "no":
				enabled = false
			default:
				return env, fmt.Errorf("invalid value for feature %s: %q", name, value)
			}
		}
		features[name] = enabled
	}
	return env.WithFeatures(features), nil
}
