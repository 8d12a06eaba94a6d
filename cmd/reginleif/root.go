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
	"os"

	"github.com/spf13/cobra"

	"github.com/reginleif/reginleif/internal/logging"
	"github.com/reginleif/reginleif/pkg/action"
	"github.com/reginleif/reginleif/pkg/cli"
)

var globalUsage = `The game instance installer.

Common actions for reginleif:

- reginleif versions:      list the versions of a package
- reginleif resolve:       show the artifacts a version needs, without downloading
- reginleif install:       download and verify everything a version needs
- reginleif cache verify:  re-hash the content store and drop corrupt entries

Environment variables:

| Name                                 | Description                                                          |
|--------------------------------------|----------------------------------------------------------------------|
| $REGINLEIF_CACHE_HOME                | set an alternative location for storing cached files.                |
| $REGINLEIF_CONFIG_HOME               | set an alternative location for storing reginleif configuration.     |
| $REGINLEIF_DATA_HOME                 | set an alternative location for storing reginleif data.              |
| $REGINLEIF_CONFIG                    | set the path to the config file (YAML or TOML).                      |
| $REGINLEIF_DEBUG                     | indicate whether or not reginleif is running in Debug mode           |
| $REGINLEIF_CACHE                     | set the path to the content-addressed object store                   |
| $REGINLEIF_MANIFEST_CACHE            | set the path to the directory holding fetched version definitions    |
| $REGINLEIF_ROOT                      | set the instance directory artifacts are placed under                |
| $REGINLEIF_MANIFEST_URL              | set the base URL, or a local directory, of the version definitions   |
| $REGINLEIF_ASSET_URL                 | set the base URL asset objects are fetched from                      |
| $REGINLEIF_MAX_CONCURRENCY           | set the maximum number of parallel downloads                         |
| $REGINLEIF_MAX_ATTEMPTS              | set the number of download attempts per artifact                     |
| $REGINLEIF_ATTEMPT_TIMEOUT           | set the time limit for a single download attempt                     |
| $REGINLEIF_INSECURE_SKIP_TLS_VERIFY  | indicate if server certificate validation should be skipped          |

reginleif stores cache, configuration, and data based on the following configuration order:

- If a REGINLEIF_*_HOME environment variable is set, it will be used
- Otherwise, on systems supporting the XDG base directory specification, the XDG variables will be used
- When no other location is set a default location will be used based on the operating system

By default, the default directories depend on the Operating System. The defaults are listed below:

| Operating System | Cache Path                     | Configuration Path                  | Data Path                    |
|------------------|--------------------------------|-------------------------------------|------------------------------|
| Linux            | $HOME/.cache/reginleif         | $HOME/.config/reginleif             | $HOME/.local/share/reginleif |
| macOS            | $HOME/Library/Caches/reginleif | $HOME/Library/Preferences/reginleif | $HOME/Library/reginleif      |
| Windows          | %TEMP%\reginleif               | %APPDATA%\reginleif                 | %APPDATA%\reginleif          |
`

var settings = cli.New()
var logger = logging.NewLogger(os.Stderr, func() bool { return settings.Debug })

func newRootCmd(out io.Writer, args []string) *cobra.Command {
	cfg := new(action.Configuration)

	cmd := &cobra.Command{
		Use:          "reginleif",
		Short:        "Install game versions from their manifests.",
		Long:         globalUsage,
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	// We can safely ignore any errors that flags.Parse encounters since
	// those errors will be caught later during the call to cmd.Execution.
	// This call is required to gather configuration information prior to
	// execution.
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Parse(args)

	cmd.AddCommand(
		newInstallCmd(cfg, out),
		newResolveCmd(cfg, out),
		newVersionsCmd(cfg, out),
		newCacheCmd(cfg, out),

		newEnvCmd(out),
		newVersionCmd(out),
	)
	return cmd
}

// withConfig wraps run so that cfg is set up from the global settings
// before it runs and released afterwards.
func withConfig(cfg *action.Configuration, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := cfg.Init(settings, logger); err != nil {
			return err
		}
		defer func() {
			if err := cfg.Close(); err != nil {
				logger.WithError(err).Warn("closing content store")
			}
		}()
		return run(cmd, args)
	}
}
