// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/exportlib/pkg/config"
	"github.com/walteh/exportlib/pkg/export"
	"github.com/walteh/exportlib/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// rootOpts holds the flag values of the root command
type rootOpts struct {
	configFile  string
	filename    string
	source      string
	destination string
	debug       bool
}

// newRootCmd creates the root command. Without flags it exports the
// built-in artifact from the built-in directories.
func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "exportlib",
		Short: "Copy a built library from the target folder to the build output folder",
		Long: `exportlib copies one build artifact from the directory the build system
writes it to into the output directory used for distribution.

The output directory must already exist. An existing file with the same
name is replaced.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	addRootFlags(cmd, opts)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addRootFlags adds the export flags to the root command
func addRootFlags(cmd *cobra.Command, opts *rootOpts) {
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (.yaml, .yml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().StringVarP(&opts.filename, "filename", "f", config.DefaultFilename, "name of the artifact to export")
	cmd.Flags().StringVarP(&opts.source, "source", "s", config.DefaultSource, "directory the artifact is read from")
	cmd.Flags().StringVarP(&opts.destination, "destination", "o", config.DefaultDestination, "directory the artifact is written to")
}

// newLogger builds the zerolog logger for a run
func newLogger(cmd *cobra.Command, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()
}

// resolveConfig layers defaults, the config file and explicitly set flags
func resolveConfig(cmd *cobra.Command, opts *rootOpts) (*config.Config, error) {
	ctx := cmd.Context()

	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(ctx, opts.configFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("filename") {
		cfg.Filename = opts.filename
	}
	if flags.Changed("source") {
		cfg.Source = opts.source
	}
	if flags.Changed("destination") {
		cfg.Destination = opts.destination
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func runExport(cmd *cobra.Command, opts *rootOpts) error {
	zlog := newLogger(cmd, opts.debug)
	ctx := zlog.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	console := log.New(cmd.OutOrStdout(), zlog)
	ctx = log.NewContext(ctx, console)

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	console.Header("exporting " + cfg.String())

	res, err := export.ExportBuiltFile(ctx, cfg.Filename, cfg.Source, cfg.Destination)
	if err != nil {
		return errors.Errorf("exporting %s: %w", cfg.Filename, err)
	}

	log.FromContext(ctx).LogExport(ctx, res)
	if res.Status == export.StatusUnchanged {
		console.Infof("%s already matched the exported content", res.Destination)
	}
	console.Successf("exported %s", cfg.Filename)

	return nil
}
