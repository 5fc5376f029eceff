// Copyright 2025 by Harald Albrecht
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime/debug"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/envlib"
	"github.com/thediveo/envlib/interpolate"
	"github.com/thediveo/envlib/shell"
	"golang.org/x/exp/slices"
)

const (
	fileFlag    = "file"
	debugFlag   = "debug"
	timeoutFlag = "timeout"
	strictFlag  = "strict"
	toFlag      = "to"
)

func buildInfo(info *debug.BuildInfo, key string) string {
	idx := slices.IndexFunc(info.Settings,
		func(setting debug.BuildSetting) bool {
			return setting.Key == key
		})
	if idx < 0 {
		return ""
	}
	return info.Settings[idx].Value
}

// buildVersion returns the (abbreviated) commit the binary was built from,
// otherwise the module version, if known.
func buildVersion(info *debug.BuildInfo) string {
	commit := buildInfo(info, "vcs.revision")
	if commit == "" {
		return info.Main.Version
	}
	modified := ""
	if buildInfo(info, "vcs.modified") == "true" {
		modified = " (modified)"
	}
	return fmt.Sprintf("commit %s%s", commit[:min(len(commit), 8)], modified)
}

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:           "envlib",
		Short:         "envlib manages a persistent user environment with interpolated variables",
		Version:       `":latest"`, // sorry :p
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if enabled, _ := cmd.Flags().GetBool(debugFlag); enabled {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringP(fileFlag, "f", "",
		"environment file (default $"+envlib.FileEnvVar+" or ~/.config/envlib/environment.yaml)")
	rootCmd.PersistentFlags().Bool(debugFlag, false,
		"enable debug logging")
	rootCmd.PersistentFlags().Duration(timeoutFlag, shell.DefaultTimeout,
		"timeout for each command substitution")

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newCheckCmd(),
		newSetCmd(),
		newUnsetCmd(),
		newExportCmd(),
	)

	if info, biok := debug.ReadBuildInfo(); biok {
		if version := buildVersion(info); version != "" {
			rootCmd.Version = version
		}
	}

	return rootCmd
}

// environmentFile returns the path of the environment file to work on.
func environmentFile(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString(fileFlag)
	if path == "" {
		return envlib.DefaultPath()
	}
	return homedir.Expand(path)
}

// loadEnvironment loads the environment file, returning an empty environment
// if there is no such file yet.
func loadEnvironment(cmd *cobra.Command) (*envlib.Environment, string, error) {
	path, err := environmentFile(cmd)
	if err != nil {
		return nil, "", err
	}
	env, err := envlib.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("no environment file %q yet", path)
			env, _ = envlib.FromEntries(nil)
			return env, path, nil
		}
		return nil, "", err
	}
	return env, path, nil
}

// interpolated loads and then interpolates the environment, either strictly
// or reporting (and dropping) the offending variables using onError.
func interpolated(
	ctx context.Context,
	cmd *cobra.Command,
	strict bool,
	onError interpolate.ErrorHandler,
) (*envlib.Environment, error) {
	env, _, err := loadEnvironment(cmd)
	if err != nil {
		return nil, err
	}
	timeout, _ := cmd.Flags().GetDuration(timeoutFlag)
	interpolator := interpolate.New(
		interpolate.WithRunner(shell.New(shell.WithTimeout(timeout))))
	if strict {
		return interpolator.Strict(ctx, env)
	}
	return interpolator.Reporting(ctx, env, onError)
}

// warnAndContinue logs interpolation errors as warnings and then drops the
// offending variables.
func warnAndContinue(err *interpolate.Error) interpolate.Decision {
	log.Warn(fmt.Sprintf("⚠  dropping %s: %s", err.Name, err.Reason))
	return interpolate.Continue
}
