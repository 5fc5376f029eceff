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
	"fmt"
	"io"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/envlib"
	"github.com/thediveo/envlib/interpolate"
	"github.com/thediveo/envlib/session"
)

func printEntries(w io.Writer, env *envlib.Environment) {
	for _, entry := range env.Entries() {
		fmt.Fprintf(w, "%s=%s\n", entry.Name, entry.Value)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists all variables with their raw values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), env)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "shows all variables with their interpolated values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool(strictFlag)
			env, err := interpolated(cmd.Context(), cmd, strict, warnAndContinue)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), env)
			return nil
		},
	}
	showCmd.Flags().Bool(strictFlag, false,
		"fail on the first interpolation error instead of dropping variables")
	return showCmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "checks that all variables can be interpolated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bad := color.New(color.FgRed, color.Bold)
			var failures int
			env, err := interpolated(cmd.Context(), cmd, false,
				func(err *interpolate.Error) interpolate.Decision {
					failures++
					bad.Fprint(out, "✗ ")
					fmt.Fprintf(out, "%s: %s (%s)\n", err.Name, err.Reason, err.Kind)
					return interpolate.Continue
				})
			if err != nil {
				return err
			}
			if failures > 0 {
				return fmt.Errorf("%d interpolation error(s)", failures)
			}
			color.New(color.FgGreen).Fprint(out, "✓ ")
			fmt.Fprintf(out, "all %d variables interpolate\n", env.Len())
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "sets a variable in the environment file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, path, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			env, err = env.With(args[0], args[1])
			if err != nil {
				return err
			}
			if err := env.Save(path); err != nil {
				return err
			}
			log.Info(fmt.Sprintf("✏  set %s in %q", args[0], path))
			return nil
		},
	}
}

func newUnsetCmd() *cobra.Command {
	unsetCmd := &cobra.Command{
		Use:   "unset NAME",
		Short: "removes a variable from the environment file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, path, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			if err := env.Without(args[0]).Save(path); err != nil {
				return err
			}
			log.Info(fmt.Sprintf("🧽  unset %s in %q", args[0], path))
			to, _ := cmd.Flags().GetString(toFlag)
			if to == "" {
				return nil
			}
			exporter, err := exporterFor(cmd, to)
			if err != nil {
				return err
			}
			return exporter.Unexport(cmd.Context(), []string{args[0]})
		},
	}
	unsetCmd.Flags().String(toFlag, "",
		"also remove the variable from the session: \"sh\" or \"launchctl\"")
	return unsetCmd
}

func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "interpolates and exports all variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString(toFlag)
			exporter, err := exporterFor(cmd, to)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool(strictFlag)
			env, err := interpolated(cmd.Context(), cmd, strict, warnAndContinue)
			if err != nil {
				return err
			}
			if err := exporter.Export(cmd.Context(), env); err != nil {
				return err
			}
			log.Info(fmt.Sprintf("📤  exported %d variables", env.Len()))
			return nil
		},
	}
	exportCmd.Flags().String(toFlag, "sh",
		"where to export to: \"sh\" writes shell statements, \"launchctl\" sets the macOS user session")
	exportCmd.Flags().Bool(strictFlag, false,
		"fail on the first interpolation error instead of dropping variables")
	return exportCmd
}

// sessionExporter can both export and unexport variables.
type sessionExporter interface {
	session.Exporter
	session.Unexporter
}

func exporterFor(cmd *cobra.Command, to string) (sessionExporter, error) {
	switch to {
	case "sh":
		return &session.Script{W: cmd.OutOrStdout()}, nil
	case "launchctl":
		return &session.Launchctl{}, nil
	}
	return nil, fmt.Errorf("unknown export destination %q", to)
}
