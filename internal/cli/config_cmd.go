// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoteltaskmanager/htm-installer/internal/config"
	"github.com/hoteltaskmanager/htm-installer/internal/i18n"
)

// newConfigCmd prints the effective settings, optionally persisting them as
// the per-user settings file.
func newConfigCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective installer settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.settings)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(data); err != nil {
				return err
			}
			if !write {
				return nil
			}
			path, err := config.WriteConfigFile(a.settings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.settings_written", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "also save the settings to the user settings file")
	return cmd
}
