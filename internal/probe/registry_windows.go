// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build windows

package probe

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const environmentKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

func setSystemEnv(name, value string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, environmentKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open HKLM\\%s: %w", environmentKey, err)
	}
	defer func() { _ = k.Close() }()

	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
