// Copyright (c) 2025 Hotel Task Manager Team
// htm-installer - Hotel Task Manager environment installer
// This source code is licensed under the MIT license found in the LICENSE file.

//go:build !windows

package probe

func setSystemEnv(name, value string) error {
	return ErrRegistryUnsupported
}
