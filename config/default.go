/*
 * Copyright (c) SAS Institute Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package config

import (
	"os"
	"path/filepath"
)

const (
	appName        = "apktrust"
	configFileName = "apktrust.yml"
)

// DefaultDir returns the per-user directory holding the configuration file,
// or "" if no suitable base directory is set in the environment. An absolute
// XDG_CONFIG_HOME wins, then the Windows profile, then ~/.config.
func DefaultDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(base) {
		return filepath.Join(base, appName)
	}
	if profile := os.Getenv("USERPROFILE"); profile != "" {
		return filepath.Join(profile, appName)
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", appName)
	}
	return ""
}

// DefaultConfig is the configuration file read when --config is not given
func DefaultConfig() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFileName)
}
