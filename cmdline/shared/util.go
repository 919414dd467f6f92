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

package shared

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sassoftware/apktrust/config"
	"github.com/sassoftware/apktrust/internal/logging"
)

// InitConfig loads the configuration named by --config, falling back to the
// default location and then to built-in defaults, and sets up logging.
func InitConfig() error {
	if CurrentConfig != nil {
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	CurrentConfig = cfg
	return nil
}

func loadConfig() (*config.Config, error) {
	if ArgConfig != "" {
		return config.ReadFile(ArgConfig)
	}
	path := config.DefaultConfig()
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.ReadFile(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// WriteMetrics dumps the default prometheus registry to path, if set
func WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
