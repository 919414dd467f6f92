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
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sassoftware/apktrust/lib/trust"
)

var Version = "unknown" // set this at link time

type TrustConfig struct {
	Fingerprint string // Hex digest of the signer certificate (required)
	Code        uint8  // Trust code reported on a match, 1-255 (required)
	Name        string // Human-readable origin name
}

type Config struct {
	// Digest used to fingerprint certificates: md5 (default) or sha256
	Algorithm string `yaml:"algorithm"`
	// Recognized origins. Replaces the built-in table when non-empty.
	Trust []*TrustConfig `yaml:"trust"`

	LogLevel string `yaml:"log_level"`
	// "" for console output on stderr, "-" for JSON on stderr, or a file path
	LogFile string `yaml:"log_file"`
	// Write prometheus metrics to this file after each run
	MetricsFile string `yaml:"metrics_file"`

	table *trust.Table
}

// ReadFile loads and validates a YAML configuration file
func ReadFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(blob)
}

// Parse loads and validates YAML configuration
func Parse(blob []byte) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(blob, config); err != nil {
		return nil, err
	}
	if err := config.Normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	config := new(Config)
	if err := config.Normalize(); err != nil {
		panic(err)
	}
	return config
}

// Normalize checks values and builds the trust table
func (config *Config) Normalize() error {
	alg, err := trust.ParseAlgorithm(config.Algorithm)
	if err != nil {
		return err
	}
	config.Algorithm = string(alg)
	if len(config.Trust) == 0 {
		if alg != trust.Default().Algorithm() {
			return fmt.Errorf("algorithm %s requires a trust table", alg)
		}
		config.table = trust.Default()
		return nil
	}
	entries := make([]trust.Entry, len(config.Trust))
	for i, tc := range config.Trust {
		if tc == nil {
			return errors.New("trust: empty entry")
		}
		entries[i] = trust.Entry{
			Fingerprint: tc.Fingerprint,
			Code:        trust.Code(tc.Code),
			Name:        tc.Name,
		}
	}
	table, err := trust.NewTable(alg, entries)
	if err != nil {
		return fmt.Errorf("trust: %w", err)
	}
	config.table = table
	return nil
}

// TrustTable returns the table built by Normalize
func (config *Config) TrustTable() *trust.Table {
	if config.table == nil {
		return trust.Default()
	}
	return config.table
}
