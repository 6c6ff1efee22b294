/*
	RuinVault
	Copyright (c) 2021 the RuinVault authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package rvcmd

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Config holds the CLI's persisted settings. Flags override these.
type Config struct {
	// ArchiveRoot is the default archive root directory, so -root does not
	// have to be repeated on every invocation.
	ArchiveRoot string `json:"archive_root,omitempty"`
}

// DefaultConfigFilePath returns the path of the config file.
func DefaultConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ruinvault", "config.json")
}

func loadConfigFile() (*Config, error) {
	if configFile == "" {
		return new(Config), nil
	}
	cfgBytes, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// a missing default config just means defaults
			return new(Config), nil
		}
		return nil, err
	}
	cfg := new(Config)
	err = json.Unmarshal(cfgBytes, cfg)
	return cfg, err
}

var configFile = DefaultConfigFilePath()
