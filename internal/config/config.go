// Package config provides configuration file parsing for pkgcheck.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the pkgcheck config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/pkgcheck if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "pkgcheck"), nil
}

// Config holds the defaults read from the config file. Zero values mean
// "not configured"; command-line flags always win.
type Config struct {
	// Repo is the default repository path to scan.
	Repo string
	// Upstream is the default upstream ref bounding the unpushed range.
	Upstream string
	// Checks is the default set of enabled check names (empty = all).
	Checks []string
}

// Load reads the config file at {dir}/config and returns the parsed config.
// If the file does not exist, an empty config is returned without an error.
// Invalid or malformed lines are silently skipped.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, "config")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue // no "=" or empty key, skip
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}

		switch key {
		case "repo":
			cfg.Repo = value
		case "upstream":
			cfg.Upstream = value
		case "checks":
			for _, name := range strings.Split(value, ",") {
				if name = strings.TrimSpace(name); name != "" {
					cfg.Checks = append(cfg.Checks, name)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
