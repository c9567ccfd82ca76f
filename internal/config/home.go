package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfig names an explicit configuration file.
	EnvConfig = "JANITOR_CONFIG"
	// EnvHome overrides the state directory.
	EnvHome = "JANITOR_HOME"
)

// ErrNoConfig is returned by Discover when no configuration file exists.
var ErrNoConfig = errors.New("no configuration file found")

// Home returns the janitor state directory, which holds the journal, the
// instance lock and relative log files.
// Priority order:
//  1. JANITOR_HOME environment variable (if set)
//  2. $XDG_STATE_HOME/janitor
//  3. ~/.local/state/janitor
//
// The directory is created if it doesn't exist
func Home() (string, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		if state := os.Getenv("XDG_STATE_HOME"); state != "" {
			home = filepath.Join(state, "janitor")
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("get home directory: %w", err)
			}
			home = filepath.Join(userHome, ".local", "state", "janitor")
		}
	}

	home = expandHome(home)
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create janitor home directory: %w", err)
	}
	return home, nil
}

// SearchPaths lists the locations Discover tries, in order.
func SearchPaths() []string {
	paths := []string{}
	if env := os.Getenv(EnvConfig); env != "" {
		paths = append(paths, expandHome(env))
	}
	paths = append(paths, "janitor.toml", "janitor.yaml")

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			configDir = filepath.Join(userHome, ".config")
		}
	}
	if configDir != "" {
		paths = append(paths,
			filepath.Join(configDir, "janitor", "config.toml"),
			filepath.Join(configDir, "janitor", "config.yaml"),
		)
	}
	return paths
}

// Discover returns explicit if set, otherwise the first existing file from
// SearchPaths.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		p := expandHome(explicit)
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return p, nil
	}

	searched := SearchPaths()
	for _, p := range searched {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config file %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNoConfig, strings.Join(searched, ", "))
}

// ExpandPath expands a leading ~ and makes p absolute against baseDir.
func ExpandPath(p, baseDir string) (string, error) {
	p = expandHome(strings.TrimSpace(p))
	if !filepath.IsAbs(p) {
		if baseDir == "" {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", p, err)
			}
			return abs, nil
		}
		p = filepath.Join(baseDir, p)
	}
	return filepath.Clean(p), nil
}

// expandHome replaces a leading "~" or "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(userHome, strings.TrimPrefix(p, "~"))
}
