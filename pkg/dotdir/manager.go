// Package dotdir manages the .zaguan/ and ~/.zaguan directories that hold the
// CLI's configuration, credentials and saved chat session.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".zaguan"

	// EnvHome names a directory used in place of ~/.zaguan.
	EnvHome = "ZAGUAN_HOME"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target resolves and creates the zaguan directory. The first match wins:
//  1. overrideDir
//  2. ./.zaguan/ when it already exists
//  3. $ZAGUAN_HOME
//  4. ~/.zaguan/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating zaguan directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// Path joins name onto the resolved zaguan directory.
func (m *Manager) Path(overrideDir, name string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, dirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return local, nil
		}
	}

	if env := os.Getenv(EnvHome); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}
