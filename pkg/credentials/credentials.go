// Package credentials stores Zaguan gateway API keys in credentials.toml.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zaguanai/zaguan-go/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// DefaultProfile is used when no profile is named.
	DefaultProfile = "default"

	// EnvAPIKey overrides any stored key.
	EnvAPIKey = "ZAGUAN_API_KEY"
)

// ErrNoAPIKey is returned by ResolveKey when neither the environment nor the
// credentials file provide a key.
var ErrNoAPIKey = errors.New("no API key configured")

// Manager manages reading and writing credentials.toml in the .zaguan/
// directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .zaguan/ directory; otherwise the standard dotdir resolution
// applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:  currentVersion,
				Profiles: make(map[string]ProfileCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Profiles == nil {
		creds.Profiles = make(map[string]ProfileCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores an API key for the given profile.
func (m *Manager) SetKey(profile, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Profiles[profileName(profile)] = ProfileCredential{APIKey: key}

	return m.Save(creds)
}

// GetKey returns the stored API key for the given profile.
// Returns an empty string if no key is stored.
func (m *Manager) GetKey(profile string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Profiles[profileName(profile)].APIKey, nil
}

// ResolveKey returns the key to use for profile: ZAGUAN_API_KEY when set,
// otherwise the stored key.
func (m *Manager) ResolveKey(profile string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, nil
	}

	key, err := m.GetKey(profile)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("%w: set %s or run \"zaguan auth\"", ErrNoAPIKey, EnvAPIKey)
	}
	return key, nil
}

// RemoveKey deletes the stored credential for a profile.
func (m *Manager) RemoveKey(profile string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Profiles, profileName(profile))

	return m.Save(creds)
}

// ListProfiles returns the names of profiles that have stored credentials.
func (m *Manager) ListProfiles() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	profiles := make([]string, 0, len(creds.Profiles))
	for name := range creds.Profiles {
		profiles = append(profiles, name)
	}

	sort.Strings(profiles)

	return profiles, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// MaskKey shortens a key for display, keeping its first and last four
// characters.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func profileName(profile string) string {
	if profile == "" {
		return DefaultProfile
	}
	return profile
}
