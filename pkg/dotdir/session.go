package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zaguanai/zaguan-go/pkg/llm"
)

const (
	sessionFile = "session.json"
)

// Session is a saved chat conversation that "zaguan chat --resume" picks up
// again.
type Session struct {
	// Model the conversation was held with.
	Model string `json:"model"`

	// Messages is the conversation in chronological order, including any
	// system prompt.
	Messages []llm.Message `json:"messages"`
}

// LoadSession loads the session from a target .zaguan/session.json.
// Returns nil, nil if no session was saved.
func (m *Manager) LoadSession(overrideDir string) (*Session, error) {
	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	return session, nil
}

// SaveSession persists the session to a target .zaguan/session.json.
func (m *Manager) SaveSession(session *Session, overrideDir string) error {
	if session == nil {
		return errors.New("cannot save nil session")
	}

	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}

// ClearSession removes the saved session. Returns nil if there is none.
func (m *Manager) ClearSession(overrideDir string) error {
	path, err := m.Path(overrideDir, sessionFile)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing session: %w", err)
	}

	return nil
}
