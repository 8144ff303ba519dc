package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// LoginPage is where failed auth checks and logouts send the user.
const LoginPage = "login"

const RoleAdmin = "ADMIN"

// ErrUnauthenticated means the session cannot enter the requested page.
var ErrUnauthenticated = errors.New("not authenticated")

// Navigator performs page changes for the session.
type Navigator interface {
	Redirect(page string)
}

// SessionState is everything the dashboard keeps between runs.
type SessionState struct {
	Token     string `json:"token,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Role      string `json:"role,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// Session persists SessionState in a user-only JSON file.
type Session struct {
	mu    sync.Mutex
	path  string
	state SessionState
	nav   Navigator
}

// OpenSession loads the session at path. A missing file is an empty
// session.
func OpenSession(path string, nav Navigator) (*Session, error) {
	s := &Session{path: path, nav: nav}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading session: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		// unreadable session is as good as none
		s.state = SessionState{}
	}
	return s, nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token implements TokenSource.
func (s *Session) Token() string {
	return s.State().Token
}

// Save replaces the stored state.
func (s *Session) Save(state SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	s.state = state
	return nil
}

// Clear drops every stored key.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = SessionState{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// CheckAuth gates a page that needs requiredRole. On failure the session
// is cleared and the navigator is sent to the login page.
func (s *Session) CheckAuth(requiredRole string) error {
	st := s.State()
	if st.Token != "" && st.Role == requiredRole {
		return nil
	}
	return s.leave(ErrUnauthenticated)
}

func (s *Session) Logout() error {
	return s.leave(nil)
}

func (s *Session) leave(reason error) error {
	clearErr := s.Clear()
	if s.nav != nil {
		s.nav.Redirect(LoginPage)
	}
	if reason != nil {
		return reason
	}
	return clearErr
}
