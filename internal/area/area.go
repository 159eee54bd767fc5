// File: internal/area/area.go
package area

import (
	"fmt"
	"log/slog"
	"sync"
)

// Code names an application area; some operations are only valid inside a specific one
type Code string

const (
	Global Code = "global"
	Admin  Code = "adminhtml"
)

// State holds the area the current process runs in. The area can be set once;
// setting it again to the same code is a no-op.
type State struct {
	mu     sync.Mutex
	code   Code
	logger *slog.Logger
}

func NewState(logger *slog.Logger) *State {
	return &State{logger: logger.With("component", "area")}
}

func (s *State) SetAreaCode(code Code) error {
	if code == "" {
		return fmt.Errorf("area code cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.code == code {
		return nil
	}
	if s.code != "" {
		return fmt.Errorf("area code is already set to %q, cannot switch to %q", s.code, code)
	}

	s.code = code
	s.logger.Debug("Area code set", "area", code)
	return nil
}
