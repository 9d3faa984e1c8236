package nodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
)

// roster is the persisted record of what this server has installed on the
// ISY. Calendars holds the configured names in slot order; comparing it to
// the current configuration detects reordering across restarts.
type roster struct {
	Controller bool     `json:"controller"`
	Calendars  []string `json:"calendars"`
}

func loadRoster(path string) (*roster, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &roster{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	var r roster
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("json.Unmarshal roster: %w", err)
	}
	return &r, nil
}

func (r *roster) save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("json.Marshal roster: %w", err)
	}
	if err := renameio.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}
