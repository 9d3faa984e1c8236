package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/firstone/holidays-google-poly/internal/isy"
	xlog "github.com/firstone/holidays-google-poly/internal/log"
	"github.com/firstone/holidays-google-poly/internal/metrics"
)

// Pair is the today/tomorrow node pair for one configured calendar.
type Pair struct {
	Calendar string // configured calendar name
	Today    *DayNode
	Tomorrow *DayNode
}

// Manager reconciles the configured calendar list against the nodes
// installed on the ISY and owns the persisted roster.
type Manager struct {
	isy        Registrar
	rosterPath string
	roster     *roster
	pairs      []*Pair
}

// NewManager loads the roster from rosterPath (an absent file is an empty
// roster) and returns a manager bound to the registrar.
func NewManager(reg Registrar, rosterPath string) (*Manager, error) {
	r, err := loadRoster(rosterPath)
	if err != nil {
		return nil, err
	}
	return &Manager{isy: reg, rosterPath: rosterPath, roster: r}, nil
}

// EnsureController installs the controller node once and reports it online.
func (m *Manager) EnsureController(ctx context.Context, name string) error {
	if !m.roster.Controller {
		if err := m.isy.AddNode(ctx, ControllerAddr, ControllerDef, ControllerAddr, name); err != nil {
			return fmt.Errorf("adding controller node: %w", err)
		}
		m.roster.Controller = true
		if err := m.roster.save(m.rosterPath); err != nil {
			return err
		}
	}
	return m.isy.ReportStatus(ctx, ControllerAddr, DriverStatus, 1, UOMBool)
}

// Offline reports the controller node as stopped.
func (m *Manager) Offline(ctx context.Context) error {
	return m.isy.ReportStatus(ctx, ControllerAddr, DriverStatus, 0, UOMBool)
}

// Sync reconciles the node set with the configured calendar names. A slot
// whose name changed since the last run is regenerated: its nodes are
// removed and re-added, which resets their identity on the ISY. Slots past
// the end of the new list are removed.
func (m *Manager) Sync(ctx context.Context, calendars []string) error {
	logger := xlog.WithComponent("nodes")
	prev := m.roster.Calendars

	pairs := make([]*Pair, 0, len(calendars))
	for i, name := range calendars {
		todayAddr, tmrowAddr := TodayAddr(i), TomorrowAddr(i)

		switch {
		case i < len(prev) && prev[i] == name:
			// Slot unchanged, nodes already installed.
		case i < len(prev):
			logger.Warn().
				Str("event", "nodes.regenerated").
				Int("slot", i).
				Str("was", prev[i]).
				Str("now", name).
				Msg("calendar order changed; regenerating nodes breaks programs referencing them")
			metrics.IncNodeRegenerations()
			if err := m.removePair(ctx, todayAddr, tmrowAddr); err != nil {
				return err
			}
			if err := m.addPair(ctx, todayAddr, tmrowAddr, name); err != nil {
				return err
			}
		default:
			if err := m.addPair(ctx, todayAddr, tmrowAddr, name); err != nil {
				return err
			}
		}

		pairs = append(pairs, &Pair{
			Calendar: name,
			Today:    NewDayNode(m.isy, todayAddr, name+" Today"),
			Tomorrow: NewDayNode(m.isy, tmrowAddr, name+" Tomorrow"),
		})
	}

	for i := len(calendars); i < len(prev); i++ {
		if err := m.removePair(ctx, TodayAddr(i), TomorrowAddr(i)); err != nil {
			return err
		}
	}

	m.pairs = pairs
	m.roster.Calendars = append([]string(nil), calendars...)
	return m.roster.save(m.rosterPath)
}

// Pairs returns the node pairs from the last successful Sync, in slot order.
func (m *Manager) Pairs() []*Pair {
	return m.pairs
}

func (m *Manager) addPair(ctx context.Context, todayAddr, tmrowAddr, name string) error {
	if err := m.isy.AddNode(ctx, todayAddr, DayNodeDef, ControllerAddr, name+" Today"); err != nil {
		return fmt.Errorf("adding node %s: %w", todayAddr, err)
	}
	if err := m.isy.AddNode(ctx, tmrowAddr, DayNodeDef, ControllerAddr, name+" Tomorrow"); err != nil {
		return fmt.Errorf("adding node %s: %w", tmrowAddr, err)
	}
	return nil
}

func (m *Manager) removePair(ctx context.Context, todayAddr, tmrowAddr string) error {
	for _, addr := range []string{todayAddr, tmrowAddr} {
		if err := m.isy.RemoveNode(ctx, addr); err != nil && !errors.Is(err, isy.ErrNotFound) {
			return fmt.Errorf("removing node %s: %w", addr, err)
		}
	}
	return nil
}
