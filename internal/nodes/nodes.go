// Package nodes models the node set this server maintains on the ISY: one
// controller node plus a today/tomorrow node pair per configured calendar.
//
// Node addresses are derived from the calendar's position in the configured
// list (today0/tmrow0, today1/tmrow1, ...). The position is the node's
// identity: moving a calendar to another slot means the nodes at that slot
// are removed and re-created, which breaks ISY programs referencing them.
package nodes

import (
	"context"
	"fmt"
	"time"
)

// Node definition IDs and the controller's fixed address, as installed in
// the node-server profile on the ISY.
const (
	ControllerAddr = "controller"
	ControllerDef  = "controller"
	DayNodeDef     = "daynode"
)

// Driver names and units of measure.
const (
	DriverStatus = "ST"  // holiday yes/no
	DriverMonth  = "GV0" // month of the node's date
	DriverDay    = "GV1" // day of month
	DriverYear   = "GV2" // year

	UOMBool  = 2
	UOMMonth = 47
	UOMDay   = 9
	UOMYear  = 77
)

// TodayAddr returns the address of the today node for calendar slot i.
func TodayAddr(i int) string { return fmt.Sprintf("today%d", i) }

// TomorrowAddr returns the address of the tomorrow node for calendar slot i.
func TomorrowAddr(i int) string { return fmt.Sprintf("tmrow%d", i) }

// Registrar is the ISY client surface the node model needs.
type Registrar interface {
	AddNode(ctx context.Context, addr, defID, primary, name string) error
	RemoveNode(ctx context.Context, addr string) error
	ReportStatus(ctx context.Context, addr, driver string, value, uom int) error
}

// DayNode represents one today-or-tomorrow node. Holiday hits are buffered
// with MarkHoliday and applied by Flush, so a day whose event disappeared
// falls back to 0 on the next cycle without extra bookkeeping.
type DayNode struct {
	Addr string
	Name string

	isy     Registrar
	date    time.Time
	hasDate bool
	holiday bool
}

// NewDayNode creates a day node bound to the given registrar.
func NewDayNode(isy Registrar, addr, name string) *DayNode {
	return &DayNode{Addr: addr, Name: name, isy: isy}
}

// SetDate reports the date drivers (month/day/year) when the date changed
// since the last report.
func (n *DayNode) SetDate(ctx context.Context, date time.Time) error {
	if n.hasDate && sameDay(n.date, date) {
		return nil
	}
	if err := n.isy.ReportStatus(ctx, n.Addr, DriverMonth, int(date.Month()), UOMMonth); err != nil {
		return err
	}
	if err := n.isy.ReportStatus(ctx, n.Addr, DriverDay, date.Day(), UOMDay); err != nil {
		return err
	}
	if err := n.isy.ReportStatus(ctx, n.Addr, DriverYear, date.Year(), UOMYear); err != nil {
		return err
	}
	n.date = date
	n.hasDate = true
	return nil
}

// MarkHoliday buffers a holiday hit for the next Flush.
func (n *DayNode) MarkHoliday() {
	n.holiday = true
}

// Flush reports the buffered holiday state and clears the buffer. It
// returns the state that was reported.
func (n *DayNode) Flush(ctx context.Context) (bool, error) {
	state := n.holiday
	n.holiday = false
	value := 0
	if state {
		value = 1
	}
	if err := n.isy.ReportStatus(ctx, n.Addr, DriverStatus, value, UOMBool); err != nil {
		return state, err
	}
	return state, nil
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
