// Package shiftclock derives the clock-in/out state for an employee's day
// and drives the start/end transitions against the backend. State never
// advances locally before the backend acknowledges the change.
package shiftclock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/upstream"
)

type Mode string

const (
	// ModeIn: a startable shift exists today, the employee may clock in.
	ModeIn Mode = "in"
	// ModeOut: a shift is in progress, the employee may clock out.
	ModeOut Mode = "out"
	// ModeUnavailable: nothing startable or in progress today.
	ModeUnavailable Mode = "unavailable"
)

var (
	ErrNoStartableShift = errors.New("no shift available to clock in today")
	ErrNoActiveShift    = errors.New("no active shift to clock out from")
	ErrNegativeDuration = errors.New("shift end time precedes its start time")
)

const (
	employeeShiftsPath = "/Employee/get-employee-shifts"
	shiftActionPath    = "/Shift/%d/%s"
	clockTimeLayout    = "15:04:05"

	// Abandoned clock-in records expire after a day; the jobs sweeper also
	// clears them out of the memory store.
	clockInRecordTTL = 24 * time.Hour
)

type Machine struct {
	shifts *upstream.Resource[models.Shift]
	client *upstream.Client
	state  clientstate.Store
	log    zerolog.Logger
	now    func() time.Time
}

func NewMachine(shifts *upstream.Resource[models.Shift], client *upstream.Client, state clientstate.Store, log zerolog.Logger) *Machine {
	return &Machine{
		shifts: shifts,
		client: client,
		state:  state,
		log:    log,
		now:    time.Now,
	}
}

// Snapshot is the clock widget's view of the day.
type Snapshot struct {
	Mode           Mode           `json:"mode"`
	TodayShifts    []models.Shift `json:"todayShifts"`
	Active         *models.Shift  `json:"active,omitempty"`
	Startable      *models.Shift  `json:"startable,omitempty"`
	StartedAt      *time.Time     `json:"startedAt,omitempty"`
	ElapsedSeconds int64          `json:"elapsedSeconds"`
}

// Snapshot fetches the employee's shifts and derives the current mode. Among
// today's records an in-progress shift wins over a startable one; remaining
// ties keep backend order, which is the acknowledged ambiguity when an
// employee has several shifts on one day.
func (m *Machine) Snapshot(ctx context.Context, employeeID int) (Snapshot, error) {
	key := fmt.Sprintf("employee:%d", employeeID)
	all, err := m.shifts.ListPath(ctx, key, employeeShiftsPath)
	if err != nil {
		return Snapshot{}, err
	}

	now := m.now()
	snap := Snapshot{Mode: ModeUnavailable}
	for i := range all {
		if onDay(all[i].DateOfShift, now) {
			snap.TodayShifts = append(snap.TodayShifts, all[i])
		}
	}
	for i := range snap.TodayShifts {
		shift := &snap.TodayShifts[i]
		if snap.Active == nil && shift.InProgress() {
			snap.Active = shift
		}
		if snap.Startable == nil && !shift.Started() {
			snap.Startable = shift
		}
	}

	switch {
	case snap.Active != nil:
		snap.Mode = ModeOut
	case snap.Startable != nil:
		snap.Mode = ModeIn
	}

	if snap.Mode == ModeOut {
		snap.StartedAt, snap.ElapsedSeconds = m.elapsed(ctx, employeeID, snap.Active, now)
	}
	return snap, nil
}

// ClockIn starts today's startable shift at the current wall-clock time.
func (m *Machine) ClockIn(ctx context.Context, employeeID int) (Snapshot, error) {
	snap, err := m.Snapshot(ctx, employeeID)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Mode != ModeIn || snap.Startable == nil {
		return snap, ErrNoStartableShift
	}

	now := m.now()
	query := url.Values{"startTime": {now.Format(clockTimeLayout)}}
	path := fmt.Sprintf(shiftActionPath, snap.Startable.ShiftID, "start")
	if err := m.client.Put(ctx, path, query, nil, nil); err != nil {
		return snap, err
	}

	if err := m.state.SetClockInStart(ctx, employeeID, now, clockInRecordTTL); err != nil {
		m.log.Warn().Err(err).Int("employee_id", employeeID).Msg("persist clock-in instant failed")
	}
	m.shifts.Invalidate()

	return m.Snapshot(ctx, employeeID)
}

// ClockOut ends the in-progress shift and returns the total hours the
// backend will derive, rounded to two decimals. A negative duration is
// rejected before any request is made.
func (m *Machine) ClockOut(ctx context.Context, employeeID int) (Snapshot, float64, error) {
	snap, err := m.Snapshot(ctx, employeeID)
	if err != nil {
		return Snapshot{}, 0, err
	}
	if snap.Mode != ModeOut || snap.Active == nil {
		return snap, 0, ErrNoActiveShift
	}

	now := m.now()
	endTime := now.Format(clockTimeLayout)

	var start string
	if snap.Active.StartTime != nil {
		start = *snap.Active.StartTime
	}
	total, err := TotalHours(start, endTime)
	if err != nil {
		return snap, 0, err
	}

	query := url.Values{"endTime": {endTime}}
	path := fmt.Sprintf(shiftActionPath, snap.Active.ShiftID, "end")
	if err := m.client.Put(ctx, path, query, nil, nil); err != nil {
		return snap, 0, err
	}

	if err := m.state.ClearClockInStart(ctx, employeeID); err != nil {
		m.log.Warn().Err(err).Int("employee_id", employeeID).Msg("clear clock-in instant failed")
	}
	m.shifts.Invalidate()

	after, err := m.Snapshot(ctx, employeeID)
	if err != nil {
		return Snapshot{}, total, err
	}
	return after, total, nil
}

// TotalHours computes (end - start) in hours from "HH:MM:SS" strings,
// rounded to two decimals. Negative durations are an error, never clamped.
func TotalHours(start, end string) (float64, error) {
	startMin, err := clockMinutes(start)
	if err != nil {
		return 0, fmt.Errorf("parse start time %q: %w", start, err)
	}
	endMin, err := clockMinutes(end)
	if err != nil {
		return 0, fmt.Errorf("parse end time %q: %w", end, err)
	}

	diff := endMin - startMin
	if diff < 0 {
		return 0, ErrNegativeDuration
	}
	return math.Round(diff/60*100) / 100, nil
}

func (m *Machine) elapsed(ctx context.Context, employeeID int, active *models.Shift, now time.Time) (*time.Time, int64) {
	if start, err := m.state.ClockInStart(ctx, employeeID); err == nil {
		elapsed := int64(now.Sub(start).Seconds())
		if elapsed >= 0 {
			return &start, elapsed
		}
	}

	// Persisted instant gone (state store wiped); reconstruct it from the
	// shift's recorded start time on today's date.
	if active == nil || active.StartTime == nil {
		return nil, 0
	}
	parsed, err := time.ParseInLocation(clockTimeLayout, *active.StartTime, now.Location())
	if err != nil {
		return nil, 0
	}
	start := time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, now.Location())
	if start.After(now) {
		return nil, 0
	}
	return &start, int64(now.Sub(start).Seconds())
}

// clockMinutes converts "HH:MM:SS" (seconds optional) to minutes.
func clockMinutes(value string) (float64, error) {
	var h, min, sec int
	if _, err := fmt.Sscanf(value, "%d:%d:%d", &h, &min, &sec); err != nil {
		sec = 0
		if _, err := fmt.Sscanf(value, "%d:%d", &h, &min); err != nil {
			return 0, err
		}
	}
	return float64(h)*60 + float64(min) + float64(sec)/60, nil
}

// onDay reports whether the shift date falls on the same local day as ref.
func onDay(dateOfShift string, ref time.Time) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if d, err := time.ParseInLocation(layout, dateOfShift, ref.Location()); err == nil {
			return d.Year() == ref.Year() && d.Month() == ref.Month() && d.Day() == ref.Day()
		}
	}
	return false
}
