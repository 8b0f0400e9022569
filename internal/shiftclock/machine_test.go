package shiftclock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/config"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/upstream"
)

const testEmployeeID = 7

// fakeBackend serves the employee-shifts collection and records the
// start/end transitions the machine issues.
type fakeBackend struct {
	mu         sync.Mutex
	shifts     []models.Shift
	startCalls int
	endCalls   int
}

func (b *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == employeeShiftsPath:
			json.NewEncoder(w).Encode(b.shifts)

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/Shift/"):
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			if len(parts) != 3 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			id, _ := strconv.Atoi(parts[1])
			for i := range b.shifts {
				if b.shifts[i].ShiftID != id {
					continue
				}
				switch parts[2] {
				case "start":
					b.startCalls++
					v := r.URL.Query().Get("startTime")
					b.shifts[i].StartTime = &v
				case "end":
					b.endCalls++
					v := r.URL.Query().Get("endTime")
					b.shifts[i].EndTime = &v
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.WriteHeader(http.StatusNotFound)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (b *fakeBackend) counts() (starts, ends int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startCalls, b.endCalls
}

func machineFixture(t *testing.T, backend *fakeBackend, now time.Time) (*Machine, *clientstate.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		RetryMax:       1,
	}, zerolog.Nop())

	// Zero staleness: every snapshot in these tests observes the backend's
	// latest state without depending on invalidation alone.
	shifts := upstream.NewResource[models.Shift](client, "/Shifts", 0)
	state := clientstate.NewMemoryStore()

	m := NewMachine(shifts, client, state, zerolog.Nop())
	m.now = func() time.Time { return now }
	return m, state
}

func strPtr(s string) *string { return &s }

func todayShift(id int, start, end *string) models.Shift {
	return models.Shift{
		ShiftID:       id,
		DateOfShift:   "2025-06-02",
		EmployeeID:    testEmployeeID,
		BicycleID:     1,
		RouteID:       1,
		SubstitutedID: testEmployeeID,
		StartTime:     start,
		EndTime:       end,
	}
}

var testNoon = time.Date(2025, time.June, 2, 12, 0, 0, 0, time.Local)

func TestSnapshotModeDerivation(t *testing.T) {
	tests := []struct {
		name   string
		shifts []models.Shift
		want   Mode
	}{
		{"startable shift means in", []models.Shift{todayShift(1, nil, nil)}, ModeIn},
		{"in-progress shift means out", []models.Shift{todayShift(1, strPtr("09:00:00"), nil)}, ModeOut},
		{"completed shift means unavailable", []models.Shift{todayShift(1, strPtr("09:00:00"), strPtr("11:00:00"))}, ModeUnavailable},
		{"no shift today means unavailable", []models.Shift{{
			ShiftID: 1, DateOfShift: "2025-06-03", EmployeeID: testEmployeeID,
		}}, ModeUnavailable},
		{"in-progress wins over startable", []models.Shift{
			todayShift(1, nil, nil),
			todayShift(2, strPtr("08:00:00"), nil),
		}, ModeOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := machineFixture(t, &fakeBackend{shifts: tt.shifts}, testNoon)
			snap, err := m.Snapshot(context.Background(), testEmployeeID)
			if err != nil {
				t.Fatal(err)
			}
			if snap.Mode != tt.want {
				t.Fatalf("mode = %s, want %s", snap.Mode, tt.want)
			}
		})
	}
}

func TestSnapshotPrefersInProgressAndKeepsBackendOrder(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{
		todayShift(10, nil, nil),
		todayShift(11, strPtr("08:00:00"), nil),
		todayShift(12, strPtr("06:00:00"), nil),
	}}
	m, _ := machineFixture(t, backend, testNoon)

	snap, err := m.Snapshot(context.Background(), testEmployeeID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Active == nil || snap.Active.ShiftID != 11 {
		t.Fatalf("active should be the first in-progress shift in backend order, got %+v", snap.Active)
	}
	if snap.Startable == nil || snap.Startable.ShiftID != 10 {
		t.Fatalf("startable = %+v, want shift 10", snap.Startable)
	}
}

func TestClockInStartsTheShift(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, nil, nil)}}
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.Local)
	m, state := machineFixture(t, backend, now)
	ctx := context.Background()

	snap, err := m.ClockIn(ctx, testEmployeeID)
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if snap.Mode != ModeOut {
		t.Fatalf("mode after clock-in = %s, want out", snap.Mode)
	}

	backend.mu.Lock()
	got := *backend.shifts[0].StartTime
	backend.mu.Unlock()
	if got != "09:00:00" {
		t.Fatalf("recorded start time = %q, want 09:00:00", got)
	}

	if start, err := state.ClockInStart(ctx, testEmployeeID); err != nil || !start.Equal(now) {
		t.Fatalf("persisted start = %v, %v; want %v", start, err, now)
	}
}

func TestClockInWithoutStartableShift(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, strPtr("08:00:00"), nil)}}
	m, _ := machineFixture(t, backend, testNoon)

	_, err := m.ClockIn(context.Background(), testEmployeeID)
	if !errors.Is(err, ErrNoStartableShift) {
		t.Fatalf("err = %v, want ErrNoStartableShift", err)
	}
	if starts, _ := backend.counts(); starts != 0 {
		t.Fatalf("start endpoint called %d times, want 0", starts)
	}
}

func TestClockOutComputesTotalHours(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, strPtr("09:00:00"), nil)}}
	now := time.Date(2025, time.June, 2, 17, 0, 0, 0, time.Local)
	m, state := machineFixture(t, backend, now)
	ctx := context.Background()
	_ = state.SetClockInStart(ctx, testEmployeeID, now.Add(-8*time.Hour), time.Hour)

	snap, total, err := m.ClockOut(ctx, testEmployeeID)
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if total != 8.00 {
		t.Fatalf("totalHours = %v, want 8.00", total)
	}
	if snap.Mode != ModeUnavailable {
		t.Fatalf("mode after clock-out = %s, want unavailable", snap.Mode)
	}

	if _, err := state.ClockInStart(ctx, testEmployeeID); !errors.Is(err, clientstate.ErrNotFound) {
		t.Fatalf("persisted start should be cleared, got err=%v", err)
	}

	backend.mu.Lock()
	end := *backend.shifts[0].EndTime
	backend.mu.Unlock()
	if end != "17:00:00" {
		t.Fatalf("recorded end time = %q, want 17:00:00", end)
	}
}

func TestClockOutWhenNotClockedIn(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, nil, nil)}}
	m, _ := machineFixture(t, backend, testNoon)

	_, _, err := m.ClockOut(context.Background(), testEmployeeID)
	if !errors.Is(err, ErrNoActiveShift) {
		t.Fatalf("err = %v, want ErrNoActiveShift", err)
	}
	if _, ends := backend.counts(); ends != 0 {
		t.Fatalf("end endpoint called %d times, want 0", ends)
	}
}

func TestClockOutRejectsNegativeDuration(t *testing.T) {
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, strPtr("17:00:00"), nil)}}
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.Local)
	m, _ := machineFixture(t, backend, now)

	_, _, err := m.ClockOut(context.Background(), testEmployeeID)
	if !errors.Is(err, ErrNegativeDuration) {
		t.Fatalf("err = %v, want ErrNegativeDuration", err)
	}
	if _, ends := backend.counts(); ends != 0 {
		t.Fatalf("negative duration must be rejected before any request, got %d calls", ends)
	}
}

func TestElapsedSurvivesLostStateStore(t *testing.T) {
	// No persisted instant: elapsed is reconstructed from the shift's
	// recorded start time on today's date.
	backend := &fakeBackend{shifts: []models.Shift{todayShift(1, strPtr("09:00:00"), nil)}}
	now := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.Local)
	m, _ := machineFixture(t, backend, now)

	snap, err := m.Snapshot(context.Background(), testEmployeeID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ElapsedSeconds != 30*60 {
		t.Fatalf("elapsed = %d, want %d", snap.ElapsedSeconds, 30*60)
	}
}

func TestTotalHours(t *testing.T) {
	tests := []struct {
		start, end string
		want       float64
		wantErr    error
	}{
		{"09:00:00", "17:00:00", 8.00, nil},
		{"09:30:00", "10:00:00", 0.5, nil},
		{"09:00:00", "09:00:00", 0, nil},
		{"08:15:00", "16:45:30", 8.51, nil},
		{"17:00:00", "09:00:00", 0, ErrNegativeDuration},
	}

	for _, tt := range tests {
		got, err := TotalHours(tt.start, tt.end)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TotalHours(%s,%s) err = %v, want %v", tt.start, tt.end, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("TotalHours(%s,%s): %v", tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Fatalf("TotalHours(%s,%s) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}

	if _, err := TotalHours("junk", "17:00:00"); err == nil {
		t.Fatal("malformed start time should error")
	}
}
