package schedule

import (
	"testing"
	"time"
)

func mustTimeOfDay(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tod
}

func window(t *testing.T, day int, start, end string) WeeklyAvailability {
	t.Helper()
	return WeeklyAvailability{
		DayOfWeek: day,
		StartTime: mustTimeOfDay(t, start),
		EndTime:   mustTimeOfDay(t, end),
	}
}

func TestOverlaps(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"back to back", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"back to back reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
	}

	for _, tc := range cases {
		if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSlotStarts_Stepping(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "17:00:00")}

	starts := SlotStarts(day, windows, 30*time.Minute, nil)

	// 09:00 through 16:30 inclusive.
	if len(starts) != 16 {
		t.Fatalf("expected 16 starts, got %d", len(starts))
	}
	if !starts[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first start 09:00, got %s", starts[0].Format(time.RFC3339))
	}
	for i := 1; i < len(starts); i++ {
		if got := starts[i].Sub(starts[i-1]); got != 30*time.Minute {
			t.Fatalf("starts %d and %d are %s apart, want 30m", i-1, i, got)
		}
	}
}

func TestSlotStarts_WindowOverrun(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "17:00:00")}

	starts := SlotStarts(day, windows, 60*time.Minute, nil)

	// Last candidate that fits ends exactly at 17:00, so it starts at 16:00;
	// 16:30 would end at 17:30 and must not be offered.
	last := starts[len(starts)-1]
	if !last.Equal(day.Add(16 * time.Hour)) {
		t.Fatalf("expected last start 16:00, got %s", last.Format(time.RFC3339))
	}
	for _, s := range starts {
		if s.Equal(day.Add(16*time.Hour + 30*time.Minute)) {
			t.Fatal("16:30 start overruns the window and must be rejected")
		}
	}
}

func TestSlotStarts_BusyBlocksButBackToBackDoesNot(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "12:00:00")}
	busy := []BusyInterval{{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)}}

	starts := SlotStarts(day, windows, 60*time.Minute, busy)

	// 09:00 ends exactly where the busy interval begins: allowed. 09:30,
	// 10:00, 10:30 all overlap [10:00, 11:00). 11:00 ends at 12:00: allowed.
	want := []time.Time{day.Add(9 * time.Hour), day.Add(11 * time.Hour)}
	if len(starts) != len(want) {
		t.Fatalf("expected %d starts, got %d: %v", len(want), len(starts), starts)
	}
	for i := range want {
		if !starts[i].Equal(want[i]) {
			t.Fatalf("start %d: got %s, want %s", i, starts[i], want[i])
		}
	}
}

func TestSlotStarts_OverlappingWindowsKeepDuplicates(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{
		window(t, 4, "09:00:00", "10:00:00"),
		window(t, 4, "09:00:00", "10:00:00"),
	}

	starts := SlotStarts(day, windows, 30*time.Minute, nil)

	// Two identical windows produce the same candidates twice; the engine
	// does not de-duplicate.
	if len(starts) != 4 {
		t.Fatalf("expected 4 starts (duplicates preserved), got %d", len(starts))
	}
	if !starts[0].Equal(starts[2]) || !starts[1].Equal(starts[3]) {
		t.Fatal("expected duplicated candidates from the second window")
	}
}

func TestSlotStarts_DurationLongerThanWindow(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "10:00:00")}

	if starts := SlotStarts(day, windows, 90*time.Minute, nil); len(starts) != 0 {
		t.Fatalf("expected no starts, got %d", len(starts))
	}
}

func TestSessionIntervals_SkipsCancelled(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)

	sessions := []Session{
		{ScheduledAt: day.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusCancelled},
		{ScheduledAt: day.Add(14 * time.Hour), DurationMinutes: 90, Status: StatusConfirmed},
		{ScheduledAt: day.Add(16 * time.Hour), DurationMinutes: 30, Status: StatusPending},
	}

	busy := sessionIntervals(sessions)
	if len(busy) != 2 {
		t.Fatalf("expected 2 busy intervals, got %d", len(busy))
	}
	if !busy[0].Start.Equal(day.Add(14 * time.Hour)) {
		t.Fatalf("unexpected first busy interval start %s", busy[0].Start)
	}
	if !busy[0].End.Equal(day.Add(15*time.Hour + 30*time.Minute)) {
		t.Fatalf("unexpected first busy interval end %s", busy[0].End)
	}
}

func TestSlotStarts_CancelledSessionNeverBlocks(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "10:00:00")}

	cancelled := []Session{
		{ScheduledAt: day.Add(9 * time.Hour), DurationMinutes: 60, Status: StatusCancelled},
	}

	starts := SlotStarts(day, windows, 60*time.Minute, sessionIntervals(cancelled))
	if len(starts) != 1 || !starts[0].Equal(day.Add(9*time.Hour)) {
		t.Fatalf("cancelled session must not block, got %v", starts)
	}
}

func TestTimeOffIntervals_BlockCandidates(t *testing.T) {
	day := time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)
	windows := []WeeklyAvailability{window(t, 4, "09:00:00", "12:00:00")}

	timeOff := []TimeOff{
		{StartDate: day.Add(9 * time.Hour), EndDate: day.Add(10*time.Hour + 30*time.Minute)},
	}

	starts := SlotStarts(day, windows, 60*time.Minute, timeOffIntervals(timeOff))

	// Everything before 10:30 is inside the range; 10:30 and 11:00 fit.
	want := []time.Time{day.Add(10*time.Hour + 30*time.Minute), day.Add(11 * time.Hour)}
	if len(starts) != len(want) {
		t.Fatalf("expected %d starts, got %d: %v", len(want), len(starts), starts)
	}
	for i := range want {
		if !starts[i].Equal(want[i]) {
			t.Fatalf("start %d: got %s, want %s", i, starts[i], want[i])
		}
	}
}
