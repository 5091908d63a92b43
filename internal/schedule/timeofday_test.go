package schedule

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00:00", want: "09:00:00"},
		{in: "09:30", want: "09:30:00"},
		{in: "23:59:59", want: "23:59:59"},
		{in: "00:00:00", want: "00:00:00"},
		{in: "24:00:00", wantErr: true},
		{in: "12:60:00", wantErr: true},
		{in: "12:00:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	day := time.Date(2026, 1, 29, 0, 0, 0, 0, loc)
	tod := mustTimeOfDay(t, "09:30:00")

	placed := tod.On(day)
	if placed.Hour() != 9 || placed.Minute() != 30 || placed.Second() != 0 {
		t.Fatalf("unexpected clock time %s", placed)
	}
	if placed.Location() != loc {
		t.Fatalf("expected location %v, got %v", loc, placed.Location())
	}
	y, m, d := placed.Date()
	if y != 2026 || m != time.January || d != 29 {
		t.Fatalf("unexpected date %s", placed)
	}
}

func TestTimeOfDayBefore(t *testing.T) {
	start := mustTimeOfDay(t, "09:00:00")
	end := mustTimeOfDay(t, "17:00:00")

	if !start.Before(end) {
		t.Fatal("09:00:00 should be before 17:00:00")
	}
	if end.Before(start) {
		t.Fatal("17:00:00 should not be before 09:00:00")
	}
	if start.Before(start) {
		t.Fatal("a time is not before itself")
	}
}
