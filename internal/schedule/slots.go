package schedule

import "time"

// SlotStepMinutes is the spacing between candidate start times within an
// availability window. Not configurable per trainer.
const SlotStepMinutes = 30

// BusyInterval is a half-open [Start, End) span that blocks slot candidates.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Back-to-back intervals do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// SlotStarts walks each availability window on the given calendar day and
// returns the start times where a session of the given duration fits without
// touching any busy interval.
//
// Candidates begin at the window's start time and advance in fixed
// SlotStepMinutes increments; the walk stops once a candidate would run past
// the window's end. Windows are processed independently in the order given,
// so overlapping windows can yield duplicate start times.
func SlotStarts(day time.Time, windows []WeeklyAvailability, duration time.Duration, busy []BusyInterval) []time.Time {
	if duration <= 0 {
		return nil
	}

	step := SlotStepMinutes * time.Minute

	var starts []time.Time
	for _, w := range windows {
		windowEnd := w.EndTime.On(day)
		for t := w.StartTime.On(day); !t.Add(duration).After(windowEnd); t = t.Add(step) {
			if !overlapsAny(t, t.Add(duration), busy) {
				starts = append(starts, t)
			}
		}
	}
	return starts
}

func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// sessionIntervals converts booked sessions to busy intervals. Cancelled
// sessions never block a slot.
func sessionIntervals(sessions []Session) []BusyInterval {
	var out []BusyInterval
	for _, s := range sessions {
		if s.Status == StatusCancelled {
			continue
		}
		out = append(out, BusyInterval{Start: s.ScheduledAt, End: s.End()})
	}
	return out
}

// timeOffIntervals converts time-off ranges to busy intervals. The inclusive
// EndDate becomes the exclusive bound of the half-open interval, matching the
// overlap predicate used against candidates.
func timeOffIntervals(timeOff []TimeOff) []BusyInterval {
	var out []BusyInterval
	for _, t := range timeOff {
		out = append(out, BusyInterval{Start: t.StartDate, End: t.EndDate})
	}
	return out
}
