package bill

import "time"

// NextDueDate computes the next due date after from.
//
// Weekly bills fall on the next weekday due_day (1=Monday .. 7=Sunday)
// strictly after from. Monthly, quarterly and yearly bills anchor on due_day
// of from's month and move forward 1, 3 or 12 months. A due_day past the end
// of the target month clamps to its last day. The result is midnight in
// from's location.
func NextDueDate(f Frequency, dueDay int, from time.Time) (time.Time, error) {
	if _, err := ParseFrequency(string(f)); err != nil {
		return time.Time{}, err
	}
	if err := ValidateDueDay(f, dueDay); err != nil {
		return time.Time{}, err
	}

	if f == Weekly {
		target := time.Weekday(dueDay % 7)
		diff := (int(target) - int(from.Weekday()) + 7) % 7
		if diff == 0 {
			diff = 7
		}
		return midnight(from).AddDate(0, 0, diff), nil
	}

	months := map[Frequency]int{Monthly: 1, Quarterly: 3, Yearly: 12}[f]
	return clampedDay(from.Year(), from.Month()+time.Month(months), dueDay, from.Location()), nil
}

// clampedDay returns day of the given (possibly overflowing) month,
// clamped to that month's last day.
func clampedDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
