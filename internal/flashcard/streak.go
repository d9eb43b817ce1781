package flashcard

import (
	"sort"
	"time"
)

// DailyStreak counts consecutive calendar days with at least one review.
// current is the run ending today or yesterday (a streak is not broken until
// a full day is skipped); longest is the best run in days.
func DailyStreak(days []time.Time, today time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	loc := today.Location()
	seen := make(map[time.Time]struct{}, len(days))
	unique := make([]time.Time, 0, len(days))
	for _, d := range days {
		day := StartOfDay(d.In(loc))
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		unique = append(unique, day)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	run := 0
	for i, d := range unique {
		if i > 0 && unique[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := unique[len(unique)-1]
	start := StartOfDay(today)
	if last.Equal(start) || last.Equal(start.AddDate(0, 0, -1)) {
		current = run
	}
	return current, longest
}
