package flashcard

import (
	"math"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

// Rating is the recall quality reported for a card, 1 (forgot) to 5 (perfect).
type Rating int

const (
	RatingForgot    Rating = 1
	RatingStruggled Rating = 2
	RatingHard      Rating = 3
	RatingGood      Rating = 4
	RatingPerfect   Rating = 5
)

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3

	// passingRating is the lowest rating that counts as a successful recall.
	passingRating = 3
)

// Schedule is the persisted repetition state of a card.
type Schedule struct {
	RepetitionCount int       `json:"repetition_count"`
	EaseFactor      float64   `json:"ease_factor"`
	IntervalDays    int       `json:"interval_days"`
	NextReviewDate  time.Time `json:"next_review_date"`
}

// Review is a scheduling decision plus the facts that produced it. It is what
// gets handed to persistence after a card is rated.
type Review struct {
	Schedule    Schedule  `json:"schedule"`
	Rating      Rating    `json:"rating"`
	TimeSeconds float64   `json:"time_seconds"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// ClampRating forces r into [1,5].
func ClampRating(r int) Rating {
	if r < int(RatingForgot) {
		return RatingForgot
	}
	if r > int(RatingPerfect) {
		return RatingPerfect
	}
	return Rating(r)
}

// Passed reports whether the rating counts as a successful recall.
func (r Rating) Passed() bool {
	return r >= passingRating
}

// ScheduleOf extracts the scheduling fields of a card.
func ScheduleOf(card models.Card) Schedule {
	return Schedule{
		RepetitionCount: card.RepetitionCount,
		EaseFactor:      card.EaseFactor,
		IntervalDays:    card.IntervalDays,
		NextReviewDate:  card.NextReviewDate,
	}
}

// NextState computes the SM-2 schedule that follows s after a review rated
// rating at time now. Out-of-range ratings are clamped.
func NextState(s Schedule, rating int, now time.Time) Schedule {
	q := ClampRating(rating)

	ef := s.EaseFactor
	if ef == 0 {
		ef = DefaultEaseFactor
	}
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	next := Schedule{EaseFactor: ef}
	if !q.Passed() {
		next.RepetitionCount = 0
		next.IntervalDays = 1
	} else {
		next.RepetitionCount = s.RepetitionCount + 1
		switch next.RepetitionCount {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(s.IntervalDays) * ef))
		}
		if next.IntervalDays < 1 {
			next.IntervalDays = 1
		}

		d := float64(RatingPerfect - q)
		ef = ef + 0.1 - d*(0.08+d*0.02)
		if ef < MinEaseFactor {
			ef = MinEaseFactor
		}
		next.EaseFactor = ef
	}

	next.NextReviewDate = StartOfDay(now).AddDate(0, 0, next.IntervalDays)
	return next
}

// ApplyReview runs NextState against a card and updates its counters.
func ApplyReview(card models.Card, rating int, now time.Time) models.Card {
	s := NextState(ScheduleOf(card), rating, now)

	card.RepetitionCount = s.RepetitionCount
	card.EaseFactor = s.EaseFactor
	card.IntervalDays = s.IntervalDays
	card.NextReviewDate = s.NextReviewDate

	card.TimesReviewed++
	if ClampRating(rating).Passed() {
		card.TimesCorrect++
	}
	reviewed := now
	card.LastReviewedAt = &reviewed
	return card
}

// IsDue reports whether the card should be reviewed on the calendar day of asOf.
func IsDue(card models.Card, asOf time.Time) bool {
	return !card.NextReviewDate.After(EndOfDay(asOf))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
