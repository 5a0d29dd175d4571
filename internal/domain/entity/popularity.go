package entity

import (
	"cmp"
	"slices"
	"time"
)

// Period is the time window of a popularity ranking.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// IsValid checks if the Period is a valid value.
func (p Period) IsValid() bool {
	switch p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// Since returns the start of the window ending at now. It subtracts one calendar unit
// with date arithmetic rather than truncating to a calendar boundary.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now
	}
}

// RankByRating orders grouped stats by average rating then rating count, both descending,
// keeps at most limit entries and projects them to PopularBeat. Ties keep their input order.
func RankByRating(stats []BeatRatingStats, limit int) []*PopularBeat {
	ranked := make([]*PopularBeat, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, &PopularBeat{
			Beat:          s.Beat,
			AverageRating: AverageRating(s.Sum, s.Count),
			RatingsCount:  s.Count,
		})
	}

	slices.SortStableFunc(ranked, func(a, b *PopularBeat) int {
		if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
			return c
		}

		return cmp.Compare(b.RatingsCount, a.RatingsCount)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
