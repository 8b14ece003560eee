package leaderboard

import (
	"strings"
	"time"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"
	"github.com/CleanExpo/LocalLift-sub000/pkg/isoweek"
	"github.com/CleanExpo/LocalLift-sub000/services/badge"
)

type Timeframe string

const (
	Week    Timeframe = "week"
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
	Year    Timeframe = "year"
	All     Timeframe = "all"
)

// ParseTimeframe defaults an empty value to All.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return All, nil
	case Week, Month, Quarter, Year, All:
		return tf, nil
	default:
		return "", errutil.Invalid("timeframe must be one of week, month, quarter, year, all", nil,
			errutil.WithDetails(errutil.Detail{Field: "timeframe", Message: "unsupported value " + s}))
	}
}

// Filter converts the timeframe into a week-key predicate relative to now.
func (tf Timeframe) Filter(now time.Time) badge.Filter {
	now = now.UTC()
	switch tf {
	case Week:
		return badge.Filter{Op: badge.FilterEqual, WeekID: isoweek.Key(now)}
	case Month:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return badge.Filter{Op: badge.FilterAtLeast, WeekID: isoweek.Key(first)}
	case Quarter:
		month := time.Month((int(now.Month())-1)/3*3 + 1)
		first := time.Date(now.Year(), month, 1, 0, 0, 0, 0, time.UTC)
		return badge.Filter{Op: badge.FilterAtLeast, WeekID: isoweek.Key(first)}
	case Year:
		return badge.Filter{Op: badge.FilterYear, Year: now.Year()}
	default:
		return badge.Filter{Op: badge.FilterAny}
	}
}
