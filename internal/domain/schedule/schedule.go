// Package schedule decides, for a rule and a calendar date, whether the date
// carries a check-in obligation and at what moment the check-in is due. Both
// functions are deterministic given their inputs.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/dateutil"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

const (
	morningHour   = 9
	afternoonHour = 14
	eveningHour   = 20
)

// IsObligationDay reports whether date is an obligation day of the rule.
// WeekDays bit 0 is Monday.
func IsObligationDay(spec entity.RuleSpec, date time.Time) bool {
	switch spec.Frequency {
	case entity.FrequencyDaily:
		return true

	case entity.FrequencyWeekly:
		return spec.WeekDays&(1<<weekdayBit(date)) != 0

	case entity.FrequencyWeekdays:
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday

	case entity.FrequencyCustomRange:
		if !spec.CustomStartDate.Valid || !spec.CustomEndDate.Valid {
			return false
		}

		d := dateutil.BeginningOfDay(date)
		start := dateutil.BeginningOfDay(spec.CustomStartDate.Time)
		end := dateutil.BeginningOfDay(spec.CustomEndDate.Time)
		return !d.Before(start) && !d.After(end)
	}

	return false
}

// PlannedTime computes the planned moment of the obligation on date. A custom
// slot with a malformed time falls back to the evening default with a warning.
func PlannedTime(ctx context.Context, spec entity.RuleSpec, date time.Time) time.Time {
	if spec.TimeSlot == entity.TimeSlotCustom && spec.CustomTime.Valid {
		hour, minute, err := parseTimeOfDay(spec.CustomTime.String)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Malformed custom time %q, falling back to evening: %v",
				spec.CustomTime.String, err)
			return dateutil.AtTimeOfDay(date, eveningHour, 0)
		}

		return dateutil.AtTimeOfDay(date, hour, minute)
	}

	switch spec.TimeSlot {
	case entity.TimeSlotMorning:
		return dateutil.AtTimeOfDay(date, morningHour, 0)
	case entity.TimeSlotAfternoon:
		return dateutil.AtTimeOfDay(date, afternoonHour, 0)
	default:
		return dateutil.AtTimeOfDay(date, eveningHour, 0)
	}
}

// weekdayBit maps Monday to 0 through Sunday to 6.
func weekdayBit(date time.Time) uint {
	return uint((int(date.Weekday()) + 6) % 7)
}

func parseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM: %w", err)
	}

	return t.Hour(), t.Minute(), nil
}
