package domain

import (
	"errors"
	"time"

	"github.com/checkin-lab/backend/pkg/dateutil"
)

const dateLayout = "2006-01-02"

// parseDateRange parses an inclusive [start, end] date pair into a half-open
// [start, end+1d) interval suitable for range queries over planned_time.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	end, err := time.ParseInLocation(dateLayout, endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end before start")
	}

	return start, dateutil.NextDay(end), nil
}
