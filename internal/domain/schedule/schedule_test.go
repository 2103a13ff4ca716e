package schedule

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/pkg/logger"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

// 2023-06-14 is a Wednesday.
var wednesday = time.Date(2023, time.June, 14, 0, 0, 0, 0, time.Local)

func TestIsObligationDay(t *testing.T) {
	saturday := wednesday.AddDate(0, 0, 3)
	sunday := wednesday.AddDate(0, 0, 4)

	tests := []struct {
		name string
		spec entity.RuleSpec
		date time.Time
		want bool
	}{
		{
			name: "daily always applies",
			spec: entity.RuleSpec{Frequency: entity.FrequencyDaily},
			date: sunday,
			want: true,
		},
		{
			name: "weekly mask hits wednesday",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekly, WeekDays: 1 << 2},
			date: wednesday,
			want: true,
		},
		{
			name: "weekly mask misses thursday",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekly, WeekDays: 1 << 2},
			date: wednesday.AddDate(0, 0, 1),
			want: false,
		},
		{
			name: "weekly monday bit is bit zero",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekly, WeekDays: 1 << 0},
			date: wednesday.AddDate(0, 0, 5), // Monday
			want: true,
		},
		{
			name: "weekly sunday bit is bit six",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekly, WeekDays: 1 << 6},
			date: sunday,
			want: true,
		},
		{
			name: "weekdays applies on wednesday",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekdays},
			date: wednesday,
			want: true,
		},
		{
			name: "weekdays skips saturday",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekdays},
			date: saturday,
			want: false,
		},
		{
			name: "weekdays skips sunday",
			spec: entity.RuleSpec{Frequency: entity.FrequencyWeekdays},
			date: sunday,
			want: false,
		},
		{
			name: "custom range inclusive bounds",
			spec: entity.RuleSpec{
				Frequency:       entity.FrequencyCustomRange,
				CustomStartDate: sql.NullTime{Time: wednesday, Valid: true},
				CustomEndDate:   sql.NullTime{Time: saturday, Valid: true},
			},
			date: saturday,
			want: true,
		},
		{
			name: "custom range before start",
			spec: entity.RuleSpec{
				Frequency:       entity.FrequencyCustomRange,
				CustomStartDate: sql.NullTime{Time: wednesday, Valid: true},
				CustomEndDate:   sql.NullTime{Time: saturday, Valid: true},
			},
			date: wednesday.AddDate(0, 0, -1),
			want: false,
		},
		{
			name: "custom range after end",
			spec: entity.RuleSpec{
				Frequency:       entity.FrequencyCustomRange,
				CustomStartDate: sql.NullTime{Time: wednesday, Valid: true},
				CustomEndDate:   sql.NullTime{Time: saturday, Valid: true},
			},
			date: sunday,
			want: false,
		},
		{
			name: "custom range without bounds never applies",
			spec: entity.RuleSpec{Frequency: entity.FrequencyCustomRange},
			date: wednesday,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsObligationDay(tt.spec, tt.date))
		})
	}
}

func TestPlannedTime(t *testing.T) {
	ctx := xcontext.WithLogger(context.Background(), logger.NewSilence())

	tests := []struct {
		name     string
		spec     entity.RuleSpec
		wantHour int
		wantMin  int
	}{
		{
			name:     "morning slot",
			spec:     entity.RuleSpec{TimeSlot: entity.TimeSlotMorning},
			wantHour: 9,
		},
		{
			name:     "afternoon slot",
			spec:     entity.RuleSpec{TimeSlot: entity.TimeSlotAfternoon},
			wantHour: 14,
		},
		{
			name:     "evening slot",
			spec:     entity.RuleSpec{TimeSlot: entity.TimeSlotEvening},
			wantHour: 20,
		},
		{
			name: "custom time",
			spec: entity.RuleSpec{
				TimeSlot:   entity.TimeSlotCustom,
				CustomTime: sql.NullString{String: "07:45", Valid: true},
			},
			wantHour: 7,
			wantMin:  45,
		},
		{
			name: "malformed custom time falls back to evening",
			spec: entity.RuleSpec{
				TimeSlot:   entity.TimeSlotCustom,
				CustomTime: sql.NullString{String: "a quarter past nine", Valid: true},
			},
			wantHour: 20,
		},
		{
			name:     "custom slot without a time falls back to evening",
			spec:     entity.RuleSpec{TimeSlot: entity.TimeSlotCustom},
			wantHour: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlannedTime(ctx, tt.spec, wednesday)
			require.Equal(t, wednesday.Year(), got.Year())
			require.Equal(t, wednesday.Day(), got.Day())
			require.Equal(t, tt.wantHour, got.Hour())
			require.Equal(t, tt.wantMin, got.Minute())
		})
	}
}
