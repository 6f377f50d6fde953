package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
)

func TestFillDays(t *testing.T) {
	from := time.Date(2024, 2, 27, 18, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)

	series := FillDays([]DailyCount{
		{Day: "2024-02-28", Count: 2},
		{Day: "2024-03-01", Count: 1},
		{Day: "2024-03-01", Count: 4},
		{Day: "2023-12-31", Count: 9}, // out of range
	}, from, to)

	assert.Equal(t, []DailyCount{
		{Day: "2024-02-27", Count: 0},
		{Day: "2024-02-28", Count: 2},
		{Day: "2024-02-29", Count: 0},
		{Day: "2024-03-01", Count: 5},
		{Day: "2024-03-02", Count: 0},
	}, series)

	single := FillDays(nil, to, to)
	assert.Equal(t, []DailyCount{{Day: "2024-03-02"}}, single)

	// days are UTC whatever the zone of the bounds
	est := time.FixedZone("EST", -5*3600)
	series = FillDays(nil, time.Date(2024, 3, 1, 22, 0, 0, 0, est), time.Date(2024, 3, 1, 23, 0, 0, 0, est))
	require.Len(t, series, 1)
	assert.Equal(t, "2024-03-02", series[0].Day)
	assert.Equal(t, "2024-03-02", DayKey(time.Date(2024, 3, 1, 22, 0, 0, 0, est)))
}

func TestQuery_Validate(t *testing.T) {
	validate, _ := core.NewValidate()

	q := Query{}
	require.NoError(t, q.Validate(validate))
	assert.Equal(t, DefaultDays, q.Days)
	assert.Equal(t, DefaultLimit, q.Limit)

	for _, q := range []Query{{Days: 366}, {Days: -1}, {Limit: 51}} {
		assert.Error(t, q.Validate(validate), q)
	}
}
