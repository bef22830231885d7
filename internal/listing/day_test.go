package listing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfTruncatesToUTCDay(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	// 23:30 Oslo summer time is 21:30 UTC the same day.
	d := DayOf(time.Date(2025, 6, 14, 23, 30, 0, 0, oslo))
	assert.Equal(t, "2025-06-14", d.String())

	// 00:30 Oslo is still the previous UTC day.
	d = DayOf(time.Date(2025, 6, 15, 0, 30, 0, 0, oslo))
	assert.Equal(t, "2025-06-14", d.String())
}

func TestDayArithmetic(t *testing.T) {
	d := mustDay(t, "2025-03-01")

	assert.Equal(t, "2025-02-28", d.AddDays(-1).String())
	assert.Equal(t, "2025-03-31", d.AddDays(30).String())
	assert.Equal(t, 30, d.AddDays(30).Sub(d))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.True(t, d.Equal(mustDay(t, "2025-03-01")))
}

func TestDayJSON(t *testing.T) {
	d := mustDay(t, "2025-06-15")

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-15"`, string(raw))

	var decoded Day
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, d.Equal(decoded))

	assert.Error(t, json.Unmarshal([]byte(`"15/06/2025"`), &decoded))
}

func TestParseDayRejectsGarbage(t *testing.T) {
	_, err := ParseDay("not-a-date")
	assert.Error(t, err)

	_, err = ParseDay("2025-13-01")
	assert.Error(t, err)
}
