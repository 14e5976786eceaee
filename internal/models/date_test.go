package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateDaysUntil(t *testing.T) {
	a := NewDate(2024, time.March, 10)
	b := NewDate(2024, time.March, 15)

	assert.Equal(t, 5, a.DaysUntil(b))
	assert.Equal(t, -5, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestDateDaysUntilAcrossDSTBoundary(t *testing.T) {
	// US DST starts 2024-03-10; midnight-UTC normalization must keep
	// differences at whole days.
	a := NewDate(2024, time.March, 8)
	b := NewDate(2024, time.March, 12)
	assert.Equal(t, 4, a.DaysUntil(b))
}

func TestDateAddDaysNormalizes(t *testing.T) {
	d := NewDate(2024, time.January, 30)
	assert.Equal(t, "2024-02-02", d.AddDays(3).String())
	assert.Equal(t, "2023-12-31", d.AddDays(-30).String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.June, 1)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-01"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))
}

func TestDateUnmarshalTimestamp(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T14:30:00Z"`), &d))
	assert.Equal(t, "2024-06-01", d.String())
}

func TestDateUnmarshalNull(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestTaskDated(t *testing.T) {
	start := NewDate(2024, time.March, 10)
	end := NewDate(2024, time.March, 15)

	assert.True(t, Task{StartDate: &start, EndDate: &end}.Dated())
	assert.False(t, Task{StartDate: &start}.Dated())
	assert.False(t, Task{EndDate: &end}.Dated())
	assert.False(t, Task{}.Dated())
	assert.False(t, Task{StartDate: &Date{}, EndDate: &end}.Dated())
}
