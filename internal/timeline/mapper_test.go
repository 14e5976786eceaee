package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PlanD600/pland-tui/internal/models"
)

func TestMapperOffsetAndWidth(t *testing.T) {
	m := NewMapper(models.NewDate(2024, time.March, 1), 30, false)

	assert.Equal(t, 0.0, m.Offset(models.NewDate(2024, time.March, 1)))
	assert.Equal(t, 270.0, m.Offset(models.NewDate(2024, time.March, 10)))

	// Inclusive span: a one-day task is one day wide.
	assert.Equal(t, 30.0, m.Width(models.NewDate(2024, time.March, 10), models.NewDate(2024, time.March, 10)))
	assert.Equal(t, 180.0, m.Width(models.NewDate(2024, time.March, 10), models.NewDate(2024, time.March, 15)))
}

func TestMapperRoundTrip(t *testing.T) {
	start := models.NewDate(2024, time.January, 1)

	for _, rtl := range []bool{false, true} {
		for _, ppd := range []float64{5, 30, 200} {
			m := NewMapper(start, ppd, rtl)
			for days := 0; days < 400; days += 17 {
				date := start.AddDays(days)
				screenPx := m.Offset(date)
				if rtl {
					// In an RTL frame a later date sits further left.
					screenPx = -screenPx
				}
				assert.True(t, m.DateAt(start, screenPx).Equal(date),
					"rtl=%v ppd=%v days=%d", rtl, ppd, days)
			}
		}
	}
}

func TestMapperRTLNegatesPointerDelta(t *testing.T) {
	m := NewMapper(models.NewDate(2024, time.March, 1), 30, true)

	// Leftward screen motion (negative delta) maps forward in time.
	assert.Equal(t, 3, m.DeltaDays(-90))
	assert.Equal(t, -3, m.DeltaDays(90))

	ltr := NewMapper(models.NewDate(2024, time.March, 1), 30, false)
	assert.Equal(t, -3, ltr.DeltaDays(-90))
}

func TestMapperDeltaDaysRounds(t *testing.T) {
	m := NewMapper(models.NewDate(2024, time.March, 1), 30, false)
	assert.Equal(t, 0, m.DeltaDays(14))
	assert.Equal(t, 1, m.DeltaDays(16))
	assert.Equal(t, -1, m.DeltaDays(-16))
}

func TestZoomClamping(t *testing.T) {
	assert.Equal(t, MinPixelsPerDay, ClampZoom(1))
	assert.Equal(t, MaxPixelsPerDay, ClampZoom(1000))
	assert.Equal(t, 30.0, ClampZoom(30))

	assert.Equal(t, 45.0, ZoomIn(30))
	assert.Equal(t, 20.0, ZoomOut(30))
	assert.Equal(t, MaxPixelsPerDay, ZoomIn(180))
	assert.Equal(t, MinPixelsPerDay, ZoomOut(6))
}

func TestFitZoom(t *testing.T) {
	assert.Equal(t, 10.0, FitZoom(600, 60))
	// Clamped when the window cannot fit.
	assert.Equal(t, MinPixelsPerDay, FitZoom(100, 60))
	assert.Equal(t, MinPixelsPerDay, FitZoom(100, 0))
}
