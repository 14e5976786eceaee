package timeline

import (
	"math"

	"github.com/PlanD600/pland-tui/internal/models"
)

// Zoom bounds in pixels per day.
const (
	MinPixelsPerDay = 5.0
	MaxPixelsPerDay = 200.0
	zoomStep        = 1.5
)

// Mapper converts between calendar dates and horizontal pixel offsets.
// Offsets grow with time regardless of layout direction; RTL only affects
// how pointer deltas map to day deltas.
type Mapper struct {
	WindowStart  models.Date
	PixelsPerDay float64

	// RTL marks a right-to-left layout. In an RTL frame the timeline's
	// origin sits at the right edge, so moving the pointer left (screen X
	// decreasing) moves forward in time.
	RTL bool
}

// NewMapper creates a mapper for the given window at a clamped zoom level.
func NewMapper(windowStart models.Date, pixelsPerDay float64, rtl bool) Mapper {
	return Mapper{
		WindowStart:  windowStart,
		PixelsPerDay: ClampZoom(pixelsPerDay),
		RTL:          rtl,
	}
}

// ClampZoom bounds a zoom level to the supported range.
func ClampZoom(ppd float64) float64 {
	if math.IsNaN(ppd) || ppd < MinPixelsPerDay {
		return MinPixelsPerDay
	}
	if ppd > MaxPixelsPerDay {
		return MaxPixelsPerDay
	}
	return ppd
}

// ZoomIn returns the zoom level one step in.
func ZoomIn(ppd float64) float64 { return ClampZoom(ppd * zoomStep) }

// ZoomOut returns the zoom level one step out.
func ZoomOut(ppd float64) float64 { return ClampZoom(ppd / zoomStep) }

// FitZoom returns the zoom level that fits totalDays into availableWidthPx.
func FitZoom(availableWidthPx, totalDays int) float64 {
	if totalDays <= 0 {
		return MinPixelsPerDay
	}
	return ClampZoom(float64(availableWidthPx) / float64(totalDays))
}

// Offset returns the pixel offset of date from the window start.
func (m Mapper) Offset(date models.Date) float64 {
	return float64(m.WindowStart.DaysUntil(date)) * m.PixelsPerDay
}

// Width returns the pixel width of the inclusive date span [start, end].
func (m Mapper) Width(start, end models.Date) float64 {
	return float64(start.DaysUntil(end)+1) * m.PixelsPerDay
}

// DeltaDays converts a horizontal screen delta in pixels to a whole-day
// delta. The delta is negated first in an RTL frame.
func (m Mapper) DeltaDays(screenDeltaPx float64) int {
	if m.RTL {
		screenDeltaPx = -screenDeltaPx
	}
	return int(math.Round(screenDeltaPx / m.PixelsPerDay))
}

// DateAt inverts Offset: the date reached by moving screenDeltaPx from
// anchor.
func (m Mapper) DateAt(anchor models.Date, screenDeltaPx float64) models.Date {
	return anchor.AddDays(m.DeltaDays(screenDeltaPx))
}
