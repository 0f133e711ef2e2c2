// Package turntable reads the frames of a 360x360 turntable capture and tracks which
// (latitude, longitude) frame a spinner shows.
package turntable

const (
	LongitudeCount       = 16
	DefaultLatitudeCount = 16

	startLatitude  = 5
	startLongitude = 1
)

// Cursor addresses one frame of the capture. Latitude is clamped, longitude wraps.
type Cursor struct {
	Latitude      int
	Longitude     int
	LatitudeCount int
}

// NewCursor sizes the cursor for a capture of frameCount frames.
func NewCursor(frameCount int) Cursor {
	latitudes := frameCount / LongitudeCount
	if latitudes <= 0 {
		latitudes = DefaultLatitudeCount
	}
	c := Cursor{LatitudeCount: latitudes}
	c.Rotate(startLatitude, startLongitude)
	return c
}

// Rotate moves to (lat, lon) and reports whether the frame changed.
func (c *Cursor) Rotate(lat, lon int) bool {
	lat = max(min(lat, c.LatitudeCount-1), 0)

	lon %= LongitudeCount
	if lon < 0 {
		lon += LongitudeCount
	}

	if c.Latitude == lat && c.Longitude == lon {
		return false
	}
	c.Latitude, c.Longitude = lat, lon
	return true
}

func (c Cursor) FrameIndex() int {
	return c.Latitude*LongitudeCount + c.Longitude
}
