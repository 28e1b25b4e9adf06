package common

import (
	"fmt"
	"time"
)

// Standard date format constants
const (
	// ISO8601Date is the date format used for WMTS time windows and settings
	ISO8601Date = "2006-01-02"

	// OutputTimestamp is the layout used in generated image file names
	OutputTimestamp = "20060102_150405"
)

// ParseISO8601 parses a date string in ISO 8601 format (YYYY-MM-DD)
func ParseISO8601(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date string is empty")
	}
	return time.Parse(ISO8601Date, dateStr)
}

// CurrentDateISO8601 returns the current UTC date in ISO 8601 format
func CurrentDateISO8601() string {
	return time.Now().UTC().Format(ISO8601Date)
}

// SameDayWindow returns the "{day}/{day}" interval used by WMTS TIME parameters
func SameDayWindow(day string) string {
	return day + "/" + day
}
