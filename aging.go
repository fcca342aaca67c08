package books

import "github.com/etnz/books/date"

// AgingBucket classifies an open balance by how late it is.
type AgingBucket string

const (
	Current    AgingBucket = "Current"
	Late1To30  AgingBucket = "1-30 Days"
	Late31To60 AgingBucket = "31-60 Days"
	Late61To90 AgingBucket = "61-90 Days"
	Late90Plus AgingBucket = "90+ Days"
)

// AgingBuckets lists the buckets from the most recent to the oldest.
var AgingBuckets = []AgingBucket{Current, Late1To30, Late31To60, Late61To90, Late90Plus}

// BucketOf returns the bucket of a balance due on due, as seen on today.
// A balance without due date, or not due yet, is Current.
func BucketOf(due *date.Date, today date.Date) AgingBucket {
	if due == nil {
		return Current
	}
	switch late := today.DaysSince(*due); {
	case late <= 0:
		return Current
	case late <= 30:
		return Late1To30
	case late <= 60:
		return Late31To60
	case late <= 90:
		return Late61To90
	default:
		return Late90Plus
	}
}
