// internal/core/domain/presentation.go
package domain

import (
	"fmt"
	"time"
)

// FormatDate renders t as "DD/MM/YYYY AM|PM" in loc. The suffix is a
// half-day marker: PM when the hour is 12 or later, AM otherwise. A nil
// loc keeps t's own location.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	half := "AM"
	if t.Hour() >= 12 {
		half = "PM"
	}
	return fmt.Sprintf("%02d/%02d/%04d %s", t.Day(), int(t.Month()), t.Year(), half)
}

var statusColors = map[InspectionStatus]string{
	StatusNew:        "bg-blue-200",
	StatusPlanned:    "bg-yellow-200",
	StatusInProgress: "bg-orange-200",
	StatusOnHold:     "bg-purple-200",
	StatusCompleted:  "bg-green-200",
	StatusCancelled:  "bg-red-200",
}

// StatusColor returns the background class of the status pill for rec,
// rendered at position index of the current page. Unknown statuses fall
// back to alternating greys so adjacent rows stay distinguishable.
func StatusColor(rec Inspection, index int) string {
	if c, ok := statusColors[rec.Status]; ok {
		return c
	}
	if index%2 == 0 {
		return "bg-gray-100"
	}
	return "bg-gray-200"
}

// StatusLabel is the status text shown in the table. Planned inspections
// carry their site visit date: "Ingepland -> 03/05/2024 PM".
func StatusLabel(rec Inspection, loc *time.Location) string {
	if rec.Status == StatusPlanned && rec.SiteVisitAt != nil {
		return string(rec.Status) + " -> " + FormatDate(*rec.SiteVisitAt, loc)
	}
	return string(rec.Status)
}
