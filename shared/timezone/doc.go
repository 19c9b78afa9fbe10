// Package timezone centralizes time handling: the application location from
// configuration, and the calendar-date granularity shared by booking
// intervals and expense dates.
package timezone
