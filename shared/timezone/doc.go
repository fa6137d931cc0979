// Package timezone pins every wall-clock computation to the zone named by
// APP_TIMEZONE.
//
// Booking dates and times are stored as DATE and TIME columns and the
// derived borrowed_at and planned_return_at as TIMESTAMP WITHOUT TIME ZONE,
// so they carry no zone of their own. They are read and compared in the
// application zone:
//
//	start := timezone.Combine(booking.BorrowDate, booking.StartTime)
//	due := timezone.SQLTimestamp(now) // "2026-03-02 09:00:00"
//
// An unknown zone name is logged and replaced by UTC at startup.
package timezone
