package timezone

import (
	"roombook/config"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	LayoutDate      = "2006-01-02"
	LayoutClock     = "15:04"
	LayoutClockSecs = "15:04:05"
	// LayoutSQLTimestamp renders a wall-clock instant for comparison with
	// TIMESTAMP WITHOUT TIME ZONE columns.
	LayoutSQLTimestamp = "2006-01-02 15:04:05"
)

var appLocation = time.UTC

func init() {
	appLocation = load(config.Get().App.Timezone)
}

func load(name string) *time.Location {
	if name == "" {
		log.Warn().Msg("APP_TIMEZONE is empty, using UTC")

		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().Err(err).Str("timezone", name).Msg("Unknown IANA timezone, using UTC")

		return time.UTC
	}

	log.Info().Str("timezone", loc.String()).Msg("Application timezone loaded")

	return loc
}

func Now() time.Time {
	return time.Now().In(appLocation)
}

// ToAppTime expresses t in the application timezone. The instant is unchanged.
func ToAppTime(t time.Time) time.Time {
	return t.In(appLocation)
}

func GetLocation() *time.Location {
	return appLocation
}

// Parse reads value as a wall-clock time in the application timezone.
func Parse(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, appLocation)
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}

// Combine joins the calendar day of date with the wall-clock of timeOfDay,
// in the application timezone. Both inputs are read as wall-clock values in
// whatever location they carry, which is how DATE and TIME columns come back
// from the driver.
func Combine(date, timeOfDay time.Time) time.Time {
	year, month, day := date.Date()
	hour, minute, sec := timeOfDay.Clock()

	return time.Date(year, month, day, hour, minute, sec, 0, appLocation)
}

// SQLTimestamp formats t as a wall-clock literal in the application timezone.
func SQLTimestamp(t time.Time) string {
	return Format(t, LayoutSQLTimestamp)
}
