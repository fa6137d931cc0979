package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"roombook/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const migrationsSource = "file://migrations/postgres"

// ErrUnknownAction is returned for directions other than up, down, drop and step-up.
var ErrUnknownAction = errors.New("unknown migration action")

type action struct {
	apply func(*migrate.Migrate) error
	done  string
}

var actions = map[string]action{
	"up":      {apply: (*migrate.Migrate).Up, done: "Schema migrated to the latest version"},
	"step-up": {apply: func(m *migrate.Migrate) error { return m.Steps(1) }, done: "Schema migrated one version up"},
	"down":    {apply: func(m *migrate.Migrate) error { return m.Steps(-1) }, done: "Schema rolled back one version"},
	"drop":    {apply: (*migrate.Migrate).Down, done: "Schema rolled back completely"},
}

// databaseURL points golang-migrate at the write node.
func databaseURL(cfg *config.Config) string {
	pg := cfg.DB.Postgres

	return pg.Write.DSN(pg.Prefix, url.Values{"x-migrations-table": {pg.MigrationTable}})
}

// Runner applies direction to the schema under migrations/postgres. Unknown
// directions are rejected before a connection is opened.
func Runner(cfg *config.Config, direction string) error {
	act, ok := actions[direction]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, direction)
	}

	mig, err := migrate.New(migrationsSource, databaseURL(cfg))
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	defer func() {
		if srcErr, dbErr := mig.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrate instance")
		}
	}()

	if err := act.apply(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	log.Info().Str("direction", direction).Uint("version", version).Bool("dirty", dirty).Msg(act.done)

	return nil
}

func Up(cfg *config.Config) error {
	return Runner(cfg, "up")
}
