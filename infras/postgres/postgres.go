package postgres

//nolint:revive
import (
	"errors"
	"fmt"
	"roombook/config"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

var ErrConnectionExhausted = errors.New("could not connect to database")

type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// New opens the write pool and, when a separate read host is configured, a
// read pool. Without one, reads share the write pool.
func New(cfg *config.Config) (*Connection, func(), error) {
	pg := cfg.DB.Postgres

	write, err := connect("write", pg.Write, pg.Prefix, pg.MaxRetry, pg.RetryWaitTime)
	if err != nil {
		return nil, nil, err
	}

	conn := &Connection{Read: write, Write: write}

	if pg.Read.Host != "" && (pg.Read.Host != pg.Write.Host || pg.Read.Port != pg.Write.Port) {
		read, err := connect("read", pg.Read, pg.Prefix, pg.MaxRetry, pg.RetryWaitTime)
		if err != nil {
			_ = write.Close()

			return nil, nil, err
		}

		conn.Read = read
	}

	return conn, conn.Close, nil
}

// Close releases both pools.
func (c *Connection) Close() {
	if c.Read != nil && c.Read != c.Write {
		if err := c.Read.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close read connection")
		}
	}

	if c.Write != nil {
		if err := c.Write.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close write connection")
		}
	}
}

func connect(name string, node config.PostgresNode, prefix string, maxRetry, waitTime int) (*sqlx.DB, error) {
	var lastErr error

	logger := log.With().Str("name", name).Str("host", node.Host).Str("dbName", prefix+node.Name).Logger()

	for attempt := 1; attempt <= max(maxRetry, 1); attempt++ {
		db, err := sqlx.Connect("postgres", node.DSN(prefix, nil))
		if err == nil {
			db.SetMaxIdleConns(postgresMaxIdleConnection)
			db.SetMaxOpenConns(postgresMaxOpenConnection)
			db.SetConnMaxLifetime(postgresConnMaxLifetime)

			logger.Info().Msg("Connected to database")

			return db, nil
		}

		lastErr = err

		logger.Error().Err(err).Int("attempt", attempt).Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(waitTime) * time.Second)
	}

	return nil, fmt.Errorf("%w (%s): %w", ErrConnectionExhausted, name, lastErr)
}
