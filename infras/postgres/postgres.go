package postgres

import (
	"fmt"
	"net"
	"time"

	"fleet/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
)

type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(config *config.Config) *Connection {
	return &Connection{
		Read:  createReadConn(*config),
		Write: createWriteConn(*config),
	}
}

func createWriteConn(config config.Config) *sqlx.DB {
	pg := config.DB.Postgres

	return createConnection("write", pg.Write.Username, pg.Write.Password, pg.Write.Host, pg.Write.Port, pg.Write.Name, pg.Write.SSLMode, pg.MaxRetry, pg.RetryWaitTime)
}

func createReadConn(config config.Config) *sqlx.DB {
	pg := config.DB.Postgres

	return createConnection("read", pg.Read.Username, pg.Read.Password, pg.Read.Host, pg.Read.Port, pg.Read.Name, pg.Read.SSLMode, pg.MaxRetry, pg.RetryWaitTime)
}

func createConnection(name, username, password, host, port, dbName, sslMode string, maxRetry, waitTime int) *sqlx.DB {
	descriptor := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		username,
		password,
		net.JoinHostPort(host, port),
		dbName,
		sslMode,
	)

	for retry := range maxRetry {
		sqlDB, err := sqlx.Connect("postgres", descriptor)
		if err == nil {
			log.
				Info().
				Str("name", name).
				Str("host", host).
				Str("port", port).
				Str("dbName", dbName).
				Msg("Connected to database")
			sqlDB.SetMaxIdleConns(postgresMaxIdleConnection)
			sqlDB.SetMaxOpenConns(postgresMaxOpenConnection)

			return sqlDB
		}

		log.
			Error().
			Err(err).
			Str("name", name).
			Str("host", host).
			Str("port", port).
			Str("dbName", dbName).
			Int("attempt", retry+1).
			Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(waitTime) * time.Second)
	}

	return nil
}
