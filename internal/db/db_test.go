package db

import (
	"testing"

	"github.com/senyabanana/clinic-offer-service/internal/router/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	conn, err := ConnString(config.Config{PostgresConn: "postgres://a:b@h:1/d"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://a:b@h:1/d", conn)

	conn, err = ConnString(config.Config{
		PostgresUser: "clinic",
		PostgresPass: "p@ss",
		PostgresHost: "db",
		PostgresPort: "5432",
		PostgresDB:   "clinic_offers",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://clinic:p%40ss@db:5432/clinic_offers?sslmode=disable", conn)

	_, err = ConnString(config.Config{PostgresHost: "db"})
	assert.Error(t, err)
}
