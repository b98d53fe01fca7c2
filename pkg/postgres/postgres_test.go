package postgres

import (
	"testing"

	"github.com/DRSN-tech/storefront-catalog/internal/cfg"
	"github.com/stretchr/testify/assert"
)

func TestDSNQuotesPassword(t *testing.T) {
	c := &cfg.PGDBCfg{
		Host: "db", Port: "5432", User: "shop", DBName: "catalog", SSLMode: "disable",
		Password: `it's a pass`,
	}

	assert.Equal(t,
		`host=db port=5432 user=shop password='it\'s a pass' dbname=catalog sslmode=disable`,
		DSN(c),
	)

	c.Password = "plain"
	assert.Contains(t, DSN(c), "password=plain ")
}
