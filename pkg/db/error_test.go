package db

import (
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "translated", err: fmt.Errorf("insert room: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "postgres fk", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "mysql duplicate", err: &mysqldriver.MySQLError{Number: 1062}, want: true},
		{name: "mysql other", err: &mysqldriver.MySQLError{Number: 1452}, want: false},
		{name: "sqlite", err: errors.New("constraint failed: UNIQUE constraint failed: rooms.room_number (2067)"), want: true},
		{name: "unrelated", err: errors.New("connection reset"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
