// Package store implements the case core's persistence on PostgreSQL.
//
// Every repository takes the shared pgx pool in its constructor. Primary
// case mutations go through conditional UPDATE ... RETURNING statements so
// that concurrent admins cannot overwrite each other; history, notification
// and disbursement tables are append-only.
package store

import (
	sq "github.com/Masterminds/squirrel"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
