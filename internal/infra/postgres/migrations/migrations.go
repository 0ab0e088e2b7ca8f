package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_duels.sql
var createDuelsSQL string

//go:embed 0002_create_reset_history.sql
var createResetHistorySQL string

var Migrations = migrate.NewMigrations()
