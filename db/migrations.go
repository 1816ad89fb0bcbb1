// Package db ships the SQL schema so binaries can migrate without a checkout.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsRoot = "migrations"
