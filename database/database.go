// Package database carries the schema migrations, embedded so a deployed
// binary never depends on a migrations directory on disk.
package database

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
