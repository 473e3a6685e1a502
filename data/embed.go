// Package data embeds the database initialization scripts.
package data

import (
	_ "embed"
	"os"
)

//go:embed initdb/mariadb/002-ddl-tables.sql
var InitdbMariaDBTables string

//go:embed initdb/mariadb/003-ddl-privileges.sql
var InitdbMariaDBPrivileges string

// Expand substitutes ${NAME} placeholders in an init script from vars
func Expand(script string, vars map[string]string) string {
	return os.Expand(script, func(name string) string {
		return vars[name]
	})
}
