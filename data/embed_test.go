package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	vars := map[string]string{"DB_APP_DATABASE": "landlord", "DB_APP_USER": "app"}

	got := Expand(InitdbMariaDBPrivileges, vars)
	assert.Contains(t, got, "ON landlord.* TO 'app'@'%'")
	assert.NotContains(t, got, "${")

	tables := Expand(InitdbMariaDBTables, vars)
	for _, table := range []string{"properties", "property_instructions", "packages", "package_claims", "property_updates"} {
		assert.True(t, strings.Contains(tables, "landlord."+table+" ("), table)
	}
}
