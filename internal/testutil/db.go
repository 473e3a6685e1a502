// db.go
//
// A row-level secured property, delivery instruction and package store for landlords
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of landlord-propsdb.
// landlord-propsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// landlord-propsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with landlord-propsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package testutil holds shared test helpers: databases, fixtures, response asserts and containers.
package testutil

import (
	"testing"

	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/database"
	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory sqlite database that is closed with the test.
// A single connection keeps every statement on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DBType:               "sqlite-purego",
		DBAppDatabase:        ":memory:",
		DBAppConnectionLimit: 1,
		LogLevel:             "error",
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}

// CreateProperty inserts a property owned by landlordID, with optional instructions
func CreateProperty(t testing.TB, db *gorm.DB, landlordID, name string, instructions *models.PropertyInstructions) *models.Property {
	t.Helper()

	p := &models.Property{
		LandlordID:         landlordID,
		Name:               name,
		Address:            name + " address",
		AuthorizedServices: models.StringSet{"UPS"},
	}
	require.NoError(t, db.Omit("Instructions").Create(p).Error, "failed to create property")

	if instructions != nil {
		instructions.PropertyID = p.ID
		require.NoError(t, db.Create(instructions).Error, "failed to create instructions")
		p.Instructions = []models.PropertyInstructions{*instructions}
	}

	return p
}

// CreatePackage inserts a package owned by landlordID
func CreatePackage(t testing.TB, db *gorm.DB, landlordID, tracking string) *models.Package {
	t.Helper()

	pkg := &models.Package{
		LandlordID:     landlordID,
		Recipient:      "Tenant",
		Carrier:        "UPS",
		TrackingNumber: tracking,
	}
	require.NoError(t, db.Create(pkg).Error, "failed to create package")
	return pkg
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
