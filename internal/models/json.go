package models

import (
	"database/sql/driver"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringSet is a JSON array column of strings backed by gorm.io/datatypes.JSONSlice.
// NULL scans to an empty set so callers never see a nil set from the store.
type StringSet []string

// Value stores the set as a JSON array
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}
	return datatypes.JSONSlice[string](s).Value()
}

// Scan reads a JSON array column
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	var js datatypes.JSONSlice[string]
	if err := js.Scan(value); err != nil {
		return err
	}
	if js == nil {
		js = datatypes.JSONSlice[string]{}
	}
	*s = StringSet(js)
	return nil
}

// GormDataType is the generic data type used by the migrator
func (StringSet) GormDataType() string {
	return "json"
}

// GormDBDataType ensures the correct data type is used for each database driver.
// MSSQL does not support the 'json' data type.
func (StringSet) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return jsonColumnType(db)
}

func jsonColumnType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
