// Command inspect_schema prints the tables gorm migrates for the store models,
// for comparing against the MariaDB init scripts in data/initdb.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/database"
	"gorm.io/gorm"
)

func main() {
	dbType := flag.String("driver", "sqlite", "sqlite or sqlite-purego")
	flag.Parse()

	dialector, err := database.Dialector(&config.Config{DBType: *dbType, DBAppDatabase: ":memory:"})
	if err != nil {
		log.Fatal(err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var ddl string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&ddl)
		fmt.Println(ddl)

		var indexes []string
		db.Raw("SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name = ? AND sql IS NOT NULL", table).Scan(&indexes)
		for _, idx := range indexes {
			fmt.Println(idx)
		}
	}
}
