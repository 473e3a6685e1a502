// main.go
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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/database"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/services"
)

func main() {
	var skipAuthorizer, skipServer bool
	flag.BoolVar(&skipAuthorizer, "skip-authorizer", false, "do not check the Authorizer service")
	flag.BoolVar(&skipServer, "skip-server", false, "do not check the store server listening on PORT")
	flag.Parse()

	ctx := context.Background()

	log := logging.Logger

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.InitWithOutput("healthcheck", cfg.LogLevel, os.Stderr)

	// Connect to database (app pool)
	appDB, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(appDB)

	result := services.HealthCheck(ctx, cfg, appDB, skipAuthorizer)
	if !skipServer {
		services.CheckServer(ctx, cfg, &result)
	}

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}
	fmt.Println(string(output))

	if !result.Healthy() {
		database.Close(appDB)
		os.Exit(1)
	}
}
