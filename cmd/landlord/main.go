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

// Package main provides the landlord CLI: manage properties, delivery
// instructions and package records through the store's HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/store/rest"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries what every subcommand needs once the root has initialized
type cli struct {
	envFile    string
	jsonOutput bool
	cfg        *config.ClientConfig
	client     *rest.Client
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:   "landlord",
		Short: "Manage landlord properties and packages",
		Long: `landlord manages properties, their delivery instructions and package
records in the landlord store.

The store is configured from the environment:
  STORE_URL      base URL of the store (default http://localhost:3000)
  STORE_SESSION  session cookie of the signed in landlord
  STORE_TIMEOUT  per-request timeout (default 10s)`,
		SilenceUsage:      true,
		PersistentPreRunE: app.init,
	}

	root.PersistentFlags().StringVar(&app.envFile, "env", "", "load environment variables from this .env file")
	root.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		app.propertiesCmd(),
		app.packagesCmd(),
		app.claimsCmd(),
		app.updatesCmd(),
		app.whoamiCmd(),
	)
	return root
}

// init loads configuration and builds the store client
func (app *cli) init(cmd *cobra.Command, _ []string) error {
	if app.envFile != "" {
		if err := godotenv.Load(app.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.InitWithOutput("landlord", cfg.LogLevel, cmd.ErrOrStderr())

	app.cfg = cfg
	app.client = rest.NewFromConfig(cfg)
	return nil
}
