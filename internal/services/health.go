// health.go
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

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Server       string            `json:"server,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Healthy reports whether every check passed
func (r HealthCheckResult) Healthy() bool {
	return r.Status == "healthy"
}

func (r *HealthCheckResult) failed(message string) {
	r.Status = "unhealthy"
	if r.ErrorMessage == "" {
		r.ErrorMessage = message
	} else {
		r.ErrorMessage += "; " + message
	}
}

// HealthCheck checks the database and, unless skipAuthorizer, the Authorizer service.
// Each check is bounded by cfg.HealthTimeout.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, skipAuthorizer bool) HealthCheckResult {
	log := logging.Logger
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}
	timeout := cfg.HealthTimeout
	if timeout <= 0 {
		timeout = utils.DefaultPingTimeout
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.failed(fmt.Sprintf("Database connection error: %v", err))
		log.Warnf("Health check failed - database connection: %v", err)
	} else if err := pingDatabase(ctx, sqlDB.PingContext, timeout); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.failed(fmt.Sprintf("Database ping failed: %v", err))
		log.Warnf("Health check failed - database ping: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBAppDatabase
	}

	switch {
	case skipAuthorizer:
		result.Authorizer = "skipped"
	case cfg.AuthzURL == "":
		result.Authorizer = "unconfigured"
	default:
		if err := utils.PingAuthorizer(ctx, cfg.AuthzURL, timeout); err != nil {
			result.Authorizer = "unreachable"
			result.Details["authorizer_error"] = err.Error()
			result.failed(fmt.Sprintf("Authorizer ping failed: %v", err))
			log.Warnf("Health check failed - authorizer ping: %v", err)
		} else {
			result.Authorizer = "ok"
			result.Details["authorizer_url"] = cfg.AuthzURL
		}
	}

	if result.Healthy() {
		log.Debug("Health check passed - all systems operational")
	}
	return result
}

// CheckServer adds the reachability of the store server listening on cfg.Port to result
func CheckServer(ctx context.Context, cfg *config.Config, result *HealthCheckResult) {
	if err := utils.PingStore(ctx, cfg.Port, cfg.HealthTimeout); err != nil {
		result.Server = "unreachable"
		if result.Details == nil {
			result.Details = make(map[string]string)
		}
		result.Details["server_error"] = err.Error()
		result.failed(fmt.Sprintf("Store server ping failed: %v", err))
		logging.Logger.Warnf("Health check failed - store server ping: %v", err)
		return
	}
	result.Server = "ok"
}

func pingDatabase(ctx context.Context, ping func(context.Context) error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return ping(ctx)
}
