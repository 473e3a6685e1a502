// tables.go
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

package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/middleware"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/localnerve/landlord-propsdb/internal/utils"
)

// TableHandler serves the row-level-secured table API under /rest/v1
type TableHandler struct {
	Store *gormstore.Client
}

// scoped returns the store restricted to the authenticated landlord's rows
func (h *TableHandler) scoped(c *fiber.Ctx) (*gormstore.Client, error) {
	p := middleware.Principal(c)
	if p == nil || p.ID == "" {
		return nil, store.Forbidden("No authenticated user")
	}
	return h.Store.WithOwner(p.ID), nil
}

// Select handles GET /rest/v1/:table
// @Summary Select rows
// @Description Select the authenticated landlord's rows from a table, with optional embeds, filters, order and limit
// @Tags Tables
// @Produce json
// @Param table path string true "Table name"
// @Param select query string false "Select list, e.g. *,property_instructions(*)"
// @Param order query string false "Order, e.g. created_at.desc"
// @Param limit query int false "Row limit"
// @Success 200 {array} object
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /rest/v1/{table} [get]
func (h *TableHandler) Select(c *fiber.Ctx) error {
	client, err := h.scoped(c)
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}

	q, err := parseQuery(c)
	if err != nil {
		return utils.StoreErrorResponse(c, store.BadRequest(err.Error()))
	}

	rows, err := client.Select(c.UserContext(), c.Params("table"), q)
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}
	return utils.RowsResponse(c, rows, fiber.StatusOK)
}

// Insert handles POST /rest/v1/:table
// @Summary Insert rows
// @Description Insert one row or an array of rows. The owner column is set to the authenticated landlord.
// @Tags Tables
// @Accept json
// @Produce json
// @Param table path string true "Table name"
// @Param Prefer header string false "return=representation to receive the inserted rows"
// @Param body body object true "Row or array of rows"
// @Success 201 {array} object
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /rest/v1/{table} [post]
func (h *TableHandler) Insert(c *fiber.Ctx) error {
	client, err := h.scoped(c)
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}

	body := c.Body()
	if !json.Valid(body) {
		return utils.StoreErrorResponse(c, store.BadRequest("Invalid input: body is not JSON"))
	}

	table := c.Params("table")
	rows, err := client.Insert(c.UserContext(), table, json.RawMessage(body))
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}

	logging.Logger.WithField("table", table).Debug("rows inserted")
	if !wantsRepresentation(c) {
		return c.SendStatus(fiber.StatusCreated)
	}
	return utils.RowsResponse(c, rows, fiber.StatusCreated)
}

// Update handles PATCH /rest/v1/:table
// @Summary Update rows
// @Description Overwrite the named columns of the rows matching the filters
// @Tags Tables
// @Accept json
// @Param table path string true "Table name"
// @Param body body object true "Columns to overwrite"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /rest/v1/{table} [patch]
func (h *TableHandler) Update(c *fiber.Ctx) error {
	client, err := h.scoped(c)
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}

	filters, err := parseFilters(c)
	if err != nil {
		return utils.StoreErrorResponse(c, store.BadRequest(err.Error()))
	}

	body := c.Body()
	if !json.Valid(body) {
		return utils.StoreErrorResponse(c, store.BadRequest("Invalid input: body is not JSON"))
	}

	if err := client.Update(c.UserContext(), c.Params("table"), json.RawMessage(body), filters...); err != nil {
		return utils.StoreErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete handles DELETE /rest/v1/:table
// @Summary Delete rows
// @Description Delete the rows matching the filters
// @Tags Tables
// @Param table path string true "Table name"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /rest/v1/{table} [delete]
func (h *TableHandler) Delete(c *fiber.Ctx) error {
	client, err := h.scoped(c)
	if err != nil {
		return utils.StoreErrorResponse(c, err)
	}

	filters, err := parseFilters(c)
	if err != nil {
		return utils.StoreErrorResponse(c, store.BadRequest(err.Error()))
	}

	if err := client.Delete(c.UserContext(), c.Params("table"), filters...); err != nil {
		return utils.StoreErrorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CurrentUser handles GET /auth/v1/user
// @Summary Current user
// @Description Return the user the session cookie belongs to
// @Tags Auth
// @Produce json
// @Success 200 {object} store.Principal
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /auth/v1/user [get]
func CurrentUser(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	if p == nil {
		return utils.StoreErrorResponse(c, store.Forbidden("No authenticated user"))
	}
	return utils.SuccessResponse(c, p, fiber.StatusOK)
}
