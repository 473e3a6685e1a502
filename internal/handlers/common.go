// common.go
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
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// reserved query parameters, everything else is a column filter
const (
	paramSelect = "select"
	paramOrder  = "order"
	paramLimit  = "limit"
)

// parseQuery reads a store.Query from the request's query parameters:
// select=*,embed(*) order=col.desc,col2 limit=n col=op.value
func parseQuery(c *fiber.Ctx) (store.Query, error) {
	var q store.Query

	args := c.Context().QueryArgs()
	for key, value := range args.All() {
		k, v := string(key), string(value)
		switch k {
		case paramSelect:
			embeds, err := parseSelect(v)
			if err != nil {
				return q, err
			}
			q.Embed = append(q.Embed, embeds...)
		case paramOrder:
			orders, err := store.ParseOrder(v)
			if err != nil {
				return q, err
			}
			q.Order = append(q.Order, orders...)
		case paramLimit:
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return q, fmt.Errorf("invalid limit %q", v)
			}
			q.Limit = n
		default:
			f, err := store.ParseFilter(k, v)
			if err != nil {
				return q, err
			}
			q.Filters = append(q.Filters, f)
		}
	}

	return q, nil
}

// parseFilters reads only column filters, for mutations
func parseFilters(c *fiber.Ctx) ([]store.Filter, error) {
	q, err := parseQuery(c)
	if err != nil {
		return nil, err
	}
	return q.Filters, nil
}

// parseSelect extracts embed names from a select list such as
// "*,property_instructions(*)". Plain columns select nothing narrower than *.
func parseSelect(expr string) ([]string, error) {
	var embeds []string
	depth := 0
	start := 0
	for i := 0; i <= len(expr); i++ {
		if i < len(expr) {
			switch expr[i] {
			case '(':
				depth++
				continue
			case ')':
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("invalid select %q", expr)
				}
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}

		part := strings.TrimSpace(expr[start:i])
		start = i + 1
		if name, _, ok := strings.Cut(part, "("); ok {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("invalid select %q", expr)
			}
			embeds = append(embeds, name)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("invalid select %q", expr)
	}
	return embeds, nil
}

// wantsRepresentation reports whether the client asked for the written rows back
func wantsRepresentation(c *fiber.Ctx) bool {
	for _, pref := range strings.Split(c.Get("Prefer"), ",") {
		if strings.TrimSpace(pref) == "return=representation" {
			return true
		}
	}
	return false
}
