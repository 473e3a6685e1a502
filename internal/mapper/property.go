// property.go
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

// Package mapper translates between stored property rows and the internal Property record.
//
// Two stored shapes exist. The normalized shape (snake_case columns, a linked
// property_instructions table, landlord ownership) is the one the store serves. The flat
// shape (camelCase columns with an embedded accessInformation object) only exists in legacy
// exports and is read for import. Each shape has its own row type and its own Mapper.
//
// Mapping is permissive: null or malformed optional values become their empty value
// instead of failing.
package mapper

import (
	"strings"
	"time"
)

// Delivery services a property can authorize
const (
	ServiceUPS    = "UPS"
	ServiceUSPS   = "USPS"
	ServiceFedEx  = "FedEx"
	ServiceAmazon = "Amazon"
	ServiceDHL    = "DHL"
)

// Services lists the known delivery services in display order
var Services = []string{ServiceUPS, ServiceUSPS, ServiceFedEx, ServiceAmazon, ServiceDHL}

// PropertyTypes lists the known property kinds
var PropertyTypes = []string{"apartment", "house", "condo", "townhouse"}

// Property is the internal property record
type Property struct {
	ID                 string
	LandlordID         string
	Name               string
	Address            string
	UnitCount          *int
	PropertyType       string
	AuthorizedServices []string
	Instructions       *Instructions
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Instructions are the delivery instructions of a property. A property has at most one.
type Instructions struct {
	ID                  string
	PropertyID          string
	PackageLocation     string
	AccessCode          string
	AccessNotes         string
	SpecialInstructions string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsBlank reports whether no instruction text is set
func (i *Instructions) IsBlank() bool {
	return i == nil ||
		(i.PackageLocation == "" && i.AccessCode == "" && i.AccessNotes == "" && i.SpecialInstructions == "")
}

// Clone returns a deep copy of the property
func (p Property) Clone() Property {
	c := p
	if p.UnitCount != nil {
		n := *p.UnitCount
		c.UnitCount = &n
	}
	if p.AuthorizedServices != nil {
		c.AuthorizedServices = append([]string(nil), p.AuthorizedServices...)
	}
	if p.Instructions != nil {
		in := *p.Instructions
		c.Instructions = &in
	}
	return c
}

// HasService reports whether the property authorizes service
func (p Property) HasService(service string) bool {
	for _, s := range p.AuthorizedServices {
		if strings.EqualFold(s, service) {
			return true
		}
	}
	return false
}

// Mapper converts between a stored row shape R and Property
type Mapper[R any] interface {
	// ToInternal never fails; absent optionals become empty values
	ToInternal(row R) Property
	// ToExternal omits store-assigned identifiers and timestamps
	ToExternal(p Property) R
}

// CanonicalService returns the known spelling of a service name, or the trimmed input
func CanonicalService(name string) string {
	name = strings.TrimSpace(name)
	for _, s := range Services {
		if strings.EqualFold(s, name) {
			return s
		}
	}
	return name
}

// NormalizeServices trims, canonicalizes and de-duplicates services.
// The result is never nil.
func NormalizeServices(services []string) []string {
	out := make([]string, 0, len(services))
	seen := make(map[string]struct{}, len(services))
	for _, s := range services {
		s = CanonicalService(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
