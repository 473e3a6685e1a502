// client.go
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

// Package gormstore implements the table store contract over gorm.
package gormstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
	"gorm.io/hints"
)

// Parent scopes a table through the owner of a parent row
type Parent struct {
	Column      string // foreign key on this table
	Table       string // parent table
	Key         string // parent primary key
	OwnerColumn string // owner column on the parent
}

// Table registers a model under a table name
type Table struct {
	Name   string
	Model  any               // pointer to a zero model
	Owner  string            // owner column, if rows are owned directly
	Parent *Parent           // parent scoping, if rows are owned through a parent
	Embeds map[string]string // embed name -> association field
}

// Client is a store.Client over a gorm database.
// A Client with an owner applies row-level scoping to every operation.
type Client struct {
	db     *gorm.DB
	tables map[string]Table
	cache  *sync.Map
	owner  string
}

var _ store.Client = (*Client)(nil)

// DefaultTables returns the tables served by the landlord store
func DefaultTables() []Table {
	propertyParent := &Parent{
		Column:      "property_id",
		Table:       store.TableProperties,
		Key:         "id",
		OwnerColumn: "landlord_id",
	}
	return []Table{
		{
			Name:   store.TableProperties,
			Model:  &models.Property{},
			Owner:  "landlord_id",
			Embeds: map[string]string{store.TablePropertyInstructions: "Instructions"},
		},
		{
			Name:   store.TablePropertyInstructions,
			Model:  &models.PropertyInstructions{},
			Parent: propertyParent,
		},
		{Name: store.TablePackages, Model: &models.Package{}, Owner: "landlord_id"},
		{Name: store.TablePackageClaims, Model: &models.PackageClaim{}, Owner: "landlord_id"},
		{Name: store.TablePropertyUpdates, Model: &models.PropertyUpdate{}, Owner: "landlord_id"},
	}
}

// New creates an unscoped client serving the given tables (DefaultTables when none)
func New(db *gorm.DB, tables ...Table) *Client {
	if len(tables) == 0 {
		tables = DefaultTables()
	}
	c := &Client{
		db:     db,
		tables: make(map[string]Table, len(tables)),
		cache:  &sync.Map{},
	}
	for _, t := range tables {
		c.tables[t.Name] = t
	}
	return c
}

// WithOwner returns a client scoped to rows owned by ownerID
func (c *Client) WithOwner(ownerID string) *Client {
	scoped := *c
	scoped.owner = ownerID
	return &scoped
}

// Owner returns the scoping owner, empty when unscoped
func (c *Client) Owner() string {
	return c.owner
}

// Tables lists the served table names
func (c *Client) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements store.Client
func (c *Client) Select(ctx context.Context, table string, q store.Query) ([]byte, error) {
	t, sch, err := c.lookup(table)
	if err != nil {
		return nil, err
	}

	tx := c.db.WithContext(ctx).
		Model(newModel(t)).
		Clauses(hints.Comment("select", "propsdb:"+t.Name))
	tx = c.scope(tx, t)

	if tx, err = applyFilters(tx, sch, t, q.Filters); err != nil {
		return nil, err
	}

	for _, o := range q.Order {
		field, err := column(sch, t, o.Column)
		if err != nil {
			return nil, err
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: field.DBName}, Desc: !o.Ascending})
	}

	for _, embed := range q.Embed {
		assoc, ok := t.Embeds[embed]
		if !ok {
			return nil, store.BadRequest(fmt.Sprintf("Could not find a relationship between '%s' and '%s'", t.Name, embed))
		}
		tx = tx.Preload(assoc)
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	rows := newSlice(t)
	if err := tx.Find(rows).Error; err != nil {
		return nil, translateError(err)
	}

	return marshalRows(rows)
}

// Insert implements store.Client. rows may be a single row or a slice of rows.
func (c *Client) Insert(ctx context.Context, table string, rows any) ([]byte, error) {
	t, sch, err := c.lookup(table)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}

	var input types.FlexList[map[string]json.RawMessage]
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}
	if len(input) == 0 {
		return nil, store.BadRequest("Invalid input: no rows to insert")
	}

	var parentKeys []string
	for _, row := range input {
		if err := sanitizeRow(sch, t, row); err != nil {
			return nil, err
		}
		delete(row, "created_at")
		delete(row, "updated_at")
		if t.Owner != "" && c.owner != "" {
			row[t.Owner] = mustJSON(c.owner)
		}
		if t.Parent != nil {
			parentKeys = append(parentKeys, stringValue(row[t.Parent.Column]))
		}
	}

	created := newSlice(t)
	if err := decodeInto(input, created); err != nil {
		return nil, err
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.checkParent(tx, t, parentKeys); err != nil {
			return err
		}
		return tx.Clauses(hints.CommentBefore("insert", "propsdb:"+t.Name)).
			Omit(clause.Associations).
			Create(created).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	return marshalRows(created)
}

// Update implements store.Client. The patch overwrites exactly the columns it names.
func (c *Client) Update(ctx context.Context, table string, patch any, filters ...store.Filter) error {
	t, sch, err := c.lookup(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return store.BadRequest("UPDATE requires a WHERE clause")
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}
	var row map[string]json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		return store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}
	if err := sanitizeRow(sch, t, row); err != nil {
		return err
	}

	// identity and ownership are not client-mutable
	delete(row, "id")
	delete(row, "created_at")
	if t.Owner != "" {
		delete(row, t.Owner)
	}
	if len(row) == 0 {
		return store.BadRequest("Invalid input: empty patch")
	}
	row["updated_at"] = mustJSON(time.Now().UTC())

	columns := make([]string, 0, len(row))
	for key := range row {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	values := newModel(t)
	if err := decodeInto(row, values); err != nil {
		return err
	}

	var affected int64
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.Parent != nil {
			if key, ok := row[t.Parent.Column]; ok {
				if err := c.checkParent(tx, t, []string{stringValue(key)}); err != nil {
					return err
				}
			}
		}

		q := c.scope(tx.Model(newModel(t)), t)
		q, err := applyFilters(q, sch, t, filters)
		if err != nil {
			return err
		}
		result := q.Select(columns).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return translateError(err)
	}
	if affected == 0 {
		return store.NotFound(fmt.Sprintf("No rows in '%s' matched the update", t.Name))
	}

	return nil
}

// Delete implements store.Client. Deleting zero rows is not an error.
func (c *Client) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	t, sch, err := c.lookup(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return store.BadRequest("DELETE requires a WHERE clause")
	}

	tx := c.scope(c.db.WithContext(ctx), t)
	if tx, err = applyFilters(tx, sch, t, filters); err != nil {
		return err
	}
	if err := tx.Delete(newModel(t)).Error; err != nil {
		return translateError(err)
	}

	return nil
}

func (c *Client) lookup(table string) (Table, *schema.Schema, error) {
	t, ok := c.tables[table]
	if !ok {
		return Table{}, nil, store.NotFound(fmt.Sprintf("Relation '%s' does not exist", table))
	}
	sch, err := schema.Parse(t.Model, c.cache, c.db.NamingStrategy)
	if err != nil {
		return Table{}, nil, fmt.Errorf("failed to parse schema for %s: %w", table, err)
	}
	return t, sch, nil
}

// scope applies row-level ownership to a statement
func (c *Client) scope(tx *gorm.DB, t Table) *gorm.DB {
	if c.owner == "" {
		return tx
	}
	if t.Owner != "" {
		return tx.Where(clause.Eq{Column: clause.Column{Name: t.Owner}, Value: c.owner})
	}
	if t.Parent != nil {
		owned := c.db.Session(&gorm.Session{NewDB: true}).
			Table(t.Parent.Table).
			Select(t.Parent.Key).
			Where(clause.Eq{Column: clause.Column{Name: t.Parent.OwnerColumn}, Value: c.owner})
		return tx.Where(fmt.Sprintf("%s IN (?)", t.Parent.Column), owned)
	}
	return tx
}

// checkParent verifies the scoping owner owns every referenced parent row
func (c *Client) checkParent(tx *gorm.DB, t Table, keys []string) error {
	if c.owner == "" || t.Parent == nil {
		return nil
	}

	unique := make(map[string]struct{}, len(keys))
	values := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		if _, seen := unique[k]; seen {
			continue
		}
		unique[k] = struct{}{}
		values = append(values, k)
	}

	var count int64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Table(t.Parent.Table).
		Where(clause.IN{Column: clause.Column{Name: t.Parent.Key}, Values: values}).
		Where(clause.Eq{Column: clause.Column{Name: t.Parent.OwnerColumn}, Value: c.owner}).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(len(values)) {
		return store.Forbidden(fmt.Sprintf("New row violates row-level security policy for table '%s'", t.Name))
	}
	return nil
}

func applyFilters(tx *gorm.DB, sch *schema.Schema, t Table, filters []store.Filter) (*gorm.DB, error) {
	for _, f := range filters {
		field, err := column(sch, t, f.Column)
		if err != nil {
			return nil, err
		}
		col := clause.Column{Name: field.DBName}
		switch f.Operator {
		case store.OpEq:
			tx = tx.Where(clause.Eq{Column: col, Value: f.Value})
		case store.OpNeq:
			tx = tx.Where(clause.Neq{Column: col, Value: f.Value})
		case store.OpIn:
			in := f.InValues()
			values := make([]interface{}, len(in))
			for i, v := range in {
				values[i] = v
			}
			tx = tx.Where(clause.IN{Column: col, Values: values})
		default:
			return nil, store.BadRequest(fmt.Sprintf("Unsupported operator '%s'", f.Operator))
		}
	}
	return tx, nil
}

// column resolves a column name against the table schema
func column(sch *schema.Schema, t Table, name string) (*schema.Field, error) {
	field := sch.LookUpField(name)
	if field == nil || field.DBName != name {
		return nil, store.BadRequest(fmt.Sprintf("Column '%s' of relation '%s' does not exist", name, t.Name))
	}
	return field, nil
}

// sanitizeRow rejects keys that are not writable columns
func sanitizeRow(sch *schema.Schema, t Table, row map[string]json.RawMessage) error {
	for key := range row {
		if _, embedded := t.Embeds[key]; embedded {
			return store.BadRequest(fmt.Sprintf("Embedded writes to '%s' are not supported", key))
		}
		if _, err := column(sch, t, key); err != nil {
			return err
		}
	}
	return nil
}

func decodeInto(v any, dest any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return store.BadRequest(fmt.Sprintf("Invalid input: %v", err))
	}
	return nil
}

func marshalRows(rows any) ([]byte, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Ptr && v.Elem().Kind() == reflect.Slice && v.Elem().Len() == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(rows)
}

func newModel(t Table) any {
	return reflect.New(reflect.TypeOf(t.Model).Elem()).Interface()
}

func newSlice(t Table) any {
	return reflect.New(reflect.SliceOf(reflect.TypeOf(t.Model).Elem())).Interface()
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(bytes.TrimSpace(raw), &s); err != nil {
		return string(raw)
	}
	return s
}

// IsNotFound reports whether err is a store not-found error
func IsNotFound(err error) bool {
	var se *store.Error
	return errors.As(err, &se) && se.Type == store.TypeNotFound
}
