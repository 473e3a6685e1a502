// Package records provides CRUD over the landlord's record tables: packages,
// package claims and property updates.
package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/localnerve/landlord-propsdb/internal/models"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// Service reads and writes rows of one table as T
type Service[T any] struct {
	client store.Client
	table  string
}

// New creates a service for table
func New[T any](client store.Client, table string) *Service[T] {
	return &Service[T]{client: client, table: table}
}

// Packages returns the packages service
func Packages(client store.Client) *Service[models.Package] {
	return New[models.Package](client, store.TablePackages)
}

// Claims returns the package claims service
func Claims(client store.Client) *Service[models.PackageClaim] {
	return New[models.PackageClaim](client, store.TablePackageClaims)
}

// Updates returns the property updates service
func Updates(client store.Client) *Service[models.PropertyUpdate] {
	return New[models.PropertyUpdate](client, store.TablePropertyUpdates)
}

// Table returns the table name
func (s *Service[T]) Table() string {
	return s.table
}

// List returns rows matching filters, newest first
func (s *Service[T]) List(ctx context.Context, filters ...store.Filter) ([]T, error) {
	data, err := s.client.Select(ctx, s.table, store.Query{
		Filters: filters,
		Order:   []store.Order{{Column: "created_at", Ascending: false}},
	})
	if err != nil {
		return nil, err
	}
	return decode[T](data)
}

// Get returns the row with id
func (s *Service[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	data, err := s.client.Select(ctx, s.table, store.Query{
		Filters: []store.Filter{store.Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return zero, err
	}
	rows, err := decode[T](data)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, store.NotFound(fmt.Sprintf("No %s row with id %s", s.table, id))
	}
	return rows[0], nil
}

// Create inserts a row from fields and returns the stored row
func (s *Service[T]) Create(ctx context.Context, fields map[string]any) (T, error) {
	var zero T
	data, err := s.client.Insert(ctx, s.table, fields)
	if err != nil {
		return zero, err
	}
	rows, err := decode[T](data)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("insert into %s returned no rows", s.table)
	}
	return rows[0], nil
}

// Update changes fields of row id and returns the stored row
func (s *Service[T]) Update(ctx context.Context, id string, fields map[string]any) (T, error) {
	var zero T
	if err := s.client.Update(ctx, s.table, fields, store.Eq("id", id)); err != nil {
		return zero, err
	}
	return s.Get(ctx, id)
}

// Delete removes row id
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, s.table, store.Eq("id", id))
}

func decode[T any](data []byte) ([]T, error) {
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}
