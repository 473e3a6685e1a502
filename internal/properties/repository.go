package properties

import (
	"context"
	"errors"
	"fmt"

	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// ErrNoRepresentation reports that the store did not return a written row
var ErrNoRepresentation = errors.New("store returned no representation of the written row")

// PartialWriteError reports a linked-table write that failed after the property row
// was already changed. Stored holds the record as reloaded from the store, nil when
// the reload failed as well.
type PartialWriteError struct {
	Err    error
	Stored *mapper.Property
}

func (e *PartialWriteError) Error() string {
	return e.Err.Error()
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Repository persists properties in the normalized tables
type Repository struct {
	client store.Client
	mapper mapper.Normalized
}

// NewRepository creates a repository over client
func NewRepository(client store.Client) *Repository {
	return &Repository{client: client}
}

func ownedQuery(landlordID string, filters ...store.Filter) store.Query {
	return store.Query{
		Embed:   []string{store.TablePropertyInstructions},
		Filters: append([]store.Filter{store.Eq("landlord_id", landlordID)}, filters...),
		Order:   []store.Order{{Column: "created_at", Ascending: false}},
	}
}

// List returns the properties of landlordID, newest first
func (r *Repository) List(ctx context.Context, landlordID string) ([]mapper.Property, error) {
	data, err := r.client.Select(ctx, store.TableProperties, ownedQuery(landlordID))
	if err != nil {
		return nil, err
	}
	return r.decode(data)
}

// Get returns a single property of landlordID
func (r *Repository) Get(ctx context.Context, landlordID, id string) (mapper.Property, error) {
	q := ownedQuery(landlordID, store.Eq("id", id))
	q.Limit = 1

	data, err := r.client.Select(ctx, store.TableProperties, q)
	if err != nil {
		return mapper.Property{}, err
	}
	props, err := r.decode(data)
	if err != nil {
		return mapper.Property{}, err
	}
	if len(props) == 0 {
		return mapper.Property{}, store.NotFound(fmt.Sprintf("Property %s not found", id))
	}
	return props[0], nil
}

// Create inserts p for landlordID, then its instructions linked by property_id.
// If the instructions insert fails the property row is removed again.
func (r *Repository) Create(ctx context.Context, landlordID string, p mapper.Property) (mapper.Property, error) {
	row := r.mapper.ToExternal(p)

	cols := mapper.PropertyColumns(row)
	cols["landlord_id"] = landlordID

	data, err := r.client.Insert(ctx, store.TableProperties, cols)
	if err != nil {
		return mapper.Property{}, err
	}
	created, err := mapper.DecodePropertyRows(data)
	if err != nil {
		return mapper.Property{}, err
	}
	if len(created) == 0 || created[0].ID == "" {
		return mapper.Property{}, ErrNoRepresentation
	}
	stored := created[0]

	if len(row.Instructions) > 0 {
		icols := mapper.InstructionsColumns(row.Instructions[0])
		icols["property_id"] = stored.ID

		idata, err := r.client.Insert(ctx, store.TablePropertyInstructions, icols)
		if err != nil {
			r.discard(ctx, stored.ID)
			return mapper.Property{}, err
		}
		irows, err := mapper.DecodeInstructionsRows(idata)
		if err != nil || len(irows) == 0 {
			// linked write without a representation, reload the one record
			return r.Get(ctx, landlordID, stored.ID)
		}
		stored.Instructions = irows[:1]
	}

	return r.mapper.ToInternal(stored), nil
}

// Update overwrites every field of the property current with input. The instructions
// row is updated, inserted or deleted so the store matches input. The returned property
// keeps the identity and creation time of current.
//
// A failed instructions write after the property row was written returns a
// *PartialWriteError carrying the reloaded record.
func (r *Repository) Update(ctx context.Context, current, input mapper.Property) (mapper.Property, error) {
	row := r.mapper.ToExternal(input)

	if err := r.client.Update(ctx, store.TableProperties, mapper.PropertyColumns(row), store.Eq("id", current.ID)); err != nil {
		return mapper.Property{}, err
	}

	updated := input.Clone()
	updated.ID = current.ID
	updated.LandlordID = current.LandlordID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = current.UpdatedAt
	updated.AuthorizedServices = mapper.NormalizeServices(input.AuthorizedServices)

	switch {
	case input.Instructions != nil && current.Instructions != nil && current.Instructions.ID != "":
		icols := mapper.InstructionsColumns(row.Instructions[0])
		if err := r.client.Update(ctx, store.TablePropertyInstructions, icols, store.Eq("id", current.Instructions.ID)); err != nil {
			return mapper.Property{}, r.partial(ctx, current, err)
		}
		updated.Instructions.ID = current.Instructions.ID
		updated.Instructions.PropertyID = current.ID
		updated.Instructions.CreatedAt = current.Instructions.CreatedAt
		updated.Instructions.UpdatedAt = current.Instructions.UpdatedAt

	case input.Instructions != nil:
		icols := mapper.InstructionsColumns(row.Instructions[0])
		icols["property_id"] = current.ID
		idata, err := r.client.Insert(ctx, store.TablePropertyInstructions, icols)
		if err != nil {
			return mapper.Property{}, r.partial(ctx, current, err)
		}
		irows, err := mapper.DecodeInstructionsRows(idata)
		if err != nil || len(irows) == 0 {
			return r.Get(ctx, current.LandlordID, current.ID)
		}
		in := r.mapper.InstructionsToInternal(irows[0])
		updated.Instructions = &in

	case current.Instructions != nil:
		if err := r.client.Delete(ctx, store.TablePropertyInstructions, store.Eq("property_id", current.ID)); err != nil {
			return mapper.Property{}, r.partial(ctx, current, err)
		}
		updated.Instructions = nil
	}

	return updated, nil
}

// Delete removes the instructions of property current, then the property.
// The store restricts deleting a property that still has instructions, so a failed
// property delete after the instructions are gone returns a *PartialWriteError.
func (r *Repository) Delete(ctx context.Context, current mapper.Property) error {
	if err := r.client.Delete(ctx, store.TablePropertyInstructions, store.Eq("property_id", current.ID)); err != nil {
		return err
	}
	if err := r.client.Delete(ctx, store.TableProperties, store.Eq("id", current.ID)); err != nil {
		if current.Instructions == nil {
			return err
		}
		return r.partial(ctx, current, err)
	}
	return nil
}

// partial reloads current after a linked write failed
func (r *Repository) partial(ctx context.Context, current mapper.Property, err error) error {
	perr := &PartialWriteError{Err: err}
	stored, gerr := r.Get(ctx, current.LandlordID, current.ID)
	if gerr != nil {
		logging.Logger.WithError(gerr).WithField("property_id", current.ID).Warn("Failed to reload property after partial write")
		return perr
	}
	perr.Stored = &stored
	return perr
}

// discard removes a property whose linked write failed
func (r *Repository) discard(ctx context.Context, id string) {
	if err := r.client.Delete(ctx, store.TableProperties, store.Eq("id", id)); err != nil {
		logging.Logger.WithError(err).WithField("property_id", id).Warn("Failed to discard partially created property")
	}
}

func (r *Repository) decode(data []byte) ([]mapper.Property, error) {
	rows, err := mapper.DecodePropertyRows(data)
	if err != nil {
		return nil, err
	}
	props := make([]mapper.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, r.mapper.ToInternal(row))
	}
	return props, nil
}
