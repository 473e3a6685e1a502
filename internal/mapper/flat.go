package mapper

import (
	"encoding/json"
	"time"
)

// AccessInformation is the embedded access object of a flat row
type AccessInformation struct {
	Code           string `json:"code"`
	AdditionalInfo string `json:"additionalInfo"`
}

// FlatPropertyRow is a row of the legacy flat properties table.
//
// The flat shape has no unit count, property type, owner or package location.
// PropertyUpdates was free text that now lives in the property_updates table; it is
// read but not mapped.
type FlatPropertyRow struct {
	ID                   string             `json:"id,omitempty"`
	Name                 string             `json:"name"`
	Address              string             `json:"address"`
	AuthorizedServices   []string           `json:"authorizedServices"`
	AccessInformation    *AccessInformation `json:"accessInformation"`
	DeliveryInstructions string             `json:"deliveryInstructions,omitempty"`
	PropertyUpdates      string             `json:"propertyUpdates,omitempty"`
	CreatedAt            *time.Time         `json:"created_at,omitempty"`
	UpdatedAt            *time.Time         `json:"updated_at,omitempty"`
}

// UnmarshalJSON decodes a flat row leniently. It fails only when data is not an object.
func (r *FlatPropertyRow) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = FlatPropertyRow{
		ID:                   lenientString(fields["id"]),
		Name:                 lenientString(fields["name"]),
		Address:              lenientString(fields["address"]),
		AuthorizedServices:   lenientStrings(fields["authorizedServices"]),
		DeliveryInstructions: lenientString(fields["deliveryInstructions"]),
		PropertyUpdates:      lenientString(fields["propertyUpdates"]),
		CreatedAt:            lenientTime(fields["created_at"]),
		UpdatedAt:            lenientTime(fields["updated_at"]),
	}
	if objs := lenientObjects(fields["accessInformation"]); len(objs) > 0 {
		r.AccessInformation = &AccessInformation{
			Code:           lenientString(objs[0]["code"]),
			AdditionalInfo: lenientString(objs[0]["additionalInfo"]),
		}
	}

	return nil
}

// DecodeFlatRows decodes a legacy export. The payload may be an array, a single object
// or null; elements that are not objects are skipped.
func DecodeFlatRows(data []byte) ([]FlatPropertyRow, error) {
	objects, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	rows := make([]FlatPropertyRow, 0, len(objects))
	for _, obj := range objects {
		raw, _ := json.Marshal(obj)
		var row FlatPropertyRow
		if err := json.Unmarshal(raw, &row); err == nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Flat maps the legacy flat shape.
// accessInformation.code is the access code, accessInformation.additionalInfo the access
// notes and deliveryInstructions the special instructions.
//
// The flat shape is lossy: it has no package location, and blank instructions cannot be
// told apart from none, so a round trip drops PackageLocation and maps blank non-nil
// Instructions to nil.
type Flat struct{}

var _ Mapper[FlatPropertyRow] = Flat{}

// ToInternal implements Mapper. Instructions are nil when every instruction field is empty.
func (Flat) ToInternal(row FlatPropertyRow) Property {
	p := Property{
		ID:                 row.ID,
		Name:               row.Name,
		Address:            row.Address,
		AuthorizedServices: NormalizeServices(row.AuthorizedServices),
		CreatedAt:          timeOf(row.CreatedAt),
		UpdatedAt:          timeOf(row.UpdatedAt),
	}

	in := &Instructions{SpecialInstructions: row.DeliveryInstructions}
	if row.AccessInformation != nil {
		in.AccessCode = row.AccessInformation.Code
		in.AccessNotes = row.AccessInformation.AdditionalInfo
	}
	if !in.IsBlank() {
		p.Instructions = in
	}

	return p
}

// ToExternal implements Mapper. accessInformation is always materialized.
func (Flat) ToExternal(p Property) FlatPropertyRow {
	row := FlatPropertyRow{
		Name:               p.Name,
		Address:            p.Address,
		AuthorizedServices: NormalizeServices(p.AuthorizedServices),
		AccessInformation:  &AccessInformation{},
	}
	if p.Instructions != nil {
		row.AccessInformation.Code = p.Instructions.AccessCode
		row.AccessInformation.AdditionalInfo = p.Instructions.AccessNotes
		row.DeliveryInstructions = p.Instructions.SpecialInstructions
	}
	return row
}
