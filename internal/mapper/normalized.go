package mapper

import (
	"encoding/json"
	"time"
)

// PropertyRow is a row of the normalized properties table, optionally with its
// property_instructions join embedded.
type PropertyRow struct {
	ID                 string            `json:"id,omitempty"`
	LandlordID         string            `json:"landlord_id,omitempty"`
	Name               string            `json:"name"`
	Address            string            `json:"address"`
	UnitCount          *int              `json:"unit_count"`
	PropertyType       *string           `json:"property_type"`
	AuthorizedServices []string          `json:"authorized_services"`
	Instructions       []InstructionsRow `json:"property_instructions,omitempty"`
	CreatedAt          *time.Time        `json:"created_at,omitempty"`
	UpdatedAt          *time.Time        `json:"updated_at,omitempty"`
}

// InstructionsRow is a row of the property_instructions table
type InstructionsRow struct {
	ID                  string     `json:"id,omitempty"`
	PropertyID          string     `json:"property_id,omitempty"`
	PackageLocation     *string    `json:"package_location"`
	AccessCode          *string    `json:"access_code"`
	AccessNotes         *string    `json:"access_notes"`
	SpecialInstructions *string    `json:"special_instructions"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// UnmarshalJSON decodes a stored row leniently. It fails only when data is not an object.
func (r *PropertyRow) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = PropertyRow{
		ID:                 lenientString(fields["id"]),
		LandlordID:         lenientString(fields["landlord_id"]),
		Name:               lenientString(fields["name"]),
		Address:            lenientString(fields["address"]),
		UnitCount:          lenientInt(fields["unit_count"]),
		PropertyType:       lenientOptString(fields["property_type"]),
		AuthorizedServices: lenientStrings(fields["authorized_services"]),
		CreatedAt:          lenientTime(fields["created_at"]),
		UpdatedAt:          lenientTime(fields["updated_at"]),
	}
	for _, obj := range lenientObjects(fields["property_instructions"]) {
		r.Instructions = append(r.Instructions, instructionsRowFrom(obj))
	}

	return nil
}

// UnmarshalJSON decodes a stored instructions row leniently
func (r *InstructionsRow) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = instructionsRowFrom(fields)
	return nil
}

func instructionsRowFrom(fields map[string]json.RawMessage) InstructionsRow {
	return InstructionsRow{
		ID:                  lenientString(fields["id"]),
		PropertyID:          lenientString(fields["property_id"]),
		PackageLocation:     lenientOptString(fields["package_location"]),
		AccessCode:          lenientOptString(fields["access_code"]),
		AccessNotes:         lenientOptString(fields["access_notes"]),
		SpecialInstructions: lenientOptString(fields["special_instructions"]),
		CreatedAt:           lenientTime(fields["created_at"]),
		UpdatedAt:           lenientTime(fields["updated_at"]),
	}
}

// DecodePropertyRows decodes a select or insert response. The payload may be an array,
// a single object or null; elements that are not objects are skipped.
func DecodePropertyRows(data []byte) ([]PropertyRow, error) {
	objects, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	rows := make([]PropertyRow, 0, len(objects))
	for _, obj := range objects {
		raw, _ := json.Marshal(obj)
		var row PropertyRow
		if err := json.Unmarshal(raw, &row); err == nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// DecodeInstructionsRows decodes a property_instructions response
func DecodeInstructionsRows(data []byte) ([]InstructionsRow, error) {
	objects, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	rows := make([]InstructionsRow, 0, len(objects))
	for _, obj := range objects {
		rows = append(rows, instructionsRowFrom(obj))
	}
	return rows, nil
}

// Normalized maps the normalized table shape
type Normalized struct{}

var _ Mapper[PropertyRow] = Normalized{}

// ToInternal implements Mapper. The first joined instructions row, if any, becomes
// Instructions; an absent join leaves Instructions nil.
func (Normalized) ToInternal(row PropertyRow) Property {
	p := Property{
		ID:                 row.ID,
		LandlordID:         row.LandlordID,
		Name:               row.Name,
		Address:            row.Address,
		PropertyType:       deref(row.PropertyType),
		AuthorizedServices: NormalizeServices(row.AuthorizedServices),
		CreatedAt:          timeOf(row.CreatedAt),
		UpdatedAt:          timeOf(row.UpdatedAt),
	}
	if row.UnitCount != nil {
		n := *row.UnitCount
		p.UnitCount = &n
	}
	if len(row.Instructions) > 0 {
		in := Normalized{}.InstructionsToInternal(row.Instructions[0])
		p.Instructions = &in
	}
	return p
}

// ToExternal implements Mapper. Empty optional strings become null and
// Instructions become a zero or one element join.
func (Normalized) ToExternal(p Property) PropertyRow {
	row := PropertyRow{
		Name:               p.Name,
		Address:            p.Address,
		PropertyType:       optional(p.PropertyType),
		AuthorizedServices: NormalizeServices(p.AuthorizedServices),
	}
	if p.UnitCount != nil {
		n := *p.UnitCount
		row.UnitCount = &n
	}
	if p.Instructions != nil {
		row.Instructions = []InstructionsRow{Normalized{}.InstructionsToExternal(*p.Instructions)}
	}
	return row
}

// InstructionsToInternal maps a stored instructions row
func (Normalized) InstructionsToInternal(row InstructionsRow) Instructions {
	return Instructions{
		ID:                  row.ID,
		PropertyID:          row.PropertyID,
		PackageLocation:     deref(row.PackageLocation),
		AccessCode:          deref(row.AccessCode),
		AccessNotes:         deref(row.AccessNotes),
		SpecialInstructions: deref(row.SpecialInstructions),
		CreatedAt:           timeOf(row.CreatedAt),
		UpdatedAt:           timeOf(row.UpdatedAt),
	}
}

// InstructionsToExternal maps instructions for persistence, without identifiers
// or timestamps
func (Normalized) InstructionsToExternal(in Instructions) InstructionsRow {
	return InstructionsRow{
		PackageLocation:     optional(in.PackageLocation),
		AccessCode:          optional(in.AccessCode),
		AccessNotes:         optional(in.AccessNotes),
		SpecialInstructions: optional(in.SpecialInstructions),
	}
}

// PropertyColumns returns the property columns of row for an insert or full overwrite.
// The instructions join is not a column and is left out.
func PropertyColumns(row PropertyRow) map[string]any {
	return map[string]any{
		"name":                row.Name,
		"address":             row.Address,
		"unit_count":          row.UnitCount,
		"property_type":       row.PropertyType,
		"authorized_services": row.AuthorizedServices,
	}
}

// InstructionsColumns returns the instruction columns of row for an insert or full overwrite
func InstructionsColumns(row InstructionsRow) map[string]any {
	return map[string]any{
		"package_location":     row.PackageLocation,
		"access_code":          row.AccessCode,
		"access_notes":         row.AccessNotes,
		"special_instructions": row.SpecialInstructions,
	}
}
