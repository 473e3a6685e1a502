package properties_test

import (
	"errors"
	"testing"

	"github.com/localnerve/landlord-propsdb/internal/mapper"
	"github.com/localnerve/landlord-propsdb/internal/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormSubmitNewProperty(t *testing.T) {
	f := properties.NewForm()
	f.Name = "  Oak St "
	f.Address = "1 Oak St"
	f.UnitCount = "4"
	f.PropertyType = "Condo"
	f.ToggleService("ups")
	f.ToggleService("FedEx")

	p, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, "Oak St", p.Name)
	require.NotNil(t, p.UnitCount)
	assert.Equal(t, 4, *p.UnitCount)
	assert.Equal(t, "condo", p.PropertyType)
	assert.Equal(t, []string{"UPS", "FedEx"}, p.AuthorizedServices)
	assert.Nil(t, p.Instructions)
	assert.Empty(t, p.ID)
}

func TestFormBlankInstructionsAreAbsent(t *testing.T) {
	f := properties.NewForm()
	f.Name = "Oak"
	f.Address = "1 Oak"
	f.AccessCode = "   "

	p, err := f.Submit()
	require.NoError(t, err)
	assert.Nil(t, p.Instructions)

	f.AccessNotes = "Knock"
	p, err = f.Submit()
	require.NoError(t, err)
	require.NotNil(t, p.Instructions)
	assert.Equal(t, "Knock", p.Instructions.AccessNotes)
	assert.Equal(t, "", p.Instructions.AccessCode)
}

func TestFormValidation(t *testing.T) {
	f := properties.NewForm()
	f.UnitCount = "-2"
	f.PropertyType = "castle"
	f.Services = []string{"UPS", "Pony Express"}

	_, err := f.Submit()
	var verr *properties.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = fe.Code
	}
	assert.Equal(t, "validation_required", fields["name"])
	assert.Equal(t, "validation_required", fields["address"])
	assert.Equal(t, "validation_count", fields["unit_count"])
	assert.Equal(t, "validation_oneof", fields["property_type"])
	assert.Equal(t, "validation_oneof", fields["authorized_services[1]"])
	assert.Contains(t, err.Error(), "name is required")
}

func TestFormRejectsDuplicateServices(t *testing.T) {
	f := properties.NewForm()
	f.Name = "Oak"
	f.Address = "1 Oak"
	f.Services = []string{"UPS", "ups"}

	_, err := f.Submit()
	var verr *properties.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "validation_unique", verr.Fields[0].Code)
}

func TestFormUnitCountAcceptsZero(t *testing.T) {
	f := properties.NewForm()
	f.Name = "Oak"
	f.Address = "1 Oak"
	f.UnitCount = "0"

	p, err := f.Submit()
	require.NoError(t, err)
	require.NotNil(t, p.UnitCount)
	assert.Zero(t, *p.UnitCount)

	f.UnitCount = "1.5"
	_, err = f.Submit()
	assert.Error(t, err)
}

func TestFormForEditsExistingProperty(t *testing.T) {
	units := 6
	existing := mapper.Property{
		ID:                 "p-1",
		LandlordID:         "l-1",
		Name:               "Elm",
		Address:            "2 Elm",
		UnitCount:          &units,
		PropertyType:       "apartment",
		AuthorizedServices: []string{"UPS", "DHL"},
		Instructions: &mapper.Instructions{
			ID:              "i-1",
			PropertyID:      "p-1",
			PackageLocation: "Lobby",
		},
	}

	f := properties.FormFor(existing)
	assert.Equal(t, "6", f.UnitCount)
	assert.Equal(t, "Lobby", f.PackageLocation)

	f.ToggleService("DHL")
	f.Name = "Elm Renamed"
	p, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "Elm Renamed", p.Name)
	assert.Equal(t, []string{"UPS"}, p.AuthorizedServices)
	require.NotNil(t, p.Instructions)
	assert.Equal(t, "i-1", p.Instructions.ID)

	f.Reset()
	assert.Equal(t, "Elm", f.Name)
	assert.Equal(t, []string{"UPS", "DHL"}, f.Services)

	// the edited property is untouched by form edits
	assert.Equal(t, []string{"UPS", "DHL"}, existing.AuthorizedServices)
}

func TestFormResetNew(t *testing.T) {
	f := properties.NewForm()
	f.Name = "typed"
	f.ToggleService("USPS")
	f.Reset()
	assert.Equal(t, "", f.Name)
	assert.Empty(t, f.Services)
}

func TestFormRoundTripsThroughMapper(t *testing.T) {
	units := 3
	p := mapper.Property{
		Name:               "Pine",
		Address:            "3 Pine",
		UnitCount:          &units,
		PropertyType:       "townhouse",
		AuthorizedServices: []string{"Amazon"},
		Instructions:       &mapper.Instructions{AccessCode: "11", SpecialInstructions: "Dog"},
	}

	got, err := properties.FormFor(p).Submit()
	require.NoError(t, err)
	m := mapper.Normalized{}
	assert.Equal(t, p, m.ToInternal(m.ToExternal(got)))
}
