package properties

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/landlord-propsdb/internal/mapper"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// a count is a non-negative integer
	mustRegister(v, "count", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && n >= 0
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Form collects property input as text, the way an edit form does
type Form struct {
	Name                string   `form:"name" validate:"required"`
	Address             string   `form:"address" validate:"required"`
	UnitCount           string   `form:"unit_count" validate:"omitempty,count"`
	PropertyType        string   `form:"property_type" validate:"omitempty,oneof=apartment house condo townhouse"`
	Services            []string `form:"authorized_services" validate:"unique,dive,oneof=UPS USPS FedEx Amazon DHL"`
	PackageLocation     string   `form:"package_location"`
	AccessCode          string   `form:"access_code"`
	AccessNotes         string   `form:"access_notes"`
	SpecialInstructions string   `form:"special_instructions"`

	// base is the property being edited, nil for a new property
	base *mapper.Property
}

// FieldError describes one invalid form field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError is returned by Submit when fields are invalid
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid property: " + strings.Join(msgs, "; ")
}

// NewForm returns an empty form for a new property
func NewForm() *Form {
	return &Form{Services: []string{}}
}

// FormFor returns a form filled from an existing property
func FormFor(p mapper.Property) *Form {
	f := &Form{
		Name:         p.Name,
		Address:      p.Address,
		PropertyType: p.PropertyType,
		Services:     mapper.NormalizeServices(p.AuthorizedServices),
	}
	base := p.Clone()
	f.base = &base
	if p.UnitCount != nil {
		f.UnitCount = strconv.Itoa(*p.UnitCount)
	}
	if in := p.Instructions; in != nil {
		f.PackageLocation = in.PackageLocation
		f.AccessCode = in.AccessCode
		f.AccessNotes = in.AccessNotes
		f.SpecialInstructions = in.SpecialInstructions
	}
	return f
}

// ToggleService adds service when absent and removes it when present
func (f *Form) ToggleService(service string) {
	service = mapper.CanonicalService(service)
	for i, s := range f.Services {
		if s == service {
			f.Services = append(f.Services[:i:i], f.Services[i+1:]...)
			return
		}
	}
	f.Services = append(f.Services, service)
}

// Reset discards edits, restoring the form to its initial values
func (f *Form) Reset() {
	if f.base == nil {
		*f = *NewForm()
		return
	}
	*f = *FormFor(*f.base)
}

// Submit validates the form and returns the property it describes.
// When every instruction field is blank the property has no instructions.
func (f *Form) Submit() (mapper.Property, error) {
	f.trim()

	if err := validate.Struct(f); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return mapper.Property{}, &ValidationError{Fields: formatValidationErrors(errs)}
		}
		return mapper.Property{}, fmt.Errorf("failed to validate property: %w", err)
	}

	p := mapper.Property{
		Name:               f.Name,
		Address:            f.Address,
		PropertyType:       f.PropertyType,
		AuthorizedServices: mapper.NormalizeServices(f.Services),
	}
	if f.base != nil {
		p.ID = f.base.ID
		p.LandlordID = f.base.LandlordID
		p.CreatedAt = f.base.CreatedAt
		p.UpdatedAt = f.base.UpdatedAt
	}
	if f.UnitCount != "" {
		n, _ := strconv.Atoi(f.UnitCount)
		p.UnitCount = &n
	}

	in := &mapper.Instructions{
		PackageLocation:     f.PackageLocation,
		AccessCode:          f.AccessCode,
		AccessNotes:         f.AccessNotes,
		SpecialInstructions: f.SpecialInstructions,
	}
	if !in.IsBlank() {
		if f.base != nil && f.base.Instructions != nil {
			in.ID = f.base.Instructions.ID
			in.PropertyID = f.base.Instructions.PropertyID
		}
		p.Instructions = in
	}

	return p, nil
}

func (f *Form) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.UnitCount = strings.TrimSpace(f.UnitCount)
	f.PropertyType = strings.ToLower(strings.TrimSpace(f.PropertyType))
	f.PackageLocation = strings.TrimSpace(f.PackageLocation)
	f.AccessCode = strings.TrimSpace(f.AccessCode)
	f.AccessNotes = strings.TrimSpace(f.AccessNotes)
	f.SpecialInstructions = strings.TrimSpace(f.SpecialInstructions)
	for i, s := range f.Services {
		f.Services[i] = mapper.CanonicalService(s)
	}
}

func formatValidationErrors(errs validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "count":
			message = fmt.Sprintf("%s must be a whole number of 0 or more", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not repeat a service", err.Field())
		default:
			message = fmt.Sprintf("%s failed on the '%s' rule", err.Field(), err.Tag())
		}
		details = append(details, FieldError{
			Field:   err.Field(),
			Message: message,
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}
