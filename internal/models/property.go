package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is a landlord-owned building or unit group
type Property struct {
	ID                 string                 `gorm:"primaryKey;type:char(36)" json:"id"`
	LandlordID         string                 `gorm:"type:char(36);not null;index:idx_properties_landlord" json:"landlord_id"`
	Name               string                 `gorm:"size:255;not null" json:"name"`
	Address            string                 `gorm:"size:512;not null" json:"address"`
	UnitCount          *int                   `json:"unit_count"`
	PropertyType       *string                `gorm:"size:32" json:"property_type"`
	AuthorizedServices StringSet              `json:"authorized_services"`
	CreatedAt          time.Time              `gorm:"index:idx_properties_created" json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
	Instructions       []PropertyInstructions `gorm:"foreignKey:PropertyID;constraint:OnDelete:RESTRICT" json:"property_instructions,omitempty"`
}

// PropertyInstructions holds delivery instructions for a property.
// The table allows many rows per property; clients treat it as 0-or-1.
type PropertyInstructions struct {
	ID                  string    `gorm:"primaryKey;type:char(36)" json:"id"`
	PropertyID          string    `gorm:"type:char(36);not null;index" json:"property_id"`
	PackageLocation     *string   `gorm:"size:512" json:"package_location"`
	AccessCode          *string   `gorm:"size:128" json:"access_code"`
	AccessNotes         *string   `gorm:"type:text" json:"access_notes"`
	SpecialInstructions *string   `gorm:"type:text" json:"special_instructions"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName overrides the table name for Property
func (Property) TableName() string {
	return "properties"
}

// TableName overrides the table name for PropertyInstructions
func (PropertyInstructions) TableName() string {
	return "property_instructions"
}

// BeforeCreate assigns a store id when the client did not send one
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AuthorizedServices == nil {
		p.AuthorizedServices = StringSet{}
	}
	return nil
}

// BeforeCreate assigns a store id when the client did not send one
func (i *PropertyInstructions) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
