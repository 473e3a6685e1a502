package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Package is a parcel received at a property
type Package struct {
	ID             string         `gorm:"primaryKey;type:char(36)" json:"id"`
	LandlordID     string         `gorm:"type:char(36);not null;index" json:"landlord_id"`
	PropertyID     *string        `gorm:"type:char(36);index" json:"property_id"`
	Recipient      string         `gorm:"size:255" json:"recipient"`
	Carrier        string         `gorm:"size:32" json:"carrier"`
	TrackingNumber string         `gorm:"size:128" json:"tracking_number"`
	Status         string         `gorm:"size:32;not null;default:received" json:"status"`
	Metadata       datatypes.JSON `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PackageClaim is a tenant claim against a delivered package
type PackageClaim struct {
	ID             string    `gorm:"primaryKey;type:char(36)" json:"id"`
	LandlordID     string    `gorm:"type:char(36);not null;index" json:"landlord_id"`
	PropertyID     *string   `gorm:"type:char(36);index" json:"property_id"`
	TrackingNumber string    `gorm:"size:128;not null" json:"tracking_number"`
	Status         string    `gorm:"size:32;not null;default:pending" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PropertyUpdate is a note, status change or instruction change posted for a property
type PropertyUpdate struct {
	ID         string    `gorm:"primaryKey;type:char(36)" json:"id"`
	LandlordID string    `gorm:"type:char(36);not null;index" json:"landlord_id"`
	PropertyID *string   `gorm:"type:char(36);index" json:"property_id"`
	Type       string    `gorm:"size:32;not null;default:note" json:"type"`
	Content    string    `gorm:"type:text" json:"content"`
	Author     string    `gorm:"size:255" json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Row status and type defaults
const (
	PackageReceived = "received"
	ClaimPending    = "pending"
	UpdateNote      = "note"
)

func (Package) TableName() string        { return "packages" }
func (PackageClaim) TableName() string   { return "package_claims" }
func (PropertyUpdate) TableName() string { return "property_updates" }

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PackageReceived
	}
	return nil
}

func (c *PackageClaim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ClaimPending
	}
	return nil
}

func (u *PropertyUpdate) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Type == "" {
		u.Type = UpdateNote
	}
	return nil
}
