package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeviceType enumerates the supported device categories. An empty type is
// allowed for devices that predate categorization.
type DeviceType string

const (
	DeviceTypeSmartphone          DeviceType = "Smartphone"
	DeviceTypeConsumerElectronics DeviceType = "Consumer Electronics"
	DeviceTypeHomeAppliances      DeviceType = "Home Appliances"
)

// Valid reports whether the type is a known category or unset.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeSmartphone, DeviceTypeConsumerElectronics, DeviceTypeHomeAppliances, "":
		return true
	}
	return false
}

// Claim is a historical record of a damage or service event. Claims are
// append-only; individual claims are never updated or deleted.
type Claim struct {
	Date       time.Time `json:"date" bson:"date"`
	Type       string    `json:"type" bson:"type"`
	Resolution string    `json:"resolution" bson:"resolution"`
}

// Device represents one physical item owned by a user. A device exclusively
// owns its embedded protection plan and claim history; deleting the device
// discards both.
type Device struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"userId" bson:"userId"`
	Name               string             `json:"name" bson:"name"`
	Type               DeviceType         `json:"type" bson:"type"`
	Manufacturer       string             `json:"manufacturer" bson:"manufacturer"`
	ModelNumber        string             `json:"modelNumber" bson:"modelNumber"`
	SerialNumber       string             `json:"serialNumber" bson:"serialNumber"`
	PurchaseDate       time.Time          `json:"purchaseDate" bson:"purchaseDate"`
	WarrantyExpiryDate time.Time          `json:"warrantyExpiryDate" bson:"warrantyExpiryDate"`
	ProtectionPlan     *ProtectionPlan    `json:"protectionPlan" bson:"protectionPlan"`
	AIRecommendations  []string           `json:"aiRecommendations" bson:"aiRecommendations"`
	ClaimHistory       []Claim            `json:"claimHistory" bson:"claimHistory"`
}

// AgeInYears returns the device age as elapsed days over 365.
func (d *Device) AgeInYears(now time.Time) float64 {
	return now.Sub(d.PurchaseDate).Hours() / 24 / 365
}

// AppendRecommendation adds generated advice to the device's history.
// Prior entries are never replaced.
func (d *Device) AppendRecommendation(text string) {
	d.AIRecommendations = append(d.AIRecommendations, text)
}

// ValidateDateOrder enforces the chronological constraint between purchase
// and warranty expiry. Applied identically on add and update.
func ValidateDateOrder(purchaseDate, warrantyExpiryDate time.Time) error {
	if purchaseDate.After(warrantyExpiryDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Validate checks the device's own invariants.
func (d *Device) Validate() error {
	if d.UserID.IsZero() {
		return errors.New("userId is required")
	}
	if d.Name == "" {
		return errors.New("name is required")
	}
	if !d.Type.Valid() {
		return errors.New("type must be Smartphone, Consumer Electronics or Home Appliances")
	}
	if d.SerialNumber == "" {
		return errors.New("serial number is required")
	}
	return ValidateDateOrder(d.PurchaseDate, d.WarrantyExpiryDate)
}
