package entities

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validDevice() *Device {
	return &Device{
		ID:                 primitive.NewObjectID(),
		UserID:             primitive.NewObjectID(),
		Name:               "Galaxy S23",
		Type:               DeviceTypeSmartphone,
		Manufacturer:       "Samsung",
		ModelNumber:        "SM-S911",
		SerialNumber:       "SN-0001",
		PurchaseDate:       date(2023, time.January, 15),
		WarrantyExpiryDate: date(2025, time.January, 15),
	}
}

func TestDeviceValidate(t *testing.T) {
	device := validDevice()
	if err := device.Validate(); err != nil {
		t.Errorf("Valid device should not error, got: %v", err)
	}

	noSerial := validDevice()
	noSerial.SerialNumber = ""
	if err := noSerial.Validate(); err == nil {
		t.Error("Device without serial number should fail validation")
	}

	badDates := validDevice()
	badDates.PurchaseDate = date(2026, time.January, 1)
	if err := badDates.Validate(); err != ErrInvalidDateRange {
		t.Errorf("Expected ErrInvalidDateRange, got: %v", err)
	}

	badType := validDevice()
	badType.Type = DeviceType("Toaster")
	if err := badType.Validate(); err == nil {
		t.Error("Device with unknown type should fail validation")
	}

	untyped := validDevice()
	untyped.Type = ""
	if err := untyped.Validate(); err != nil {
		t.Errorf("Empty type should be allowed, got: %v", err)
	}
}

func TestDeviceAgeInYears(t *testing.T) {
	device := validDevice()
	device.PurchaseDate = date(2021, time.March, 1)

	now := device.PurchaseDate.AddDate(0, 0, 365*3)
	if got := device.AgeInYears(now); got != 3.0 {
		t.Errorf("Expected age 3.0, got %f", got)
	}
}

func TestAppendRecommendation(t *testing.T) {
	device := validDevice()
	device.AppendRecommendation("first")
	device.AppendRecommendation("second")

	if len(device.AIRecommendations) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(device.AIRecommendations))
	}
	if device.AIRecommendations[0] != "first" {
		t.Error("Recommendations must append, not replace")
	}
}
