package api

import (
	"encoding/json"
	"testing"
	"time"
)

func dt(y int, m time.Month, d int) DateTime {
	return DateTime{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func validAddDeviceRequest() AddDeviceRequest {
	return AddDeviceRequest{
		UserID:             "64a1f0c2e7b9d8a6c4e2f1a0",
		Name:               "Galaxy S23",
		Type:               "Smartphone",
		Manufacturer:       "Samsung",
		ModelNumber:        "SM-S911",
		SerialNumber:       "SN1",
		PurchaseDate:       dt(2023, time.January, 15),
		WarrantyExpiryDate: dt(2025, time.January, 15),
	}
}

func TestAddDeviceRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AddDeviceRequest)
		wantErr string
	}{
		{"valid", func(r *AddDeviceRequest) {}, ""},
		{"missing userId", func(r *AddDeviceRequest) { r.UserID = "" }, "userId is required"},
		{"missing name", func(r *AddDeviceRequest) { r.Name = "" }, "name is required"},
		{"missing type", func(r *AddDeviceRequest) { r.Type = "" }, "type is required"},
		{"unknown type", func(r *AddDeviceRequest) { r.Type = "Toaster" }, "type must be Smartphone, Consumer Electronics or Home Appliances"},
		{"missing manufacturer", func(r *AddDeviceRequest) { r.Manufacturer = "" }, "manufacturer is required"},
		{"missing modelNumber", func(r *AddDeviceRequest) { r.ModelNumber = "" }, "modelNumber is required"},
		{"missing serialNumber", func(r *AddDeviceRequest) { r.SerialNumber = "" }, "serialNumber is required"},
		{"missing purchaseDate", func(r *AddDeviceRequest) { r.PurchaseDate = DateTime{} }, "purchaseDate is required"},
		{"future purchaseDate", func(r *AddDeviceRequest) {
			r.PurchaseDate = DateTime{Time: time.Now().AddDate(1, 0, 0)}
		}, "purchaseDate must not be in the future"},
		{"missing warrantyExpiryDate", func(r *AddDeviceRequest) { r.WarrantyExpiryDate = DateTime{} }, "warrantyExpiryDate is required"},
		{"plan missing name", func(r *AddDeviceRequest) {
			r.ProtectionPlan = &AddPlanRequest{DurationMonths: 12, Coverage: []string{"Theft"}}
		}, "planName is required"},
		{"plan zero duration", func(r *AddDeviceRequest) {
			r.ProtectionPlan = &AddPlanRequest{PlanName: "P", Coverage: []string{"Theft"}}
		}, "durationMonths must be at least 1"},
		{"plan empty coverage", func(r *AddDeviceRequest) {
			r.ProtectionPlan = &AddPlanRequest{PlanName: "P", DurationMonths: 12}
		}, "coverage must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validAddDeviceRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Expected error %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateDeviceRequestValidate(t *testing.T) {
	base := validAddDeviceRequest()
	req := UpdateDeviceRequest{
		DeviceID:           "64a1f0c2e7b9d8a6c4e2f1a1",
		UserID:             base.UserID,
		Name:               base.Name,
		Type:               base.Type,
		Manufacturer:       base.Manufacturer,
		ModelNumber:        base.ModelNumber,
		SerialNumber:       base.SerialNumber,
		PurchaseDate:       base.PurchaseDate,
		WarrantyExpiryDate: base.WarrantyExpiryDate,
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected valid update request, got: %v", err)
	}

	missingID := req
	missingID.DeviceID = ""
	if err := missingID.Validate(); err == nil || err.Error() != "deviceId is required" {
		t.Errorf("Expected deviceId error, got: %v", err)
	}

	withPlan := req
	withPlan.ProtectionPlan = &UpdatePlanPayload{
		ID:        "64a1f0c2e7b9d8a6c4e2f1a2",
		PlanName:  "P",
		StartDate: dt(2023, time.January, 15),
		EndDate:   dt(2024, time.January, 15),
		Coverage:  []string{"Theft"},
		Status:    "Cancelled",
	}
	if err := withPlan.Validate(); err == nil || err.Error() != "status must be Active or Expired" {
		t.Errorf("Expected status error, got: %v", err)
	}

	withPlan.ProtectionPlan.Status = "Expired"
	if err := withPlan.Validate(); err != nil {
		t.Errorf("Expired status should be accepted, got: %v", err)
	}
}

func TestExtendPlanRequestValidate(t *testing.T) {
	if err := (&ExtendPlanRequest{DurationMonths: 6}).Validate(); err != nil {
		t.Errorf("Expected valid request, got: %v", err)
	}
	if err := (&ExtendPlanRequest{}).Validate(); err == nil {
		t.Error("Zero duration must fail")
	}
	if err := (&ExtendPlanRequest{DurationMonths: -1}).Validate(); err == nil {
		t.Error("Negative duration must fail")
	}
}

func TestRecommendationRequestValidate(t *testing.T) {
	req := RecommendationRequest{UserID: "u", DeviceID: "d"}
	if err := req.Validate(); err != nil {
		t.Errorf("Expected valid request, got: %v", err)
	}
	if err := (&RecommendationRequest{DeviceID: "d"}).Validate(); err == nil {
		t.Error("Missing userId must fail")
	}
	if err := (&RecommendationRequest{UserID: "u"}).Validate(); err == nil {
		t.Error("Missing deviceId must fail")
	}
}

func TestDateTimeUnmarshal(t *testing.T) {
	var payload struct {
		Date DateTime `json:"date"`
	}

	if err := json.Unmarshal([]byte(`{"date":"2023-01-15"}`), &payload); err != nil {
		t.Fatalf("Plain date should parse: %v", err)
	}
	if !payload.Date.Time.Equal(time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected parsed date: %v", payload.Date.Time)
	}

	if err := json.Unmarshal([]byte(`{"date":"2023-01-15T10:30:00Z"}`), &payload); err != nil {
		t.Fatalf("RFC3339 timestamp should parse: %v", err)
	}

	if err := json.Unmarshal([]byte(`{"date":"15/01/2023"}`), &payload); err == nil {
		t.Error("Unknown date layout should fail")
	}
}
