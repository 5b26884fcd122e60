package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gadgetguard/aegis/domain/entities"
)

// Response is the uniform envelope for every success and failure. Code
// mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Code: status, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return respond(c, status, message, nil)
}

// DateTime accepts both RFC3339 timestamps and plain dates on the wire.
type DateTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	s = s[1 : len(s)-1]

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// MarshalJSON implements json.Marshaler
func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(time.RFC3339) + `"`), nil
}

// UserRequest is the payload for register and login.
type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the request field constraints
func (r *UserRequest) Validate() error {
	if r.Username == "" {
		return entities.NewValidationError("username is required")
	}
	if r.Password == "" {
		return entities.NewValidationError("password is required")
	}
	return nil
}

// TokenRequest is the payload for JWT verification.
type TokenRequest struct {
	Token string `json:"token"`
}

// Validate checks the request field constraints
func (r *TokenRequest) Validate() error {
	if r.Token == "" {
		return entities.NewValidationError("token is required")
	}
	return nil
}

// AddPlanRequest is the protection plan payload for add-device and add-plan.
type AddPlanRequest struct {
	PlanName       string   `json:"planName"`
	DurationMonths int      `json:"durationMonths"`
	Coverage       []string `json:"coverage"`
}

// Validate checks the request field constraints
func (r *AddPlanRequest) Validate() error {
	if r.PlanName == "" {
		return entities.NewValidationError("planName is required")
	}
	if r.DurationMonths < 1 {
		return entities.NewValidationError("durationMonths must be at least 1")
	}
	if len(r.Coverage) == 0 {
		return entities.NewValidationError("coverage must not be empty")
	}
	return nil
}

// AddDeviceRequest is the payload for registering a device.
type AddDeviceRequest struct {
	UserID             string          `json:"userId"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	Manufacturer       string          `json:"manufacturer"`
	ModelNumber        string          `json:"modelNumber"`
	SerialNumber       string          `json:"serialNumber"`
	PurchaseDate       DateTime        `json:"purchaseDate"`
	WarrantyExpiryDate DateTime        `json:"warrantyExpiryDate"`
	ProtectionPlan     *AddPlanRequest `json:"protectionPlan,omitempty"`
}

// Validate checks the request field constraints, reporting the first
// violation only.
func (r *AddDeviceRequest) Validate() error {
	if r.UserID == "" {
		return entities.NewValidationError("userId is required")
	}
	if r.Name == "" {
		return entities.NewValidationError("name is required")
	}
	if r.Type == "" {
		return entities.NewValidationError("type is required")
	}
	if !entities.DeviceType(r.Type).Valid() {
		return entities.NewValidationError("type must be Smartphone, Consumer Electronics or Home Appliances")
	}
	if r.Manufacturer == "" {
		return entities.NewValidationError("manufacturer is required")
	}
	if r.ModelNumber == "" {
		return entities.NewValidationError("modelNumber is required")
	}
	if r.SerialNumber == "" {
		return entities.NewValidationError("serialNumber is required")
	}
	if r.PurchaseDate.IsZero() {
		return entities.NewValidationError("purchaseDate is required")
	}
	if r.PurchaseDate.After(time.Now()) {
		return entities.NewValidationError("purchaseDate must not be in the future")
	}
	if r.WarrantyExpiryDate.IsZero() {
		return entities.NewValidationError("warrantyExpiryDate is required")
	}
	if r.ProtectionPlan != nil {
		return r.ProtectionPlan.Validate()
	}
	return nil
}

// UpdatePlanPayload carries the embedded plan on a device update. Status is
// caller-asserted here; this is the only pathway that can mark a plan
// Expired.
type UpdatePlanPayload struct {
	ID        string   `json:"_id"`
	PlanName  string   `json:"planName"`
	StartDate DateTime `json:"startDate"`
	EndDate   DateTime `json:"endDate"`
	Coverage  []string `json:"coverage"`
	Status    string   `json:"status"`
}

// Validate checks the request field constraints
func (r *UpdatePlanPayload) Validate() error {
	if r.ID == "" {
		return entities.NewValidationError("protectionPlan._id is required")
	}
	if r.PlanName == "" {
		return entities.NewValidationError("planName is required")
	}
	if r.StartDate.IsZero() {
		return entities.NewValidationError("startDate is required")
	}
	if r.EndDate.IsZero() {
		return entities.NewValidationError("endDate is required")
	}
	if len(r.Coverage) == 0 {
		return entities.NewValidationError("coverage must not be empty")
	}
	if !entities.PlanStatus(r.Status).Valid() {
		return entities.NewValidationError("status must be Active or Expired")
	}
	return nil
}

// ClaimPayload is the wire form of a claim record.
type ClaimPayload struct {
	Date       DateTime `json:"date"`
	Type       string   `json:"type"`
	Resolution string   `json:"resolution"`
}

// Validate checks the request field constraints
func (r *ClaimPayload) Validate() error {
	if r.Date.IsZero() {
		return entities.NewValidationError("claim date is required")
	}
	if r.Type == "" {
		return entities.NewValidationError("claim type is required")
	}
	if r.Resolution == "" {
		return entities.NewValidationError("claim resolution is required")
	}
	return nil
}

// UpdateDeviceRequest is the payload for overwriting a device. All mutable
// fields are required; recommendation and claim lists pass through.
type UpdateDeviceRequest struct {
	DeviceID           string             `json:"deviceId"`
	UserID             string             `json:"userId"`
	Name               string             `json:"name"`
	Type               string             `json:"type"`
	Manufacturer       string             `json:"manufacturer"`
	ModelNumber        string             `json:"modelNumber"`
	SerialNumber       string             `json:"serialNumber"`
	PurchaseDate       DateTime           `json:"purchaseDate"`
	WarrantyExpiryDate DateTime           `json:"warrantyExpiryDate"`
	ProtectionPlan     *UpdatePlanPayload `json:"protectionPlan,omitempty"`
	AIRecommendations  []string           `json:"aiRecommendations,omitempty"`
	ClaimHistory       []ClaimPayload     `json:"claimHistory,omitempty"`
}

// Validate checks the request field constraints
func (r *UpdateDeviceRequest) Validate() error {
	if r.DeviceID == "" {
		return entities.NewValidationError("deviceId is required")
	}
	base := AddDeviceRequest{
		UserID:             r.UserID,
		Name:               r.Name,
		Type:               r.Type,
		Manufacturer:       r.Manufacturer,
		ModelNumber:        r.ModelNumber,
		SerialNumber:       r.SerialNumber,
		PurchaseDate:       r.PurchaseDate,
		WarrantyExpiryDate: r.WarrantyExpiryDate,
	}
	if err := base.Validate(); err != nil {
		return err
	}
	if r.ProtectionPlan != nil {
		if err := r.ProtectionPlan.Validate(); err != nil {
			return err
		}
	}
	for i := range r.ClaimHistory {
		if err := r.ClaimHistory[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExtendPlanRequest is the payload for extending a protection plan.
type ExtendPlanRequest struct {
	DurationMonths int `json:"durationMonths"`
}

// Validate checks the request field constraints
func (r *ExtendPlanRequest) Validate() error {
	if r.DurationMonths < 1 {
		return entities.NewValidationError("durationMonths must be at least 1")
	}
	return nil
}

// RecommendationRequest is the payload for requesting AI recommendations.
type RecommendationRequest struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
}

// Validate checks the request field constraints
func (r *RecommendationRequest) Validate() error {
	if r.UserID == "" {
		return entities.NewValidationError("userId is required")
	}
	if r.DeviceID == "" {
		return entities.NewValidationError("deviceId is required")
	}
	return nil
}

// PlanResponse is the wire projection of an embedded plan.
type PlanResponse struct {
	ID        string    `json:"_id"`
	PlanName  string    `json:"planName"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Coverage  []string  `json:"coverage"`
	Status    string    `json:"status"`
}

// DeviceResponse is the wire projection of a device: identifiers stringified,
// absent plan rendered as null, collections defaulted to empty.
type DeviceResponse struct {
	DeviceID           string        `json:"deviceId"`
	UserID             string        `json:"userId"`
	Name               string        `json:"name"`
	Type               string        `json:"type"`
	Manufacturer       string        `json:"manufacturer"`
	ModelNumber        string        `json:"modelNumber"`
	SerialNumber       string        `json:"serialNumber"`
	PurchaseDate       time.Time     `json:"purchaseDate"`
	WarrantyExpiryDate time.Time     `json:"warrantyExpiryDate"`
	ProtectionPlan     *PlanResponse `json:"protectionPlan"`
	AIRecommendations  []string      `json:"aiRecommendations"`
	ClaimHistory       []Claim       `json:"claimHistory"`
}

// Claim is the wire form of a stored claim.
type Claim struct {
	Date       time.Time `json:"date"`
	Type       string    `json:"type"`
	Resolution string    `json:"resolution"`
}

// transformDevice projects a stored device into its wire representation.
// This is the sole transformation between storage and transport and is
// applied uniformly.
func transformDevice(device *entities.Device) DeviceResponse {
	resp := DeviceResponse{
		DeviceID:           device.ID.Hex(),
		UserID:             device.UserID.Hex(),
		Name:               device.Name,
		Type:               string(device.Type),
		Manufacturer:       device.Manufacturer,
		ModelNumber:        device.ModelNumber,
		SerialNumber:       device.SerialNumber,
		PurchaseDate:       device.PurchaseDate,
		WarrantyExpiryDate: device.WarrantyExpiryDate,
		AIRecommendations:  []string{},
		ClaimHistory:       []Claim{},
	}

	if device.ProtectionPlan != nil {
		resp.ProtectionPlan = &PlanResponse{
			ID:        device.ProtectionPlan.ID.Hex(),
			PlanName:  device.ProtectionPlan.PlanName,
			StartDate: device.ProtectionPlan.StartDate,
			EndDate:   device.ProtectionPlan.EndDate,
			Coverage:  device.ProtectionPlan.Coverage,
			Status:    string(device.ProtectionPlan.Status),
		}
	}
	if device.AIRecommendations != nil {
		resp.AIRecommendations = device.AIRecommendations
	}
	for _, claim := range device.ClaimHistory {
		resp.ClaimHistory = append(resp.ClaimHistory, Claim{
			Date:       claim.Date,
			Type:       claim.Type,
			Resolution: claim.Resolution,
		})
	}

	return resp
}
