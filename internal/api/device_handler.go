package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/usecase"
)

// DeviceHandler translates device endpoints onto the device, plan and
// recommendation services.
type DeviceHandler struct {
	devices         *usecase.DeviceService
	plans           *usecase.PlanService
	recommendations *usecase.RecommendationService
	logger          *zap.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices *usecase.DeviceService, plans *usecase.PlanService, recommendations *usecase.RecommendationService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		devices:         devices,
		plans:           plans,
		recommendations: recommendations,
		logger:          logger,
	}
}

func parseObjectID(value, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, entities.NewValidationError(field + " must be a valid id")
	}
	return id, nil
}

// Add handles POST /devices
func (h *DeviceHandler) Add(c echo.Context) error {
	var req AddDeviceRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("Add device validation failed", zap.Error(err))
		return fail(c, http.StatusBadRequest, err.Error())
	}

	userID, err := parseObjectID(req.UserID, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	device := &entities.Device{
		UserID:             userID,
		Name:               req.Name,
		Type:               entities.DeviceType(req.Type),
		Manufacturer:       req.Manufacturer,
		ModelNumber:        req.ModelNumber,
		SerialNumber:       req.SerialNumber,
		PurchaseDate:       req.PurchaseDate.Time,
		WarrantyExpiryDate: req.WarrantyExpiryDate.Time,
	}

	var plan *usecase.PlanInput
	if req.ProtectionPlan != nil {
		plan = &usecase.PlanInput{
			PlanName:       req.ProtectionPlan.PlanName,
			DurationMonths: req.ProtectionPlan.DurationMonths,
			Coverage:       req.ProtectionPlan.Coverage,
		}
	}

	if err := h.devices.Add(c.Request().Context(), device, plan); err != nil {
		switch {
		case errors.Is(err, entities.ErrConflict):
			return fail(c, http.StatusConflict, "A device with this serial number already exists.")
		case errors.Is(err, entities.ErrInvalidDateRange):
			return fail(c, http.StatusBadRequest, "Purchase Date cannot be later than Warranty Date")
		}
		h.logger.Error("Add device failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to add device")
	}

	return respond(c, http.StatusCreated, "Device added successfully", nil)
}

// List handles GET /devices?userId=
func (h *DeviceHandler) List(c echo.Context) error {
	rawUserID := c.QueryParam("userId")
	if rawUserID == "" {
		return fail(c, http.StatusBadRequest, "userId is required")
	}
	userID, err := parseObjectID(rawUserID, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	devices, err := h.devices.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("List devices failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to fetch devices")
	}

	responses := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		responses = append(responses, transformDevice(device))
	}

	return respond(c, http.StatusOK, "Devices fetched successfully", responses)
}

// Update handles PATCH /devices/:id
func (h *DeviceHandler) Update(c echo.Context) error {
	var req UpdateDeviceRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.DeviceID = c.Param("id")
	if err := req.Validate(); err != nil {
		h.logger.Warn("Update device validation failed", zap.Error(err))
		return fail(c, http.StatusBadRequest, err.Error())
	}

	deviceID, err := parseObjectID(req.DeviceID, "deviceId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	userID, err := parseObjectID(req.UserID, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	device := &entities.Device{
		ID:                 deviceID,
		UserID:             userID,
		Name:               req.Name,
		Type:               entities.DeviceType(req.Type),
		Manufacturer:       req.Manufacturer,
		ModelNumber:        req.ModelNumber,
		SerialNumber:       req.SerialNumber,
		PurchaseDate:       req.PurchaseDate.Time,
		WarrantyExpiryDate: req.WarrantyExpiryDate.Time,
		AIRecommendations:  req.AIRecommendations,
		ClaimHistory:       make([]entities.Claim, 0, len(req.ClaimHistory)),
	}
	for _, claim := range req.ClaimHistory {
		device.ClaimHistory = append(device.ClaimHistory, entities.Claim{
			Date:       claim.Date.Time,
			Type:       claim.Type,
			Resolution: claim.Resolution,
		})
	}
	if req.ProtectionPlan != nil {
		planID, err := parseObjectID(req.ProtectionPlan.ID, "protectionPlan._id")
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		device.ProtectionPlan = &entities.ProtectionPlan{
			ID:        planID,
			PlanName:  req.ProtectionPlan.PlanName,
			StartDate: req.ProtectionPlan.StartDate.Time,
			EndDate:   req.ProtectionPlan.EndDate.Time,
			Coverage:  req.ProtectionPlan.Coverage,
			Status:    entities.PlanStatus(req.ProtectionPlan.Status),
		}
	}

	if err := h.devices.Update(c.Request().Context(), device); err != nil {
		switch {
		case errors.Is(err, entities.ErrInvalidDateRange):
			return fail(c, http.StatusBadRequest, "Purchase Date cannot be later than Warranty Date")
		case errors.Is(err, entities.ErrNotFound):
			return fail(c, http.StatusNotFound, "Device not found")
		case errors.Is(err, entities.ErrConflict):
			return fail(c, http.StatusConflict, "A device with this serial number already exists.")
		}
		h.logger.Error("Update device failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to update device")
	}

	return respond(c, http.StatusOK, "Device updated successfully", nil)
}

// Delete handles DELETE /devices/:id
func (h *DeviceHandler) Delete(c echo.Context) error {
	deviceID, err := parseObjectID(c.Param("id"), "deviceId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.devices.Delete(c.Request().Context(), deviceID); err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Device not found")
		}
		h.logger.Error("Delete device failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to delete device")
	}

	return respond(c, http.StatusOK, "Device deleted successfully", nil)
}

// AddPlan handles POST /devices/:id/protection-plan
func (h *DeviceHandler) AddPlan(c echo.Context) error {
	deviceID, err := parseObjectID(c.Param("id"), "deviceId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	var req AddPlanRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("Add plan validation failed", zap.Error(err))
		return fail(c, http.StatusBadRequest, err.Error())
	}

	_, err = h.plans.Add(c.Request().Context(), deviceID, usecase.PlanInput{
		PlanName:       req.PlanName,
		DurationMonths: req.DurationMonths,
		Coverage:       req.Coverage,
	})
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Device not found")
		}
		h.logger.Error("Add plan failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to add protection plan")
	}

	return respond(c, http.StatusOK, "Protection plan added successfully", nil)
}

// ExtendPlan handles PATCH /devices/:id/protection-plan/extend
func (h *DeviceHandler) ExtendPlan(c echo.Context) error {
	deviceID, err := parseObjectID(c.Param("id"), "deviceId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	var req ExtendPlanRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	_, err = h.plans.Extend(c.Request().Context(), deviceID, req.DurationMonths)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrNotFound):
			return fail(c, http.StatusNotFound, "Device not found")
		case errors.Is(err, entities.ErrPlanNotFound):
			return fail(c, http.StatusNotFound, "Protection plan not found")
		}
		h.logger.Error("Extend plan failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to extend protection plan")
	}

	return respond(c, http.StatusOK, "Protection plan extended successfully", nil)
}

// Recommend handles POST /devices/ai-recommendations
func (h *DeviceHandler) Recommend(c echo.Context) error {
	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	userID, err := parseObjectID(req.UserID, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	deviceID, err := parseObjectID(req.DeviceID, "deviceId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	text, err := h.recommendations.Generate(c.Request().Context(), userID, deviceID)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Device not found")
		}
		h.logger.Error("Recommendation generation failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to generate recommendations")
	}

	return respond(c, http.StatusOK, "AI Recommendations generated successfully", text)
}
