package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/adapters/llm"
	"github.com/gadgetguard/aegis/adapters/memory"
	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/internal/auth"
	"github.com/gadgetguard/aegis/usecase"
)

type testServer struct {
	echo    *echo.Echo
	devices *memory.DeviceRepository
	users   *memory.UserRepository
	tokens  *auth.Manager
}

func newTestServer() *testServer {
	logger := zap.NewNop()
	deviceRepo := memory.NewDeviceRepository()
	userRepo := memory.NewUserRepository()
	tokens := auth.NewManager([]byte("test-secret"))

	userService := usecase.NewUserService(userRepo, tokens, logger)
	deviceService := usecase.NewDeviceService(deviceRepo, logger)
	planService := usecase.NewPlanService(deviceRepo, logger)
	recommendationService := usecase.NewRecommendationService(
		deviceRepo, llm.NewMockGenerator("Renew soon."), logger)

	e := echo.New()
	InitRoutes(e,
		NewUserHandler(userService, tokens, logger),
		NewDeviceHandler(deviceService, planService, recommendationService, logger),
		tokens, logger)

	return &testServer{echo: e, devices: deviceRepo, users: userRepo, tokens: tokens}
}

func (s *testServer) request(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var envelope Response
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response envelope %q: %v", rec.Body.String(), err)
	}
	return rec, envelope
}

func (s *testServer) authToken(t *testing.T) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(primitive.NewObjectID().Hex(), "tester")
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

func (s *testServer) seedDevice(t *testing.T, serial string) *entities.Device {
	t.Helper()
	device := &entities.Device{
		UserID:             primitive.NewObjectID(),
		Name:               "Galaxy S23",
		Type:               entities.DeviceTypeSmartphone,
		Manufacturer:       "Samsung",
		ModelNumber:        "SM-S911",
		SerialNumber:       serial,
		PurchaseDate:       mustTime("2023-01-15"),
		WarrantyExpiryDate: mustTime("2025-01-15"),
	}
	if err := s.devices.Create(context.Background(), device); err != nil {
		t.Fatalf("Failed to seed device: %v", err)
	}
	return device
}

func mustTime(s string) time.Time {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestRegisterLoginVerifyFlow(t *testing.T) {
	s := newTestServer()

	rec, env := s.request(t, http.MethodPost, "/users/register",
		`{"username":"alice","password":"s3cret"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, env.Message)
	}

	rec, env = s.request(t, http.MethodPost, "/users/register",
		`{"username":"alice","password":"s3cret"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate username, got %d", rec.Code)
	}

	rec, env = s.request(t, http.MethodPost, "/users/login",
		`{"username":"alice","password":"s3cret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on login, got %d: %s", rec.Code, env.Message)
	}
	data, ok := env.Data.(map[string]interface{})
	if !ok || data["token"] == "" {
		t.Fatal("Expected token in login response")
	}
	token, _ := data["token"].(string)

	rec, env = s.request(t, http.MethodPost, "/users/verifyJwt",
		`{"token":"`+token+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on verifyJwt, got %d: %s", rec.Code, env.Message)
	}
	identity, _ := env.Data.(map[string]interface{})
	if identity["username"] != "alice" {
		t.Errorf("Expected username in identity, got %v", env.Data)
	}

	rec, _ = s.request(t, http.MethodPost, "/users/verifyJwt",
		`{"token":"garbage"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for garbage token, got %d", rec.Code)
	}

	rec, _ = s.request(t, http.MethodPost, "/users/login",
		`{"username":"alice","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", rec.Code)
	}
}

func TestDeviceEndpointsRequireAuth(t *testing.T) {
	s := newTestServer()

	rec, _ := s.request(t, http.MethodGet, "/devices?userId="+primitive.NewObjectID().Hex(), "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec, _ = s.request(t, http.MethodGet, "/devices?userId="+primitive.NewObjectID().Hex(), "", "bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with invalid token, got %d", rec.Code)
	}
}

func TestAddDeviceEndpoint(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	userID := primitive.NewObjectID().Hex()

	body := `{
		"userId":"` + userID + `",
		"name":"Galaxy S23","type":"Smartphone","manufacturer":"Samsung",
		"modelNumber":"SM-S911","serialNumber":"SN1",
		"purchaseDate":"2023-01-15","warrantyExpiryDate":"2025-01-15",
		"protectionPlan":{"planName":"Premium Care","durationMonths":12,"coverage":["Accidental Damage Protection"]}
	}`

	rec, env := s.request(t, http.MethodPost, "/devices", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, env.Message)
	}

	// Duplicate serial conflicts.
	rec, env = s.request(t, http.MethodPost, "/devices", body, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate serial, got %d: %s", rec.Code, env.Message)
	}

	// Dates out of order.
	badDates := strings.Replace(body, `"serialNumber":"SN1"`, `"serialNumber":"SN2"`, 1)
	badDates = strings.Replace(badDates, `"warrantyExpiryDate":"2025-01-15"`, `"warrantyExpiryDate":"2022-01-15"`, 1)
	rec, env = s.request(t, http.MethodPost, "/devices", badDates, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad date order, got %d: %s", rec.Code, env.Message)
	}
	if env.Message != "Purchase Date cannot be later than Warranty Date" {
		t.Errorf("Unexpected message: %s", env.Message)
	}

	// Missing field is rejected with the first offending message.
	rec, env = s.request(t, http.MethodPost, "/devices", `{"userId":"`+userID+`"}`, token)
	if rec.Code != http.StatusBadRequest || env.Message != "name is required" {
		t.Errorf("Expected first-field validation message, got %d %q", rec.Code, env.Message)
	}
}

func TestListDevicesEndpoint(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	device := s.seedDevice(t, "SN1")

	rec, env := s.request(t, http.MethodGet, "/devices?userId="+device.UserID.Hex(), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, env.Message)
	}

	list, ok := env.Data.([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("Expected one device in response, got %v", env.Data)
	}
	entry := list[0].(map[string]interface{})
	if entry["deviceId"] != device.ID.Hex() {
		t.Errorf("Expected stringified deviceId, got %v", entry["deviceId"])
	}
	if entry["protectionPlan"] != nil {
		t.Errorf("Expected null protectionPlan, got %v", entry["protectionPlan"])
	}
	if _, ok := entry["aiRecommendations"].([]interface{}); !ok {
		t.Errorf("Expected defaulted aiRecommendations array, got %v", entry["aiRecommendations"])
	}

	// Unknown owner yields an empty list, not an error.
	rec, env = s.request(t, http.MethodGet, "/devices?userId="+primitive.NewObjectID().Hex(), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown owner, got %d", rec.Code)
	}
	if list, ok := env.Data.([]interface{}); !ok || len(list) != 0 {
		t.Errorf("Expected empty list, got %v", env.Data)
	}
}

func TestDeleteDeviceEndpoint(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	device := s.seedDevice(t, "SN1")

	rec, _ := s.request(t, http.MethodDelete, "/devices/"+primitive.NewObjectID().Hex(), "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device, got %d", rec.Code)
	}

	rec, _ = s.request(t, http.MethodDelete, "/devices/"+device.ID.Hex(), "", token)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", rec.Code)
	}

	rec, env := s.request(t, http.MethodGet, "/devices?userId="+device.UserID.Hex(), "", token)
	if list, ok := env.Data.([]interface{}); !ok || len(list) != 0 {
		t.Errorf("Deleted device still listed: %v", env.Data)
	}
}

func TestPlanEndpoints(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	device := s.seedDevice(t, "SN1")

	planBody := `{"planName":"Premium Care","durationMonths":12,"coverage":["Accidental Damage Protection"]}`

	rec, env := s.request(t, http.MethodPost, "/devices/"+device.ID.Hex()+"/protection-plan", planBody, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 adding plan, got %d: %s", rec.Code, env.Message)
	}

	stored, _ := s.devices.GetByID(context.Background(), device.ID)
	if stored.ProtectionPlan == nil {
		t.Fatal("Plan not persisted")
	}
	firstEnd := stored.ProtectionPlan.EndDate

	rec, env = s.request(t, http.MethodPatch, "/devices/"+device.ID.Hex()+"/protection-plan/extend",
		`{"durationMonths":6}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 extending plan, got %d: %s", rec.Code, env.Message)
	}

	stored, _ = s.devices.GetByID(context.Background(), device.ID)
	if !stored.ProtectionPlan.EndDate.Equal(firstEnd.AddDate(0, 6, 0)) {
		t.Errorf("Expected end %v, got %v", firstEnd.AddDate(0, 6, 0), stored.ProtectionPlan.EndDate)
	}

	// Extending a device without a plan is not found.
	bare := s.seedDevice(t, "SN2")
	rec, env = s.request(t, http.MethodPatch, "/devices/"+bare.ID.Hex()+"/protection-plan/extend",
		`{"durationMonths":6}`, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for plan-less device, got %d: %s", rec.Code, env.Message)
	}

	// Unknown device is not found.
	rec, _ = s.request(t, http.MethodPost, "/devices/"+primitive.NewObjectID().Hex()+"/protection-plan", planBody, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device, got %d", rec.Code)
	}
}

func TestRecommendationEndpoint(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	device := s.seedDevice(t, "SN1")

	body := `{"userId":"` + device.UserID.Hex() + `","deviceId":"` + device.ID.Hex() + `"}`
	rec, env := s.request(t, http.MethodPost, "/devices/ai-recommendations", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, env.Message)
	}
	if env.Data != "Renew soon." {
		t.Errorf("Expected generated text in data, got %v", env.Data)
	}

	stored, _ := s.devices.GetByID(context.Background(), device.ID)
	if len(stored.AIRecommendations) != 1 {
		t.Errorf("Expected recommendation appended, got %d", len(stored.AIRecommendations))
	}

	// Wrong owner pairing is not found.
	wrong := `{"userId":"` + primitive.NewObjectID().Hex() + `","deviceId":"` + device.ID.Hex() + `"}`
	rec, _ = s.request(t, http.MethodPost, "/devices/ai-recommendations", wrong, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for wrong owner, got %d", rec.Code)
	}
}

func TestUpdateDeviceEndpoint(t *testing.T) {
	s := newTestServer()
	token := s.authToken(t)
	device := s.seedDevice(t, "SN1")

	body := `{
		"userId":"` + device.UserID.Hex() + `",
		"name":"Galaxy S24","type":"Smartphone","manufacturer":"Samsung",
		"modelNumber":"SM-S921","serialNumber":"SN1",
		"purchaseDate":"2023-01-15","warrantyExpiryDate":"2025-01-15"
	}`

	rec, env := s.request(t, http.MethodPatch, "/devices/"+device.ID.Hex(), body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, env.Message)
	}

	stored, _ := s.devices.GetByID(context.Background(), device.ID)
	if stored.Name != "Galaxy S24" || stored.ModelNumber != "SM-S921" {
		t.Errorf("Update did not overwrite fields: %+v", stored)
	}

	rec, _ = s.request(t, http.MethodPatch, "/devices/"+primitive.NewObjectID().Hex(), body, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown device, got %d", rec.Code)
	}
}
