package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/domain/entities"
	"github.com/gadgetguard/aegis/internal/auth"
	"github.com/gadgetguard/aegis/usecase"
)

// UserHandler translates user endpoints onto the user service.
type UserHandler struct {
	users  *usecase.UserService
	tokens *auth.Manager
	logger *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *usecase.UserService, tokens *auth.Manager, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register handles POST /users/register
func (h *UserHandler) Register(c echo.Context) error {
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("Register validation failed", zap.Error(err))
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.users.Register(c.Request().Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, entities.ErrConflict) {
			return fail(c, http.StatusConflict, "Username already exists")
		}
		h.logger.Error("Register failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to register user")
	}

	return respond(c, http.StatusCreated, "User registered successfully", nil)
}

// Login handles POST /users/login
func (h *UserHandler) Login(c echo.Context) error {
	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	token, err := h.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCredentials) {
			return fail(c, http.StatusUnauthorized, "Invalid username or password")
		}
		h.logger.Error("Login failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "failed to log in")
	}

	return respond(c, http.StatusOK, "Login successful", map[string]string{"token": token})
}

// VerifyJwt handles POST /users/verifyJwt
func (h *UserHandler) VerifyJwt(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	claims, err := h.tokens.ValidateToken(req.Token)
	if err != nil {
		h.logger.Warn("Token verification failed", zap.Error(err))
		return fail(c, http.StatusUnauthorized, "Invalid Token")
	}

	return respond(c, http.StatusOK, "Successfully Authenticated", map[string]string{
		"userId":   claims.UserID,
		"username": claims.Username,
	})
}
