package handler

import (
	"io"
	"net/http"

	"consignment-ledger/internal/core/ports"
	"consignment-ledger/pkg/apperror"
	"consignment-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /login. The request body is the raw plaintext
// password; on success the bearer token is returned as a plain-text
// body, ready to be used verbatim as an Authorization header.
func (h *AuthHandler) Login(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("unreadable request body"))
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), string(body), c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Text(c, http.StatusOK, token)
}

// Teapot handles GET /teapot.
func Teapot(c *gin.Context) {
	response.Text(c, http.StatusTeapot, "I'm a teapot")
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
