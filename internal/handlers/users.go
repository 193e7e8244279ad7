package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/response"
)

type meResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Role       domain.Role     `json:"role"`
	CustomerID *string         `json:"customer_id"`
	DriverID   *uuid.UUID      `json:"driver_id"`
	DriverName *string         `json:"driver_name"`
	Driver     *drivers.Driver `json:"driver,omitempty"`
}

// Me — GET /users/me: роль и профиль водителя, если он есть.
func (h *Drivers) Me(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	out := meResponse{ID: caller.UserID, UserID: caller.UserID, Role: caller.Role, DriverID: caller.DriverID}
	if caller.Role == domain.RoleCustomer {
		out.CustomerID = &caller.UserID
	}
	if caller.IsDriver() {
		ctx, cancel := reqCtx(c)
		defer cancel()
		d, err := h.svc.Get(ctx, *caller.DriverID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			response.Fail(c, err)
			return
		}
		if d != nil {
			out.Driver = d
			out.DriverName = &d.Name
		}
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, out)
}
