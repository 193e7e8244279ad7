package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/location"
	"github.com/parceltrack/backend/internal/response"
)

type Drivers struct {
	svc      *drivers.Service
	location *location.Service
}

func NewDrivers(svc *drivers.Service, loc *location.Service) *Drivers {
	return &Drivers{svc: svc, location: loc}
}

type registerDriverRequest struct {
	Name          string `json:"name"`
	VehicleType   string `json:"vehicleType"`
	LicenseNumber string `json:"licenseNumber"`
}

// Register — POST /users/me/register-driver.
func (h *Drivers) Register(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req registerDriverRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.svc.Register(ctx, caller.UserID, drivers.Registration{
		Name:          req.Name,
		VehicleType:   req.VehicleType,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, response.MsgCreated, gin.H{"driver": d})
}

type driverProfileRequest struct {
	Name          *string              `json:"name"`
	VehicleType   *string              `json:"vehicleType"`
	LicenseNumber *string              `json:"licenseNumber"`
	Status        *domain.DriverStatus `json:"status"`
}

// UpdateProfile — PATCH /users/me/driver-profile.
func (h *Drivers) UpdateProfile(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	if !caller.IsDriver() {
		response.Fail(c, domain.NotFound("driver profile not found, register first"))
		return
	}
	var req driverProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.svc.UpdateOwnProfile(ctx, *caller.DriverID, drivers.UpdateProfile{
		Name:          req.Name,
		VehicleType:   req.VehicleType,
		LicenseNumber: req.LicenseNumber,
		Status:        req.Status,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"driver": d})
}

// List — GET /drivers (admin).
func (h *Drivers) List(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.List(ctx)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"drivers": nonNil(list)})
}

// Get — GET /drivers/:id (admin или сам водитель).
func (h *Drivers) Get(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if !caller.IsAdmin() && (caller.DriverID == nil || *caller.DriverID != id) {
		response.Fail(c, domain.Forbidden("you can only view your own driver profile"))
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.svc.Get(ctx, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"driver": d})
}

type driverStatusRequest struct {
	Status domain.DriverStatus `json:"status" binding:"required"`
}

// SetStatus — PATCH /drivers/:id/status (admin).
func (h *Drivers) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req driverStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"driver": d})
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  *float64 `json:"accuracy"`
}

// ReportLocation — POST /location/:driverId и POST /drivers/:id/location.
func (h *Drivers) ReportLocation(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := mustCaller(c)
		if !ok {
			return
		}
		id, ok := pathUUID(c, param)
		if !ok {
			return
		}
		var req locationRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx, cancel := reqCtx(c)
		defer cancel()
		s, err := h.location.ReportLocation(ctx, caller, id, location.Report{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Accuracy:  req.Accuracy,
		})
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"location": s})
	}
}
