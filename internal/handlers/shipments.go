package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/lifecycle"
	"github.com/parceltrack/backend/internal/location"
	"github.com/parceltrack/backend/internal/response"
	"github.com/parceltrack/backend/internal/shipments"
)

type Shipments struct {
	svc         *shipments.Service
	engine      *lifecycle.Engine
	events      *events.Log
	location    *location.Service
	publicReads bool
}

func NewShipments(svc *shipments.Service, engine *lifecycle.Engine, ev *events.Log, loc *location.Service, publicReads bool) *Shipments {
	return &Shipments{svc: svc, engine: engine, events: ev, location: loc, publicReads: publicReads}
}

// Create — POST /users/me/shipments.
func (h *Shipments) Create(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	var req CreateShipmentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.svc.Create(ctx, caller.UserID, req.ToNewShipment())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, response.MsgCreated, gin.H{"shipment": sh})
}

// ListMine — GET /users/me/shipments.
func (h *Shipments) ListMine(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.ListForCustomer(ctx, caller.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipments": nonNil(list)})
}

// GetMine — GET /users/me/shipments/:id.
func (h *Shipments) GetMine(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.svc.Get(ctx, caller, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

// DeleteMine — DELETE /users/me/shipments/:id.
func (h *Shipments) DeleteMine(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.svc.Delete(ctx, caller.UserID, id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgDeleted, nil)
}

// Track — GET /shipments/track/:trackingNumber, публичный.
func (h *Shipments) Track(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.svc.Track(ctx, c.Param("trackingNumber"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

// readable проверяет доступ к отправке для /location и /events.
func (h *Shipments) readable(c *gin.Context) (*shipments.Shipment, bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return nil, false
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	var (
		sh  *shipments.Shipment
		err error
	)
	if h.publicReads {
		sh, err = h.svc.Lookup(ctx, id)
	} else {
		caller, ok := mustCaller(c)
		if !ok {
			return nil, false
		}
		sh, err = h.svc.Get(ctx, caller, id)
	}
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	return sh, true
}

// Location — GET /shipments/:id/location; location=null, пока нет водителя или точки.
func (h *Shipments) Location(c *gin.Context) {
	sh, ok := h.readable(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	view, err := h.location.GetLocation(ctx, sh.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh, "location": view})
}

// Events — GET /shipments/:id/events.
func (h *Shipments) Events(c *gin.Context) {
	sh, ok := h.readable(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.events.ListForShipment(ctx, sh.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"events": nonNil(list)})
}

type statusRequest struct {
	Status domain.ShipmentStatus `json:"status" binding:"required"`
}

// UpdateStatus — PATCH /shipments/:id/status и /users/me/deliveries/:id/status.
func (h *Shipments) UpdateStatus(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.engine.Transition(ctx, caller, id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

type assignRequest struct {
	DriverID string `json:"driverId" binding:"required"`
}

// AssignDriver — POST /shipments/:id/assign-driver (admin).
func (h *Shipments) AssignDriver(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}
	driverID, err := parseUUID(req.DriverID, "driverId")
	if err != nil {
		response.Fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.engine.AssignDriver(ctx, caller, id, driverID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

type packageStatusRequest struct {
	PackageStatus domain.PackageStatus `json:"packageStatus" binding:"required"`
}

// SetPackageStatus — PATCH /shipments/:id/package-status (admin).
func (h *Shipments) SetPackageStatus(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req packageStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.engine.SetPackageStatus(ctx, caller, id, req.PackageStatus)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

// AvailablePackages — GET /users/me/available-packages?limit=N.
func (h *Shipments) AvailablePackages(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.Fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.engine.ListAvailable(ctx, caller, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"packages": nonNil(list)})
}

// Claim — POST /users/me/packages/:id/claim.
func (h *Shipments) Claim(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sh, err := h.engine.Claim(ctx, caller, id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"shipment": sh})
}

// Deliveries — GET /users/me/deliveries?status=.
func (h *Shipments) Deliveries(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.svc.ListDeliveries(ctx, caller, c.Query("status"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, gin.H{"deliveries": nonNil(list)})
}

// Stats — GET /users/me/stats.
func (h *Shipments) Stats(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.svc.Stats(ctx, caller)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, response.MsgSuccess, st)
}

