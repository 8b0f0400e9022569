package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gocard/gateway/internal/middleware"
	"gocard/gateway/internal/upstream"
)

// reqCtx carries the caller's credential into every upstream call.
func reqCtx(c *gin.Context) context.Context {
	return upstream.WithCredential(c.Request.Context(), middleware.Credential(c))
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

// --- Employees ---

type employeeCreateRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Phone           string `json:"phone" binding:"required"`
	Address         string `json:"address" binding:"required"`
	ExperienceLevel int    `json:"experienceLevel" binding:"required,min=1,max=5"`
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
}

type employeeUpdateRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address" binding:"required"`
}

func (h HandlerSet) ListEmployees(c *gin.Context) {
	employees, err := h.employees.List(reqCtx(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h HandlerSet) CreateEmployee(c *gin.Context) {
	var req employeeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.employees.Create(reqCtx(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h HandlerSet) UpdateEmployee(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req employeeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.employees.Update(reqCtx(c), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteEmployee(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.employees.Delete(reqCtx(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Bicycles ---

type bicycleRequest struct {
	BicycleNumber int  `json:"bicycleNumber" binding:"required,min=1"`
	InOperate     bool `json:"inOperate"`
}

func (h HandlerSet) ListBicycles(c *gin.Context) {
	bicycles, err := h.bicycles.List(reqCtx(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bicycles)
}

func (h HandlerSet) CreateBicycle(c *gin.Context) {
	var req bicycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bicycleNumber must be a positive number"})
		return
	}

	created, err := h.bicycles.Create(reqCtx(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h HandlerSet) UpdateBicycle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req bicycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bicycleNumber must be a positive number"})
		return
	}

	if err := h.bicycles.Update(reqCtx(c), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteBicycle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.bicycles.Delete(reqCtx(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Routes ---

type routeRequest struct {
	RouteNumber int `json:"routeNumber" binding:"required,min=1"`
}

func (h HandlerSet) ListRoutes(c *gin.Context) {
	routes, err := h.routes.List(reqCtx(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

func (h HandlerSet) CreateRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "routeNumber must be a positive integer"})
		return
	}

	created, err := h.routes.Create(reqCtx(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h HandlerSet) DeleteRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.routes.Delete(reqCtx(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Shifts ---

type shiftRequest struct {
	DateOfShift string `json:"dateOfShift" binding:"required"`
	EmployeeID  int    `json:"employeeId" binding:"required,min=1"`
	BicycleID   int    `json:"bicycleId" binding:"required,min=1"`
	RouteID     int    `json:"routeId" binding:"required,min=1"`
	// SubstitutedID falls back to EmployeeID when left empty, mirroring the
	// backend's default.
	SubstitutedID int `json:"substitutedId"`
}

func (r *shiftRequest) normalize() {
	if r.SubstitutedID == 0 {
		r.SubstitutedID = r.EmployeeID
	}
	r.DateOfShift = strings.TrimSpace(r.DateOfShift)
}

func (h HandlerSet) ListShifts(c *gin.Context) {
	shifts, err := h.shifts.List(reqCtx(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}

func (h HandlerSet) CreateShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.normalize()

	created, err := h.shifts.Create(reqCtx(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h HandlerSet) UpdateShift(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.normalize()

	if err := h.shifts.Update(reqCtx(c), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteShift(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.shifts.Delete(reqCtx(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
