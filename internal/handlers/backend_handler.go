package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"prestashop-importer-service/internal/repository"
	"prestashop-importer-service/internal/services"
)

// BackendHandler handles PrestaShop backend endpoints
type BackendHandler struct {
	service *services.BackendService
}

// NewBackendHandler creates a new backend handler
func NewBackendHandler(service *services.BackendService) *BackendHandler {
	return &BackendHandler{service: service}
}

// List returns all backends for a tenant
func (h *BackendHandler) List(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	opts := &repository.BackendListOptions{
		Status: c.Query("status"),
	}
	opts.Limit, _ = strconv.Atoi(c.Query("limit"))
	opts.Offset, _ = strconv.Atoi(c.Query("offset"))

	backends, total, err := h.service.List(c.Request.Context(), tenantID, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  backends,
		"total": total,
	})
}

// Create registers a new backend
func (h *BackendHandler) Create(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	var req services.CreateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.TenantID = tenantID

	backend, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": backend})
}

// Get returns a single backend
func (h *BackendHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	backend, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "backend not found"})
		return
	}

	// Verify tenant
	tenantID := c.GetString("tenantId")
	if backend.TenantID != tenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "backend not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": backend})
}

// Update applies a partial update to a backend
func (h *BackendHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req services.UpdateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	backend, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": backend})
}

// Delete removes a backend
func (h *BackendHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "backend deleted"})
}

// TestConnection runs the three-step connection diagnostics
func (h *BackendHandler) TestConnection(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	diag, err := h.service.TestConnection(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": diag})
}
