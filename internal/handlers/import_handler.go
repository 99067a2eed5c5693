package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"prestashop-importer-service/internal/models"
	"prestashop-importer-service/internal/repository"
	"prestashop-importer-service/internal/services"
)

// ImportHandler handles import run endpoints
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// entityFromPath maps the URL segment onto an entity type
var entityFromPath = map[string]models.EntityType{
	"customers":  models.EntityCustomers,
	"categories": models.EntityCategories,
	"products":   models.EntityProducts,
	"groups":     models.EntityGroups,
}

// Start launches an import run for one entity
func (h *ImportHandler) Start(c *gin.Context) {
	backendID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backend id"})
		return
	}

	entity, ok := entityFromPath[c.Param("entity")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown import entity"})
		return
	}

	run, err := h.service.StartRun(c.Request.Context(), backendID, entity, c.GetString("userId"))
	if err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "already running") {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": run})
}

// ListRuns returns import runs for a tenant
func (h *ImportHandler) ListRuns(c *gin.Context) {
	tenantID := c.GetString("tenantId")

	opts := &repository.RunListOptions{
		Entity: c.Query("entity"),
		State:  c.Query("state"),
	}
	if backendID, err := uuid.Parse(c.Query("backendId")); err == nil {
		opts.BackendID = backendID
	}
	opts.Limit, _ = strconv.Atoi(c.Query("limit"))
	opts.Offset, _ = strconv.Atoi(c.Query("offset"))

	runs, total, err := h.service.ListRuns(c.Request.Context(), tenantID, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  runs,
		"total": total,
	})
}

// GetRun returns one import run
func (h *ImportHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	tenantID := c.GetString("tenantId")
	if run.TenantID != tenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

// GetRunLogs returns the log lines of a run
func (h *ImportHandler) GetRunLogs(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	opts := repository.LogListOptions{
		Level: c.Query("level"),
	}
	opts.Limit, _ = strconv.Atoi(c.Query("limit"))
	opts.Offset, _ = strconv.Atoi(c.Query("offset"))

	logs, err := h.service.GetRunLogs(c.Request.Context(), id, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// CancelRun requests cancellation of an active run
func (h *ImportHandler) CancelRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.CancelRun(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "cancellation requested"})
}
