package vehicles

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
)

type VehicleHandlers struct {
	service VehicleService
	logger  *zap.Logger
}

func NewVehicleHandlers(service VehicleService, logger *zap.Logger) *VehicleHandlers {
	return &VehicleHandlers{service: service, logger: logger}
}

type listingRequest struct {
	Title       string   `json:"title" binding:"required"`
	Make        string   `json:"make" binding:"required"`
	Model       string   `json:"model" binding:"required"`
	Year        int      `json:"year" binding:"required"`
	PriceRupees int64    `json:"price_rupees" binding:"required"`
	HoursUsed   int      `json:"hours_used"`
	Description string   `json:"description"`
	PhotoKeys   []string `json:"photo_keys"`
}

func (req listingRequest) toModel() *models.Vehicle {
	return &models.Vehicle{
		Title:       req.Title,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		PriceRupees: req.PriceRupees,
		HoursUsed:   req.HoursUsed,
		Description: req.Description,
		PhotoKeys:   req.PhotoKeys,
	}
}

func parseFilter(c *gin.Context) models.VehicleFilter {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(c.Query(key))
		return n
	}
	return models.VehicleFilter{
		Make:     c.Query("make"),
		Model:    c.Query("model"),
		MinPrice: int64(atoi("min_price")),
		MaxPrice: int64(atoi("max_price")),
		MinYear:  atoi("min_year"),
		MaxYear:  atoi("max_year"),
		Limit:    atoi("limit"),
		Offset:   atoi("offset"),
	}
}

// Browse is the public listings page. A backend hiccup renders an empty
// result list, not an error page.
func (h *VehicleHandlers) Browse(c *gin.Context) {
	result, err := h.service.Browse(c.Request.Context(), parseFilter(c))
	if err != nil {
		h.logger.Warn("Browse query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"vehicles": []models.Vehicle{}})
		return
	}
	if result == nil {
		result = []models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": result})
}

// Search is Browse plus free text. An anonymous search is recorded without
// a user id.
func (h *VehicleHandlers) Search(c *gin.Context) {
	var userID *uuid.UUID
	if session := appmiddleware.GetSession(c); session != nil {
		userID = &session.UserID
	}

	text := c.Query("q")
	result, matched, err := h.service.Search(c.Request.Context(), userID, text, parseFilter(c))
	if err != nil {
		h.logger.Warn("Search query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"vehicles": []models.Vehicle{}, "matched": []string{}})
		return
	}
	if result == nil {
		result = []models.Vehicle{}
	}
	if matched == nil {
		matched = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": result, "matched": matched})
}

func (h *VehicleHandlers) GetVehicle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}
	v, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		h.logger.Error("Vehicle fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load vehicle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": v})
}

// --- Seller portal ---

func (h *VehicleHandlers) CreateListing(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing payload"})
		return
	}

	id, err := h.service.CreateListing(c.Request.Context(), session.UserID, req.toModel())
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Listing create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create listing"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *VehicleHandlers) UpdateListing(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing payload"})
		return
	}

	v := req.toModel()
	v.ID = id
	if err := h.service.UpdateListing(c.Request.Context(), session.UserID, v); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		h.logger.Error("Listing update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update listing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *VehicleHandlers) MyListings(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	result, err := h.service.MyListings(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Seller listings query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"vehicles": []models.Vehicle{}})
		return
	}
	if result == nil {
		result = []models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": result})
}

func (h *VehicleHandlers) MarkSold(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	if err := h.service.MarkSold(c.Request.Context(), session.UserID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found or not approved"})
			return
		}
		h.logger.Error("Mark sold failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark listing sold"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.VehicleStatusSold})
}

// --- Admin moderation ---

func (h *VehicleHandlers) PendingModeration(c *gin.Context) {
	result, err := h.service.PendingModeration(c.Request.Context())
	if err != nil {
		h.logger.Warn("Moderation queue query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"vehicles": []models.Vehicle{}})
		return
	}
	if result == nil {
		result = []models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": result})
}

func (h *VehicleHandlers) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}
	if err := h.service.Approve(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		h.logger.Error("Approve failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve listing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.VehicleStatusApproved})
}

func (h *VehicleHandlers) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
		return
	}

	if err := h.service.Reject(c.Request.Context(), id, body.Reason); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		h.logger.Error("Reject failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject listing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.VehicleStatusRejected})
}
