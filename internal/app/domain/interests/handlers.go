package interests

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
)

type InterestHandlers struct {
	service InterestService
	logger  *zap.Logger
}

func NewInterestHandlers(service InterestService, logger *zap.Logger) *InterestHandlers {
	return &InterestHandlers{service: service, logger: logger}
}

// Express handles the buyer's "I'm interested" button. Double clicks land
// here twice and both return 201.
func (h *InterestHandlers) Express(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	_ = c.ShouldBindJSON(&body)

	if err := h.service.Express(c.Request.Context(), session.UserID, vehicleID, body.Message); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		case errors.Is(err, models.ErrBadRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "listing is not open for interest"})
		default:
			h.logger.Error("Express interest failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record interest"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle_id": vehicleID})
}

func (h *InterestHandlers) Withdraw(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), session.UserID, vehicleID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no interest on record"})
			return
		}
		h.logger.Error("Withdraw interest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not withdraw interest"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InterestHandlers) MyInterests(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	out, err := h.service.MyInterests(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Interest list failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"interests": []models.BuyerInterest{}})
		return
	}
	if out == nil {
		out = []models.BuyerInterest{}
	}
	c.JSON(http.StatusOK, gin.H{"interests": out})
}

func (h *InterestHandlers) VehicleInterests(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return
	}

	out, err := h.service.InterestsForVehicle(c.Request.Context(), session.UserID, vehicleID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not your listing"})
		default:
			h.logger.Warn("Vehicle interest list failed, rendering empty list", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"interests": []models.BuyerInterest{}})
		}
		return
	}
	if out == nil {
		out = []models.BuyerInterest{}
	}
	c.JSON(http.StatusOK, gin.H{"interests": out})
}
