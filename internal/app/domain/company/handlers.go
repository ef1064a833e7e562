package company

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

// Company pages are public brochure content: when the database is
// unreachable they render empty rather than erroring.
type CompanyHandlers struct {
	service CompanyService
	logger  *zap.Logger
}

func NewCompanyHandlers(service CompanyService, logger *zap.Logger) *CompanyHandlers {
	return &CompanyHandlers{service: service, logger: logger}
}

func (h *CompanyHandlers) About(c *gin.Context) {
	info, err := h.service.Info(c.Request.Context())
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Warn("Company info query failed, rendering empty page", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"company": models.CompanyInfo{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": info})
}

func (h *CompanyHandlers) Leadership(c *gin.Context) {
	out, err := h.service.Leadership(c.Request.Context())
	if err != nil {
		h.logger.Warn("Leadership query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"leadership": []models.LeadershipMember{}})
		return
	}
	if out == nil {
		out = []models.LeadershipMember{}
	}
	c.JSON(http.StatusOK, gin.H{"leadership": out})
}

func (h *CompanyHandlers) Awards(c *gin.Context) {
	out, err := h.service.Awards(c.Request.Context())
	if err != nil {
		h.logger.Warn("Awards query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"awards": []models.CompanyAward{}})
		return
	}
	if out == nil {
		out = []models.CompanyAward{}
	}
	c.JSON(http.StatusOK, gin.H{"awards": out})
}

func (h *CompanyHandlers) Branches(c *gin.Context) {
	out, err := h.service.Branches(c.Request.Context())
	if err != nil {
		h.logger.Warn("Branches query failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"branches": []models.BranchLocation{}})
		return
	}
	if out == nil {
		out = []models.BranchLocation{}
	}
	c.JSON(http.StatusOK, gin.H{"branches": out})
}
