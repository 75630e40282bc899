package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readyflight/reservations/internal/service/reports"
)

type ReportHandler struct {
	service reports.ReportUseCase
}

func NewReportHandler(service reports.ReportUseCase) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Register(router *gin.RouterGroup) {
	router.GET("/bookings", h.bookings)
	router.GET("/utilization", h.utilization)
}

func (h *ReportHandler) bookings(c *gin.Context) {
	list, err := h.service.Bookings(c.Request.Context(), c.Query("flight"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list, "total": len(list)})
}

func (h *ReportHandler) utilization(c *gin.Context) {
	report, err := h.service.Utilization(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
