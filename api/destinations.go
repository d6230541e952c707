package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Domenick1991/travelbooking/internal/service/destinations"
	"github.com/gin-gonic/gin"
)

type DestinationHandler struct {
	service destinations.DestinationUseCase
	logger  *slog.Logger
}

func NewDestinationHandler(service destinations.DestinationUseCase, logger *slog.Logger) *DestinationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DestinationHandler{service: service, logger: logger}
}

func (h *DestinationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *DestinationHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DestinationHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
