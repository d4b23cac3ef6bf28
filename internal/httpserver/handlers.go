package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/geo"
	"bigbite-orderbot/internal/logging"
	"bigbite-orderbot/internal/service/orderbot"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	bot botService
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
	Speak   bool   `json:"speak"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "message required")
		return
	}
	res, err := h.bot.HandleMessage(c.Request.Context(), userFrom(c), req.Message, req.Speak)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type sessionResponse struct {
	orderbot.SessionInfo
	Speaking bool `json:"speaking"`
}

func (h *handlers) session(c *gin.Context) {
	key := userFrom(c).ID
	info, err := h.bot.SessionInfo(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionInfo: info, Speaking: h.bot.Speaking(key)})
}

func (h *handlers) clearChat(c *gin.Context) {
	if err := h.bot.ClearChat(c.Request.Context(), userFrom(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": "idle"})
}

func (h *handlers) orders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	orders, err := h.bot.Orders(c.Request.Context(), userFrom(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "results": orders})
}

type pointRequest struct {
	Lat *float64 `json:"lat" binding:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required,longitude"`
}

func (p *pointRequest) coordinates() *domain.Coordinates {
	if p == nil {
		return nil
	}
	return &domain.Coordinates{Latitude: *p.Lat, Longitude: *p.Lng}
}

type quoteItem struct {
	Price    float64 `json:"price" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"gte=1"`
}

type quoteRequest struct {
	Restaurant *pointRequest `json:"restaurant"`
	Customer   *pointRequest `json:"customer" binding:"required"`
	Items      []quoteItem   `json:"items" binding:"required,min=1,dive"`
}

func (h *handlers) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	items := make([]geo.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, geo.LineItem{Price: it.Price, Quantity: it.Quantity})
	}
	c.JSON(http.StatusOK, h.bot.Quote(req.Restaurant.coordinates(), req.Customer.coordinates(), items))
}

func (h *handlers) voiceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"speaking": h.bot.Speaking(userFrom(c).ID)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": msg})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orderbot.ErrEmptyMessage):
		badRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "log in to see your orders"})
	case errors.Is(err, orderbot.ErrTurnInProgress):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "turn_in_progress", "message": err.Error()})
	case errors.Is(err, orderbot.ErrChatUnavailable):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "chat_unavailable", "message": "The assistant is unavailable right now. Please try again."})
	case errors.Is(err, orderbot.ErrOrderHistoryOff):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable", "message": err.Error()})
	default:
		_ = c.Error(err)
		logging.From(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "internal error"})
	}
}
