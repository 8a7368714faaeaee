package handlers

import (
	"strconv"

	"gotogether/internal/services"
	"gotogether/internal/utils"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// GetRoom returns the ride's chat room for participants.
func (h *ChatHandler) GetRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	room, err := h.chatService.GetRoom(c.Request.Context(), rideID, userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Chat room retrieved", room)
}

// GetMessages returns recent messages, newest last.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	messages, err := h.chatService.GetMessages(c.Request.Context(), rideID, userID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Messages retrieved", messages)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage posts a chat message; delivery to connected clients rides the
// websocket broadcast.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request sendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), rideID, userID, request.Text)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Message sent", message)
}

type pinLocationRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// PinLocation pins a meeting point on the ride's chat room.
func (h *ChatHandler) PinLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request pinLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.chatService.PinLocation(c.Request.Context(), rideID, userID, request.Lat, request.Lng, request.Label); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location pinned", nil)
}
