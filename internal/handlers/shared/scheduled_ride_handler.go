package handlers

import (
	"strconv"

	"gotogether/internal/services"
	"gotogether/internal/utils"
	"gotogether/internal/validators"

	"github.com/gin-gonic/gin"
)

type ScheduledRideHandler struct {
	scheduledService services.ScheduledRideService
}

func NewScheduledRideHandler(scheduledService services.ScheduledRideService) *ScheduledRideHandler {
	return &ScheduledRideHandler{
		scheduledService: scheduledService,
	}
}

// Create posts a future ride others can accept ahead of time.
func (h *ScheduledRideHandler) Create(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}

	var request validators.CreateScheduledRideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	input, err := validators.ValidateCreateScheduledRide(&request)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	schedule, err := h.scheduledService.Create(c.Request.Context(), auth, input)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Scheduled ride created", schedule)
}

func (h *ScheduledRideHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	schedule, err := h.scheduledService.GetByID(c.Request.Context(), userID, scheduleID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Scheduled ride retrieved", schedule)
}

// ListMine returns every schedule the caller hosts or accepted.
func (h *ScheduledRideHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	schedules, err := h.scheduledService.ListMine(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Scheduled rides retrieved", schedules)
}

// Nearby lists open future rides around a point, closest first.
func (h *ScheduledRideHandler) Nearby(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Valid lat required")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		utils.BadRequestResponse(c, "Valid lng required")
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)
	radiusMeters := validators.NormalizeRadiusMeters(radius)

	schedules, err := h.scheduledService.Nearby(c.Request.Context(), userID, lat, lng, radiusMeters)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Nearby scheduled rides retrieved", schedules)
}

// Accept locks in the caller as the match for a hosted schedule.
func (h *ScheduledRideHandler) Accept(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}
	scheduleID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	schedule, err := h.scheduledService.Accept(c.Request.Context(), auth, scheduleID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Scheduled ride accepted", schedule)
}

type cancelScheduleRequest struct {
	Reason string `json:"reason"`
}

func (h *ScheduledRideHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	scheduleID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request cancelScheduleRequest
	_ = c.ShouldBindJSON(&request)

	schedule, err := h.scheduledService.Cancel(c.Request.Context(), userID, scheduleID, request.Reason)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Scheduled ride cancelled", schedule)
}
