package handlers

import (
	"strconv"

	"gotogether/internal/models"
	"gotogether/internal/services"
	"gotogether/internal/utils"
	"gotogether/internal/validators"

	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	rideService services.RideService
	userService services.UserService
	etaService  services.ETAService
	fareService services.FareService
}

func NewRideHandler(rideService services.RideService, userService services.UserService, etaService services.ETAService, fareService services.FareService) *RideHandler {
	return &RideHandler{
		rideService: rideService,
		userService: userService,
		etaService:  etaService,
		fareService: fareService,
	}
}

// Create posts a new shared ride and fans it out to nearby users.
func (h *RideHandler) Create(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}

	var request validators.CreateRideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	input, err := validators.ValidateCreateRide(&request)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	ride, err := h.rideService.Create(c.Request.Context(), auth, input)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride created", ride)
}

// GetActive returns the caller's current non-terminal ride, if any.
func (h *RideHandler) GetActive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetActive(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active ride retrieved", ride)
}

func (h *RideHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetByID(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved", ride)
}

// Nearby lists joinable rides around a point, closest first.
func (h *RideHandler) Nearby(c *gin.Context) {
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

	rides, err := h.rideService.Nearby(c.Request.Context(), userID, lat, lng, radiusMeters)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Nearby rides retrieved", rides)
}

// Accept joins the caller as a passenger.
func (h *RideHandler) Accept(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.Accept(c.Request.Context(), auth, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride accepted", ride)
}

// Leave drops the caller's seat without a reliability penalty.
func (h *RideHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.Leave(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Left ride", ride)
}

// Cancel ends the ride (rider) or gives up a seat (passenger); either way the
// caller takes the reliability hit.
func (h *RideHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.Cancel(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride cancelled", ride)
}

func (h *RideHandler) Complete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.Complete(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride completed", ride)
}

type countdownRequest struct {
	Seconds int `json:"seconds"`
}

// StartPickupCountdown arms or re-arms the pickup deadline.
func (h *RideHandler) StartPickupCountdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request countdownRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ride, err := h.rideService.StartPickupCountdown(c.Request.Context(), userID, rideID, request.Seconds)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Pickup countdown started", ride)
}

type updateStopsRequest struct {
	Stops []map[string]interface{} `json:"stops"`
}

// UpdateStops replaces the stop list while the ride is still open.
func (h *RideHandler) UpdateStops(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request updateStopsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	stops := make([]models.GeoPoint, 0, len(request.Stops))
	for i, raw := range request.Stops {
		stop, err := validators.ParseGeoPoint(raw)
		if err != nil {
			utils.BadRequestResponse(c, "stops["+strconv.Itoa(i)+"]: "+err.Error())
			return
		}
		stops = append(stops, stop)
	}

	ride, err := h.rideService.UpdateStops(c.Request.Context(), userID, rideID, stops)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Stops updated", ride)
}

type panicRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Panic alerts every other participant with the caller's position.
func (h *RideHandler) Panic(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var request panicRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.rideService.Panic(c.Request.Context(), userID, rideID, request.Lat, request.Lng); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Alert sent", nil)
}

// ETA estimates travel time over the ride's full route.
func (h *RideHandler) ETA(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetByID(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	estimate := h.etaService.EstimateRoute(c.Request.Context(), ride.Origin, ride.Stops, ride.Destination)
	utils.SuccessResponse(c, "ETA estimated", estimate)
}

// Fare returns the indicative per-head cost split for the ride, applying the
// caller's reliability discount.
func (h *RideHandler) Fare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rideID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetByID(c.Request.Context(), userID, rideID)
	if err != nil {
		serviceError(c, err)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	headCount := len(ride.Passengers) + 1
	estimate := h.fareService.EstimateForRide(ride, headCount, user.DiscountPct)
	utils.SuccessResponse(c, "Fare estimated", estimate)
}
