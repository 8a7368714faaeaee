package services

import (
	"context"
	"time"

	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"
	"gotogether/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inbound realtime event names.
const (
	eventChatJoin       = "chat:join"
	eventChatSend       = "chat:send"
	eventLocationUpdate = "ride:location:update"
)

// RealtimeService routes inbound websocket events. Every handler re-checks
// chat membership on the current database state, so a user removed after
// connecting loses access immediately, not at reconnect.
type RealtimeService struct {
	hub         *websocket.Hub
	chatService ChatService
	rideRepo    interfaces.RideRepository
	logger      *logger.Logger
}

func NewRealtimeService(hub *websocket.Hub, chatService ChatService, rideRepo interfaces.RideRepository, logger *logger.Logger) *RealtimeService {
	return &RealtimeService{
		hub:         hub,
		chatService: chatService,
		rideRepo:    rideRepo,
		logger:      logger,
	}
}

func (s *RealtimeService) HandleEvent(ctx context.Context, client *websocket.Client, event *websocket.Event) {
	switch event.Type {
	case eventChatJoin:
		s.handleJoin(ctx, client, event)
	case eventChatSend:
		s.handleSend(ctx, client, event)
	case eventLocationUpdate:
		s.handleLocation(ctx, client, event)
	default:
		s.sendError(client, "unknown event type")
	}
}

func (s *RealtimeService) handleJoin(ctx context.Context, client *websocket.Client, event *websocket.Event) {
	rideID, ok := s.parseRideID(client, event)
	if !ok {
		return
	}

	member, err := s.chatService.IsMember(ctx, rideID, client.UserID)
	if err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Membership check failed")
		s.sendError(client, "could not join ride channel")
		return
	}
	if !member {
		s.sendError(client, "not a participant of this ride")
		return
	}

	s.hub.JoinRide(client, rideID)
	s.hub.SendToClient(client, EventChatJoined, map[string]interface{}{
		"ride_id": rideID.Hex(),
	})
}

func (s *RealtimeService) handleSend(ctx context.Context, client *websocket.Client, event *websocket.Event) {
	rideID, ok := s.parseRideID(client, event)
	if !ok {
		return
	}

	text, _ := event.Data["text"].(string)
	if _, err := s.chatService.SendMessage(ctx, rideID, client.UserID, text); err != nil {
		switch err {
		case ErrForbidden:
			s.sendError(client, "not a participant of this ride")
		case ErrValidation:
			s.sendError(client, "message text required")
		default:
			s.logger.WithError(err).WithRideID(rideID).Error("Failed to send chat message")
			s.sendError(client, "could not send message")
		}
	}
}

func (s *RealtimeService) handleLocation(ctx context.Context, client *websocket.Client, event *websocket.Event) {
	rideID, ok := s.parseRideID(client, event)
	if !ok {
		return
	}

	member, err := s.chatService.IsMember(ctx, rideID, client.UserID)
	if err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Membership check failed")
		return
	}
	if !member {
		s.sendError(client, "not a participant of this ride")
		return
	}

	lat, latOK := event.Data["lat"].(float64)
	lng, lngOK := event.Data["lng"].(float64)
	if !latOK || !lngOK {
		s.sendError(client, "lat/lng required")
		return
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		s.logger.WithError(err).WithRideID(rideID).Error("Failed to load ride for distance update")
		s.sendError(client, "could not process location")
		return
	}
	if ride == nil {
		s.sendError(client, "ride not found")
		return
	}

	// Live positions are broadcast-only. The room sees how far each member
	// is from the pickup point; nothing is written to the location store.
	distance := utils.RoundMeters(utils.DistanceMeters(lat, lng, ride.Origin.Lat, ride.Origin.Lng))
	s.hub.BroadcastToRide(rideID, EventRideDistance, map[string]interface{}{
		"user_id":         client.UserID.Hex(),
		"distance_meters": distance,
		"timestamp":       time.Now().Unix(),
	})
}

func (s *RealtimeService) parseRideID(client *websocket.Client, event *websocket.Event) (primitive.ObjectID, bool) {
	rideID, err := primitive.ObjectIDFromHex(event.RideID)
	if err != nil {
		s.sendError(client, "valid ride_id required")
		return primitive.NilObjectID, false
	}
	return rideID, true
}

func (s *RealtimeService) sendError(client *websocket.Client, message string) {
	s.hub.SendToClient(client, EventErrorResponse, map[string]interface{}{
		"message": message,
	})
}
