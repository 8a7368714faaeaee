package services

import (
	"context"
	"strings"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/repositories/interfaces"
	"gotogether/internal/utils"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService interface {
	EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error
	RemoveMember(ctx context.Context, rideID, userID primitive.ObjectID) error
	IsMember(ctx context.Context, rideID, userID primitive.ObjectID) (bool, error)
	GetRoom(ctx context.Context, rideID, userID primitive.ObjectID) (*models.ChatRoom, error)
	GetMessages(ctx context.Context, rideID, userID primitive.ObjectID, limit int64) ([]*models.Message, error)
	SendMessage(ctx context.Context, rideID, senderID primitive.ObjectID, text string) (*models.Message, error)
	PinLocation(ctx context.Context, rideID, userID primitive.ObjectID, lat, lng float64, label string) error

	// SystemMessage persists a SYSTEM entry and broadcasts it on both the
	// lifecycle stream and the chat stream, so clients that only follow the
	// chat still see lifecycle transitions inline.
	SystemMessage(ctx context.Context, rideID primitive.ObjectID, event, text string, meta map[string]interface{}) error
}

type chatService struct {
	chatRepo    interfaces.ChatRepository
	broadcaster Broadcaster
	logger      *logger.Logger
}

func NewChatService(chatRepo interfaces.ChatRepository, broadcaster Broadcaster, logger *logger.Logger) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *chatService) EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error {
	return s.chatRepo.EnsureMembers(ctx, rideID, memberIDs...)
}

func (s *chatService) RemoveMember(ctx context.Context, rideID, userID primitive.ObjectID) error {
	if err := s.chatRepo.RemoveMember(ctx, rideID, userID); err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.EvictFromRide(userID, rideID)
	}
	return nil
}

func (s *chatService) IsMember(ctx context.Context, rideID, userID primitive.ObjectID) (bool, error) {
	return s.chatRepo.IsMember(ctx, rideID, userID)
}

func (s *chatService) GetRoom(ctx context.Context, rideID, userID primitive.ObjectID) (*models.ChatRoom, error) {
	room, err := s.chatRepo.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, ErrForbidden
	}
	return room, nil
}

func (s *chatService) GetMessages(ctx context.Context, rideID, userID primitive.ObjectID, limit int64) ([]*models.Message, error) {
	member, err := s.chatRepo.IsMember(ctx, rideID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.chatRepo.ListMessages(ctx, rideID, limit)
}

func (s *chatService) SendMessage(ctx context.Context, rideID, senderID primitive.ObjectID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrValidation
	}

	member, err := s.chatRepo.IsMember(ctx, rideID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrForbidden
	}

	message := &models.Message{
		RideID:    rideID,
		Type:      models.MessageTypeText,
		Sender:    &senderID,
		Text:      utils.Truncate(text, 2000),
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRide(rideID, EventChatNew, messagePayload(message))
	}

	return message, nil
}

func (s *chatService) PinLocation(ctx context.Context, rideID, userID primitive.ObjectID, lat, lng float64, label string) error {
	member, err := s.chatRepo.IsMember(ctx, rideID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}

	pin := &models.PinnedLocation{
		Lat:      lat,
		Lng:      lng,
		Label:    label,
		PinnedBy: userID,
		PinnedAt: time.Now(),
	}
	if err := s.chatRepo.SetPinnedLocation(ctx, rideID, pin); err != nil {
		return err
	}

	message := &models.Message{
		RideID: rideID,
		Type:   models.MessageTypeLocation,
		Sender: &userID,
		Text:   label,
		Meta: bson.M{
			"lat":      lat,
			"lng":      lng,
			"map_link": utils.MapLink(lat, lng),
		},
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRide(rideID, EventChatPinned, map[string]interface{}{
			"lat":       lat,
			"lng":       lng,
			"label":     label,
			"pinned_by": userID.Hex(),
		})
		s.broadcaster.BroadcastToRide(rideID, EventChatNew, messagePayload(message))
	}

	return nil
}

func (s *chatService) SystemMessage(ctx context.Context, rideID primitive.ObjectID, event, text string, meta map[string]interface{}) error {
	messageMeta := bson.M{"event": event}
	for k, v := range meta {
		messageMeta[k] = v
	}

	message := &models.Message{
		RideID:    rideID,
		Type:      models.MessageTypeSystem,
		Text:      text,
		Meta:      messageMeta,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return err
	}

	if s.broadcaster != nil {
		payload := map[string]interface{}{
			"event": event,
			"text":  text,
		}
		for k, v := range meta {
			payload[k] = v
		}
		s.broadcaster.BroadcastToRide(rideID, EventRideSystem, payload)
		s.broadcaster.BroadcastToRide(rideID, EventChatNew, messagePayload(message))
	}

	return nil
}

func messagePayload(message *models.Message) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         message.ID.Hex(),
		"ride_id":    message.RideID.Hex(),
		"type":       string(message.Type),
		"text":       message.Text,
		"created_at": message.CreatedAt.Unix(),
	}
	if message.Sender != nil {
		payload["sender"] = message.Sender.Hex()
	}
	if len(message.Meta) > 0 {
		payload["meta"] = map[string]interface{}(message.Meta)
	}
	return payload
}
