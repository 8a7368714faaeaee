package services

import (
	"context"
	"sync"
	"time"

	"gotogether/internal/models"
	"gotogether/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logger.Logger {
	l, err := logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "text",
		Output: "stderr",
	})
	if err != nil {
		panic(err)
	}
	return l
}

// memUserRepo is an in-memory UserRepository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) put(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.put(user)
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			copy := *user
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			copy := *user
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "reliability_score":
			user.ReliabilityScore = value.(int)
		case "discount_pct":
			user.DiscountPct = value.(int)
		case "rating_avg":
			user.RatingAvg = value.(float64)
		case "rating_count":
			user.RatingCount = value.(int)
		case "is_admin_approved":
			user.IsAdminApproved = value.(bool)
		case "is_phone_verified":
			user.IsPhoneVerified = value.(bool)
		case "name":
			user.Name = value.(string)
		case "dnd":
			user.DND = value.(bool)
		}
	}
	return nil
}

func (r *memUserRepo) FilterEligible(ctx context.Context, ids []primitive.ObjectID, genderPref models.GenderPreference) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		user, ok := r.users[id]
		if !ok {
			continue
		}
		if !user.IsPhoneVerified || !user.IsAdminApproved || user.DND {
			continue
		}
		if genderPref != "" && genderPref != models.GenderPreferenceAny && string(user.Gender) != string(genderPref) {
			continue
		}
		copy := *user
		out = append(out, &copy)
	}
	return out, nil
}

func (r *memUserRepo) ListPendingApproval(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if !user.IsAdminApproved {
			copy := *user
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *memUserRepo) IncrementCancellations(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.Cancellations++
	copy := *user
	return &copy, nil
}

func (r *memUserRepo) IncrementCompletedRides(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.CompletedRides++
	copy := *user
	return &copy, nil
}

// memRideRepo mirrors the conditional-update semantics of the Mongo ride
// repository so race behavior is exercised for real.
type memRideRepo struct {
	mu    sync.Mutex
	rides map[primitive.ObjectID]*models.Ride
}

func newMemRideRepo() *memRideRepo {
	return &memRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
}

func (r *memRideRepo) put(ride *models.Ride) *models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	if ride.Passengers == nil {
		ride.Passengers = []primitive.ObjectID{}
	}
	r.rides[ride.ID] = ride
	return ride
}

func copyRide(ride *models.Ride) *models.Ride {
	copy := *ride
	copy.Passengers = append([]primitive.ObjectID{}, ride.Passengers...)
	return &copy
}

func rideIsActive(status models.RideStatus) bool {
	return status == models.RideStatusOpen || status == models.RideStatusPickupWait || status == models.RideStatusStarted
}

func (r *memRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt
	r.put(ride)
	return nil
}

func (r *memRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRide(ride), nil
}

func (r *memRideRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *memRideRepo) GetActiveForUser(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if !rideIsActive(ride.Status) {
			continue
		}
		if ride.Rider == userID || ride.HasPassenger(userID) {
			return copyRide(ride), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRideRepo) ListJoinable(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.rides {
		joinable := ride.Status == models.RideStatusOpen || ride.Status == models.RideStatusPickupWait
		if !joinable || ride.Rider == userID || ride.HasPassenger(userID) {
			continue
		}
		out = append(out, copyRide(ride))
	}
	return out, nil
}

func (r *memRideRepo) AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	joinable := ok && (ride.Status == models.RideStatusOpen || ride.Status == models.RideStatusPickupWait)
	if !joinable || ride.HasPassenger(userID) || len(ride.Passengers) >= ride.Seats {
		return nil, ErrNotFound
	}
	ride.Passengers = append(ride.Passengers, userID)
	return copyRide(ride), nil
}

func (r *memRideRepo) SetPickupWaitIfUnset(ctx context.Context, rideID primitive.ObjectID, deadline time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	joinable := ok && (ride.Status == models.RideStatusOpen || ride.Status == models.RideStatusPickupWait)
	if !joinable || ride.PickupDeadline != nil {
		return nil, nil
	}
	ride.Status = models.RideStatusPickupWait
	ride.PickupDeadline = &deadline
	ride.PickupExpiredNotified = false
	return copyRide(ride), nil
}

func (r *memRideRepo) SetPickupCountdown(ctx context.Context, rideID, riderID primitive.ObjectID, deadline time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Rider != riderID {
		return nil, ErrNotFound
	}
	if ride.Status != models.RideStatusOpen && ride.Status != models.RideStatusPickupWait {
		return nil, ErrNotFound
	}
	ride.Status = models.RideStatusPickupWait
	ride.PickupDeadline = &deadline
	ride.PickupExpiredNotified = false
	return copyRide(ride), nil
}

func (r *memRideRepo) RemovePassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || !ride.HasPassenger(userID) {
		return nil, ErrNotFound
	}
	passengers := ride.Passengers[:0]
	for _, p := range ride.Passengers {
		if p != userID {
			passengers = append(passengers, p)
		}
	}
	ride.Passengers = passengers
	return copyRide(ride), nil
}

func (r *memRideRepo) CancelByRider(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Rider != riderID || ride.IsTerminal() {
		return nil, ErrNotFound
	}
	now := time.Now()
	ride.Status = models.RideStatusCancelled
	ride.CancelledAt = &now
	return copyRide(ride), nil
}

func (r *memRideRepo) Complete(ctx context.Context, rideID, riderID primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Rider != riderID || ride.IsTerminal() {
		return nil, ErrNotFound
	}
	now := time.Now()
	ride.Status = models.RideStatusCompleted
	ride.CompletedAt = &now
	return copyRide(ride), nil
}

func (r *memRideRepo) UpdateStops(ctx context.Context, rideID, riderID primitive.ObjectID, stops []models.GeoPoint) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Rider != riderID || ride.Status != models.RideStatusOpen {
		return nil, ErrNotFound
	}
	ride.Stops = stops
	return copyRide(ride), nil
}

func (r *memRideRepo) FindExpiredPickups(ctx context.Context, now time.Time, limit int) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.rides {
		if ride.Status != models.RideStatusPickupWait || ride.PickupExpiredNotified {
			continue
		}
		if ride.PickupDeadline == nil || ride.PickupDeadline.After(now) {
			continue
		}
		out = append(out, copyRide(ride))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memRideRepo) MarkPickupExpired(ctx context.Context, rideID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Status != models.RideStatusPickupWait || ride.PickupExpiredNotified {
		return false, nil
	}
	ride.PickupExpiredNotified = true
	return true, nil
}

// memScheduledRepo is an in-memory ScheduledRideRepository.
type memScheduledRepo struct {
	mu        sync.Mutex
	schedules map[primitive.ObjectID]*models.ScheduledRide
}

func newMemScheduledRepo() *memScheduledRepo {
	return &memScheduledRepo{schedules: make(map[primitive.ObjectID]*models.ScheduledRide)}
}

func (r *memScheduledRepo) put(s *models.ScheduledRide) *models.ScheduledRide {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	r.schedules[s.ID] = s
	return s
}

func copySchedule(s *models.ScheduledRide) *models.ScheduledRide {
	copy := *s
	return &copy
}

func (r *memScheduledRepo) Create(ctx context.Context, ride *models.ScheduledRide) error {
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt
	r.put(ride)
	return nil
}

func (r *memScheduledRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySchedule(s), nil
}

func (r *memScheduledRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduledRide
	for _, s := range r.schedules {
		if s.User == userID {
			out = append(out, copySchedule(s))
		}
	}
	return out, nil
}

func (r *memScheduledRepo) ListOpenExcluding(ctx context.Context, userID primitive.ObjectID, after time.Time) ([]*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduledRide
	for _, s := range r.schedules {
		if s.User == userID || s.Status != models.ScheduleStatusScheduled || !s.ScheduledFor.After(after) {
			continue
		}
		out = append(out, copySchedule(s))
	}
	return out, nil
}

func (r *memScheduledRepo) MarkMatched(ctx context.Context, id, acceptedBy, linkedRideID primitive.ObjectID, at time.Time) (*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.Status != models.ScheduleStatusScheduled || s.User == acceptedBy {
		return nil, ErrNotFound
	}
	s.Status = models.ScheduleStatusMatched
	s.AcceptedBy = &acceptedBy
	s.AcceptedAt = &at
	s.LinkedRideID = &linkedRideID
	return copySchedule(s), nil
}

func (r *memScheduledRepo) UpsertAcceptorCopy(ctx context.Context, copy *models.ScheduledRide) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.schedules {
		if s.User == copy.User && s.LinkedRideID != nil && copy.LinkedRideID != nil && *s.LinkedRideID == *copy.LinkedRideID {
			return false, nil
		}
	}
	if copy.ID.IsZero() {
		copy.ID = primitive.NewObjectID()
	}
	r.schedules[copy.ID] = copy
	return true, nil
}

func (r *memScheduledRepo) Cancel(ctx context.Context, id, userID primitive.ObjectID, reason string) (*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.User != userID || s.Status == models.ScheduleStatusCancelled {
		return nil, ErrNotFound
	}
	s.Status = models.ScheduleStatusCancelled
	s.CancelReason = reason
	return copySchedule(s), nil
}

func (r *memScheduledRepo) FindDueReminders(ctx context.Context, from, to time.Time, limit int) ([]*models.ScheduledRide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ScheduledRide
	for _, s := range r.schedules {
		if s.Status != models.ScheduleStatusScheduled || s.ReminderSentAt != nil {
			continue
		}
		if s.ScheduledFor.Before(from) || s.ScheduledFor.After(to) {
			continue
		}
		out = append(out, copySchedule(s))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memScheduledRepo) MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok || s.ReminderSentAt != nil {
		return false, nil
	}
	s.ReminderSentAt = &at
	return true, nil
}

// memLocationRepo is an in-memory LocationRepository.
type memLocationRepo struct {
	mu        sync.Mutex
	locations map[primitive.ObjectID]*models.UserLocation
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{locations: make(map[primitive.ObjectID]*models.UserLocation)}
}

func (r *memLocationRepo) Upsert(ctx context.Context, location *models.UserLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	location.UpdatedAt = time.Now()
	r.locations[location.UserID] = location
	return nil
}

func (r *memLocationRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.UserLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.locations[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *location
	return &copy, nil
}

func (r *memLocationRepo) ListExcluding(ctx context.Context, userID primitive.ObjectID) ([]*models.UserLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.UserLocation
	for id, location := range r.locations {
		if id == userID {
			continue
		}
		copy := *location
		out = append(out, &copy)
	}
	return out, nil
}

// memRatingRepo is an in-memory RatingRepository with the unique-triple check.
type memRatingRepo struct {
	mu      sync.Mutex
	ratings []*models.Rating
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{}
}

func (r *memRatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.ratings {
		if existing.RideID == rating.RideID && existing.FromUser == rating.FromUser && existing.ToUser == rating.ToUser {
			return ErrConflict
		}
	}
	if rating.ID.IsZero() {
		rating.ID = primitive.NewObjectID()
	}
	r.ratings = append(r.ratings, rating)
	return nil
}

func (r *memRatingRepo) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Rating
	for _, rating := range r.ratings {
		if rating.ToUser == userID {
			copy := *rating
			out = append(out, &copy)
		}
	}
	return out, nil
}

// recordedNotification captures one Notify call.
type recordedNotification struct {
	UserID primitive.ObjectID
	Type   models.NotificationType
	Title  string
	Body   string
}

// fakeNotifier records notifications instead of delivering them.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []recordedNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, userID primitive.ObjectID, nType models.NotificationType, title, body string, rideID *primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedNotification{UserID: userID, Type: nType, Title: title, Body: body})
	return nil
}

func (f *fakeNotifier) List(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return nil
}

func (f *fakeNotifier) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	return nil
}

func (f *fakeNotifier) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (f *fakeNotifier) sentTo(userID primitive.ObjectID) []recordedNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedNotification
	for _, n := range f.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// fakeSMS records outbound messages.
type fakeSMS struct {
	mu   sync.Mutex
	sent map[string][]string
}

func newFakeSMS() *fakeSMS {
	return &fakeSMS{sent: make(map[string][]string)}
}

func (f *fakeSMS) SendSMS(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[phone] = append(f.sent[phone], message)
	return nil
}

func (f *fakeSMS) SendOTP(ctx context.Context, phone, code string) error {
	return f.SendSMS(ctx, phone, code)
}

func (f *fakeSMS) messagesTo(phone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[phone]...)
}

// recordedBroadcast captures one hub fan-out.
type recordedBroadcast struct {
	RideID primitive.ObjectID
	UserID primitive.ObjectID
	Event  string
	Data   map[string]interface{}
}

// fakeBroadcaster records realtime events instead of pushing frames.
type fakeBroadcaster struct {
	mu      sync.Mutex
	events  []recordedBroadcast
	evicted []recordedBroadcast
}

func (f *fakeBroadcaster) BroadcastToRide(rideID primitive.ObjectID, eventType string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedBroadcast{RideID: rideID, Event: eventType, Data: data})
}

func (f *fakeBroadcaster) SendToUser(userID primitive.ObjectID, eventType string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedBroadcast{UserID: userID, Event: eventType, Data: data})
}

func (f *fakeBroadcaster) EvictFromRide(userID, rideID primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evicted = append(f.evicted, recordedBroadcast{UserID: userID, RideID: rideID})
}

func (f *fakeBroadcaster) rideEvents(rideID primitive.ObjectID, eventType string) []recordedBroadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedBroadcast
	for _, e := range f.events {
		if e.RideID == rideID && e.Event == eventType {
			out = append(out, e)
		}
	}
	return out
}

// memChatRepo is an in-memory ChatRepository.
type memChatRepo struct {
	mu       sync.Mutex
	rooms    map[primitive.ObjectID]*models.ChatRoom
	messages map[primitive.ObjectID][]*models.Message
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		rooms:    make(map[primitive.ObjectID]*models.ChatRoom),
		messages: make(map[primitive.ObjectID][]*models.Message),
	}
}

func (r *memChatRepo) EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[rideID]
	if !ok {
		room = &models.ChatRoom{ID: primitive.NewObjectID(), RideID: rideID}
		r.rooms[rideID] = room
	}
	for _, id := range memberIDs {
		found := false
		for _, m := range room.Members {
			if m == id {
				found = true
				break
			}
		}
		if !found {
			room.Members = append(room.Members, id)
		}
	}
	return nil
}

func (r *memChatRepo) RemoveMember(ctx context.Context, rideID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[rideID]
	if !ok {
		return ErrNotFound
	}
	members := room.Members[:0]
	for _, m := range room.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	room.Members = members
	return nil
}

func (r *memChatRepo) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[rideID]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *room
	copy.Members = append([]primitive.ObjectID{}, room.Members...)
	return &copy, nil
}

func (r *memChatRepo) IsMember(ctx context.Context, rideID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[rideID]
	if !ok {
		return false, nil
	}
	for _, m := range room.Members {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memChatRepo) SetPinnedLocation(ctx context.Context, rideID primitive.ObjectID, pin *models.PinnedLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[rideID]
	if !ok {
		return ErrNotFound
	}
	room.PinnedLocation = pin
	return nil
}

func (r *memChatRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	message.CreatedAt = time.Now()
	r.messages[message.RideID] = append(r.messages[message.RideID], message)
	return nil
}

func (r *memChatRepo) ListMessages(ctx context.Context, rideID primitive.ObjectID, limit int64) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[rideID]
	out := make([]*models.Message, 0, len(msgs))
	for _, m := range msgs {
		copy := *m
		out = append(out, &copy)
	}
	return out, nil
}
