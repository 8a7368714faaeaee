package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gotogether/internal/models"
	"gotogether/internal/validators"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideFixture struct {
	rideRepo    *memRideRepo
	userRepo    *memUserRepo
	chatRepo    *memChatRepo
	locRepo     *memLocationRepo
	broadcaster *fakeBroadcaster
	notifier    *fakeNotifier
	sms         *fakeSMS
	chat        ChatService
	service     RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rideRepo:    newMemRideRepo(),
		userRepo:    newMemUserRepo(),
		chatRepo:    newMemChatRepo(),
		locRepo:     newMemLocationRepo(),
		broadcaster: &fakeBroadcaster{},
		notifier:    &fakeNotifier{},
		sms:         newFakeSMS(),
	}
	log := testLogger()
	f.chat = NewChatService(f.chatRepo, f.broadcaster, log)
	matching := NewMatchingService(f.locRepo, f.userRepo, f.rideRepo, f.notifier, f.sms, log)
	f.service = NewRideService(f.rideRepo, f.userRepo, f.chat, matching, f.notifier, f.sms, log)
	return f
}

func (f *rideFixture) newUser(name string) *models.User {
	return f.userRepo.put(&models.User{
		Name:             name,
		Phone:            "+8801700000000",
		Gender:           models.GenderFemale,
		Role:             models.UserRoleUser,
		IsPhoneVerified:  true,
		IsAdminApproved:  true,
		ReliabilityScore: 100,
	})
}

func authFor(u *models.User) *models.AuthContext {
	return &models.AuthContext{
		UserID:        u.ID,
		Role:          u.Role,
		Gender:        u.Gender,
		PhoneVerified: u.IsPhoneVerified,
		AdminApproved: u.IsAdminApproved,
	}
}

func (f *rideFixture) openRide(rider *models.User, seats int) *models.Ride {
	return f.rideRepo.put(&models.Ride{
		Rider:            rider.ID,
		Origin:           models.GeoPoint{Address: "Dhanmondi, Dhaka", Lat: 23.7465, Lng: 90.3760},
		Destination:      models.GeoPoint{Address: "Gulshan, Dhaka", Lat: 23.7925, Lng: 90.4078},
		Seats:            seats,
		GenderPreference: models.GenderPreferenceAny,
		RadiusMeters:     1000,
		Status:           models.RideStatusOpen,
	})
}

func TestCreateRideRequiresVerification(t *testing.T) {
	f := newRideFixture()
	user := f.userRepo.put(&models.User{Name: "Nusrat", IsPhoneVerified: false, IsAdminApproved: true})

	_, err := f.service.Create(context.Background(), authFor(user), &validators.CreateRideInput{
		Origin:      models.GeoPoint{Address: "A", Lat: 23.7, Lng: 90.3},
		Destination: models.GeoPoint{Address: "B", Lat: 23.8, Lng: 90.4},
		Seats:       2,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateRideRejectsSecondActive(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")

	input := &validators.CreateRideInput{
		Origin:           models.GeoPoint{Address: "A", Lat: 23.7, Lng: 90.3},
		Destination:      models.GeoPoint{Address: "B", Lat: 23.8, Lng: 90.4},
		Seats:            2,
		GenderPreference: models.GenderPreferenceAny,
		RadiusMeters:     1000,
	}
	if _, err := f.service.Create(context.Background(), authFor(rider), input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := f.service.Create(context.Background(), authFor(rider), input); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateRideAddsRiderToChat(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")

	ride, err := f.service.Create(context.Background(), authFor(rider), &validators.CreateRideInput{
		Origin:           models.GeoPoint{Address: "A", Lat: 23.7, Lng: 90.3},
		Destination:      models.GeoPoint{Address: "B", Lat: 23.8, Lng: 90.4},
		Seats:            2,
		GenderPreference: models.GenderPreferenceAny,
		RadiusMeters:     1000,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	member, _ := f.chatRepo.IsMember(context.Background(), ride.ID, rider.ID)
	if !member {
		t.Fatal("rider should be a chat member after create")
	}
}

func TestAcceptIsIdempotent(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	first, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	second, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID)
	if err != nil {
		t.Fatalf("repeat accept failed: %v", err)
	}
	if len(first.Passengers) != 1 || len(second.Passengers) != 1 {
		t.Fatalf("expected one seat held, got %d then %d", len(first.Passengers), len(second.Passengers))
	}
}

func TestAcceptOwnRideForbidden(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(rider), ride.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptGenderPreferenceIsAdvisory(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Farzana")
	ride := f.rideRepo.put(&models.Ride{
		Rider:            rider.ID,
		Origin:           models.GeoPoint{Address: "Dhanmondi, Dhaka", Lat: 23.7465, Lng: 90.3760},
		Destination:      models.GeoPoint{Address: "Gulshan, Dhaka", Lat: 23.7925, Lng: 90.4078},
		Seats:            2,
		GenderPreference: models.GenderPreferenceFemale,
		RadiusMeters:     1000,
		Status:           models.RideStatusOpen,
	})

	// The preference travels in the match notification; it never blocks a join.
	man := f.userRepo.put(&models.User{
		Name: "Rahim", Gender: models.GenderMale,
		IsPhoneVerified: true, IsAdminApproved: true,
	})
	got, err := f.service.Accept(context.Background(), authFor(man), ride.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if !got.HasPassenger(man.ID) {
		t.Fatal("expected the seat to be held")
	}
}

func TestAcceptFullRide(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	first := f.newUser("Mim")
	second := f.newUser("Tania")
	ride := f.openRide(rider, 1)

	if _, err := f.service.Accept(context.Background(), authFor(first), ride.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}
	if _, err := f.service.Accept(context.Background(), authFor(second), ride.ID); !errors.Is(err, ErrRideFull) {
		t.Fatalf("expected ErrRideFull, got %v", err)
	}
}

func TestAcceptConcurrentSingleSeat(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	ride := f.openRide(rider, 1)

	const contenders = 8
	users := make([]*models.User, contenders)
	for i := range users {
		users[i] = f.newUser("User")
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Accept(context.Background(), authFor(users[i]), ride.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrRideFull) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	got, _ := f.rideRepo.GetByID(context.Background(), ride.ID)
	if len(got.Passengers) != 1 {
		t.Fatalf("expected one passenger, got %d", len(got.Passengers))
	}
}

// hookedChat lets a test interleave work between the passenger write and the
// countdown arming inside Accept.
type hookedChat struct {
	ChatService
	onEnsure func()
}

func (h *hookedChat) EnsureMembers(ctx context.Context, rideID primitive.ObjectID, memberIDs ...primitive.ObjectID) error {
	if h.onEnsure != nil {
		h.onEnsure()
	}
	return h.ChatService.EnsureMembers(ctx, rideID, memberIDs...)
}

func TestAcceptDoesNotResurrectCancelledRide(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	log := testLogger()
	hooked := &hookedChat{ChatService: f.chat}
	matching := NewMatchingService(f.locRepo, f.userRepo, f.rideRepo, f.notifier, f.sms, log)
	service := NewRideService(f.rideRepo, f.userRepo, hooked, matching, f.notifier, f.sms, log)

	// The rider cancels right after the join lands but before the countdown
	// is armed. The arming must see the terminal state and back off.
	hooked.onEnsure = func() {
		hooked.onEnsure = nil
		if _, err := f.service.Cancel(context.Background(), rider.ID, ride.ID); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
	}

	if _, err := service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	got, _ := f.rideRepo.GetByID(context.Background(), ride.ID)
	if got.Status != models.RideStatusCancelled {
		t.Fatalf("cancelled ride must stay cancelled, got %s", got.Status)
	}
	if got.PickupDeadline != nil {
		t.Fatal("cancelled ride must not gain a pickup deadline")
	}
}

func TestFirstAcceptArmsPickupCountdownOnce(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	first := f.newUser("Mim")
	second := f.newUser("Tania")
	ride := f.openRide(rider, 2)

	before := time.Now()
	armed, err := f.service.Accept(context.Background(), authFor(first), ride.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if armed.Status != models.RideStatusPickupWait {
		t.Fatalf("expected pickup_wait, got %s", armed.Status)
	}
	if armed.PickupDeadline == nil {
		t.Fatal("expected pickup deadline to be set")
	}
	wantMin := before.Add(9 * time.Minute)
	wantMax := before.Add(11 * time.Minute)
	if armed.PickupDeadline.Before(wantMin) || armed.PickupDeadline.After(wantMax) {
		t.Fatalf("deadline %v outside the ten minute window", armed.PickupDeadline)
	}
	deadline := *armed.PickupDeadline

	if _, err := f.service.Accept(context.Background(), authFor(second), ride.ID); err != nil {
		t.Fatalf("second accept failed: %v", err)
	}
	got, _ := f.rideRepo.GetByID(context.Background(), ride.ID)
	if !got.PickupDeadline.Equal(deadline) {
		t.Fatal("second join must not move the pickup deadline")
	}

	started := f.broadcaster.rideEvents(ride.ID, EventRideSystem)
	count := 0
	for _, e := range started {
		if e.Data["event"] == models.EventPickupCountdownStarted {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one countdown system message, got %d", count)
	}
}

func TestAcceptSyncsChatMembership(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	for _, id := range []primitive.ObjectID{rider.ID, joiner.ID} {
		member, _ := f.chatRepo.IsMember(context.Background(), ride.ID, id)
		if !member {
			t.Fatalf("expected %s to be a chat member", id.Hex())
		}
	}

	if _, err := f.service.Leave(context.Background(), joiner.ID, ride.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	member, _ := f.chatRepo.IsMember(context.Background(), ride.ID, joiner.ID)
	if member {
		t.Fatal("leaver must lose chat membership")
	}
}

func TestLeaveCarriesNoPenalty(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.service.Leave(context.Background(), joiner.ID, ride.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	got, _ := f.userRepo.GetByID(context.Background(), joiner.ID)
	if got.Cancellations != 0 || got.ReliabilityScore != 100 {
		t.Fatalf("leave must not penalize: cancellations=%d score=%d", got.Cancellations, got.ReliabilityScore)
	}
}

func TestLeaveWithoutSeatIsNoOp(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	outsider := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	got, err := f.service.Leave(context.Background(), outsider.ID, ride.ID)
	if err != nil {
		t.Fatalf("leave without a seat must be a no-op: %v", err)
	}
	if got.Status != models.RideStatusOpen || len(got.Passengers) != 0 {
		t.Fatalf("no-op leave must not touch the ride: status=%s passengers=%d",
			got.Status, len(got.Passengers))
	}
}

func TestLeaveCompletedRideIsSafe(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.service.Complete(context.Background(), rider.ID, ride.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	got, err := f.service.Leave(context.Background(), joiner.ID, ride.ID)
	if err != nil {
		t.Fatalf("leave after completion must be safe: %v", err)
	}
	if got.HasPassenger(joiner.ID) {
		t.Fatal("seat should be released")
	}
	if got.Status != models.RideStatusCompleted {
		t.Fatalf("leave must not move the ride out of completed, got %s", got.Status)
	}
}

func TestCancelByRiderPenalizesAndNotifies(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	cancelled, err := f.service.Cancel(context.Background(), rider.ID, ride.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != models.RideStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	gotRider, _ := f.userRepo.GetByID(context.Background(), rider.ID)
	if gotRider.Cancellations != 1 || gotRider.ReliabilityScore != 90 {
		t.Fatalf("rider penalty wrong: cancellations=%d score=%d", gotRider.Cancellations, gotRider.ReliabilityScore)
	}
	gotJoiner, _ := f.userRepo.GetByID(context.Background(), joiner.ID)
	if gotJoiner.Cancellations != 0 {
		t.Fatal("passenger must not be penalized for host cancel")
	}
	if len(f.notifier.sentTo(joiner.ID)) == 0 {
		t.Fatal("passenger should be notified of host cancel")
	}
}

func TestCancelByPassengerFreesSeat(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	after, err := f.service.Cancel(context.Background(), joiner.ID, ride.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if after.Status == models.RideStatusCancelled {
		t.Fatal("passenger cancel must not cancel the whole ride")
	}
	if after.HasPassenger(joiner.ID) {
		t.Fatal("seat should be freed")
	}

	gotJoiner, _ := f.userRepo.GetByID(context.Background(), joiner.ID)
	if gotJoiner.Cancellations != 1 || gotJoiner.ReliabilityScore != 90 {
		t.Fatalf("passenger penalty wrong: cancellations=%d score=%d", gotJoiner.Cancellations, gotJoiner.ReliabilityScore)
	}
	gotRider, _ := f.userRepo.GetByID(context.Background(), rider.ID)
	if gotRider.Cancellations != 0 {
		t.Fatal("rider must not be penalized for passenger cancel")
	}
}

func TestCompleteCreditsParticipants(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	done, err := f.service.Complete(context.Background(), rider.ID, ride.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != models.RideStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	for _, id := range []primitive.ObjectID{rider.ID, joiner.ID} {
		got, _ := f.userRepo.GetByID(context.Background(), id)
		if got.CompletedRides != 1 {
			t.Fatalf("expected completed_rides=1 for %s, got %d", got.Name, got.CompletedRides)
		}
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Complete(context.Background(), rider.ID, ride.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	again, err := f.service.Complete(context.Background(), rider.ID, ride.ID)
	if err != nil {
		t.Fatalf("repeat complete failed: %v", err)
	}
	if again.Status != models.RideStatusCompleted {
		t.Fatalf("expected completed, got %s", again.Status)
	}

	got, _ := f.userRepo.GetByID(context.Background(), rider.ID)
	if got.CompletedRides != 1 {
		t.Fatalf("repeat complete must not double-credit: %d", got.CompletedRides)
	}
}

func TestCompleteCancelledRideRejected(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Cancel(context.Background(), rider.ID, ride.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.service.Complete(context.Background(), rider.ID, ride.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteByPassengerForbidden(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.service.Complete(context.Background(), joiner.ID, ride.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptClosedRideUnavailable(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Cancel(context.Background(), rider.ID, ride.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); !errors.Is(err, ErrRideUnavailable) {
		t.Fatalf("expected ErrRideUnavailable, got %v", err)
	}
}

func TestGetByIDParticipantsOnly(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	outsider := f.newUser("Tania")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Outsiders discover rides through Nearby; the details read is gated.
	if _, err := f.service.GetByID(context.Background(), outsider.ID, ride.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for an outsider, got %v", err)
	}
	for _, id := range []primitive.ObjectID{rider.ID, joiner.ID} {
		if _, err := f.service.GetByID(context.Background(), id, ride.ID); err != nil {
			t.Fatalf("participant read failed: %v", err)
		}
	}
}

func TestPanicAlertsOtherParticipants(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := f.service.Panic(context.Background(), joiner.ID, ride.ID, 23.75, 90.37); err != nil {
		t.Fatalf("panic failed: %v", err)
	}

	if len(f.notifier.sentTo(rider.ID)) == 0 {
		t.Fatal("rider should receive the panic alert")
	}
	for _, n := range f.notifier.sentTo(joiner.ID) {
		if n.Type == models.NotificationTypePanicAlert {
			t.Fatal("sender must not be alerted about their own panic")
		}
	}
}

func TestStartPickupCountdownClampsSeconds(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	ride := f.openRide(rider, 2)

	before := time.Now()
	got, err := f.service.StartPickupCountdown(context.Background(), rider.ID, ride.ID, 5)
	if err != nil {
		t.Fatalf("countdown failed: %v", err)
	}
	if got.PickupDeadline == nil {
		t.Fatal("expected deadline")
	}
	// 5 clamps up to the 60 second floor.
	if got.PickupDeadline.Before(before.Add(50*time.Second)) || got.PickupDeadline.After(before.Add(70*time.Second)) {
		t.Fatalf("deadline %v not clamped to the minute floor", got.PickupDeadline)
	}
}

func TestStartPickupCountdownRiderOnly(t *testing.T) {
	f := newRideFixture()
	rider := f.newUser("Rafi")
	joiner := f.newUser("Mim")
	ride := f.openRide(rider, 2)

	if _, err := f.service.Accept(context.Background(), authFor(joiner), ride.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.service.StartPickupCountdown(context.Background(), joiner.ID, ride.ID, 300); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
