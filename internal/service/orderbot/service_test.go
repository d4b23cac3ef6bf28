package orderbot

import (
	"context"
	"errors"
	"testing"
	"time"

	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/events"
	"bigbite-orderbot/internal/repository/session"
)

type stubMachine struct {
	next     conversation.Session
	reply    *conversation.Reply
	calls    int
	lastSess conversation.Session
	lastUser domain.User
}

func (s *stubMachine) Dispatch(_ context.Context, sess conversation.Session, user domain.User, _ string) (conversation.Session, *conversation.Reply) {
	s.calls++
	s.lastSess = sess
	s.lastUser = user
	return s.next, s.reply
}

type stubChat struct {
	text  string
	err   error
	calls int
}

func (s *stubChat) Chat(_ context.Context, _ domain.User, _ string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubProfiles struct {
	user  *domain.User
	err   error
	calls int
}

func (s *stubProfiles) CurrentUser(_ context.Context, _ string) (*domain.User, error) {
	s.calls++
	return s.user, s.err
}

type stubOrders struct {
	recorded []domain.AssistantOrder
	err      error
	list     []domain.AssistantOrder
}

func (s *stubOrders) Record(_ context.Context, o domain.AssistantOrder) (*domain.AssistantOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	o.ID = "rec-1"
	s.recorded = append(s.recorded, o)
	return &o, nil
}

func (s *stubOrders) ListByCustomer(_ context.Context, _ string, _ int) ([]domain.AssistantOrder, error) {
	return s.list, nil
}

type stubPublisher struct {
	published []events.OrderPlaced
}

func (s *stubPublisher) PublishOrderPlaced(_ context.Context, ev events.OrderPlaced) error {
	s.published = append(s.published, ev)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

type stubVoice struct {
	spoken   []string
	stopped  []string
	speaking bool
}

func (s *stubVoice) Speak(_, text string)   { s.spoken = append(s.spoken, text) }
func (s *stubVoice) Speaking(_ string) bool { return s.speaking }
func (s *stubVoice) Stop(key string)        { s.stopped = append(s.stopped, key) }

func member() domain.User {
	return domain.User{ID: "u1", Name: "Asha", Token: "tok", Authenticated: true}
}

func TestHandleMessageRejectsEmpty(t *testing.T) {
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: &stubMachine{}, Chat: &stubChat{}})
	if _, err := svc.HandleMessage(context.Background(), member(), "   ", false); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestHandleMessageFallsBackToChat(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemory(time.Minute)
	machine := &stubMachine{next: conversation.NewSession("u1")}
	chat := &stubChat{text: "Hello there!"}
	svc := New(Deps{Sessions: store, Machine: machine, Chat: chat})

	res, err := svc.HandleMessage(ctx, member(), "what's the weather", false)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Source != SourceChat || res.Reply != "Hello there!" || res.Kind != KindChat {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.State != conversation.Idle {
		t.Fatalf("expected idle, got %s", res.State)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("idle sessions must not be stored, got %v", err)
	}
}

func TestHandleMessageChatFailure(t *testing.T) {
	svc := New(Deps{
		Sessions: session.NewMemory(time.Minute),
		Machine:  &stubMachine{next: conversation.NewSession("u1")},
		Chat:     &stubChat{err: errors.New("upstream 500")},
	})
	if _, err := svc.HandleMessage(context.Background(), member(), "hi", false); !errors.Is(err, ErrChatUnavailable) {
		t.Fatalf("expected ErrChatUnavailable, got %v", err)
	}
}

func TestHandleMessagePersistsActiveSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemory(time.Minute)
	next := conversation.Session{
		UserID:             "u1",
		State:              conversation.ConfirmingItems,
		SelectedWishlistID: "w1",
		Wishlists:          []domain.Wishlist{{ID: "w1", Name: "Friday Feast"}},
	}
	machine := &stubMachine{
		next:  next,
		reply: &conversation.Reply{Kind: conversation.KindItemsSummary, Text: "Your Friday Feast..."},
	}
	chat := &stubChat{}
	svc := New(Deps{Sessions: store, Machine: machine, Chat: chat})

	res, err := svc.HandleMessage(ctx, member(), "order my friday feast", false)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Source != SourceOrderbot || res.Kind != "items_summary" || res.State != conversation.ConfirmingItems {
		t.Fatalf("unexpected result %+v", res)
	}
	if chat.calls != 0 {
		t.Fatalf("chat must not be called when the engine replies")
	}

	info, err := svc.SessionInfo(ctx, "u1")
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if info.State != conversation.ConfirmingItems || info.SelectedWishlist == nil || info.SelectedWishlist.Name != "Friday Feast" {
		t.Fatalf("unexpected session info %+v", info)
	}

	machine.next = next.Reset()
	machine.reply = &conversation.Reply{Kind: conversation.KindCancelled, Text: "cancelled"}
	if _, err := svc.HandleMessage(ctx, member(), "cancel", false); err != nil {
		t.Fatalf("HandleMessage cancel: %v", err)
	}
	if machine.lastSess.State != conversation.ConfirmingItems {
		t.Fatalf("expected stored session to be loaded, got %s", machine.lastSess.State)
	}
	info, _ = svc.SessionInfo(ctx, "u1")
	if info.State != conversation.Idle || info.SelectedWishlist != nil {
		t.Fatalf("expected idle after cancel, got %+v", info)
	}
}

func TestHandleMessageTurnInProgress(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemory(time.Minute)
	machine := &stubMachine{}
	svc := New(Deps{Sessions: store, Machine: machine, Chat: &stubChat{}})

	unlock, err := store.Lock(ctx, "u1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	if _, err := svc.HandleMessage(ctx, member(), "yes", false); !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}
	if machine.calls != 0 {
		t.Fatalf("machine must not run while the turn lock is held")
	}
}

func TestHandleMessageRefreshesProfile(t *testing.T) {
	lat, lng := 12.9, 77.6
	profiles := &stubProfiles{user: &domain.User{
		ID:      "u1",
		Name:    "Asha K",
		Address: &domain.Address{City: "Bengaluru", Latitude: &lat, Longitude: &lng},
	}}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: &conversation.Reply{Kind: conversation.KindNoWishlists}}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{}, Profiles: profiles})

	if _, err := svc.HandleMessage(context.Background(), member(), "I want to order", false); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if profiles.calls != 1 {
		t.Fatalf("expected profile lookup, got %d", profiles.calls)
	}
	if machine.lastUser.Name != "Asha K" || machine.lastUser.Address.Coordinates() == nil {
		t.Fatalf("expected refreshed profile, got %+v", machine.lastUser)
	}
	if machine.lastUser.Token != "tok" || !machine.lastUser.Authenticated {
		t.Fatalf("refresh must keep the token identity")
	}
}

func TestHandleMessageProfileRefreshSkipped(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("should not be called")}
	machine := &stubMachine{next: conversation.NewSession("guest:10.0.0.1")}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{text: "hi"}, Profiles: profiles})

	// Small talk from a member and any message from a guest need no profile.
	if _, err := svc.HandleMessage(context.Background(), member(), "hello", false); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	guest := domain.User{ID: "guest:10.0.0.1"}
	if _, err := svc.HandleMessage(context.Background(), guest, "order my usual", false); err != nil {
		t.Fatalf("HandleMessage guest: %v", err)
	}
	if profiles.calls != 0 {
		t.Fatalf("expected no profile lookups, got %d", profiles.calls)
	}
}

func TestHandleMessageProfileFailureKeepsIdentity(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("timeout")}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: &conversation.Reply{Kind: conversation.KindNoWishlists}}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{}, Profiles: profiles})

	if _, err := svc.HandleMessage(context.Background(), member(), "order my usual", false); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if machine.lastUser.ID != "u1" || machine.lastUser.Address != nil {
		t.Fatalf("expected JWT identity without address, got %+v", machine.lastUser)
	}
}

func placedReply() *conversation.Reply {
	return &conversation.Reply{
		Kind: conversation.KindOrderPlaced,
		Text: "Your order has been placed!",
		Placement: &conversation.Placement{
			Wishlist: domain.Wishlist{ID: "w1", Name: "Friday Feast"},
			Submission: domain.OrderSubmission{
				CustomerID:   "u1",
				RestaurantID: "r1",
				Items:        []domain.OrderLine{{MenuItemID: "m1", Name: "Biryani", Price: 200, Quantity: 2}},
				Pricing:      domain.PricingBreakdown{Subtotal: 400, TotalAmount: 480},
			},
			Order: domain.PlacedOrder{ID: "ord-9"},
		},
	}
}

func TestHandleMessageRecordsAndPublishesPlacement(t *testing.T) {
	orders := &stubOrders{}
	pub := &stubPublisher{}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: placedReply()}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{}, Orders: orders, Events: pub})

	res, err := svc.HandleMessage(context.Background(), member(), "yes", false)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.OrderID != "ord-9" || res.Kind != "order_placed" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(orders.recorded) != 1 {
		t.Fatalf("expected order recorded")
	}
	rec := orders.recorded[0]
	if rec.OrderID != "ord-9" || rec.WishlistName != "Friday Feast" || rec.Pricing.TotalAmount != 480 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one event")
	}
	ev := pub.published[0]
	if ev.OrderID != "ord-9" || ev.CustomerID != "u1" || len(ev.Items) != 1 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHandleMessagePlacementSurvivesLedgerFailure(t *testing.T) {
	orders := &stubOrders{err: errors.New("db down")}
	pub := &stubPublisher{}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: placedReply()}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{}, Orders: orders, Events: pub})

	res, err := svc.HandleMessage(context.Background(), member(), "yes", false)
	if err != nil {
		t.Fatalf("ledger failures must not fail the turn: %v", err)
	}
	if res.OrderID != "ord-9" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected event even when recording fails")
	}
}

// failingDeleteStore wraps a memory store whose Delete fails a set number
// of times.
type failingDeleteStore struct {
	session.Store
	failures int
	deletes  int
}

func (f *failingDeleteStore) Delete(ctx context.Context, key string) error {
	f.deletes++
	if f.deletes <= f.failures {
		return errors.New("redis: i/o timeout")
	}
	return f.Store.Delete(ctx, key)
}

func TestHandleMessagePlacementSurvivesSessionStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingDeleteStore{Store: session.NewMemory(time.Minute), failures: 1}
	stale := conversation.NewSession("u1")
	stale.State = conversation.ConfirmingAddress
	if err := store.Save(ctx, stale); err != nil {
		t.Fatalf("save: %v", err)
	}

	orders := &stubOrders{}
	pub := &stubPublisher{}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: placedReply()}
	svc := New(Deps{Sessions: store, Machine: machine, Chat: &stubChat{}, Orders: orders, Events: pub})

	res, err := svc.HandleMessage(ctx, member(), "yes", false)
	if err != nil {
		t.Fatalf("a placed order must not fail the turn: %v", err)
	}
	if res.OrderID != "ord-9" || res.Kind != "order_placed" || res.State != conversation.Idle {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(orders.recorded) != 1 || len(pub.published) != 1 {
		t.Fatalf("expected record and event, got %d records %d events", len(orders.recorded), len(pub.published))
	}
	if store.deletes != 2 {
		t.Fatalf("expected the delete to be retried, got %d attempts", store.deletes)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stale confirmation must be gone, got %v", err)
	}
}

func TestHandleMessageStoreFailureWithoutPlacement(t *testing.T) {
	store := &failingDeleteStore{Store: session.NewMemory(time.Minute), failures: 1}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: &conversation.Reply{Kind: conversation.KindCancelled, Text: "cancelled"}}
	svc := New(Deps{Sessions: store, Machine: machine, Chat: &stubChat{}})

	if _, err := svc.HandleMessage(context.Background(), member(), "cancel", false); err == nil {
		t.Fatalf("expected the store error to surface")
	}
}

func TestHandleMessageSpeaks(t *testing.T) {
	voice := &stubVoice{}
	machine := &stubMachine{next: conversation.NewSession("u1"), reply: &conversation.Reply{Kind: conversation.KindNoWishlists, Text: "No wishlists yet"}}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Machine: machine, Chat: &stubChat{}, Voice: voice})

	if _, err := svc.HandleMessage(context.Background(), member(), "order", false); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(voice.spoken) != 0 {
		t.Fatalf("expected silence when speak=false")
	}
	if _, err := svc.HandleMessage(context.Background(), member(), "order", true); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(voice.spoken) != 1 || voice.spoken[0] != "No wishlists yet" {
		t.Fatalf("expected reply spoken, got %v", voice.spoken)
	}
}

func TestClearChat(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemory(time.Minute)
	voice := &stubVoice{}
	svc := New(Deps{Sessions: store, Machine: &stubMachine{}, Chat: &stubChat{}, Voice: voice})

	sess := conversation.NewSession("u1")
	sess.State = conversation.ConfirmingAddress
	_ = store.Save(ctx, sess)

	if err := svc.ClearChat(ctx, "u1"); err != nil {
		t.Fatalf("ClearChat: %v", err)
	}
	info, _ := svc.SessionInfo(ctx, "u1")
	if info.State != conversation.Idle {
		t.Fatalf("expected idle after clear, got %s", info.State)
	}
	if len(voice.stopped) != 1 || voice.stopped[0] != "u1" {
		t.Fatalf("expected speaker stopped, got %v", voice.stopped)
	}
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	orders := &stubOrders{list: []domain.AssistantOrder{{OrderID: "ord-1"}}}
	svc := New(Deps{Sessions: session.NewMemory(time.Minute), Orders: orders})

	if _, err := svc.Orders(ctx, domain.User{ID: "guest:1"}, 10); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	list, err := svc.Orders(ctx, member(), 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected orders %v err=%v", list, err)
	}

	noLedger := New(Deps{Sessions: session.NewMemory(time.Minute)})
	if _, err := noLedger.Orders(ctx, member(), 10); !errors.Is(err, ErrOrderHistoryOff) {
		t.Fatalf("expected ErrOrderHistoryOff, got %v", err)
	}
}

func TestSpeakingWithoutVoice(t *testing.T) {
	svc := New(Deps{Sessions: session.NewMemory(time.Minute)})
	if svc.Speaking("u1") {
		t.Fatalf("expected not speaking without a voice registry")
	}
}
