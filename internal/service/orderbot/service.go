// Package orderbot runs one chat turn end to end: it serializes turns per
// user, drives the conversation machine, falls back to general chat, and
// records and announces placed orders.
package orderbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bigbite-orderbot/internal/conversation"
	"bigbite-orderbot/internal/domain"
	"bigbite-orderbot/internal/events"
	"bigbite-orderbot/internal/geo"
	"bigbite-orderbot/internal/intent"
	"bigbite-orderbot/internal/logging"
	orderrepo "bigbite-orderbot/internal/repository/order"
	"bigbite-orderbot/internal/repository/session"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyMessage    = errors.New("message required")
	ErrTurnInProgress  = errors.New("another message from this user is still being handled")
	ErrChatUnavailable = errors.New("chat assistant unavailable")
	ErrOrderHistoryOff = errors.New("order history is not enabled")
)

const (
	SourceOrderbot = "orderbot"
	SourceChat     = "chat"

	// KindChat marks replies produced by the general chat fallback.
	KindChat = "chat"

	sideEffectTimeout = 5 * time.Second
)

type dispatcher interface {
	Dispatch(ctx context.Context, sess conversation.Session, user domain.User, message string) (conversation.Session, *conversation.Reply)
}

type chatClient interface {
	Chat(ctx context.Context, user domain.User, message string) (string, error)
}

type profileSource interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

type speakers interface {
	Speak(key, text string)
	Speaking(key string) bool
	Stop(key string)
}

// Deps are the collaborators of a Service. Orders, Events and Voice are
// optional.
type Deps struct {
	Sessions session.Store
	Machine  dispatcher
	Chat     chatClient
	Profiles profileSource
	Orders   orderrepo.Repository
	Events   events.Publisher
	Voice    speakers
	Logger   *slog.Logger
}

type Service struct {
	sessions session.Store
	machine  dispatcher
	chat     chatClient
	profiles profileSource
	orders   orderrepo.Repository
	events   events.Publisher
	voice    speakers
	logger   *slog.Logger
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return &Service{
		sessions: d.Sessions,
		machine:  d.Machine,
		chat:     d.Chat,
		profiles: d.Profiles,
		orders:   d.Orders,
		events:   d.Events,
		voice:    d.Voice,
		logger:   d.Logger,
	}
}

// Result is the outcome of one turn.
type Result struct {
	Reply   string             `json:"reply"`
	Kind    string             `json:"kind"`
	State   conversation.State `json:"state"`
	Source  string             `json:"source"`
	OrderID string             `json:"orderId,omitempty"`
}

// HandleMessage runs one turn for user. The session key is user.ID, which
// for guests is derived from the client address by the caller.
func (s *Service) HandleMessage(ctx context.Context, user domain.User, message string, speak bool) (Result, error) {
	if strings.TrimSpace(message) == "" {
		return Result{}, ErrEmptyMessage
	}
	key := user.ID
	log := logging.FromCtx(ctx).With("session", key)

	unlock, err := s.sessions.Lock(ctx, key)
	if errors.Is(err, session.ErrSessionBusy) {
		turnsTotal.WithLabelValues("rejected", "busy").Inc()
		return Result{}, ErrTurnInProgress
	}
	if err != nil {
		return Result{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	sess, err := s.load(ctx, key)
	if err != nil {
		return Result{}, err
	}

	if user.Authenticated && (sess.Active() || intent.HasOrderingKeyword(message)) {
		user = s.refreshProfile(ctx, log, user)
	}

	before := sess.State
	next, reply := s.machine.Dispatch(ctx, sess, user, message)
	next.UserID = key
	if next.State != before {
		log.Info("conversation transition", "from", before, "to", next.State)
	}

	var res Result
	if reply == nil {
		text, err := s.chat.Chat(ctx, user, message)
		if err != nil {
			log.Warn("chat fallback failed", "err", err)
			turnsTotal.WithLabelValues(SourceChat, "error").Inc()
			return Result{}, fmt.Errorf("%w: %v", ErrChatUnavailable, err)
		}
		res = Result{Reply: text, Kind: KindChat, Source: SourceChat}
	} else {
		res = Result{Reply: reply.Text, Kind: string(reply.Kind), Source: SourceOrderbot}
	}
	res.State = next.State

	if err := s.persist(ctx, next); err != nil {
		// The upstream order already exists, so the turn still reports it.
		if reply == nil || reply.Placement == nil {
			return Result{}, err
		}
		log.Error("persist after placement failed", "order_id", reply.Placement.Order.ID, "err", err)
		s.discardSession(ctx, log, key)
	}

	if reply != nil {
		switch reply.Kind {
		case conversation.KindOrderPlaced:
			ordersTotal.WithLabelValues("placed").Inc()
		case conversation.KindOrderFailed:
			ordersTotal.WithLabelValues("failed").Inc()
		}
		if reply.Placement != nil {
			res.OrderID = reply.Placement.Order.ID
			s.afterPlacement(ctx, log, *reply.Placement)
		}
	}
	turnsTotal.WithLabelValues(res.Source, res.Kind).Inc()

	if speak && s.voice != nil {
		s.voice.Speak(key, res.Reply)
	}
	return res, nil
}

func (s *Service) load(ctx context.Context, key string) (conversation.Session, error) {
	stored, err := s.sessions.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return conversation.NewSession(key), nil
	}
	if err != nil {
		return conversation.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !stored.State.Valid() {
		s.logger.Warn("discarding session with unknown state", "session", key, "state", stored.State)
		return conversation.NewSession(key), nil
	}
	return *stored, nil
}

func (s *Service) persist(ctx context.Context, next conversation.Session) error {
	if next.Active() {
		if err := s.sessions.Save(ctx, next); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	}
	if err := s.sessions.Delete(ctx, next.UserID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// discardSession retries the delete on a fresh deadline so a stale
// confirmation cannot place the same order twice.
func (s *Service) discardSession(ctx context.Context, log *slog.Logger, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.sessions.Delete(ctx, key); err != nil {
		log.Error("discard session after placement failed", "err", err)
	}
}

// refreshProfile overlays the backend profile on the token identity. The
// token identity survives a failed lookup, minus any address.
func (s *Service) refreshProfile(ctx context.Context, log *slog.Logger, user domain.User) domain.User {
	if s.profiles == nil {
		return user
	}
	p, err := s.profiles.CurrentUser(ctx, user.Token)
	if err != nil {
		log.Warn("profile refresh failed", "err", err)
		return user
	}
	if p.ID != "" {
		user.ID = p.ID
	}
	if p.Name != "" {
		user.Name = p.Name
	}
	user.Address = p.Address
	return user
}

// afterPlacement records and announces an accepted order concurrently.
// Neither step can undo the placement, so failures are only logged.
func (s *Service) afterPlacement(ctx context.Context, log *slog.Logger, p conversation.Placement) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	rec := domain.AssistantOrder{
		OrderID:      p.Order.ID,
		CustomerID:   p.Submission.CustomerID,
		RestaurantID: p.Submission.RestaurantID,
		WishlistID:   p.Wishlist.ID,
		WishlistName: p.Wishlist.Name,
		Pricing:      p.Submission.Pricing,
		CreatedAt:    time.Now().UTC(),
	}

	var g errgroup.Group
	if s.orders != nil {
		g.Go(func() error {
			if _, err := s.orders.Record(ctx, rec); err != nil {
				log.Error("record order failed", "order_id", rec.OrderID, "err", err)
			}
			return nil
		})
	}
	if s.events != nil {
		ev := events.NewOrderPlaced(rec, p.Submission.Items)
		g.Go(func() error {
			if err := s.events.PublishOrderPlaced(ctx, ev); err != nil {
				log.Error("publish order placed failed", "order_id", rec.OrderID, "event_id", ev.EventID, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ClearChat drops the conversation for key and silences its speaker.
func (s *Service) ClearChat(ctx context.Context, key string) error {
	if s.voice != nil {
		s.voice.Stop(key)
	}
	if err := s.sessions.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}

type SessionInfo struct {
	State            conversation.State `json:"state"`
	SelectedWishlist *WishlistRef       `json:"selectedWishlist,omitempty"`
	UpdatedAt        *time.Time         `json:"updatedAt,omitempty"`
}

type WishlistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Service) SessionInfo(ctx context.Context, key string) (SessionInfo, error) {
	sess, err := s.load(ctx, key)
	if err != nil {
		return SessionInfo{}, err
	}
	info := SessionInfo{State: sess.State}
	if sess.State == "" {
		info.State = conversation.Idle
	}
	if !sess.UpdatedAt.IsZero() {
		t := sess.UpdatedAt
		info.UpdatedAt = &t
	}
	if w, ok := sess.Selected(); ok {
		info.SelectedWishlist = &WishlistRef{ID: w.ID, Name: w.Name}
	}
	return info, nil
}

// Orders lists orders the assistant placed for an authenticated user.
func (s *Service) Orders(ctx context.Context, user domain.User, limit int) ([]domain.AssistantOrder, error) {
	if !user.Authenticated {
		return nil, domain.ErrUnauthenticated
	}
	if s.orders == nil {
		return nil, ErrOrderHistoryOff
	}
	return s.orders.ListByCustomer(ctx, user.ID, limit)
}

func (s *Service) Quote(restaurant, customer *domain.Coordinates, items []geo.LineItem) domain.PricingBreakdown {
	return geo.Quote(restaurant, customer, items)
}

func (s *Service) Speaking(key string) bool {
	return s.voice != nil && s.voice.Speaking(key)
}
