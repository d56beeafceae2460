package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/events"
	"github.com/spec-kit/moderation-service/internal/notify"
	"github.com/spec-kit/moderation-service/internal/repository"
	"github.com/spec-kit/moderation-service/internal/repository/memory"
)

// stepClock advances one second on every reading so ordering by time is
// deterministic.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(_ context.Context, event events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]events.EventType, 0, len(l.events))
	for _, event := range l.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	store    *repository.Store
	resolver *auth.Resolver
	events   *eventLog
	tickets  *TicketService
	chats    *ChatService
	counts   *CountsService
	blocking *BlockingService
}

var seedUsers = []struct {
	id   string
	role domain.Role
}{
	{"1", domain.RoleOwner},
	{"2", domain.RoleAdmin},
	{"3", domain.RoleModerator},
	{"4", domain.RoleHeadAdmin},
	{"5", domain.RoleSecurity},
	{"10", domain.RoleUser},
	{"11", domain.RoleUser},
	{"77", domain.RoleShopStaff},
	{"78", domain.RoleShopStaff},
	{"88", domain.RoleShopOwner},
}

// newFixture seeds shops 5 and 6. Users 77 and 78 staff shop 5, user 88
// owns shop 6.
func newFixture(t *testing.T, source notify.Source) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	for _, u := range seedUsers {
		if err := store.Users.Create(ctx, &domain.User{
			ID:        u.id,
			Username:  "user" + u.id,
			Role:      u.role,
			CreatedAt: clock.Now(),
			UpdatedAt: clock.Now(),
		}); err != nil {
			t.Fatalf("seed user %s: %v", u.id, err)
		}
	}
	for _, shop := range []domain.Shop{
		{ID: "5", Name: "Five", OwnerID: "77", Status: domain.ShopStatusActive},
		{ID: "6", Name: "Six", OwnerID: "88", Status: domain.ShopStatusActive},
	} {
		shop.CreatedAt = clock.Now()
		if err := store.Shops.Create(ctx, &shop); err != nil {
			t.Fatalf("seed shop %s: %v", shop.ID, err)
		}
	}
	for _, member := range []domain.ShopStaffMember{
		{ShopID: "5", UserID: "77", Role: domain.RoleShopStaff},
		{ShopID: "5", UserID: "78", Role: domain.RoleShopStaff},
		{ShopID: "6", UserID: "88", Role: domain.RoleShopOwner},
	} {
		member.AddedAt = clock.Now()
		if err := store.Shops.AddStaff(ctx, member); err != nil {
			t.Fatalf("seed staff: %v", err)
		}
	}

	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, log.record)
	}
	common := Common{Dispatcher: dispatcher, Clock: clock.Now}

	return &fixture{
		store:    store,
		resolver: auth.NewResolver(store.Users, store.Shops),
		events:   log,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:  store.Tickets,
			MessageRepo: store.TicketMessages,
			HistoryRepo: store.TicketHistory,
			UserRepo:    store.Users,
			ShopRepo:    store.Shops,
			Common:      common,
		}),
		chats: NewChatService(ChatDependencies{
			TicketRepo:        store.Tickets,
			TicketMessageRepo: store.TicketMessages,
			ChatRepo:          store.Chats,
			ChatMessageRepo:   store.ChatMessages,
			ShopRepo:          store.Shops,
			UserRepo:          store.Users,
			Common:            common,
		}),
		counts: NewCountsService(CountsDependencies{
			TicketRepo:    store.Tickets,
			ChatRepo:      store.Chats,
			Notifications: source,
			Common:        common,
		}),
		blocking: NewBlockingService(BlockingDependencies{
			UserRepo:     store.Users,
			BlockLogRepo: store.BlockLog,
			Common:       common,
		}),
	}
}

func (f *fixture) principal(t *testing.T, userID string) *auth.Principal {
	t.Helper()
	p, err := f.resolver.Resolve(context.Background(), userID)
	if err != nil {
		t.Fatalf("resolve principal %s: %v", userID, err)
	}
	return p
}

func (f *fixture) createTicket(t *testing.T, reporterID string, scope domain.TicketScope) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), f.principal(t, reporterID), TicketCreateInput{
		Title:       "Late delivery",
		Description: "Order has not arrived",
		Scope:       scope,
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func ticketIDs(tickets []domain.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	return ids
}

func stringPtr(v string) *string {
	return &v
}
