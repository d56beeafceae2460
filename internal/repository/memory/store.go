// Package memory provides an in-process entity store used when no Postgres
// DSN is configured and in service tests. All entities live in one arena
// guarded by a single mutex, so every write, including the ticket status
// compare-and-swap, is atomic.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/repository"
)

type arena struct {
	mu sync.Mutex

	users          map[string]domain.User
	shops          map[string]domain.Shop
	staff          map[string]map[string]domain.ShopStaffMember // shop id -> user id
	tickets        map[string]domain.Ticket
	ticketMessages map[string][]domain.TicketMessage // ticket id
	ticketHistory  map[string][]domain.TicketHistory // ticket id
	chats          map[string]domain.ShopChat
	chatIndex      map[chatKey]string
	chatMessages   map[string][]domain.ChatMessage // chat id
	blockLog       map[string][]domain.BlockLogEntry // user id
}

type chatKey struct {
	shopID string
	userID string
}

// NewStore returns a repository.Store whose repositories share one arena.
func NewStore() *repository.Store {
	a := &arena{
		users:          map[string]domain.User{},
		shops:          map[string]domain.Shop{},
		staff:          map[string]map[string]domain.ShopStaffMember{},
		tickets:        map[string]domain.Ticket{},
		ticketMessages: map[string][]domain.TicketMessage{},
		ticketHistory:  map[string][]domain.TicketHistory{},
		chats:          map[string]domain.ShopChat{},
		chatIndex:      map[chatKey]string{},
		chatMessages:   map[string][]domain.ChatMessage{},
		blockLog:       map[string][]domain.BlockLogEntry{},
	}
	return &repository.Store{
		Users:          &userRepo{a},
		Shops:          &shopRepo{a},
		Tickets:        &ticketRepo{a},
		TicketMessages: &ticketMessageRepo{a},
		TicketHistory:  &ticketHistoryRepo{a},
		Chats:          &chatRepo{a},
		ChatMessages:   &chatMessageRepo{a},
		BlockLog:       &blockLogRepo{a},
	}
}

type userRepo struct{ *arena }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) ApplyBlock(_ context.Context, userID string, record domain.BlockRecord) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	reason := record.Reason
	blockedAt := record.BlockedAt
	user.IsBlocked = true
	user.BlockReason = &reason
	user.BlockedAt = &blockedAt
	user.BlockDuration = record.Duration
	user.BlockedByID = record.BlockedByID
	user.UpdatedAt = record.BlockedAt
	r.users[userID] = user
	return &user, nil
}

func (r *userRepo) ClearBlock(_ context.Context, userID string, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.IsBlocked = false
	user.UpdatedAt = at
	r.users[userID] = user
	return &user, nil
}

type shopRepo struct{ *arena }

func (r *shopRepo) Create(_ context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[shop.ID] = *shop
	return nil
}

func (r *shopRepo) GetByID(_ context.Context, id string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.shops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &shop, nil
}

func (r *shopRepo) AddStaff(_ context.Context, member domain.ShopStaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.staff[member.ShopID]
	if !ok {
		members = map[string]domain.ShopStaffMember{}
		r.staff[member.ShopID] = members
	}
	if existing, ok := members[member.UserID]; ok {
		member.AddedAt = existing.AddedAt
	}
	members[member.UserID] = member
	return nil
}

func (r *shopRepo) ListStaffShopIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []string{}
	for shopID, members := range r.staff {
		if _, ok := members[userID]; ok {
			ids = append(ids, shopID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type ticketRepo struct{ *arena }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket = cloneTicket(ticket)
	return &ticket, nil
}

func (r *ticketRepo) Transition(_ context.Context, id string, expected domain.TicketStatus, change domain.TicketTransition) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ticket.Status != expected {
		return nil, repository.ErrStaleStatus
	}
	ticket.Status = change.Status
	if change.AssignedToID != nil {
		assignee := *change.AssignedToID
		ticket.AssignedToID = &assignee
	}
	ticket.UpdatedAt = change.UpdatedAt
	r.tickets[id] = ticket
	ticket = cloneTicket(ticket)
	return &ticket, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	matched := r.matchTickets(filter)
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := min(offset+filter.NormalizedLimit(), len(matched))
	return matched[offset:end], nil
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matchTickets(filter)), nil
}

func (r *ticketRepo) matchTickets(filter repository.TicketFilter) []domain.Ticket {
	result := []domain.Ticket{}
	if filter.MatchesNothing() {
		return result
	}
	for _, ticket := range r.tickets {
		if filter.Matches(&ticket) {
			result = append(result, cloneTicket(ticket))
		}
	}
	return result
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssignedToID != nil {
		v := *t.AssignedToID
		t.AssignedToID = &v
	}
	if t.TargetUserID != nil {
		v := *t.TargetUserID
		t.TargetUserID = &v
	}
	return t
}

type ticketMessageRepo struct{ *arena }

func (r *ticketMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[msg.TicketID]; !ok {
		return repository.ErrNotFound
	}
	r.ticketMessages[msg.TicketID] = append(r.ticketMessages[msg.TicketID], *msg)
	return nil
}

func (r *ticketMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := slices.Clone(r.ticketMessages[ticketID])
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if result == nil {
		result = []domain.TicketMessage{}
	}
	return result, nil
}

type ticketHistoryRepo struct{ *arena }

func (r *ticketHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketHistory[entry.TicketID] = append(r.ticketHistory[entry.TicketID], *entry)
	return nil
}

func (r *ticketHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := slices.Clone(r.ticketHistory[ticketID])
	if result == nil {
		result = []domain.TicketHistory{}
	}
	return result, nil
}

type chatRepo struct{ *arena }

func (r *chatRepo) CreateIfAbsent(_ context.Context, chat *domain.ShopChat) (*domain.ShopChat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := chatKey{shopID: chat.ShopID, userID: chat.UserID}
	if id, ok := r.chatIndex[key]; ok {
		existing := r.chats[id]
		return &existing, false, nil
	}
	r.chats[chat.ID] = *chat
	r.chatIndex[key] = chat.ID
	created := *chat
	return &created, true, nil
}

func (r *chatRepo) GetByID(_ context.Context, id string) (*domain.ShopChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &chat, nil
}

func (r *chatRepo) GetByShopAndUser(_ context.Context, shopID, userID string) (*domain.ShopChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.chatIndex[chatKey{shopID: shopID, userID: userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	chat := r.chats[id]
	return &chat, nil
}

func (r *chatRepo) ListByUser(_ context.Context, userID string) ([]domain.ShopChat, error) {
	return r.listWhere(func(c domain.ShopChat) bool { return c.UserID == userID }), nil
}

func (r *chatRepo) ListByShop(_ context.Context, shopID string) ([]domain.ShopChat, error) {
	return r.listWhere(func(c domain.ShopChat) bool { return c.ShopID == shopID }), nil
}

func (r *chatRepo) listWhere(keep func(domain.ShopChat) bool) []domain.ShopChat {
	r.mu.Lock()
	result := []domain.ShopChat{}
	for _, chat := range r.chats {
		if keep(chat) {
			result = append(result, chat)
		}
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].LastMessageAt.Equal(result[j].LastMessageAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	return result
}

func (r *chatRepo) CountUnreadForCustomer(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, chat := range r.chats {
		if chat.UserID != userID {
			continue
		}
		if r.hasUnread(chat.ID, func(author string) bool { return author != chat.UserID }) {
			count++
		}
	}
	return count, nil
}

func (r *chatRepo) CountUnreadForShops(_ context.Context, shopIDs []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, chat := range r.chats {
		if !slices.Contains(shopIDs, chat.ShopID) {
			continue
		}
		if r.hasUnread(chat.ID, func(author string) bool { return author == chat.UserID }) {
			count++
		}
	}
	return count, nil
}

// hasUnread must be called with mu held.
func (r *chatRepo) hasUnread(chatID string, authorMatches func(string) bool) bool {
	for _, msg := range r.chatMessages[chatID] {
		if !msg.Read && authorMatches(msg.AuthorID) {
			return true
		}
	}
	return false
}

type chatMessageRepo struct{ *arena }

func (r *chatMessageRepo) Append(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[msg.ChatID]
	if !ok {
		return repository.ErrNotFound
	}
	r.chatMessages[msg.ChatID] = append(r.chatMessages[msg.ChatID], *msg)
	if msg.CreatedAt.After(chat.LastMessageAt) {
		chat.LastMessageAt = msg.CreatedAt
		r.chats[chat.ID] = chat
	}
	return nil
}

func (r *chatMessageRepo) ListByChat(_ context.Context, chatID string) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := slices.Clone(r.chatMessages[chatID])
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if result == nil {
		result = []domain.ChatMessage{}
	}
	return result, nil
}

func (r *chatMessageRepo) MarkRead(_ context.Context, chatID string, byCustomer bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	messages := r.chatMessages[chatID]
	changed := 0
	for i := range messages {
		fromCustomer := messages[i].AuthorID == chat.UserID
		if !messages[i].Read && fromCustomer != byCustomer {
			messages[i].Read = true
			changed++
		}
	}
	return changed, nil
}

type blockLogRepo struct{ *arena }

func (r *blockLogRepo) Create(_ context.Context, entry *domain.BlockLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockLog[entry.UserID] = append(r.blockLog[entry.UserID], *entry)
	return nil
}

func (r *blockLogRepo) ListByUser(_ context.Context, userID string) ([]domain.BlockLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := slices.Clone(r.blockLog[userID])
	if result == nil {
		result = []domain.BlockLogEntry{}
	}
	return result, nil
}
