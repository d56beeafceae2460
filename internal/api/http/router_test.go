package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/moderation-service/internal/api/http/handlers"
	"github.com/spec-kit/moderation-service/internal/auth"
	"github.com/spec-kit/moderation-service/internal/config"
	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/notify"
	"github.com/spec-kit/moderation-service/internal/observability"
	"github.com/spec-kit/moderation-service/internal/repository"
	"github.com/spec-kit/moderation-service/internal/repository/memory"
	"github.com/spec-kit/moderation-service/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	store  *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for id, role := range map[string]domain.Role{
		"2":  domain.RoleAdmin,
		"3":  domain.RoleModerator,
		"10": domain.RoleUser,
		"77": domain.RoleShopStaff,
	} {
		if err := store.Users.Create(ctx, &domain.User{ID: id, Username: "user" + id, Role: role, CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	if err := store.Shops.Create(ctx, &domain.Shop{ID: "5", Name: "Five", OwnerID: "77", Status: domain.ShopStatusActive, CreatedAt: now}); err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	if err := store.Shops.AddStaff(ctx, domain.ShopStaffMember{ShopID: "5", UserID: "77", Role: domain.RoleShopStaff, AddedAt: now}); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	logger := zap.NewNop()
	common := service.Common{Logger: logger, Metrics: metrics}

	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets,
		MessageRepo: store.TicketMessages,
		HistoryRepo: store.TicketHistory,
		UserRepo:    store.Users,
		ShopRepo:    store.Shops,
		Common:      common,
	})
	chats := service.NewChatService(service.ChatDependencies{
		TicketRepo:        store.Tickets,
		TicketMessageRepo: store.TicketMessages,
		ChatRepo:          store.Chats,
		ChatMessageRepo:   store.ChatMessages,
		ShopRepo:          store.Shops,
		UserRepo:          store.Users,
		Common:            common,
	})
	counts := service.NewCountsService(service.CountsDependencies{
		TicketRepo: store.Tickets,
		ChatRepo:   store.Chats,
		Common:     common,
	})
	blocking := service.NewBlockingService(service.BlockingDependencies{
		UserRepo:     store.Users,
		BlockLogRepo: store.BlockLog,
		Common:       common,
	})

	tokens := auth.NewTokenManager("router-test-secret", 5)
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("moderation-service", "test", nil),
		Tickets:        handlers.NewTicketsHandler(tickets, chats),
		StaffTickets:   handlers.NewStaffTicketsHandler(tickets),
		Chats:          handlers.NewChatsHandler(chats),
		Users:          handlers.NewUsersHandler(blocking, counts),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, auth.NewResolver(store.Users, store.Shops)),
		Gatherer:       registry,
	})
	return &testServer{app: app, tokens: tokens, store: store}
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != "" {
		token, _, err := s.tokens.GenerateToken(userID)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded apiResponse
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func TestTicketFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, fiber.MethodPost, "/api/v1/tickets", "10",
		`{"title":"Late delivery","description":"Order has not arrived","scope":"SHOP","shop_id":"5"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d (%s)", status, resp.Error.Message)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		ShopID string `json:"shop_id"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if created.Status != "PENDING" || created.ShopID != "5" {
		t.Fatalf("created = %+v", created)
	}

	steps := []struct {
		method, path, user string
		wantStatus         int
		wantCode           string
	}{
		{fiber.MethodPost, "/api/v1/tickets/" + created.ID + "/assign", "10", fiber.StatusForbidden, "UNAUTHORIZED"},
		{fiber.MethodPost, "/api/v1/tickets/" + created.ID + "/resolve", "77", fiber.StatusConflict, "CONFLICT"},
		{fiber.MethodPost, "/api/v1/tickets/" + created.ID + "/assign", "77", fiber.StatusOK, ""},
		{fiber.MethodPost, "/api/v1/tickets/" + created.ID + "/resolve", "77", fiber.StatusOK, ""},
		{fiber.MethodPost, "/api/v1/tickets/" + created.ID + "/reject", "77", fiber.StatusConflict, "CONFLICT"},
		{fiber.MethodGet, "/api/v1/tickets/missing", "2", fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, step := range steps {
		status, resp := s.do(t, step.method, step.path, step.user, "")
		if status != step.wantStatus || resp.Error.Code != step.wantCode {
			t.Fatalf("%s %s as %s = %d %q, want %d %q", step.method, step.path, step.user, status, resp.Error.Code, step.wantStatus, step.wantCode)
		}
	}

	if status, _ := s.do(t, fiber.MethodPost, "/api/v1/tickets/"+created.ID+"/messages", "10", `{"body":"thanks"}`); status != fiber.StatusConflict {
		t.Fatalf("message to resolved ticket = %d", status)
	}

	status, resp = s.do(t, fiber.MethodGet, "/api/v1/tickets/"+created.ID, "10", "")
	if status != fiber.StatusOK {
		t.Fatalf("get = %d", status)
	}
	var detail struct {
		Status   string            `json:"status"`
		Messages []json.RawMessage `json:"messages"`
		History  []json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(resp.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Status != "RESOLVED" || len(detail.History) != 2 || len(detail.Messages) != 0 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestCreateTicketScopeFromRequest(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantScope  string
		wantShopID string
	}{
		{"shop id without scope", `{"title":"Late delivery","description":"x","shop_id":"5"}`, fiber.StatusCreated, "SHOP", "5"},
		{"lowercase shop scope", `{"title":"Late delivery","description":"x","scope":"shop","shop_id":"5"}`, fiber.StatusCreated, "SHOP", "5"},
		{"no scope", `{"title":"Rude seller","description":"x"}`, fiber.StatusCreated, "PLATFORM", ""},
		{"lowercase platform scope", `{"title":"Rude seller","description":"x","scope":"platform"}`, fiber.StatusCreated, "PLATFORM", ""},
		{"platform scope with shop", `{"title":"Rude seller","description":"x","scope":"platform","shop_id":"5"}`, fiber.StatusBadRequest, "", ""},
		{"shop scope without shop", `{"title":"Rude seller","description":"x","scope":"shop"}`, fiber.StatusBadRequest, "", ""},
	}
	shopTickets := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, fiber.MethodPost, "/api/v1/tickets", "10", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d (%s), want %d", status, resp.Error.Message, tt.wantStatus)
			}
			if status != fiber.StatusCreated {
				if resp.Error.Code != "VALIDATION_FAILED" {
					t.Fatalf("code = %q", resp.Error.Code)
				}
				return
			}
			var created struct {
				Scope  string  `json:"scope"`
				ShopID *string `json:"shop_id"`
			}
			if err := json.Unmarshal(resp.Data, &created); err != nil {
				t.Fatalf("decode: %v", err)
			}
			gotShop := ""
			if created.ShopID != nil {
				gotShop = *created.ShopID
			}
			if created.Scope != tt.wantScope || gotShop != tt.wantShopID {
				t.Fatalf("scope = %s/%q, want %s/%q", created.Scope, gotShop, tt.wantScope, tt.wantShopID)
			}
			if tt.wantScope == "SHOP" {
				shopTickets++
			}
		})
	}

	status, resp := s.do(t, fiber.MethodGet, "/api/v1/tickets", "77", "")
	if status != fiber.StatusOK {
		t.Fatalf("staff list = %d", status)
	}
	var listed []json.RawMessage
	if err := json.Unmarshal(resp.Data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != shopTickets {
		t.Fatalf("shop staff sees %d tickets, want %d", len(listed), shopTickets)
	}
}

func TestListMineBeyondLastPage(t *testing.T) {
	s := newTestServer(t)
	if status, _ := s.do(t, fiber.MethodPost, "/api/v1/tickets", "10", `{"title":"Late delivery","description":"x"}`); status != fiber.StatusCreated {
		t.Fatalf("create = %d", status)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?page=2", 0},
		{"?page=9223372036854775807", 0},
		{"?page=9223372036854775807&page_size=9223372036854775807", 0},
	}
	for _, tt := range tests {
		status, resp := s.do(t, fiber.MethodGet, "/api/v1/tickets/mine"+tt.query, "10", "")
		if status != fiber.StatusOK {
			t.Fatalf("%s: status = %d", tt.query, status)
		}
		var listed []json.RawMessage
		if err := json.Unmarshal(resp.Data, &listed); err != nil {
			t.Fatalf("%s: decode: %v", tt.query, err)
		}
		if len(listed) != tt.want {
			t.Fatalf("%s: got %d tickets, want %d", tt.query, len(listed), tt.want)
		}
	}
}

func TestAuthenticationAndErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	if _, err := s.store.Users.ApplyBlock(ctx, "3", domain.BlockRecord{Reason: "test", BlockedAt: time.Now()}); err != nil {
		t.Fatalf("block: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		user       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing token", fiber.MethodGet, "/api/v1/tickets", "", "", fiber.StatusUnauthorized, "UNAUTHENTICATED"},
		{"unknown user", fiber.MethodGet, "/api/v1/tickets", "404", "", fiber.StatusUnauthorized, "UNAUTHENTICATED"},
		{"blocked user", fiber.MethodGet, "/api/v1/tickets", "3", "", fiber.StatusForbidden, "UNAUTHORIZED"},
		{"missing capability", fiber.MethodPost, "/api/v1/users/77/block", "10", `{"reason":"spam"}`, fiber.StatusForbidden, "UNAUTHORIZED"},
		{"bad scope", fiber.MethodGet, "/api/v1/tickets?scope=galaxy", "2", "", fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad status", fiber.MethodGet, "/api/v1/tickets?status=open", "2", "", fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing title", fiber.MethodPost, "/api/v1/tickets", "10", `{"description":"x"}`, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown route", fiber.MethodGet, "/nope", "", "", fiber.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, tt.method, tt.path, tt.user, tt.body)
			if status != tt.wantStatus || resp.Error.Code != tt.wantCode {
				t.Fatalf("got %d %q (%s), want %d %q", status, resp.Error.Code, resp.Error.Message, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestBlockAndCountsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, fiber.MethodPost, "/api/v1/users/10/block", "2", `{"reason":"spam","duration":"7d"}`)
	if status != fiber.StatusOK {
		t.Fatalf("block = %d (%s)", status, resp.Error.Message)
	}
	if status, _ := s.do(t, fiber.MethodGet, "/api/v1/notifications/counts", "10", ""); status != fiber.StatusForbidden {
		t.Fatalf("blocked user counts = %d", status)
	}
	if status, _ := s.do(t, fiber.MethodPost, "/api/v1/users/10/unblock", "2", ""); status != fiber.StatusOK {
		t.Fatalf("unblock = %d", status)
	}
	status, resp = s.do(t, fiber.MethodGet, "/api/v1/users/10/block-log", "2", "")
	if status != fiber.StatusOK {
		t.Fatalf("block log = %d", status)
	}
	var entries []struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "BLOCK" || entries[1].Action != "UNBLOCK" {
		t.Fatalf("entries = %+v", entries)
	}

	if status, _ := s.do(t, fiber.MethodPost, "/api/v1/tickets", "10", `{"title":"t","description":"d","scope":"SHOP","shop_id":"5"}`); status != fiber.StatusCreated {
		t.Fatalf("create = %d", status)
	}
	status, resp = s.do(t, fiber.MethodPost, "/api/v1/shops/5/chats", "10", "")
	if status != fiber.StatusOK {
		t.Fatalf("open chat = %d (%s)", status, resp.Error.Message)
	}
	var chat struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if status, _ := s.do(t, fiber.MethodPost, "/api/v1/chats/"+chat.ID+"/messages", "10", `{"body":"hello"}`); status != fiber.StatusCreated {
		t.Fatalf("chat message = %d", status)
	}

	status, resp = s.do(t, fiber.MethodGet, "/api/v1/notifications/counts", "77", "")
	if status != fiber.StatusOK {
		t.Fatalf("counts = %d", status)
	}
	var counts struct {
		Complaints     int `json:"complaints"`
		ShopComplaints int `json:"shop_complaints"`
		ShopChats      int `json:"shop_chats"`
	}
	if err := json.Unmarshal(resp.Data, &counts); err != nil {
		t.Fatalf("decode counts: %v", err)
	}
	if counts.Complaints != 0 || counts.ShopComplaints != 1 || counts.ShopChats != 1 {
		t.Fatalf("counts = %+v", counts)
	}

	status, resp = s.do(t, fiber.MethodPost, "/api/v1/chats/"+chat.ID+"/read", "77", "")
	if status != fiber.StatusOK {
		t.Fatalf("mark read = %d", status)
	}
	var marked struct {
		Marked int `json:"marked"`
	}
	if err := json.Unmarshal(resp.Data, &marked); err != nil || marked.Marked != 1 {
		t.Fatalf("marked = %+v, %v", marked, err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if status, _ := s.do(t, fiber.MethodGet, "/health/live", "", ""); status != fiber.StatusOK {
		t.Fatalf("live = %d", status)
	}
	if status, _ := s.do(t, fiber.MethodGet, "/health/ready", "", ""); status != fiber.StatusOK {
		t.Fatalf("ready = %d", status)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(body), "moderation_http_requests_total") {
		t.Fatalf("metrics status=%d body=%s", resp.StatusCode, body)
	}
}

type failingSource struct{}

func (failingSource) UnreadCount(context.Context, string) (int, error) {
	return 0, errors.New("redis down")
}

func TestReadyReportsOpenNotificationBreaker(t *testing.T) {
	breaker := notify.NewBreakerSource(failingSource{}, config.BreakerConfig{
		MaxRequests: 1, IntervalSeconds: 60, TimeoutSeconds: 60, FailureRatio: 0.5, MinRequests: 1,
	}, zap.NewNop())
	health := handlers.NewHealthHandler("moderation-service", "test", map[string]handlers.Pinger{"notifications": breaker})
	app := fiber.New()
	app.Get("/ready", health.Ready)

	ready := func() int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil), -1)
		if err != nil {
			t.Fatalf("ready: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := ready(); got != fiber.StatusOK {
		t.Fatalf("closed breaker: ready = %d", got)
	}
	if _, err := breaker.UnreadCount(context.Background(), "10"); err == nil {
		t.Fatal("expected source failure")
	}
	if got := ready(); got != fiber.StatusServiceUnavailable {
		t.Fatalf("open breaker: ready = %d", got)
	}
}
