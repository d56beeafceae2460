package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/moderation-service/internal/domain"
	"github.com/spec-kit/moderation-service/internal/repository"
	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller together with the shops in
// which it holds staff standing.
type Principal struct {
	UserID  string
	Role    domain.Role
	ShopIDs []string
	User    *domain.User
}

// Capabilities returns the static capability set of the principal's role.
func (p *Principal) Capabilities() Capabilities {
	if p == nil {
		return Capabilities{}
	}
	return CapabilitiesOf(p.Role)
}

// CanActOnTicket applies CanActOnTicket to the principal.
func (p *Principal) CanActOnTicket(scope domain.TicketScope) bool {
	return p != nil && CanActOnTicket(p.Role, p.ShopIDs, scope)
}

// CanAccessShop applies CanAccessShop to the principal.
func (p *Principal) CanAccessShop(shopID string) bool {
	return p != nil && CanAccessShop(p.Role, p.ShopIDs, shopID)
}

// Resolver loads principals from the entity store.
type Resolver struct {
	users repository.UserRepository
	shops repository.ShopRepository
}

// NewResolver constructs a resolver.
func NewResolver(users repository.UserRepository, shops repository.ShopRepository) *Resolver {
	return &Resolver{users: users, shops: shops}
}

// Resolve builds the principal for userID. Blocked accounts are refused.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*Principal, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated("user not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user.IsBlocked {
		return nil, apperrors.NewUnauthorized("account blocked")
	}
	shopIDs, err := r.shops.ListStaffShopIDs(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Principal{UserID: user.ID, Role: user.Role, ShopIDs: shopIDs, User: user}, nil
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	principal, err := m.resolver.Resolve(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
