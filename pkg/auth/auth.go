package auth

import (
	"context"
	"errors"
	"strings"
)

// Role is an enumerated role a connection can carry.
type Role string

const (
	RoleBidder    Role = "BIDDER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Capability is a single permission checked by the gateway before an
// intent reaches the engine. Roles map onto capabilities here; nothing
// else in the codebase inspects role strings.
type Capability string

const (
	CapPlaceBid       Capability = "place_bid"
	CapAdminBidAction Capability = "admin_bid_action"
	CapFinalize       Capability = "finalize"
	CapReserveDrop    Capability = "reserve_drop"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleBidder: {
		CapPlaceBid: true,
	},
	RoleModerator: {
		CapPlaceBid:       true,
		CapAdminBidAction: true,
	},
	RoleAdmin: {
		CapPlaceBid:       true,
		CapAdminBidAction: true,
		CapFinalize:       true,
		CapReserveDrop:    true,
	},
}

// Identity is the resolved principal behind an authenticated connection.
type Identity struct {
	UserID string
	Roles  []Role
}

// Can reports whether any of the identity's roles grants the capability.
func (id *Identity) Can(c Capability) bool {
	for _, role := range id.Roles {
		if roleCapabilities[role][c] {
			return true
		}
	}
	return false
}

// ErrUnauthenticated is returned when a credential does not resolve to
// an identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a bearer credential to an identity. The real
// identity provider lives outside this service; implementations here
// adapt it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// StaticAuthenticator authenticates against a fixed token map. It backs
// local development and tests.
type StaticAuthenticator struct {
	tokens map[string]Identity
}

// NewStatic creates a StaticAuthenticator over the given token map.
func NewStatic(tokens map[string]Identity) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

// ParseStaticTokens parses the AUTH_TOKENS env format:
// "token=user:role|role;token2=user2:role". Malformed entries are skipped.
func ParseStaticTokens(raw string) map[string]Identity {
	tokens := make(map[string]Identity)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, rest, ok := strings.Cut(entry, "=")
		if !ok || token == "" {
			continue
		}
		user, roleList, ok := strings.Cut(rest, ":")
		if !ok || user == "" {
			continue
		}
		var roles []Role
		for _, r := range strings.Split(roleList, "|") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, Role(strings.ToUpper(r)))
			}
		}
		tokens[token] = Identity{UserID: user, Roles: roles}
	}
	return tokens
}

var _ Authenticator = (*StaticAuthenticator)(nil)

func (a *StaticAuthenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	id, ok := a.tokens[token]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &id, nil
}
