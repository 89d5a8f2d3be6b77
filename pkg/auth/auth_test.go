package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaticTokens(t *testing.T) {
	t.Run("Parses Tokens Roles And Users", func(t *testing.T) {
		tokens := ParseStaticTokens("tok1=alice:bidder;tok2=carol:moderator|admin")

		require.Len(t, tokens, 2)
		assert.Equal(t, Identity{UserID: "alice", Roles: []Role{RoleBidder}}, tokens["tok1"])
		assert.Equal(t, Identity{UserID: "carol", Roles: []Role{RoleModerator, RoleAdmin}}, tokens["tok2"])
	})

	t.Run("Skips Malformed Entries", func(t *testing.T) {
		tokens := ParseStaticTokens("tok1=alice:bidder;garbage;=nouser:bidder;tok2=:admin; ;tok3=bob:admin")

		assert.Len(t, tokens, 2)
		assert.Contains(t, tokens, "tok1")
		assert.Contains(t, tokens, "tok3")
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.Empty(t, ParseStaticTokens(""))
	})
}

func TestIdentityCan(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		cap      Capability
		expected bool
	}{
		{"Bidder Places Bids", []Role{RoleBidder}, CapPlaceBid, true},
		{"Bidder Cannot Moderate", []Role{RoleBidder}, CapAdminBidAction, false},
		{"Bidder Cannot Finalize", []Role{RoleBidder}, CapFinalize, false},
		{"Moderator Moderates", []Role{RoleModerator}, CapAdminBidAction, true},
		{"Moderator Cannot Finalize", []Role{RoleModerator}, CapFinalize, false},
		{"Admin Finalizes", []Role{RoleAdmin}, CapFinalize, true},
		{"Admin Drops Reserve", []Role{RoleAdmin}, CapReserveDrop, true},
		{"Any Granting Role Suffices", []Role{RoleBidder, RoleAdmin}, CapFinalize, true},
		{"No Roles", nil, CapPlaceBid, false},
		{"Unknown Role", []Role{Role("VIEWER")}, CapPlaceBid, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := Identity{UserID: "user1", Roles: tc.roles}
			assert.Equal(t, tc.expected, id.Can(tc.cap))
		})
	}
}

func TestStaticAuthenticator(t *testing.T) {
	authenticator := NewStatic(map[string]Identity{
		"tok1": {UserID: "alice", Roles: []Role{RoleBidder}},
	})

	t.Run("Known Token", func(t *testing.T) {
		id, err := authenticator.Authenticate(context.Background(), "tok1")
		require.NoError(t, err)
		assert.Equal(t, "alice", id.UserID)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		_, err := authenticator.Authenticate(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}
