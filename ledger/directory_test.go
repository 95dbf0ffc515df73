package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUser(t *testing.T) {
	name, email, err := NormalizeUser("  Alice ", " Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	assert.Equal(t, "alice@example.com", email)

	_, _, err = NormalizeUser(" ", "a@example.com")
	requireReason(t, err, ReasonEmptyName)

	_, _, err = NormalizeUser("Alice", "")
	requireReason(t, err, ReasonEmptyEmail)
}

func TestNormalizeGroup(t *testing.T) {
	ids := fixedIDs(3)

	name, members, err := NormalizeGroup(" Trip ", []uuid.UUID{ids[2], ids[0], ids[2], ids[1], ids[0]})
	require.NoError(t, err)
	assert.Equal(t, "Trip", name)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, members)

	_, _, err = NormalizeGroup("", ids)
	requireReason(t, err, ReasonEmptyName)

	_, _, err = NormalizeGroup("Trip", nil)
	requireReason(t, err, ReasonEmptyMembers)
}

func TestMemoryDirectoryUsers(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	u, err := d.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	got, err := d.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = d.CreateUser(ctx, "Other Alice", "ALICE@example.com")
	requireReason(t, err, ReasonEmailTaken)

	_, err = d.User(ctx, uuid.New())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Kind)

	require.NoError(t, d.SetPushToken(ctx, u.ID, " token-1 "))
	got, _ = d.User(ctx, u.ID)
	assert.Equal(t, "token-1", got.PushToken)
	assert.True(t, IsNotFound(d.SetPushToken(ctx, uuid.New(), "x")))

	users, err := d.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryDirectoryGroups(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()
	a, _ := d.CreateUser(ctx, "Alice", "alice@example.com")
	b, _ := d.CreateUser(ctx, "Bob", "bob@example.com")

	g, err := d.CreateGroup(ctx, "Flat", []uuid.UUID{a.ID, b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, g.MemberIDs)
	assert.True(t, g.HasMember(b.ID))
	assert.False(t, g.HasMember(uuid.New()))

	// Callers cannot mutate stored membership through returned values.
	g.MemberIDs[0] = uuid.Nil
	stored, err := d.Group(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, stored.MemberIDs)

	_, err = d.CreateGroup(ctx, "Ghosts", []uuid.UUID{a.ID, uuid.New()})
	assert.True(t, IsNotFound(err))

	_, err = d.Group(ctx, uuid.New())
	assert.True(t, IsNotFound(err))

	groups, err := d.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Flat", groups[0].Name)
}
