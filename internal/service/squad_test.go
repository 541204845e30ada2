package service

import (
	"context"
	"strings"
	"testing"

	"github.com/ibrahim-qi/sesh-app/internal/auth"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSquad(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.Len(t, e.group.InviteCode, 6)
	me, err := e.squads.Me(ctx, e.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, me.Role)

	_, err = e.squads.CreateSquad(ctx, CreateSquadInput{SetupCode: "wrong", SquadName: "X", AdminName: "Y"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.squads.CreateSquad(ctx, CreateSquadInput{SetupCode: testSetupCode, SquadName: "  ", AdminName: "Y"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "squad_name", ve.Field)
}

func TestJoinByInvite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.squads.GetSquadByInvite(ctx, strings.ToLower(e.group.InviteCode))
	require.NoError(t, err)
	assert.Equal(t, "Tuesday Hoops", g.Name)

	res, err := e.squads.Join(ctx, e.group.InviteCode, " cat ")
	require.NoError(t, err)
	assert.Equal(t, e.id("Cat"), res.Member.ID)
	assert.NotEmpty(t, res.Token)

	_, err = e.squads.Join(ctx, e.group.InviteCode, "Zed")
	assert.True(t, domain.IsNotFound(err))

	_, err = e.squads.Join(ctx, "NOPE99", "Cat")
	assert.True(t, domain.IsNotFound(err))
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.squads.Login(ctx, "BOB")
	require.NoError(t, err)
	assert.Equal(t, e.id("Bob"), res.Member.ID)
	assert.Equal(t, e.group.ID, res.Group.ID)

	_, err = e.squads.Login(ctx, "Nobody")
	assert.True(t, domain.IsNotFound(err))

	_, err = e.squads.CreateSquad(ctx, CreateSquadInput{SetupCode: testSetupCode, SquadName: "Sunday Run", AdminName: "bob"})
	require.NoError(t, err)
	_, err = e.squads.Login(ctx, "Bob")
	assert.ErrorIs(t, err, domain.ErrAmbiguousName)
}

func TestRenameSquad(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.squads.RenameSquad(ctx, e.members["Bob"], "Bob's Squad")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	g, err := e.squads.RenameSquad(ctx, e.admin, "Thursday Hoops")
	require.NoError(t, err)
	assert.Equal(t, "Thursday Hoops", g.Name)
}

func TestRoster(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.roster.AddMember(ctx, e.members["Bob"], "Gus")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.roster.AddMember(ctx, e.admin, "bob")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve, "names are unique per squad")

	err = e.roster.RemoveMember(ctx, e.admin, e.admin.MemberID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.roster.ChangeRole(ctx, e.admin, e.id("Bob"), domain.RoleAdmin)
	assert.ErrorAs(t, err, &ve)

	m, err := e.roster.ChangeRole(ctx, e.admin, e.id("Bob"), domain.RoleHost)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, m.Role)

	require.NoError(t, e.roster.RemoveMember(ctx, e.admin, e.id("Fay")))
	_, err = e.roster.ListMembers(ctx, e.members["Fay"])
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "removed members lose access")

	roster, err := e.roster.ListMembers(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, roster, 5)
}

func TestRosterIsolatedBetweenSquads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	other, err := e.squads.CreateSquad(ctx, CreateSquadInput{SetupCode: testSetupCode, SquadName: "Sunday Run", AdminName: "Zed"})
	require.NoError(t, err)
	outsider := auth.Principal{MemberID: other.Member.ID, GroupID: other.Group.ID}

	err = e.roster.RemoveMember(ctx, outsider, e.id("Bob"))
	assert.True(t, domain.IsNotFound(err))

	forged := auth.Principal{MemberID: other.Member.ID, GroupID: e.group.ID}
	_, err = e.roster.ListMembers(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.roster.UpdateProfile(ctx, e.members["Cat"], "Catherine", " https://img.example/cat.png ")
	require.NoError(t, err)
	assert.Equal(t, "Catherine", m.Name)
	assert.Equal(t, "https://img.example/cat.png", m.AvatarURL)

	_, err = e.roster.UpdateProfile(ctx, e.members["Cat"], "dan", "")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}
