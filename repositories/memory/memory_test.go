package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
)

func newClockedStore() *Store {
	s := NewStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	return s
}

func TestTournamentReferencesAreClaimed(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	participants, tournaments := s.Participants(), s.Tournaments()

	a := &models.Participant{Name: "A"}
	b := &models.Participant{Name: "B"}
	require.NoError(t, participants.Create(ctx, a))
	require.NoError(t, participants.Create(ctx, b))

	first := &models.Tournament{Name: "First", Active: true, ParticipantIDs: []int{b.ID, a.ID}}
	require.NoError(t, tournaments.Create(ctx, first))

	second := &models.Tournament{Name: "Second", Active: true, ParticipantIDs: []int{a.ID}}
	require.NoError(t, tournaments.Create(ctx, second))

	gotA, err := participants.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA.TournamentID)
	assert.Equal(t, first.ID, *gotA.TournamentID, "an owned participant keeps its tournament")

	got, err := tournaments.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID, a.ID}, got.ParticipantIDs)
}

func TestTournamentInvalidReference(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()

	err := s.Tournaments().Create(ctx, &models.Tournament{Name: "X", ParticipantIDs: []int{42}})
	assert.ErrorIs(t, err, repositories.ErrTournamentInvalidParticipant)
}

func TestDeletedParticipantDropsFromReferences(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	participants, tournaments := s.Participants(), s.Tournaments()

	a := &models.Participant{Name: "A"}
	b := &models.Participant{Name: "B"}
	require.NoError(t, participants.Create(ctx, a))
	require.NoError(t, participants.Create(ctx, b))
	tournament := &models.Tournament{Name: "Cup", ParticipantIDs: []int{a.ID, b.ID}}
	require.NoError(t, tournaments.Create(ctx, tournament))

	require.NoError(t, participants.Delete(ctx, a.ID))

	got, err := tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, got.ParticipantIDs)
}

func TestDeletedTournamentReleasesParticipants(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()

	p := &models.Participant{Name: "A"}
	require.NoError(t, s.Participants().Create(ctx, p))
	tournament := &models.Tournament{Name: "Cup", ParticipantIDs: []int{p.ID}}
	require.NoError(t, s.Tournaments().Create(ctx, tournament))

	require.NoError(t, s.Tournaments().Delete(ctx, tournament.ID))
	assert.ErrorIs(t, s.Tournaments().Delete(ctx, tournament.ID), repositories.ErrTournamentNotFound)

	got, err := s.Participants().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TournamentID)
}

func TestTournamentListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	repo := s.Tournaments()

	older := &models.Tournament{Name: "Older", Active: true}
	inactive := &models.Tournament{Name: "Inactive", Active: false}
	newer := &models.Tournament{Name: "Newer", Active: true}
	for _, tt := range []*models.Tournament{older, inactive, newer} {
		require.NoError(t, repo.Create(ctx, tt))
	}

	all, err := repo.List(ctx, repositories.ListTournamentsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Newer", all[0].Name)

	active := true
	list, err := repo.List(ctx, repositories.ListTournamentsFilter{Active: &active, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Older", list[0].Name)
}

func TestUpdateKeepsCreatedAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	repo := s.Tournaments()

	tournament := &models.Tournament{Name: "Cup", Active: true}
	require.NoError(t, repo.Create(ctx, tournament))
	created := tournament.CreatedAt

	key := "brackets/1.json"
	require.NoError(t, repo.UpdateSnapshotKey(ctx, tournament.ID, &key))

	update := &models.Tournament{ID: tournament.ID, Name: "Cup 2", Active: false}
	require.NoError(t, repo.Update(ctx, update))

	got, err := repo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cup 2", got.Name)
	assert.Equal(t, created, got.CreatedAt)
	assert.True(t, got.ChangedAt.After(created))
	require.NotNil(t, got.SnapshotKey)
	assert.Equal(t, key, *got.SnapshotKey)

	assert.ErrorIs(t, repo.Update(ctx, &models.Tournament{ID: 999, Name: "x"}), repositories.ErrTournamentNotFound)
}

func TestParticipantListByTournament(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()

	tournament := &models.Tournament{Name: "Cup"}
	require.NoError(t, s.Tournaments().Create(ctx, tournament))

	tid := tournament.ID
	heavy := &models.Participant{Name: "Heavy", Weight: 5, TournamentID: &tid}
	light := &models.Participant{Name: "Light", Weight: 1, TournamentID: &tid}
	loose := &models.Participant{Name: "Loose"}
	for _, p := range []*models.Participant{heavy, light, loose} {
		require.NoError(t, s.Participants().Create(ctx, p))
	}

	list, err := s.Participants().List(ctx, repositories.ListParticipantsFilter{TournamentID: &tid})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Light", list[0].Name)
	assert.Equal(t, "Heavy", list[1].Name)

	missing := 999
	err = s.Participants().Create(ctx, &models.Participant{Name: "X", TournamentID: &missing})
	assert.ErrorIs(t, err, repositories.ErrParticipantTournamentInvalid)
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	users := s.Users()

	require.NoError(t, users.Create(ctx, &models.User{Email: "a@example.com", Role: models.RoleViewer}))
	err := users.Create(ctx, &models.User{Email: "A@example.com", Role: models.RoleViewer})
	assert.ErrorIs(t, err, repositories.ErrUserEmailConflict)

	got, err := users.GetByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestListTournamentIDsByParticipant(t *testing.T) {
	ctx := context.Background()
	s := newClockedStore()
	participants, tournaments := s.Participants(), s.Tournaments()

	a := &models.Participant{Name: "A"}
	b := &models.Participant{Name: "B"}
	require.NoError(t, participants.Create(ctx, a))
	require.NoError(t, participants.Create(ctx, b))

	first := &models.Tournament{Name: "First", ParticipantIDs: []int{a.ID, a.ID}}
	second := &models.Tournament{Name: "Second", ParticipantIDs: []int{b.ID}}
	third := &models.Tournament{Name: "Third", ParticipantIDs: []int{b.ID, a.ID}}
	require.NoError(t, tournaments.Create(ctx, first))
	require.NoError(t, tournaments.Create(ctx, second))
	require.NoError(t, tournaments.Create(ctx, third))

	ids, err := tournaments.ListIDsByParticipant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{first.ID, third.ID}, ids)

	require.NoError(t, participants.Delete(ctx, a.ID))
	ids, err = tournaments.ListIDsByParticipant(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
