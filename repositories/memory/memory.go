// Package memory provides in-process implementations of the repository
// interfaces. They back STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
)

// Store holds the shared state of all in-memory repositories so that
// tournament saves can attach participants the way the SQL schema does.
type Store struct {
	mu           sync.RWMutex
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	users        map[int]models.User
	nextID       int
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		tournaments:  make(map[int]models.Tournament),
		participants: make(map[int]models.Participant),
		users:        make(map[int]models.User),
		now:          time.Now,
	}
}

// SetClock overrides the time source, used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) Tournaments() repositories.TournamentRepository {
	return &tournamentRepository{s: s}
}

func (s *Store) Participants() repositories.ParticipantRepository {
	return &participantRepository{s: s}
}

func (s *Store) Users() repositories.UserRepository {
	return &userRepository{s: s}
}

type tournamentRepository struct {
	s *Store
}

func (r *tournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkReferences(t.ParticipantIDs); err != nil {
		return err
	}
	t.ID = r.s.id()
	t.CreatedAt = r.s.now()
	t.ChangedAt = t.CreatedAt
	r.s.tournaments[t.ID] = copyTournament(*t)
	r.claim(t.ID, t.ParticipantIDs)
	return nil
}

func (r *tournamentRepository) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	out := r.withLiveReferences(t)
	return &out, nil
}

func (r *tournamentRepository) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]models.Tournament, 0, len(r.s.tournaments))
	for _, t := range r.s.tournaments {
		if filter.Active != nil && t.Active != *filter.Active {
			continue
		}
		list = append(list, r.withLiveReferences(t))
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ChangedAt.Equal(list[j].ChangedAt) {
			return list[i].ChangedAt.After(list[j].ChangedAt)
		}
		return list[i].ID > list[j].ID
	})
	return paginate(list, filter.Limit, filter.Offset), nil
}

func (r *tournamentRepository) Update(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tournaments[t.ID]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if err := r.checkReferences(t.ParticipantIDs); err != nil {
		return err
	}
	t.CreatedAt = existing.CreatedAt
	t.SnapshotKey = existing.SnapshotKey
	t.ChangedAt = r.s.now()
	r.s.tournaments[t.ID] = copyTournament(*t)
	r.claim(t.ID, t.ParticipantIDs)
	return nil
}

func (r *tournamentRepository) UpdateSnapshotKey(_ context.Context, id int, key *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.SnapshotKey = key
	r.s.tournaments[id] = t
	return nil
}

func (r *tournamentRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.s.tournaments, id)
	for pid, p := range r.s.participants {
		if p.TournamentID != nil && *p.TournamentID == id {
			p.TournamentID = nil
			r.s.participants[pid] = p
		}
	}
	return nil
}

func (r *tournamentRepository) ListIDsByParticipant(_ context.Context, participantID int) ([]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := []int{}
	if _, ok := r.s.participants[participantID]; !ok {
		return ids, nil
	}
	for id, t := range r.s.tournaments {
		for _, ref := range t.ParticipantIDs {
			if ref == participantID {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *tournamentRepository) checkReferences(ids []int) error {
	for _, id := range ids {
		if _, ok := r.s.participants[id]; !ok {
			return repositories.ErrTournamentInvalidParticipant
		}
	}
	return nil
}

func (r *tournamentRepository) claim(tournamentID int, ids []int) {
	for _, id := range ids {
		p := r.s.participants[id]
		if p.TournamentID == nil {
			tid := tournamentID
			p.TournamentID = &tid
			p.ChangedAt = r.s.now()
			r.s.participants[id] = p
		}
	}
}

// withLiveReferences drops references to deleted participants, mirroring the
// ON DELETE CASCADE of the SQL schema.
func (r *tournamentRepository) withLiveReferences(t models.Tournament) models.Tournament {
	out := copyTournament(t)
	live := make([]int, 0, len(out.ParticipantIDs))
	for _, id := range out.ParticipantIDs {
		if _, ok := r.s.participants[id]; ok {
			live = append(live, id)
		}
	}
	out.ParticipantIDs = live
	return out
}

func copyTournament(t models.Tournament) models.Tournament {
	ids := make([]int, len(t.ParticipantIDs))
	copy(ids, t.ParticipantIDs)
	t.ParticipantIDs = ids
	t.Participants = nil
	return t
}

type participantRepository struct {
	s *Store
}

func (r *participantRepository) Create(_ context.Context, p *models.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.TournamentID != nil {
		if _, ok := r.s.tournaments[*p.TournamentID]; !ok {
			return repositories.ErrParticipantTournamentInvalid
		}
	}
	p.ID = r.s.id()
	p.CreatedAt = r.s.now()
	p.ChangedAt = p.CreatedAt
	r.s.participants[p.ID] = *p
	return nil
}

func (r *participantRepository) GetByID(_ context.Context, id int) (*models.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	return &p, nil
}

func (r *participantRepository) GetByIDs(_ context.Context, ids []int) ([]models.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[int]bool, len(ids))
	out := make([]models.Participant, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.s.participants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *participantRepository) List(_ context.Context, filter repositories.ListParticipantsFilter) ([]models.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]models.Participant, 0, len(r.s.participants))
	for _, p := range r.s.participants {
		if filter.TournamentID != nil && (p.TournamentID == nil || *p.TournamentID != *filter.TournamentID) {
			continue
		}
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight < list[j].Weight
		}
		return list[i].ID < list[j].ID
	})
	return paginate(list, filter.Limit, filter.Offset), nil
}

func (r *participantRepository) Update(_ context.Context, p *models.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.participants[p.ID]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	if p.TournamentID != nil {
		if _, ok := r.s.tournaments[*p.TournamentID]; !ok {
			return repositories.ErrParticipantTournamentInvalid
		}
	}
	p.CreatedAt = existing.CreatedAt
	p.ChangedAt = r.s.now()
	r.s.participants[p.ID] = *p
	return nil
}

func (r *participantRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.s.participants, id)
	return nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return []T{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
