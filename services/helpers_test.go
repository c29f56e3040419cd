package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories/memory"
	"github.com/Dosada05/bracket-manager/storage"
)

var (
	adminAccount  = models.NewAccount(1, models.RoleAdmin)
	editorAccount = models.NewAccount(2, models.RoleEditor)
	viewerAccount = models.NewAccount(3, models.RoleViewer)
	anonymous     = models.AnonymousAccount()
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedBroadcast struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []recordedBroadcast
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, recordedBroadcast{room: roomID, message: message})
}

func (b *fakeBroadcaster) last() recordedBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[len(b.messages)-1]
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failErr error
}

var _ storage.FileUploader = (*fakeUploader)(nil)

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if u.failErr != nil {
		return nil, u.failErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = bytes.Clone(body)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type testEnv struct {
	store        *memory.Store
	tournaments  TournamentService
	participants ParticipantService
	viewer       ViewerService
	broadcaster  *fakeBroadcaster
	uploader     *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	logger := discardLogger()
	uploader := newFakeUploader()
	broadcaster := &fakeBroadcaster{}
	snapshots := NewSnapshotPublisher(uploader, store.Tournaments(), logger)
	tournaments := NewTournamentService(store.Tournaments(), store.Participants(), snapshots, broadcaster, logger)
	participants := NewParticipantService(store.Participants(), tournaments, logger)

	return &testEnv{
		store:        store,
		tournaments:  tournaments,
		participants: participants,
		viewer:       NewViewerService(tournaments, participants, nil, logger),
		broadcaster:  broadcaster,
		uploader:     uploader,
	}
}

func (e *testEnv) participant(t *testing.T, name string, weight int) *models.Participant {
	t.Helper()
	p, err := e.participants.CreateParticipant(context.Background(), adminAccount, ParticipantInput{Name: name, Weight: weight})
	require.NoError(t, err)
	return p
}

func boolPtr(v bool) *bool    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
