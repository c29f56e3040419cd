package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Dosada05/bracket-manager/models"
	"github.com/Dosada05/bracket-manager/repositories"
	"github.com/Dosada05/bracket-manager/storage"
)

// SnapshotPublisher uploads the viewer settings of a tournament to object
// storage so that static pages can fetch the bracket without the API.
// A nil publisher, or one without an uploader, does nothing.
type SnapshotPublisher struct {
	uploader storage.FileUploader
	repo     repositories.TournamentRepository
	logger   *slog.Logger
}

func NewSnapshotPublisher(uploader storage.FileUploader, repo repositories.TournamentRepository, logger *slog.Logger) *SnapshotPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotPublisher{uploader: uploader, repo: repo, logger: logger}
}

func (p *SnapshotPublisher) enabled() bool {
	return p != nil && p.uploader != nil
}

func (p *SnapshotPublisher) Publish(ctx context.Context, t *models.Tournament) {
	if !p.enabled() {
		return
	}
	body, err := json.Marshal(BuildTournamentViewerSettings(t))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode bracket snapshot", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}

	key := storage.BracketSnapshotKey(t.ID)
	if _, err := p.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish bracket snapshot", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}
	if err := p.repo.UpdateSnapshotKey(ctx, t.ID, &key); err != nil {
		p.logger.ErrorContext(ctx, "failed to store bracket snapshot key", slog.Int("tournament_id", t.ID), slog.Any("error", err))
		return
	}
	t.SnapshotKey = &key
	p.populateURL(t)
}

func (p *SnapshotPublisher) Remove(ctx context.Context, t *models.Tournament) {
	if !p.enabled() || t.SnapshotKey == nil || *t.SnapshotKey == "" {
		return
	}
	if err := p.uploader.Delete(ctx, *t.SnapshotKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete bracket snapshot", slog.Int("tournament_id", t.ID), slog.Any("error", err))
	}
}

func (p *SnapshotPublisher) populateURL(t *models.Tournament) {
	if !p.enabled() || t == nil || t.SnapshotKey == nil || *t.SnapshotKey == "" {
		return
	}
	if url := p.uploader.GetPublicURL(*t.SnapshotKey); url != "" {
		t.SnapshotURL = &url
	}
}
