package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/ports"
)

// Compile-time check that StorageService implements ports.StorageService.
var _ ports.StorageService = (*StorageService)(nil)

// probeKeyPrefix namespaces diagnostic objects so cleanup policies can target
// them without touching real data.
const probeKeyPrefix = "diagnostics/probe/"

// StorageService implements ports.StorageService over the file store port.
// It exercises the write and read paths end to end, which is the only way to
// verify bucket permissions from inside the service.
type StorageService struct {
	store  ports.FileStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStorageService creates a StorageService over the given file store.
func NewStorageService(store ports.FileStore, logger *slog.Logger) *StorageService {
	return &StorageService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// probePayload is the stored shape of a diagnostic object.
type probePayload struct {
	ProbeID    string    `json:"probe_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadProbe writes a small timestamped object to the file store, verifies
// it is readable back, and reports where it landed. The object is left in
// place for offline inspection.
func (s *StorageService) UploadProbe(ctx context.Context) (*ports.ProbeResult, error) {
	probeID := uuid.NewString()
	uploadedAt := s.now().UTC()
	key := probeKeyPrefix + probeID + ".json"

	s.logger.InfoContext(ctx, "running storage probe", slog.String("key", key))

	payload, err := json.Marshal(probePayload{ProbeID: probeID, UploadedAt: uploadedAt})
	if err != nil {
		return nil, fmt.Errorf("marshaling probe payload: %w", err)
	}

	location, err := s.store.Put(ctx, key, payload, "application/json")
	if err != nil {
		s.logger.ErrorContext(ctx, "storage probe upload failed",
			slog.String("operation", "UploadProbe"),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil, err
	}

	verified, err := s.store.Exists(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "storage probe verification failed",
			slog.String("operation", "UploadProbe"),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil, err
	}

	return &ports.ProbeResult{
		Key:        key,
		Location:   location,
		Verified:   verified,
		UploadedAt: uploadedAt,
	}, nil
}
