package artifacts

import (
	"context"
	"fmt"
	"log/slog"
)

// Mirror writes to the local store first and then copies every change to
// the configured replicas. A replica failure is logged and does not fail
// the write; the local data directory stays authoritative.
type Mirror struct {
	local    *FileStore
	replicas []Store
	logger   *slog.Logger
}

func NewMirror(local *FileStore, replicas ...Store) *Mirror {
	return &Mirror{
		local:    local,
		replicas: replicas,
		logger:   slog.Default().With("component", "artifacts"),
	}
}

// Local is the authoritative on-disk store.
func (m *Mirror) Local() *FileStore {
	return m.local
}

func (m *Mirror) Put(ctx context.Context, key string, data []byte) error {
	if err := m.local.Put(ctx, key, data); err != nil {
		return err
	}
	for _, r := range m.replicas {
		if err := r.Put(ctx, key, data); err != nil {
			m.logger.WarnContext(ctx, "replica put failed", "key", key, "replica", fmt.Sprintf("%T", r), "error", err)
		}
	}
	return nil
}

func (m *Mirror) Get(ctx context.Context, key string) ([]byte, error) {
	return m.local.Get(ctx, key)
}

func (m *Mirror) Exists(ctx context.Context, key string) (bool, error) {
	return m.local.Exists(ctx, key)
}

func (m *Mirror) Delete(ctx context.Context, key string) error {
	if err := m.local.Delete(ctx, key); err != nil {
		return err
	}
	for _, r := range m.replicas {
		if err := r.Delete(ctx, key); err != nil {
			m.logger.WarnContext(ctx, "replica delete failed", "key", key, "replica", fmt.Sprintf("%T", r), "error", err)
		}
	}
	return nil
}
