package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lhu-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/lhu-dashboard-api/pkg/errors"
)

// reachability reports whether the upstream answered its last request.
type reachability interface {
	Online() bool
}

// fetchThrough serves id from store when possible, otherwise from fetch. A successful fetch is
// written back; a failed one falls back to whatever the store holds, however old. Only when
// both fail is ErrUpstream returned. force skips the initial cache read.
func fetchThrough[T any](
	ctx context.Context,
	store *ExpiringStore[T],
	id string,
	force bool,
	net reachability,
	fetch func(context.Context) (T, error),
	logger *zap.Logger,
) (T, dto.CacheMeta, error) {
	var zero T
	online := net == nil || net.Online()

	if !force {
		if entry, ok := store.GetEntry(ctx, id, online); ok {
			return entry.Payload, entryMeta(entry, store), nil
		}
	}

	payload, err := fetch(ctx)
	if err == nil {
		meta := dto.CacheMeta{Source: dto.CacheSourceUpstream}
		// Timestamps describe the cached copy, so they are omitted when the write failed.
		if written, ok := store.Set(ctx, id, payload); ok {
			meta.FetchedAt = &written.FetchedAt
			meta.ExpiresAt = &written.ExpiresAt
		}
		return payload, meta, nil
	}

	logger.Warn("upstream fetch failed, trying cached copy",
		zap.String("store", store.Name()),
		zap.String("subject_id", id),
		zap.Error(err))

	if entry, ok := store.StaleEntry(ctx, id); ok {
		meta := entryMeta(entry, store)
		meta.Source = dto.CacheSourceStale
		return entry.Payload, meta, nil
	}

	return zero, dto.CacheMeta{}, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
		"could not load "+strings.TrimSuffix(store.Name(), "s")+" from upstream and no cached copy exists")
}

func entryMeta[T any](entry Entry[T], store *ExpiringStore[T]) dto.CacheMeta {
	fetchedAt := entry.FetchedAt
	expiresAt := entry.ExpiresAt
	stale := !entry.Fresh(store.now())
	source := dto.CacheSourceCache
	if stale {
		source = dto.CacheSourceStale
	}
	return dto.CacheMeta{
		Source:    source,
		Stale:     stale,
		FetchedAt: &fetchedAt,
		ExpiresAt: &expiresAt,
	}
}
