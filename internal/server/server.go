// Package server exposes the HTTP surface: multipart uploads, file URL
// resolution and gallery reads.
package server

import (
	"context"
	"time"

	"github.com/img2tg/img2tg/internal/config"
	"github.com/img2tg/img2tg/internal/metrics"
	"github.com/img2tg/img2tg/internal/platform"
	"github.com/img2tg/img2tg/internal/retry"
	"github.com/img2tg/img2tg/internal/session"
	"github.com/img2tg/img2tg/internal/storage"
)

// Store is the document-database capability consumed by handlers.
type Store interface {
	Gallery(collection string) GalleryStore
	Close(ctx context.Context) error
}

// GalleryStore is the per-collection slice of Store the handlers use.
type GalleryStore interface {
	AppendItems(ctx context.Context, userID, chatID string, items []storage.GalleryItem, at time.Time) error
	UserGalleries(ctx context.Context, userID, chatID string) (map[string][]storage.GalleryItem, error)
	Placeholder(ctx context.Context, userID, chatID, fileID string) (string, error)
}

// PlatformFactory builds a messaging-platform client for one credential.
type PlatformFactory func(token string) (platform.API, error)

// Connector dials the document database at a request-supplied URI.
type Connector func(ctx context.Context, uri string, maxPoolSize, minPoolSize uint64) (Store, error)

// Handler carries the injected collaborators for every route.
type Handler struct {
	cfg         *config.Config
	sessions    *session.Cache
	metrics     *metrics.Collector
	platformFor PlatformFactory
	connect     Connector

	// Swapped out in tests to avoid real clocks and waits
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHandler wires the production collaborators.
func NewHandler(cfg *config.Config, sessions *session.Cache, collector *metrics.Collector) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		metrics:  collector,
		platformFor: func(token string) (platform.API, error) {
			return platform.NewClient(token)
		},
		connect: func(ctx context.Context, uri string, maxPoolSize, minPoolSize uint64) (Store, error) {
			client, err := storage.Connect(ctx, uri, maxPoolSize, minPoolSize)
			if err != nil {
				return nil, err
			}
			return mongoStore{client}, nil
		},
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// mongoStore adapts storage.Client to the Store interface.
type mongoStore struct {
	*storage.Client
}

func (s mongoStore) Gallery(collection string) GalleryStore {
	return s.Client.Gallery(collection)
}

// store returns the session-cached connection for the credential/URI pair,
// dialing and caching a new one on miss.
func (h *Handler) store(ctx context.Context, credential, uri string) (Store, error) {
	key := session.Key(credential, uri)
	if conn, ok := h.sessions.Get(key); ok {
		h.sessions.Touch(key)
		return conn.(Store), nil
	}

	st, err := h.connect(ctx, uri, h.cfg.MaxPoolSize, h.cfg.MinPoolSize)
	if err != nil {
		return nil, err
	}
	h.sessions.Set(key, st)
	return st, nil
}

func (h *Handler) retryOpts() retry.Options {
	return retry.Options{
		MaxAttempts: h.cfg.MaxRetries,
		BaseDelay:   h.cfg.RetryDelay,
		OnRetry: func(attempt int, err error) {
			h.metrics.IncRetryWait()
		},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
