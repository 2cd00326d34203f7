package gallery

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/workforce/internal/audit"
	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
)

// Store lists the identities that should be recognizable
type Store interface {
	ListActiveIdentities(ctx context.Context) ([]domain.Identity, error)
}

// snapshot is immutable once published
type snapshot struct {
	entries  []domain.Identity
	byID     map[string]int
	loadedAt time.Time
}

var emptySnapshot = &snapshot{byID: map[string]int{}}

// Gallery holds the current embedding of every active identity.
// Readers always see a complete snapshot; Reload swaps it atomically.
type Gallery struct {
	store       Store
	logger      *slog.Logger
	auditLogger audit.Logger

	current  atomic.Pointer[snapshot]
	reloadMu sync.Mutex
	now      func() time.Time
}

// Option defines optional configuration for Gallery
type Option func(*Gallery)

// WithAuditLogger records a GALLERY_RELOADED event for every reload attempt
func WithAuditLogger(l audit.Logger) Option {
	return func(g *Gallery) {
		g.auditLogger = l
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Gallery {
	g := &Gallery{
		store:       store,
		logger:      logger.With("component", "gallery"),
		auditLogger: &audit.NoOpLogger{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.current.Store(emptySnapshot)
	return g
}

// Reload fetches all active identities and replaces the gallery.
// On failure the previous gallery stays in place.
func (g *Gallery) Reload(ctx context.Context) error {
	g.reloadMu.Lock()
	defer g.reloadMu.Unlock()

	identities, err := g.store.ListActiveIdentities(ctx)
	if err != nil {
		g.logger.Error("gallery reload failed, keeping previous gallery",
			slog.Any("error", err),
			slog.Int("size", g.Size()),
		)
		g.logAudit(ctx, g.Size(), 0, err)
		return domain.ErrGalleryReload.WithError(err)
	}

	snap := g.build(identities)
	g.current.Store(snap)

	skipped := len(identities) - len(snap.entries)
	g.logger.Info("gallery reloaded",
		slog.Int("size", len(snap.entries)),
		slog.Int("skipped", skipped),
	)
	g.logAudit(ctx, len(snap.entries), skipped, nil)
	return nil
}

// logAudit reports the gallery size in effect after the attempt
func (g *Gallery) logAudit(ctx context.Context, size, skipped int, err error) {
	event := audit.Event{
		EventType: audit.EventGalleryReloaded,
		Source:    "gallery",
		Success:   err == nil,
		Metadata: map[string]string{
			"size":    strconv.Itoa(size),
			"skipped": strconv.Itoa(skipped),
		},
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = g.auditLogger.Log(ctx, event)
}

func (g *Gallery) build(identities []domain.Identity) *snapshot {
	snap := &snapshot{
		entries:  make([]domain.Identity, 0, len(identities)),
		byID:     make(map[string]int, len(identities)),
		loadedAt: g.now(),
	}

	dim := 0
	for _, id := range identities {
		switch {
		case id.ID == "":
			g.logger.Warn("skipping identity without id", slog.String("display_name", id.DisplayName))
			continue
		case len(id.Embedding) == 0:
			g.logger.Warn("skipping identity without embedding", slog.String("identity_id", id.ID))
			continue
		case dim != 0 && len(id.Embedding) != dim:
			g.logger.Warn("skipping identity with mismatched embedding size",
				slog.String("identity_id", id.ID),
				slog.Int("size", len(id.Embedding)),
				slog.Int("expected", dim),
			)
			continue
		}
		if _, dup := snap.byID[id.ID]; dup {
			g.logger.Warn("duplicate identity, keeping first", slog.String("identity_id", id.ID))
			continue
		}
		if dim == 0 {
			dim = len(id.Embedding)
		}

		emb := make([]float64, len(id.Embedding))
		copy(emb, id.Embedding)

		snap.byID[id.ID] = len(snap.entries)
		snap.entries = append(snap.entries, domain.Identity{
			ID:          id.ID,
			DisplayName: id.DisplayName,
			Embedding:   emb,
		})
	}

	return snap
}

// Lookup returns a copy of the identity so callers cannot mutate the gallery
func (g *Gallery) Lookup(identityID string) (domain.Identity, bool) {
	snap := g.current.Load()
	idx, ok := snap.byID[identityID]
	if !ok {
		return domain.Identity{}, false
	}

	e := snap.entries[idx]
	emb := make([]float64, len(e.Embedding))
	copy(emb, e.Embedding)
	return domain.Identity{ID: e.ID, DisplayName: e.DisplayName, Embedding: emb}, true
}

func (g *Gallery) Size() int {
	return len(g.current.Load().entries)
}

// IdentityIDs lists the ids in gallery order
func (g *Gallery) IdentityIDs() []string {
	snap := g.current.Load()
	ids := make([]string, len(snap.entries))
	for i, e := range snap.entries {
		ids[i] = e.ID
	}
	return ids
}

// LoadedAt is zero until the first successful reload
func (g *Gallery) LoadedAt() time.Time {
	return g.current.Load().loadedAt
}
