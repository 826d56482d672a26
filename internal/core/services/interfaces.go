package services

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"time"

	"campus-aid-buddy/internal/core/domain"
)

// BlobStore uploads lecture videos and syllabus files.
// Implementations live in internal/adapters/storage.
type BlobStore interface {
	// Upload stores r at path and returns its public URL.
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	// GeneratePath returns "<folder>/<unix-ms>_<filename>".
	GeneratePath(folder, filename string) string
}

// TicketSearchQuery is a full-text ticket search
type TicketSearchQuery struct {
	Text     string
	Status   domain.TicketStatus
	Category domain.TicketCategory
	Limit    int
}

// TicketSearcher looks up ticket ids in the search index
type TicketSearcher interface {
	SearchTickets(ctx context.Context, q TicketSearchQuery) ([]string, error)
}

// ErrSearchUnavailable is returned when no search index is configured
var ErrSearchUnavailable = errors.New("ticket search is not enabled")

// Clock is the time source services read. Tests inject a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// Random is the source of ticket number suffixes
type Random interface {
	Intn(n int) int
}

// lockedRandom guards a rand.Rand, which is not safe for concurrent use
type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newRandom() Random {
	return &lockedRandom{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRandom) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func actorRequired(a *domain.Actor) error {
	if a == nil || a.ID == "" {
		return domain.ErrAuthenticationRequired
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
