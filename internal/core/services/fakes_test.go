package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
)

// fixedClock returns a clock frozen at t, advanced with advance.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// seqRandom replays a fixed sequence of values, then repeats the last one.
type seqRandom struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func (r *seqRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vals[len(r.vals)-1]
	if r.i < len(r.vals) {
		v = r.vals[r.i]
		r.i++
	}
	return v % n
}

// memTicketRepo is an in-memory TicketRepository. A single mutex stands in
// for the row lock.
type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
	// raceNumbers are reported free by NumberExists but rejected by Create
	raceNumbers map[string]bool
	creates     int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*models.Ticket{}, raceNumbers: map[string]bool{}}
}

func cloneTicket(t *models.Ticket) *models.Ticket {
	c := *t
	c.Activities = append([]models.TicketActivity(nil), t.Activities...)
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

func (r *memTicketRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.raceNumbers[ticket.TicketNumber] {
		return domain.ErrDuplicateEntry
	}
	for _, t := range r.tickets {
		if t.TicketNumber == ticket.TicketNumber {
			return domain.ErrDuplicateEntry
		}
	}
	for i := range ticket.Activities {
		ticket.Activities[i].TicketID = ticket.ID
		ticket.Activities[i].Sequence = i + 1
	}
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *memTicketRepo) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return cloneTicket(t), nil
}

func (r *memTicketRepo) sorted(match func(*models.Ticket) bool) []*models.Ticket {
	var out []*models.Ticket
	for _, t := range r.tickets {
		if match(t) {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TicketNumber > out[j].TicketNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memTicketRepo) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t *models.Ticket) bool { return t.SubmitterID == submitterID }), nil
}

func (r *memTicketRepo) List(ctx context.Context, f repositories.TicketFilter, offset, limit int) ([]*models.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(t *models.Ticket) bool {
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.Category != "" && t.Category != f.Category {
			return false
		}
		if len(f.Categories) > 0 {
			found := false
			for _, c := range f.Categories {
				found = found || c == t.Category
			}
			if !found {
				return false
			}
		}
		if f.Department != "" && t.Department != f.Department {
			return false
		}
		if f.RoutedDepartment != "" && t.RoutedDepartment != f.RoutedDepartment {
			return false
		}
		return f.SubmitterID == "" || t.SubmitterID == f.SubmitterID
	})
	total := int64(len(all))
	if limit > 0 {
		if offset > len(all) {
			offset = len(all)
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		all = all[offset:end]
	}
	return all, total, nil
}

func (r *memTicketRepo) ListOpenCreatedBefore(ctx context.Context, before time.Time) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(t *models.Ticket) bool {
		open := t.Status == domain.StatusPending || t.Status == domain.StatusInProgress
		return open && t.CreatedAt.Before(before)
	}), nil
}

func (r *memTicketRepo) Mutate(ctx context.Context, id string, fn repositories.TicketMutation) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}

	change, err := fn(cloneTicket(stored))
	if err != nil {
		return nil, err
	}
	if change == nil || change.Activity == nil {
		return nil, fmt.Errorf("no activity for %s", id)
	}

	a := *change.Activity
	a.TicketID = id
	a.Sequence = len(stored.Activities) + 1
	stored.Activities = append(stored.Activities, a)

	for k, v := range change.Updates {
		switch k {
		case "status":
			stored.Status = v.(domain.TicketStatus)
		case "updated_at":
			stored.UpdatedAt = v.(time.Time)
		case "resolved_at":
			at := v.(time.Time)
			stored.ResolvedAt = &at
		case "assignee_id":
			s := v.(string)
			stored.AssigneeID = &s
		case "assigned_role":
			stored.AssignedRole = v.(domain.Role)
		default:
			return nil, fmt.Errorf("unexpected update column %s", k)
		}
	}
	return cloneTicket(stored), nil
}

// fakeSearcher returns canned ids
type fakeSearcher struct {
	ids []string
	got TicketSearchQuery
}

func (f *fakeSearcher) SearchTickets(ctx context.Context, q TicketSearchQuery) ([]string, error) {
	f.got = q
	return f.ids, nil
}

// memBlobStore keeps uploads in memory
type memBlobStore struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	failUp  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string]string{}}
}

func (b *memBlobStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	if b.failUp != nil {
		return "", b.failUp
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = string(data)
	return "https://files.test/" + path, nil
}

func (b *memBlobStore) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *memBlobStore) GeneratePath(folder, filename string) string {
	return folder + "/1700000000000_" + strings.ReplaceAll(filename, " ", "_")
}

func actor(id string, role domain.Role) *domain.Actor {
	return &domain.Actor{ID: id, Email: id + "@campus.edu", Name: strings.ToUpper(id), Role: role}
}
