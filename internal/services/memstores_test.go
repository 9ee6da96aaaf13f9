package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"auction-market/internal/domain"
	"auction-market/pkg/logger"

	"github.com/google/uuid"
)

func testLogger() logger.Logger {
	return logger.NewNop()
}

// In-memory stores backing the service tests. They copy rows in and out so
// services cannot alias store state through returned pointers.

type memDetailsStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.AuctionDetails
}

func newMemDetailsStore() *memDetailsStore {
	return &memDetailsStore{rows: make(map[uuid.UUID]domain.AuctionDetails)}
}

func (s *memDetailsStore) Add(_ context.Context, details *domain.AuctionDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[details.ID] = *details
	return nil
}

func (s *memDetailsStore) GetByID(_ context.Context, auctionID uuid.UUID) (*domain.AuctionDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[auctionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (s *memDetailsStore) GetAllActive(_ context.Context) ([]*domain.AuctionDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.AuctionDetails
	for _, row := range s.rows {
		if row.IsActive {
			copied := row
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memDetailsStore) Update(_ context.Context, details *domain.AuctionDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[details.ID]; !ok {
		return domain.ErrNotFound
	}
	s.rows[details.ID] = *details
	return nil
}

func (s *memDetailsStore) Query(_ context.Context, q domain.AuctionQuery) ([]*domain.AuctionDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.AuctionDetails
	for _, row := range s.rows {
		if q.IsActive != nil && row.IsActive != *q.IsActive {
			continue
		}
		copied := row
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if q.Sort == domain.SortByEndTime {
			return result[i].EndTime.Before(result[j].EndTime)
		}
		return result[i].CreationTime.After(result[j].CreationTime)
	})
	return result, nil
}

type memStatusStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.AuctionStatus
}

func newMemStatusStore() *memStatusStore {
	return &memStatusStore{rows: make(map[uuid.UUID]domain.AuctionStatus)}
}

func (s *memStatusStore) Add(_ context.Context, status *domain.AuctionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[status.AuctionID] = *status
	return nil
}

func (s *memStatusStore) GetByID(_ context.Context, auctionID uuid.UUID) (*domain.AuctionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[auctionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (s *memStatusStore) Update(_ context.Context, status *domain.AuctionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[status.AuctionID]; !ok {
		return domain.ErrNotFound
	}
	s.rows[status.AuctionID] = *status
	return nil
}

type memBidStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.Bid
}

func newMemBidStore() *memBidStore {
	return &memBidStore{rows: make(map[uuid.UUID]domain.Bid)}
}

func (s *memBidStore) Add(_ context.Context, bid *domain.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[bid.ID] = *bid
	return nil
}

func (s *memBidStore) maxLocked(auctionID uuid.UUID) *domain.Bid {
	var max *domain.Bid
	for _, row := range s.rows {
		if row.AuctionID != auctionID {
			continue
		}
		copied := row
		if max == nil || copied.Value > max.Value ||
			(copied.Value == max.Value && copied.CreationTime.Before(max.CreationTime)) {
			max = &copied
		}
	}
	return max
}

func (s *memBidStore) GetMaxForAuction(_ context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxLocked(auctionID), nil
}

func (s *memBidStore) GetAllForAuction(_ context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Bid
	for _, row := range s.rows {
		if row.AuctionID == auctionID {
			copied := row
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memBidStore) GetAllForUser(_ context.Context, auctionID, bidderID uuid.UUID) ([]*domain.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Bid
	for _, row := range s.rows {
		if row.AuctionID == auctionID && row.BidderID == bidderID {
			copied := row
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *memBidStore) DeleteAllExceptMax(_ context.Context, auctionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := s.maxLocked(auctionID)
	for id, row := range s.rows {
		if row.AuctionID == auctionID && (max == nil || id != max.ID) {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *memBidStore) DeleteForUserExceptMax(_ context.Context, auctionID, bidderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max *domain.Bid
	for _, row := range s.rows {
		if row.AuctionID != auctionID || row.BidderID != bidderID {
			continue
		}
		copied := row
		if max == nil || copied.Value > max.Value {
			max = &copied
		}
	}
	for id, row := range s.rows {
		if row.AuctionID == auctionID && row.BidderID == bidderID && (max == nil || id != max.ID) {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *memBidStore) DeleteAllForUser(_ context.Context, auctionID, bidderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.AuctionID == auctionID && row.BidderID == bidderID {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *memBidStore) DeleteAll(_ context.Context, auctionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.AuctionID == auctionID {
			delete(s.rows, id)
		}
	}
	return nil
}

// recordingNotifier collects change events instead of publishing them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []uuid.UUID
}

func (n *recordingNotifier) AuctionChanged(_ context.Context, auctionID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, auctionID)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

// staticLeader makes this instance the sweep leader unconditionally.
type staticLeader struct {
	leader bool
}

func (l *staticLeader) BecomeLeader(context.Context, string) (bool, error) {
	return l.leader, nil
}

func (l *staticLeader) IsLeader(context.Context, string) (bool, error) {
	return l.leader, nil
}

func (l *staticLeader) ReleaseLeadership(context.Context, string) error {
	return nil
}

// env wires the services against the in-memory stores.
type env struct {
	details     *memDetailsStore
	statuses    *memStatusStore
	bids        *memBidStore
	notifier    *recordingNotifier
	locker      *KeyedAuctionLocker
	creation    *AuctionCreationService
	admission   *BidAdmissionService
	lifecycle   *AuctionLifecycleService
	categorizer *UserCategorizationService
	sweeper     *SweepScheduler
}

func newEnv() *env {
	return newEnvWithTimeout(time.Second)
}

func newEnvWithTimeout(lockTimeout time.Duration) *env {
	details := newMemDetailsStore()
	statuses := newMemStatusStore()
	bids := newMemBidStore()
	notifier := &recordingNotifier{}
	locker := NewKeyedAuctionLocker(lockTimeout)
	log := testLogger()

	categorizer := NewUserCategorizationService(details, statuses, bids)
	return &env{
		details:     details,
		statuses:    statuses,
		bids:        bids,
		notifier:    notifier,
		locker:      locker,
		creation:    NewAuctionCreationService(details, statuses, locker, notifier, log),
		admission:   NewBidAdmissionService(details, bids, locker, notifier, log),
		lifecycle:   NewAuctionLifecycleService(details, statuses, bids, locker, categorizer, notifier, log),
		categorizer: categorizer,
		sweeper: NewSweepScheduler(details, statuses, bids, locker,
			&staticLeader{leader: true}, notifier, "test-instance", 5*time.Second, log),
	}
}

// newAuction creates an active auction with the given reserve, ending an
// hour from now.
func (e *env) newAuction(creatorID uuid.UUID, reserve int64) *domain.AuctionDetails {
	details, err := e.creation.CreateAuction(context.Background(), creatorID,
		"Brass telescope", "Slightly scratched", reserve, time.Now().Add(time.Hour))
	if err != nil {
		panic(err)
	}
	return details
}

// expire rewinds the auction's end time so the sweep sees it as overdue.
func (e *env) expire(auctionID uuid.UUID) {
	e.details.mu.Lock()
	defer e.details.mu.Unlock()
	row := e.details.rows[auctionID]
	row.EndTime = time.Now().Add(-time.Minute)
	e.details.rows[auctionID] = row
}
