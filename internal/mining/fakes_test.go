package mining

import (
	"sync"

	"hashfarm/internal/hashfarm"
)

// memStore is an in-memory Ledger + RigStore + ReferralStore used by the
// engine and lifecycle tests. All methods are safe for concurrent use, the
// concurrency tests hammer it from many goroutines.
type memStore struct {
	mu      sync.Mutex
	users   map[uint]*hashfarm.User
	rigs    map[uint]*hashfarm.Rig
	payouts []hashfarm.Referral
	nextRig uint

	// failure injection
	activeRigsErr error
	creditErr     map[uint]error // per-user IncrementBalance failure
	// when set, ActiveRigs serves this instead of the live map, so tests can
	// hand the engine a snapshot that no longer matches reality
	staleSnapshot []hashfarm.Rig
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uint]*hashfarm.User),
		rigs:      make(map[uint]*hashfarm.Rig),
		creditErr: make(map[uint]error),
	}
}

func (s *memStore) addUser(user hashfarm.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[u.Id] = &u
}

func (s *memStore) addRig(rig hashfarm.Rig) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRig++
	r := rig
	r.Id = s.nextRig
	s.rigs[r.Id] = &r
	return r.Id
}

func (s *memStore) balance(id uint) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

func (s *memStore) rigStatus(id uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rigs[id].Status
}

func (s *memStore) payoutRows() []hashfarm.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]hashfarm.Referral, len(s.payouts))
	copy(rows, s.payouts)
	return rows
}

func (s *memStore) rigCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rigs)
}

func (s *memStore) FindUser(id uint) (*hashfarm.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *memStore) IncrementBalance(id uint, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.creditErr[id]; err != nil {
		return err
	}
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Balance += delta
	return nil
}

func (s *memStore) DebitIfAvailable(id uint, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(id, amount)
}

func (s *memStore) debitLocked(id uint, amount float64) error {
	user, ok := s.users[id]
	if !ok || user.Balance < amount {
		return ErrInsufficientFunds
	}
	user.Balance -= amount
	return nil
}

func (s *memStore) FindRig(id uint) (*hashfarm.Rig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rig, ok := s.rigs[id]
	if !ok {
		return nil, ErrNotFound
	}
	r := *rig
	return &r, nil
}

func (s *memStore) ActiveRigs() ([]hashfarm.Rig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeRigsErr != nil {
		return nil, s.activeRigsErr
	}
	if s.staleSnapshot != nil {
		return s.staleSnapshot, nil
	}
	var rigs []hashfarm.Rig
	for _, rig := range s.rigs {
		if rig.Status == hashfarm.RigActive {
			rigs = append(rigs, *rig)
		}
	}
	return rigs, nil
}

func (s *memStore) SaveRig(rig *hashfarm.Rig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *rig
	s.rigs[r.Id] = &r
	return nil
}

func (s *memStore) CreateRig(rig *hashfarm.Rig, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.debitLocked(rig.UserId, price); err != nil {
		return err
	}
	s.nextRig++
	rig.Id = s.nextRig
	r := *rig
	s.rigs[r.Id] = &r
	return nil
}

func (s *memStore) AppendPayout(payout *hashfarm.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts = append(s.payouts, *payout)
	return nil
}

type recordedEarning struct {
	userId uint
	earned float64
}

type memNotifier struct {
	mu     sync.Mutex
	events []recordedEarning
}

func (n *memNotifier) NotifyEarned(userId uint, earned float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEarning{userId: userId, earned: earned})
}

func (n *memNotifier) recorded() []recordedEarning {
	n.mu.Lock()
	defer n.mu.Unlock()
	events := make([]recordedEarning, len(n.events))
	copy(events, n.events)
	return events
}
