package mining

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"hashfarm/internal/hashfarm"
	"hashfarm/internal/worker"
)

// Ledger is the account balance store. Balance mutations go through atomic
// increments, never read-modify-write.
type Ledger interface {
	FindUser(id uint) (*hashfarm.User, error)
	IncrementBalance(id uint, delta float64) error
	// DebitIfAvailable subtracts amount only when the current balance covers
	// it, in a single statement. Returns ErrInsufficientFunds otherwise.
	DebitIfAvailable(id uint, amount float64) error
}

type RigStore interface {
	FindRig(id uint) (*hashfarm.Rig, error)
	ActiveRigs() ([]hashfarm.Rig, error)
	SaveRig(rig *hashfarm.Rig) error
	// CreateRig debits the owner by price and inserts the rig atomically.
	CreateRig(rig *hashfarm.Rig, price float64) error
}

type ReferralStore interface {
	AppendPayout(payout *hashfarm.Referral) error
}

// Notifier is told after an owner got credited in a tick, so the websocket
// layer can push fresh balances. Implementations must not block the tick.
type Notifier interface {
	NotifyEarned(userId uint, earned float64)
}

type EngineConfig struct {
	TickInterval time.Duration
	RefLvlOne    float64
	RefLvlTwo    float64
}

// Engine runs the accrual loop: one synchronous tick per interval over every
// active rig. At most one loop runs per process; EnsureStarted is the only
// way to start it and is idempotent.
type Engine struct {
	cfg    EngineConfig
	ledger Ledger
	rigs   RigStore
	refs   ReferralStore
	notify Notifier
	pool   *worker.Pool

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

func NewEngine(cfg EngineConfig, ledger Ledger, rigs RigStore, refs ReferralStore, notify Notifier, pool *worker.Pool) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 3 * time.Second
	}
	return &Engine{
		cfg:    cfg,
		ledger: ledger,
		rigs:   rigs,
		refs:   refs,
		notify: notify,
		pool:   pool,
	}
}

// EnsureStarted starts the tick loop if it is not running yet. Called by the
// lifecycle service on every rig start, so the first active rig system-wide
// brings the scheduler up.
func (e *Engine) EnsureStarted() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	go e.loop(e.stop)
	fmt.Println("[[Accrual]] Engine started")
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	close(e.stop)
	e.running = false
	fmt.Println("[[Accrual]] Engine stopped")
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// loop runs ticks synchronously, so two ticks can never overlap; the ticker
// drops firings a slow tick misses. Transient store failures back the loop
// off linearly instead of killing it.
func (e *Engine) loop(stop chan struct{}) {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if err := e.Tick(now); err != nil {
				failures++
				fmt.Println("[[Accrual]] Tick aborted:", err)
				backoff := time.Duration(failures) * e.cfg.TickInterval
				if backoff > time.Minute {
					backoff = time.Minute
				}
				select {
				case <-stop:
					return
				case <-time.After(backoff):
				}
			} else {
				failures = 0
			}
		}
	}
}

type tickTask func()

func (t tickTask) Execute() { t() }

// Tick performs one accrual pass: snapshot the active rigs, partition them by
// owner and run the owners on the worker pool. A failing owner is logged and
// skipped; only a transient store failure aborts the tick as a whole.
func (e *Engine) Tick(now time.Time) error {
	snapshot, err := e.rigs.ActiveRigs()
	if err != nil {
		return fmt.Errorf("active rigs: %w", err)
	}
	byOwner := make(map[uint][]hashfarm.Rig)
	for _, rig := range snapshot {
		byOwner[rig.UserId] = append(byOwner[rig.UserId], rig)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var transient error
	for ownerId, owned := range byOwner {
		ownerId, owned := ownerId, owned
		wg.Add(1)
		e.pool.Exec(tickTask(func() {
			defer wg.Done()
			if err := e.accrueOwner(now, ownerId, owned); err != nil {
				fmt.Printf("[[Accrual]] Owner %d failed: %v\n", ownerId, err)
				if errors.Is(err, ErrStoreUnavailable) {
					mu.Lock()
					transient = err
					mu.Unlock()
				}
			}
		}))
	}
	wg.Wait()
	return transient
}

// accrueOwner credits one owner for all their active rigs and cascades the
// referral commissions on the total. Each rig's status is re-read here, the
// tick snapshot may be stale by the time an owner is processed.
func (e *Engine) accrueOwner(now time.Time, ownerId uint, snapshot []hashfarm.Rig) error {
	ticksPerDay := 86400 / e.cfg.TickInterval.Seconds()
	earned := float64(0)
	for i := range snapshot {
		rig, err := e.rigs.FindRig(snapshot[i].Id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		if rig.Status != hashfarm.RigActive {
			continue
		}
		// Per-tick increment is rounded to cents before accumulating. The
		// sub-cent loss per tick is the platform's contracted behavior, not
		// something to fix with exact accumulation.
		increment := hashfarm.RoundFloat(rig.DailyReturn/ticksPerDay, 2)
		daysPassed := uint(now.Sub(rig.PurchaseDate) / (24 * time.Hour))
		if daysPassed >= rig.MiningDays {
			// The completing tick still pays out, then the rig is done for good.
			rig.Status = hashfarm.RigCompleted
			if err := e.rigs.SaveRig(rig); err != nil {
				return err
			}
			fmt.Printf("[[Accrual]] Rig %d completed after %d days\n", rig.Id, daysPassed)
		}
		earned += increment
	}
	earned = hashfarm.RoundFloat(earned, 2)
	if earned <= 0 {
		return nil
	}
	if err := e.ledger.IncrementBalance(ownerId, earned); err != nil {
		return err
	}
	if err := e.cascade(ownerId, earned); err != nil {
		return err
	}
	if e.notify != nil {
		e.notify.NotifyEarned(ownerId, earned)
	}
	return nil
}

// cascade pays the owner's upline: 5% to the direct referrer, 2.5% to the
// referrer's referrer. Both commissions are computed from the owner's raw
// tick earnings, the second layer does not depend on the first layer's
// rounding. Nothing is paid beyond layer 2.
func (e *Engine) cascade(ownerId uint, earned float64) error {
	owner, err := e.ledger.FindUser(ownerId)
	if err != nil {
		return err
	}
	if owner.Upline == 0 {
		return nil
	}
	parent, err := e.ledger.FindUser(owner.Upline)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := e.payout(parent.Id, owner.Id, 1, hashfarm.RoundFloat(earned*e.cfg.RefLvlOne, 2)); err != nil {
		return err
	}
	if parent.Upline == 0 {
		return nil
	}
	grand, err := e.ledger.FindUser(parent.Upline)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return e.payout(grand.Id, owner.Id, 2, hashfarm.RoundFloat(earned*e.cfg.RefLvlTwo, 2))
}

// payout credits a commission and appends its audit row. Zero amounts are
// skipped so the payout log only carries real money.
func (e *Engine) payout(userId uint, authorId uint, layer uint, amount float64) error {
	if amount <= 0 {
		return nil
	}
	if err := e.ledger.IncrementBalance(userId, amount); err != nil {
		return err
	}
	return e.refs.AppendPayout(&hashfarm.Referral{
		UserId:   userId,
		AuthorId: authorId,
		Layer:    layer,
		Amount:   amount,
	})
}
