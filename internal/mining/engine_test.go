package mining

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hashfarm/internal/hashfarm"
	"hashfarm/internal/worker"
)

func newTestEngine(store *memStore, notifier *memNotifier, interval time.Duration) *Engine {
	return NewEngine(EngineConfig{
		TickInterval: interval,
		RefLvlOne:    0.05,
		RefLvlTwo:    0.025,
	}, store, store, store, notifier, worker.NewPool(4, 16))
}

func activeRig(ownerId uint, dailyReturn float64) hashfarm.Rig {
	return hashfarm.Rig{
		UserId:       ownerId,
		RigType:      "rig_1000",
		Price:        1000,
		DailyReturn:  dailyReturn,
		PurchaseDate: time.Now(),
		MiningDays:   90,
		Status:       hashfarm.RigActive,
	}
}

func TestTickCreditsActiveRig(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	// 24 per day at one tick per hour is exactly 1.00 per tick
	store.addRig(activeRig(1, 24))
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 1.00, store.balance(1))
	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, uint(1), events[0].userId)
	assert.Equal(t, 1.00, events[0].earned)
}

func TestTickSumsOwnerRigsBeforeCascading(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	store.addRig(activeRig(1, 24))
	store.addRig(activeRig(1, 48))
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 3.00, store.balance(1))
	require.Len(t, notifier.recorded(), 1)
}

func TestTickSubCentIncrementRoundsToZero(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1, Upline: 2})
	store.addUser(hashfarm.User{Id: 2})
	// 80 per day over 28800 ticks is 0.0027 per tick, which rounds to zero.
	// Small rigs genuinely earn nothing at a 3 second interval.
	store.addRig(activeRig(1, 80))
	engine := newTestEngine(store, notifier, 3*time.Second)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 0.00, store.balance(1))
	assert.Equal(t, 0.00, store.balance(2))
	assert.Empty(t, notifier.recorded())
	assert.Empty(t, store.payoutRows())
}

func TestTickSkipsRigStoppedAfterSnapshot(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	rigId := store.addRig(activeRig(1, 24))

	// The snapshot says active but the live row was stopped in between.
	stale, err := store.FindRig(rigId)
	require.NoError(t, err)
	store.staleSnapshot = []hashfarm.Rig{*stale}
	stopped := *stale
	stopped.Status = hashfarm.RigStopped
	require.NoError(t, store.SaveRig(&stopped))

	engine := newTestEngine(store, notifier, time.Hour)
	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 0.00, store.balance(1))
	assert.Empty(t, notifier.recorded())
}

func TestTickCompletesExpiredRigAndStillPays(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	rig := activeRig(1, 24)
	rig.PurchaseDate = time.Now().Add(-91 * 24 * time.Hour)
	rigId := store.addRig(rig)
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	// The completing tick pays out one last time, then the rig is done.
	assert.Equal(t, 1.00, store.balance(1))
	assert.Equal(t, hashfarm.RigCompleted, store.rigStatus(rigId))

	require.NoError(t, engine.Tick(time.Now()))
	assert.Equal(t, 1.00, store.balance(1))
	require.Len(t, notifier.recorded(), 1)
}

func TestCascadePaysTwoLayersFromRawEarnings(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 3})            // grand
	store.addUser(hashfarm.User{Id: 2, Upline: 3}) // parent
	store.addUser(hashfarm.User{Id: 1, Upline: 2}) // owner
	// 2400 per day at one tick per hour earns the owner 100.00 per tick
	store.addRig(activeRig(1, 2400))
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 100.00, store.balance(1))
	assert.Equal(t, 5.00, store.balance(2))
	assert.Equal(t, 2.50, store.balance(3))

	rows := store.payoutRows()
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].UserId)
	assert.Equal(t, uint(1), rows[0].AuthorId)
	assert.Equal(t, uint(1), rows[0].Layer)
	assert.Equal(t, 5.00, rows[0].Amount)
	assert.Equal(t, uint(3), rows[1].UserId)
	assert.Equal(t, uint(1), rows[1].AuthorId)
	assert.Equal(t, uint(2), rows[1].Layer)
	assert.Equal(t, 2.50, rows[1].Amount)
}

func TestCascadeStopsAtMissingUpline(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1, Upline: 99}) // referrer no longer exists
	store.addRig(activeRig(1, 2400))
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 100.00, store.balance(1))
	assert.Empty(t, store.payoutRows())
}

func TestCascadeSkipsZeroCommission(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 2})
	store.addUser(hashfarm.User{Id: 1, Upline: 2})
	// 0.96 per day at one tick per hour earns 0.04, whose 5% commission
	// rounds to zero and must not leave a payout row
	store.addRig(activeRig(1, 0.96))
	engine := newTestEngine(store, notifier, time.Hour)

	require.NoError(t, engine.Tick(time.Now()))

	assert.Equal(t, 0.04, store.balance(1))
	assert.Equal(t, 0.00, store.balance(2))
	assert.Empty(t, store.payoutRows())
}

func TestTickIsolatesOwnerFailures(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	store.addUser(hashfarm.User{Id: 2})
	store.addRig(activeRig(1, 24))
	store.addRig(activeRig(2, 24))
	store.creditErr[1] = errors.New("constraint violation")
	engine := newTestEngine(store, notifier, time.Hour)

	// A single failing owner is logged and skipped, everyone else gets paid.
	require.NoError(t, engine.Tick(time.Now()))
	assert.Equal(t, 0.00, store.balance(1))
	assert.Equal(t, 1.00, store.balance(2))
}

func TestTickAbortsOnTransientStoreFailure(t *testing.T) {
	store := newMemStore()
	notifier := &memNotifier{}
	store.addUser(hashfarm.User{Id: 1})
	store.addRig(activeRig(1, 24))
	store.creditErr[1] = fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
	engine := newTestEngine(store, notifier, time.Hour)

	err := engine.Tick(time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}

func TestTickFailsWhenSnapshotUnavailable(t *testing.T) {
	store := newMemStore()
	store.activeRigsErr = fmt.Errorf("%w: connection refused", ErrStoreUnavailable)
	engine := newTestEngine(store, &memNotifier{}, time.Hour)

	err := engine.Tick(time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
}

func TestEnsureStartedIsIdempotent(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(store, &memNotifier{}, time.Hour)

	assert.False(t, engine.Running())
	engine.EnsureStarted()
	engine.EnsureStarted()
	assert.True(t, engine.Running())

	engine.Stop()
	assert.False(t, engine.Running())
	engine.Stop()
	assert.False(t, engine.Running())
}
