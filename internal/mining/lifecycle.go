package mining

import (
	"time"

	"hashfarm/internal/hashfarm"
)

// Lifecycle owns the public rig operations: buying a rig and starting or
// stopping its mining. All status changes outside the accrual tick go
// through here.
type Lifecycle struct {
	ledger Ledger
	rigs   RigStore
	engine *Engine
}

func NewLifecycle(ledger Ledger, rigs RigStore, engine *Engine) *Lifecycle {
	return &Lifecycle{
		ledger: ledger,
		rigs:   rigs,
		engine: engine,
	}
}

// Open buys a rig. The (rigType, price) pair must match a catalog entry and
// the owner's balance must cover the price; the debit and the insert happen
// in one store transaction so a concurrent purchase can never overdraw.
// New rigs start stopped, mining begins with an explicit Start call.
func (l *Lifecycle) Open(ownerId uint, rigType string, price float64) (*hashfarm.Rig, error) {
	offer := hashfarm.FindOffer(rigType, price)
	if offer == nil {
		return nil, ErrInvalidRigType
	}
	rig := &hashfarm.Rig{
		UserId:       ownerId,
		RigType:      offer.RigType,
		Price:        offer.Price,
		DailyReturn:  offer.Price * hashfarm.RigDailyRate,
		PurchaseDate: time.Now(),
		MiningDays:   offer.MiningDays,
		Status:       hashfarm.RigStopped,
	}
	if err := l.rigs.CreateRig(rig, offer.Price); err != nil {
		return nil, err
	}
	return rig, nil
}

// Start activates a rig and makes sure the accrual engine is running.
// Starting an already active rig is a no-op, a completed rig can never be
// resumed.
func (l *Lifecycle) Start(rigId uint, callerId uint) (*hashfarm.Rig, error) {
	rig, err := l.rigs.FindRig(rigId)
	if err != nil {
		return nil, err
	}
	if rig.UserId != callerId {
		return nil, ErrForbidden
	}
	if rig.Status == hashfarm.RigCompleted {
		return nil, ErrAlreadyCompleted
	}
	if rig.Status != hashfarm.RigActive {
		rig.Status = hashfarm.RigActive
		if err := l.rigs.SaveRig(rig); err != nil {
			return nil, err
		}
	}
	l.engine.EnsureStarted()
	return rig, nil
}

// Stop halts an active rig. The rig drops out of the next tick's active set;
// a tick already in flight may still credit it once.
func (l *Lifecycle) Stop(rigId uint, callerId uint) (*hashfarm.Rig, error) {
	rig, err := l.rigs.FindRig(rigId)
	if err != nil {
		return nil, err
	}
	if rig.UserId != callerId {
		return nil, ErrForbidden
	}
	if rig.Status == hashfarm.RigCompleted {
		return nil, ErrAlreadyCompleted
	}
	if rig.Status == hashfarm.RigActive {
		rig.Status = hashfarm.RigStopped
		if err := l.rigs.SaveRig(rig); err != nil {
			return nil, err
		}
	}
	return rig, nil
}
