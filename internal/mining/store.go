package mining

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hashfarm/internal/hashfarm"
)

// GormStore backs the engine and lifecycle interfaces with the platform db.
// All balance math happens inside single UPDATE statements so a lifecycle
// debit racing an accrual credit can never lose either side.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUser(id uint) (*hashfarm.User, error) {
	var user hashfarm.User
	res := s.db.Where("id = ?", id).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return &user, nil
}

func (s *GormStore) IncrementBalance(id uint, delta float64) error {
	res := s.db.Model(&hashfarm.User{}).
		Where("id = ?", id).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DebitIfAvailable(id uint, amount float64) error {
	res := s.db.Model(&hashfarm.User{}).
		Where("id = ? AND balance >= ?", id, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (s *GormStore) FindRig(id uint) (*hashfarm.Rig, error) {
	var rig hashfarm.Rig
	res := s.db.Where("id = ?", id).First(&rig)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return &rig, nil
}

func (s *GormStore) ActiveRigs() ([]hashfarm.Rig, error) {
	var rigs []hashfarm.Rig
	res := s.db.Where("status = ?", hashfarm.RigActive).Find(&rigs)
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return rigs, nil
}

func (s *GormStore) SaveRig(rig *hashfarm.Rig) error {
	res := s.db.Save(rig)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return nil
}

func (s *GormStore) CreateRig(rig *hashfarm.Rig, price float64) error {
	tx := s.db.Begin()
	defer func() {
		tx.Rollback()
	}()
	res := tx.Model(&hashfarm.User{}).
		Where("id = ? AND balance >= ?", rig.UserId, price).
		UpdateColumn("balance", gorm.Expr("balance - ?", price))
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	if err := tx.Create(rig).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tx.Commit()
	return nil
}

func (s *GormStore) AppendPayout(payout *hashfarm.Referral) error {
	res := s.db.Create(payout)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return nil
}

// RedisNotifier publishes per-owner tick earnings, the websocket layer
// subscribes per user and pushes fresh balances to connected clients.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

type EarnedEvent struct {
	UserId uint    `json:"user_id"`
	Earned float64 `json:"earned"`
}

func (n *RedisNotifier) NotifyEarned(userId uint, earned float64) {
	payload, err := json.Marshal(EarnedEvent{UserId: userId, Earned: earned})
	if err != nil {
		return
	}
	n.rdb.Publish(context.Background(), fmt.Sprintf("balance_ch@%d", userId), payload)
}
