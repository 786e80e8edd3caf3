// Package store persists the small amount of state zapd keeps between
// sessions: which wallets exist and have completed an initial sync, and
// which connection was active when the daemon last ran.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/05nelsonm/zap-desktop/internal/node/config"
)

// Wallet is the durable record for one node identity.
type Wallet struct {
	ID        string `gorm:"primaryKey"`
	Network   string
	Alias     string
	HasSynced bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveConnection is a single-row record of the current NodeConfig summary,
// kept so a restarted daemon can resume where it left off.
type ActiveConnection struct {
	ID        uint `gorm:"primaryKey"`
	Kind      string
	Network   string
	WalletID  string
	UpdatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open store at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Wallet{}, &ActiveConnection{}); err != nil {
		return nil, fmt.Errorf("unable to migrate store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// UpsertWallet creates or refreshes a wallet record, preserving an existing
// HasSynced flag.
func (s *Store) UpsertWallet(w Wallet) error {
	var existing Wallet
	err := s.db.First(&existing, "id = ?", w.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(&w).Error
	case err != nil:
		return err
	}

	existing.Network = w.Network
	existing.Alias = w.Alias
	return s.db.Save(&existing).Error
}

func (s *Store) GetWallet(id string) (*Wallet, error) {
	var w Wallet
	err := s.db.First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// MarkSynced records that the wallet has completed an initial sync at least
// once.
func (s *Store) MarkSynced(id string) error {
	return s.db.Model(&Wallet{}).Where("id = ?", id).Update("has_synced", true).Error
}

// SetActiveConnection replaces the single active-connection row.
func (s *Store) SetActiveConnection(summary config.Summary) error {
	active := ActiveConnection{
		ID:       1,
		Kind:     string(summary.Kind),
		Network:  summary.Network,
		WalletID: summary.WalletID,
	}
	return s.db.Save(&active).Error
}

func (s *Store) GetActiveConnection() (*config.Summary, error) {
	var active ActiveConnection
	err := s.db.First(&active, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &config.Summary{
		Kind:     config.ConnectionKind(active.Kind),
		Network:  active.Network,
		WalletID: active.WalletID,
	}, nil
}
