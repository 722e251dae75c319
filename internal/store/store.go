package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/models"
)

// Store is the gorm-backed implementation of the engine's persistence
// contract plus the read queries the API handlers need.
type Store struct {
	db *gorm.DB
}

// ensure Store satisfies the engine contract
var _ ledger.Store = (*Store)(nil)

// New creates a store on top of an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetWalletBalance returns the user's wallet balance.
func (s *Store) GetWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("wallet").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, fmt.Errorf("%w: user %s", ledger.ErrNotFound, userID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read wallet: %w", err)
	}
	return user.Wallet, nil
}

// SetWalletBalance overwrites the user's wallet balance.
func (s *Store) SetWalletBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("wallet", balance)
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ledger.ErrNotFound, userID)
	}
	return nil
}

// InsertOrder creates an open order row.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// DeleteOrders removes all open order rows for the user's symbol.
func (s *Store) DeleteOrders(ctx context.Context, userID, symbol string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND stock_name = ?", userID, symbol).
		Delete(&models.Order{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete orders: %w", err)
	}
	return nil
}

// InsertTransaction records a closed position.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// OrdersForSymbol returns the user's open orders for one symbol, oldest first.
func (s *Store) OrdersForSymbol(ctx context.Context, userID, symbol string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND stock_name = ?", userID, symbol).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// OrdersForUser returns all of the user's open orders, oldest first.
func (s *Store) OrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

// TransactionsForUser returns the user's closed positions, most recent first.
func (s *Store) TransactionsForUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txs, nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ledger.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: email %s", ledger.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// AddWatch adds a symbol to the user's watchlist. Adding an already-watched
// symbol is a no-op.
func (s *Store) AddWatch(ctx context.Context, userID, symbol string) error {
	item := models.WatchlistItem{UserID: userID, Symbol: symbol}
	err := s.db.WithContext(ctx).
		FirstOrCreate(&item, models.WatchlistItem{UserID: userID, Symbol: symbol}).Error
	if err != nil {
		return fmt.Errorf("failed to add watchlist item: %w", err)
	}
	return nil
}

// RemoveWatch removes a symbol from the user's watchlist.
func (s *Store) RemoveWatch(ctx context.Context, userID, symbol string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Delete(&models.WatchlistItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	return nil
}

// Watchlist returns the user's watched symbols.
func (s *Store) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	return items, nil
}

// CreateSession inserts a session row.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns a session by token.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: session", ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes a session row.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
