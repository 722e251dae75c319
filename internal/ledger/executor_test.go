package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"paper-trading-go/internal/models"
)

// MockStore is a mock implementation of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetWalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStore) SetWalletBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	args := m.Called(ctx, userID, balance)
	return args.Error(0)
}

func (m *MockStore) InsertOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockStore) DeleteOrders(ctx context.Context, userID, symbol string) error {
	args := m.Called(ctx, userID, symbol)
	return args.Error(0)
}

func (m *MockStore) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func decimalEq(v int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(v))
	})
}

func newExecutor(store Store) *Executor {
	return NewExecutor(store, NewUserLocks(), zap.NewNop())
}

func TestPlaceOrder_Success(t *testing.T) {
	// Arrange
	st := new(MockStore)
	st.On("GetWalletBalance", mock.Anything, "u1").Return(decimal.NewFromInt(1000), nil)
	st.On("SetWalletBalance", mock.Anything, "u1", decimalEq(550)).Return(nil)
	st.On("InsertOrder", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.UserID == "u1" && o.StockName == "AAPL" && o.Type == models.OrderTypeBuy &&
			o.Quantity == 3 && o.StockPrice.Equal(decimal.NewFromInt(150))
	})).Return(nil)

	// Act
	remaining, err := newExecutor(st).PlaceOrder(context.Background(), "u1", "AAPL", 3, decimal.NewFromInt(150), models.OrderTypeBuy)

	// Assert
	assert.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.NewFromInt(550)), remaining.String())
	st.AssertExpectations(t)
}

func TestPlaceOrder_InsufficientBalance(t *testing.T) {
	st := new(MockStore)
	st.On("GetWalletBalance", mock.Anything, "u1").Return(decimal.NewFromInt(100), nil)

	_, err := newExecutor(st).PlaceOrder(context.Background(), "u1", "AAPL", 3, decimal.NewFromInt(150), models.OrderTypeBuy)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	// Rejected before any mutation.
	st.AssertNotCalled(t, "SetWalletBalance", mock.Anything, mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything)
}

func TestPlaceOrder_ExactBalanceSucceeds(t *testing.T) {
	st := new(MockStore)
	st.On("GetWalletBalance", mock.Anything, "u1").Return(decimal.NewFromInt(450), nil)
	st.On("SetWalletBalance", mock.Anything, "u1", decimalEq(0)).Return(nil)
	st.On("InsertOrder", mock.Anything, mock.Anything).Return(nil)

	remaining, err := newExecutor(st).PlaceOrder(context.Background(), "u1", "AAPL", 3, decimal.NewFromInt(150), models.OrderTypeBuy)

	assert.NoError(t, err)
	assert.True(t, remaining.IsZero())
	st.AssertExpectations(t)
}

func TestPlaceOrder_CompensatesOnInsertFailure(t *testing.T) {
	st := new(MockStore)
	st.On("GetWalletBalance", mock.Anything, "u1").Return(decimal.NewFromInt(1000), nil)
	// Debit succeeds...
	st.On("SetWalletBalance", mock.Anything, "u1", decimalEq(550)).Return(nil)
	// ...the insert fails...
	st.On("InsertOrder", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	// ...so the wallet is restored to its pre-debit value.
	st.On("SetWalletBalance", mock.Anything, "u1", decimalEq(1000)).Return(nil)

	_, err := newExecutor(st).PlaceOrder(context.Background(), "u1", "AAPL", 3, decimal.NewFromInt(150), models.OrderTypeBuy)

	assert.ErrorIs(t, err, ErrPersistence)
	st.AssertExpectations(t)
}

func TestPlaceOrder_ShortIsSymmetricDebit(t *testing.T) {
	st := new(MockStore)
	st.On("GetWalletBalance", mock.Anything, "u1").Return(decimal.NewFromInt(1000), nil)
	st.On("SetWalletBalance", mock.Anything, "u1", decimalEq(750)).Return(nil)
	st.On("InsertOrder", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.Type == models.OrderTypeSell && o.Quantity == 5
	})).Return(nil)

	remaining, err := newExecutor(st).PlaceOrder(context.Background(), "u1", "TSLA", 5, decimal.NewFromInt(50), models.OrderTypeSell)

	assert.NoError(t, err)
	assert.True(t, remaining.Equal(decimal.NewFromInt(750)))
	st.AssertExpectations(t)
}

func TestPlaceOrder_Validation(t *testing.T) {
	st := new(MockStore)
	e := newExecutor(st)
	ctx := context.Background()
	price := decimal.NewFromInt(100)

	_, err := e.PlaceOrder(ctx, "", "AAPL", 1, price, models.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.PlaceOrder(ctx, "u1", "", 1, price, models.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.PlaceOrder(ctx, "u1", "AAPL", 0, price, models.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.PlaceOrder(ctx, "u1", "AAPL", 1, decimal.Zero, models.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.PlaceOrder(ctx, "u1", "AAPL", 1, price, "HOLD")
	assert.ErrorIs(t, err, ErrValidation)

	// None of these touch the store.
	st.AssertNotCalled(t, "GetWalletBalance", mock.Anything, mock.Anything)
}
