package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestWithUnitOfWork_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, struct{ k string }{"tx"}, "tx")

	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Commit", txCtx).Return(nil)

	called := false
	err := WithUnitOfWork(ctx, uow, func(innerCtx context.Context) error {
		called = true
		assert.Equal(t, txCtx, innerCtx)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	uow.AssertExpectations(t)
}

func TestWithUnitOfWork_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, struct{ k string }{"tx"}, "tx")
	boom := errors.New("boom")

	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Rollback", txCtx).Return(nil)

	err := WithUnitOfWork(ctx, uow, func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	uow.AssertExpectations(t)
}

func TestWithUnitOfWork_BeginFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("no connection")

	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(nil, boom)

	err := WithUnitOfWork(ctx, uow, func(context.Context) error {
		t.Fatal("fn must not run when Begin fails")
		return nil
	})

	assert.ErrorIs(t, err, boom)
	uow.AssertExpectations(t)
}
