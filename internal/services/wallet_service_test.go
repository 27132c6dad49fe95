package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sixdegrees-service/internal/mocks"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/telemetry"
)

func TestPurchaseUnknownPackage(t *testing.T) {
	wallets := new(mocks.MockWalletRepository)
	svc := NewWalletService(wallets, map[string]int64{"starter": 100}, nil)

	_, _, err := svc.Purchase(context.Background(), 1, "mega", "pay-1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "package_id", verr.Field)
	wallets.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchasePublishesOnlyNewTransactions(t *testing.T) {
	wallets := new(mocks.MockWalletRepository)
	publisher := new(mocks.MockPublisher)
	svc := NewWalletService(wallets, map[string]int64{"starter": 100}, publisher)
	entry := &models.CreditTransaction{ID: 4, UserID: 1, Amount: 100, Kind: models.TxKindPurchase, Reference: "pay-1"}

	wallets.On("Purchase", mock.Anything, int64(1), int64(100), "pay-1").Return(entry, true, nil).Once()
	publisher.On("Publish", mock.Anything, telemetry.EventWalletPurchased, mock.AnythingOfType("telemetry.PurchaseEvent")).Return(nil).Once()

	got, created, err := svc.Purchase(context.Background(), 1, "starter", "pay-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entry, got)

	wallets.On("Purchase", mock.Anything, int64(1), int64(100), "pay-1").Return(entry, false, nil).Once()
	_, created, err = svc.Purchase(context.Background(), 1, "starter", " pay-1 ")
	require.NoError(t, err)
	assert.False(t, created)

	publisher.AssertNumberOfCalls(t, "Publish", 1)
	wallets.AssertExpectations(t)
}

func TestWalletGetUsesHistoryLimit(t *testing.T) {
	wallets := new(mocks.MockWalletRepository)
	svc := NewWalletService(wallets, nil, nil)
	wallets.On("GetWallet", mock.Anything, int64(1), walletHistoryLimit).Return(&models.Wallet{UserID: 1, Credits: 30}, nil).Once()

	w, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), w.Credits)
}
