package services

import (
	"context"
	"strings"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/telemetry"
)

const walletHistoryLimit = 50

type WalletService struct {
	wallets   repositories.WalletRepository
	packages  map[string]int64
	publisher rabbitmq.Publisher
}

func NewWalletService(wallets repositories.WalletRepository, packages map[string]int64, publisher rabbitmq.Publisher) *WalletService {
	return &WalletService{wallets: wallets, packages: packages, publisher: publisher}
}

func (s *WalletService) Get(ctx context.Context, userID int64) (*models.Wallet, error) {
	return s.wallets.GetWallet(ctx, userID, walletHistoryLimit)
}

// Purchase credits a package once per payment reference. created is false
// when the reference was already redeemed.
func (s *WalletService) Purchase(ctx context.Context, userID int64, packageID, paymentReference string) (*models.CreditTransaction, bool, error) {
	credits, ok := s.packages[packageID]
	if !ok {
		return nil, false, invalid("package_id", "unknown credit package")
	}
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return nil, false, invalid("payment_reference", "is required")
	}

	entry, created, err := s.wallets.Purchase(ctx, userID, credits, paymentReference)
	if err != nil {
		return nil, false, err
	}
	if created {
		telemetry.Publish(ctx, s.publisher, telemetry.EventWalletPurchased, telemetry.PurchaseEvent{
			UserID:           userID,
			PackageID:        packageID,
			Credits:          credits,
			PaymentReference: paymentReference,
		})
	}
	return entry, created, nil
}
