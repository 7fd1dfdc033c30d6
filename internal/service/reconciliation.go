package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sablebank/ledger/internal/observability"
)

// ReconciliationService verifies the conservation invariant: every account's
// balance must equal its opening balance plus completed credits minus
// completed debits. Only the Transfer and Reversal paths mutate balances, so
// any drift means a partial write escaped a transaction scope.
type ReconciliationService struct {
	store QueryStore
}

func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run reports every account whose balance disagrees with its entries.
func (s *ReconciliationService) Run(ctx context.Context) error {
	drifts, err := s.store.Queries().ListLedgerDrift(ctx)
	if err != nil {
		return fmt.Errorf("run ledger drift query: %w", err)
	}

	if len(drifts) == 0 {
		zap.L().Info("ledger balanced")
		return nil
	}

	for _, d := range drifts {
		observability.IncrementLedgerImbalance(d.Currency)
		zap.L().Error("CRITICAL: ledger imbalance detected",
			zap.String("account_id", d.AccountID.String()),
			zap.String("currency", d.Currency),
			zap.Int64("balance", d.Balance),
			zap.Int64("expected", d.Expected),
		)
	}
	return nil
}
