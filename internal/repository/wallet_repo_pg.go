package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/jackc/pgx/v5"
)

func pgGetWallet(ctx context.Context, q pgQuerier, walletID string, forUpdate bool) (*domain.Wallet, error) {
	query := `SELECT id, balance, updated_at FROM wallets WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var w domain.Wallet
	err := q.QueryRow(ctx, query, walletID).Scan(&w.ID, &w.Balance, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", walletID, err)
	}
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}

// pgDebitWallet is a compare-and-subtract: the row only changes when the
// balance still covers the amount.
func pgDebitWallet(ctx context.Context, q pgQuerier, walletID string, amount int64) (int64, bool, error) {
	var balance int64
	err := q.QueryRow(ctx, `UPDATE wallets SET balance = balance - $1, updated_at = now()
		WHERE id=$2 AND balance >= $1
		RETURNING balance`, amount, walletID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("debit wallet %s: %w", walletID, err)
	}
	return balance, true, nil
}
