package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"orders-payments-saga/internal/entity"
	"orders-payments-saga/pkg/postgres"
	"orders-payments-saga/pkg/types/errs"
)

const (
	// Table
	accountsTable = "accounts"

	// Columns
	accountIDColumn      = "account_id"
	accountUserIDColumn  = "user_id"
	accountBalanceColumn = "balance"
)

type AccountRepo struct {
	*postgres.Postgres
}

func NewAccountRepo(pg *postgres.Postgres) *AccountRepo {
	return &AccountRepo{pg}
}

func (r *AccountRepo) CreateOrGet(ctx context.Context, userID uuid.UUID) (*entity.Account, bool, error) {
	sql, args, err := r.Builder.
		Insert(accountsTable).
		Columns(accountIDColumn, accountUserIDColumn, accountBalanceColumn).
		Values(uuid.New(), userID, 0).
		Suffix("ON CONFLICT (" + accountUserIDColumn + ") DO NOTHING RETURNING " + accountIDColumn + ", " + accountBalanceColumn).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("AccountRepo - CreateOrGet - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	account := entity.Account{UserID: userID}
	err = executor.QueryRow(ctx, sql, args...).Scan(&account.AccountID, &account.Balance)
	if err == nil {
		return &account, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("AccountRepo - CreateOrGet - executor.QueryRow: %w", err)
	}

	// Conflict, the account already exists.
	existing, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("AccountRepo - CreateOrGet - r.GetByUserID: %w", err)
	}

	return existing, false, nil
}

func (r *AccountRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	return r.get(ctx, squirrel.Eq{accountIDColumn: accountID}, "GetByAccountID")
}

func (r *AccountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	return r.get(ctx, squirrel.Eq{accountUserIDColumn: userID}, "GetByUserID")
}

func (r *AccountRepo) get(ctx context.Context, where squirrel.Eq, method string) (*entity.Account, error) {
	sql, args, err := r.Builder.
		Select(accountIDColumn, accountUserIDColumn, accountBalanceColumn).
		From(accountsTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AccountRepo - %s - r.Builder.ToSql: %w", method, err)
	}

	executor := r.GetExecutor(ctx)

	var account entity.Account
	err = executor.QueryRow(ctx, sql, args...).Scan(&account.AccountID, &account.UserID, &account.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("AccountRepo - %s: %w", method, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("AccountRepo - %s - executor.QueryRow: %w", method, err)
	}

	return &account, nil
}

func (r *AccountRepo) TopUp(ctx context.Context, accountID, userID uuid.UUID, amount int64) (int64, error) {
	sql, args, err := r.Builder.
		Update(accountsTable).
		Set(accountBalanceColumn, squirrel.Expr(accountBalanceColumn+" + ?", amount)).
		Where(squirrel.And{
			squirrel.Eq{accountIDColumn: accountID},
			squirrel.Eq{accountUserIDColumn: userID},
		}).
		Suffix("RETURNING " + accountBalanceColumn).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("AccountRepo - TopUp - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var balance int64
	err = executor.QueryRow(ctx, sql, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("AccountRepo - TopUp: %w", errs.ErrRecordNotFound)
		}
		return 0, fmt.Errorf("AccountRepo - TopUp - executor.QueryRow: %w", err)
	}

	return balance, nil
}

// Withdraw is a single compare-and-decrement at the store, not a
// read-then-write, so concurrent debits cannot both pass the balance floor.
func (r *AccountRepo) Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	sql, args, err := r.Builder.
		Update(accountsTable).
		Set(accountBalanceColumn, squirrel.Expr(accountBalanceColumn+" - ?", amount)).
		Where(squirrel.And{
			squirrel.Eq{accountUserIDColumn: userID},
			squirrel.GtOrEq{accountBalanceColumn: amount},
		}).
		Suffix("RETURNING " + accountBalanceColumn).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("AccountRepo - Withdraw - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var balance int64
	err = executor.QueryRow(ctx, sql, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("AccountRepo - Withdraw: %w", errs.ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("AccountRepo - Withdraw - executor.QueryRow: %w", err)
	}

	return balance, nil
}
