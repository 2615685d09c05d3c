package sqlite

import (
	"context"
	"database/sql"

	"github.com/q360hq/q360/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits/rollbacks; outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) ApplyMigrations() error { return nil } // no-op; apply before starting a tx

func (t *txStore) Users() store.Users                 { return &usersRepo{db: t.tx} }
func (t *txStore) BackupCodes() store.BackupCodes     { return &backupCodesRepo{db: t.tx} }
func (t *txStore) RevokedTokens() store.RevokedTokens { return &revokedTokensRepo{db: t.tx} }
func (t *txStore) Departments() store.Departments     { return &departmentsRepo{db: t.tx} }
func (t *txStore) Cycles() store.Cycles               { return &cyclesRepo{db: t.tx} }
func (t *txStore) Competencies() store.Competencies   { return &competenciesRepo{db: t.tx} }
func (t *txStore) Evaluations() store.Evaluations     { return &evaluationsRepo{db: t.tx} }
func (t *txStore) Ideas() store.Ideas                 { return &ideasRepo{db: t.tx} }
func (t *txStore) Notifications() store.Notifications { return &notificationsRepo{db: t.tx} }
