package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a group of row writes atomically. Repositories pick the
// transaction up from the context passed to fn.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
