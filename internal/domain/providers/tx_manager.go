package providers

import (
	"context"
)

// TxManager scopes a function to one database transaction. Repositories
// called inside fn with the context it receives share that transaction;
// any error rolls the whole transaction back, so no half-applied state is
// ever visible.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
