package services

import "context"

// TxRunner runs a function inside one atomic transactional scope. The Mongo
// client wrapper satisfies it in production; tests substitute a passthrough.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error)
}
