// Package store provides storage adapters that act as transaction
// resources for the boundary manager.
package store

import (
	"context"

	"github.com/txscope/txscope/pkg/txn"
)

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

// Resource is a storage adapter usable as a transaction resource.
type Resource interface {
	txn.Resource
	Adapter
}
