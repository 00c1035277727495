package txn

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// boundaryOp describes one nested boundary executed inside an outer
// Required boundary.
type boundaryOp struct {
	RequiresNewFlag bool
	Fail            bool
}

func boundaryOpType() reflect.Type {
	return reflect.TypeOf(boundaryOp{})
}

// TestProperty_BeginsArePairedWithOutcomes validates that for any sequence
// of nested boundaries, every begun transaction ends in exactly one commit
// or rollback, and joined calls never begin anything.
func TestProperty_BeginsArePairedWithOutcomes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genOp := gen.Struct(boundaryOpType(), map[string]gopter.Gen{
		"RequiresNewFlag": gen.Bool(),
		"Fail":            gen.Bool(),
	})

	properties.Property("begins equal commits plus rollbacks", prop.ForAll(
		func(ops []boundaryOp) bool {
			res := newMemResource("prop")
			m := NewManager()
			failErr := errors.New("forced failure")

			err := m.Run(context.Background(), res, Options{}, func(ctx context.Context) error {
				for _, op := range ops {
					opts := Options{}
					if op.RequiresNewFlag {
						opts.Propagation = RequiresNew
					}
					err := m.Run(ctx, res, opts, func(ctx context.Context) error {
						if op.Fail {
							return failErr
						}
						return nil
					})
					// A failed join would roll back the outer transaction
					// on return, so only independent failures are
					// swallowed here; joined failures end the sequence.
					if err != nil && !op.RequiresNewFlag {
						return err
					}
				}
				return nil
			})

			begun, committed, rolledBack := res.counts()
			if begun != committed+rolledBack {
				return false
			}

			// Expected begins: the outer boundary plus one per
			// RequiresNew op that was reached.
			expected := 1
			for _, op := range ops {
				if op.RequiresNewFlag {
					expected++
				}
				if op.Fail && !op.RequiresNewFlag {
					break // joined failure aborts the outer body
				}
			}
			if begun != expected {
				return false
			}

			// The outer transaction commits iff no joined op failed.
			if err != nil {
				return rolledBack >= 1
			}
			return committed >= 1
		},
		gen.SliceOf(genOp).SuchThat(func(v interface{}) bool {
			return len(v.([]boundaryOp)) <= 8
		}),
	))

	properties.Property("negotiated level is supported or the strictest available", prop.ForAll(
		func(requestedInt int, restrictedMask int) bool {
			requested := Isolation(requestedInt)
			res := newMemResource("prop")
			for lvl := IsolationReadUncommitted; lvl <= IsolationSerializable; lvl++ {
				if restrictedMask&(1<<uint(lvl)) != 0 {
					res.restricted = append(res.restricted, lvl)
				}
			}

			effective := ResolveIsolation(res, requested)
			if requested == IsolationDefault {
				return effective == IsolationDefault
			}
			if len(res.restricted) == 0 {
				return effective == requested
			}
			for _, lvl := range res.restricted {
				if lvl == requested {
					return effective == requested
				}
			}
			// Fallback must be supported and at least as strict.
			supported := false
			for _, lvl := range res.restricted {
				if lvl == effective {
					supported = true
				}
				if lvl > effective {
					return false // not the strictest
				}
			}
			return supported
		},
		gen.IntRange(0, 4),
		gen.IntRange(0, 31),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
