package flows

import "context"

// StoreErrors classifies errors returned by the record store.
type StoreErrors struct {
	IsNotFound  func(error) bool
	IsDuplicate func(error) bool
}

type CreateFailureKind int

const (
	CreateFailureNone CreateFailureKind = iota
	CreateFailureExists
	CreateFailureLookup
	CreateFailurePrepare
	CreateFailureCreate
)

type CreateResult[T any] struct {
	Failure CreateFailureKind
	Err     error
	Account T
}

// CreateDeps captures account creation dependencies. Lookup reports whether
// the unique key is taken; Prepare runs expensive work (hashing) only once
// the key is known to be free.
type CreateDeps[T any] struct {
	Lookup  func(context.Context) error
	Prepare func(context.Context) error
	Create  func(context.Context) (T, error)
	Errors  StoreErrors
}

// RunCreateAccount creates a record under a unique key. A duplicate found by
// the lookup or raised by the store's unique index is CreateFailureExists.
func RunCreateAccount[T any](ctx context.Context, deps CreateDeps[T]) CreateResult[T] {
	err := deps.Lookup(ctx)
	switch {
	case err == nil:
		return CreateResult[T]{Failure: CreateFailureExists}
	case !deps.Errors.IsNotFound(err):
		return CreateResult[T]{Failure: CreateFailureLookup, Err: err}
	}

	if deps.Prepare != nil {
		if err := deps.Prepare(ctx); err != nil {
			return CreateResult[T]{Failure: CreateFailurePrepare, Err: err}
		}
	}

	account, err := deps.Create(ctx)
	if err != nil {
		if deps.Errors.IsDuplicate(err) {
			return CreateResult[T]{Failure: CreateFailureExists}
		}
		return CreateResult[T]{Failure: CreateFailureCreate, Err: err}
	}
	return CreateResult[T]{Account: account}
}

type LinkOutcome int

const (
	LinkFound LinkOutcome = iota
	LinkCreated
	// LinkRaceRecovered means a concurrent first login created the record
	// between our lookup and insert; the winner's record is returned.
	LinkRaceRecovered
)

type LinkResult[T any] struct {
	Outcome LinkOutcome
	Err     error
	// Stage names the step that failed.
	Stage   string
	Account T
}

type LinkDeps[T any] struct {
	Find   func(context.Context) (T, error)
	Create func(context.Context) (T, error)
	Errors StoreErrors
}

// RunFindOrCreate returns the record Find locates, creating it when absent.
// A duplicate on create re-reads once instead of failing.
func RunFindOrCreate[T any](ctx context.Context, deps LinkDeps[T]) LinkResult[T] {
	account, err := deps.Find(ctx)
	if err == nil {
		return LinkResult[T]{Outcome: LinkFound, Account: account}
	}
	if !deps.Errors.IsNotFound(err) {
		return LinkResult[T]{Err: err, Stage: "lookup"}
	}

	account, err = deps.Create(ctx)
	if err == nil {
		return LinkResult[T]{Outcome: LinkCreated, Account: account}
	}
	if !deps.Errors.IsDuplicate(err) {
		return LinkResult[T]{Err: err, Stage: "create"}
	}

	account, err = deps.Find(ctx)
	if err != nil {
		return LinkResult[T]{Err: err, Stage: "reread"}
	}
	return LinkResult[T]{Outcome: LinkRaceRecovered, Account: account}
}
