package errors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrTradeNotFound indicates that a trade with the given ID does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrPayinNotFound indicates that a payin with the given ID does not exist.
	ErrPayinNotFound = errors.New("payin not found")

	// ErrSnapshotNotFound indicates that a snapshot with the given ID does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrBrokerKeyNotFound indicates that no active API credentials are stored
	// for the given account.
	ErrBrokerKeyNotFound = errors.New("broker API key not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrTradeAlreadyClosed indicates an attempt to sell a trade that was
	// already closed. A trade closes exactly once.
	ErrTradeAlreadyClosed = errors.New("trade already closed")

	// ErrInvalidQuantity indicates a trade quantity that is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice indicates a buy or sell price that is zero or negative.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrMissingSellPrice indicates a sell request without a price when the
	// order is not being executed through the broker.
	ErrMissingSellPrice = errors.New("sell price is required")

	// ErrMigrationDone indicates the one-time holdings migration already ran
	// for this account.
	ErrMigrationDone = errors.New("holdings migration already completed for account")

	// ErrUnknownSymbol indicates an order for a symbol that is not in the
	// exchange's instrument master.
	ErrUnknownSymbol = errors.New("symbol not listed on exchange")
)

// External collaborator errors.
var (
	// ErrBrokerUnavailable indicates the broker could not be reached at all
	// (network failure or rejected session). This is the only sync failure
	// surfaced to the caller; per-symbol failures degrade to stale data.
	ErrBrokerUnavailable = errors.New("broker unavailable")
)
