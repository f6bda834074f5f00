package model

import (
	"sort"
	"strings"
)

// ScopeKind discriminates how a metrics computation or snapshot is scoped.
// Stored as an explicit column so an aggregated snapshot is never confused
// with an unfiltered one.
type ScopeKind string

const (
	// ScopeAccount scopes to a single broker account.
	ScopeAccount ScopeKind = "ACCOUNT"

	// ScopeMulti scopes to an explicit set of broker accounts (aggregated view).
	ScopeMulti ScopeKind = "MULTI"

	// ScopeGlobal applies no account filter at all.
	ScopeGlobal ScopeKind = "GLOBAL"
)

// Scope identifies which accounts a computation covers.
// Use the constructors below rather than building the struct by hand.
type Scope struct {
	Kind       ScopeKind
	AccountIDs []string
}

// AccountScope returns a scope covering a single broker account.
func AccountScope(accountID string) Scope {
	return Scope{Kind: ScopeAccount, AccountIDs: []string{accountID}}
}

// MultiAccountScope returns a scope covering the given set of accounts.
// An empty set degrades to the global scope.
func MultiAccountScope(accountIDs []string) Scope {
	if len(accountIDs) == 0 {
		return GlobalScope()
	}
	return Scope{Kind: ScopeMulti, AccountIDs: accountIDs}
}

// GlobalScope returns the unfiltered scope.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// Key returns the deterministic storage key for this scope: the account ID
// for a single-account scope, the sorted comma-joined IDs for a multi-account
// scope, and "" for the global scope. Together with Kind it forms the
// snapshot identity, so the same set of accounts always maps to the same row
// regardless of input order.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeAccount:
		if len(s.AccountIDs) > 0 {
			return s.AccountIDs[0]
		}
		return ""
	case ScopeMulti:
		ids := make([]string, len(s.AccountIDs))
		copy(ids, s.AccountIDs)
		sort.Strings(ids)
		return strings.Join(ids, ",")
	default:
		return ""
	}
}

// Accounts returns the account IDs to filter queries by.
// A nil result means "no filter" (global scope).
func (s Scope) Accounts() []string {
	if s.Kind == ScopeGlobal {
		return nil
	}
	return s.AccountIDs
}
