// Package cache is the process-wide query cache the account views read
// through and the transfer reconciler invalidates.
package cache

import (
	"cmp"
	"strings"
)

// Query tags.
const (
	TagConfidentialVisibility = "confidential-visibility"
	TagBalance                = "get-balance"
	TagSignatures             = "get-signatures-with-tx-data"
	TagTokenAccounts          = "get-token-accounts"
)

// Key identifies one cached query result: an operation tag plus its ordered
// scoping fields. Keys are comparable, so equal queries share one map slot.
type Key struct {
	Tag      string
	Endpoint string
	Address  string
}

// ConfidentialVisibilityKey is scoped to the token account only; visibility
// does not depend on the network endpoint.
func ConfidentialVisibilityKey(address string) Key {
	return Key{Tag: TagConfidentialVisibility, Address: address}
}

// BalanceKey scopes a token account balance to an endpoint.
func BalanceKey(endpoint, tokenAccount string) Key {
	return Key{Tag: TagBalance, Endpoint: endpoint, Address: tokenAccount}
}

// SignaturesKey scopes signature history to the connected wallet address.
func SignaturesKey(endpoint, walletAddress string) Key {
	return Key{Tag: TagSignatures, Endpoint: endpoint, Address: walletAddress}
}

// TokenAccountsKey scopes a token account list to an endpoint and address.
func TokenAccountsKey(endpoint, address string) Key {
	return Key{Tag: TagTokenAccounts, Endpoint: endpoint, Address: address}
}

// Compare orders keys by tag, then endpoint, then address.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Tag, other.Tag); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Endpoint, other.Endpoint); c != 0 {
		return c
	}
	return cmp.Compare(k.Address, other.Address)
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Tag)
	if k.Endpoint != "" {
		b.WriteString(" endpoint=")
		b.WriteString(k.Endpoint)
	}
	if k.Address != "" {
		b.WriteString(" address=")
		b.WriteString(k.Address)
	}
	return b.String()
}
