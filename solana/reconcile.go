package solana

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/common"
	"github.com/AlexZinkM/cb-transfer/internal/notify"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"

	"github.com/gagliardetto/solana-go"
)

const (
	titleComplete = "Transfer Operation - COMPLETE"
	titleFailed   = "Transfer Operation - FAILED"
)

// Reconciler turns a pipeline result into notifications, one audit entry and,
// on success only, cache updates.
type Reconciler struct {
	cache    cache.Cache
	notifier notify.Notifier
	log      oplog.Log
	endpoint string
}

func NewReconciler(c cache.Cache, n notify.Notifier, l oplog.Log, endpoint string) *Reconciler {
	return &Reconciler{cache: c, notifier: n, log: l, endpoint: endpoint}
}

// Success notifies per signature, notifies once in aggregate, appends one
// audit entry, hides the confidential balance and invalidates the dependent views.
func (r *Reconciler) Success(tokenAccount, owner solana.PublicKey, outcome *TransferOutcome) {
	for _, sig := range outcome.Signatures {
		r.notifier.Transaction(sig)
	}
	r.notifier.Success("Transfer transaction successful")

	var content strings.Builder
	fmt.Fprintf(&content, "Transfer transaction successful\n  Token account: %s\n  Amount: %s",
		tokenAccount, common.Pluralize("token unit", outcome.Amount))
	for i, sig := range outcome.Signatures {
		if len(outcome.Signatures) > 1 {
			fmt.Fprintf(&content, "\n  Signature #%d: %s", i+1, sig)
		} else {
			fmt.Fprintf(&content, "\n  Signature: %s", sig)
		}
	}
	r.log.Push(oplog.Entry{Title: titleComplete, Content: content.String(), Variant: oplog.VariantSuccess})

	visibility := cache.ConfidentialVisibilityKey(tokenAccount.String())
	r.cache.Set(visibility, false)
	for _, key := range r.InvalidationKeys(tokenAccount, owner) {
		r.cache.Invalidate(key)
	}
}

// Failure emits one error notification and one audit entry. Caches are not touched.
func (r *Reconciler) Failure(tokenAccount solana.PublicKey, err error) {
	r.notifier.Error("Transfer failed! " + err.Error())
	r.log.Push(oplog.Entry{
		Title:   titleFailed,
		Content: fmt.Sprintf("Transfer transaction failed\n  Token account: %s\n  Error: %s", tokenAccount, err),
		Variant: oplog.VariantError,
	})
}

// InvalidationKeys are the four views a completed transfer makes stale.
// Signature history is scoped to the wallet, the rest to the token account.
func (r *Reconciler) InvalidationKeys(tokenAccount, owner solana.PublicKey) []cache.Key {
	return []cache.Key{
		cache.ConfidentialVisibilityKey(tokenAccount.String()),
		cache.BalanceKey(r.endpoint, tokenAccount.String()),
		cache.SignaturesKey(r.endpoint, owner.String()),
		cache.TokenAccountsKey(r.endpoint, tokenAccount.String()),
	}
}
