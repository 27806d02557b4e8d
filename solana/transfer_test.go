package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"
	"github.com/AlexZinkM/cb-transfer/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

const testEndpoint = "https://api.devnet.solana.com"

var (
	acct1 = solana.PublicKey{0xA1}
	acct2 = solana.PublicKey{0xA2}
	mintA = solana.PublicKey{0xB1}
)

type harness struct {
	wallet   *signingWallet
	chain    *fakeChain
	sender   *fakeSender
	proofs   *fakeProofs
	cache    *recordingCache
	notifier *recordingNotifier
	log      *recordingLog
	metrics  *Metrics
}

func newHarness(t *testing.T, bundleSize int) *harness {
	t.Helper()
	w := newSigningWallet()
	return &harness{
		wallet: w,
		chain: &fakeChain{
			accounts: map[solana.PublicKey][]byte{
				acct1: {0x01, 0x01},
				acct2: {0x02, 0x02},
				mintA: {0x03, 0x03},
			},
			rents: map[uint64]uint64{100: 50, 200: 75, 300: 90},
			block: model.BlockReference{Blockhash: solana.Hash{0x42}, LastValidBlockHeight: 1_000},
		},
		sender: newFakeSender(),
		proofs: &fakeProofs{
			spaces: model.ProofSpaces{EqualityProofSpace: 100, CiphertextValidityProofSpace: 200, RangeProofSpace: 300},
			resp: &model.TransferResponse{
				Transactions: encodedBundle(t, w.owner, bundleSize),
				Extra:        map[string]json.RawMessage{"fee": json.RawMessage(`"5000"`)},
			},
		},
		cache:    newRecordingCache(),
		notifier: &recordingNotifier{},
		log:      &recordingLog{},
		metrics:  NewMetrics(),
	}
}

func (h *harness) transferer(w wallet.Wallet, concurrency int) *Transferer {
	return NewTransferer(Deps{
		Wallet:          w,
		Chain:           h.chain,
		Sender:          h.sender,
		Proofs:          h.proofs,
		Cache:           h.cache,
		Notifier:        h.notifier,
		Log:             h.log,
		Metrics:         h.metrics,
		Logger:          zerolog.Nop(),
		Endpoint:        testEndpoint,
		ReadConcurrency: concurrency,
	})
}

func (h *harness) run(t *testing.T) (*TransferOutcome, error) {
	t.Helper()
	return h.transferer(h.wallet, 4).Transfer(context.Background(), TransferParams{
		SenderTokenAccount: acct1,
		Recipient:          acct2,
		Mint:               mintA,
		Amount:             1000,
	})
}

func TestTransferSuccess(t *testing.T) {
	h := newHarness(t, 2)

	outcome, err := h.run(t)
	if err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}

	want := []solana.Signature{{1}, {2}}
	if !slices.Equal(outcome.Signatures, want) {
		t.Errorf("signatures = %v, want %v", outcome.Signatures, want)
	}
	if outcome.Amount != 1000 {
		t.Errorf("amount = %d", outcome.Amount)
	}
	if string(outcome.Extra["fee"]) != `"5000"` {
		t.Errorf("extra = %v", outcome.Extra)
	}

	if len(h.proofs.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(h.proofs.requests))
	}
	req := h.proofs.requests[0]
	enc := base64.StdEncoding
	checks := map[string][2]string{
		"elgamal_signature":              {req.ElGamalSignature, enc.EncodeToString([]byte("sig:" + wallet.ElGamalSeedMessage))},
		"aes_signature":                  {req.AESSignature, enc.EncodeToString([]byte("sig:" + wallet.AESSeedMessage))},
		"sender_token_account":           {req.SenderTokenAccount, enc.EncodeToString([]byte{0x01, 0x01})},
		"recipient_token_account":        {req.RecipientTokenAccount, enc.EncodeToString([]byte{0x02, 0x02})},
		"mint_token_account":             {req.MintTokenAccount, enc.EncodeToString([]byte{0x03, 0x03})},
		"amount":                         {req.Amount, "1000"},
		"priority_fee":                   {req.PriorityFee, "100000000"},
		"latest_blockhash":               {req.LatestBlockhash, solana.Hash{0x42}.String()},
		"equality_proof_rent":            {req.EqualityProofRent, "50"},
		"ciphertext_validity_proof_rent": {req.CiphertextValidityProofRent, "75"},
		"range_proof_rent":               {req.RangeProofRent, "90"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", field, c[0], c[1])
		}
	}

	if !slices.Equal(h.wallet.messages, []string{wallet.ElGamalSeedMessage, wallet.AESSeedMessage}) {
		t.Errorf("seed messages = %v", h.wallet.messages)
	}
	if h.wallet.txSigned != 2 {
		t.Errorf("transactions signed = %d, want 2", h.wallet.txSigned)
	}

	wantInvalidated := []cache.Key{
		cache.ConfidentialVisibilityKey(acct1.String()),
		cache.BalanceKey(testEndpoint, acct1.String()),
		cache.SignaturesKey(testEndpoint, h.wallet.owner.String()),
		cache.TokenAccountsKey(testEndpoint, acct1.String()),
	}
	if !slices.Equal(h.cache.invalidated, wantInvalidated) {
		t.Errorf("invalidated = %v, want %v", h.cache.invalidated, wantInvalidated)
	}
	if v, _, ok := h.cache.Get(cache.ConfidentialVisibilityKey(acct1.String())); !ok || v != false {
		t.Errorf("visibility = %v (present %v), want false", v, ok)
	}

	if !slices.Equal(h.notifier.transactions, want) {
		t.Errorf("transaction notifications = %v", h.notifier.transactions)
	}
	if len(h.notifier.successes) != 1 || len(h.notifier.errors) != 0 {
		t.Errorf("notifications: %d success, %d error", len(h.notifier.successes), len(h.notifier.errors))
	}
	if len(h.log.entries) != 1 || h.log.entries[0].Variant != oplog.VariantSuccess {
		t.Fatalf("log entries = %+v", h.log.entries)
	}
	if !strings.Contains(h.log.entries[0].Content, "Signature #2: "+solana.Signature{2}.String()) {
		t.Errorf("log content = %q", h.log.entries[0].Content)
	}
}

func TestTransferSerialReads(t *testing.T) {
	h := newHarness(t, 1)
	tr := h.transferer(h.wallet, 1)
	if _, err := tr.Transfer(context.Background(), TransferParams{SenderTokenAccount: acct1, Recipient: acct2, Mint: mintA, Amount: 1}); err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}
	// 3 accounts + blockhash + 3 rents
	if got := h.chain.callCount(); got != 7 {
		t.Errorf("chain calls = %d, want 7", got)
	}
}

func TestTransferWalletWithoutMessageSigning(t *testing.T) {
	h := newHarness(t, 1)
	tr := h.transferer(plainWallet{owner: h.wallet.owner}, 4)

	_, err := tr.Transfer(context.Background(), TransferParams{SenderTokenAccount: acct1, Recipient: acct2, Mint: mintA, Amount: 1})
	if !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("err = %v, want ErrWalletUnavailable", err)
	}
	if h.chain.callCount() != 0 || h.proofs.calls != 0 || len(h.sender.sent) != 0 {
		t.Errorf("network calls made: chain=%d proofs=%d sends=%d", h.chain.callCount(), h.proofs.calls, len(h.sender.sent))
	}
	assertFailureReported(t, h)
}

func TestTransferWalletDisconnected(t *testing.T) {
	h := newHarness(t, 1)
	h.wallet.connected = false

	_, err := h.run(t)
	if !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("err = %v, want ErrWalletUnavailable", err)
	}
	if len(h.wallet.messages) != 0 {
		t.Errorf("seed messages signed without a connected wallet: %v", h.wallet.messages)
	}
	assertFailureReported(t, h)
}

func TestTransferSeedSigningRejected(t *testing.T) {
	tests := []struct {
		name      string
		failAt    int
		wantCalls []string
	}{
		{"elgamal rejected", 0, []string{wallet.ElGamalSeedMessage}},
		{"aes rejected", 1, []string{wallet.ElGamalSeedMessage, wallet.AESSeedMessage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1)
			h.wallet.failMessageAt = tt.failAt

			_, err := h.run(t)
			if !errors.Is(err, ErrSigningRejected) {
				t.Fatalf("err = %v, want ErrSigningRejected", err)
			}
			if got := StageOf(err); got != StageSeeds {
				t.Errorf("stage = %s, want %s", got, StageSeeds)
			}
			if !slices.Equal(h.wallet.messages, tt.wantCalls) {
				t.Errorf("messages signed = %v, want %v", h.wallet.messages, tt.wantCalls)
			}
			if h.chain.callCount() != 0 || h.proofs.calls != 0 || len(h.sender.sent) != 0 {
				t.Errorf("network calls made: chain=%d proofs=%d sends=%d", h.chain.callCount(), h.proofs.calls, len(h.sender.sent))
			}
			assertFailureReported(t, h)
		})
	}
}

func TestTransferStageFailures(t *testing.T) {
	tests := []struct {
		name   string
		inject func(h *harness)
		kind   error
		stage  Stage
	}{
		{
			name:   "missing recipient",
			inject: func(h *harness) { delete(h.chain.accounts, acct2) },
			kind:   ErrAccountNotFound,
			stage:  StageAccounts,
		},
		{
			name:   "account read error",
			inject: func(h *harness) { h.chain.readErr = errInjected },
			kind:   ErrChainUnavailable,
			stage:  StageAccounts,
		},
		{
			name:   "blockhash error",
			inject: func(h *harness) { h.chain.blockErr = errInjected },
			kind:   ErrChainUnavailable,
			stage:  StageAccounts,
		},
		{
			name:   "sizing error",
			inject: func(h *harness) { h.proofs.spacesErr = errInjected },
			kind:   ErrSizingUnavailable,
			stage:  StageSizing,
		},
		{
			name:   "zero proof space",
			inject: func(h *harness) { h.proofs.spaces.RangeProofSpace = 0 },
			kind:   ErrSizingUnavailable,
			stage:  StageSizing,
		},
		{
			name:   "rent error",
			inject: func(h *harness) { h.chain.rentErr = errInjected },
			kind:   ErrChainUnavailable,
			stage:  StageRent,
		},
		{
			name:   "service error",
			inject: func(h *harness) { h.proofs.requestErr = errInjected },
			kind:   ErrTransferRequestFailed,
			stage:  StageRequest,
		},
		{
			name:   "empty bundle",
			inject: func(h *harness) { h.proofs.resp.Transactions = nil },
			kind:   ErrTransferRequestFailed,
			stage:  StageRequest,
		},
		{
			name:   "undecodable transaction",
			inject: func(h *harness) { h.proofs.resp.Transactions = []string{"not base64!"} },
			kind:   ErrSubmissionFailed,
			stage:  StageSubmission,
		},
		{
			name:   "signing rejected",
			inject: func(h *harness) { h.wallet.failSignAt = 0 },
			kind:   ErrSigningRejected,
			stage:  StageSigning,
		},
		{
			name:   "send error",
			inject: func(h *harness) { h.sender.failSendAt = 0 },
			kind:   ErrSubmissionFailed,
			stage:  StageSubmission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 2)
			tt.inject(h)

			outcome, err := h.run(t)
			if outcome != nil {
				t.Errorf("outcome = %+v, want nil", outcome)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if got := StageOf(err); got != tt.stage {
				t.Errorf("stage = %s, want %s", got, tt.stage)
			}
			assertFailureReported(t, h)
		})
	}
}

func TestTransferMissingAccountNamesRole(t *testing.T) {
	h := newHarness(t, 1)
	delete(h.chain.accounts, mintA)

	_, err := h.run(t)
	if err == nil || !strings.Contains(err.Error(), "mint account "+mintA.String()) {
		t.Fatalf("err = %v", err)
	}
}

func TestTransferPartialFailureKeepsConfirmed(t *testing.T) {
	for j := 0; j < 3; j++ {
		h := newHarness(t, 3)
		h.sender.failConfirmAt = j

		_, err := h.run(t)
		var te *TransferError
		if !errors.As(err, &te) {
			t.Fatalf("j=%d: err = %v, want *TransferError", j, err)
		}
		if te.Index != j {
			t.Errorf("j=%d: index = %d", j, te.Index)
		}
		if len(te.Confirmed) != j {
			t.Errorf("j=%d: confirmed = %d, want %d", j, len(te.Confirmed), j)
		}
		if te.Signature == nil || *te.Signature != (solana.Signature{byte(j + 1)}) {
			t.Errorf("j=%d: failing signature = %v", j, te.Signature)
		}
		if !errors.Is(err, errInjected) {
			t.Errorf("j=%d: cause not preserved: %v", j, err)
		}
		// Nothing after the failing transaction is sent.
		if len(h.sender.sent) != j+1 {
			t.Errorf("j=%d: sent = %d, want %d", j, len(h.sender.sent), j+1)
		}
		assertFailureReported(t, h)
	}
}

func TestTransferNotRetried(t *testing.T) {
	h := newHarness(t, 1)
	h.proofs.requestErr = errInjected

	if _, err := h.run(t); err == nil {
		t.Fatal("expected error")
	}
	if len(h.proofs.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(h.proofs.requests))
	}
}

// assertFailureReported checks that a failure produced exactly one error
// notification and one audit entry and left the cache untouched.
func assertFailureReported(t *testing.T, h *harness) {
	t.Helper()
	if len(h.notifier.errors) != 1 || len(h.notifier.successes) != 0 {
		t.Errorf("notifications: %d error, %d success", len(h.notifier.errors), len(h.notifier.successes))
	}
	if len(h.notifier.errors) == 1 && !strings.HasPrefix(h.notifier.errors[0], "Transfer failed! ") {
		t.Errorf("error notification = %q", h.notifier.errors[0])
	}
	if len(h.log.entries) != 1 || h.log.entries[0].Variant != oplog.VariantError {
		t.Errorf("log entries = %+v", h.log.entries)
	}
	if len(h.cache.sets) != 0 || len(h.cache.invalidated) != 0 {
		t.Errorf("cache mutated: sets=%v invalidated=%v", h.cache.sets, h.cache.invalidated)
	}
}
