package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/AlexZinkM/cb-transfer/internal/cache"
	"github.com/AlexZinkM/cb-transfer/internal/model"
	"github.com/AlexZinkM/cb-transfer/internal/oplog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

var errInjected = errors.New("injected failure")

// signingWallet signs messages with a fixed prefix and records transaction signing.
type signingWallet struct {
	owner         solana.PublicKey
	connected     bool
	failMessageAt int // -1 never
	failSignAt    int // -1 never
	mu            sync.Mutex
	messages      []string
	txSigned      int
}

func newSigningWallet() *signingWallet {
	return &signingWallet{owner: solana.NewWallet().PublicKey(), connected: true, failMessageAt: -1, failSignAt: -1}
}

func (w *signingWallet) PublicKey() (solana.PublicKey, bool) {
	return w.owner, w.connected
}

func (w *signingWallet) SignMessage(_ context.Context, message []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, string(message))
	if len(w.messages)-1 == w.failMessageAt {
		return nil, errInjected
	}
	return append([]byte("sig:"), message...), nil
}

func (w *signingWallet) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.txSigned == w.failSignAt {
		return errInjected
	}
	w.txSigned++
	return nil
}

// plainWallet cannot sign messages.
type plainWallet struct {
	owner solana.PublicKey
}

func (w plainWallet) PublicKey() (solana.PublicKey, bool) { return w.owner, true }

func (w plainWallet) SignTransaction(context.Context, *solana.Transaction) error { return nil }

type fakeChain struct {
	mu       sync.Mutex
	calls    int
	accounts map[solana.PublicKey][]byte
	rents    map[uint64]uint64
	block    model.BlockReference
	readErr  error
	blockErr error
	rentErr  error
}

func (c *fakeChain) GetAccount(_ context.Context, address solana.PublicKey) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.accounts[address], nil
}

func (c *fakeChain) GetRentExemption(_ context.Context, size uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.rentErr != nil {
		return 0, c.rentErr
	}
	return c.rents[size], nil
}

func (c *fakeChain) GetLatestBlockReference(context.Context) (model.BlockReference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.blockErr != nil {
		return model.BlockReference{}, c.blockErr
	}
	return c.block, nil
}

func (c *fakeChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fakeSender hands out signatures 1, 2, 3... and can fail send or confirm at an index.
type fakeSender struct {
	sent          []solana.Signature
	confirmed     []solana.Signature
	failSendAt    int
	failConfirmAt int
}

func newFakeSender() *fakeSender {
	return &fakeSender{failSendAt: -1, failConfirmAt: -1}
}

func (s *fakeSender) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	if len(s.sent) == s.failSendAt {
		return solana.Signature{}, errInjected
	}
	sig := solana.Signature{byte(len(s.sent) + 1)}
	s.sent = append(s.sent, sig)
	return sig, nil
}

func (s *fakeSender) ConfirmTransaction(_ context.Context, sig solana.Signature, _ model.BlockReference) error {
	if len(s.confirmed) == s.failConfirmAt {
		return errInjected
	}
	s.confirmed = append(s.confirmed, sig)
	return nil
}

type fakeProofs struct {
	spaces     model.ProofSpaces
	spacesErr  error
	resp       *model.TransferResponse
	requestErr error
	requests   []model.TransferRequest
	calls      int
}

func (p *fakeProofs) GetProofSpaces(context.Context) (model.ProofSpaces, error) {
	p.calls++
	return p.spaces, p.spacesErr
}

func (p *fakeProofs) RequestTransfer(_ context.Context, req model.TransferRequest) (*model.TransferResponse, error) {
	p.calls++
	p.requests = append(p.requests, req)
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.resp, nil
}

// recordingCache records mutations on top of an in-memory cache.
type recordingCache struct {
	*cache.Memory
	sets        []cache.Key
	invalidated []cache.Key
}

func newRecordingCache() *recordingCache {
	return &recordingCache{Memory: cache.NewMemory()}
}

func (c *recordingCache) Set(key cache.Key, value any) {
	c.sets = append(c.sets, key)
	c.Memory.Set(key, value)
}

func (c *recordingCache) Invalidate(key cache.Key) {
	c.invalidated = append(c.invalidated, key)
	c.Memory.Invalidate(key)
}

type recordingNotifier struct {
	successes    []string
	errors       []string
	transactions []solana.Signature
}

func (n *recordingNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *recordingNotifier) Error(message string) { n.errors = append(n.errors, message) }
func (n *recordingNotifier) Transaction(sig solana.Signature) {
	n.transactions = append(n.transactions, sig)
}

type recordingLog struct {
	entries []oplog.Entry
}

func (l *recordingLog) Push(e oplog.Entry) { l.entries = append(l.entries, e) }

// encodedBundle builds n unsigned wire transactions paid by payer.
func encodedBundle(t *testing.T, payer solana.PublicKey, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tx, err := solana.NewTransaction(
			[]solana.Instruction{system.NewTransferInstruction(uint64(i+1), payer, solana.NewWallet().PublicKey()).Build()},
			solana.Hash{byte(i + 1)},
			solana.TransactionPayer(payer),
		)
		if err != nil {
			t.Fatalf("NewTransaction() error: %v", err)
		}
		tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
		raw, err := tx.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary() error: %v", err)
		}
		out = append(out, base64.StdEncoding.EncodeToString(raw))
	}
	return out
}
