package ports

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// LedgerConnector is the core's only window onto the on-chain world. The
// concrete Arc/Polygon/Ethereum JSON-RPC client is out of scope
// (spec §1); SimulatedLedger below is the deterministic default every
// division and the Credit Engine fall back to.
type LedgerConnector interface {
	CreateWallet(ctx context.Context, agentID string) (address string, err error)
	GetBalance(ctx context.Context, address string) (float64, error)
	SendTransaction(ctx context.Context, from, to string, amount float64) (txHash string, blockNumber uint64, gasUsed uint64, err error)
	EstimateGas(ctx context.Context, baseGas uint64) (uint64, error)
	Deposit(ctx context.Context, address string, amount float64) error
	Withdraw(ctx context.Context, address string, amount float64) error
	GetAPY(ctx context.Context, token string) (float64, error)
	NetworkCongestion(ctx context.Context) (float64, error)
	ChainID() int64
}

// defaultAPYTable mirrors the per-token table described in spec §4.2.3;
// values are representative stablecoin/ETH yield APYs, not live data.
var defaultAPYTable = map[string]float64{
	"USDC": 0.045,
	"ETH":  0.032,
	"":     0.04, // unspecified token falls back to a blended default
}

const congestionWindow = 20

// SimulatedLedger is the deterministic, in-memory LedgerConnector
// default. Balances are derived entirely from calls this ledger itself
// received (Deposit/Withdraw/SendTransaction) rather than from any
// external chain; hashes are synthesized from their inputs plus the
// clock so that results are reproducible given a FixedClock.
//
// Grounded on the teacher's provider.Registry (RWMutex-guarded map with
// lock-free snapshot reads) and on the congestion-sampling idiom in
// leanlp-BTC-coinjoin's mempool poller, here reduced to a bounded ring
// of recent observations averaged into one scalar.
type SimulatedLedger struct {
	clock   Clock
	chainID int64

	mu        sync.RWMutex
	balances  map[string]float64
	congest   [congestionWindow]float64
	congestN  int
	congestAt int
}

func NewSimulatedLedger(clock Clock, chainID int64) *SimulatedLedger {
	return &SimulatedLedger{
		clock:    clock,
		chainID:  chainID,
		balances: make(map[string]float64),
	}
}

func (l *SimulatedLedger) CreateWallet(_ context.Context, agentID string) (string, error) {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", agentID, l.clock.NewUUID())))
	addr := fmt.Sprintf("0x%x", h[:20])

	l.mu.Lock()
	l.balances[addr] = 0
	l.mu.Unlock()
	return addr, nil
}

func (l *SimulatedLedger) GetBalance(_ context.Context, address string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address], nil
}

func (l *SimulatedLedger) SendTransaction(_ context.Context, from, to string, amount float64) (string, uint64, uint64, error) {
	l.mu.Lock()
	l.balances[from] -= amount
	l.balances[to] += amount
	l.mu.Unlock()

	now := l.clock.Now()
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%f|%d", from, to, amount, now.UnixNano())))
	txHash := fmt.Sprintf("0x%x", h)
	blockNumber := uint64(now.Unix())
	gasUsed := uint64(21000)
	return txHash, blockNumber, gasUsed, nil
}

func (l *SimulatedLedger) EstimateGas(_ context.Context, baseGas uint64) (uint64, error) {
	return uint64(float64(baseGas) * 1.2), nil
}

func (l *SimulatedLedger) Deposit(_ context.Context, address string, amount float64) error {
	l.mu.Lock()
	l.balances[address] += amount
	l.mu.Unlock()
	return nil
}

func (l *SimulatedLedger) Withdraw(_ context.Context, address string, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[address] < amount {
		return fmt.Errorf("simulated ledger: insufficient balance for withdrawal at %s", address)
	}
	l.balances[address] -= amount
	return nil
}

func (l *SimulatedLedger) GetAPY(_ context.Context, token string) (float64, error) {
	if apy, ok := defaultAPYTable[token]; ok {
		return apy, nil
	}
	return defaultAPYTable[""], nil
}

// RecordCongestionSample feeds one observation (0..1) into the bounded
// ring; a real connector would call this each time it polls the chain.
// Exposed so tests and the demo entrypoint can shape congestion without
// waiting on wall time.
func (l *SimulatedLedger) RecordCongestionSample(sample float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.congest[l.congestAt%congestionWindow] = sample
	l.congestAt++
	if l.congestN < congestionWindow {
		l.congestN++
	}
}

func (l *SimulatedLedger) NetworkCongestion(_ context.Context) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.congestN == 0 {
		return 0, nil
	}
	var sum float64
	for i := 0; i < l.congestN; i++ {
		sum += l.congest[i]
	}
	return sum / float64(l.congestN), nil
}

func (l *SimulatedLedger) ChainID() int64 { return l.chainID }

var _ LedgerConnector = (*SimulatedLedger)(nil)
