package divisions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
)

const (
	baseGas           = 21000
	purchaseGasAdd    = 50000
	investmentGasAdd  = 100000
	gasSafetyFactor   = 1.2
	congestionRiskCut = 0.8
	settlementRetries = 3
)

// ZKCommitment is the mock range-proof-style settlement commitment
// described in §4.2.4. Gas and ZKP are explicitly simulated (§9); this
// is a hash, not a real proof.
type ZKCommitment struct {
	Commitment   string
	AmountBucket int
	Timestamp    time.Time
	TxID         string
}

// Clearing estimates gas, checks it against the configured cap and
// current network congestion, then stamps approved transactions with a
// settlement result.
type Clearing struct {
	healthTracker

	cfg    *config.Config
	log    zerolog.Logger
	clock  ports.Clock
	ledger ports.LedgerConnector

	mu                sync.Mutex
	pendingSettlements map[string]*entities.Transaction
	history           []*entities.Transaction
}

func NewClearing(cfg *config.Config, log zerolog.Logger, clock ports.Clock, ledger ports.LedgerConnector) *Clearing {
	return &Clearing{
		cfg:                cfg,
		log:                log.With().Str("division", "clearing").Logger(),
		clock:              clock,
		ledger:             ledger,
		pendingSettlements: make(map[string]*entities.Transaction),
	}
}

func (c *Clearing) Role() entities.Role { return entities.RoleClearing }

// rawBaseGas is the per-type overhead before the safety multiplier.
func rawBaseGas(txType entities.TxType) uint64 {
	gas := uint64(baseGas)
	switch txType {
	case entities.TxPurchase:
		gas += purchaseGasAdd
	case entities.TxInvestment:
		gas += investmentGasAdd
	}
	return gas
}

// EstimateBaseGas is the no-ledger fallback gas estimate: per-type
// overhead with the 1.2x safety factor applied directly.
func EstimateBaseGas(txType entities.TxType) uint64 {
	return uint64(float64(rawBaseGas(txType)) * gasSafetyFactor)
}

func (c *Clearing) Analyze(ctx context.Context, tx *entities.Transaction, _ *entities.AgentState) entities.DivisionAnalysis {
	now := c.clock.Now()

	gasEstimate := EstimateBaseGas(tx.TxType)
	if c.ledger != nil {
		if estimated, err := c.ledger.EstimateGas(ctx, rawBaseGas(tx.TxType)); err == nil {
			gasEstimate = estimated
		}
	}
	tx.GasEstimate = gasEstimate

	if gasEstimate > c.cfg.MaxGasLimit {
		return entities.NewBlocker(c.Role(), fmt.Sprintf("estimated gas %d exceeds max gas limit %d", gasEstimate, c.cfg.MaxGasLimit), now)
	}

	risk := 0.0
	var alerts []string
	if c.ledger != nil {
		if congestion, err := c.ledger.NetworkCongestion(ctx); err == nil && congestion > congestionRiskCut {
			risk = 0.3 * congestion
			alerts = append(alerts, "network congestion elevated")
		}
	}

	return entities.DivisionAnalysis{
		AgentRole: c.Role(),
		Decision:  entities.DecisionApprove,
		RiskScore: risk,
		Reasoning: "gas within limit and congestion acceptable",
		Alerts:    alerts,
		Metadata:  map[string]any{"gas_estimate": gasEstimate},
		Timestamp: now,
	}
}

// Execute implements "execute": settles the transaction against the
// ledger with up to settlementRetries attempts and linear backoff
// (original_source/divisions/clearing_settlement_agent_extended.py),
// then stamps it with a tx hash, block number, gas used, and a mock ZK
// commitment before transitioning pending → executing → completed.
func (c *Clearing) Execute(ctx context.Context, tx *entities.Transaction, action string, agent *entities.AgentState) (ActionResult, error) {
	start := c.clock.Now()

	if action != "execute" {
		err := fmt.Errorf("clearing: unsupported action %q", action)
		c.recordHealth(start, c.clock.Now().Sub(start), err)
		return ActionResult{Success: false, Reason: err.Error()}, err
	}

	tx.State = entities.TxExecuting
	c.track(tx)

	var txHash string
	var blockNumber, gasUsed uint64
	var err error
	for attempt := 0; attempt < settlementRetries; attempt++ {
		if c.ledger != nil {
			txHash, blockNumber, gasUsed, err = c.ledger.SendTransaction(ctx, agent.WalletAddress, tx.Supplier, tx.Amount)
		} else {
			txHash, blockNumber, gasUsed = syntheticSettlement(tx, c.clock.Now())
			err = nil
		}
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}

	if err != nil {
		tx.State = entities.TxFailed
		c.untrack(tx.TxID)
		c.recordHealth(start, c.clock.Now().Sub(start), err)
		return ActionResult{Success: false, Reason: fmt.Sprintf("settlement failed after %d attempts: %v", settlementRetries, err)}, err
	}

	tx.TxHash = txHash
	tx.BlockNumber = blockNumber
	tx.GasUsed = gasUsed
	tx.State = entities.TxCompleted

	commitment := c.buildCommitment(tx)
	c.untrack(tx.TxID)
	c.recordHistory(tx)

	c.recordHealth(start, c.clock.Now().Sub(start), nil)
	return ActionResult{
		Success: true,
		Metadata: map[string]any{
			"tx_hash":      txHash,
			"block_number": blockNumber,
			"gas_used":     gasUsed,
			"zk_commitment": commitment,
		},
	}, nil
}

func (c *Clearing) buildCommitment(tx *entities.Transaction) ZKCommitment {
	secret := c.clock.NewUUID()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%f|%s", tx.TxID, tx.Amount, secret)))
	return ZKCommitment{
		Commitment:   hex.EncodeToString(sum[:]),
		AmountBucket: amountBucket(tx.Amount),
		Timestamp:    c.clock.Now(),
		TxID:         tx.TxID,
	}
}

// amountBucket reduces the amount to a coarse order-of-magnitude bucket
// so the public commitment inputs don't leak the exact amount.
func amountBucket(amount float64) int {
	bucket := 0
	for v := amount; v >= 10; v /= 10 {
		bucket++
	}
	return bucket
}

func syntheticSettlement(tx *entities.Transaction, now time.Time) (string, uint64, uint64) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", tx.TxID, now.UnixNano())))
	return "0x" + hex.EncodeToString(sum[:]), uint64(now.Unix()), uint64(float64(tx.GasEstimate) / gasSafetyFactor)
}

func (c *Clearing) track(tx *entities.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingSettlements[tx.TxID] = tx
}

func (c *Clearing) untrack(txID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pendingSettlements, txID)
}

func (c *Clearing) recordHistory(tx *entities.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, tx)
}

// History returns a snapshot of settled transactions.
func (c *Clearing) History() []*entities.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*entities.Transaction, len(c.history))
	copy(out, c.history)
	return out
}

var _ Division = (*Clearing)(nil)
