package coordinator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

const fastTrackMicropaymentCeiling = 1.0

// eligibleForFastTrack reports whether tx qualifies for the §4.3.1
// fast-track path: a micropayment under the ceiling, intended for
// already-batched aggregates that have already cleared consensus once
// as individual API usage records.
func eligibleForFastTrack(tx *entities.Transaction) bool {
	return tx.TxType == entities.TxMicropayment && tx.Amount < fastTrackMicropaymentCeiling
}

// fastTrack bypasses S1..S4.5 entirely: solvency is the only check, a
// synthetic settlement stamp is applied directly, and S5 bookkeeping
// runs exactly as it would on the normal path. Must be called with the
// agent's per-agent lock already held.
func (c *Coordinator) fastTrack(tx *entities.Transaction, agent *entities.AgentState) *entities.TransactionEvaluation {
	eval := entities.NewEvaluation(tx)
	now := c.clock.Now()

	if tx.Amount > agent.AvailableBalance {
		tx.State = entities.TxFailed
		eval.Consensus = entities.ConsensusBlocked
		eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleTreasury, "insufficient available balance for fast-tracked micropayment", now))
		return eval
	}

	tx.TxHash, tx.BlockNumber = syntheticFastTrackStamp(tx, now)
	tx.State = entities.TxCompleted

	c.postTrade(agent, tx)
	eval.Consensus = entities.ConsensusApproved
	eval.FinalRiskScore = 0
	return eval
}

func syntheticFastTrackStamp(tx *entities.Transaction, now time.Time) (string, uint64) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("fasttrack|%s|%d", tx.TxID, now.Unix())))
	return "0x" + hex.EncodeToString(sum[:]), uint64(now.Unix())
}
