package commerce

import (
	"context"
	"strings"
	"time"

	"github.com/banksyndicate/core/internal/entities"
)

// RequestAutonomousApproval implements §4.6.4: polls voteAgentIDs for a
// simulated opinion on tx and approves when the approve-vote ratio
// meets or exceeds the configured consensus threshold. timeoutSeconds
// bounds how many voters get polled, matching the reference
// implementation's time-budgeted voting loop; since voting here is a
// synchronous simulation rather than a real round-trip, the bound only
// ever trims the tail of an oversized voter list.
func (c *Commerce) RequestAutonomousApproval(ctx context.Context, tx *entities.Transaction, voterAgentIDs []string, timeoutSeconds int) (bool, []entities.ConsensusVote) {
	votes := make([]entities.ConsensusVote, 0, len(voterAgentIDs))
	deadline := c.clock.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	for _, voterID := range voterAgentIDs {
		if ctx.Err() != nil || c.clock.Now().After(deadline) {
			break
		}
		votes = append(votes, c.simulateAgentVote(voterID, tx))
	}

	total := len(votes)
	if total == 0 {
		return false, votes
	}
	approveCount := 0
	for _, v := range votes {
		if v.Vote == entities.VoteApprove {
			approveCount++
		}
	}
	approvalRate := float64(approveCount) / float64(total)
	approved := approvalRate >= c.cfg.ConsensusThreshold
	return approved, votes
}

// simulateAgentVote mirrors the reference heuristic exactly: a baseline
// approve at 0.8 confidence, dampened for large amounts, flipped to
// reject for dust amounts, and further dampened (and possibly flipped)
// for any voter whose ID self-identifies as "conservative".
func (c *Commerce) simulateAgentVote(voterID string, tx *entities.Transaction) entities.ConsensusVote {
	confidence := 0.8
	vote := entities.VoteApprove
	reasoning := "Transaction appears legitimate"

	if tx.Amount > 1000 {
		confidence -= 0.2
		reasoning = "High amount requires caution"
	}
	if tx.Amount < 0.01 {
		vote = entities.VoteReject
		confidence = 0.9
		reasoning = "Amount too low, possible spam"
	}

	if strings.Contains(strings.ToLower(voterID), "conservative") {
		confidence -= 0.1
		if tx.Amount > 500 {
			vote = entities.VoteReject
			reasoning = "Conservative policy: amount too high"
		}
	}

	return entities.ConsensusVote{
		VoterAgentID: voterID,
		Vote:         vote,
		Confidence:   confidence,
		Reasoning:    reasoning,
		Timestamp:    c.clock.Now(),
	}
}
