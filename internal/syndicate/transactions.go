package syndicate

import (
	"context"

	"github.com/banksyndicate/core/internal/entities"
)

// ProcessTransaction implements §6's `ProcessTransaction(tx,
// agent_state, ctx?)`, forwarded directly to the coordinator.
func (s *Syndicate) ProcessTransaction(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) (*entities.TransactionEvaluation, error) {
	return s.coordinator.ProcessTransaction(ctx, tx, agent)
}

// ProcessAgenticCommerceTransaction implements §6's
// `ProcessAgenticCommerceTransaction(tx, agent_state, ctx?,
// skip_consensus?)`. Unless skipConsensus is set, it first polls up to
// maxConsensusVoters other onboarded agents for an autonomous approval
// vote (§4.6.4) before settling tx through the ordinary S1..S5
// pipeline; a consensus rejection short-circuits to BLOCKED without
// ever reaching the coordinator. With no other onboarded agents to
// poll, there is nothing to veto, so the gate passes trivially.
func (s *Syndicate) ProcessAgenticCommerceTransaction(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState, skipConsensus bool) (*entities.TransactionEvaluation, error) {
	if !skipConsensus {
		voters := s.otherAgentIDs(tx.AgentID, maxConsensusVoters)
		if len(voters) > 0 {
			approved, votes := s.commerce.RequestAutonomousApproval(ctx, tx, voters, int(s.cfg.ProtocolDeadline.Seconds()))
			tx.Metadata["consensus_votes"] = votes
			if !approved {
				eval := entities.NewEvaluation(tx)
				eval.Consensus = entities.ConsensusBlocked
				eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleSystem, "autonomous cross-agent consensus rejected the transaction", s.clock.Now()))
				return eval, nil
			}
		}
	}
	return s.coordinator.ProcessTransaction(ctx, tx, agent)
}
