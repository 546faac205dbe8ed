package syndicate

import (
	"context"

	"github.com/banksyndicate/core/internal/entities"
)

// OnboardAgent implements §6's `OnboardAgent(agent_id?, initial_deposit,
// metadata)`: mints a wallet via Front-Office's "onboard" action, seeds
// the available balance with initialDeposit, and — when positive —
// immediately routes TreasuryAllocationPercent of it into the yield
// position via Treasury's "deposit" action, the same path a later
// manual deposit would take. agentID empty generates a fresh one.
func (s *Syndicate) OnboardAgent(ctx context.Context, agentID string, initialDeposit float64, metadata map[string]any) (*entities.AgentState, error) {
	if agentID == "" {
		agentID = "agent-" + s.clock.NewUUID()
	}

	onboardTx := entities.NewTransaction("onboard-"+agentID, agentID, entities.TxDeposit, 0, "", "onboarding", s.clock.Now())
	result, err := s.frontOffice.Execute(ctx, onboardTx, "onboard", nil)
	if err != nil {
		return nil, err
	}

	agent := result.Agent
	agent.AvailableBalance = entities.RoundMinorUnit(initialDeposit)
	if metadata != nil {
		onboardTx.Metadata = metadata
	}

	if agent.AvailableBalance > 0 {
		if _, err := s.treasury.Execute(ctx, onboardTx, "deposit", agent); err != nil {
			s.log.Warn().Err(err).Str("agent_id", agentID).Msg("initial treasury allocation failed during onboarding")
		}
	}

	s.putAgent(agent)
	if s.persister != nil {
		if err := s.persister.SaveAgentState(ctx, agent); err != nil {
			s.log.Warn().Err(err).Str("agent_id", agentID).Msg("failed to persist agent state during onboarding")
		}
	}
	return agent, nil
}
