// Package coordinator implements the Transaction Lifecycle Coordinator
// (§4.3): the ordered S1..S5 stage pipeline that drives the four
// division votes, performs the Treasury withdrawal and Clearing
// settlement side effects, and applies post-trade bookkeeping. It is a
// short straight-line fold over stages (§9 "Exceptions as control
// flow"), never throwing to its caller — every internal failure
// degrades to a FAILED evaluation with a synthetic SYSTEM blocker.
package coordinator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/banksyndicate/core/internal/audit"
	"github.com/banksyndicate/core/internal/config"
	"github.com/banksyndicate/core/internal/credit"
	"github.com/banksyndicate/core/internal/divisions"
	"github.com/banksyndicate/core/internal/entities"
	"github.com/banksyndicate/core/internal/ports"
	"github.com/banksyndicate/core/internal/validation"
)

// coordinatorError is this package's sentinel error type, grouped the
// way the teacher's metering package groups meteringError values.
type coordinatorError string

func (e coordinatorError) Error() string { return string(e) }

const (
	ErrNilTransaction = coordinatorError("coordinator: transaction is nil")
	ErrNilAgent       = coordinatorError("coordinator: agent state is nil")
)

const fraudHistoryWindow = 20

// Coordinator owns the in-flight evaluation pipeline end-to-end, per §3
// "the Coordinator exclusively owns in-flight evaluations."
type Coordinator struct {
	cfg   *config.Config
	log   zerolog.Logger
	clock ports.Clock

	frontOffice *divisions.FrontOffice
	risk        *divisions.RiskCompliance
	treasury    *divisions.Treasury
	clearing    *divisions.Clearing

	protocol *validation.Protocol
	credit   *credit.Engine
	audit    *audit.Store

	persister ports.Persister

	locker *agentLocker
	ledger *ledger
}

// New wires a Coordinator from its four divisions plus the validation
// protocol and credit engine it drives. auditStore may be nil, in
// which case audit trails are produced but never retained (no daily
// compliance reporting).
func New(
	cfg *config.Config,
	log zerolog.Logger,
	clock ports.Clock,
	frontOffice *divisions.FrontOffice,
	risk *divisions.RiskCompliance,
	treasury *divisions.Treasury,
	clearing *divisions.Clearing,
	protocol *validation.Protocol,
	creditEngine *credit.Engine,
	auditStore *audit.Store,
	persister ports.Persister,
) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		log:         log.With().Str("component", "coordinator").Logger(),
		clock:       clock,
		frontOffice: frontOffice,
		risk:        risk,
		treasury:    treasury,
		clearing:    clearing,
		protocol:    protocol,
		credit:      creditEngine,
		audit:       auditStore,
		persister:   persister,
		locker:      newAgentLocker(),
		ledger:      newLedger(),
	}
}

// ProcessTransaction drives the full S1..S5 pipeline for tx against
// agent, short-circuiting on the first division reject or validation
// protocol rejection, and applying post-trade bookkeeping only when
// every gate passes. It returns a non-nil error only for programmer
// misuse (nil tx/agent); every other outcome — including cancellation,
// settlement failure, or an internal panic — is conveyed through the
// returned evaluation's Consensus and Blockers fields, never as an
// error, per §7.
func (c *Coordinator) ProcessTransaction(ctx context.Context, tx *entities.Transaction, agent *entities.AgentState) (*entities.TransactionEvaluation, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	if agent == nil {
		return nil, ErrNilAgent
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TransactionDeadline)
	defer cancel()

	lock := c.locker.lockFor(agent.AgentID)
	lock.Lock()
	defer lock.Unlock()

	eval := entities.NewEvaluation(tx)
	start := c.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("tx_id", tx.TxID).Msg("unrecovered panic in coordinator pipeline")
			eval.Consensus = entities.ConsensusFailed
			eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleSystem, fmt.Sprintf("internal error: %v", r), c.clock.Now()))
		}
		eval.FinalRiskScore = eval.MeanRisk()
		eval.ExecutionTime = c.clock.Now().Sub(start)
		c.ledger.record(tx, eval)
		c.persist(ctx, tx, eval, agent)
	}()

	if ctx.Err() != nil {
		return c.cancelled(eval, tx), nil
	}

	if eligibleForFastTrack(tx) {
		eval = c.fastTrack(tx, agent)
		return eval, nil
	}

	// S1: Front-Office.
	foVote := c.frontOffice.Analyze(ctx, tx, agent)
	eval.RecordVote(foVote)
	if foVote.Decision == entities.DecisionReject {
		eval.Consensus = entities.ConsensusBlocked
		return eval, nil
	}

	// S2: Risk & Compliance.
	riskVote := c.risk.Analyze(ctx, tx, agent)
	eval.RecordVote(riskVote)
	if riskVote.Decision == entities.DecisionReject {
		eval.Consensus = entities.ConsensusBlocked
		return eval, nil
	}

	// S3: Treasury.
	treasuryVote := c.treasury.Analyze(ctx, tx, agent)
	eval.RecordVote(treasuryVote)
	if treasuryVote.Decision == entities.DecisionReject {
		eval.Consensus = entities.ConsensusBlocked
		return eval, nil
	}

	// S4: Clearing (sets tx.GasEstimate, consulted by L5 below).
	clearingVote := c.clearing.Analyze(ctx, tx, agent)
	eval.RecordVote(clearingVote)
	if clearingVote.Decision == entities.DecisionReject {
		eval.Consensus = entities.ConsensusBlocked
		return eval, nil
	}

	if ctx.Err() != nil {
		return c.cancelled(eval, tx), nil
	}

	// Full six-layer gate: L1 KYA, L2 pre-flight, L3 consensus (from the
	// votes just collected), L4 fraud, L5 settlement feasibility, L6
	// compliance enrichment. Any L1..L5 rejection blocks the transaction
	// before any side effect runs.
	history := c.ledger.historyFor(agent.AgentID, fraudHistoryWindow)
	approved, trail := c.protocol.ValidateFullTransaction(ctx, tx, agent, eval.DivisionVotes, history)
	if c.audit != nil {
		c.audit.Record(trail)
	}
	if c.persister != nil && trail != nil {
		if err := c.persister.AppendAuditTrail(ctx, trail); err != nil {
			c.log.Warn().Err(err).Str("tx_id", tx.TxID).Msg("failed to persist audit trail")
		}
	}
	if !approved {
		eval.Consensus = entities.ConsensusBlocked
		eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleSystem, "validation protocol rejected the transaction", c.clock.Now()))
		return eval, nil
	}

	// S3.5: Treasury withdrawal side effect, if Treasury's vote says one
	// is needed.
	if needed, _ := treasuryVote.Metadata["withdrawal_needed"].(bool); needed {
		if ctx.Err() != nil {
			return c.cancelled(eval, tx), nil
		}
		withdrawTx := entities.NewTransaction("wd-"+tx.TxID, tx.AgentID, entities.TxWithdrawal, 0, "", "", c.clock.Now())
		withdrawTx.Metadata["withdrawal_amount"] = treasuryVote.Metadata["withdrawal_amount"]
		if _, err := c.treasury.Execute(ctx, withdrawTx, "withdraw", agent); err != nil {
			eval.Consensus = entities.ConsensusFailed
			eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleTreasury, "treasury withdrawal failed: "+err.Error(), c.clock.Now()))
			return eval, nil
		}
	}

	// S4.5: Clearing settlement side effect.
	if ctx.Err() != nil {
		return c.cancelled(eval, tx), nil
	}
	if _, err := c.clearing.Execute(ctx, tx, "execute", agent); err != nil {
		eval.Consensus = entities.ConsensusFailed
		eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleClearing, "settlement failed: "+err.Error(), c.clock.Now()))
		return eval, nil
	}

	// S5: post-trade bookkeeping.
	c.postTrade(agent, tx)

	eval.Consensus = entities.ConsensusApproved
	if hasAdjust(eval.DivisionVotes) {
		eval.Consensus = entities.ConsensusAdjusted
	}
	return eval, nil
}

func hasAdjust(votes map[entities.Role]entities.DivisionAnalysis) bool {
	for _, v := range votes {
		if v.Decision == entities.DecisionAdjust {
			return true
		}
	}
	return false
}

// cancelled finalizes eval as FAILED with the "cancelled" SYSTEM
// blocker per §5 "Cancellation at any I/O boundary terminates the
// transaction as FAILED... S5 counters are not applied."
func (c *Coordinator) cancelled(eval *entities.TransactionEvaluation, tx *entities.Transaction) *entities.TransactionEvaluation {
	tx.State = entities.TxFailed
	eval.Consensus = entities.ConsensusFailed
	eval.Blockers = append(eval.Blockers, entities.NewBlocker(entities.RoleSystem, "cancelled", c.clock.Now()))
	return eval
}

// postTrade applies §4.5's credit-limit and reputation refresh plus the
// §4.3 S5 counter/balance bookkeeping. Only reached on the approved
// path, under the caller's held per-agent lock.
func (c *Coordinator) postTrade(agent *entities.AgentState, tx *entities.Transaction) {
	now := c.clock.Now()

	agent.TotalTransactions++
	agent.SuccessfulTransactions++
	agent.AvailableBalance = entities.RoundMinorUnit(agent.AvailableBalance - tx.Amount)
	agent.TotalSpent = entities.RoundMinorUnit(agent.TotalSpent + tx.Amount)
	agent.LastTransaction = &now

	efficiency := c.credit.Efficiency(agent, tx.GasUsed, tx.GasEstimate)
	agent.CreditLimit = entities.RoundMinorUnit(c.credit.NextCreditLimit(agent.CreditLimit, efficiency))
	agent.ReputationScore = c.credit.Reputation(agent, now, efficiency)
}

func (c *Coordinator) persist(ctx context.Context, tx *entities.Transaction, eval *entities.TransactionEvaluation, agent *entities.AgentState) {
	if c.persister == nil {
		return
	}
	if err := c.persister.AppendTransaction(ctx, tx); err != nil {
		c.log.Warn().Err(err).Str("tx_id", tx.TxID).Msg("failed to persist transaction")
	}
	if err := c.persister.AppendEvaluation(ctx, eval); err != nil {
		c.log.Warn().Err(err).Str("tx_id", tx.TxID).Msg("failed to persist evaluation")
	}
	if agent != nil {
		if err := c.persister.SaveAgentState(ctx, agent); err != nil {
			c.log.Warn().Err(err).Str("agent_id", agent.AgentID).Msg("failed to persist agent state")
		}
	}
}

// TransactionLog returns a snapshot of every transaction processed.
func (c *Coordinator) TransactionLog() []*entities.Transaction {
	return c.ledger.transactionLog()
}

// EvaluationLog returns a snapshot of every evaluation recorded.
func (c *Coordinator) EvaluationLog() []*entities.TransactionEvaluation {
	return c.ledger.evaluationLog()
}

// HistoryFor exposes an agent's recent transaction history, e.g. for a
// façade reporting call.
func (c *Coordinator) HistoryFor(agentID string, n int) []*entities.Transaction {
	return c.ledger.historyFor(agentID, n)
}

// WithAgentLock runs fn while holding agentID's per-agent mutex,
// letting collaborators outside the coordinator (e.g. commerce's
// agent-to-agent credit step) mutate an AgentState under the same
// serialization guarantee ProcessTransaction itself relies on.
func (c *Coordinator) WithAgentLock(agentID string, fn func()) {
	lock := c.locker.lockFor(agentID)
	lock.Lock()
	defer lock.Unlock()
	fn()
}
