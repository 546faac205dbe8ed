package coordinator

import (
	"sync"

	"github.com/banksyndicate/core/internal/entities"
)

const perAgentHistoryCap = 200

// ledger is the append-only transaction/evaluation log plus the
// per-agent history feed consulted by the validation protocol's L4
// fraud layer, protected by a single mutex with snapshot reads for
// readers, per §5 "Evaluations log, transaction log, audit trails:
// append-only, protected by a single mutex; readers take a snapshot."
type ledger struct {
	mu           sync.Mutex
	transactions []*entities.Transaction
	evaluations  []*entities.TransactionEvaluation
	history      map[string][]*entities.Transaction
}

func newLedger() *ledger {
	return &ledger{history: make(map[string][]*entities.Transaction)}
}

// record appends tx and eval to the log regardless of outcome — "An
// agent's history... is updated regardless of outcome" (§4.3).
func (l *ledger) record(tx *entities.Transaction, eval *entities.TransactionEvaluation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.transactions = append(l.transactions, tx)
	l.evaluations = append(l.evaluations, eval)

	h := append(l.history[tx.AgentID], tx)
	if len(h) > perAgentHistoryCap {
		h = h[len(h)-perAgentHistoryCap:]
	}
	l.history[tx.AgentID] = h
}

// historyFor returns a snapshot of the most recent transactions for
// agentID, newest last, capped at n entries.
func (l *ledger) historyFor(agentID string, n int) []*entities.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := l.history[agentID]
	if len(all) <= n {
		out := make([]*entities.Transaction, len(all))
		copy(out, all)
		return out
	}
	out := make([]*entities.Transaction, n)
	copy(out, all[len(all)-n:])
	return out
}

// transactionLog returns a snapshot of every transaction recorded.
func (l *ledger) transactionLog() []*entities.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*entities.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// evaluationLog returns a snapshot of every evaluation recorded.
func (l *ledger) evaluationLog() []*entities.TransactionEvaluation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*entities.TransactionEvaluation, len(l.evaluations))
	copy(out, l.evaluations)
	return out
}
