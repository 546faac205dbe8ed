package commerce

import (
	"context"
	"fmt"

	"github.com/banksyndicate/core/internal/entities"
)

// addToBatch implements §4.6.2: folds record's cost into agentID's
// single active batch (keyed "{agent_id}-active"), flushing it when the
// batch crosses MICROPAYMENT_THRESHOLD or ages past BATCH_TIMEOUT.
func (c *Commerce) addToBatch(ctx context.Context, agentID string, record *entities.APIUsageRecord) (*entities.TransactionEvaluation, error) {
	now := c.clock.Now()
	batchKey := agentID + "-active"

	c.batchMu.Lock()
	batch, ok := c.batches[batchKey]
	if !ok {
		batch = entities.NewMicropaymentBatch("batch-"+c.clock.NewUUID(), agentID, now)
		c.batches[batchKey] = batch
	}
	batch.Add(fmt.Sprintf("micro-%s", c.clock.NewUUID()), record.TotalCost)
	shouldFlush := batch.ShouldFlush(now, c.cfg.MicropaymentThreshold, c.cfg.BatchTimeout)
	c.batchMu.Unlock()

	if !shouldFlush {
		return nil, nil
	}
	return c.flushBatch(ctx, batchKey)
}

// flushBatch implements the batch-mutex-then-agent-mutex acquisition
// order §5 mandates to prevent deadlock against the coordinator's own
// per-agent lock: the batch mutex only ever protects the batches map
// itself, never the agent mutation, which the coordinator serializes
// independently once flushBatch calls into it.
//
// Flush is at-most-once per batch: the batch is removed from the map
// under the same critical section that claims it for execution, so a
// second caller racing to flush the same key finds nothing to do.
func (c *Commerce) flushBatch(ctx context.Context, batchKey string) (*entities.TransactionEvaluation, error) {
	c.batchMu.Lock()
	batch, ok := c.batches[batchKey]
	if !ok || batch.Status != entities.BatchPending {
		c.batchMu.Unlock()
		return nil, nil
	}
	batch.Status = entities.BatchExecuting
	delete(c.batches, batchKey)
	c.batchMu.Unlock()

	agent, ok := c.lookup(batch.AgentID)
	if !ok {
		batch.Status = entities.BatchFailed
		return nil, ErrAgentNotFound
	}

	tx := entities.NewTransaction("batch-"+batch.BatchID, batch.AgentID, entities.TxMicropayment, batch.TotalAmount, "aggregated-micropayments", fmt.Sprintf("batch of %d micropayments", len(batch.Payments)), c.clock.Now())
	tx.Metadata["batch_id"] = batch.BatchID
	tx.Metadata["payment_count"] = len(batch.Payments)
	tx.Metadata["child_tx_ids"] = batch.Payments

	eval, err := c.process(ctx, tx, agent)
	if err != nil {
		batch.Status = entities.BatchFailed
		return eval, err
	}

	if eval.Consensus == entities.ConsensusApproved {
		batch.Status = entities.BatchCompleted
		completedAt := c.clock.Now()
		batch.ExecutedAt = &completedAt
	} else {
		batch.Status = entities.BatchFailed
	}
	return eval, nil
}

// PendingBatch returns agentID's active batch, if any.
func (c *Commerce) PendingBatch(agentID string) (*entities.MicropaymentBatch, bool) {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()
	b, ok := c.batches[agentID+"-active"]
	return b, ok
}

// FlushBatch forces a flush of agentID's active batch regardless of
// threshold/timeout, e.g. for an operator-triggered drain.
func (c *Commerce) FlushBatch(ctx context.Context, agentID string) (*entities.TransactionEvaluation, error) {
	return c.flushBatch(ctx, agentID+"-active")
}

// SweepExpiredBatches flushes every pending batch that has aged past
// BATCH_TIMEOUT without crossing MICROPAYMENT_THRESHOLD on its own —
// §4.6.2 names both triggers, but only the threshold one fires inline
// from TrackAPICall; a batch that never grows past it still needs a
// caller driving time forward to notice it's gone stale. Intended to be
// run from a periodic sweep rather than per-call.
func (c *Commerce) SweepExpiredBatches(ctx context.Context) []*entities.TransactionEvaluation {
	now := c.clock.Now()

	c.batchMu.Lock()
	var keys []string
	for key, batch := range c.batches {
		if batch.Status == entities.BatchPending && batch.ShouldFlush(now, c.cfg.MicropaymentThreshold, c.cfg.BatchTimeout) {
			keys = append(keys, key)
		}
	}
	c.batchMu.Unlock()

	evals := make([]*entities.TransactionEvaluation, 0, len(keys))
	for _, key := range keys {
		eval, err := c.flushBatch(ctx, key)
		if err != nil || eval == nil {
			continue
		}
		evals = append(evals, eval)
	}
	return evals
}
