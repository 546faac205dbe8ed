package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/banksyndicate/core/internal/entities"
)

// Persister is the optional snapshot backend named in spec.md §6
// "Persisted state layout": agent states, the transaction log,
// evaluations, audit trails, KYA records, and certificates, each as a
// JSON-equivalent dictionary form. The core keeps all state in memory
// regardless; a Persister only mirrors it out.
type Persister interface {
	SaveAgentState(ctx context.Context, agent *entities.AgentState) error
	AppendTransaction(ctx context.Context, tx *entities.Transaction) error
	AppendEvaluation(ctx context.Context, eval *entities.TransactionEvaluation) error
	AppendAuditTrail(ctx context.Context, trail *entities.AuditTrail) error
	SaveKYA(ctx context.Context, agentID string, kya *entities.KYAData) error
	SaveCertificate(ctx context.Context, cert *entities.AgentCertificate) error
}

// MemoryPersister is the zero-value default: an append-only, in-process
// mirror with no external dependency. Used whenever SYNDICATE_REDIS_URL
// is unset.
type MemoryPersister struct {
	mu           sync.Mutex
	agents       map[string]*entities.AgentState
	transactions []*entities.Transaction
	evaluations  []*entities.TransactionEvaluation
	auditTrails  []*entities.AuditTrail
	kya          map[string]*entities.KYAData
	certificates map[string]*entities.AgentCertificate
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		agents:       make(map[string]*entities.AgentState),
		kya:          make(map[string]*entities.KYAData),
		certificates: make(map[string]*entities.AgentCertificate),
	}
}

func (m *MemoryPersister) SaveAgentState(_ context.Context, agent *entities.AgentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[agent.AgentID] = agent
	return nil
}

func (m *MemoryPersister) AppendTransaction(_ context.Context, tx *entities.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MemoryPersister) AppendEvaluation(_ context.Context, eval *entities.TransactionEvaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, eval)
	return nil
}

func (m *MemoryPersister) AppendAuditTrail(_ context.Context, trail *entities.AuditTrail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditTrails = append(m.auditTrails, trail)
	return nil
}

func (m *MemoryPersister) SaveKYA(_ context.Context, agentID string, kya *entities.KYAData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kya[agentID] = kya
	return nil
}

func (m *MemoryPersister) SaveCertificate(_ context.Context, cert *entities.AgentCertificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[cert.AgentID] = cert
	return nil
}

// redis key namespace, one prefix per entity kind.
const (
	redisAgentKeyPrefix = "syndicate:agent:"
	redisTxLogKey       = "syndicate:txlog"
	redisEvalLogKey     = "syndicate:evaluations"
	redisAuditLogKey    = "syndicate:audit"
	redisKYAKeyPrefix   = "syndicate:kya:"
	redisCertKeyPrefix  = "syndicate:cert:"
)

// RedisPersister mirrors the in-memory state into Redis as JSON blobs:
// one string key (SET) per agent/KYA/certificate record, and append-only lists
// for the transaction log, evaluations, and audit trails. Grounded on
// the teacher's redisclient.Client (redis.ParseURL + a single *redis.Client).
type RedisPersister struct {
	client *redis.Client
}

// NewRedisPersister parses redisURL the way the teacher's
// redisclient.New does and wraps the resulting client.
func NewRedisPersister(redisURL string) (*RedisPersister, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisPersister{client: redis.NewClient(opt)}, nil
}

func (r *RedisPersister) SaveAgentState(ctx context.Context, agent *entities.AgentState) error {
	raw, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}
	return r.client.Set(ctx, redisAgentKeyPrefix+agent.AgentID, raw, 0).Err()
}

func (r *RedisPersister) AppendTransaction(ctx context.Context, tx *entities.Transaction) error {
	return r.pushJSON(ctx, redisTxLogKey, tx)
}

func (r *RedisPersister) AppendEvaluation(ctx context.Context, eval *entities.TransactionEvaluation) error {
	return r.pushJSON(ctx, redisEvalLogKey, eval)
}

func (r *RedisPersister) AppendAuditTrail(ctx context.Context, trail *entities.AuditTrail) error {
	return r.pushJSON(ctx, redisAuditLogKey, trail)
}

func (r *RedisPersister) SaveKYA(ctx context.Context, agentID string, kya *entities.KYAData) error {
	raw, err := json.Marshal(kya)
	if err != nil {
		return fmt.Errorf("marshal kya data: %w", err)
	}
	return r.client.Set(ctx, redisKYAKeyPrefix+agentID, raw, 0).Err()
}

func (r *RedisPersister) SaveCertificate(ctx context.Context, cert *entities.AgentCertificate) error {
	raw, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("marshal certificate: %w", err)
	}
	return r.client.Set(ctx, redisCertKeyPrefix+cert.AgentID, raw, 0).Err()
}

func (r *RedisPersister) pushJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", key, err)
	}
	return r.client.RPush(ctx, key, raw).Err()
}

// Ping verifies connectivity, mirroring the teacher's redisclient.Ping.
func (r *RedisPersister) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var (
	_ Persister = (*MemoryPersister)(nil)
	_ Persister = (*RedisPersister)(nil)
)
