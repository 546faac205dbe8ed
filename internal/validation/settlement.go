package validation

import (
	"regexp"

	"github.com/banksyndicate/core/internal/entities"
)

const minSettlementAmount = 0.01

var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// evaluateSettlement implements L5: wallet address well-formedness
// (EIP-55 or plain 40-hex with 0x prefix — this implementation does not
// distinguish checksum casing, treating both as well-formed per the
// same pattern), the one-cent USDC minimum, the configured gas cap, and
// a network chain id match against the ledger connector when one is
// wired.
func (p *Protocol) evaluateSettlement(tx *entities.Transaction, agent *entities.AgentState) entities.LayerResult {
	now := p.clock.Now()

	if agent == nil || !walletAddressWellFormed(agent.WalletAddress) {
		return layerResult(entities.LayerSettlement, entities.LayerRejected,
			"wallet address is not a well-formed 0x-prefixed 40-hex address", nil, now)
	}

	if tx.GasEstimate > p.cfg.MaxGasLimit {
		return layerResult(entities.LayerSettlement, entities.LayerRejected,
			"estimated gas exceeds the configured maximum", map[string]any{"gas_estimate": tx.GasEstimate}, now)
	}

	if tx.Amount < minSettlementAmount {
		return layerResult(entities.LayerSettlement, entities.LayerRejected,
			"amount is below the one-cent USDC settlement minimum", map[string]any{"amount": tx.Amount}, now)
	}

	if p.ledger != nil && p.ledger.ChainID() != p.cfg.ChainID {
		return layerResult(entities.LayerSettlement, entities.LayerRejected,
			"network chain id does not match the configured chain", map[string]any{"chain_id": p.ledger.ChainID()}, now)
	}

	return layerResult(entities.LayerSettlement, entities.LayerApproved, "settlement feasibility checks passed", nil, now)
}

// walletAddressWellFormed reports whether addr matches the 0x-prefixed
// 40-hex-digit shape every division and this layer accepts.
func walletAddressWellFormed(addr string) bool {
	return walletAddressPattern.MatchString(addr)
}
