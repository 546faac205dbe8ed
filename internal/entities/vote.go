package entities

import "time"

// VoteChoice is one voter's position on an autonomous approval request.
type VoteChoice string

const (
	VoteApprove VoteChoice = "approve"
	VoteReject  VoteChoice = "reject"
	VoteAbstain VoteChoice = "abstain"
)

// ConsensusVote is one agent's vote in a cross-agent autonomous
// approval round (§4.6.4).
type ConsensusVote struct {
	VoterAgentID string     `json:"voter_agent_id"`
	Vote         VoteChoice `json:"vote"`
	Confidence   float64    `json:"confidence"`
	Reasoning    string     `json:"reasoning"`
	Timestamp    time.Time  `json:"timestamp"`
}
