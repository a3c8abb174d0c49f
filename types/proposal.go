package types

import (
	"fmt"
	"strings"
)

// Identity is the principal of a caller: the hex address of the ed25519 key
// that signed the transaction.
type Identity string

// Normalize returns the canonical upper-case form used as a map key.
func (i Identity) Normalize() Identity {
	return Identity(strings.ToUpper(strings.TrimPrefix(string(i), "0x")))
}

func (i Identity) String() string {
	return string(i)
}

type Participant struct {
	Registered      bool   `json:"registered"`
	Verified        bool   `json:"verified"`
	LastClaimHeight uint64 `json:"last_claim_height"`
	JoinHeight      uint64 `json:"join_height"`
	TotalClaimed    uint64 `json:"total_claimed"`
	ClaimsCount     uint64 `json:"claims_count"`
}

type ProposalType uint8

const (
	ProposalTypeUnknown              ProposalType = 0
	ProposalTypeDistributionAmount   ProposalType = 1
	ProposalTypeDistributionInterval ProposalType = 2
	ProposalTypeMinimumBalance       ProposalType = 3
)

func (t ProposalType) Valid() bool {
	switch t {
	case ProposalTypeDistributionAmount, ProposalTypeDistributionInterval, ProposalTypeMinimumBalance:
		return true
	}
	return false
}

func (t ProposalType) String() string {
	switch t {
	case ProposalTypeDistributionAmount:
		return "distribution-amount"
	case ProposalTypeDistributionInterval:
		return "distribution-interval"
	case ProposalTypeMinimumBalance:
		return "minimum-balance"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// ParseProposalType accepts either the parameter name or its numeric value.
func ParseProposalType(s string) ProposalType {
	switch strings.ToLower(s) {
	case "distribution-amount", "1":
		return ProposalTypeDistributionAmount
	case "distribution-interval", "2":
		return ProposalTypeDistributionInterval
	case "minimum-balance", "3":
		return ProposalTypeMinimumBalance
	}
	return ProposalTypeUnknown
}

type ProposalStatus uint8

const (
	ProposalStatusActive ProposalStatus = 1
	ProposalStatusClosed ProposalStatus = 2
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusActive:
		return "active"
	case ProposalStatusClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

type Proposal struct {
	Id            uint64         `json:"id"`
	Proposer      Identity       `json:"proposer"`
	ProposalType  ProposalType   `json:"proposal_type"`
	ProposedValue uint64         `json:"proposed_value"`
	VotesFor      uint64         `json:"votes_for"`
	VotesAgainst  uint64         `json:"votes_against"`
	Status        ProposalStatus `json:"status"`
	ExpiryHeight  uint64         `json:"expiry_height"`
	CreatedHeight uint64         `json:"created_height"`
	ClosedHeight  uint64         `json:"closed_height,omitempty"`
	Passed        bool           `json:"passed"`
	Executed      bool           `json:"executed"`
}

// StatusAt reports the effective status at the given height. An active
// proposal whose window has elapsed reads as closed.
func (p *Proposal) StatusAt(height uint64) ProposalStatus {
	if p.Status == ProposalStatusActive && height >= p.ExpiryHeight {
		return ProposalStatusClosed
	}
	return p.Status
}

type VoteRecord struct {
	ProposalId uint64   `json:"proposal_id"`
	Voter      Identity `json:"voter"`
	InFavor    bool     `json:"in_favor"`
	Height     uint64   `json:"height"`
}

// Treasury holds the pooled balance, the governance-mutable distribution
// parameters and the global counters.
type Treasury struct {
	Balance              uint64 `json:"balance"`
	DistributionAmount   uint64 `json:"distribution_amount"`
	DistributionInterval uint64 `json:"distribution_interval"`
	MinimumBalance       uint64 `json:"minimum_balance"`
	Paused               bool   `json:"paused"`
	ParticipantCount     uint64 `json:"participant_count"`
	ProposalCount        uint64 `json:"proposal_count"`
}

// LedgerConfig is fixed at genesis.
type LedgerConfig struct {
	Owner            Identity `json:"owner"`
	TreasuryAddress  Identity `json:"treasury_address"`
	VotingPeriod     uint64   `json:"voting_period"`
	MaxProposalValue uint64   `json:"max_proposal_value"`
}

type DistributionInfo struct {
	DistributionAmount   uint64 `json:"distribution_amount"`
	DistributionInterval uint64 `json:"distribution_interval"`
	MinimumBalance       uint64 `json:"minimum_balance"`
	TreasuryBalance      uint64 `json:"treasury_balance"`
	ParticipantCount     uint64 `json:"participant_count"`
	ProposalCount        uint64 `json:"proposal_count"`
	Paused               bool   `json:"paused"`
	CurrentHeight        uint64 `json:"current_height"`
}
