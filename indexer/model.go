package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Participant struct {
	Address         string `gorm:"primary_key" json:"address"`
	JoinHeight      uint64 `json:"join_height"`
	Verified        bool   `json:"verified"`
	VerifiedBy      string `json:"verified_by"`
	VerifiedHeight  uint64 `json:"verified_height"`
	ClaimsCount     uint64 `json:"claims_count"`
	TotalClaimed    uint64 `json:"total_claimed"`
	LastClaimHeight uint64 `json:"last_claim_height"`
}

type Claim struct {
	Id              uint64 `gorm:"primary_key" json:"id"`
	Participant     string `gorm:"index" json:"participant"`
	Amount          uint64 `json:"amount"`
	TreasuryBalance uint64 `json:"treasury_balance"`
	ClaimsCount     uint64 `json:"claims_count"`
	Height          uint64 `json:"height"`
}

type Contribution struct {
	Id              uint64 `gorm:"primary_key" json:"id"`
	Contributor     string `gorm:"index" json:"contributor"`
	Amount          uint64 `json:"amount"`
	TreasuryBalance uint64 `json:"treasury_balance"`
	Height          uint64 `json:"height"`
}

type Proposal struct {
	Id             uint64 `gorm:"primary_key" json:"id"`
	Proposer       string `gorm:"index" json:"proposer"`
	ProposalType   string `json:"proposal_type"`
	ProposedValue  uint64 `json:"proposed_value"`
	PreviousValue  uint64 `json:"previous_value"`
	VotesFor       uint64 `json:"votes_for"`
	VotesAgainst   uint64 `json:"votes_against"`
	Status         string `json:"status"`
	Passed         bool   `json:"passed"`
	Executed       bool   `json:"executed"`
	CreatedHeight  uint64 `json:"created_height"`
	ExpiryHeight   uint64 `json:"expiry_height"`
	ClosedBy       string `json:"closed_by"`
	ClosedHeight   uint64 `json:"closed_height"`
	ExecutedHeight uint64 `json:"executed_height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Voter    string `json:"voter"`
	InFavor  bool   `json:"in_favor"`
	Height   uint64 `json:"height"`
}
