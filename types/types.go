package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventRegisterType        = "register"
	EventVerifyType          = "verify"
	EventClaimType           = "claim"
	EventContributeType      = "contribute"
	EventProposalType        = "proposal"
	EventVoteType            = "vote"
	EventCloseProposalType   = "close_proposal"
	EventExecuteProposalType = "execute_proposal"
	EventPauseType           = "pause"
)

type EventRegister struct {
	Participant Identity `json:"participant"`
	JoinHeight  uint64   `json:"joinHeight"`
}

func EncodeEventRegister(event *EventRegister) abci.Event {
	return abci.Event{
		Type: EventRegisterType,
		Attributes: []abci.EventAttribute{
			{Key: "participant", Value: event.Participant.String(), Index: true},
			{Key: "joinHeight", Value: fmt.Sprintf("%v", event.JoinHeight), Index: false},
		},
	}
}

func DecodeEventRegister(originEvent abci.Event) *EventRegister {
	event := &EventRegister{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "participant":
			event.Participant = Identity(v.Value)
		case "joinHeight":
			h, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.JoinHeight = h
		}
	}
	return event
}

type EventVerify struct {
	Admin  Identity `json:"admin"`
	Target Identity `json:"target"`
}

func EncodeEventVerify(event *EventVerify) abci.Event {
	return abci.Event{
		Type: EventVerifyType,
		Attributes: []abci.EventAttribute{
			{Key: "admin", Value: event.Admin.String(), Index: false},
			{Key: "target", Value: event.Target.String(), Index: true},
		},
	}
}

func DecodeEventVerify(originEvent abci.Event) *EventVerify {
	event := &EventVerify{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "admin":
			event.Admin = Identity(v.Value)
		case "target":
			event.Target = Identity(v.Value)
		}
	}
	return event
}

type EventClaim struct {
	Participant     Identity `json:"participant"`
	Amount          uint64   `json:"amount"`
	TreasuryBalance uint64   `json:"treasuryBalance"`
	ClaimsCount     uint64   `json:"claimsCount"`
}

func EncodeEventClaim(event *EventClaim) abci.Event {
	return abci.Event{
		Type: EventClaimType,
		Attributes: []abci.EventAttribute{
			{Key: "participant", Value: event.Participant.String(), Index: true},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
			{Key: "treasury", Value: fmt.Sprintf("%v", event.TreasuryBalance), Index: false},
			{Key: "claims", Value: fmt.Sprintf("%v", event.ClaimsCount), Index: false},
		},
	}
}

func DecodeEventClaim(originEvent abci.Event) *EventClaim {
	event := &EventClaim{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "participant":
			event.Participant = Identity(v.Value)
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		case "treasury":
			balance, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.TreasuryBalance = balance
		case "claims":
			claims, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ClaimsCount = claims
		}
	}
	return event
}

type EventContribute struct {
	Contributor     Identity `json:"contributor"`
	Amount          uint64   `json:"amount"`
	TreasuryBalance uint64   `json:"treasuryBalance"`
}

func EncodeEventContribute(event *EventContribute) abci.Event {
	return abci.Event{
		Type: EventContributeType,
		Attributes: []abci.EventAttribute{
			{Key: "contributor", Value: event.Contributor.String(), Index: true},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
			{Key: "treasury", Value: fmt.Sprintf("%v", event.TreasuryBalance), Index: false},
		},
	}
}

func DecodeEventContribute(originEvent abci.Event) *EventContribute {
	event := &EventContribute{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "contributor":
			event.Contributor = Identity(v.Value)
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		case "treasury":
			balance, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.TreasuryBalance = balance
		}
	}
	return event
}

type EventProposal struct {
	ProposalId    uint64       `json:"proposalId"`
	Proposer      Identity     `json:"proposer"`
	ProposalType  ProposalType `json:"proposalType"`
	ProposedValue uint64       `json:"proposedValue"`
	ExpiryHeight  uint64       `json:"expiryHeight"`
}

func EncodeEventProposal(event *EventProposal) abci.Event {
	return abci.Event{
		Type: EventProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "proposer", Value: event.Proposer.String(), Index: true},
			{Key: "type", Value: fmt.Sprintf("%v", uint8(event.ProposalType)), Index: false},
			{Key: "value", Value: fmt.Sprintf("%v", event.ProposedValue), Index: false},
			{Key: "expiryHeight", Value: fmt.Sprintf("%v", event.ExpiryHeight), Index: false},
		},
	}
}

func DecodeEventProposal(originEvent abci.Event) *EventProposal {
	event := &EventProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = proposal
		case "proposer":
			event.Proposer = Identity(v.Value)
		case "type":
			tp, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.ProposalType = ProposalType(tp)
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposedValue = value
		case "expiryHeight":
			expiry, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ExpiryHeight = expiry
		}
	}
	return event
}

type EventVote struct {
	ProposalId   uint64   `json:"proposalId"`
	Voter        Identity `json:"voter"`
	InFavor      bool     `json:"inFavor"`
	VotesFor     uint64   `json:"votesFor"`
	VotesAgainst uint64   `json:"votesAgainst"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "voter", Value: event.Voter.String(), Index: true},
			{Key: "inFavor", Value: fmt.Sprintf("%v", event.InFavor), Index: false},
			{Key: "for", Value: fmt.Sprintf("%v", event.VotesFor), Index: false},
			{Key: "against", Value: fmt.Sprintf("%v", event.VotesAgainst), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = proposal
		case "voter":
			event.Voter = Identity(v.Value)
		case "inFavor":
			inFavor, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.InFavor = inFavor
		case "for":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VotesFor = n
		case "against":
			n, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VotesAgainst = n
		}
	}
	return event
}

type EventCloseProposal struct {
	ProposalId uint64   `json:"proposalId"`
	ClosedBy   Identity `json:"closedBy"`
	Passed     bool     `json:"passed"`
}

func EncodeEventCloseProposal(event *EventCloseProposal) abci.Event {
	return abci.Event{
		Type: EventCloseProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "closedBy", Value: event.ClosedBy.String(), Index: false},
			{Key: "passed", Value: fmt.Sprintf("%v", event.Passed), Index: false},
		},
	}
}

func DecodeEventCloseProposal(originEvent abci.Event) *EventCloseProposal {
	event := &EventCloseProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = proposal
		case "closedBy":
			event.ClosedBy = Identity(v.Value)
		case "passed":
			passed, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Passed = passed
		}
	}
	return event
}

type EventExecuteProposal struct {
	ProposalId    uint64       `json:"proposalId"`
	ProposalType  ProposalType `json:"proposalType"`
	ProposedValue uint64       `json:"proposedValue"`
	PreviousValue uint64       `json:"previousValue"`
}

func EncodeEventExecuteProposal(event *EventExecuteProposal) abci.Event {
	return abci.Event{
		Type: EventExecuteProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "type", Value: fmt.Sprintf("%v", uint8(event.ProposalType)), Index: false},
			{Key: "value", Value: fmt.Sprintf("%v", event.ProposedValue), Index: false},
			{Key: "previous", Value: fmt.Sprintf("%v", event.PreviousValue), Index: false},
		},
	}
}

func DecodeEventExecuteProposal(originEvent abci.Event) *EventExecuteProposal {
	event := &EventExecuteProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = proposal
		case "type":
			tp, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.ProposalType = ProposalType(tp)
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposedValue = value
		case "previous":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.PreviousValue = value
		}
	}
	return event
}

type EventPause struct {
	Admin  Identity `json:"admin"`
	Paused bool     `json:"paused"`
}

func EncodeEventPause(event *EventPause) abci.Event {
	return abci.Event{
		Type: EventPauseType,
		Attributes: []abci.EventAttribute{
			{Key: "admin", Value: event.Admin.String(), Index: false},
			{Key: "paused", Value: fmt.Sprintf("%v", event.Paused), Index: true},
		},
	}
}

func DecodeEventPause(originEvent abci.Event) *EventPause {
	event := &EventPause{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "admin":
			event.Admin = Identity(v.Value)
		case "paused":
			paused, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Paused = paused
		}
	}
	return event
}
