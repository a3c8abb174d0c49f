package tx

import (
	"fmt"
)

type TxType uint8

const (
	TxTypeUnknown         TxType = 0
	TxTypeRegister        TxType = 1
	TxTypeVerify          TxType = 2
	TxTypeClaim           TxType = 3
	TxTypeContribute      TxType = 4
	TxTypeSubmitProposal  TxType = 5
	TxTypeVote            TxType = 6
	TxTypeCloseProposal   TxType = 7
	TxTypeExecuteProposal TxType = 8
	TxTypePause           TxType = 9
	TxTypeUnpause         TxType = 10
)

func (t TxType) String() string {
	switch t {
	case TxTypeRegister:
		return "register"
	case TxTypeVerify:
		return "verify"
	case TxTypeClaim:
		return "claim"
	case TxTypeContribute:
		return "contribute"
	case TxTypeSubmitProposal:
		return "submit_proposal"
	case TxTypeVote:
		return "vote"
	case TxTypeCloseProposal:
		return "close_proposal"
	case TxTypeExecuteProposal:
		return "execute_proposal"
	case TxTypePause:
		return "pause"
	case TxTypeUnpause:
		return "unpause"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

const (
	TxVersion0 uint8 = 0
)
