// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert aborts an invocation. Every state change made by the invocation
// is discarded when a program returns it.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

var (
	// program errors
	ErrInvalidInput        = New("invalid input")
	ErrInvalidRecordData   = New("invalid record data")
	ErrAlreadyInitialized  = New("already initialized")
	ErrAddressMismatch     = New("address mismatch")
	ErrArithmeticOverflow  = New("arithmetic overflow")
	ErrArithmeticUnderflow = New("arithmetic underflow")

	// collaborator errors, surfaced verbatim
	ErrInsufficientBalance = New("insufficient balance")
	ErrUnauthorized        = New("unauthorized")
	ErrInsufficientFunds   = New("insufficient funds")
	ErrAlreadyExists       = New("account already exists")
	ErrMintMismatch        = New("mint mismatch")
)

// IsRevertErr reports whether err aborts an invocation, as opposed to a
// failure of the ledger itself.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve != nil
	}
	return false
}

// Kind returns the root revert of err, or nil if err is not a revert.
func Kind(err error) *ErrRevert {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
