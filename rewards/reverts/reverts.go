// Copyright (c) 2026 The BuckLabs developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the typed failures engine operations abort with.
// Every revert carries a kind grouping the failure and a code naming the
// exact reason, so callers can branch without parsing messages.
package reverts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/buck-labs/buck-v1-sub000/buck"
)

// Kind groups revert reasons by the class of failure.
type Kind string

const (
	KindConfig Kind = "config"
	KindGuard  Kind = "guard"
	KindState  Kind = "state"
	KindAccess Kind = "access"
)

// Code identifies the exact revert reason.
type Code string

const (
	CodeInvalidConfig                  Code = "InvalidConfig"
	CodeClaimExceedsHeadroom           Code = "ClaimExceedsHeadroom"
	CodeStaleAttestationForClaim       Code = "StaleAttestationForClaim"
	CodeMaxClaimPerTxExceeded          Code = "MaxClaimPerTxExceeded"
	CodeDistributionBlockedDuringDepeg Code = "DistributionBlockedDuringDepeg"
	CodeMaxTokensPerEpochExceeded      Code = "MaxTokensPerEpochExceeded"
	CodeAlreadyDistributed             Code = "AlreadyDistributed"
	CodeNoRewardsDeclared              Code = "NoRewardsDeclared"
	CodeEpochNotEnded                  Code = "EpochNotEnded"
	CodeAccountExcluded                Code = "AccountExcluded"
	CodeUnauthorized                   Code = "Unauthorized"
)

type ErrRevert struct {
	kind    Kind
	code    Code
	message string
}

func New(kind Kind, code Code, format string, args ...interface{}) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Code() Code {
	return e.code
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert with the given code.
func Is(err error, code Code) bool {
	var ve *ErrRevert
	if !errors.As(err, &ve) {
		return false
	}
	return ve.code == code
}

// CodeOf returns the revert code of err, or empty when err is not a revert.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if !errors.As(err, &ve) {
		return ""
	}
	return ve.code
}

func InvalidConfig(format string, args ...interface{}) *ErrRevert {
	return New(KindConfig, CodeInvalidConfig, format, args...)
}

func ClaimExceedsHeadroom(pending, headroom *big.Int) *ErrRevert {
	return New(KindGuard, CodeClaimExceedsHeadroom,
		"claim exceeds collateral headroom: pending %v, headroom %v", pending, headroom)
}

func StaleAttestationForClaim(age, maxAge uint64) *ErrRevert {
	return New(KindGuard, CodeStaleAttestationForClaim,
		"collateral attestation too old for claim: age %ds, max %ds", age, maxAge)
}

func MaxClaimPerTxExceeded(pending, limit *big.Int) *ErrRevert {
	return New(KindGuard, CodeMaxClaimPerTxExceeded,
		"claim exceeds per-tx limit: pending %v, limit %v", pending, limit)
}

func DistributionBlockedDuringDepeg(price, par *big.Int) *ErrRevert {
	return New(KindGuard, CodeDistributionBlockedDuringDepeg,
		"distribution blocked during depeg: price %v below par %v", price, par)
}

func MaxTokensPerEpochExceeded(total, limit *big.Int) *ErrRevert {
	return New(KindGuard, CodeMaxTokensPerEpochExceeded,
		"epoch mint cap exceeded: total %v, cap %v", total, limit)
}

func AlreadyDistributed(epoch uint64) *ErrRevert {
	return New(KindState, CodeAlreadyDistributed, "epoch %d already distributed", epoch)
}

func NoRewardsDeclared() *ErrRevert {
	return New(KindState, CodeNoRewardsDeclared, "no rewards declared yet")
}

func EpochNotEnded(format string, args ...interface{}) *ErrRevert {
	return New(KindState, CodeEpochNotEnded, format, args...)
}

func AccountExcluded(addr buck.Address) *ErrRevert {
	return New(KindState, CodeAccountExcluded, "account %v is excluded from rewards", addr)
}

func Unauthorized(caller buck.Address, role string) *ErrRevert {
	return New(KindAccess, CodeUnauthorized, "caller %v lacks %s role", caller, role)
}
