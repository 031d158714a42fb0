package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrLockHeld      = errors.New("lock already held")
)

// FaultKind classifies an aborted operation.
type FaultKind string

const (
	FaultValidation    FaultKind = "validation"
	FaultAuthorization FaultKind = "authorization"
	FaultState         FaultKind = "state"
	FaultTemporal      FaultKind = "temporal"
)

// Abort codes. Every failed operation reports exactly one of these together
// with a reason string; the operation leaves no partial mutation behind.
const (
	// Validation (1xxx)
	CodePriceNotPositive  = 1001
	CodeAmountNotPositive = 1002
	CodeEmptyTitle        = 1003
	CodeEmptyDescription  = 1004
	CodeExpiryOutOfRange  = 1005
	CodePaymentMismatch   = 1006
	CodeInsufficientFunds = 1007
	CodeInvalidAddress    = 1008

	// Authorization (2xxx)
	CodeNotSeller         = 2001
	CodeNotBuyer          = 2002
	CodeNotParticipant    = 2003
	CodeBuyerIsSeller     = 2004
	CodeInvalidCapability = 2005
	CodeWrongAcceptor     = 2006

	// State (3xxx)
	CodeItemNotActive     = 3001
	CodeOfferNotOpen      = 3002
	CodeEscrowNotActive   = 3003
	CodeEscrowNotDisputed = 3004
	CodeHoldMismatch      = 3005
	CodeItemInEscrow      = 3006

	// Temporal (4xxx)
	CodeOfferExpired = 4001
)

// Fault is an aborted marketplace operation: a numeric code plus a
// human-readable reason. Callers decide whether to retry with corrected
// arguments; nothing is recovered internally.
type Fault struct {
	Code   int
	Kind   FaultKind
	Reason string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("abort %d (%s): %s", f.Code, f.Kind, f.Reason)
}

// Validationf builds a validation fault.
func Validationf(code int, format string, args ...any) *Fault {
	return &Fault{Code: code, Kind: FaultValidation, Reason: fmt.Sprintf(format, args...)}
}

// Authorizationf builds an authorization fault.
func Authorizationf(code int, format string, args ...any) *Fault {
	return &Fault{Code: code, Kind: FaultAuthorization, Reason: fmt.Sprintf(format, args...)}
}

// Statef builds a state fault.
func Statef(code int, format string, args ...any) *Fault {
	return &Fault{Code: code, Kind: FaultState, Reason: fmt.Sprintf(format, args...)}
}

// Temporalf builds a temporal fault.
func Temporalf(code int, format string, args ...any) *Fault {
	return &Fault{Code: code, Kind: FaultTemporal, Reason: fmt.Sprintf(format, args...)}
}

// AsFault unwraps err into a *Fault if one is present in its chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func isKind(err error, kind FaultKind) bool {
	f, ok := AsFault(err)
	return ok && f.Kind == kind
}

// IsValidation reports whether err is a validation fault.
func IsValidation(err error) bool { return isKind(err, FaultValidation) }

// IsAuthorization reports whether err is an authorization fault.
func IsAuthorization(err error) bool { return isKind(err, FaultAuthorization) }

// IsState reports whether err is a state fault.
func IsState(err error) bool { return isKind(err, FaultState) }

// IsTemporal reports whether err is a temporal fault.
func IsTemporal(err error) bool { return isKind(err, FaultTemporal) }
