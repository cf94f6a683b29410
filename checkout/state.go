package checkout

import "strings"

// State is the server-side lifecycle of one enrollment payment attempt.
// The browser drives the earlier form/auth steps; everything from record
// creation onward lives here so a full-page gateway redirect loses nothing.
type State string

const (
	StatePending         State = "pending"
	StateAwaitingGateway State = "awaiting_gateway"
	StateVerifying       State = "verifying"
	StatePaid            State = "paid"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

// Reason is the machine-readable failure code carried to the failure view.
type Reason string

const (
	ReasonMissingReference   Reason = "missing_reference"
	ReasonVerificationFailed Reason = "verification_failed"
	ReasonIncomplete         Reason = "incomplete"
	ReasonServerError        Reason = "server_error"
	ReasonCancelled          Reason = "cancelled"
)

// allowedTransitions also admits re-entry into verifying from failed and
// cancelled: a replayed gateway callback re-confirms instead of recreating
// an order.
var allowedTransitions = map[State][]State{
	StatePending:         {StateAwaitingGateway, StateVerifying, StateFailed, StateCancelled},
	StateAwaitingGateway: {StateVerifying, StateFailed, StateCancelled},
	StateVerifying:       {StatePaid, StateFailed, StateCancelled},
	StateFailed:          {StateVerifying, StateCancelled},
	StateCancelled:       {StateVerifying},
	StatePaid:            {},
}

func CanTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s State) bool {
	return s == StatePaid
}

// IsValidReference rejects empty values and literal unsubstituted gateway
// placeholders such as "{order_id}", which must never be read as an order
// identifier.
func IsValidReference(ref string) bool {
	if ref == "" {
		return false
	}
	if strings.HasPrefix(ref, "{") && strings.HasSuffix(ref, "}") {
		return false
	}
	return true
}
