package game

import "errors"

var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameOver         = errors.New("match is over")
	ErrNotStarted       = errors.New("match has not started")
	ErrUnknownCard      = errors.New("no such card")
	ErrInsufficientMana = errors.New("insufficient mana")
	ErrFieldFull        = errors.New("field is full")
	ErrAwaitingTarget   = errors.New("a spell is awaiting a target")
	ErrNoPendingSpell   = errors.New("no spell is awaiting a target")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrCannotAttack     = errors.New("creature cannot attack")
	ErrRushTarget       = errors.New("rush creatures can only attack creatures this turn")
	ErrTaunt            = errors.New("must attack a taunt creature")
	ErrNotAttackable    = errors.New("creature is not available to be attacked")
	ErrStealthed        = errors.New("creature is stealthed")
	ErrFlying           = errors.New("flying creatures can only be attacked by flying or reach")
)

// RejectError is a rule rejection: the action was illegal and nothing
// changed. Err is one of the sentinels above; Reason is suitable for display.
type RejectError struct {
	Err    error
	Reason string
}

func (e *RejectError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

func reject(err error, reason string) *RejectError {
	return &RejectError{Err: err, Reason: reason}
}

// IsRejection reports whether err is a rule rejection.
func IsRejection(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}
