package actions

import (
	"errors"
	"fmt"
)

// ErrDataIntegrity marks action histories that contradict the status machine.
var ErrDataIntegrity = errors.New("action data integrity violation")

// IntegrityError carries the bill and line that could not be reconciled.
type IntegrityError struct {
	BillID string
	Text   string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.BillID == "" {
		return fmt.Sprintf("%s: %s", ErrDataIntegrity, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s (%q)", ErrDataIntegrity, e.BillID, e.Reason, e.Text)
}

func (e *IntegrityError) Unwrap() error { return ErrDataIntegrity }
