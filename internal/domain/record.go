package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned by TransactionRecord.Validate.
var ErrMalformedRecord = errors.New("malformed transaction record")

// SubOperation is one top-level instruction of a transaction.
type SubOperation struct {
	ProgramIDIndex int // index into the record's account keys
}

// TransactionRecord is a transaction delivered by the stream.
// Immutable once built by the transport.
type TransactionRecord struct {
	Signature    Signature
	Slot         uint64
	AccountKeys  []PublicKey
	Instructions []SubOperation
	Err          any // execution error reported in meta; nil on success
}

// Failed reports whether the transaction carries an execution error.
func (r *TransactionRecord) Failed() bool {
	return r.Err != nil
}

// HasAccount reports whether account appears anywhere in the account list.
func (r *TransactionRecord) HasAccount(account PublicKey) bool {
	for _, k := range r.AccountKeys {
		if k == account {
			return true
		}
	}
	return false
}

// ProgramID resolves the program invoked by instruction i.
func (r *TransactionRecord) ProgramID(op SubOperation) (PublicKey, bool) {
	if op.ProgramIDIndex < 0 || op.ProgramIDIndex >= len(r.AccountKeys) {
		return PublicKey{}, false
	}
	return r.AccountKeys[op.ProgramIDIndex], true
}

// Validate checks structural consistency of the record.
func (r *TransactionRecord) Validate() error {
	if r.Signature.IsZero() {
		return fmt.Errorf("%w: missing signature", ErrMalformedRecord)
	}
	for i, op := range r.Instructions {
		if op.ProgramIDIndex < 0 || op.ProgramIDIndex >= len(r.AccountKeys) {
			return fmt.Errorf("%w: instruction %d program index %d out of range (%d accounts)",
				ErrMalformedRecord, i, op.ProgramIDIndex, len(r.AccountKeys))
		}
	}
	return nil
}
