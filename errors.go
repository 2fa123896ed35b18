package ethbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrTimedOut indicates receipt polling was exhausted before the
	// transaction was mined. It is retryable: the transaction may still be
	// mined later, and the same handle can be waited on again.
	ErrTimedOut = errors.New("ethbind: timed out waiting for transaction receipt")

	// ErrEmptyABI indicates the ABI defines no callable function or event.
	ErrEmptyABI = errors.New("ethbind: ABI defines no callable function or event")

	// ErrZeroTxHash indicates the chain returned the all-zero transaction
	// hash, the sentinel for a rejected submission (typically a locked or
	// unauthorized sender account).
	ErrZeroTxHash = errors.New("ethbind: chain returned the all-zero transaction hash")

	// ErrNoBytecode indicates a deployment operation on a binding that was
	// created without bytecode.
	ErrNoBytecode = errors.New("ethbind: contract has no deployment bytecode")

	// ErrNoAddress indicates a call or filter operation on a binding whose
	// address is not yet set.
	ErrNoAddress = errors.New("ethbind: contract address is not set")

	// ErrReverted indicates a mined transaction whose receipt reports a
	// failed execution status.
	ErrReverted = errors.New("ethbind: transaction reverted")
)

// SchemaError indicates a malformed ABI description. Schema errors are fatal
// and never retried.
type SchemaError struct {
	Entry string // offending entry name or type tag, if known
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("ethbind: invalid ABI entry %q: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("ethbind: invalid ABI: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ArityError indicates a call supplied the wrong number of arguments for the
// targeted function or constructor. This is a caller programming error.
type ArityError struct {
	Name string // function name, or "constructor"
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("ethbind: %s expects %d argument(s), got %d", e.Name, e.Want, e.Got)
}

// EncodingError indicates a value that cannot be encoded as its declared
// type: out of range for the bit width, or of an incompatible Go type.
type EncodingError struct {
	Type  string // canonical ABI type string
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ethbind: cannot encode %T as %s: %v", e.Value, e.Type, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodingError indicates wire data that is truncated or contains an
// out-of-bounds offset or length. It signals either a chain-client bug or a
// mismatch between the supplied types and the data.
type DecodingError struct {
	Type string // canonical ABI type string being decoded, if known
	Err  error
}

func (e *DecodingError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("ethbind: cannot decode %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("ethbind: cannot decode: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// DeploymentError indicates the chain rejected a deployment submission or a
// mined deployment produced no contract address. The attempt is dead; the
// caller may retry with a fresh submission.
type DeploymentError struct {
	Err error
}

func (e *DeploymentError) Error() string {
	return fmt.Sprintf("ethbind: deployment failed: %v", e.Err)
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// TransactionError indicates a submitted transaction failed on chain.
type TransactionError struct {
	Hash common.Hash
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("ethbind: transaction %s failed: %v", e.Hash.Hex(), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// MethodNotFoundError indicates the schema has no function under the
// requested dispatch name. For overloaded names, Candidates lists the
// disambiguated names that do exist.
type MethodNotFoundError struct {
	Method     string
	Candidates []string
}

func (e *MethodNotFoundError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("ethbind: method %q is overloaded, use one of: %s",
			e.Method, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("ethbind: method %q not found in ABI", e.Method)
}

// EventNotFoundError indicates the schema has no event under the requested
// dispatch name.
type EventNotFoundError struct {
	Event string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("ethbind: event %q not found in ABI", e.Event)
}
