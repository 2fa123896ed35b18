package ethbind

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Contract binds a parsed ABI, a sender, and an optional address and
// bytecode to a chain client, and dispatches calls, transactions,
// deployments, and event filters through it.
//
// The address is the binding's only mutable state. It is set either at
// construction (WithAddress), explicitly (SetAddress), or by a resolving
// deployment, and every event filter created from the binding follows it.
// All other fields are immutable and the binding is safe for concurrent use.
type Contract struct {
	schema   *Schema
	client   ChainClient
	bytecode []byte
	sender   common.Address
	log      zerolog.Logger

	// mu guards address and filters. It is held across filter
	// (re)registration so a concurrent filter creation can never observe a
	// stale address.
	mu      sync.RWMutex
	address common.Address
	filters []*EventFilter
}

// NewContract parses abiJSON and binds it to the given chain client. The
// client is required; address, sender, and bytecode are supplied through
// options as the use case needs them.
func NewContract(abiJSON []byte, client ChainClient, opts ...ContractOption) (*Contract, error) {
	if client == nil {
		return nil, errors.New("ethbind: nil chain client")
	}
	schema, err := ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}
	c := &Contract{
		schema: schema,
		client: client,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Schema returns the parsed ABI descriptors.
func (c *Contract) Schema() *Schema {
	return c.schema
}

// Address returns the currently bound contract address. Zero until a
// deployment resolves or the address is set explicitly.
func (c *Contract) Address() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// Sender returns the account transactions are sent from.
func (c *Contract) Sender() common.Address {
	return c.sender
}

// SetAddress rebinds the contract to addr and re-registers every event
// filter that was created against a different (typically pre-deployment)
// address, so no filter is left orphaned on the old one.
//
// On a re-registration error the new address is already in place and the
// filters processed so far are already moved; calling SetAddress again with
// the same address resumes with the remaining ones.
func (c *Contract) SetAddress(ctx context.Context, addr common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = addr
	for _, f := range c.filters {
		if f.address == addr {
			continue
		}
		if err := f.install(ctx, addr); err != nil {
			return err
		}
	}
	return nil
}

// EstimateGas asks the chain for the gas required to deploy the contract
// with the given constructor arguments.
func (c *Contract) EstimateGas(ctx context.Context, args ...any) (uint64, error) {
	data, err := c.deployData(args)
	if err != nil {
		return 0, err
	}
	return c.client.EstimateGas(ctx, CallMsg{From: c.sender, Data: data})
}

// Deploy submits the contract-creation transaction and returns a pending
// DeploymentHandle without blocking. The chain returning no usable
// transaction hash (the all-zero sentinel) fails with a *DeploymentError.
func (c *Contract) Deploy(ctx context.Context, args ...any) (*DeploymentHandle, error) {
	data, err := c.deployData(args)
	if err != nil {
		return nil, err
	}
	hash, err := c.client.SendTransaction(ctx, CallMsg{From: c.sender, Data: data})
	if err != nil {
		return nil, &DeploymentError{Err: err}
	}
	if hash == (common.Hash{}) {
		return nil, &DeploymentError{Err: ErrZeroTxHash}
	}
	c.log.Debug().Str("tx", hash.Hex()).Msg("deployment submitted")
	return &DeploymentHandle{
		TransactionHandle: newTransactionHandle(c.client, hash, c.log),
		contract:          c,
	}, nil
}

// Call performs a read-only invocation of the named function and decodes
// the result against its declared outputs. A function declaring exactly one
// output returns that value unwrapped; zero outputs return nil; more return
// an ordered []any.
func (c *Contract) Call(ctx context.Context, method string, args ...any) (any, error) {
	m, data, err := c.callData(method, args)
	if err != nil {
		return nil, err
	}
	to := c.Address()
	if to == (common.Address{}) {
		return nil, ErrNoAddress
	}
	raw, err := c.client.CallContract(ctx, CallMsg{From: c.sender, To: &to, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := DecodeArgs(m.Outputs, raw)
	if err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

// Transact submits a state-mutating invocation of the named function and
// returns a pending handle without blocking.
func (c *Contract) Transact(ctx context.Context, method string, args ...any) (*TransactionHandle, error) {
	_, data, err := c.callData(method, args)
	if err != nil {
		return nil, err
	}
	to := c.Address()
	if to == (common.Address{}) {
		return nil, ErrNoAddress
	}
	hash, err := c.client.SendTransaction(ctx, CallMsg{From: c.sender, To: &to, Data: data})
	if err != nil {
		return nil, &TransactionError{Err: err}
	}
	if hash == (common.Hash{}) {
		return nil, &TransactionError{Err: ErrZeroTxHash}
	}
	c.log.Debug().Str("tx", hash.Hex()).Str("method", method).Msg("transaction submitted")
	return newTransactionHandle(c.client, hash, c.log), nil
}

// TransactAndWait is Transact followed by WaitForMined. The handle is
// returned even when the wait ends in ErrTimedOut, so the caller can resume
// waiting on it.
func (c *Contract) TransactAndWait(ctx context.Context, cfg WaitConfig, method string, args ...any) (*TransactionHandle, error) {
	handle, err := c.Transact(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if _, err := handle.WaitForMined(ctx, cfg); err != nil {
		return handle, err
	}
	return handle, nil
}

// callData resolves the method and builds selector-prefixed call data.
func (c *Contract) callData(method string, args []any) (Method, []byte, error) {
	m, err := c.schema.Method(method)
	if err != nil {
		return Method{}, nil, err
	}
	if len(args) != len(m.Inputs) {
		return Method{}, nil, &ArityError{Name: m.Name, Want: len(m.Inputs), Got: len(args)}
	}
	enc, err := EncodeArgs(m.Inputs, args)
	if err != nil {
		return Method{}, nil, err
	}
	return m, append(m.Selector[:], enc...), nil
}

// deployData builds the creation payload: bytecode with the encoded
// constructor arguments appended, no selector.
func (c *Contract) deployData(args []any) ([]byte, error) {
	if len(c.bytecode) == 0 {
		return nil, ErrNoBytecode
	}
	if len(args) != c.schema.ConstructorArity() {
		return nil, &ArityError{Name: "constructor", Want: c.schema.ConstructorArity(), Got: len(args)}
	}
	data := make([]byte, len(c.bytecode))
	copy(data, c.bytecode)
	if c.schema.Constructor == nil {
		return data, nil
	}
	enc, err := EncodeArgs(c.schema.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}
	return append(data, enc...), nil
}
