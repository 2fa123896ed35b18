package ethbind

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// TxState is the lifecycle state of a submitted transaction as seen by its
// handle. The handle only reflects what polling has observed; chain truth
// can run ahead of it and is recovered by polling again.
type TxState uint8

const (
	// TxPending means no receipt has been observed yet.
	TxPending TxState = iota

	// TxMined means a receipt with a successful status was observed.
	TxMined

	// TxFailed means a receipt reporting a reverted execution was observed.
	TxFailed

	// TxTimedOut means the last wait exhausted its bounds. Unlike the other
	// terminal states it is resumable: waiting again keeps polling.
	TxTimedOut
)

func (s TxState) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxMined:
		return "mined"
	case TxFailed:
		return "failed"
	case TxTimedOut:
		return "timed out"
	}
	return "unknown"
}

// TransactionHandle tracks one submitted transaction. It transitions only
// through explicit polling and never resubmits anything; abandoning it has
// no effect on the transaction's on-chain outcome.
type TransactionHandle struct {
	client ChainClient
	hash   common.Hash
	log    zerolog.Logger

	mu      sync.Mutex
	state   TxState
	receipt *Receipt
}

func newTransactionHandle(client ChainClient, hash common.Hash, log zerolog.Logger) *TransactionHandle {
	return &TransactionHandle{
		client: client,
		hash:   hash,
		log:    log.With().Str("tx", hash.Hex()).Logger(),
	}
}

// Hash returns the transaction hash the handle polls for.
func (h *TransactionHandle) Hash() common.Hash {
	return h.hash
}

// State returns the last observed lifecycle state.
func (h *TransactionHandle) State() TxState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Receipt returns the receipt captured by a successful or failed poll, or
// nil while pending.
func (h *TransactionHandle) Receipt() *Receipt {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.receipt
}

// WaitForMined polls the chain for the transaction's receipt, sleeping
// cfg.PollInterval between attempts, until the receipt appears, the bounds
// are exhausted, or ctx is cancelled.
//
// A receipt with a failed status transitions the handle to TxFailed and
// returns a *TransactionError wrapping ErrReverted. Exhausted bounds
// transition to TxTimedOut and return ErrTimedOut; this is retryable, and
// calling WaitForMined again resumes polling the same handle. Cancellation
// leaves the handle pending and the chain state untouched.
func (h *TransactionHandle) WaitForMined(ctx context.Context, cfg WaitConfig) (*Receipt, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultWaitConfig().PollInterval
	}

	// A previous wait may already have resolved the transaction.
	switch state, receipt := h.snapshot(); state {
	case TxMined:
		return receipt, nil
	case TxFailed:
		return receipt, &TransactionError{Hash: h.hash, Err: ErrReverted}
	}

	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = time.Now().Add(cfg.Timeout)
	}

	for attempt := 1; ; attempt++ {
		receipt, err := h.client.TransactionReceipt(ctx, h.hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				h.setState(TxFailed, receipt)
				h.log.Debug().Uint64("block", receipt.BlockNumber).Msg("transaction reverted")
				return receipt, &TransactionError{Hash: h.hash, Err: ErrReverted}
			}
			h.setState(TxMined, receipt)
			h.log.Debug().Uint64("block", receipt.BlockNumber).Msg("transaction mined")
			return receipt, nil
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		h.log.Debug().Int("attempt", attempt).Msg("receipt not yet available")
		timer := time.NewTimer(cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	h.setState(TxTimedOut, nil)
	return nil, ErrTimedOut
}

func (h *TransactionHandle) snapshot() (TxState, *Receipt) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.receipt
}

func (h *TransactionHandle) setState(state TxState, receipt *Receipt) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	if receipt != nil {
		h.receipt = receipt
	}
}

// DeploymentHandle tracks a contract-creation transaction and resolves the
// resulting contract address once mined.
type DeploymentHandle struct {
	*TransactionHandle
	contract *Contract
}

// WaitForDeployment is WaitForMined plus address resolution: on success it
// extracts the deployed contract address from the receipt and rebinds the
// owning Contract to it, re-registering any event filters created before
// the deployment resolved.
func (d *DeploymentHandle) WaitForDeployment(ctx context.Context, cfg WaitConfig) (common.Address, error) {
	receipt, err := d.WaitForMined(ctx, cfg)
	if err != nil {
		return common.Address{}, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, &DeploymentError{Err: errors.New("receipt carries no contract address")}
	}
	if err := d.contract.SetAddress(ctx, receipt.ContractAddress); err != nil {
		return receipt.ContractAddress, err
	}
	d.log.Debug().Str("address", receipt.ContractAddress.Hex()).Msg("deployment resolved")
	return receipt.ContractAddress, nil
}

// Address returns the deployed contract address, or zero while the
// deployment is unresolved.
func (d *DeploymentHandle) Address() common.Address {
	if receipt := d.Receipt(); receipt != nil {
		return receipt.ContractAddress
	}
	return common.Address{}
}
