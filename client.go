package ethbind

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// CallMsg is the payload of a read-only call, a transaction submission, or a
// gas estimate. A nil To designates contract creation.
type CallMsg struct {
	From common.Address
	To   *common.Address
	Data []byte
}

// Receipt confirms a transaction's inclusion in a block.
type Receipt struct {
	TxHash      common.Hash
	BlockHash   common.Hash
	BlockNumber uint64
	TxIndex     uint

	// ContractAddress is the created contract's address. Zero for
	// non-deployment transactions.
	ContractAddress common.Address

	GasUsed uint64

	// Status is 1 for successful execution, 0 for a revert.
	Status uint64
}

// RawLog is one undecoded event log as returned by the chain.
type RawLog struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	BlockHash   common.Hash
	Removed     bool
}

// FilterID is the chain-assigned identifier of a registered log filter.
// Opaque to this package.
type FilterID string

// FilterQuery is the address/topic/block-range criteria of a log filter.
// Block bounds are chain-client block specifiers: a 0x-prefixed hex number
// or one of the symbolic tags ("latest", "earliest", "pending").
type FilterQuery struct {
	Address   *common.Address
	Topics    [][]common.Hash
	FromBlock string
	ToBlock   string
}

// ChainClient is the RPC surface this package consumes. RPCClient is the
// bundled JSON-RPC implementation; tests substitute fakes. Implementations
// must be safe for concurrent use.
type ChainClient interface {
	// CallContract executes a read-only call and returns the raw ABI-encoded
	// result. No chain state is mutated and no transaction is created.
	CallContract(ctx context.Context, msg CallMsg) ([]byte, error)

	// SendTransaction submits a state-mutating transaction and returns its
	// hash. Inclusion is not guaranteed; callers poll TransactionReceipt.
	SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error)

	// EstimateGas returns the gas required to execute msg.
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)

	// TransactionReceipt returns the receipt of a mined transaction, or
	// (nil, nil) while the transaction is still pending or unknown.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)

	// NewFilter registers a log filter on the chain and returns its
	// identifier.
	NewFilter(ctx context.Context, q FilterQuery) (FilterID, error)

	// FilterLogs returns every log matching the filter.
	FilterLogs(ctx context.Context, id FilterID) ([]RawLog, error)

	// FilterChanges returns the logs that arrived since the previous poll of
	// the same filter.
	FilterChanges(ctx context.Context, id FilterID) ([]RawLog, error)
}
