package ethbind

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCClient implements ChainClient over a JSON-RPC connection. All numeric
// wire values travel as 0x-prefixed hex per the JSON-RPC conventions.
type RPCClient struct {
	c *rpc.Client
}

// NewRPCClient wraps an established JSON-RPC connection.
func NewRPCClient(c *rpc.Client) *RPCClient {
	return &RPCClient{c: c}
}

// DialRPC connects to a JSON-RPC endpoint (http, ws, or ipc URL).
func DialRPC(ctx context.Context, url string) (*RPCClient, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RPCClient{c: c}, nil
}

// Close tears down the underlying connection.
func (r *RPCClient) Close() {
	r.c.Close()
}

// callArg is the wire shape of a call/transaction object. To is omitted for
// contract creation.
type callArg struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to,omitempty"`
	Data hexutil.Bytes   `json:"data"`
}

func toCallArg(msg CallMsg) callArg {
	return callArg{From: msg.From, To: msg.To, Data: msg.Data}
}

// CallContract implements ChainClient using eth_call against the latest
// block.
func (r *RPCClient) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	err := r.c.CallContext(ctx, &out, "eth_call", toCallArg(msg), "latest")
	return out, err
}

// SendTransaction implements ChainClient using eth_sendTransaction.
func (r *RPCClient) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	var out common.Hash
	err := r.c.CallContext(ctx, &out, "eth_sendTransaction", toCallArg(msg))
	return out, err
}

// EstimateGas implements ChainClient using eth_estimateGas.
func (r *RPCClient) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var out hexutil.Uint64
	err := r.c.CallContext(ctx, &out, "eth_estimateGas", toCallArg(msg))
	return uint64(out), err
}

type rpcReceipt struct {
	TxHash          common.Hash     `json:"transactionHash"`
	BlockHash       common.Hash     `json:"blockHash"`
	BlockNumber     hexutil.Uint64  `json:"blockNumber"`
	TxIndex         hexutil.Uint    `json:"transactionIndex"`
	ContractAddress *common.Address `json:"contractAddress"`
	GasUsed         hexutil.Uint64  `json:"gasUsed"`
	Status          hexutil.Uint64  `json:"status"`
}

// TransactionReceipt implements ChainClient using eth_getTransactionReceipt.
// A pending or unknown transaction yields (nil, nil).
func (r *RPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	var raw *rpcReceipt
	if err := r.c.CallContext(ctx, &raw, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	receipt := &Receipt{
		TxHash:      raw.TxHash,
		BlockHash:   raw.BlockHash,
		BlockNumber: uint64(raw.BlockNumber),
		TxIndex:     uint(raw.TxIndex),
		GasUsed:     uint64(raw.GasUsed),
		Status:      uint64(raw.Status),
	}
	if raw.ContractAddress != nil {
		receipt.ContractAddress = *raw.ContractAddress
	}
	return receipt, nil
}

// filterArg is the wire shape of a filter registration object.
type filterArg struct {
	FromBlock string          `json:"fromBlock,omitempty"`
	ToBlock   string          `json:"toBlock,omitempty"`
	Address   *common.Address `json:"address,omitempty"`
	Topics    [][]common.Hash `json:"topics,omitempty"`
}

// NewFilter implements ChainClient using eth_newFilter.
func (r *RPCClient) NewFilter(ctx context.Context, q FilterQuery) (FilterID, error) {
	var out string
	arg := filterArg{
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
		Address:   q.Address,
		Topics:    q.Topics,
	}
	err := r.c.CallContext(ctx, &out, "eth_newFilter", arg)
	return FilterID(out), err
}

type rpcLog struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	TxIndex     hexutil.Uint   `json:"transactionIndex"`
	BlockHash   common.Hash    `json:"blockHash"`
	Removed     bool           `json:"removed"`
}

func fromRPCLogs(raw []rpcLog) []RawLog {
	logs := make([]RawLog, len(raw))
	for i, l := range raw {
		logs[i] = RawLog{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			BlockNumber: uint64(l.BlockNumber),
			TxHash:      l.TxHash,
			TxIndex:     uint(l.TxIndex),
			BlockHash:   l.BlockHash,
			Removed:     l.Removed,
		}
	}
	return logs
}

// FilterLogs implements ChainClient using eth_getFilterLogs.
func (r *RPCClient) FilterLogs(ctx context.Context, id FilterID) ([]RawLog, error) {
	var raw []rpcLog
	if err := r.c.CallContext(ctx, &raw, "eth_getFilterLogs", string(id)); err != nil {
		return nil, err
	}
	return fromRPCLogs(raw), nil
}

// FilterChanges implements ChainClient using eth_getFilterChanges.
func (r *RPCClient) FilterChanges(ctx context.Context, id FilterID) ([]RawLog, error) {
	var raw []rpcLog
	if err := r.c.CallContext(ctx, &raw, "eth_getFilterChanges", string(id)); err != nil {
		return nil, err
	}
	return fromRPCLogs(raw), nil
}
