package ethbind

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory ChainClient shared by the binding, lifecycle,
// and filter tests.
type fakeClient struct {
	mu sync.Mutex

	callResult []byte
	callErr    error
	calls      []CallMsg

	sendHash common.Hash
	sendErr  error
	sent     []CallMsg

	gas    uint64
	gasErr error

	// pendingPolls is how many receipt queries answer nil before receipt is
	// served.
	pendingPolls int
	receipt      *Receipt
	receiptPolls int

	nextFilter int
	queries    []FilterQuery
	logs       map[FilterID][]RawLog

	// filterErr is returned by NewFilter once filterErrAfter more calls
	// have succeeded.
	filterErr      error
	filterErrAfter int
}

func newFakeClient() *fakeClient {
	return &fakeClient{logs: make(map[FilterID][]RawLog)}
}

func (f *fakeClient) CallContract(_ context.Context, msg CallMsg) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callResult, f.callErr
}

func (f *fakeClient) SendTransaction(_ context.Context, msg CallMsg) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.sendHash, f.sendErr
}

func (f *fakeClient) EstimateGas(_ context.Context, msg CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gas, f.gasErr
}

func (f *fakeClient) TransactionReceipt(_ context.Context, _ common.Hash) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptPolls++
	if f.pendingPolls > 0 {
		f.pendingPolls--
		return nil, nil
	}
	return f.receipt, nil
}

func (f *fakeClient) NewFilter(_ context.Context, q FilterQuery) (FilterID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filterErr != nil {
		if f.filterErrAfter == 0 {
			return "", f.filterErr
		}
		f.filterErrAfter--
	}
	f.nextFilter++
	f.queries = append(f.queries, q)
	return FilterID(fmt.Sprintf("0x%x", f.nextFilter)), nil
}

func (f *fakeClient) FilterLogs(_ context.Context, id FilterID) ([]RawLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[id], nil
}

func (f *fakeClient) FilterChanges(_ context.Context, id FilterID) ([]RawLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[id], nil
}

func (f *fakeClient) lastQuery() FilterQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

var (
	testAddr   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testSender = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testHash   = common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func newTestContract(t *testing.T, client ChainClient, opts ...ContractOption) *Contract {
	t.Helper()
	c, err := NewContract([]byte(testTokenABI), client, opts...)
	require.NoError(t, err)
	return c
}

func TestNewContract(t *testing.T) {
	t.Run("requires a client", func(t *testing.T) {
		_, err := NewContract([]byte(testTokenABI), nil)
		assert.Error(t, err)
	})

	t.Run("rejects a malformed ABI", func(t *testing.T) {
		_, err := NewContract([]byte(`[`), newFakeClient())
		var schemaErr *SchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("applies options", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(),
			WithAddress(testAddr), WithSender(testSender))
		assert.Equal(t, testAddr, c.Address())
		assert.Equal(t, testSender, c.Sender())
	})
}

func TestContractCall(t *testing.T) {
	ctx := context.Background()

	t.Run("single output is unwrapped", func(t *testing.T) {
		client := newFakeClient()
		client.callResult, _ = EncodeArgs(params("uint256"), []any{big.NewInt(1000)})

		c := newTestContract(t, client, WithAddress(testAddr), WithSender(testSender))
		out, err := c.Call(ctx, "totalSupply")
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(1000), out)
	})

	t.Run("multiple outputs come back ordered", func(t *testing.T) {
		client := newFakeClient()
		client.callResult, _ = EncodeArgs(params("string", "uint8"), []any{"Token", big.NewInt(18)})

		c := newTestContract(t, client, WithAddress(testAddr))
		out, err := c.Call(ctx, "info")
		require.NoError(t, err)
		require.Len(t, out, 2)
		list := out.([]any)
		assert.Equal(t, "Token", list[0])
		assert.Equal(t, big.NewInt(18), list[1])
	})

	t.Run("call data is selector plus encoded args", func(t *testing.T) {
		client := newFakeClient()
		client.callResult, _ = EncodeArgs(params("uint256"), []any{big.NewInt(0)})

		c := newTestContract(t, client, WithAddress(testAddr), WithSender(testSender))
		holder := common.HexToAddress("0x3333333333333333333333333333333333333333")
		_, err := c.Call(ctx, "balanceOf", holder)
		require.NoError(t, err)

		require.Len(t, client.calls, 1)
		msg := client.calls[0]
		require.NotNil(t, msg.To)
		assert.Equal(t, testAddr, *msg.To)
		assert.Equal(t, testSender, msg.From)
		require.Len(t, msg.Data, 4+WordSize)
		assert.Equal(t, []byte{0x70, 0xa0, 0x82, 0x31}, msg.Data[:4])
	})

	t.Run("requires an address", func(t *testing.T) {
		c := newTestContract(t, newFakeClient())
		_, err := c.Call(ctx, "totalSupply")
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("wrong argument count", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(), WithAddress(testAddr))
		_, err := c.Call(ctx, "balanceOf")
		var arityErr *ArityError
		require.ErrorAs(t, err, &arityErr)
		assert.Equal(t, 1, arityErr.Want)
		assert.Equal(t, 0, arityErr.Got)
	})

	t.Run("unknown method", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(), WithAddress(testAddr))
		_, err := c.Call(ctx, "mint")
		var notFound *MethodNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestContractCallUnwrapScenario(t *testing.T) {
	// A getter declaring exactly one uint256 output returns a bare integer,
	// not a one-element list.
	abi := `[{"type":"function","name":"get","inputs":[],"outputs":[{"type":"uint256"}]}]`
	client := newFakeClient()
	client.callResult, _ = EncodeArgs(params("uint256"), []any{big.NewInt(42)})

	c, err := NewContract([]byte(abi), client, WithAddress(testAddr))
	require.NoError(t, err)

	out, err := c.Call(context.Background(), "get")
	require.NoError(t, err)
	require.IsType(t, (*big.Int)(nil), out)
	assert.Equal(t, big.NewInt(42), out)
}

func TestContractTransact(t *testing.T) {
	ctx := context.Background()

	t.Run("returns a pending handle without blocking", func(t *testing.T) {
		client := newFakeClient()
		client.sendHash = testHash

		c := newTestContract(t, client, WithAddress(testAddr), WithSender(testSender))
		handle, err := c.Transact(ctx, "transfer", testAddr, big.NewInt(5))
		require.NoError(t, err)
		assert.Equal(t, testHash, handle.Hash())
		assert.Equal(t, TxPending, handle.State())
		assert.Zero(t, client.receiptPolls)
	})

	t.Run("zero hash sentinel", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(), WithAddress(testAddr))
		_, err := c.Transact(ctx, "transfer", testAddr, big.NewInt(5))
		var txErr *TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.ErrorIs(t, err, ErrZeroTxHash)
	})
}

func TestContractDeploy(t *testing.T) {
	ctx := context.Background()
	bytecode := []byte{0x60, 0x80, 0x60, 0x40}

	t.Run("creation payload is bytecode plus constructor args", func(t *testing.T) {
		client := newFakeClient()
		client.sendHash = testHash

		c := newTestContract(t, client,
			WithSender(testSender), WithBytecode(bytecode))
		handle, err := c.Deploy(ctx, big.NewInt(1000))
		require.NoError(t, err)
		assert.Equal(t, TxPending, handle.State())

		require.Len(t, client.sent, 1)
		msg := client.sent[0]
		assert.Nil(t, msg.To)
		assert.Equal(t, testSender, msg.From)
		assert.Equal(t, bytecode, msg.Data[:len(bytecode)])
		encoded, _ := EncodeArgs(params("uint256"), []any{big.NewInt(1000)})
		assert.Equal(t, encoded, msg.Data[len(bytecode):])
	})

	t.Run("zero hash sentinel", func(t *testing.T) {
		// A client answering with the all-zero hash signals a rejected
		// submission; no pending handle may be produced.
		c := newTestContract(t, newFakeClient(),
			WithSender(testSender), WithBytecode(bytecode))
		_, err := c.Deploy(ctx, big.NewInt(1))
		var depErr *DeploymentError
		require.ErrorAs(t, err, &depErr)
		assert.ErrorIs(t, err, ErrZeroTxHash)
	})

	t.Run("requires bytecode", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(), WithSender(testSender))
		_, err := c.Deploy(ctx, big.NewInt(1))
		assert.ErrorIs(t, err, ErrNoBytecode)
	})

	t.Run("constructor arity", func(t *testing.T) {
		c := newTestContract(t, newFakeClient(), WithBytecode(bytecode))
		_, err := c.Deploy(ctx)
		var arityErr *ArityError
		require.ErrorAs(t, err, &arityErr)
		assert.Equal(t, "constructor", arityErr.Name)
	})

	t.Run("absent constructor takes no args", func(t *testing.T) {
		abi := `[{"type":"function","name":"get","inputs":[],"outputs":[{"type":"uint256"}]}]`
		client := newFakeClient()
		client.sendHash = testHash

		c, err := NewContract([]byte(abi), client, WithBytecode(bytecode))
		require.NoError(t, err)
		_, err = c.Deploy(ctx)
		require.NoError(t, err)
		assert.Equal(t, bytecode, client.sent[0].Data)
	})
}

func TestContractEstimateGas(t *testing.T) {
	client := newFakeClient()
	client.gas = 21000

	c := newTestContract(t, client,
		WithSender(testSender), WithBytecode([]byte{0x60}))

	gas, err := c.EstimateGas(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)

	_, err = c.EstimateGas(context.Background())
	var arityErr *ArityError
	assert.ErrorAs(t, err, &arityErr)
}

func TestTransactAndWait(t *testing.T) {
	client := newFakeClient()
	client.sendHash = testHash
	client.pendingPolls = 1
	client.receipt = &Receipt{TxHash: testHash, BlockNumber: 7, Status: 1}

	c := newTestContract(t, client, WithAddress(testAddr), WithSender(testSender))
	cfg := WaitConfig{PollInterval: time.Millisecond}

	handle, err := c.TransactAndWait(context.Background(), cfg, "transfer", testAddr, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, TxMined, handle.State())
	require.NotNil(t, handle.Receipt())
	assert.Equal(t, uint64(7), handle.Receipt().BlockNumber)
}
