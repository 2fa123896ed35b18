package ethbind

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWait(maxAttempts int) WaitConfig {
	return WaitConfig{PollInterval: time.Millisecond, MaxAttempts: maxAttempts}
}

func TestWaitForMined(t *testing.T) {
	ctx := context.Background()

	t.Run("receipt after a few polls", func(t *testing.T) {
		client := newFakeClient()
		client.pendingPolls = 2
		client.receipt = &Receipt{TxHash: testHash, BlockNumber: 12, Status: 1}

		h := newTransactionHandle(client, testHash, zerolog.Nop())
		receipt, err := h.WaitForMined(ctx, fastWait(10))
		require.NoError(t, err)
		assert.Equal(t, uint64(12), receipt.BlockNumber)
		assert.Equal(t, TxMined, h.State())
		assert.Equal(t, 3, client.receiptPolls)
	})

	t.Run("already mined short circuits", func(t *testing.T) {
		client := newFakeClient()
		client.receipt = &Receipt{TxHash: testHash, Status: 1}

		h := newTransactionHandle(client, testHash, zerolog.Nop())
		_, err := h.WaitForMined(ctx, fastWait(10))
		require.NoError(t, err)

		polls := client.receiptPolls
		_, err = h.WaitForMined(ctx, fastWait(10))
		require.NoError(t, err)
		assert.Equal(t, polls, client.receiptPolls)
	})

	t.Run("reverted receipt fails the handle", func(t *testing.T) {
		client := newFakeClient()
		client.receipt = &Receipt{TxHash: testHash, BlockNumber: 3, Status: 0}

		h := newTransactionHandle(client, testHash, zerolog.Nop())
		receipt, err := h.WaitForMined(ctx, fastWait(10))
		assert.ErrorIs(t, err, ErrReverted)
		var txErr *TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, testHash, txErr.Hash)
		assert.Equal(t, TxFailed, h.State())
		// The receipt is still surfaced for inspection.
		require.NotNil(t, receipt)
		assert.Equal(t, uint64(3), receipt.BlockNumber)
	})

	t.Run("max attempts exhaustion is retryable", func(t *testing.T) {
		client := newFakeClient()
		client.pendingPolls = 5
		client.receipt = &Receipt{TxHash: testHash, BlockNumber: 9, Status: 1}

		h := newTransactionHandle(client, testHash, zerolog.Nop())

		_, err := h.WaitForMined(ctx, fastWait(2))
		assert.ErrorIs(t, err, ErrTimedOut)
		assert.Equal(t, TxTimedOut, h.State())

		// The chain mines the transaction later; resuming the same handle
		// succeeds.
		receipt, err := h.WaitForMined(ctx, fastWait(10))
		require.NoError(t, err)
		assert.Equal(t, uint64(9), receipt.BlockNumber)
		assert.Equal(t, TxMined, h.State())
	})

	t.Run("wall clock timeout", func(t *testing.T) {
		client := newFakeClient() // never produces a receipt

		h := newTransactionHandle(client, testHash, zerolog.Nop())
		cfg := WaitConfig{PollInterval: time.Millisecond, Timeout: 10 * time.Millisecond}
		_, err := h.WaitForMined(ctx, cfg)
		assert.ErrorIs(t, err, ErrTimedOut)
	})

	t.Run("cancellation leaves the handle pending", func(t *testing.T) {
		client := newFakeClient() // never produces a receipt

		cancelled, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		h := newTransactionHandle(client, testHash, zerolog.Nop())
		_, err := h.WaitForMined(cancelled, WaitConfig{PollInterval: 50 * time.Millisecond})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, TxPending, h.State())
	})
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "pending", TxPending.String())
	assert.Equal(t, "mined", TxMined.String())
	assert.Equal(t, "failed", TxFailed.String())
	assert.Equal(t, "timed out", TxTimedOut.String())
}

func TestWaitForDeployment(t *testing.T) {
	ctx := context.Background()
	deployed := testAddr

	t.Run("resolves and rebinds the address", func(t *testing.T) {
		client := newFakeClient()
		client.sendHash = testHash
		client.pendingPolls = 1
		client.receipt = &Receipt{TxHash: testHash, BlockNumber: 4, Status: 1, ContractAddress: deployed}

		c := newTestContract(t, client, WithSender(testSender), WithBytecode([]byte{0x60}))
		handle, err := c.Deploy(ctx, nil)
		require.Error(t, err) // nil is not an encodable uint256

		handle, err = c.Deploy(ctx, big.NewInt(1))
		require.NoError(t, err)

		addr, err := handle.WaitForDeployment(ctx, fastWait(10))
		require.NoError(t, err)
		assert.Equal(t, deployed, addr)
		assert.Equal(t, deployed, c.Address())
		assert.Equal(t, deployed, handle.Address())
	})

	t.Run("receipt without contract address", func(t *testing.T) {
		client := newFakeClient()
		client.sendHash = testHash
		client.receipt = &Receipt{TxHash: testHash, Status: 1}

		c := newTestContract(t, client, WithSender(testSender), WithBytecode([]byte{0x60}))
		handle, err := c.Deploy(ctx, big.NewInt(1))
		require.NoError(t, err)

		_, err = handle.WaitForDeployment(ctx, fastWait(10))
		var depErr *DeploymentError
		assert.ErrorAs(t, err, &depErr)
	})

	t.Run("timeout propagates as retryable", func(t *testing.T) {
		client := newFakeClient()
		client.sendHash = testHash
		client.pendingPolls = 100

		c := newTestContract(t, client, WithSender(testSender), WithBytecode([]byte{0x60}))
		handle, err := c.Deploy(ctx, big.NewInt(1))
		require.NoError(t, err)

		_, err = handle.WaitForDeployment(ctx, fastWait(2))
		assert.ErrorIs(t, err, ErrTimedOut)
		assert.Equal(t, common.Address{}, c.Address())
	})
}
