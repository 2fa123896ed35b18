package ethbind

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrTimedOut", ErrTimedOut, "ethbind: timed out waiting for transaction receipt"},
		{"ErrEmptyABI", ErrEmptyABI, "ethbind: ABI defines no callable function or event"},
		{"ErrZeroTxHash", ErrZeroTxHash, "ethbind: chain returned the all-zero transaction hash"},
		{"ErrNoBytecode", ErrNoBytecode, "ethbind: contract has no deployment bytecode"},
		{"ErrNoAddress", ErrNoAddress, "ethbind: contract address is not set"},
		{"ErrReverted", ErrReverted, "ethbind: transaction reverted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestTypedErrorMessages(t *testing.T) {
	hash := common.HexToHash("0x01")

	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{
			"SchemaError with entry",
			&SchemaError{Entry: "transfer", Err: errors.New("bad type")},
			`ethbind: invalid ABI entry "transfer": bad type`,
		},
		{
			"SchemaError without entry",
			&SchemaError{Err: errors.New("bad json")},
			"ethbind: invalid ABI: bad json",
		},
		{
			"ArityError",
			&ArityError{Name: "transfer", Want: 2, Got: 3},
			"ethbind: transfer expects 2 argument(s), got 3",
		},
		{
			"EncodingError",
			&EncodingError{Type: "uint8", Value: 300, Err: errors.New("value 300 out of range")},
			"ethbind: cannot encode int as uint8: value 300 out of range",
		},
		{
			"DecodingError",
			&DecodingError{Type: "string", Err: errors.New("data too short: need 64 byte(s), have 32")},
			"ethbind: cannot decode string: data too short: need 64 byte(s), have 32",
		},
		{
			"DeploymentError",
			&DeploymentError{Err: ErrZeroTxHash},
			"ethbind: deployment failed: ethbind: chain returned the all-zero transaction hash",
		},
		{
			"TransactionError",
			&TransactionError{Hash: hash, Err: ErrReverted},
			"ethbind: transaction 0x0000000000000000000000000000000000000000000000000000000000000001 failed: ethbind: transaction reverted",
		},
		{
			"MethodNotFoundError",
			&MethodNotFoundError{Method: "mint"},
			`ethbind: method "mint" not found in ABI`,
		},
		{
			"MethodNotFoundError with candidates",
			&MethodNotFoundError{Method: "transfer", Candidates: []string{"transfer__address__uint256"}},
			`ethbind: method "transfer" is overloaded, use one of: transfer__address__uint256`,
		},
		{
			"EventNotFoundError",
			&EventNotFoundError{Event: "Minted"},
			`ethbind: event "Minted" not found in ABI`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	t.Run("deployment sentinel", func(t *testing.T) {
		err := error(&DeploymentError{Err: ErrZeroTxHash})
		assert.ErrorIs(t, err, ErrZeroTxHash)

		var depErr *DeploymentError
		require.ErrorAs(t, err, &depErr)
	})

	t.Run("reverted transaction", func(t *testing.T) {
		err := error(&TransactionError{Hash: common.Hash{}, Err: ErrReverted})
		assert.ErrorIs(t, err, ErrReverted)
	})

	t.Run("nested codec error", func(t *testing.T) {
		inner := errors.New("boom")
		err := error(&EncodingError{Type: "uint256", Err: inner})
		assert.ErrorIs(t, err, inner)
	})
}
