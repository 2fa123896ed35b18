package ethbind

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// ContractOption configures a Contract at construction.
type ContractOption func(*Contract)

// WithAddress sets the bound contract's address. Bindings created for
// deployment leave it unset; it resolves when the deployment is mined.
func WithAddress(addr common.Address) ContractOption {
	return func(c *Contract) {
		c.address = addr
	}
}

// WithSender sets the account transactions and deployments are sent from.
func WithSender(addr common.Address) ContractOption {
	return func(c *Contract) {
		c.sender = addr
	}
}

// WithBytecode sets the deployment bytecode. Required for Deploy and for
// constructor gas estimates.
func WithBytecode(code []byte) ContractOption {
	return func(c *Contract) {
		c.bytecode = code
	}
}

// WithLogger sets the structured logger used for lifecycle and filter
// operations. The default discards everything.
func WithLogger(log zerolog.Logger) ContractOption {
	return func(c *Contract) {
		c.log = log
	}
}

// FilterOption configures an event filter registration.
type FilterOption func(*filterConfig)

// filterConfig holds the block range a filter is registered over.
type filterConfig struct {
	fromBlock string
	toBlock   string
}

func defaultFilterConfig() filterConfig {
	return filterConfig{fromBlock: "0x0", toBlock: "latest"}
}

// WithFromBlock sets the filter's lower block bound: a 0x-prefixed hex
// number or a symbolic tag. Default "0x0".
func WithFromBlock(block string) FilterOption {
	return func(c *filterConfig) {
		c.fromBlock = block
	}
}

// WithToBlock sets the filter's upper block bound. Default "latest".
func WithToBlock(block string) FilterOption {
	return func(c *filterConfig) {
		c.toBlock = block
	}
}

// WaitConfig bounds a receipt-polling wait.
type WaitConfig struct {
	// PollInterval is the sleep between receipt queries. Non-positive values
	// fall back to the default; the wait loop never spins.
	PollInterval time.Duration

	// Timeout bounds the total wall-clock wait. Zero means no time bound.
	Timeout time.Duration

	// MaxAttempts bounds the number of receipt queries. Zero means no
	// attempt bound.
	MaxAttempts int
}

// DefaultWaitConfig returns the polling bounds used when callers have no
// specific requirements: poll every 2s for up to 3 minutes.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		PollInterval: 2 * time.Second,
		Timeout:      3 * time.Minute,
	}
}
