// Package ethbind provides a contract-binding layer for Ethereum-style
// chains: ABI parsing, the 32-byte-word ABI codec, and the asynchronous
// lifecycle of deployments, transactions, and event-log filters on top of
// an injected chain client.
//
// # Basic Usage
//
// Parse an ABI, bind a contract, and interact with it:
//
//	client, err := ethbind.DialRPC(ctx, "http://localhost:8545")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	token, err := ethbind.NewContract(tokenABIJSON, client,
//	    ethbind.WithAddress(tokenAddr),
//	    ethbind.WithSender(senderAddr),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Read-only call: a single declared output is returned unwrapped.
//	balance, err := token.Call(ctx, "balanceOf", holderAddr)
//
//	// State-mutating call: returns a pending handle immediately.
//	handle, err := token.Transact(ctx, "transfer", recipient, big.NewInt(10))
//	receipt, err := handle.WaitForMined(ctx, ethbind.DefaultWaitConfig())
//
// # Deployment
//
// Binding a contract with bytecode enables deployment. Deploy submits the
// creation transaction and returns without blocking; WaitForDeployment polls
// for the receipt and resolves the contract address:
//
//	counter, _ := ethbind.NewContract(counterABIJSON, client,
//	    ethbind.WithBytecode(counterBytecode),
//	    ethbind.WithSender(senderAddr),
//	)
//	deployment, err := counter.Deploy(ctx, big.NewInt(42))
//	addr, err := deployment.WaitForDeployment(ctx, ethbind.DefaultWaitConfig())
//
// Event filters created before the deployment resolves are re-registered
// against the final address automatically.
//
// # Event Filters
//
// Filters are registered on the chain and polled for logs:
//
//	filter, err := counter.NewEventFilter(ctx, "ValueChanged")
//	logs, err := filter.Changes(ctx)
//
// Indexed parameters are decoded from topics (dynamic indexed parameters are
// only recoverable as their hash), and the remaining parameters are decoded
// from the log data field.
//
// # Codec
//
// The ABI codec is exposed directly for callers that build their own call
// data: EncodeArgs and DecodeArgs convert between Go values and the chain's
// head/tail word encoding. Decoding trusts the caller-supplied types; pairing
// the wrong types with wire data yields garbage values, not an error.
//
// # Chain Client
//
// All chain interaction goes through the ChainClient interface. RPCClient is
// the bundled JSON-RPC implementation; tests and alternative transports can
// supply their own. There is no process-wide default client - every Contract
// takes its client at construction.
package ethbind
