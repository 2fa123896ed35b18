package ethbind

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// EventFilter tracks one log filter registered on the chain for a single
// event. The criteria are fixed at creation; only the address follows the
// owning Contract when a deployment resolves, in which case the filter is
// re-registered under a fresh chain-side identifier.
type EventFilter struct {
	contract *Contract
	event    Event
	cfg      filterConfig

	// id and address are guarded by contract.mu.
	id      FilterID
	address common.Address
}

// Log is one decoded event occurrence. Indexed holds the decoded
// indexed-parameter values in declaration order; indexed parameters of
// dynamic or composite type are only present on the log as their hash and
// come back as common.Hash. Data holds the decoded non-indexed parameters.
type Log struct {
	Name        string
	Address     common.Address
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	BlockHash   common.Hash
	Removed     bool
	Indexed     []any
	Data        []any
}

// NewEventFilter registers a log filter for the named event against the
// binding's current address (any address when unset), with topic[0] pinned
// to the event's signature hash. The block range defaults to ["0x0",
// "latest"] and is adjusted with FilterOptions.
func (c *Contract) NewEventFilter(ctx context.Context, event string, opts ...FilterOption) (*EventFilter, error) {
	ev, err := c.schema.Event(event)
	if err != nil {
		return nil, err
	}
	cfg := defaultFilterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &EventFilter{contract: c, event: ev, cfg: cfg}

	// Registration happens under the binding's lock so a concurrently
	// resolving deployment either sees this filter and re-registers it, or
	// this registration already observes the final address.
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := f.install(ctx, c.address); err != nil {
		return nil, err
	}
	c.filters = append(c.filters, f)
	c.log.Debug().Str("event", ev.Name).Str("filter", string(f.id)).Msg("filter registered")
	return f, nil
}

// install registers the filter with the chain for the given address and
// records the identifier. Callers hold contract.mu. The previous chain-side
// filter, if any, is simply left behind; filters are external state and cost
// nothing to abandon.
func (f *EventFilter) install(ctx context.Context, addr common.Address) error {
	q := FilterQuery{
		FromBlock: f.cfg.fromBlock,
		ToBlock:   f.cfg.toBlock,
	}
	if addr != (common.Address{}) {
		q.Address = &addr
	}
	if !f.event.Anonymous {
		q.Topics = [][]common.Hash{{f.event.Topic0}}
	}
	id, err := f.contract.client.NewFilter(ctx, q)
	if err != nil {
		return err
	}
	f.id = id
	f.address = addr
	return nil
}

// ID returns the chain-assigned filter identifier. It changes when the
// filter is re-registered after a deployment resolves.
func (f *EventFilter) ID() FilterID {
	f.contract.mu.RLock()
	defer f.contract.mu.RUnlock()
	return f.id
}

// Event returns the descriptor the filter decodes against.
func (f *EventFilter) Event() Event {
	return f.event
}

// Logs fetches and decodes every log matching the filter.
func (f *EventFilter) Logs(ctx context.Context) ([]Log, error) {
	raw, err := f.contract.client.FilterLogs(ctx, f.ID())
	if err != nil {
		return nil, err
	}
	return f.decodeAll(raw)
}

// Changes fetches and decodes the logs that arrived since the previous
// poll.
func (f *EventFilter) Changes(ctx context.Context) ([]Log, error) {
	raw, err := f.contract.client.FilterChanges(ctx, f.ID())
	if err != nil {
		return nil, err
	}
	return f.decodeAll(raw)
}

func (f *EventFilter) decodeAll(raw []RawLog) ([]Log, error) {
	logs := make([]Log, len(raw))
	for i, r := range raw {
		l, err := DecodeLog(f.event, r)
		if err != nil {
			return nil, err
		}
		logs[i] = l
	}
	return logs, nil
}

// DecodeLog decodes one raw log against an event descriptor. Indexed
// parameters are decoded from the topics (value types in place, everything
// else as the hash the chain stored); the remaining parameters are decoded
// from the data field.
func DecodeLog(ev Event, raw RawLog) (Log, error) {
	topics := raw.Topics
	if !ev.Anonymous {
		if len(topics) == 0 || topics[0] != ev.Topic0 {
			return Log{}, &DecodingError{
				Type: ev.Sig,
				Err:  errors.New("log topic[0] does not match the event signature hash"),
			}
		}
		topics = topics[1:]
	}

	indexed := ev.indexedInputs()
	if len(topics) < len(indexed) {
		return Log{}, &DecodingError{
			Type: ev.Sig,
			Err:  fmt.Errorf("log carries %d topic(s) for %d indexed parameter(s)", len(topics), len(indexed)),
		}
	}

	values := make([]any, len(indexed))
	for i, p := range indexed {
		if isValueType(p.Type) {
			v, err := decodeStatic(p.Type, topics[i][:], 0)
			if err != nil {
				return Log{}, err
			}
			values[i] = v
		} else {
			// Dynamic and composite indexed parameters are stored as the
			// hash of their encoding; the value itself is unrecoverable.
			values[i] = topics[i]
		}
	}

	data, err := DecodeArgs(ev.dataInputs(), raw.Data)
	if err != nil {
		return Log{}, err
	}

	return Log{
		Name:        ev.Name,
		Address:     raw.Address,
		BlockNumber: raw.BlockNumber,
		TxHash:      raw.TxHash,
		TxIndex:     raw.TxIndex,
		BlockHash:   raw.BlockHash,
		Removed:     raw.Removed,
		Indexed:     values,
		Data:        data,
	}, nil
}

// isValueType reports whether the type fits a single topic word verbatim.
func isValueType(t Type) bool {
	switch t.Kind {
	case KindUint, KindInt, KindAddress, KindBool, KindFixedBytes:
		return true
	}
	return false
}
