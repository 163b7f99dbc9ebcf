package chain

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/types"
)

type testActor struct {
	addr    types.Address
	receive func(ctx *Context) error
	state   []byte
}

func (a *testActor) Address() types.Address     { return a.addr }
func (a *testActor) Receive(ctx *Context) error { return a.receive(ctx) }
func (a *testActor) EncodeState() []byte        { return a.state }

type memCells struct {
	cells map[types.Address][]byte
}

func (m *memCells) PutCell(addr types.Address, state []byte) error {
	if m.cells == nil {
		m.cells = make(map[types.Address][]byte)
	}
	m.cells[addr] = append([]byte{}, state...)
	return nil
}

func body(op uint32, queryID uint64) []byte {
	return types.NewWriter(op, queryID).Bytes()
}

func TestLedger_plainValueTransfer(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	to := types.ExternalAddress("bob")
	l.Faucet(from, math.NewInt(100))

	err := l.Submit(Envelope{From: from, To: to, Value: math.NewInt(40)})
	require.NoError(t, err)

	assert.Equal(t, math.NewInt(60), l.BalanceOf(from))
	assert.Equal(t, math.NewInt(40), l.BalanceOf(to))
}

func TestLedger_insufficientFunds(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(10))

	err := l.Submit(Envelope{From: from, To: types.ExternalAddress("bob"), Value: math.NewInt(40)})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.Equal(t, math.NewInt(10), l.BalanceOf(from))
}

func TestLedger_bounceOnReceiveError(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(100))

	actor := &testActor{
		addr:    types.ExternalAddress("broken"),
		receive: func(ctx *Context) error { return errors.New("nope") },
	}
	l.Register(actor, math.ZeroInt())

	err := l.Submit(Envelope{
		From:   from,
		To:     actor.Address(),
		Value:  math.NewInt(30),
		Bounce: true,
		Body:   body(0xdead0001, 7),
	})
	require.Error(t, err)

	// the attached value came back with the bounce
	assert.Equal(t, math.NewInt(100), l.BalanceOf(from))
	assert.True(t, math.ZeroInt().Equal(l.BalanceOf(actor.Address())))
}

func TestLedger_nonBounceableKeepsValue(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(100))

	actor := &testActor{
		addr:    types.ExternalAddress("broken"),
		receive: func(ctx *Context) error { return errors.New("nope") },
	}
	l.Register(actor, math.ZeroInt())

	err := l.Submit(Envelope{
		From:  from,
		To:    actor.Address(),
		Value: math.NewInt(30),
		Body:  body(0xdead0001, 7),
	})
	require.Error(t, err)

	assert.Equal(t, math.NewInt(70), l.BalanceOf(from))
	assert.Equal(t, math.NewInt(30), l.BalanceOf(actor.Address()))
}

func TestLedger_sendsDiscardedOnError(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	other := types.ExternalAddress("other")
	l.Faucet(from, math.NewInt(100))

	actor := &testActor{addr: types.ExternalAddress("half")}
	actor.receive = func(ctx *Context) error {
		ctx.Send(other, math.NewInt(10), false, nil)
		return errors.New("after queueing")
	}
	l.Register(actor, math.ZeroInt())

	_ = l.Submit(Envelope{From: from, To: actor.Address(), Value: math.NewInt(30), Body: body(1, 1)})

	assert.Equal(t, math.ZeroInt(), l.BalanceOf(other))
}

func TestLedger_commitFailsOnOverspend(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(100))

	actor := &testActor{addr: types.ExternalAddress("spender")}
	actor.receive = func(ctx *Context) error {
		// queues more than the actor holds after the credit
		ctx.Send(types.ExternalAddress("sink"), math.NewInt(1000), false, nil)
		return nil
	}
	l.Register(actor, math.ZeroInt())

	err := l.Submit(Envelope{From: from, To: actor.Address(), Value: math.NewInt(30), Body: body(1, 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.Equal(t, math.ZeroInt(), l.BalanceOf(types.ExternalAddress("sink")))
}

func TestLedger_deployRegistersChild(t *testing.T) {
	l := NewLedger(zap.NewNop())
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(100))

	var childGotInit bool
	child := &testActor{
		addr: types.ExternalAddress("child"),
		receive: func(ctx *Context) error {
			childGotInit = true
			return nil
		},
	}
	parent := &testActor{addr: types.ExternalAddress("parent")}
	parent.receive = func(ctx *Context) error {
		ctx.Deploy(child, math.NewInt(20), body(2, 2))
		return nil
	}
	l.Register(parent, math.ZeroInt())

	err := l.Submit(Envelope{From: from, To: parent.Address(), Value: math.NewInt(30), Body: body(1, 1)})
	require.NoError(t, err)

	assert.True(t, childGotInit)
	_, ok := l.Actor(child.Address())
	assert.True(t, ok)
	assert.Equal(t, math.NewInt(20), l.BalanceOf(child.Address()))
}

func TestLedger_persistsStateCells(t *testing.T) {
	cells := &memCells{}
	l := NewLedger(zap.NewNop(), WithCellStore(cells))
	from := types.ExternalAddress("alice")
	l.Faucet(from, math.NewInt(100))

	actor := &testActor{
		addr:    types.ExternalAddress("stateful"),
		receive: func(ctx *Context) error { return nil },
		state:   []byte{0x01, 0x02},
	}
	l.Register(actor, math.ZeroInt())

	err := l.Submit(Envelope{From: from, To: actor.Address(), Value: math.NewInt(1), Body: body(1, 1)})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x02}, cells.cells[actor.Address()])
}
