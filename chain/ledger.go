package chain

import (
	"encoding/binary"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/tendermint/tendermint/libs/service"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/types"
)

// CellStore persists actor state cells after each processed message.
type CellStore interface {
	PutCell(addr types.Address, state []byte) error
}

// Ledger is the host messaging substrate the protocol runs on. It serializes
// message delivery per actor (one loop, FIFO), accounts attached native
// value, and turns a failed delivery of a bounceable envelope into a bounce
// back to the sender. It provides no other recovery primitive.
type Ledger struct {
	service.BaseService

	mu       sync.Mutex
	actors   map[types.Address]Actor
	balances map[types.Address]math.Int
	queue    []Envelope

	cells  CellStore
	logger *zap.Logger
	now    func() time.Time

	submitCh chan Envelope
}

type Option func(*Ledger)

// WithCellStore enables durable state-cell persistence.
func WithCellStore(cs CellStore) Option {
	return func(l *Ledger) { l.cells = cs }
}

// WithClock overrides the ledger clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		actors:   make(map[types.Address]Actor),
		balances: make(map[types.Address]math.Int),
		logger:   logger.With(zap.String("module", "ledger")),
		now:      time.Now,
		submitCh: make(chan Envelope, 256),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.BaseService = *service.NewBaseService(nil, "Ledger", l)
	return l
}

func (l *Ledger) OnStart() error {
	go l.submitLoop()
	return nil
}

func (l *Ledger) OnStop() {}

func (l *Ledger) submitLoop() {
	for {
		select {
		case env := <-l.submitCh:
			if err := l.Submit(env); err != nil {
				l.logger.Debug("external message rejected",
					zap.String("to", env.To.Short()), zap.Error(err))
			}
		case <-l.Quit():
			return
		}
	}
}

// SubmitAsync queues an external message without waiting for its outcome.
func (l *Ledger) SubmitAsync(env Envelope) {
	l.submitCh <- env
}

// Submit injects an external message, debiting the attached value from the
// sender's balance, and processes the resulting cascade to quiescence. The
// returned error is the rejection of the submitted envelope's own hop;
// downstream hops report through bounces.
func (l *Ledger) Submit(env Envelope) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if env.Value.IsNil() {
		env.Value = math.ZeroInt()
	}
	bal := l.balanceOf(env.From)
	if bal.LT(env.Value) {
		return errorsmod.Wrapf(types.ErrInsufficientFunds,
			"sender %s holds %s, message carries %s", env.From.Short(), bal, env.Value)
	}
	l.balances[env.From] = bal.Sub(env.Value)
	l.queue = append(l.queue, env)

	var submitErr error
	for i := 0; len(l.queue) > 0; i++ {
		head := l.queue[0]
		l.queue = l.queue[1:]
		err := l.deliver(head)
		if i == 0 {
			submitErr = err
		}
	}
	return submitErr
}

func (l *Ledger) deliver(env Envelope) error {
	l.credit(env.To, env.Value)

	actor, ok := l.actors[env.To]
	if !ok {
		// Plain value transfer to a non-actor address. A bounceable message
		// with a body has nobody to process it and bounces.
		if len(env.Body) > 0 && env.Bounce && !env.Bounced {
			l.bounce(env)
		}
		return nil
	}

	ctx := &Context{ledger: l, Env: env, Now: l.now()}
	err := actor.Receive(ctx)
	if err == nil {
		err = l.commit(env.To, ctx)
	}
	if err != nil {
		l.logger.Debug("message rejected",
			zap.String("to", env.To.Short()),
			zap.String("from", env.From.Short()),
			zap.Error(err))
		if env.Bounce && !env.Bounced {
			l.bounce(env)
		}
		return err
	}

	l.persist(actor)
	return nil
}

// bounce returns the attached value to the sender with the original body
// behind the bounce marker. A bounce is itself never bounceable.
func (l *Ledger) bounce(env Envelope) {
	l.debit(env.To, env.Value)

	body := make([]byte, 4+len(env.Body))
	binary.BigEndian.PutUint32(body, types.BounceMarker)
	copy(body[4:], env.Body)

	l.queue = append(l.queue, Envelope{
		From:    env.To,
		To:      env.From,
		Value:   env.Value,
		Bounced: true,
		Body:    body,
	})
}

// commit funds and enqueues the sends and deploys of a successful Receive.
func (l *Ledger) commit(addr types.Address, ctx *Context) error {
	total := math.ZeroInt()
	for _, d := range ctx.deploys {
		total = total.Add(d.value)
	}
	for _, s := range ctx.sends {
		total = total.Add(s.env.Value)
	}

	bal := l.balanceOf(addr)
	if bal.LT(total) {
		return errorsmod.Wrapf(types.ErrInsufficientFunds,
			"actor %s queued %s outbound but holds %s", addr.Short(), total, bal)
	}
	l.balances[addr] = bal.Sub(total)

	for _, d := range ctx.deploys {
		da := d.actor.Address()
		if _, exists := l.actors[da]; !exists {
			l.actors[da] = d.actor
		}
		l.queue = append(l.queue, Envelope{From: addr, To: da, Value: d.value, Body: d.body})
	}
	for _, s := range ctx.sends {
		l.queue = append(l.queue, s.env)
	}
	return nil
}

func (l *Ledger) persist(a Actor) {
	if l.cells == nil {
		return
	}
	se, ok := a.(StateEncoder)
	if !ok {
		return
	}
	if err := l.cells.PutCell(a.Address(), se.EncodeState()); err != nil {
		l.logger.Error("failed to persist state cell",
			zap.String("actor", a.Address().Short()), zap.Error(err))
	}
}

// Register adds a genesis actor with an initial balance.
func (l *Ledger) Register(a Actor, balance math.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actors[a.Address()] = a
	l.balances[a.Address()] = balance
}

// Faucet credits an address out of thin air. Genesis and tests only.
func (l *Ledger) Faucet(addr types.Address, amount math.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
}

func (l *Ledger) BalanceOf(addr types.Address) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(addr)
}

// Actor looks up a deployed actor by address.
func (l *Ledger) Actor(addr types.Address) (Actor, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.actors[addr]
	return a, ok
}

// Range calls fn for each deployed actor over a locked snapshot. Returning
// false stops the iteration.
func (l *Ledger) Range(fn func(Actor) bool) {
	l.mu.Lock()
	snapshot := make([]Actor, 0, len(l.actors))
	for _, a := range l.actors {
		snapshot = append(snapshot, a)
	}
	l.mu.Unlock()
	for _, a := range snapshot {
		if !fn(a) {
			return
		}
	}
}

// Timestamp is the ledger clock reading.
func (l *Ledger) Timestamp() time.Time { return l.now() }

func (l *Ledger) balanceOf(addr types.Address) math.Int {
	bal, ok := l.balances[addr]
	if !ok {
		return math.ZeroInt()
	}
	return bal
}

func (l *Ledger) credit(addr types.Address, amount math.Int) {
	l.balances[addr] = l.balanceOf(addr).Add(amount)
}

func (l *Ledger) debit(addr types.Address, amount math.Int) {
	l.balances[addr] = l.balanceOf(addr).Sub(amount)
}
