package chain

import (
	"time"

	"cosmossdk.io/math"

	"github.com/vaultmatch/vault-engine/types"
)

// Envelope is one message in flight: sender, destination, attached native
// value and the wire body. Bounce marks the message as bounceable; Bounced
// marks it as the failure-delivery of an earlier send. A bounced envelope
// never bounces again.
type Envelope struct {
	From    types.Address
	To      types.Address
	Value   math.Int
	Bounce  bool
	Bounced bool
	Body    []byte
}

// Reader opens the body for decoding. For bounced envelopes the bounce
// marker is stripped first.
func (e Envelope) Reader() (*types.Reader, error) {
	body := e.Body
	if e.Bounced && len(body) >= 4 {
		body = body[4:]
	}
	return types.NewReader(body)
}

type pendingSend struct {
	env Envelope
}

type pendingDeploy struct {
	actor Actor
	value math.Int
	body  []byte
}

// Context carries one inbound envelope through an actor's Receive call.
// Sends and deploys queued on it are committed only if Receive returns nil.
type Context struct {
	ledger *Ledger

	Env Envelope
	Now time.Time

	sends   []pendingSend
	deploys []pendingDeploy
}

func (c *Context) Sender() types.Address { return c.Env.From }

func (c *Context) Value() math.Int { return c.Env.Value }

// Send queues an outbound message funded from the actor's balance.
func (c *Context) Send(to types.Address, value math.Int, bounce bool, body []byte) {
	c.sends = append(c.sends, pendingSend{env: Envelope{
		From:   c.Env.To,
		To:     to,
		Value:  value,
		Bounce: bounce,
		Body:   body,
	}})
}

// Deploy queues the deterministic deployment of a child actor together with
// its init message. Deploying an address that already exists is not an
// error; the init message is delivered either way and the child's own
// double-init guard decides.
func (c *Context) Deploy(a Actor, value math.Int, body []byte) {
	c.deploys = append(c.deploys, pendingDeploy{actor: a, value: value, body: body})
}
