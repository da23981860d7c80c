package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jabolina/relt/pkg/relt"
	"github.com/oxring/chord/pkg/chord/types"
)

// envelope is the wire shape sent over relt: the sender's own Pointer
// plus the protocol Message, since relt delivers raw bytes and has no
// notion of a Chord sender identity on its own.
type envelope struct {
	Src types.Pointer `json:"src"`
	Msg types.Message `json:"msg"`
}

// ReltTransport adapts github.com/jabolina/relt, the teacher's
// reliable group-communication library, from its broadcast-to-a-group
// model down to the point-to-point unicast types.Transport needs: each
// node subscribes to a relt group named after its own address and
// sends by addressing the destination's group directly, rather than
// broadcasting to every partition member as ReliableTransport does.
type ReltTransport struct {
	self types.Pointer
	log  types.Logger

	relt    *relt.Relt
	inbox   chan envelope
	ctx     context.Context
	cancel  context.CancelFunc
	invoker Invoker
}

// NewReltTransport builds a transport for self, consuming self.Addr as
// its own relt group address.
func NewReltTransport(self types.Pointer, log types.Logger, invoker Invoker) (*ReltTransport, error) {
	conf := relt.DefaultReltConfiguration()
	conf.Name = self.Addr
	conf.Exchange = relt.GroupAddress(self.Addr)
	r, err := relt.NewRelt(*conf)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReltTransport{
		self:    self,
		log:     log,
		relt:    r,
		inbox:   make(chan envelope, 256),
		ctx:     ctx,
		cancel:  cancel,
		invoker: invoker,
	}, nil
}

func (t *ReltTransport) Start() error {
	t.invoker.Spawn(t.poll)
	return nil
}

func (t *ReltTransport) Send(dst types.Pointer, msg types.Message) error {
	data, err := json.Marshal(envelope{Src: t.self, Msg: msg})
	if err != nil {
		return err
	}
	return t.relt.Broadcast(t.ctx, relt.Send{
		Address: relt.GroupAddress(dst.Addr),
		Data:    data,
	})
}

func (t *ReltTransport) Recv(timeout time.Duration) (types.Pointer, types.Message, bool) {
	select {
	case env := <-t.inbox:
		return env.Src, env.Msg, true
	case <-time.After(timeout):
		return types.Pointer{}, types.Message{}, false
	case <-t.ctx.Done():
		return types.Pointer{}, types.Message{}, false
	}
}

func (t *ReltTransport) Close() error {
	t.cancel()
	return t.relt.Close()
}

// poll drains relt's own consumer channel and republishes decoded
// envelopes to inbox, the way ReliableTransport.poll feeds its
// producer channel.
func (t *ReltTransport) poll() {
	listener, err := t.relt.Consume()
	if err != nil {
		t.log.Fatalf("relt transport: consume: %v", err)
		return
	}
	for {
		select {
		case <-t.ctx.Done():
			return
		case recv, ok := <-listener:
			if !ok {
				return
			}
			t.consume(relt.Recv{Data: recv.Data, Error: recv.Error})
		}
	}
}

func (t *ReltTransport) consume(recv relt.Recv) {
	if recv.Error != nil {
		t.log.Errorf("relt transport: recv error: %v", recv.Error)
		return
	}
	if recv.Data == nil {
		return
	}
	var env envelope
	if err := json.Unmarshal(recv.Data, &env); err != nil {
		t.log.Errorf("relt transport: bad envelope: %v", err)
		return
	}

	timeout, cancel := context.WithTimeout(t.ctx, 250*time.Millisecond)
	defer cancel()
	select {
	case <-timeout.Done():
		t.log.Warnf("relt transport: dropped message from %s, inbox full", env.Src.Addr)
	case t.inbox <- env:
	}
}
