package main

import (
	"context"
	"net"
)

// NewPipeListener wires the render and config windows together over
// an in-process pipe: the client end goes to one window, the listener
// end to the other.
func NewPipeListener(ctx context.Context) (client net.Conn, listener net.Listener) {
	clientPipe, listenerPipe := net.Pipe()
	return clientPipe, &pipeListener{
		pipe: listenerPipe,
		done: ctx.Done(),
	}
}

type pipeListener struct {
	pipe     net.Conn
	accepted bool
	done     <-chan struct{}
}

func (p *pipeListener) Accept() (net.Conn, error) {
	if !p.accepted {
		p.accepted = true
		return p.pipe, nil
	}
	<-p.done
	return nil, net.ErrClosed
}

func (p *pipeListener) Close() error {
	return p.pipe.Close()
}

func (p *pipeListener) Addr() net.Addr {
	return p.pipe.LocalAddr()
}
