package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	pingResolution = time.Millisecond * 200
	// Example code sets this to 10*pingResolution. By definition, it encompasses the number of
	// pings to tolerate losing before concluding the peer is gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

// A client is a full-duplex websocket peer: it publishes updates to the page and
// decodes the page's messages (pointer events, resizes, etc.) for a consumer.
// The server holds the state; the page merely forwards input and applies updates.
type client[T any, M any] struct {
	updates  <-chan T
	messages chan M
	ws       *websock
	rootCtx  context.Context
}

// NewClient upgrades the request to a websocket and returns a client publishing the passed
// updates and decoding client messages as JSON values of type M. Unlike idempotent
// snapshots, updates are never dropped; callers should batch them upstream.
func NewClient[T any, M any](
	updates <-chan T,
	w http.ResponseWriter,
	r *http.Request,
) (*client[T, M], error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &client[T, M]{
		updates:  updates,
		messages: make(chan M),
		ws:       NewWebSocket(ws),
		rootCtx:  r.Context(),
	}, nil
}

// ConsumeFunc processes decoded client messages until ctx is done or it fails.
type ConsumeFunc[M any] func(ctx context.Context, messages <-chan M) error

// Sync runs the client: reading messages and handing them to consume, publishing
// updates, and the ping-pong liveness check. All of them stop when any of them fails.
// Sync returns nil upon client disconnect or an error if an unexpected error occurred.
func (cli *client[T, M]) Sync(consume ConsumeFunc[M]) error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		return consume(groupCtx, cli.messages)
	})
	// Blocking reads only return once the connection is closed.
	group.Go(func() error {
		<-groupCtx.Done()
		cli.ws.Conn().Close()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, ErrClientClosed) {
		return err
	}
	return nil
}

var (
	ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")
	// ErrClientClosed is how the read loop reports a normal closure, so the rest of the
	// client stops too. Sync does not return it.
	ErrClientClosed error = errors.New("client closed the connection")
)

// Runs the ping-pong for the client liveness check.
// NOTE: This function requires that readMessages is running to ensure the pong handler is called.
func (cli *client[T, M]) pingPong(ctx context.Context) error {
	pong := make(chan struct{})
	cli.ws.Conn().SetPongHandler(func(_ string) error {
		select {
		case pong <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}

			if err := cli.ping(ctx); err != nil {
				return err
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

func (cli *client[T, M]) ping(ctx context.Context) error {
	return cli.ws.Write(
		ctx,
		func(ws *websocket.Conn) (err error) {
			if err = ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					err = fmt.Errorf("ping failed: %T %v", err, err)
				}
			}
			return
		})
}

// readMessages decodes messages from the client and passes them to the consumer.
// Errors returned by websocket Read methods are permanent, hence any error
// must trigger full teardown.
func (cli *client[T, M]) readMessages(ctx context.Context) error {
	for ctx.Err() == nil {
		var msg M
		err := cli.ws.Read(
			ctx,
			func(ws *websocket.Conn) error {
				return ws.ReadJSON(&msg)
			})
		switch {
		case isClosure(err):
			return ErrClientClosed
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("read failed: %w", err)
		}

		select {
		case cli.messages <- msg:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (cli *client[T, M]) publish(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			// Graceful input channel closure
			if !ok {
				return nil
			}

			err := cli.ws.Write(
				ctx,
				func(ws *websocket.Conn) (writeErr error) {
					if writeErr = ws.SetWriteDeadline(time.Now().Add(writeWait)); writeErr != nil {
						writeErr = fmt.Errorf("failed to set deadline: %T %w", writeErr, writeErr)
						return
					}

					if writeErr = ws.WriteJSON(updates); writeErr != nil {
						if isError(writeErr) {
							writeErr = fmt.Errorf("publish failed: %T %v", writeErr, writeErr)
						}
					}
					return
				})
			if err != nil {
				return err
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// ErrSockCongestion indicates there are too many waiters on the socket for a given op.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	readDeadline  = time.Second
	writeDeadline = time.Second
)

// websock merely serializes reads and writes to the websocket, whose requirements
// are that there may be only one concurrent read and writer at a time.
type websock struct {
	// These are merely mutexes, but channel semantics are cleaner.
	readSem  chan struct{}
	writeSem chan struct{}
	ws       *websocket.Conn
}

func NewWebSocket(ws *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		ws:       ws,
	}
}

// Returns the underlying websocket.
// This should only be used non-concurrently for setup, e.g. adding handlers, and for Close.
func (sock *websock) Conn() *websocket.Conn {
	return sock.ws
}

// Read serializes read operations on the internal web socket.
func (sock *websock) Read(
	ctx context.Context,
	readFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.readSem <- struct{}{}:
		defer func() { <-sock.readSem }()
		return readFn(sock.ws)
	case <-time.After(readDeadline):
		return ErrSockCongestion
	}
}

// Write serializes write operations to the websocket.
func (sock *websock) Write(
	ctx context.Context,
	writeFn func(*websocket.Conn) error,
) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writeSem <- struct{}{}:
		defer func() { <-sock.writeSem }()
		return writeFn(sock.ws)
	case <-time.After(writeDeadline):
		return ErrSockCongestion
	}
}
