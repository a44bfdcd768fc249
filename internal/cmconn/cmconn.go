// Package cmconn carries CM messages over tcp.
package cmconn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/blukai/steamcm/internal/debug"
	"github.com/hashicorp/go-multierror"
	"github.com/phuslu/log"
)

var ErrClosed = errors.New("cmconn: closed")

type sendChPayload struct {
	frame []byte
	errCh chan error
}

// Conn implements steamclient.Transport. frames are exchanged only while Run
// runs.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader

	logger *log.Logger

	sendCh chan sendChPayload
	frames chan []byte
	done   chan struct{}

	sendTimeout time.Duration
}

func Dial(ctx context.Context, network, address string, logger *log.Logger) (*Conn, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("could not dial %s: %w", network, err)
	}
	return NewConn(conn, logger), nil
}

// NewConn wraps an established connection. Conn owns conn from now on.
func NewConn(conn net.Conn, logger *log.Logger) *Conn {
	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	return &Conn{
		conn:   conn,
		reader: bufio.NewReader(conn),

		logger: logger,

		sendCh: make(chan sendChPayload),
		frames: make(chan []byte),
		done:   make(chan struct{}),

		sendTimeout: 5 * time.Second,
	}
}

func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Frames delivers inbound payloads. it is closed when Run returns.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

func (c *Conn) runSendCh(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-c.sendCh:
			err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))
			debug.Assert(err == nil)

			_, err = c.conn.Write(AppendFrame(nil, payload.frame))
			if err != nil {
				c.logger.Error().
					Msgf("could not write: %v", err)
			}
			payload.errCh <- err
		}
	}
}

func (c *Conn) runRecv(ctx context.Context) error {
	for {
		frame, err := ReadFrame(c.reader)
		if err != nil {
			// closed by Run
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info().
					Msg("remote closed the connection")
				return nil
			}
			return fmt.Errorf("could not read frame: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case c.frames <- frame:
		}
	}
}

// Run exchanges frames until ctx is done, the remote closes the connection or
// reading fails. the connection is closed on the way out.
func (c *Conn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := &sync.WaitGroup{}

	var recvErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		// NOTE(blukai): a dead reader takes the whole connection down.
		defer cancel()
		recvErr = c.runRecv(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runSendCh(ctx)
	}()

	<-ctx.Done()

	var errs error
	// unblocks the reader
	if err := c.conn.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("could not close: %w", err))
	}
	wg.Wait()

	close(c.done)
	close(c.frames)

	if recvErr != nil {
		errs = multierror.Append(errs, recvErr)
	}
	return errs
}

// SendFrame blocks until frame is written.
func (c *Conn) SendFrame(frame []byte) error {
	errCh := make(chan error, 1)
	select {
	case <-c.done:
		return ErrClosed
	case c.sendCh <- sendChPayload{frame: frame, errCh: errCh}:
	}

	select {
	case <-c.done:
		return ErrClosed
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("could not write frame: %w", err)
		}
		return nil
	}
}
