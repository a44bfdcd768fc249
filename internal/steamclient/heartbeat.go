package steamclient

import (
	"context"
	"time"

	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/protomsg"
)

// Scheduler runs periodic work for a client.
type Scheduler interface {
	// Every arranges for task to be called every interval until the returned
	// func is called. task must be called from wherever the client's
	// dispatch is serialized.
	Every(interval time.Duration, task func()) (cancel func())
}

// loopScheduler hands firings to Client.Run. firings that come while nobody
// runs the client wait (and are dropped on cancel).
type loopScheduler struct {
	tasks chan<- func()
}

func (s *loopScheduler) Every(interval time.Duration, task func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case <-ctx.Done():
					return
				case s.tasks <- task:
				}
			}
		}
	}()

	return cancel
}

// armHeartbeat (re)starts the heartbeat. the previous one, if any, is
// cancelled.
func (c *Client) armHeartbeat(interval time.Duration) error {
	if interval <= 0 {
		return protocol.Violationf("heartbeat interval %s", interval)
	}

	c.stopHeartbeat()
	c.cancelHeartbeat = c.scheduler.Every(interval, c.sendHeartbeat)

	c.logger.Debug().
		Dur("interval", interval).
		Msg("armed heartbeat")
	return nil
}

func (c *Client) stopHeartbeat() {
	if c.cancelHeartbeat == nil {
		return
	}
	c.cancelHeartbeat()
	c.cancelHeartbeat = nil

	c.logger.Debug().Msg("stopped heartbeat")
}

func (c *Client) sendHeartbeat() {
	if err := c.writeProto(protocol.EMsgClientHeartBeat, &protomsg.HeartBeat{}, 0); err != nil {
		c.logger.Error().
			Msgf("could not send heartbeat: %v", err)
	}
}
