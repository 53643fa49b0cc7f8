package preview

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// client is one websocket session
// readPump only reads, work streams requests in order, writePump owns every write to conn
type client struct {
	srv  *Server
	conn *websocket.Conn
	log  logrus.FieldLogger

	requests  chan PreviewRequest
	send      chan any
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newClient(srv *Server, conn *websocket.Conn) *client {
	return &client{
		srv:      srv,
		conn:     conn,
		log:      srv.log.WithField("remote", conn.RemoteAddr().String()),
		requests: make(chan PreviewRequest, srv.config.RequestQueueSize),
		send:     make(chan any, srv.config.SendQueueSize),
		closeCh:  make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.conn.Close()
	})
}

// queue hands v to writePump; false once the session is closing
func (c *client) queue(v any) bool {
	select {
	case c.send <- v:
		return true
	case <-c.closeCh:
		return false
	}
}

func (c *client) readPump() {
	defer c.close()

	cfg := c.srv.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
		c.log.WithError(err).Warn("Failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Websocket read failed")
			}
			return
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
			c.log.WithError(err).Warn("Failed to set read deadline")
		}

		var req PreviewRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !c.queue(newError(fmt.Errorf("bad request: %w", err))) {
				return
			}
			continue
		}
		select {
		case c.requests <- req:
		default:
			if !c.queue(newError(ErrBusy)) {
				return
			}
		}
	}
}

// work serves queued requests one at a time until the session closes
func (c *client) work() {
	for {
		select {
		case req := <-c.requests:
			if !c.serve(req) {
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

// serve runs one flood and queues its rings then the summary
func (c *client) serve(req PreviewRequest) bool {
	res, err := c.srv.sys.DoFloodTile(c.srv.config.limit(req.Params()))
	if err != nil {
		c.log.WithError(err).Debug("Preview request rejected")
		return c.queue(newError(err))
	}

	delay := c.srv.config.RingDelay
	for _, ring := range res.Rings() {
		if !c.queue(newIterationUpdate(ring)) {
			return false
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.closeCh:
				return false
			}
		}
	}

	c.log.WithFields(logrus.Fields{
		"area":       res.Area,
		"iterations": res.Iterations(),
	}).Debug("Preview sent")
	return c.queue(newSummary(res))
}

func (c *client) writePump() {
	cfg := c.srv.config
	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
				c.log.WithError(err).Warn("Failed to set write deadline")
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("Write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
				c.log.WithError(err).Warn("Failed to set ping write deadline")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("Ping failed")
				return
			}

		case <-c.closeCh:
			return
		}
	}
}
