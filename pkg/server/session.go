package server

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	werrors "github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/protocol"
	"github.com/vango-go/weft/pkg/runtime"
	"github.com/vango-go/weft/pkg/vdom"
)

// Session is one websocket connection and the application instance it
// drives. The instance lives on the session's loop: patches are written
// from the loop, client events are posted onto it.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex

	loop     *runtime.Loop
	instance Instance // loop only
	seq      uint64   // loop only

	ctx    context.Context
	cancel context.CancelFunc

	config  *Config
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	lastActive atomic.Int64
	opened     atomic.Bool
	started    atomic.Bool
	closed     atomic.Bool
	done       chan struct{}
	onClose    func(*Session)
}

func newSession(ctx context.Context, conn *websocket.Conn, config *Config, metrics *Metrics, tracer trace.Tracer) *Session {
	id := uuid.NewString()
	logger := config.Logger.With("session_id", id)
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		done:      make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.loop = runtime.NewLoop(
		runtime.WithQueueSize(config.MaxEventQueue),
		runtime.WithFrameInterval(config.FrameInterval),
		runtime.WithLoopLogger(logger),
		runtime.WithPanicHandler(func(r any) {
			logger.Error("session loop panic", "panic", r, "stack", string(debug.Stack()))
		}),
	)
	s.touch()
	return s
}

// open counts the session as active. It is called once the manager has
// accepted it. Exactly one of open and CloseWith clears opened, so the
// active gauge is decremented at most once per increment.
func (s *Session) open() {
	if s.closed.Load() || !s.opened.CompareAndSwap(false, true) {
		return
	}
	s.metrics.sessionOpened()
	if s.closed.Load() && s.opened.Swap(false) {
		s.metrics.sessionClosed()
	}
}

// start runs the loop, mounts the application on it and begins reading.
func (s *Session) start(mount Mount, runtimeMetrics *runtime.Metrics) error {
	s.started.Store(true)
	go func() {
		if err := s.loop.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("session loop stopped", "error", err)
		}
		s.cancel()
		s.Close()
	}()

	err := s.loop.Post(func() {
		instance, err := mount(s, s.loop,
			runtime.WithLogger(s.logger),
			runtime.WithMetrics(runtimeMetrics),
			runtime.WithTracer(s.tracer),
			runtime.WithContext(s.ctx),
			runtime.WithName(s.ID),
		)
		if err != nil {
			s.logger.Error("mount failed", "error", err)
			s.sendError(protocol.ErrServerError, "application failed to start", true)
			s.Close()
			return
		}
		s.instance = instance
	})
	if err != nil {
		return NewSessionError(s.ID, "start", err)
	}

	go s.heartbeat()
	go s.readLoop()
	return nil
}

// Push sends a patch to the client. It runs on the session loop.
func (s *Session) Push(p vdom.Patch) error {
	if s.closed.Load() {
		return NewSessionError(s.ID, "push", ErrSessionClosed)
	}
	s.seq++
	payload := protocol.EncodePatch(&protocol.PatchMessage{Seq: s.seq, Patch: p})
	if err := s.write(protocol.FramePatch, payload); err != nil {
		go s.Close()
		return err
	}
	return nil
}

// write splits payload into frames and sends them in order.
func (s *Session) write(ft protocol.FrameType, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, f := range protocol.Split(ft, payload) {
		data := f.Encode()
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return NewSessionError(s.ID, "write", err)
		}
		s.metrics.sent(ft.String(), len(data))
	}
	return nil
}

func (s *Session) sendError(code protocol.ErrorCode, message string, fatal bool) {
	em := &protocol.ErrorMessage{Code: code, Message: message, Fatal: fatal}
	if err := s.write(protocol.FrameError, protocol.EncodeErrorMessage(em)); err != nil {
		s.logger.Debug("error frame not sent", "error", err)
	}
}

func (s *Session) sendControl(c *protocol.Control) error {
	return s.write(protocol.FrameControl, protocol.EncodeControl(c))
}

// readLoop reads frames until the connection fails or the client closes.
func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	var asm protocol.Assembler
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", protocolError(err).Error())
			s.sendError(protocol.ErrInvalidFrame, err.Error(), false)
			continue
		}
		s.metrics.received(frame.Type.String(), len(msg))

		ft, payload, ok, err := asm.Add(frame)
		if err != nil {
			s.logger.Warn("frame sequence error", "error", protocolError(err).Error())
			s.sendError(protocol.ErrInvalidFrame, err.Error(), false)
			continue
		}
		if !ok {
			continue
		}

		switch ft {
		case protocol.FrameEvent:
			s.handleEvent(payload)
		case protocol.FrameControl:
			if s.handleControl(payload) {
				return
			}
		case protocol.FrameError:
			if em, err := protocol.DecodeErrorMessage(payload); err == nil {
				s.logger.Warn("client error", "code", em.Code, "message", em.Message)
			}
		default:
			s.logger.Warn("unexpected frame type", "type", ft)
		}
	}
}

func (s *Session) handleEvent(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.logger.Warn("event decode error", "error", protocolError(err).Error())
		s.metrics.dropped("decode")
		s.sendError(protocol.ErrInvalidEvent, "invalid event format", false)
		return
	}
	err = s.loop.TryPost(func() { s.dispatch(ev) })
	switch {
	case errors.Is(err, runtime.ErrLoopFull):
		s.logger.Warn("event dropped", "path", ev.Path, "event", ev.Name, "error", ErrEventQueueFull)
		s.metrics.dropped("queue_full")
		s.sendError(protocol.ErrRateLimited, "event queue full", false)
	case err != nil:
		s.logger.Debug("event dropped", "event", ev.Name, "error", werrors.New("E063").Wrap(err).Error())
		s.metrics.dropped("closed")
	}
}

// dispatch hands a client event to the instance. It runs on the loop.
func (s *Session) dispatch(ev *protocol.Event) {
	_, span := s.tracer.Start(s.ctx, "weft.session.event",
		trace.WithAttributes(
			attribute.String("weft.session_id", s.ID),
			attribute.String("weft.event", ev.Name),
			attribute.Int64("weft.event_seq", int64(ev.Seq)),
		))
	defer span.End()

	if s.instance == nil {
		return
	}
	s.instance.HandleEvent(ev.VDOM(), ev.Path, ev.Name, ev.Immediate)
}

// handleControl reports whether the client asked to close.
func (s *Session) handleControl(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.logger.Warn("control decode error", "error", err)
		return false
	}
	switch c.Type {
	case protocol.ControlPing:
		if err := s.sendControl(c.Pong()); err != nil {
			s.logger.Error("pong error", "error", err)
		}
	case protocol.ControlPong:
		rtt := time.Now().UnixMilli() - int64(c.Timestamp)
		s.logger.Debug("received pong", "rtt_ms", rtt)
	case protocol.ControlClose:
		s.logger.Info("client closing", "reason", c.Reason, "message", c.Message)
		return true
	}
	return false
}

// heartbeat pings the client until the session closes.
func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendControl(protocol.NewPing(uint64(time.Now().UnixMilli()))); err != nil {
				s.logger.Debug("heartbeat failed", "error", err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close shuts the session down: the instance is stopped on its loop and
// the connection is closed. It is safe to call more than once.
func (s *Session) Close() {
	s.CloseWith(protocol.CloseNormal, "")
}

// CloseWith tells the client why the session ends, then closes it.
func (s *Session) CloseWith(reason protocol.CloseReason, message string) {
	if s.closed.Swap(true) {
		return
	}

	if reason != protocol.CloseNormal || message != "" {
		_ = s.sendControl(protocol.NewClose(reason, message))
	}
	s.conn.Close()

	// A loop that never ran has no instance and nobody to drain its queue.
	stopped := true
	if s.started.Load() {
		stopped = s.loop.TryPost(func() {
			if s.instance != nil {
				s.instance.Shutdown()
			}
			s.loop.Stop()
		}) != nil
	}
	if stopped {
		s.loop.Stop()
		s.cancel()
	}

	if s.opened.Swap(false) {
		s.metrics.sessionClosed()
	}
	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed", "reason", reason)
	close(s.done)
}

// Done is closed once the session has closed and left its manager.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastActive returns the time the client last sent a message.
func (s *Session) LastActive() time.Time {
	return time.UnixMilli(s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixMilli())
}
