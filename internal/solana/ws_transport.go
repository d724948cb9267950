package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSConfig configures the WebSocket transport.
type WSConfig struct {
	// Endpoint is the provider WebSocket URL.
	Endpoint string
	// Token is appended as the api-key query parameter when set.
	Token string
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending client ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// FrameBuffer is the capacity of the inbound frame queue.
	FrameBuffer int
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		FrameBuffer:      1024,
	}
}

// WSTransport opens transactionSubscribe streams over WebSocket.
type WSTransport struct {
	config WSConfig
	logger *zap.Logger
}

// NewWSTransport creates a transport. Zero durations fall back to defaults.
func NewWSTransport(config WSConfig, logger *zap.Logger) (*WSTransport, error) {
	if config.Endpoint == "" {
		return nil, errors.New("websocket endpoint is required")
	}
	if _, err := dialURL(config.Endpoint, config.Token); err != nil {
		return nil, err
	}

	def := DefaultWSConfig()
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = def.HandshakeTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.FrameBuffer <= 0 {
		config.FrameBuffer = def.FrameBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WSTransport{config: config, logger: logger.Named("ws")}, nil
}

// dialURL returns the endpoint with the api key attached.
func dialURL(endpoint, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse websocket endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("websocket endpoint must use ws or wss scheme, got %q", u.Scheme)
	}
	if token != "" {
		q := u.Query()
		q.Set("api-key", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Open dials the endpoint and starts the reader and ping goroutines.
func (t *WSTransport) Open(ctx context.Context) (Stream, error) {
	target, err := dialURL(t.config.Endpoint, t.config.Token)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: t.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	s := &wsStream{
		conn:          conn,
		config:        t.config,
		logger:        t.logger,
		frames:        make(chan Frame, t.config.FrameBuffer),
		pendingSubs:   make(map[uint64]string),
		subTags:       make(map[int64]string),
		probePayloads: make(map[uint64][]byte),
		done:          make(chan struct{}),
	}

	conn.SetPingHandler(s.handlePing)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
	})

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

// localProbeBit marks probe ids assigned locally for non-numeric ping payloads.
const localProbeBit = uint64(1) << 63

// wsStream is one WebSocket connection.
type wsStream struct {
	conn   *websocket.Conn
	config WSConfig
	logger *zap.Logger

	writeMu   sync.Mutex
	requestID atomic.Uint64
	closed    atomic.Bool

	frames chan Frame

	// pendingSubs maps request ID to filter tag until the provider confirms.
	// subTags maps confirmed subscription ID to filter tag.
	subsMu      sync.Mutex
	pendingSubs map[uint64]string
	subTags     map[int64]string

	probeMu       sync.Mutex
	probeSeq      uint64
	probePayloads map[uint64][]byte

	done chan struct{}
	wg   sync.WaitGroup
}

// Subscribe sends a transactionSubscribe request.
func (s *wsStream) Subscribe(_ context.Context, req SubscribeRequest) error {
	if s.closed.Load() {
		return errors.New("stream closed")
	}

	reqID := s.requestID.Add(1)

	msg := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "transactionSubscribe",
		Params: []interface{}{
			wsTransactionFilter{
				Vote:            false,
				Failed:          true,
				AccountInclude:  nonNil(req.AccountInclude),
				AccountExclude:  nonNil(req.AccountExclude),
				AccountRequired: nonNil(req.AccountRequired),
			},
			wsTransactionOptions{
				Commitment:                     req.Commitment.String(),
				Encoding:                       "json",
				TransactionDetails:             "full",
				ShowRewards:                    false,
				MaxSupportedTransactionVersion: 0,
			},
		},
	}

	s.subsMu.Lock()
	s.pendingSubs[reqID] = req.Tag
	s.subsMu.Unlock()

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	err := s.conn.WriteJSON(msg)
	s.writeMu.Unlock()

	if err != nil {
		s.subsMu.Lock()
		delete(s.pendingSubs, reqID)
		s.subsMu.Unlock()
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// AckProbe echoes the probe payload back as a pong control frame.
func (s *wsStream) AckProbe(_ context.Context, id uint64) error {
	s.probeMu.Lock()
	payload, ok := s.probePayloads[id]
	delete(s.probePayloads, id)
	s.probeMu.Unlock()

	if !ok {
		payload = []byte(strconv.FormatUint(id, 10))
	}

	deadline := time.Now().Add(s.config.WriteTimeout)
	if err := s.conn.WriteControl(websocket.PongMessage, payload, deadline); err != nil {
		return fmt.Errorf("write pong %d: %w", id, err)
	}
	return nil
}

// Recv returns the next frame. A drained, closed queue reads as FrameEnd.
func (s *wsStream) Recv(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return EndFrame(), nil
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close closes the WebSocket connection.
func (s *wsStream) Close() error {
	if s.closed.Swap(true) {
		return nil // Already closed
	}

	close(s.done)

	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.config.WriteTimeout))
	err := s.conn.Close()

	s.wg.Wait()
	return err
}

// handlePing runs on the reader goroutine, so the probe is queued in arrival
// order relative to data messages.
func (s *wsStream) handlePing(appData string) error {
	id, err := strconv.ParseUint(appData, 10, 64)
	if err != nil || id&localProbeBit != 0 {
		s.probeMu.Lock()
		s.probeSeq++
		id = localProbeBit | s.probeSeq
		s.probePayloads[id] = []byte(appData)
		s.probeMu.Unlock()
	}
	s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	s.push(KeepAliveFrame(id))
	return nil
}

// readLoop reads messages and queues frames until the connection ends.
func (s *wsStream) readLoop() {
	defer s.wg.Done()
	defer close(s.frames)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.push(EndFrame())
			} else {
				s.push(ErrorFrame(fmt.Errorf("websocket read: %w", err)))
			}
			return
		}

		if !s.handleMessage(message) {
			return
		}
	}
}

// handleMessage routes one text message. Returns false if the stream must stop.
func (s *wsStream) handleMessage(message []byte) bool {
	var env wsEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.logger.Warn("undecodable message", zap.Error(err), zap.Int("bytes", len(message)))
		return true
	}

	switch {
	case env.ID != nil && env.Error != nil:
		return s.handleErrorResponse(*env.ID, env.Error)
	case env.ID != nil && env.Result != nil:
		s.handleSubscribeResponse(*env.ID, env.Result)
		return true
	case env.Method == "transactionNotification":
		s.handleTransactionNotification(env.Params)
		return true
	default:
		s.logger.Debug("ignoring message", zap.String("method", env.Method))
		return true
	}
}

// handleSubscribeResponse records the subscription ID for a confirmed request.
func (s *wsStream) handleSubscribeResponse(reqID uint64, result json.RawMessage) {
	var subID int64
	if err := json.Unmarshal(result, &subID); err != nil {
		s.logger.Warn("unexpected subscribe result", zap.Uint64("request_id", reqID), zap.Error(err))
		return
	}

	s.subsMu.Lock()
	tag, ok := s.pendingSubs[reqID]
	if ok {
		delete(s.pendingSubs, reqID)
		s.subTags[subID] = tag
	}
	s.subsMu.Unlock()

	if ok {
		s.logger.Info("subscription confirmed", zap.String("tag", tag), zap.Int64("subscription", subID))
	}
}

// handleErrorResponse turns a rejected subscription into a terminal frame.
func (s *wsStream) handleErrorResponse(reqID uint64, rpcErr *wsError) bool {
	s.subsMu.Lock()
	tag, pending := s.pendingSubs[reqID]
	delete(s.pendingSubs, reqID)
	s.subsMu.Unlock()

	if !pending {
		s.logger.Warn("error response", zap.Uint64("request_id", reqID), zap.Error(rpcErr))
		return true
	}
	s.push(ErrorFrame(fmt.Errorf("%w: filter %q: %w", ErrSubscriptionRejected, tag, rpcErr)))
	return false
}

// handleTransactionNotification queues a record frame tagged with the filter
// tag of its subscription.
func (s *wsStream) handleTransactionNotification(raw json.RawMessage) {
	var params wsNotificationParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.push(Frame{Kind: FrameRecord, DecodeErr: fmt.Errorf("decode notification: %w", err)})
		return
	}

	s.subsMu.Lock()
	tag, ok := s.subTags[params.Subscription]
	s.subsMu.Unlock()

	var tags []string
	if ok {
		tags = []string{tag}
	}

	rec, err := params.Result.toRecord()
	if err != nil {
		s.push(Frame{Kind: FrameRecord, FilterTags: tags, DecodeErr: err})
		return
	}
	s.push(RecordFrame(rec, tags...))
}

// push blocks until the frame is queued; frames are never dropped.
func (s *wsStream) push(f Frame) {
	select {
	case s.frames <- f:
	case <-s.done:
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (s *wsStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// Connection might be dead, reader will report it
				s.logger.Debug("ping failed", zap.Error(err))
			}
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
