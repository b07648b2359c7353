package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 8192
	sendBufSize       = 256
	maxMessagesPerSec = 20
	messageBurst      = 40
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	codec      Codec
	limiter    *rate.Limiter
	log        *logrus.Entry

	// Auth state; 0 = unauthenticated
	userID   PlayerID
	username string

	// match is only touched by ReadPump and, after it exits, by the hub
	match *Match
}

// NewClient creates a new Client that encodes outgoing frames with codec
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, codec Codec) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		codec:      codec,
		limiter:    rate.NewLimiter(maxMessagesPerSec, messageBurst),
		log:        Log.WithFields(logrus.Fields{"remote": remoteAddr, "enc": codec.Name()}),
	}
}

// authenticate marks the connection as belonging to user
func (c *Client) authenticate(user PlayerID, username string) {
	c.userID = user
	c.username = username
	c.hub.SetOnline(user, c)
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("ws read error")
			}
			break
		}

		if !c.limiter.Allow() {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		// Binary frames are msgpack, text frames are JSON, whatever the
		// connection encodes its replies with
		var dec Codec = jsonCodec{}
		if msgType == websocket.BinaryMessage {
			dec = msgpackCodec{}
		}
		c.handleMessage(dec, message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send encodes msg with the connection's codec and enqueues it
func (c *Client) Send(msg interface{}) {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		c.log.WithError(err).Error("marshal failed")
		return
	}
	if c.codec.Binary() {
		c.SendBinary(data)
	} else {
		c.SendRaw(data)
	}
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(err error) {
	c.Send(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
}

// handleMessage routes incoming messages
func (c *Client) handleMessage(dec Codec, raw []byte) {
	typ, payload, err := dec.DecodeEnvelope(raw)
	if err != nil {
		c.log.WithError(err).Debug("undecodable frame")
		c.sendError(ErrMalformedIntent)
		return
	}

	switch typ {
	case MsgRegister:
		c.handleRegister(dec, payload)
	case MsgLogin:
		c.handleLogin(dec, payload)
	case MsgAuth:
		c.handleAuth(dec, payload)
	case MsgJoin:
		c.handleJoin(dec, payload)
	case MsgPlace:
		c.handlePlace(dec, payload)
	case MsgSpawn:
		c.handleSpawn(dec, payload)
	case MsgMove:
		c.handleMove(dec, payload)
	case MsgList:
		c.Send(Envelope{T: MsgMatches, Data: c.hub.matches.List()})
	default:
		c.sendError(fmt.Errorf("unknown message type %q: %w", typ, ErrMalformedIntent))
	}
}

// decodePayload unmarshals payload into v; an absent payload leaves v zero
func decodePayload(dec Codec, payload []byte, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if err := dec.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%v: %w", err, ErrMalformedIntent)
	}
	return nil
}

func (c *Client) handleRegister(dec Codec, data []byte) {
	var msg RegisterMsg
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err)
		return
	}
	c.authenticate(id, msg.Username)
	c.Send(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleLogin(dec Codec, data []byte) {
	var msg LoginMsg
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err)
		return
	}
	c.authenticate(id, msg.Username)
	c.Send(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
}

func (c *Client) handleAuth(dec Codec, data []byte) {
	var msg AuthMsg
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(ErrNotAuthenticated)
		return
	}
	c.authenticate(id, username)
	c.Send(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PlayerID: id}})
}

func (c *Client) handleJoin(dec Codec, data []byte) {
	if c.userID == 0 {
		c.sendError(ErrNotAuthenticated)
		return
	}
	var msg JoinMsg
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}

	m, view, err := c.hub.matches.Join(c.userID, c.username, c, msg.MatchID)
	if err != nil {
		c.sendError(err)
		return
	}
	if c.match != nil && c.match != m {
		c.match.Detach(c.userID, c)
	}
	c.match = m
	c.log.WithField("match", m.ID).WithField("observed", len(view.Observed)).Debug("joined")
}

// currentMatch returns the joined match
func (c *Client) currentMatch() (*Match, error) {
	if c.userID == 0 {
		return nil, ErrNotAuthenticated
	}
	if c.match == nil {
		return nil, ErrNotJoined
	}
	return c.match, nil
}

// forgetClosed drops the match reference when err says it stopped
func (c *Client) forgetClosed(err error) {
	if errors.Is(err, ErrMatchClosed) {
		c.match = nil
	}
}

func (c *Client) handlePlace(dec Codec, data []byte) {
	m, err := c.currentMatch()
	if err != nil {
		c.sendError(err)
		return
	}
	var msg PlaceIntent
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	if _, err := m.PlaceBuilding(c.userID, msg); err != nil {
		c.forgetClosed(err)
		c.sendError(err)
	}
}

func (c *Client) handleSpawn(dec Codec, data []byte) {
	m, err := c.currentMatch()
	if err != nil {
		c.sendError(err)
		return
	}
	var msg SpawnIntent
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	if _, err := m.SpawnUnit(c.userID, msg); err != nil {
		c.forgetClosed(err)
		c.sendError(err)
	}
}

func (c *Client) handleMove(dec Codec, data []byte) {
	m, err := c.currentMatch()
	if err != nil {
		c.sendError(err)
		return
	}
	var msg MoveIntent
	if err := decodePayload(dec, data, &msg); err != nil {
		c.sendError(err)
		return
	}
	if _, err := m.MoveUnit(c.userID, msg); err != nil {
		c.forgetClosed(err)
		c.Send(Envelope{T: MsgMoveRejected, Data: MoveRejected{
			ID:     msg.ID,
			UnitID: msg.UnitID,
			Reason: err.Error(),
		}})
	}
}
