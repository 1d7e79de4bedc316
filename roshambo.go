// Partybox-style Roshambo Game
//
// Two players are paired into a room identified by a short shareable code
// and play rock/paper/scissors over websockets, with rematches until
// someone leaves.
//
// Features:
// - One websocket per player: /ws, with a JSON event protocol
// - Room codes are random 6-char uppercase alphanumerics via crypto/rand,
//   with server-side collision check
// - First connection creates the room and waits; second joins by code
// - Moves are collected simultaneously; neither player can see the
//   opponent's move before both are submitted
// - Resolution fires the instant the second move arrives, then the round
//   is cleared and an explicit rematch restarts play
// - A player leaving notifies the opponent; empty rooms are deleted
// - Rooms idle past the configurable session timeout are reaped
// - /play/<code> pre-fills the join form for shared links
// - In-browser QR button to share the current room, backed by go-qrcode
//
// All room state lives in a single coordinator goroutine. Every inbound
// event is handled to completion before the next one, so handlers never
// interleave on a room and no locking is needed.

package main

import (
	_ "embed"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Participant is one seat in a room. Insertion order is meaningful for
// message formatting: the first entrant is named first in results.
type Participant struct {
	ConnID string
	Name   string
	client *Client
}

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`                // "create", "join", "move", "rematch"
	RoomCode string `json:"room_code,omitempty"` // join / move / rematch
	Name     string `json:"name,omitempty"`      // create / join
	Move     string `json:"move,omitempty"`      // move
}

// Messages sent to clients
type RoomCreatedMessage struct {
	Type     string `json:"type"` // "room_created"
	RoomCode string `json:"room_code"`
}

type RoomJoinedMessage struct {
	Type     string   `json:"type"` // "room_joined"
	RoomCode string   `json:"room_code"`
	Players  []string `json:"players"` // display names in seat order
}

type StatusMessage struct {
	Type    string `json:"type"` // "status"
	Message string `json:"message"`
}

// SignalMessage carries bare notifications: "start_timer",
// "opponent_chose", "rematch_start", "opponent_left". The payload never
// includes a move value.
type SignalMessage struct {
	Type string `json:"type"`
}

type ResultMessage struct {
	Type     string `json:"type"` // "result"
	Message  string `json:"message"`
	WinnerID string `json:"winner_id"` // winning connection ID, or "draw"
}

// Sent to the offending connection only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type Client struct {
	conn    *websocket.Conn
	send    chan any
	connID  string
	dropped bool // set by the coordinator once send is closed
}

type inboundEvent struct {
	client *Client
	msg    ClientMessage
}

// Room holds up to two participants and the open round's moves.
type Room struct {
	Code         string
	Participants []*Participant
	PendingMoves map[string]Move // connID -> move, current round only

	createdAt  time.Time
	lastActive time.Time
}

func (r *Room) participant(connID string) *Participant {
	for _, p := range r.Participants {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) participantNames() []string {
	names := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		names = append(names, p.Name)
	}
	return names
}

// Coordinator owns the room registry. It is handed to the transport layer
// rather than living in a package global, and only its run loop touches
// the maps.
type Coordinator struct {
	rooms  map[string]*Room
	byConn map[string]string // connID -> room code, for O(1) disconnects

	events chan inboundEvent
	unreg  chan *Client

	sessionTimeout time.Duration
}

func newCoordinator(sessionTimeout time.Duration) *Coordinator {
	return &Coordinator{
		rooms:          make(map[string]*Room),
		byConn:         make(map[string]string),
		events:         make(chan inboundEvent),
		unreg:          make(chan *Client),
		sessionTimeout: sessionTimeout,
	}
}

func (co *Coordinator) run(cfg *Config) {
	var reap <-chan time.Time
	if co.sessionTimeout > 0 {
		ticker := time.NewTicker(co.sessionTimeout / 2)
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case ev := <-co.events:
			co.handleEvent(cfg, ev.client, ev.msg)
		case c := <-co.unreg:
			co.handleDisconnect(cfg, c)
		case <-reap:
			co.reapIdleRooms(cfg)
		}
	}
}

func (co *Coordinator) handleEvent(cfg *Config, c *Client, msg ClientMessage) {
	switch msg.Type {
	case "create":
		co.handleCreate(cfg, c, msg)
	case "join":
		co.handleJoin(cfg, c, msg)
	case "move":
		co.handleMove(cfg, c, msg)
	case "rematch":
		co.handleRematch(cfg, c, msg)
	}
}

// sendTo delivers a message without ever blocking the coordinator. A
// client whose buffer is full is dropped; closing send unwinds its
// writePump, which closes the socket, which triggers the usual
// disconnect path.
func (co *Coordinator) sendTo(c *Client, msg any) {
	if c.dropped {
		return
	}

	select {
	case c.send <- msg:
	default:
		c.dropped = true
		close(c.send)
	}
}

func (co *Coordinator) broadcast(room *Room, msg any) {
	for _, p := range room.Participants {
		co.sendTo(p.client, msg)
	}
}

// handleCreate processes "create" messages.
func (co *Coordinator) handleCreate(cfg *Config, c *Client, msg ClientMessage) {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Username required"})
		return
	}

	if _, seated := co.byConn[c.connID]; seated {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Already in a room"})
		return
	}

	code := newRoomCode(func(code string) bool {
		_, exists := co.rooms[code]
		return exists
	})

	now := time.Now()
	room := &Room{
		Code:         code,
		PendingMoves: make(map[string]Move),
		createdAt:    now,
		lastActive:   now,
	}
	room.Participants = append(room.Participants, &Participant{
		ConnID: c.connID,
		Name:   name,
		client: c,
	})

	co.rooms[code] = room
	co.byConn[c.connID] = code

	co.sendTo(c, RoomCreatedMessage{Type: "room_created", RoomCode: code})
	co.sendTo(c, StatusMessage{Type: "status", Message: "Waiting for opponent to join..."})

	logf(cfg, "GAMES: Room %s created by %q", code, name)
}

// handleJoin processes "join" messages.
func (co *Coordinator) handleJoin(cfg *Config, c *Client, msg ClientMessage) {
	name := strings.TrimSpace(msg.Name)
	code := normalizeRoomCode(msg.RoomCode)

	if name == "" || code == "" {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Room & username required"})
		return
	}

	if _, seated := co.byConn[c.connID]; seated {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Already in a room"})
		return
	}

	room, ok := co.rooms[code]
	if !ok {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Room not found"})
		return
	}

	if len(room.Participants) >= 2 {
		co.sendTo(c, ErrorMessage{Type: "error", Message: "Room full"})
		return
	}

	room.Participants = append(room.Participants, &Participant{
		ConnID: c.connID,
		Name:   name,
		client: c,
	})
	room.lastActive = time.Now()
	co.byConn[c.connID] = code

	names := room.participantNames()

	co.broadcast(room, RoomJoinedMessage{Type: "room_joined", RoomCode: code, Players: names})
	co.broadcast(room, StatusMessage{Type: "status", Message: names[0] + " vs " + names[1]})
	co.broadcast(room, SignalMessage{Type: "start_timer"})

	logf(cfg, "GAMES: Player %q joined %s", name, code)
}

// handleMove processes "move" messages. Malformed or stale moves are
// dropped without a reply so a client racing a disconnect cannot wedge a
// session.
func (co *Coordinator) handleMove(cfg *Config, c *Client, msg ClientMessage) {
	room, ok := co.rooms[normalizeRoomCode(msg.RoomCode)]
	if !ok {
		return
	}

	mover := room.participant(c.connID)
	if mover == nil {
		return
	}

	move, ok := parseMove(msg.Move)
	if !ok {
		return
	}

	room.lastActive = time.Now()
	room.PendingMoves[c.connID] = move

	// The opponent learns a move was made, never which one.
	for _, p := range room.Participants {
		if p.ConnID != c.connID {
			co.sendTo(p.client, SignalMessage{Type: "opponent_chose"})
		}
	}

	if len(room.Participants) == 2 && len(room.PendingMoves) == 2 {
		co.resolveRound(cfg, room)
	}
}

// resolveRound fires synchronously once both seats have a pending move.
func (co *Coordinator) resolveRound(cfg *Config, room *Room) {
	p1, p2 := room.Participants[0], room.Participants[1]
	m1, m2 := room.PendingMoves[p1.ConnID], room.PendingMoves[p2.ConnID]

	var message, winnerID string
	switch resolve(m1, m2) {
	case OutcomeDraw:
		message = fmt.Sprintf("Draw! Both chose %s", m1)
		winnerID = "draw"
	case OutcomeFirstWins:
		message = fmt.Sprintf("%s wins! %s beats %s", p1.Name, m1, m2)
		winnerID = p1.ConnID
	case OutcomeSecondWins:
		message = fmt.Sprintf("%s wins! %s beats %s", p2.Name, m2, m1)
		winnerID = p2.ConnID
	}

	co.broadcast(room, ResultMessage{Type: "result", Message: message, WinnerID: winnerID})

	// Reopen the room for the next round; play resumes only on rematch.
	clear(room.PendingMoves)

	logf(cfg, "GAMES: Room %s resolved: %s", room.Code, message)
}

// handleRematch processes "rematch" messages. Missing rooms and
// non-participants are silently ignored.
func (co *Coordinator) handleRematch(cfg *Config, c *Client, msg ClientMessage) {
	room, ok := co.rooms[normalizeRoomCode(msg.RoomCode)]
	if !ok {
		return
	}

	if room.participant(c.connID) == nil {
		return
	}

	room.lastActive = time.Now()
	clear(room.PendingMoves)

	co.broadcast(room, SignalMessage{Type: "rematch_start"})
	co.broadcast(room, SignalMessage{Type: "start_timer"})

	logf(cfg, "GAMES: Room %s rematch", room.Code)
}

// handleDisconnect removes a connection from its room, deleting the room
// once it empties. The reverse index makes the common case O(1); a full
// scan backstops any inconsistency.
func (co *Coordinator) handleDisconnect(cfg *Config, c *Client) {
	if !c.dropped {
		c.dropped = true
		close(c.send)
	}

	if code, ok := co.byConn[c.connID]; ok {
		delete(co.byConn, c.connID)
		if room, ok := co.rooms[code]; ok {
			co.removeFromRoom(cfg, room, c.connID)
			return
		}
	}

	for _, room := range co.rooms {
		if room.participant(c.connID) != nil {
			co.removeFromRoom(cfg, room, c.connID)
		}
	}
}

func (co *Coordinator) removeFromRoom(cfg *Config, room *Room, connID string) {
	var left *Participant

	dst := room.Participants[:0]
	for _, p := range room.Participants {
		if p.ConnID == connID {
			left = p
			continue
		}
		dst = append(dst, p)
	}
	room.Participants = dst

	if left == nil {
		return
	}

	delete(room.PendingMoves, connID)

	if len(room.Participants) == 0 {
		delete(co.rooms, room.Code)
		logf(cfg, "GAMES: Room %s deleted", room.Code)
		return
	}

	room.lastActive = time.Now()

	co.broadcast(room, SignalMessage{Type: "opponent_left"})
	co.broadcast(room, StatusMessage{Type: "status", Message: left.Name + " left the game"})

	logf(cfg, "GAMES: Player %q left %s", left.Name, room.Code)
}

// reapIdleRooms closes rooms idle longer than the session timeout. It
// never force-resolves an open round; a half-submitted round simply dies
// with its room.
func (co *Coordinator) reapIdleRooms(cfg *Config) {
	cutoff := time.Now().Add(-co.sessionTimeout)

	for code, room := range co.rooms {
		if !room.lastActive.Before(cutoff) {
			continue
		}

		for _, p := range room.Participants {
			delete(co.byConn, p.ConnID)
			if !p.client.dropped {
				p.client.dropped = true
				close(p.client.send)
			}
		}

		delete(co.rooms, code)
		logf(cfg, "GAMES: Reaped idle room %s", code)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the connection and ties it to the coordinator.
func serveWS(cfg *Config, co *Coordinator) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: uuid.NewString(),
		}

		logf(cfg, "GAMES: Connection %s from %s", client.connID, realIP(r))

		go client.writePump()
		client.readPump(co)
	}
}

func (c *Client) readPump(co *Coordinator) {
	defer func() {
		co.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "create", "join", "move", "rematch":
			co.events <- inboundEvent{
				client: c,
				msg:    msg,
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current room URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomCode := ps.ByName("roomcode")
	if roomCode == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomcode/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed roshambo/index.html
var indexHTML []byte

//go:embed roshambo/app.css
var roshamboCSS []byte

//go:embed roshambo/app.js
var roshamboJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(roshamboCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(roshamboJS)
	}
}

// registerRoshamboGame sets up routes so that:
//   - $path                  → HTML client (create/join forms)
//   - $path/:roomcode        → HTML client with the join form pre-filled
//   - $path/:roomcode/qr     → PNG QR code for that room URL
//   - /ws                    → WebSocket event channel
func registerRoshamboGame(cfg *Config, path string, mux *httprouter.Router) {
	co := newCoordinator(cfg.sessionTimeout)
	go co.run(cfg)

	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	// Per-room client view; the client reads the code from the URL
	mux.GET(cfg.prefix+path+"/:roomcode", getIndexHandler(cfg))

	// Shared assets (no roomcode in route)
	mux.GET(cfg.prefix+"/assets/roshambo/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/roshambo/app.js", getJsHandler(cfg))

	// The event channel; rooms are addressed in the payload, not the URL
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, co))

	// Per-room QR code
	mux.GET(cfg.prefix+path+"/:roomcode/qr", qrHandler)
}
