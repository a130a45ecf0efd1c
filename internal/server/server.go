// Package server exposes the room manager over HTTP and WebSocket. REST
// covers the lobby (list/create/join/resume); gameplay actions flow over the
// socket, and every committed action fans a fresh snapshot out to each
// connected player in the room.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gotoplanb/kzrk/internal/game"
	"github.com/gotoplanb/kzrk/internal/room"
)

type wsIn struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsOut struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// client is one live socket bound (after join/resume) to a player in a room.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes

	roomID   string
	playerID string
}

func (c *client) send(out wsOut) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(out); err != nil {
		log.Printf("ws write: %v", err)
	}
}

// Server routes transport traffic into the manager.
type Server struct {
	mgr      *room.Manager
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]map[string]*client // roomID -> playerID -> client
}

func New(mgr *room.Manager) *Server {
	s := &Server{
		mgr: mgr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]map[string]*client),
	}
	mgr.SetOnCommit(s.broadcast)
	return s
}

// Routes registers every endpoint on the router.
func (s *Server) Routes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/catalog", s.handleCatalog).Methods("GET")
	r.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	r.HandleFunc("/rooms", s.handleCreateRoom).Methods("POST")
	r.HandleFunc("/rooms/{id}/join", s.handleJoin).Methods("POST")
	r.HandleFunc("/resume", s.handleResume).Methods("POST")
	r.HandleFunc("/state", s.handleState).Methods("GET")

	r.HandleFunc("/actions/travel", s.handleTravel).Methods("POST")
	r.HandleFunc("/actions/trade", s.handleTrade).Methods("POST")
	r.HandleFunc("/actions/fuel", s.handleFuel).Methods("POST")
	r.HandleFunc("/actions/message", s.handlePostMessage).Methods("POST")

	r.HandleFunc("/ws", s.handleWS)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps error kinds to HTTP statuses. Gameplay rejections are 409:
// the request was well-formed, the game state just refused it.
func statusFor(kind string) int {
	switch kind {
	case "not_found":
		return http.StatusNotFound
	case "invalid_quantity", "invalid_message":
		return http.StatusBadRequest
	case "rate_limited":
		return http.StatusTooManyRequests
	case "persistence_failure", "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func writeErr(w http.ResponseWriter, err error) {
	kind := game.Kind(err)
	writeJSON(w, statusFor(kind), errorBody{Kind: kind, Message: err.Error()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	cat := s.mgr.Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"airports":   cat.Airports(),
		"cargoTypes": cat.CargoTypes(),
	})
}

// session resolves the bearer token on an action request.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*room.SessionClaims, bool) {
	claims, err := s.mgr.Sessions.Verify(bearerToken(r))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return claims, true
}

func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Destination string `json:"destination"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	res, err := s.mgr.Travel(claims.RoomID, claims.PlayerID, body.Destination)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Side     game.Side `json:"side"`
		CargoID  string    `json:"cargoId"`
		Quantity int       `json:"quantity"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	res, err := s.mgr.Trade(claims.RoomID, claims.PlayerID, body.CargoID, body.Quantity, body.Side)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFuel(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	res, err := s.mgr.BuyFuel(claims.RoomID, claims.PlayerID, body.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		AirportID string `json:"airportId"`
		Content   string `json:"content"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	res, err := s.mgr.PostMessage(claims.RoomID, claims.PlayerID, body.AirportID, body.Content)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": s.mgr.ListRooms()})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	info, err := s.mgr.CreateRoom(body.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Kind: "internal", Message: "invalid JSON body"})
		return
	}
	res, err := s.mgr.Join(mux.Vars(r)["id"], body.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	res, err := s.mgr.Resume(bearerToken(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	claims, err := s.mgr.Sessions.Verify(bearerToken(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	snap, err := s.mgr.GetState(claims.RoomID, claims.PlayerID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	c := &client{conn: conn}

	// A token on the upgrade request attaches the socket immediately.
	if token := bearerToken(r); token != "" {
		if res, err := s.mgr.Resume(token); err == nil {
			s.attach(c, res.RoomID, res.PlayerID)
			c.send(wsOut{Type: "joined", Payload: res})
		} else {
			c.send(s.errOut(err))
		}
	}
	go s.readLoop(c)
}

func (s *Server) errOut(err error) wsOut {
	return wsOut{Type: "error", Payload: errorBody{Kind: game.Kind(err), Message: err.Error()}}
}

func (s *Server) attach(c *client, roomID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.roomID != "" {
		if byPlayer := s.conns[c.roomID]; byPlayer != nil && byPlayer[c.playerID] == c {
			delete(byPlayer, c.playerID)
		}
	}
	c.roomID, c.playerID = roomID, playerID
	if s.conns[roomID] == nil {
		s.conns[roomID] = make(map[string]*client)
	}
	s.conns[roomID][playerID] = c
}

func (s *Server) detach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.roomID == "" {
		return
	}
	if byPlayer := s.conns[c.roomID]; byPlayer != nil && byPlayer[c.playerID] == c {
		delete(byPlayer, c.playerID)
		if len(byPlayer) == 0 {
			delete(s.conns, c.roomID)
		}
	}
}

func (s *Server) readLoop(c *client) {
	defer func() {
		c.conn.Close()
		s.detach(c)
		if c.roomID != "" {
			// Soft leave: the grace period keeps the seat for a rejoin.
			if err := s.mgr.Leave(c.roomID, c.playerID, false); err != nil {
				log.Printf("leave on disconnect: %v", err)
			}
		}
	}()

	for {
		var msg wsIn
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		s.handleMessage(c, msg)
	}
}

func (s *Server) handleMessage(c *client, msg wsIn) {
	switch msg.Type {
	case "listRooms":
		c.send(wsOut{Type: "rooms", Payload: s.mgr.ListRooms()})

	case "createRoom":
		var data struct {
			Name string `json:"name"`
		}
		json.Unmarshal(msg.Payload, &data)
		info, err := s.mgr.CreateRoom(data.Name)
		if err != nil {
			c.send(s.errOut(err))
			return
		}
		c.send(wsOut{Type: "roomCreated", Payload: info})

	case "join":
		var data struct {
			RoomID string `json:"roomId"`
			Name   string `json:"name"`
		}
		json.Unmarshal(msg.Payload, &data)
		res, err := s.mgr.Join(data.RoomID, data.Name)
		if err != nil {
			c.send(s.errOut(err))
			return
		}
		s.attach(c, res.RoomID, res.PlayerID)
		c.send(wsOut{Type: "joined", Payload: res})

	case "resume":
		var data struct {
			Token string `json:"token"`
		}
		json.Unmarshal(msg.Payload, &data)
		res, err := s.mgr.Resume(data.Token)
		if err != nil {
			c.send(s.errOut(err))
			return
		}
		s.attach(c, res.RoomID, res.PlayerID)
		c.send(wsOut{Type: "joined", Payload: res})

	case "travel":
		var data struct {
			Destination string `json:"destination"`
		}
		json.Unmarshal(msg.Payload, &data)
		s.reply(c, "traveled", func() (interface{}, error) {
			return s.mgr.Travel(c.roomID, c.playerID, data.Destination)
		})

	case "buy", "sell":
		var data struct {
			CargoID  string `json:"cargoId"`
			Quantity int    `json:"quantity"`
		}
		json.Unmarshal(msg.Payload, &data)
		side := game.Buy
		if msg.Type == "sell" {
			side = game.Sell
		}
		s.reply(c, "traded", func() (interface{}, error) {
			return s.mgr.Trade(c.roomID, c.playerID, data.CargoID, data.Quantity, side)
		})

	case "buyFuel":
		var data struct {
			Quantity int `json:"quantity"`
		}
		json.Unmarshal(msg.Payload, &data)
		s.reply(c, "fueled", func() (interface{}, error) {
			return s.mgr.BuyFuel(c.roomID, c.playerID, data.Quantity)
		})

	case "postMessage":
		var data struct {
			AirportID string `json:"airportId"`
			Content   string `json:"content"`
		}
		json.Unmarshal(msg.Payload, &data)
		s.reply(c, "posted", func() (interface{}, error) {
			return s.mgr.PostMessage(c.roomID, c.playerID, data.AirportID, data.Content)
		})

	case "state":
		s.reply(c, "snapshot", func() (interface{}, error) {
			return s.mgr.GetState(c.roomID, c.playerID)
		})

	case "leave":
		if c.roomID != "" {
			if err := s.mgr.Leave(c.roomID, c.playerID, false); err != nil {
				c.send(s.errOut(err))
			}
			s.detach(c)
			c.roomID, c.playerID = "", ""
		}

	default:
		c.send(wsOut{Type: "error", Payload: errorBody{Kind: "internal", Message: "unknown message type " + msg.Type}})
	}
}

// reply runs one action for an attached client and sends the result or the
// error. Snapshot fan-out happens separately via the commit hook.
func (s *Server) reply(c *client, outType string, fn func() (interface{}, error)) {
	if c.roomID == "" {
		c.send(wsOut{Type: "error", Payload: errorBody{Kind: "not_found", Message: "join a room first"}})
		return
	}
	res, err := fn()
	if err != nil {
		c.send(s.errOut(err))
		return
	}
	c.send(wsOut{Type: outType, Payload: res})
}

// broadcast pushes a fresh per-player snapshot to every connected member of
// a room. Called by the manager after each committed action.
func (s *Server) broadcast(roomID string) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.conns[roomID]))
	for _, c := range s.conns[roomID] {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		snap, err := s.mgr.GetState(roomID, c.playerID)
		if err != nil {
			continue
		}
		c.send(wsOut{Type: "snapshot", Payload: snap})
	}
}
