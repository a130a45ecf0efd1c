package room

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gotoplanb/kzrk/internal/catalog"
	"github.com/gotoplanb/kzrk/internal/config"
	"github.com/gotoplanb/kzrk/internal/game"
)

// Store is the durable backing for rooms. SaveRoom is called synchronously
// after every committed dispatch, before the action is acknowledged.
type Store interface {
	SaveRoom(r *Room) error
	LoadRoom(id string) (*Room, error)
	ListRooms() ([]string, error)
	DeleteRoom(id string) error
	Close() error
}

// Seeder is what the manager needs from the economy beyond the processor's
// Economy interface: initial market generation at room creation.
type Seeder interface {
	game.Economy
	SeedMarkets() map[string]*game.MarketState
}

// Manager owns every room and funnels all mutation through per-room locks.
type Manager struct {
	cfg      config.Config
	cat      *catalog.Catalog
	proc     *game.Processor
	econ     Seeder
	store    Store
	Sessions *Sessions

	mu    sync.RWMutex
	rooms map[string]*Room

	// onCommit, when set, runs after a dispatch commits (outside the room
	// lock) so a transport can fan out fresh snapshots.
	onCommit func(roomID string)
}

// NewManager reloads every persisted room so in-flight games survive
// restarts.
func NewManager(cfg config.Config, cat *catalog.Catalog, econ Seeder, store Store) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		cat:      cat,
		econ:     econ,
		store:    store,
		Sessions: NewSessions(cfg.SessionSecret, 24*time.Hour),
		rooms:    make(map[string]*Room),
		proc: &game.Processor{
			Catalog:       cat,
			Economy:       econ,
			UnlimitedFuel: cfg.UnlimitedFuel,
		},
	}

	ids, err := store.ListRooms()
	if err != nil {
		return nil, fmt.Errorf("list persisted rooms: %w", err)
	}
	for _, id := range ids {
		r, err := store.LoadRoom(id)
		if err != nil {
			log.Printf("skipping unloadable room %s: %v", id, err)
			continue
		}
		m.rooms[r.ID] = r
	}
	if len(m.rooms) > 0 {
		log.Printf("restored %d room(s) from store", len(m.rooms))
	}
	return m, nil
}

func (m *Manager) SetOnCommit(fn func(roomID string)) { m.onCommit = fn }

// Catalog exposes the shared read-only reference tables.
func (m *Manager) Catalog() *catalog.Catalog { return m.cat }

// CreateRoom allocates a room with freshly seeded markets and persists it
// before returning.
func (m *Manager) CreateRoom(name string) (RoomInfo, error) {
	if name == "" {
		name = "Room " + uuid.NewString()[:4]
	}
	now := time.Now().UTC()
	r := &Room{
		ID:           uuid.NewString(),
		Name:         name,
		MaxPlayers:   m.cfg.MaxPlayers,
		CreatedAt:    now,
		LastActivity: now,
		World: game.World{
			Turn:    1,
			Markets: m.econ.SeedMarkets(),
		},
		Members: make(map[string]*Member),
		Board:   game.NewMessageBoard(m.cfg.BoardMaxMessages),
	}
	if err := m.store.SaveRoom(r); err != nil {
		return RoomInfo{}, fmt.Errorf("persist new room: %w", game.ErrPersistence)
	}

	m.mu.Lock()
	m.rooms[r.ID] = r
	m.mu.Unlock()

	log.Printf("room %s (%q) created", r.ID, r.Name)
	return m.roomInfo(r), nil
}

func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.lock()
		infos = append(infos, m.roomInfo(r))
		r.unlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (m *Manager) room(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, game.ErrNotFound)
	}
	return r, nil
}

// dispatch is the exclusivity boundary: lock the room, run the action,
// persist, unlock, then notify. The action's in-memory effect stands even
// when the save fails; that one case is surfaced as ErrPersistence so the
// caller knows durable and local state may diverge.
func (m *Manager) dispatch(roomID string, fn func(r *Room) error) error {
	r, err := m.room(roomID)
	if err != nil {
		return err
	}

	r.lock()
	err = fn(r)
	if err == nil {
		r.LastActivity = time.Now().UTC()
		if saveErr := m.store.SaveRoom(r); saveErr != nil {
			log.Printf("room %s: save after commit failed: %v", roomID, saveErr)
			err = fmt.Errorf("action applied but not persisted: %w", game.ErrPersistence)
		}
	}
	r.unlock()

	if err == nil && m.onCommit != nil {
		m.onCommit(roomID)
	}
	return err
}

// JoinResult is handed to a client on successful join or rejoin.
type JoinResult struct {
	RoomID   string    `json:"roomId"`
	PlayerID string    `json:"playerId"`
	Token    string    `json:"token"`
	Rejoined bool      `json:"rejoined"`
	Snapshot *Snapshot `json:"snapshot"`
}

// Join admits a player, or reattaches an offline member with the same name
// (rejoin). The first member to join becomes host.
func (m *Manager) Join(roomID, playerName string) (*JoinResult, error) {
	if playerName == "" {
		return nil, fmt.Errorf("player name required: %w", game.ErrNotFound)
	}
	res := &JoinResult{RoomID: roomID}
	err := m.dispatch(roomID, func(r *Room) error {
		now := time.Now().UTC()

		if existing, ok := r.memberByName(playerName); ok {
			if existing.Online && now.Sub(existing.LastSeen) < m.cfg.GracePeriod {
				return game.ErrDuplicateName
			}
			// Stale or offline member with this name: rejoin keeps the
			// original PlayerState.
			existing.Online = true
			existing.LastSeen = now
			res.PlayerID = existing.ID
			res.Rejoined = true
			return nil
		}

		if len(r.Members) >= r.MaxPlayers {
			return game.ErrRoomFull
		}

		member := &Member{
			ID:   uuid.NewString(),
			Name: playerName,
			Player: game.NewPlayer(
				m.cfg.StartingMoney,
				m.cfg.StartingAirport,
				m.cfg.StartingFuel(),
				m.cfg.MaxFuel,
				m.cfg.MaxCargoWeight,
				m.cfg.FuelEfficiency,
			),
			Online:   true,
			LastSeen: now,
			JoinedAt: now,
		}
		r.Members[member.ID] = member
		if r.HostID == "" {
			r.HostID = member.ID
		}
		res.PlayerID = member.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := m.Sessions.Issue(roomID, res.PlayerID, playerName)
	if err != nil {
		return nil, err
	}
	res.Token = token

	snap, err := m.GetState(roomID, res.PlayerID)
	if err != nil {
		return nil, err
	}
	res.Snapshot = snap
	log.Printf("room %s: %q joined (rejoin=%v)", roomID, playerName, res.Rejoined)
	return res, nil
}

// Resume reattaches a session token to its player, marking it online.
func (m *Manager) Resume(token string) (*JoinResult, error) {
	claims, err := m.Sessions.Verify(token)
	if err != nil {
		return nil, err
	}
	res := &JoinResult{RoomID: claims.RoomID, PlayerID: claims.PlayerID, Token: token, Rejoined: true}
	err = m.dispatch(claims.RoomID, func(r *Room) error {
		member, ok := r.member(claims.PlayerID)
		if !ok {
			return fmt.Errorf("player %q: %w", claims.PlayerID, game.ErrNotFound)
		}
		member.Online = true
		member.LastSeen = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	snap, err := m.GetState(claims.RoomID, claims.PlayerID)
	if err != nil {
		return nil, err
	}
	res.Snapshot = snap
	return res, nil
}

// Leave marks a member offline (soft) or removes it entirely (purge). A
// room with zero members stays addressable until the sweeper reaps it.
func (m *Manager) Leave(roomID, playerID string, purge bool) error {
	return m.dispatch(roomID, func(r *Room) error {
		member, ok := r.member(playerID)
		if !ok {
			return fmt.Errorf("player %q: %w", playerID, game.ErrNotFound)
		}
		if !purge {
			member.Online = false
			member.LastSeen = time.Now().UTC()
			return nil
		}
		delete(r.Members, playerID)
		if r.HostID == playerID {
			r.HostID = ""
			for _, mem := range r.orderedMembers() {
				r.HostID = mem.ID
				break
			}
		}
		return nil
	})
}

// Travel dispatches a travel action for one player.
func (m *Manager) Travel(roomID, playerID, destination string) (*game.TravelResult, error) {
	var out *game.TravelResult
	err := m.dispatch(roomID, func(r *Room) error {
		member, ok := r.member(playerID)
		if !ok {
			return fmt.Errorf("player %q: %w", playerID, game.ErrNotFound)
		}
		member.LastSeen = time.Now().UTC()
		res, err := m.proc.Travel(member.Player, &r.World, destination)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// Trade dispatches a buy or sell for one player.
func (m *Manager) Trade(roomID, playerID, cargoID string, qty int, side game.Side) (*game.TradeResult, error) {
	var out *game.TradeResult
	err := m.dispatch(roomID, func(r *Room) error {
		member, ok := r.member(playerID)
		if !ok {
			return fmt.Errorf("player %q: %w", playerID, game.ErrNotFound)
		}
		member.LastSeen = time.Now().UTC()
		res, err := m.proc.Trade(member.Player, &r.World, cargoID, qty, side)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// BuyFuel dispatches a fuel purchase for one player.
func (m *Manager) BuyFuel(roomID, playerID string, qty int) (*game.FuelResult, error) {
	var out *game.FuelResult
	err := m.dispatch(roomID, func(r *Room) error {
		member, ok := r.member(playerID)
		if !ok {
			return fmt.Errorf("player %q: %w", playerID, game.ErrNotFound)
		}
		member.LastSeen = time.Now().UTC()
		res, err := m.proc.BuyFuel(member.Player, &r.World, qty)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// PostMessage appends to an airport's board. By default the author must be
// physically at that airport; BoardRemotePosts relaxes the check. Posts are
// rate-limited per player.
func (m *Manager) PostMessage(roomID, playerID, airportID, content string) (*game.Message, error) {
	if _, err := m.cat.Airport(airportID); err != nil {
		return nil, fmt.Errorf("airport %q: %w", airportID, game.ErrNotFound)
	}
	var out *game.Message
	err := m.dispatch(roomID, func(r *Room) error {
		member, ok := r.member(playerID)
		if !ok {
			return fmt.Errorf("player %q: %w", playerID, game.ErrNotFound)
		}
		if !m.cfg.BoardRemotePosts && member.Player.CurrentAirport != airportID {
			return game.ErrNotAtAirport
		}
		if !r.limiter(playerID, m.cfg.BoardPostsPerMin).Allow() {
			return game.ErrRateLimited
		}
		msg, err := r.Board.Post(member.ID, member.Name, airportID, content)
		if err != nil {
			return err
		}
		out = &msg
		return nil
	})
	return out, err
}

// GetState serves the latest committed snapshot for one player. It takes
// the room lock briefly to copy committed state and never observes a
// half-applied action.
func (m *Manager) GetState(roomID, playerID string) (*Snapshot, error) {
	r, err := m.room(roomID)
	if err != nil {
		return nil, err
	}
	r.lock()
	defer r.unlock()
	return m.snapshot(r, playerID)
}

// OnlinePlayerIDs lists members currently online, for snapshot fan-out.
func (m *Manager) OnlinePlayerIDs(roomID string) []string {
	r, err := m.room(roomID)
	if err != nil {
		return nil
	}
	r.lock()
	defer r.unlock()
	ids := make([]string, 0, len(r.Members))
	for _, mem := range r.orderedMembers() {
		if mem.Online {
			ids = append(ids, mem.ID)
		}
	}
	return ids
}

// RunSweeper periodically expires members whose grace period lapsed and
// reaps rooms that have been empty past the grace period. Each pass holds a
// room's lock only long enough for its own cleanup.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now().UTC()

	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.lock()
		changed := false
		for id, mem := range r.Members {
			if !mem.Online && now.Sub(mem.LastSeen) > m.cfg.GracePeriod {
				delete(r.Members, id)
				delete(r.limiters, id)
				if r.HostID == id {
					r.HostID = ""
					for _, next := range r.orderedMembers() {
						r.HostID = next.ID
						break
					}
				}
				changed = true
				log.Printf("room %s: purged %q after grace period", r.ID, mem.Name)
			}
		}
		empty := len(r.Members) == 0 && now.Sub(r.LastActivity) > m.cfg.GracePeriod
		if changed && !empty {
			if err := m.store.SaveRoom(r); err != nil {
				log.Printf("room %s: sweep save failed: %v", r.ID, err)
			}
		}
		r.unlock()

		if empty {
			m.reap(r, now)
		}
	}
}

// reap removes an empty, stale room from the map and the store. The
// emptiness verdict from the sweep pass goes stale the moment the room lock
// is released, so it is re-checked here under both the manager and room
// locks: a join that landed in between keeps the room alive. Once the room
// is out of the map no new join can reach it, so the store delete needs no
// lock.
func (m *Manager) reap(r *Room, now time.Time) {
	m.mu.Lock()
	r.lock()
	empty := len(r.Members) == 0 && now.Sub(r.LastActivity) > m.cfg.GracePeriod
	if empty {
		delete(m.rooms, r.ID)
	}
	r.unlock()
	m.mu.Unlock()

	if !empty {
		return
	}
	if err := m.store.DeleteRoom(r.ID); err != nil {
		log.Printf("room %s: reap delete failed: %v", r.ID, err)
	} else {
		log.Printf("room %s reaped (empty past grace period)", r.ID)
	}
}
