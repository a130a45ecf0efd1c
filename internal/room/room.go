// Package room owns the lifecycle of multiplayer rooms and the serialization
// of concurrent actions against each one. Every mutation of a room's world
// goes through its per-room mutex: acquire, validate-apply, persist, release.
// Rooms never share mutable state, so independent rooms never contend.
package room

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gotoplanb/kzrk/internal/game"
)

// Member binds a player identity to its simulation state within one room.
// Offline members stick around for the rejoin grace period.
type Member struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Player   *game.Player `json:"player"`
	Online   bool         `json:"online"`
	LastSeen time.Time    `json:"lastSeen"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// Room is the authoritative mutable aggregate: members, markets, turn
// counter and message boards. Owned exclusively by the Manager; mu guards
// every field.
type Room struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	HostID       string             `json:"hostId"`
	MaxPlayers   int                `json:"maxPlayers"`
	CreatedAt    time.Time          `json:"createdAt"`
	LastActivity time.Time          `json:"lastActivity"`
	World        game.World         `json:"world"`
	Members      map[string]*Member `json:"members"`
	Board        *game.MessageBoard `json:"board"`

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Lock/Unlock expose the exclusivity boundary to the Manager.
func (r *Room) lock()   { r.mu.Lock() }
func (r *Room) unlock() { r.mu.Unlock() }

// member looks up by player id. Caller holds the lock.
func (r *Room) member(playerID string) (*Member, bool) {
	m, ok := r.Members[playerID]
	return m, ok
}

// memberByName finds a member by display name. Caller holds the lock.
func (r *Room) memberByName(name string) (*Member, bool) {
	for _, m := range r.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

func (r *Room) onlineCount() int {
	n := 0
	for _, m := range r.Members {
		if m.Online {
			n++
		}
	}
	return n
}

// orderedMembers returns members in join order for stable listings.
func (r *Room) orderedMembers() []*Member {
	out := make([]*Member, 0, len(r.Members))
	for _, m := range r.Members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// limiter returns the board-post limiter for a player, creating it on first
// use (limiters are runtime-only and not persisted). Caller holds the lock.
func (r *Room) limiter(playerID string, postsPerMin float64) *rate.Limiter {
	if r.limiters == nil {
		r.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := r.limiters[playerID]
	if !ok {
		burst := int(postsPerMin)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(postsPerMin/60), burst)
		r.limiters[playerID] = lim
	}
	return lim
}
