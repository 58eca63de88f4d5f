package room

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
)

// Code alphabet excludes glyphs that are easy to misread when typed from
// a headset display (0/O, 1/I).
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 5

	// The code space (32^5) dwarfs any realistic room count, so collisions
	// are retried rather than avoided. The cap only guards against a
	// pathological table state.
	maxCodeAttempts = 100
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomOccupied      = errors.New("room already has a phone attached")
	ErrRegistryExhausted = errors.New("could not allocate a unique room code")
)

// Registry is the process-wide table of active rooms, keyed by code.
// Each test owns its own Registry; there is no package-level instance.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	byConn  map[string]*Room
	genCode func() string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		byConn:  make(map[string]*Room),
		genCode: randomCode,
	}
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for range codeLength {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// CreateRoom allocates a fresh room owned by the headset endpoint. Any
// room the same endpoint already owned is torn down first; a headset may
// only own one room at a time.
func (g *Registry) CreateRoom(headset Endpoint, headsetLang, phoneLang string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.byConn[headset.ID()]; ok {
		delete(g.byConn, headset.ID())
		if h, _ := prev.Endpoints(); h != nil && h.ID() == headset.ID() {
			g.removeRoomLocked(prev)
		} else {
			prev.detachPhone()
		}
	}

	code := ""
	for range maxCodeAttempts {
		candidate := g.genCode()
		if _, taken := g.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrRegistryExhausted
	}

	r := &Room{
		code:        code,
		headset:     headset,
		headsetLang: headsetLang,
		phoneLang:   phoneLang,
		profile:     Profile{PhoneLang: phoneLang},
	}
	g.rooms[code] = r
	g.byConn[headset.ID()] = r
	slog.Info("room created", "code", code, "conn_id", headset.ID(), "headset_lang", headsetLang, "phone_lang", phoneLang)
	return r, nil
}

// JoinRoom attaches a phone endpoint to the room identified by code.
// The supplied profile fields are merged into the room profile and a
// non-empty phoneLang overrides the room's phone language.
func (g *Registry) JoinRoom(code string, phone Endpoint, phoneLang string, profile Profile) (*Room, Snapshot, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[code]
	if !ok {
		return nil, Snapshot{}, ErrRoomNotFound
	}
	if existing := r.EndpointFor(RolePhone); existing != nil {
		return nil, Snapshot{}, ErrRoomOccupied
	}

	snap := r.attachPhone(phone, phoneLang, profile)
	g.byConn[phone.ID()] = r
	slog.Info("phone joined room", "code", code, "conn_id", phone.ID(), "phone_lang", snap.PhoneLang)
	return r, snap, nil
}

// Lookup returns the room an endpoint is bound to, if any.
func (g *Registry) Lookup(ep Endpoint) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.byConn[ep.ID()]
	return r, ok
}

// Get returns the room for a code, if it is still active.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// Teardown unbinds an endpoint from its room. A departing headset kills
// the room outright; a departing phone only empties the phone slot so a
// new companion can join with the same code. The surviving endpoint, if
// any, is returned together with the role that left.
func (g *Registry) Teardown(ep Endpoint) (survivor Endpoint, departed Role, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, bound := g.byConn[ep.ID()]
	if !bound {
		return nil, "", false
	}
	delete(g.byConn, ep.ID())

	headset, phone := r.Endpoints()
	if headset != nil && headset.ID() == ep.ID() {
		g.removeRoomLocked(r)
		slog.Info("room destroyed on headset disconnect", "code", r.Code(), "conn_id", ep.ID())
		return phone, RoleHeadset, true
	}

	r.detachPhone()
	slog.Info("phone detached from room", "code", r.Code(), "conn_id", ep.ID())
	return headset, RolePhone, true
}

// Count reports the number of active rooms.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

func (g *Registry) removeRoomLocked(r *Room) {
	delete(g.rooms, r.Code())
	if _, phone := r.Endpoints(); phone != nil {
		delete(g.byConn, phone.ID())
	}
}
