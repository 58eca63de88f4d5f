package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/foxseedlab/jimakun/internal/room"
	"github.com/foxseedlab/jimakun/internal/translator"
)

const (
	errTextRoomNotFound = "Room not found — check the code."
	errTextRoomOccupied = "Room is already occupied."
	errTextNoRoomCodes  = "Could not allocate a room code. Try again."
)

// Router dispatches inbound control and speech events. The transport
// calls HandleMessage synchronously from each connection's read loop, so
// events from one connection are processed in receipt order and a final
// utterance is translated and relayed before the next event from the
// same speaker is read.
type Router struct {
	registry *room.Registry
	gateway  *translator.Gateway
}

func NewRouter(registry *room.Registry, gateway *translator.Gateway) *Router {
	return &Router{registry: registry, gateway: gateway}
}

// HandleMessage processes one raw frame from an endpoint. Malformed or
// role-inappropriate frames are dropped without a response; the protocol
// is not defended beyond field presence checks.
func (rt *Router) HandleMessage(ctx context.Context, ep room.Endpoint, raw []byte) {
	msg, ok := DecodeClientMessage(raw)
	if !ok {
		slog.Debug("dropping malformed frame", "conn_id", ep.ID())
		return
	}

	switch msg.Type {
	case TypeCreateRoom:
		rt.handleCreateRoom(ep, msg)
	case TypeJoinRoom:
		rt.handleJoinRoom(ep, msg)
	case TypeUpdateProfile:
		rt.handleUpdateProfile(ep, msg)
	case TypeUpdateLang:
		rt.handleUpdateLang(ep, msg)
	case TypeSpeech:
		rt.handleSpeech(ctx, ep, msg)
	case TypePing:
		ep.Send(Pong{Type: TypePong})
	default:
		slog.Debug("dropping unknown event kind", "conn_id", ep.ID(), "type", msg.Type)
	}
}

// HandleDisconnect tears down whatever room state the endpoint held and
// notifies the surviving party. Connection loss is never fatal for the
// survivor: a lost phone leaves the room joinable, a lost headset kills
// the room.
func (rt *Router) HandleDisconnect(ep room.Endpoint) {
	survivor, departed, ok := rt.registry.Teardown(ep)
	if !ok || survivor == nil {
		return
	}
	switch departed {
	case room.RoleHeadset:
		survivor.Send(HeadsetDisconnected{Type: TypeHeadsetDisconnected})
	case room.RolePhone:
		survivor.Send(PhoneDisconnected{Type: TypePhoneDisconnected})
	}
}

func (rt *Router) handleCreateRoom(ep room.Endpoint, msg ClientMessage) {
	headsetLang := msg.HeadsetLang
	if headsetLang == "" {
		headsetLang = "en"
	}
	phoneLang := msg.PhoneLang
	if phoneLang == "" {
		phoneLang = "es"
	}

	r, err := rt.registry.CreateRoom(ep, headsetLang, phoneLang)
	if err != nil {
		slog.Error("room creation failed", "error", err, "conn_id", ep.ID())
		ep.Send(ErrorMessage{Type: TypeError, Message: errTextNoRoomCodes})
		return
	}
	ep.Send(RoomCreated{Type: TypeRoomCreated, Code: r.Code()})
}

func (rt *Router) handleJoinRoom(ep room.Endpoint, msg ClientMessage) {
	profile := room.Profile{}
	if msg.Profile != nil {
		profile = *msg.Profile
	}

	r, snap, err := rt.registry.JoinRoom(msg.Code, ep, msg.PhoneLang, profile)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			ep.Send(ErrorMessage{Type: TypeError, Message: errTextRoomNotFound})
		case errors.Is(err, room.ErrRoomOccupied):
			ep.Send(ErrorMessage{Type: TypeError, Message: errTextRoomOccupied})
		default:
			slog.Error("join failed", "error", err, "conn_id", ep.ID(), "code", msg.Code)
		}
		return
	}

	ep.Send(RoomJoined{
		Type:        TypeRoomJoined,
		Code:        snap.Code,
		HeadsetLang: snap.HeadsetLang,
		PhoneLang:   snap.PhoneLang,
		Profile:     snap.Profile,
	})
	if headset := r.EndpointFor(room.RoleHeadset); headset != nil {
		headset.Send(PhoneConnected{
			Type:      TypePhoneConnected,
			Profile:   snap.Profile,
			PhoneLang: snap.PhoneLang,
		})
	}
}

func (rt *Router) handleUpdateProfile(ep room.Endpoint, msg ClientMessage) {
	r, bound := rt.registry.Lookup(ep)
	if !bound || msg.Profile == nil {
		return
	}
	merged := r.UpdateProfile(*msg.Profile)
	rt.broadcast(r, ProfileUpdated{Type: TypeProfileUpdated, Profile: merged})
}

func (rt *Router) handleUpdateLang(ep room.Endpoint, msg ClientMessage) {
	r, bound := rt.registry.Lookup(ep)
	if !bound || msg.Lang == "" {
		return
	}
	role, ok := r.RoleOf(ep)
	if !ok {
		return
	}
	headsetLang, phoneLang := r.SetLang(role, msg.Lang)
	rt.broadcast(r, LangUpdated{Type: TypeLangUpdated, HeadsetLang: headsetLang, PhoneLang: phoneLang})
}

func (rt *Router) handleSpeech(ctx context.Context, ep room.Endpoint, msg ClientMessage) {
	r, bound := rt.registry.Lookup(ep)
	if !bound {
		return
	}
	role, ok := r.RoleOf(ep)
	if !ok {
		return
	}

	// Interim text is a local display hint only: echoed to the sender,
	// never translated, never fanned out.
	if !msg.IsFinal || strings.TrimSpace(msg.Text) == "" {
		ep.Send(SpeechInterim{Type: TypeSpeechInterim, Text: msg.Text})
		return
	}

	src, dst := r.Langs(role)
	translated := rt.gateway.Translate(ctx, msg.Text, src, dst)

	if counterpart := r.EndpointFor(role.Counterpart()); counterpart != nil {
		counterpart.Send(TranslatedSpeech{
			Type:       TypeTranslatedSpeech,
			Original:   msg.Text,
			Translated: translated,
			From:       role,
		})
	}
	ep.Send(SpeechEcho{Type: TypeSpeechEcho, Text: msg.Text, Role: role})
}

func (rt *Router) broadcast(r *room.Room, msg any) {
	headset, phone := r.Endpoints()
	if headset != nil {
		headset.Send(msg)
	}
	if phone != nil {
		phone.Send(msg)
	}
}
