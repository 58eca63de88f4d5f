package relay

import (
	"encoding/json"

	"github.com/foxseedlab/jimakun/internal/room"
)

// Client → server event kinds.
const (
	TypeCreateRoom    = "create_room"
	TypeJoinRoom      = "join_room"
	TypeUpdateProfile = "update_profile"
	TypeUpdateLang    = "update_lang"
	TypeSpeech        = "speech"
	TypePing          = "ping"
)

// Server → client event kinds.
const (
	TypeRoomCreated         = "room_created"
	TypeRoomJoined          = "room_joined"
	TypePhoneConnected      = "phone_connected"
	TypePhoneDisconnected   = "phone_disconnected"
	TypeHeadsetDisconnected = "headset_disconnected"
	TypeProfileUpdated      = "profile_updated"
	TypeLangUpdated         = "lang_updated"
	TypeTranslatedSpeech    = "translated_speech"
	TypeSpeechInterim       = "speech_interim"
	TypeSpeechEcho          = "speech_echo"
	TypeError               = "error"
	TypePong                = "pong"
)

// ClientMessage is the inbound event envelope. All event kinds share one
// flat shape; fields irrelevant to a kind are simply absent.
type ClientMessage struct {
	Type        string        `json:"type"`
	HeadsetLang string        `json:"headsetLang,omitempty"`
	PhoneLang   string        `json:"phoneLang,omitempty"`
	Code        string        `json:"code,omitempty"`
	Profile     *room.Profile `json:"profile,omitempty"`
	Lang        string        `json:"lang,omitempty"`
	Text        string        `json:"text,omitempty"`
	IsFinal     bool          `json:"isFinal,omitempty"`
}

// DecodeClientMessage parses a raw frame. Malformed frames yield ok=false
// and are dropped by the router without a response.
func DecodeClientMessage(raw []byte) (ClientMessage, bool) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, false
	}
	if msg.Type == "" {
		return ClientMessage{}, false
	}
	return msg, true
}

type RoomCreated struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type RoomJoined struct {
	Type        string       `json:"type"`
	Code        string       `json:"code"`
	HeadsetLang string       `json:"headsetLang"`
	PhoneLang   string       `json:"phoneLang"`
	Profile     room.Profile `json:"profile"`
}

type PhoneConnected struct {
	Type      string       `json:"type"`
	Profile   room.Profile `json:"profile"`
	PhoneLang string       `json:"phoneLang"`
}

type PhoneDisconnected struct {
	Type string `json:"type"`
}

type HeadsetDisconnected struct {
	Type string `json:"type"`
}

type ProfileUpdated struct {
	Type    string       `json:"type"`
	Profile room.Profile `json:"profile"`
}

type LangUpdated struct {
	Type        string `json:"type"`
	HeadsetLang string `json:"headsetLang"`
	PhoneLang   string `json:"phoneLang"`
}

type TranslatedSpeech struct {
	Type       string    `json:"type"`
	Original   string    `json:"original"`
	Translated string    `json:"translated"`
	From       room.Role `json:"from"`
}

type SpeechInterim struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type SpeechEcho struct {
	Type string    `json:"type"`
	Text string    `json:"text"`
	Role room.Role `json:"role"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Pong struct {
	Type string `json:"type"`
}
