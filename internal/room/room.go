package room

import "sync"

// Role identifies which side of a captioning session an endpoint is.
// It is assigned when a connection first creates or joins a room and
// never changes afterwards.
type Role string

const (
	RoleHeadset Role = "headset"
	RolePhone   Role = "phone"
)

// Counterpart returns the other side of the session.
func (r Role) Counterpart() Role {
	if r == RoleHeadset {
		return RolePhone
	}
	return RoleHeadset
}

// Profile describes the phone-side companion as shown on the headset.
type Profile struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	PhoneLang    string `json:"phoneLang"`
}

// Merge applies non-empty fields of other on top of p, last write wins.
func (p Profile) Merge(other Profile) Profile {
	merged := p
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.Relationship != "" {
		merged.Relationship = other.Relationship
	}
	if other.PhoneLang != "" {
		merged.PhoneLang = other.PhoneLang
	}
	return merged
}

// Endpoint is one duplex transport connection. Send is best effort:
// implementations drop the message if the underlying connection is gone.
type Endpoint interface {
	ID() string
	Send(msg any)
}

// Room pairs exactly one headset endpoint with at most one phone endpoint.
// The headset owns the room for its whole lifetime; the phone slot may be
// empty while a new companion joins.
type Room struct {
	mu sync.Mutex

	code        string
	headset     Endpoint
	phone       Endpoint
	headsetLang string
	phoneLang   string
	profile     Profile
}

func (r *Room) Code() string { return r.code }

// Snapshot returns a consistent view of the room's mutable state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Code:        r.code,
		HeadsetLang: r.headsetLang,
		PhoneLang:   r.phoneLang,
		Profile:     r.profile,
		PhoneJoined: r.phone != nil,
	}
}

// Snapshot is an immutable copy of room state for notifications.
type Snapshot struct {
	Code        string
	HeadsetLang string
	PhoneLang   string
	Profile     Profile
	PhoneJoined bool
}

// Endpoints returns the current headset and phone endpoints. The phone
// may be nil.
func (r *Room) Endpoints() (headset, phone Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headset, r.phone
}

// RoleOf reports which role an endpoint holds in this room.
func (r *Room) RoleOf(ep Endpoint) (Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headset != nil && r.headset.ID() == ep.ID() {
		return RoleHeadset, true
	}
	if r.phone != nil && r.phone.ID() == ep.ID() {
		return RolePhone, true
	}
	return "", false
}

// EndpointFor returns the endpoint bound to the given role, or nil.
func (r *Room) EndpointFor(role Role) Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == RoleHeadset {
		return r.headset
	}
	return r.phone
}

// UpdateProfile merges fields into the shared profile and returns the
// merged result.
func (r *Room) UpdateProfile(p Profile) Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profile = r.profile.Merge(p)
	return r.profile
}

// SetLang records the language preference for one role and returns both
// languages after the update.
func (r *Room) SetLang(role Role, lang string) (headsetLang, phoneLang string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == RoleHeadset {
		r.headsetLang = lang
	} else {
		r.phoneLang = lang
	}
	return r.headsetLang, r.phoneLang
}

// Langs returns the source language for the given role and the target
// language of its counterpart.
func (r *Room) Langs(from Role) (src, dst string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from == RoleHeadset {
		return r.headsetLang, r.phoneLang
	}
	return r.phoneLang, r.headsetLang
}

func (r *Room) attachPhone(ep Endpoint, phoneLang string, profile Profile) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phone = ep
	r.profile = r.profile.Merge(profile)
	if phoneLang != "" {
		r.phoneLang = phoneLang
	}
	return Snapshot{
		Code:        r.code,
		HeadsetLang: r.headsetLang,
		PhoneLang:   r.phoneLang,
		Profile:     r.profile,
		PhoneJoined: true,
	}
}

func (r *Room) detachPhone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phone = nil
}
