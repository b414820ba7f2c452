package world

// Authority says which side owns the truth for the simulation.
type Authority uint8

const (
	// LocalAuthoritative: this process derives every state change itself.
	LocalAuthoritative Authority = iota
	// RemoteAuthoritative: the local World is a cache corrected by the
	// reconciler; local commands are forwarded, not applied.
	RemoteAuthoritative
)

func (a Authority) String() string {
	if a == RemoteAuthoritative {
		return "remote"
	}
	return "local"
}

// Domain is a class of state changes guarded by the authority mode.
type Domain uint8

const (
	DomainTurn Domain = iota + 1
	DomainProduction
	DomainGrowth
	DomainMovement
	DomainCombat
	DomainFounding
	DomainVisibility
)

// Simulates reports whether this side derives changes in domain d.
// Visibility is always computed locally.
func (a Authority) Simulates(d Domain) bool {
	if a == LocalAuthoritative {
		return true
	}
	return d == DomainVisibility
}

// ParseAuthority maps a config string to an Authority.
func ParseAuthority(s string) (Authority, bool) {
	switch s {
	case "", "local":
		return LocalAuthoritative, true
	case "remote":
		return RemoteAuthoritative, true
	default:
		return LocalAuthoritative, false
	}
}
