package instance

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ID is the opaque unique identifier of an Instance.
type ID struct {
	value string
}

func NewID() ID {
	return ID{value: uuid.New().String()}
}

func IDFromString(s string) (ID, error) {
	if s == "" {
		return ID{}, ErrInvalidInstanceID
	}
	if _, err := uuid.Parse(s); err != nil {
		return ID{}, ErrInvalidInstanceID
	}
	return ID{value: s}, nil
}

func (id ID) String() string { return id.value }
func (id ID) IsEmpty() bool  { return id.value == "" }
func (id ID) Equals(other ID) bool { return id.value == other.value }

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// Phone is the tenant key: a WhatsApp-addressable phone number normalised to
// digits only (I1 — unique across Instances).
type Phone struct {
	value string
}

// NewPhone normalises raw input to digits only and validates length.
func NewPhone(raw string) (Phone, error) {
	normalised := digitsOnly.ReplaceAllString(raw, "")
	if len(normalised) < 8 || len(normalised) > 15 {
		return Phone{}, ErrInvalidPhone
	}
	return Phone{value: normalised}, nil
}

func (p Phone) String() string { return p.value }
func (p Phone) IsEmpty() bool  { return p.value == "" }
func (p Phone) Equals(other Phone) bool { return p.value == other.value }

// Status is the instance's position in the connection state machine.
type Status int

const (
	StatusPending Status = iota
	StatusConnecting
	StatusQRReady
	StatusActive
	StatusReconnecting
	StatusInactive
	StatusError
	StatusLoggedOut
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConnecting:
		return "connecting"
	case StatusQRReady:
		return "qr_ready"
	case StatusActive:
		return "active"
	case StatusReconnecting:
		return "reconnecting"
	case StatusInactive:
		return "inactive"
	case StatusError:
		return "error"
	case StatusLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

func (s Status) IsValid() bool {
	return s >= StatusPending && s <= StatusLoggedOut
}

func StatusFromString(s string) (Status, error) {
	switch strings.ToLower(s) {
	case "pending":
		return StatusPending, nil
	case "connecting":
		return StatusConnecting, nil
	case "qr_ready":
		return StatusQRReady, nil
	case "active":
		return StatusActive, nil
	case "reconnecting":
		return StatusReconnecting, nil
	case "inactive":
		return StatusInactive, nil
	case "error":
		return StatusError, nil
	case "logged_out":
		return StatusLoggedOut, nil
	default:
		return StatusPending, fmt.Errorf("invalid instance status: %s", s)
	}
}

// Name is the instance's human display name.
type Name struct {
	value string
}

func NewName(name string) (Name, error) {
	if len(name) < 1 || len(name) > 80 {
		return Name{}, ErrInvalidName
	}
	return Name{value: name}, nil
}

func (n Name) String() string { return n.value }
func (n Name) IsEmpty() bool  { return n.value == "" }

// PluginOverrides is the per-instance plugin-name -> enabled map. Absent
// entries default to disabled (4.3 — new instances start with every plugin
// disabled regardless of the plugin's own default-enabled flag).
type PluginOverrides map[string]bool

func (o PluginOverrides) Enabled(name string) bool {
	if o == nil {
		return false
	}
	return o[name]
}

// Clone returns a defensive copy so callers cannot mutate an Instance's
// override map without going through its exported setters.
func (o PluginOverrides) Clone() PluginOverrides {
	clone := make(PluginOverrides, len(o))
	for k, v := range o {
		clone[k] = v
	}
	return clone
}

var supportedProxySchemes = []string{"http", "https", "socks4", "socks5"}

// ValidateProxyURL validates the optional per-instance outbound proxy URL.
func ValidateProxyURL(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return ErrInvalidProxyURL
	}
	supported := false
	for _, scheme := range supportedProxySchemes {
		if parsed.Scheme == scheme {
			supported = true
			break
		}
	}
	if !supported {
		return ErrUnsupportedProxyScheme
	}
	if parsed.Hostname() == "" {
		return ErrInvalidProxyHost
	}
	return nil
}
