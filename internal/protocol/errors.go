package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Block/step layer.
	ErrBadMove       = "E_BAD_MOVE"
	ErrBadHeight     = "E_BAD_HEIGHT"
	ErrBadHash       = "E_BAD_HASH"
	ErrVersionGate   = "E_VERSION_GATE"
	ErrDuplicateMove = "E_DUPLICATE_MOVE"

	// Subscription layer.
	ErrUnknownHeight = "E_UNKNOWN_HEIGHT"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadMove:         {},
	ErrBadHeight:       {},
	ErrBadHash:         {},
	ErrVersionGate:     {},
	ErrDuplicateMove:   {},
	ErrUnknownHeight:   {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
