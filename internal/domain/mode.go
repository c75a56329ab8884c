package domain

// Mode partitions records, settings, rankings and caches into two independent universes.
// Only user profiles are shared between modes.
type Mode string

const (
	ModePrototype Mode = "prototype"
	ModeAlternate Mode = "alternate"
)

// Modes lists both namespaces.
var Modes = []Mode{ModePrototype, ModeAlternate}

// Base names of the mode-scoped collections.
const (
	PostsCollection    = "posts"
	SettingsCollection = "settings"
	UsersCollection    = "users"
)

const alternateSuffix = "_alt"

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePrototype || m == ModeAlternate
}

// ParseMode converts raw input into a known Mode.
func ParseMode(raw string) (Mode, bool) {
	m := Mode(raw)
	if !m.Valid() {
		return "", false
	}
	return m, true
}

// Collection resolves a base collection name in this mode's namespace.
func (m Mode) Collection(base string) string {
	return Resolve(base, m)
}

// Resolve maps (base, mode) to the physical collection name.
func Resolve(base string, m Mode) string {
	if m == ModeAlternate {
		return base + alternateSuffix
	}
	return base
}
