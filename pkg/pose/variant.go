package pose

// SkinVariant identifies the avatar's arm geometry. It is detected by an
// external skin-type detector and passed through to animations untouched;
// nothing in this module interprets it beyond amplitude tuning.
type SkinVariant int

const (
	// VariantClassic is the default 4px-arm model.
	VariantClassic SkinVariant = iota

	// VariantSlim is the 3px-arm model.
	VariantSlim
)

// String returns the variant name used on the wire and in the API.
func (v SkinVariant) String() string {
	switch v {
	case VariantClassic:
		return "classic"
	case VariantSlim:
		return "slim"
	default:
		return "unknown"
	}
}

// ParseVariant maps a variant name back to its SkinVariant.
// The second return value is false for unrecognized names.
func ParseVariant(s string) (SkinVariant, bool) {
	switch s {
	case "classic", "":
		return VariantClassic, true
	case "slim":
		return VariantSlim, true
	default:
		return VariantClassic, false
	}
}
