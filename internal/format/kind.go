package format

// Kind is the closed set of payload classifications.
type Kind uint8

const (
	None Kind = iota
	DOL
	TPL
	GCI
)

func (k Kind) String() string {
	switch k {
	case DOL:
		return "dol"
	case TPL:
		return "tpl"
	case GCI:
		return "gci"
	default:
		return "none"
	}
}

// Bootable reports whether the dispatcher can hand this kind to a boot target.
func (k Kind) Bootable() bool {
	return k == DOL
}

// Classify returns the first format whose structural checks buf passes.
func Classify(buf []byte) Kind {
	switch {
	case IsTPL(buf):
		return TPL
	case IsGCI(buf):
		return GCI
	case IsDOL(buf):
		return DOL
	default:
		return None
	}
}
