package format

import (
	"fmt"
	"strings"
)

// Describe renders a one-line header summary for a classified buffer.
func Describe(buf []byte) string {
	kind := Classify(buf)
	switch kind {
	case DOL:
		h, _ := ParseDOL(buf)
		loaded := 0
		for _, s := range h.Segments() {
			if s.Size != 0 {
				loaded++
			}
		}
		return fmt.Sprintf("dol entry=0x%08x segments=%d bss=0x%08x+0x%x", h.EntryPoint, loaded, h.BSSAddress, h.BSSSize)
	case GCI:
		h, _ := ParseGCI(buf)
		name := strings.TrimRight(string(h.Filename[:]), "\x00")
		return fmt.Sprintf("gci game=%s company=%s file=%q blocks=%d", h.GameCode[:], h.Company[:], name, h.Length)
	case TPL:
		h, _ := ParseTPL(buf)
		return fmt.Sprintf("tpl images=%d", h.Count)
	default:
		return fmt.Sprintf("none size=%d", len(buf))
	}
}
