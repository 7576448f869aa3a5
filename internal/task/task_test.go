package task

import (
	"testing"

	"github.com/danmuck/geckoload/internal/format"
)

func TestDropResetsKind(t *testing.T) {
	tk := New()
	tk.Replace(format.DOL, []byte{1, 2, 3})
	tk.Args = []byte("a")
	if tk.Len() != 3 || tk.WriteCursor != 3 {
		t.Fatalf("replace: len=%d cursor=%d", tk.Len(), tk.WriteCursor)
	}

	tk.DropPayload()
	if tk.Kind != format.None || tk.Payload != nil || tk.WriteCursor != 0 {
		t.Fatalf("drop payload left state behind: %+v", tk)
	}
	if string(tk.Args) != "a" {
		t.Fatalf("drop payload must not touch args")
	}

	tk.Kind = format.GCI
	tk.DropArgs()
	if tk.Kind != format.None || tk.Args != nil {
		t.Fatalf("drop args left state behind: %+v", tk)
	}
}
