package overlay

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/markshot/internal/tool"
)

// KeyShortcut represents a single keyboard shortcut.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

func (k KeyShortcut) String() string {
	var parts []string
	if k.Modifiers&key.ModControl != 0 {
		parts = append(parts, "Ctrl")
	}
	if k.Modifiers&key.ModShift != 0 {
		parts = append(parts, "Shift")
	}
	switch {
	case k.Code == key.CodeReturnEnter:
		parts = append(parts, "Enter")
	case k.Code == key.CodeEscape:
		parts = append(parts, "Esc")
	case k.Rune > 0:
		parts = append(parts, strings.ToUpper(string(k.Rune)))
	default:
		parts = append(parts, fmt.Sprintf("key(%d)", k.Code))
	}
	return strings.Join(parts, "+")
}

// Binding ties shortcuts to a named editor action.
type Binding struct {
	Action string
	Keys   []KeyShortcut
	Help   string
}

var toolKeys = map[tool.Tool]rune{
	tool.ToolRectangle: 'x',
	tool.ToolEllipse:   'o',
	tool.ToolArrow:     'a',
	tool.ToolLine:      'l',
	tool.ToolPencil:    'b',
	tool.ToolText:      't',
	tool.ToolBlur:      'u',
	tool.ToolPixelate:  'p',
	tool.ToolHighlight: 'h',
	tool.ToolCrop:      'r',
}

// Bindings lists every editor shortcut in display order.
func Bindings() []Binding {
	var out []Binding
	for _, t := range tool.Tools() {
		out = append(out, Binding{Action: "tool:" + t.String(), Keys: []KeyShortcut{{Rune: toolKeys[t]}}, Help: t.String()})
	}
	return append(out,
		Binding{Action: "fill", Keys: []KeyShortcut{{Rune: 'f'}}, Help: "toggle fill"},
		Binding{Action: "color", Keys: []KeyShortcut{{Rune: 'c'}}, Help: "next colour"},
		Binding{Action: "width", Keys: []KeyShortcut{{Rune: 'w'}}, Help: "next width"},
		Binding{Action: "textsize", Keys: []KeyShortcut{{Rune: 's'}}, Help: "next text size"},
		Binding{Action: "pick", Keys: []KeyShortcut{{Rune: 'i'}}, Help: "pick colour"},
		Binding{Action: "undo", Keys: []KeyShortcut{{Rune: 'z', Modifiers: key.ModControl}}, Help: "undo"},
		Binding{Action: "redo", Keys: []KeyShortcut{
			{Rune: 'y', Modifiers: key.ModControl},
			{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
		}, Help: "redo"},
		Binding{Action: "finish", Keys: []KeyShortcut{{Code: key.CodeReturnEnter}}, Help: "finish"},
		Binding{Action: "save", Keys: []KeyShortcut{{Rune: 's', Modifiers: key.ModControl}}, Help: "save"},
		Binding{Action: "copy", Keys: []KeyShortcut{{Rune: 'c', Modifiers: key.ModControl}}, Help: "copy"},
		Binding{Action: "escape", Keys: []KeyShortcut{{Code: key.CodeEscape}}, Help: "cancel"},
		Binding{Action: "quit", Keys: []KeyShortcut{{Rune: 'q'}}, Help: "quit"},
	)
}

func keyboardActions() map[KeyShortcut]string {
	m := map[KeyShortcut]string{}
	for _, b := range Bindings() {
		for _, k := range b.Keys {
			m[k] = b.Action
		}
	}
	return m
}

// lookup matches e against the table. Shift is ignored for plain letters so
// caps lock does not disable the tool keys.
func lookup(table map[KeyShortcut]string, e key.Event) (string, bool) {
	ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers & (key.ModControl | key.ModShift)}
	if e.Code == key.CodeReturnEnter || e.Code == key.CodeEscape {
		ks = KeyShortcut{Code: e.Code, Modifiers: ks.Modifiers}
	}
	if ks.Rune <= 0 && ks.Code == 0 {
		return "", false
	}
	if action, ok := table[ks]; ok {
		return action, true
	}
	if ks.Modifiers&key.ModShift != 0 {
		ks.Modifiers &^= key.ModShift
		action, ok := table[ks]
		return action, ok
	}
	return "", false
}

// HelpText renders the bindings one per line, for the CLI.
func HelpText() string {
	var sb strings.Builder
	for _, b := range Bindings() {
		keys := make([]string, len(b.Keys))
		for i, k := range b.Keys {
			keys[i] = k.String()
		}
		fmt.Fprintf(&sb, "  %-16s %s\n", strings.Join(keys, ", "), b.Help)
	}
	return sb.String()
}
