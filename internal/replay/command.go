package replay

import (
	"iter"
	"regexp"
	"strings"

	"github.com/nao1215/replaysheet/internal/model"
)

// CommandSeparator separates commands in an action log.
const CommandSeparator = ";"

// styleMarker is the leading letter of a style-group command.
const styleMarker = 'g'

// placementPattern matches "q[index,x,y]" at the start of a token.
// Anything after the closing bracket is ignored.
var placementPattern = regexp.MustCompile(`^q\[(\d+),([\d.]+),([\d.]+)]`)

// CommandKind classifies an action log token.
type CommandKind int

const (
	// CommandOther is any token that is neither a style group nor a
	// placement. The log contains many such operations (formatting, lines)
	// and they are skipped silently.
	CommandOther CommandKind = iota

	// CommandStyle switches the active style group.
	CommandStyle

	// CommandPlacement draws one text-pool entry at a canvas position.
	CommandPlacement
)

// String returns the kind name.
func (k CommandKind) String() string {
	switch k {
	case CommandStyle:
		return "style"
	case CommandPlacement:
		return "placement"
	default:
		return "other"
	}
}

// Placement holds the raw fields of a placement command.
// Numeric conversion is left to the fragment extractor, which owns the
// recoverable-drop policy for bad values.
type Placement struct {
	Index string
	X     string
	Y     string
}

// Command is one classified token of the action log.
type Command struct {
	// Kind is the token classification.
	Kind CommandKind

	// Position is the zero-based position of the token in the log.
	Position int

	// Raw is the token text.
	Raw string

	// Style is the style group active after this token was applied.
	// For a style command this is the new style.
	Style model.StyleTag

	// Placement is set only for CommandPlacement.
	Placement Placement
}

// ParsePlacement parses a placement token.
// The second return value is false if the token is not a placement command.
func ParsePlacement(token string) (Placement, bool) {
	m := placementPattern.FindStringSubmatch(token)
	if m == nil {
		return Placement{}, false
	}
	return Placement{Index: m[1], X: m[2], Y: m[3]}, true
}

// IsStyleCommand reports whether token is a style-group command.
func IsStyleCommand(token string) bool {
	return len(token) > 0 && token[0] == styleMarker
}

// scanState is the accumulator threaded through a single pass over the log.
type scanState struct {
	style    model.StyleTag
	position int
}

// step classifies one token and returns the updated state.
func (s scanState) step(token string) (scanState, Command) {
	cmd := Command{Position: s.position, Raw: token}
	next := scanState{style: s.style, position: s.position + 1}

	if IsStyleCommand(token) {
		next.style = model.NewStyleTag(token)
		cmd.Kind = CommandStyle
	} else if p, ok := ParsePlacement(token); ok {
		cmd.Kind = CommandPlacement
		cmd.Placement = p
	}

	cmd.Style = next.style
	return next, cmd
}

// Commands returns a lazy, single-pass sequence of classified commands in log
// order. Callers that need a second pass must call Commands again.
func Commands(actions string) iter.Seq[Command] {
	return func(yield func(Command) bool) {
		var state scanState
		for token := range strings.SplitSeq(actions, CommandSeparator) {
			var cmd Command
			state, cmd = state.step(token)
			if !yield(cmd) {
				return
			}
		}
	}
}

// Placements returns only the placement commands of the log, each carrying
// the style that was active when it appeared.
func Placements(actions string) iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for cmd := range Commands(actions) {
			if cmd.Kind != CommandPlacement {
				continue
			}
			if !yield(cmd) {
				return
			}
		}
	}
}
