package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // only crash dumps
	LevelPhase        // operation + stage boundaries
	LevelDetail       // per-document work items
	LevelDebug        // everything including individual changes
)

// levels maps each level to its flag name and the finest scope it streams.
var levels = [...]struct {
	name     string
	maxScope Scope
}{
	LevelOff:    {"off", 0},
	LevelError:  {"error", 0}, // пишет только через дамп кольца
	LevelPhase:  {"phase", ScopeStage},
	LevelDetail: {"detail", ScopeDocument},
	LevelDebug:  {"debug", ScopeChange},
}

func (l Level) String() string {
	if int(l) < len(levels) {
		return levels[l].name
	}
	return "unknown"
}

// ParseLevel parses the --trace-level flag, case-insensitively.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	for l := range levels {
		if levels[l].name == s {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are streamed at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(levels) && scope <= levels[l].maxScope
}

// records reports whether spans of scope are created at all. LevelError
// creates every span so that the ring tracer can dump them.
func (l Level) records(scope Scope) bool {
	return l == LevelError || l.ShouldEmit(scope)
}
