package trace

import (
	"fmt"
	"strings"
)

// Scope is the granularity of an event; coarser scopes are smaller.
type Scope uint8

const (
	// ScopeBuild covers a whole command (build, emit).
	ScopeBuild Scope = iota + 1
	// ScopeUnit covers one compilation unit.
	ScopeUnit
	// ScopeFunc covers one function of a unit.
	ScopeFunc
)

func (s Scope) String() string {
	switch s {
	case ScopeBuild:
		return "build"
	case ScopeUnit:
		return "unit"
	case ScopeFunc:
		return "func"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// Level is the finest scope a tracer records.
type Level uint8

const (
	LevelOff   Level = 0
	LevelBuild       = Level(ScopeBuild)
	LevelUnit        = Level(ScopeUnit)
	LevelFunc        = Level(ScopeFunc)
)

var levelNames = []string{"off", "build", "unit", "func"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLevel accepts the names printed by Level.String.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil //nolint:gosec // index of a four element table
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected %s)", s, strings.Join(levelNames, "|"))
}

// Allows reports whether events of scope are recorded at level l.
func (l Level) Allows(scope Scope) bool {
	return l != LevelOff && Scope(l) >= scope
}

// Enabled reports whether t records events of scope.
func Enabled(t Tracer, scope Scope) bool {
	return t != nil && t.Level().Allows(scope)
}
