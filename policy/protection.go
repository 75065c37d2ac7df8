// Package policy implements the edit-protection policy as pure functions
// over an entity's tag set. Protection survives in storage as a
// "protected:<level>" tag among freeform tags; the explicit Level type is
// the contract everything else programs against, and tag reading is the
// compatibility shim for that legacy encoding.
package policy

import (
	"sort"
	"strings"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

// Level is an edit-protection tier.
type Level int

const (
	LevelNone Level = iota
	LevelEditor
	LevelAdmin
)

const tagPrefix = "protected:"

func ParseLevel(s string) (Level, bool) {
	switch s {
	case "none":
		return LevelNone, true
	case "editor":
		return LevelEditor, true
	case "admin":
		return LevelAdmin, true
	default:
		return LevelNone, false
	}
}

func (l Level) String() string {
	switch l {
	case LevelEditor:
		return "editor"
	case LevelAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Tag returns the tag encoding of l, or "" for LevelNone.
func (l Level) Tag() string {
	if l == LevelNone {
		return ""
	}
	return tagPrefix + l.String()
}

// RequiredRole maps a protection level to the minimum workspace role needed
// to mutate the protected entity or its base article.
func (l Level) RequiredRole() domain.Role {
	if l == LevelAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleEditor
}

// FromTags computes the protection level of a tag set. At most one
// protection tag should be present; when several are, the highest level wins
// so the outcome never depends on tag order. Unknown suffixes are ignored.
func FromTags(tags []string) Level {
	level := LevelNone
	for _, tag := range tags {
		suffix, ok := strings.CutPrefix(tag, tagPrefix)
		if !ok {
			continue
		}
		parsed, ok := ParseLevel(suffix)
		if !ok {
			continue
		}
		if parsed > level {
			level = parsed
		}
	}
	return level
}

// Apply returns a new tag set with every protection tag replaced by the
// single tag for level, or removed entirely for LevelNone. Non-protection
// tags are preserved; output is sorted because tags are a set, not a
// sequence.
func Apply(tags []string, level Level) []string {
	out := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if strings.HasPrefix(tag, tagPrefix) {
			continue
		}
		out = append(out, tag)
	}
	if t := level.Tag(); t != "" {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ChangeClearance is the role needed to move protection between two levels:
// the stricter of the current and requested tiers, so an editor can never
// lower admin protection.
func ChangeClearance(current, requested Level) domain.Role {
	if requested > current {
		return requested.RequiredRole()
	}
	return current.RequiredRole()
}
