package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GrEarl/Depictionator-sub001/internal/domain"
)

func TestFromTags(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want Level
	}{
		{"no tags", nil, LevelNone},
		{"unrelated tags", []string{"location", "template:region"}, LevelNone},
		{"editor", []string{"protected:editor"}, LevelEditor},
		{"admin", []string{"character", "protected:admin"}, LevelAdmin},
		{"multiple picks highest", []string{"protected:editor", "protected:admin"}, LevelAdmin},
		{"multiple picks highest regardless of order", []string{"protected:admin", "protected:editor"}, LevelAdmin},
		{"unknown suffix ignored", []string{"protected:sysop"}, LevelNone},
		{"explicit none", []string{"protected:none"}, LevelNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromTags(tc.tags))
		})
	}
}

func TestApply(t *testing.T) {
	tags := []string{"location", "protected:editor", "template:region"}

	got := Apply(tags, LevelAdmin)
	assert.Equal(t, []string{"location", "protected:admin", "template:region"}, got)
	assert.Equal(t, LevelAdmin, FromTags(got))

	got = Apply(got, LevelNone)
	assert.Equal(t, []string{"location", "template:region"}, got)
	assert.Equal(t, LevelNone, FromTags(got))
}

func TestApplyCollapsesDuplicates(t *testing.T) {
	tags := []string{"protected:editor", "protected:admin", "lore"}
	got := Apply(tags, LevelEditor)
	assert.Equal(t, []string{"lore", "protected:editor"}, got)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tags := []string{"b", "a", "protected:admin"}
	_ = Apply(tags, LevelNone)
	assert.Equal(t, []string{"b", "a", "protected:admin"}, tags)
}

func TestRequiredRole(t *testing.T) {
	assert.Equal(t, domain.RoleEditor, LevelNone.RequiredRole())
	assert.Equal(t, domain.RoleEditor, LevelEditor.RequiredRole())
	assert.Equal(t, domain.RoleAdmin, LevelAdmin.RequiredRole())
}

func TestChangeClearance(t *testing.T) {
	// Lowering admin protection still takes an admin.
	assert.Equal(t, domain.RoleAdmin, ChangeClearance(LevelAdmin, LevelNone))
	// Raising to admin takes an admin.
	assert.Equal(t, domain.RoleAdmin, ChangeClearance(LevelNone, LevelAdmin))
	// Editor-tier moves take an editor.
	assert.Equal(t, domain.RoleEditor, ChangeClearance(LevelNone, LevelEditor))
	assert.Equal(t, domain.RoleEditor, ChangeClearance(LevelEditor, LevelNone))
}
