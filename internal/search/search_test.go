package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		term  *string
		id    string
		label string
		want  bool
	}{
		{"nil term", nil, "a", "b", true},
		{"blank term", Term("   "), "a", "b", true},
		{"id match", Term("CAMERA"), "android.permission.camera", "", true},
		{"label match", Term("photo"), "x", "Take Photos", true},
		{"unicode fold", Term("STRASSE"), "x", "straße", true},
		{"no match", Term("zzz"), "abc", "def", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.term, tt.id, tt.label))
		})
	}
}

func TestFilter(t *testing.T) {
	type item struct{ id, label string }
	items := []item{{"com.a", "Alpha"}, {"com.b", "Beta"}, {"org.c", "Gamma"}}
	id := func(i item) string { return i.id }
	label := func(i item) string { return i.label }

	assert.Equal(t, items, Filter(items, nil, id, label))
	assert.Equal(t, []item{{"com.a", "Alpha"}, {"com.b", "Beta"}}, Filter(items, Term("com"), id, label))
	assert.Equal(t, []item{{"org.c", "Gamma"}}, Filter(items, Term("gAm"), id, label))
	assert.Empty(t, Filter(items, Term("delta"), id, label))
}

func TestTerm(t *testing.T) {
	assert.Nil(t, Term(""))
	if got := Term("x"); assert.NotNil(t, got) {
		assert.Equal(t, "x", *got)
	}
}
