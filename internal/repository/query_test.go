package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ListQuery_Normalize(t *testing.T) {
	q := ListQuery{Search: "  go  ", Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, "go", q.Search)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)

	q = ListQuery{Page: 3}.Normalize()
	assert.Equal(t, DefaultPageSize, q.PageSize)
	assert.Equal(t, 40, q.Offset())
}

func Test_Where_Keyword_ShouldOrColumnsAndLowercaseTerm(t *testing.T) {
	var w where
	w.add("j.is_active = 1")
	w.keyword("GoLang", "j.title", "j.description")

	assert.Equal(t, "j.is_active = 1 AND (LOWER(j.title) LIKE ? OR LOWER(j.description) LIKE ?)", w.sql())
	assert.Equal(t, []any{"%golang%", "%golang%"}, w.args)
}

func Test_Where_WhenEmpty_ShouldMatchAll(t *testing.T) {
	var w where
	w.keyword("", "name")
	assert.Equal(t, "1=1", w.sql())
	assert.Empty(t, w.args)
}

func Test_Placeholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func Test_Where_KeywordOr_ShouldAppendFlagTest(t *testing.T) {
	var w where
	w.keywordOr("Remote", flagMatch("l.is_remote", "Remote"), "l.country", "l.city")
	assert.Equal(t, "(LOWER(l.country) LIKE ? OR LOWER(l.city) LIKE ? OR l.is_remote = 1)", w.sql())
	assert.Equal(t, []any{"%remote%", "%remote%"}, w.args)

	var plain where
	plain.keywordOr("nairobi", flagMatch("l.is_remote", "nairobi"), "l.city")
	assert.Equal(t, "(LOWER(l.city) LIKE ?)", plain.sql())
}

func Test_FlagMatch(t *testing.T) {
	assert.Equal(t, "l.is_remote = 1", flagMatch("l.is_remote", " TRUE "))
	assert.Equal(t, "l.is_remote = 0", flagMatch("l.is_remote", "onsite"))
	assert.Equal(t, "", flagMatch("l.is_remote", "kisumu"))
}
