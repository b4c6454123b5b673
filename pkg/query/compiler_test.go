package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/model"
)

var sbomSchema = Schema{
	Columns: map[string]Column{
		"name":         {DB: "s.name", Type: ColText},
		"published":    {DB: "s.published", Type: ColTimestamp},
		"id":           {DB: "s.id", Type: ColUUID},
		"relationship": {DB: "e.relationship", Type: ColEnum, ParseEnum: parseRelationshipEnum},
	},
	FullText: []string{"s.name", "s.document_id"},
}

func parseRelationshipEnum(s string) (any, bool) {
	r, ok := model.ParseRelationship(s)
	if !ok {
		return nil, false
	}
	return r, true
}

var fixedNow = time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

func TestCompile_EmptyQueryProducesNoClause(t *testing.T) {
	q, err := Parse("")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestCompile_EqualityBindsOneArg(t *testing.T) {
	q, err := Parse("name=quarkus-core")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name = $1)", where)
	assert.Equal(t, []any{"quarkus-core"}, args)
}

func TestCompile_PipeListOrsEquality(t *testing.T) {
	q, err := Parse("name=foo|bar")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name = $1 OR s.name = $2)", where)
	assert.Equal(t, []any{"foo", "bar"}, args)
}

func TestCompile_NegatedListAndsTogether(t *testing.T) {
	q, err := Parse("name!=foo|bar")
	require.NoError(t, err)
	where, _, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name != $1 AND s.name != $2)", where)
}

func TestCompile_NullEquality(t *testing.T) {
	q, err := Parse("name=null")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "s.name IS NULL", where)
	assert.Empty(t, args)
}

func TestCompile_NullInequality(t *testing.T) {
	q, err := Parse("name!=null")
	require.NoError(t, err)
	where, _, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "s.name IS NOT NULL", where)
}

func TestCompile_LikeEscapesMetacharacters(t *testing.T) {
	q, err := Parse(`name~100%_done`)
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name ILIKE $1)", where)
	assert.Equal(t, []any{`%100\%\_done%`}, args)
}

func TestCompile_TimestampAcceptsRFC3339(t *testing.T) {
	q, err := Parse("published>=2025-02-24T00:00:00Z")
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC), args[0])
}

func TestCompile_TimestampAcceptsDateOnly(t *testing.T) {
	q, err := Parse("published>=2025-02-24")
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, 2025, args[0].(time.Time).Year())
}

func TestCompile_TimestampAcceptsRelativePhrase(t *testing.T) {
	q, err := Parse("published>=yesterday")
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, fixedNow.AddDate(0, 0, -1), args[0])
}

func TestCompile_TimestampAcceptsDaysAgo(t *testing.T) {
	q, err := Parse("published>=3 days ago")
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, fixedNow.AddDate(0, 0, -3), args[0])
}

func TestCompile_UUIDColumn(t *testing.T) {
	id := uuid.New()
	q, err := Parse("id=" + id.String())
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{id}, args)
}

func TestCompile_EnumColumnBindsUnderlyingValue(t *testing.T) {
	q, err := Parse("relationship=ContainedBy")
	require.NoError(t, err)
	_, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{model.ContainedBy}, args)
}

func TestCompile_UnrecognizedEnumValueIsSearchError(t *testing.T) {
	q, err := Parse("relationship=NotARelationship")
	require.NoError(t, err)
	_, _, err = Compile(q, sbomSchema, fixedNow, 0)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Search))
}

func TestCompile_UnknownFieldIsSearchError(t *testing.T) {
	q, err := Parse("bogus=1")
	require.NoError(t, err)
	_, _, err = Compile(q, sbomSchema, fixedNow, 0)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Search))
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "bogus", e.Token)
}

func TestCompile_FullTextSearchesEveryDeclaredColumn(t *testing.T) {
	q, err := Parse("quarkus")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name ILIKE $1 OR s.document_id ILIKE $2)", where)
	assert.Equal(t, []any{"%quarkus%", "%quarkus%"}, args)
}

func TestCompile_MultipleGroupsAreAnded(t *testing.T) {
	q, err := Parse("name=foo&relationship=ContainedBy")
	require.NoError(t, err)
	where, args, err := Compile(q, sbomSchema, fixedNow, 0)
	require.NoError(t, err)
	assert.Equal(t, "(s.name = $1) AND (e.relationship = $2)", where)
	assert.Equal(t, []any{"foo", model.ContainedBy}, args)
}

func TestCompile_ArgOffsetShiftsPlaceholders(t *testing.T) {
	q, err := Parse("name=foo")
	require.NoError(t, err)
	where, _, err := Compile(q, sbomSchema, fixedNow, 2)
	require.NoError(t, err)
	assert.Equal(t, "(s.name = $3)", where)
}
