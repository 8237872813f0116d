package hypermedia

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseDoc = `{
  "class": ["course"],
  "properties": {"name": "Biology 101", "credits": 4},
  "entities": [
    {"class": ["instructor"], "rel": ["https://api.example.com/rels/instructor"], "href": "/people/7"},
    {"class": ["module", "published"], "rel": ["item"], "properties": {"title": "Cells"}},
    {"class": ["module"], "rel": ["item"], "properties": {"title": "Genetics"}}
  ],
  "links": [
    {"rel": ["self"], "href": "/courses/1"},
    {"rel": ["next", "related"], "class": ["pager"], "href": "/courses/2"}
  ],
  "actions": [
    {"name": "rename", "method": "PATCH", "href": "/courses/1", "type": "application/json",
     "fields": [{"name": "name", "type": "text", "value": "Biology 101"}]},
    {"name": "search", "href": "/courses", "fields": [{"name": "q"}]}
  ]
}`

func mustParse(t *testing.T) *Entity {
	t.Helper()
	e, err := Parse([]byte(courseDoc))
	require.NoError(t, err)
	return e
}

func TestParse_Sources(t *testing.T) {
	var generic any
	require.NoError(t, json.Unmarshal([]byte(courseDoc), &generic))

	sources := map[string]any{
		"bytes":   []byte(courseDoc),
		"raw":     json.RawMessage(courseDoc),
		"string":  courseDoc,
		"generic": generic,
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			e, err := Parse(src)
			require.NoError(t, err)
			assert.True(t, e.HasClass("course"))
			assert.Equal(t, "/courses/1", e.SelfHref())
			assert.Len(t, e.Entities, 3)
		})
	}
}

func TestParse_EntityPassthrough(t *testing.T) {
	e := &Entity{Class: []string{"x"}}
	got, err := Parse(e)
	require.NoError(t, err)
	assert.Same(t, e, got)

	got, err = Parse(Entity{Class: []string{"y"}})
	require.NoError(t, err)
	assert.True(t, got.HasClass("y"))
}

func TestParse_TypedEntityGetsActionDefaults(t *testing.T) {
	e := &Entity{
		Class: []string{"course"},
		Actions: []*Action{
			{Name: "enroll", Href: "/courses/1/enroll"},
			{Name: "drop", Method: "DELETE", Href: "/courses/1", Type: "application/json"},
		},
		Entities: []*Entity{{
			Rel:     []string{"item"},
			Actions: []*Action{{Name: "rate", Method: "PUT", Href: "/courses/1/rating"}},
		}},
	}

	got, err := Parse(e)
	require.NoError(t, err)
	assert.NotSame(t, e, got)
	assert.Equal(t, DefaultActionMethod, got.ActionByName("enroll").Method)
	assert.Equal(t, DefaultActionType, got.ActionByName("enroll").Type)
	assert.Equal(t, "DELETE", got.ActionByName("drop").Method)
	assert.Equal(t, "application/json", got.ActionByName("drop").Type)
	assert.Equal(t, DefaultActionType, got.Entities[0].ActionByName("rate").Type)

	// The caller's value is left as it was.
	assert.Empty(t, e.Actions[0].Method)

	byValue, err := Parse(*e)
	require.NoError(t, err)
	assert.Equal(t, DefaultActionMethod, byValue.ActionByName("enroll").Method)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Parse([]byte("  "))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Parse("null")
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Parse([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Parse([]byte(`{"class": 3}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Parse(make(chan int))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestParse_ActionDefaults(t *testing.T) {
	e := mustParse(t)

	search := e.ActionByName("search")
	require.NotNil(t, search)
	assert.Equal(t, DefaultActionMethod, search.Method)
	assert.Equal(t, DefaultActionType, search.Type)

	rename := e.ActionByName("rename")
	require.NotNil(t, rename)
	assert.Equal(t, "PATCH", rename.Method)
	assert.Equal(t, "application/json", rename.Type)
}

func TestEntity_SubEntities(t *testing.T) {
	e := mustParse(t)

	instructor := e.SubEntityByRel("https://api.example.com/rels/instructor")
	require.NotNil(t, instructor)
	assert.True(t, instructor.IsLink())
	assert.Equal(t, "/people/7", instructor.Href)

	items := e.SubEntitiesByRel("item")
	require.Len(t, items, 2)
	title, ok := items[1].Property("title")
	assert.True(t, ok)
	assert.Equal(t, "Genetics", title)
	assert.False(t, items[0].IsLink())

	assert.Len(t, e.SubEntitiesByClass("module"), 2)
	published := e.SubEntityByClass("published")
	require.NotNil(t, published)
	assert.Same(t, items[0], published)

	assert.Nil(t, e.SubEntityByRel("missing"))
	assert.Empty(t, e.SubEntitiesByClass("missing"))
}

func TestEntity_Links(t *testing.T) {
	e := mustParse(t)

	next := e.LinkByRel("related")
	require.NotNil(t, next)
	assert.Equal(t, "/courses/2", next.Href)
	assert.True(t, next.HasClass("pager"))
	assert.Same(t, next, e.LinkByClass("pager"))
	assert.Len(t, e.LinksByClass("pager"), 1)
	assert.Len(t, e.LinksByRel("self"), 1)
	assert.Nil(t, e.LinkByRel("prev"))
}

func TestEntity_Actions(t *testing.T) {
	e := mustParse(t)

	assert.True(t, e.HasAction("rename"))
	assert.False(t, e.HasAction("delete"))

	rename := e.ActionByName("rename")
	f := rename.FieldByName("name")
	require.NotNil(t, f)
	assert.Equal(t, "Biology 101", f.Value)
	assert.True(t, rename.HasField("name"))
	assert.False(t, rename.HasField("missing"))

	q := e.ActionByName("search").FieldByName("q")
	require.NotNil(t, q)
	assert.Nil(t, q.Value)
}

func TestEntity_Properties(t *testing.T) {
	e := mustParse(t)

	credits, ok := e.Property("credits")
	assert.True(t, ok)
	assert.Equal(t, float64(4), credits)

	_, ok = e.Property("missing")
	assert.False(t, ok)
}

func TestNilSafety(t *testing.T) {
	var e *Entity
	var a *Action
	var l *Link

	assert.False(t, e.HasClass("x"))
	assert.False(t, e.IsLink())
	assert.Nil(t, e.SubEntityByRel("x"))
	assert.Nil(t, e.SubEntitiesByRel("x"))
	assert.Nil(t, e.SubEntityByClass("x"))
	assert.Nil(t, e.LinkByRel("x"))
	assert.Nil(t, e.LinksByClass("x"))
	assert.Nil(t, e.ActionByName("x"))
	assert.False(t, e.HasAction("x"))
	assert.Empty(t, e.SelfHref())
	_, ok := e.Property("x")
	assert.False(t, ok)

	assert.Nil(t, a.FieldByName("x"))
	assert.False(t, a.HasClass("x"))
	assert.False(t, l.HasClass("x"))

	// chained navigation through a missing branch
	assert.Nil(t, e.SubEntityByRel("a").SubEntityByRel("b").ActionByName("c").FieldByName("d"))
}
