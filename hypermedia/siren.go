package hypermedia

import "slices"

// MediaType is the Siren content type.
const MediaType = "application/vnd.siren+json"

// Default action attributes defined by the Siren format.
const (
	DefaultActionMethod = "GET"
	DefaultActionType   = "application/x-www-form-urlencoded"
)

// Navigator is the read side of a hypermedia document.
type Navigator interface {
	HasClass(class string) bool
	Property(name string) (any, bool)

	SubEntityByRel(rel string) *Entity
	SubEntitiesByRel(rel string) []*Entity
	SubEntityByClass(class string) *Entity
	SubEntitiesByClass(class string) []*Entity

	LinkByRel(rel string) *Link
	LinksByRel(rel string) []*Link
	LinkByClass(class string) *Link
	LinksByClass(class string) []*Link

	ActionByName(name string) *Action
	HasAction(name string) bool
}

// Entity is a Siren entity. A sub-entity is either an embedded link (Href
// set) or an embedded representation.
type Entity struct {
	Class      []string       `json:"class,omitempty"`
	Rel        []string       `json:"rel,omitempty"`
	Href       string         `json:"href,omitempty"`
	Type       string         `json:"type,omitempty"`
	Title      string         `json:"title,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Entities   []*Entity      `json:"entities,omitempty"`
	Links      []*Link        `json:"links,omitempty"`
	Actions    []*Action      `json:"actions,omitempty"`
}

// Link is a Siren navigational link.
type Link struct {
	Rel   []string `json:"rel"`
	Class []string `json:"class,omitempty"`
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
}

// Action is a Siren action: a described, executable operation.
type Action struct {
	Name   string   `json:"name"`
	Class  []string `json:"class,omitempty"`
	Method string   `json:"method,omitempty"`
	Href   string   `json:"href"`
	Title  string   `json:"title,omitempty"`
	Type   string   `json:"type,omitempty"`
	Fields []*Field `json:"fields,omitempty"`
}

// Field is an action input. A nil Value means the field has no value and
// is omitted when the action is performed.
type Field struct {
	Name  string   `json:"name"`
	Class []string `json:"class,omitempty"`
	Type  string   `json:"type,omitempty"`
	Value any      `json:"value,omitempty"`
	Title string   `json:"title,omitempty"`
}

var _ Navigator = (*Entity)(nil)

// IsLink reports whether e is an embedded link rather than a representation.
func (e *Entity) IsLink() bool {
	return e != nil && e.Href != ""
}

func (e *Entity) HasClass(class string) bool {
	return e != nil && slices.Contains(e.Class, class)
}

func (e *Entity) Property(name string) (any, bool) {
	if e == nil || e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[name]
	return v, ok
}

func (e *Entity) SubEntityByRel(rel string) *Entity {
	return first(e.SubEntitiesByRel(rel))
}

func (e *Entity) SubEntitiesByRel(rel string) []*Entity {
	if e == nil {
		return nil
	}
	return filter(e.Entities, func(s *Entity) bool { return slices.Contains(s.Rel, rel) })
}

func (e *Entity) SubEntityByClass(class string) *Entity {
	return first(e.SubEntitiesByClass(class))
}

func (e *Entity) SubEntitiesByClass(class string) []*Entity {
	if e == nil {
		return nil
	}
	return filter(e.Entities, func(s *Entity) bool { return slices.Contains(s.Class, class) })
}

func (e *Entity) LinkByRel(rel string) *Link {
	return first(e.LinksByRel(rel))
}

func (e *Entity) LinksByRel(rel string) []*Link {
	if e == nil {
		return nil
	}
	return filter(e.Links, func(l *Link) bool { return slices.Contains(l.Rel, rel) })
}

func (e *Entity) LinkByClass(class string) *Link {
	return first(e.LinksByClass(class))
}

func (e *Entity) LinksByClass(class string) []*Link {
	if e == nil {
		return nil
	}
	return filter(e.Links, func(l *Link) bool { return slices.Contains(l.Class, class) })
}

func (e *Entity) ActionByName(name string) *Action {
	if e == nil {
		return nil
	}
	for _, a := range e.Actions {
		if a != nil && a.Name == name {
			return a
		}
	}
	return nil
}

func (e *Entity) HasAction(name string) bool {
	return e.ActionByName(name) != nil
}

// SelfHref returns the href of the "self" link, or "".
func (e *Entity) SelfHref() string {
	if l := e.LinkByRel("self"); l != nil {
		return l.Href
	}
	return ""
}

// FieldByName returns the first field named name.
func (a *Action) FieldByName(name string) *Field {
	if a == nil {
		return nil
	}
	for _, f := range a.Fields {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}

// HasField reports whether the action declares a field named name.
func (a *Action) HasField(name string) bool {
	return a.FieldByName(name) != nil
}

// HasClass reports whether the action carries class.
func (a *Action) HasClass(class string) bool {
	return a != nil && slices.Contains(a.Class, class)
}

// HasClass reports whether the link carries class.
func (l *Link) HasClass(class string) bool {
	return l != nil && slices.Contains(l.Class, class)
}

func filter[T any](items []*T, keep func(*T) bool) []*T {
	var out []*T
	for _, it := range items {
		if it != nil && keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func first[T any](items []*T) *T {
	if len(items) == 0 {
		return nil
	}
	return items[0]
}
