package apimodel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEntityNotFound is returned when a full name is not declared in the model
var ErrEntityNotFound = errors.New("entity not found")

// ResolvedReference is the result of resolving a symbolic reference.
// Exactly one of Entity and ErrorMessage is set.
type ResolvedReference struct {
	Entity       *Entity
	ErrorMessage string
}

// Model is the set of declarations loaded from protobuf sources
type Model struct {
	packages map[string]*Entity
	byName   map[string]*Entity
	// aliases holds protobuf scoped names that differ from entity full names,
	// such as enum values which protobuf scopes next to their enum
	aliases map[string]*Entity
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{
		packages: make(map[string]*Entity),
		byName:   make(map[string]*Entity),
		aliases:  make(map[string]*Entity),
	}
}

// Package returns the package entity, creating it when missing
func (m *Model) Package(name string) *Entity {
	if p, ok := m.packages[name]; ok {
		return p
	}
	p := NewPackage(name)
	m.packages[name] = p
	return p
}

// Index registers every entity declared below the model's packages.
// It must be called after entities are added for lookups to see them.
func (m *Model) Index() {
	m.byName = make(map[string]*Entity)
	m.aliases = make(map[string]*Entity)
	for _, p := range m.packages {
		p.Walk(func(e *Entity) {
			// the unnamed package is indexed under ""
			m.byName[e.fullName] = e
			if e.kind == KindEnumValue && e.parent != nil && e.parent.parent != nil {
				scope := e.parent.parent.fullName
				alias := e.name
				if scope != "" {
					alias = scope + "." + e.name
				}
				m.aliases[alias] = e
			}
		})
	}
}

// Lookup finds an entity by its full name
func (m *Model) Lookup(fullName string) (*Entity, error) {
	fullName = strings.TrimPrefix(fullName, ".")
	if e, ok := m.byName[fullName]; ok {
		return e, nil
	}
	if e, ok := m.aliases[fullName]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, fullName)
}

// Packages returns all packages sorted by name
func (m *Model) Packages() []*Entity {
	out := make([]*Entity, 0, len(m.packages))
	for _, p := range m.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].fullName < out[j].fullName })
	return out
}

// Entities returns every entity sorted by full name
func (m *Model) Entities() []*Entity {
	out := make([]*Entity, 0, len(m.byName))
	for _, e := range m.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].fullName < out[j].fullName })
	return out
}

// ResolveReference resolves ref the way protobuf resolves type names. A
// leading "." makes the reference fully qualified. Otherwise the reference is
// looked up in the scope of from, then each enclosing scope out to the root,
// and the first match wins. A trailing "()" is ignored so method references
// may be written as calls.
func (m *Model) ResolveReference(ref string, from *Entity) ResolvedReference {
	name := strings.TrimSpace(ref)
	name = strings.TrimSuffix(name, "()")
	if name == "" || name == "." {
		return ResolvedReference{ErrorMessage: "empty reference"}
	}

	if strings.HasPrefix(name, ".") {
		if e, err := m.Lookup(name); err == nil {
			return ResolvedReference{Entity: e}
		}
		return ResolvedReference{ErrorMessage: fmt.Sprintf("no declaration named %s", name)}
	}

	scope := ""
	if from != nil {
		scope = from.fullName
	}
	for _, candidate := range candidateNames(name, scope) {
		if e, err := m.Lookup(candidate); err == nil {
			return ResolvedReference{Entity: e}
		}
	}
	if scope == "" {
		return ResolvedReference{ErrorMessage: fmt.Sprintf("no declaration named %s", name)}
	}
	return ResolvedReference{ErrorMessage: fmt.Sprintf("no declaration named %s visible from %s", name, scope)}
}

// candidateNames lists the full names name may refer to from scope, innermost first
func candidateNames(name, scope string) []string {
	var out []string
	for scope != "" {
		out = append(out, scope+"."+name)
		i := strings.LastIndexByte(scope, '.')
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	return append(out, name)
}
