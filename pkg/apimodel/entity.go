package apimodel

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Kind is the type of a declared API entity
type Kind int

const (
	KindPackage Kind = iota
	KindMessage
	KindField
	KindOneof
	KindEnum
	KindEnumValue
	KindService
	KindMethod
)

func (k Kind) String() string {
	return [...]string{"package", "message", "field", "oneof", "enum", "enum value", "service", "method"}[k]
}

// IsMember reports whether entities of this kind are documented on their parent's page
func (k Kind) IsMember() bool {
	switch k {
	case KindField, KindOneof, KindEnumValue, KindMethod:
		return true
	}
	return false
}

// Entity is a declaration in the API model
type Entity struct {
	kind       Kind
	name       string
	fullName   string
	pkg        *Entity
	parent     *Entity
	children   []*Entity
	comment    string
	deprecated bool
	file       string
	imported   bool
	desc       protoreflect.Descriptor

	// Field details
	Number    int
	TypeName  string
	TypeRef   string
	Label     string
	OneofName string

	// Method details
	InputType       string
	OutputType      string
	ClientStreaming bool
	ServerStreaming bool
}

// NewPackage creates the root entity of a package. The empty name is the
// unnamed package.
func NewPackage(name string) *Entity {
	e := &Entity{kind: KindPackage, name: name, fullName: name}
	e.pkg = e
	return e
}

// AddChild declares a nested entity
func (e *Entity) AddChild(kind Kind, name string) *Entity {
	fullName := name
	if e.fullName != "" {
		fullName = e.fullName + "." + name
	}
	child := &Entity{
		kind:     kind,
		name:     name,
		fullName: fullName,
		pkg:      e.pkg,
		parent:   e,
		file:     e.file,
		imported: e.imported,
	}
	e.children = append(e.children, child)
	return child
}

func (e *Entity) Kind() Kind                          { return e.kind }
func (e *Entity) Name() string                        { return e.name }
func (e *Entity) FullName() string                    { return e.fullName }
func (e *Entity) Package() *Entity                    { return e.pkg }
func (e *Entity) Parent() *Entity                     { return e.parent }
func (e *Entity) Children() []*Entity                 { return e.children }
func (e *Entity) Comment() string                     { return e.comment }
func (e *Entity) Deprecated() bool                    { return e.deprecated }
func (e *Entity) File() string                        { return e.file }
func (e *Entity) Imported() bool                      { return e.imported }
func (e *Entity) Descriptor() protoreflect.Descriptor { return e.desc }

// SetComment sets the documentation comment
func (e *Entity) SetComment(comment string) *Entity {
	e.comment = comment
	return e
}

// SetDeprecated marks the entity as deprecated
func (e *Entity) SetDeprecated(deprecated bool) *Entity {
	e.deprecated = deprecated
	return e
}

// SetFile records the source file. Children added later inherit it.
func (e *Entity) SetFile(file string, imported bool) *Entity {
	e.file = file
	e.imported = imported
	return e
}

// ChildrenOfKind returns the direct children of the given kind
func (e *Entity) ChildrenOfKind(kind Kind) []*Entity {
	var out []*Entity
	for _, c := range e.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the direct child with the given name
func (e *Entity) Child(name string) *Entity {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ScopedNameWithinPackage returns the dotted name of the entity below its
// package, e.g. "Greeter.SayHello()". Methods get a trailing "()". A package
// has an empty scoped name.
func (e *Entity) ScopedNameWithinPackage() string {
	if e.kind == KindPackage {
		return ""
	}
	var parts []string
	for cur := e; cur != nil && cur.kind != KindPackage; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	name := strings.Join(parts, ".")
	if e.kind == KindMethod {
		name += "()"
	}
	return name
}

// Walk visits e and all of its descendants depth-first
func (e *Entity) Walk(fn func(*Entity)) {
	fn(e)
	for _, c := range e.children {
		c.Walk(fn)
	}
}
