package apimodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// LoadOptions selects the protobuf sources to compile
type LoadOptions struct {
	// ImportPaths are searched for Files and their imports
	ImportPaths []string
	// Files are the documented files, relative to an import path
	Files []string
	// Sources maps file names to contents. When set, files are read from
	// it instead of the file system.
	Sources map[string]string
}

// Load compiles the requested files and builds a model from them. Entities
// from imported files are included so references resolve, but are marked
// imported.
func Load(ctx context.Context, opts LoadOptions) (*Model, error) {
	if len(opts.Files) == 0 {
		return nil, fmt.Errorf("no proto files to load")
	}

	resolver := &protocompile.SourceResolver{ImportPaths: opts.ImportPaths}
	if opts.Sources != nil {
		resolver.Accessor = protocompile.SourceAccessorFromMap(opts.Sources)
	}
	compiler := protocompile.Compiler{
		Resolver:       protocompile.WithStandardImports(resolver),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}

	files, err := compiler.Compile(ctx, opts.Files...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto files: %w", err)
	}

	requested := make(map[string]bool, len(opts.Files))
	for _, f := range opts.Files {
		requested[f] = true
	}

	m := NewModel()
	seen := make(map[string]bool)
	var add func(fd protoreflect.FileDescriptor)
	add = func(fd protoreflect.FileDescriptor) {
		if seen[fd.Path()] {
			return
		}
		seen[fd.Path()] = true
		m.addFile(fd, !requested[fd.Path()])
		imports := fd.Imports()
		for i := 0; i < imports.Len(); i++ {
			add(imports.Get(i).FileDescriptor)
		}
	}
	for _, f := range files {
		add(f)
	}
	m.Index()
	return m, nil
}

func (m *Model) addFile(fd protoreflect.FileDescriptor, imported bool) {
	pkg := m.Package(string(fd.Package()))
	if !imported {
		// a package counts as documented once any of its files is requested
		pkg.imported = false
		if pkg.file == "" {
			pkg.file = fd.Path()
		}
		if c := packageComment(fd); c != "" && pkg.comment == "" {
			pkg.comment = c
		}
	} else if pkg.file == "" {
		pkg.imported = true
		pkg.file = fd.Path()
	}

	scope := &Entity{
		kind:     KindPackage,
		name:     pkg.name,
		fullName: pkg.fullName,
		pkg:      pkg,
		file:     fd.Path(),
		imported: imported,
	}
	addMessages(fd, scope, fd.Messages())
	addEnums(fd, scope, fd.Enums())
	services := fd.Services()
	for i := 0; i < services.Len(); i++ {
		addService(fd, scope, services.Get(i))
	}
	for _, c := range scope.children {
		c.parent = pkg
	}
	pkg.children = append(pkg.children, scope.children...)
}

func addMessages(fd protoreflect.FileDescriptor, parent *Entity, msgs protoreflect.MessageDescriptors) {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		if md.IsMapEntry() {
			continue
		}
		e := parent.AddChild(KindMessage, string(md.Name()))
		describe(fd, e, md)

		oneofs := md.Oneofs()
		for j := 0; j < oneofs.Len(); j++ {
			od := oneofs.Get(j)
			if od.IsSynthetic() {
				continue
			}
			describe(fd, e.AddChild(KindOneof, string(od.Name())), od)
		}

		fields := md.Fields()
		for j := 0; j < fields.Len(); j++ {
			addField(fd, e, fields.Get(j))
		}
		addMessages(fd, e, md.Messages())
		addEnums(fd, e, md.Enums())
	}
}

func addField(fd protoreflect.FileDescriptor, parent *Entity, field protoreflect.FieldDescriptor) {
	e := parent.AddChild(KindField, string(field.Name()))
	describe(fd, e, field)
	e.Number = int(field.Number())
	e.TypeName, e.TypeRef = fieldType(field)
	if od := field.ContainingOneof(); od != nil && !od.IsSynthetic() {
		e.OneofName = string(od.Name())
	}
	switch {
	case field.IsMap():
		e.Label = "map"
	case field.IsList():
		e.Label = "repeated"
	case field.Cardinality() == protoreflect.Required:
		e.Label = "required"
	case field.HasOptionalKeyword():
		e.Label = "optional"
	}
}

// fieldType returns the display type of a field and, for message and enum
// types, the full name of the referenced type
func fieldType(field protoreflect.FieldDescriptor) (string, string) {
	if field.IsMap() {
		key, _ := fieldType(field.MapKey())
		value, ref := fieldType(field.MapValue())
		return fmt.Sprintf("map<%s, %s>", key, value), ref
	}
	switch field.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		name := string(field.Message().FullName())
		return name, name
	case protoreflect.EnumKind:
		name := string(field.Enum().FullName())
		return name, name
	}
	return field.Kind().String(), ""
}

func addEnums(fd protoreflect.FileDescriptor, parent *Entity, enums protoreflect.EnumDescriptors) {
	for i := 0; i < enums.Len(); i++ {
		ed := enums.Get(i)
		e := parent.AddChild(KindEnum, string(ed.Name()))
		describe(fd, e, ed)
		values := ed.Values()
		for j := 0; j < values.Len(); j++ {
			vd := values.Get(j)
			v := e.AddChild(KindEnumValue, string(vd.Name()))
			describe(fd, v, vd)
			v.Number = int(vd.Number())
		}
	}
}

func addService(fd protoreflect.FileDescriptor, parent *Entity, sd protoreflect.ServiceDescriptor) {
	e := parent.AddChild(KindService, string(sd.Name()))
	describe(fd, e, sd)
	methods := sd.Methods()
	for i := 0; i < methods.Len(); i++ {
		md := methods.Get(i)
		m := e.AddChild(KindMethod, string(md.Name()))
		describe(fd, m, md)
		m.InputType = string(md.Input().FullName())
		m.OutputType = string(md.Output().FullName())
		m.ClientStreaming = md.IsStreamingClient()
		m.ServerStreaming = md.IsStreamingServer()
	}
}

// packageFieldNumber is the field number of FileDescriptorProto.package
const packageFieldNumber = 2

type deprecatable interface {
	GetDeprecated() bool
}

func describe(fd protoreflect.FileDescriptor, e *Entity, d protoreflect.Descriptor) {
	e.desc = d
	e.comment = leadingComment(fd, d)
	if opts, ok := d.Options().(deprecatable); ok {
		e.deprecated = opts.GetDeprecated()
	}
}

func leadingComment(fd protoreflect.FileDescriptor, d protoreflect.Descriptor) string {
	loc := fd.SourceLocations().ByDescriptor(d)
	text := loc.LeadingComments
	if strings.TrimSpace(text) == "" {
		text = loc.TrailingComments
	}
	return Dedent(text)
}

// packageComment returns the comment attached to the package statement
func packageComment(fd protoreflect.FileDescriptor) string {
	loc := fd.SourceLocations().ByPath(protoreflect.SourcePath{packageFieldNumber})
	return Dedent(loc.LeadingComments)
}

// Dedent removes the indentation common to all non-blank lines and trims
// surrounding blank lines
func Dedent(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	if common < 0 {
		return ""
	}
	for i, line := range lines {
		if len(line) >= common {
			lines[i] = strings.TrimRight(line[common:], " \t")
		} else {
			lines[i] = ""
		}
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
