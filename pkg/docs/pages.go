package docs

import (
	"strconv"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/apimodel"
	"github.com/platinummonkey/protodoc/pkg/comment"
	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// pageTree builds the documentation tree of an entity page
func (d *Documenter) pageTree(e *apimodel.Entity) *docnode.Section {
	page := &docnode.Section{}
	add := func(nodes ...docnode.Node) {
		page.Children = append(page.Children, nodes...)
	}

	if crumbs := d.breadcrumbs(e); crumbs != nil {
		add(crumbs)
	}
	if e.Deprecated() {
		add(deprecationNote(e))
	}
	add(comment.Parse(e.Comment()).Children...)

	switch e.Kind() {
	case apimodel.KindPackage:
		add(d.packageContents(e)...)
	case apimodel.KindMessage:
		add(declaration(messageSignature(e)))
		add(d.fieldTable(e)...)
		add(d.nestedTypeTable(e)...)
	case apimodel.KindEnum:
		add(declaration(enumSignature(e)))
		add(valueTable(e)...)
	case apimodel.KindService:
		add(declaration(serviceSignature(e)))
		add(d.methodTable(e)...)
		for _, m := range e.ChildrenOfKind(apimodel.KindMethod) {
			add(d.methodSection(m)...)
		}
	}
	return page
}

// indexTree builds the index page listing the documented packages
func (d *Documenter) indexTree() *docnode.Section {
	table := &docnode.Table{Header: docnode.TextRow("Package", "Description")}
	for _, e := range d.documented {
		if e.Kind() != apimodel.KindPackage {
			continue
		}
		table.Rows = append(table.Rows, docnode.Row(
			docnode.Cell(d.entityLink(e)),
			summaryCell(e),
		))
	}
	if len(table.Rows) == 0 {
		return &docnode.Section{Children: []docnode.Node{
			docnode.Para(docnode.Text("No packages are documented.")),
		}}
	}
	return &docnode.Section{Children: []docnode.Node{table}}
}

// breadcrumbs links the enclosing package and types of e
func (d *Documenter) breadcrumbs(e *apimodel.Entity) docnode.Node {
	var chain []*apimodel.Entity
	for p := e.Parent(); p != nil; p = p.Parent() {
		chain = append([]*apimodel.Entity{p}, chain...)
	}
	if len(chain) == 0 {
		return nil
	}
	para := &docnode.Paragraph{}
	for _, p := range chain {
		para.Children = append(para.Children, d.entityLink(p), docnode.Text(" > "))
	}
	para.Children = append(para.Children, docnode.Text(e.Name()))
	return para
}

// entityLink links to an entity by its fully qualified name. Packages are
// labelled with their full name since they have no name within a package.
func (d *Documenter) entityLink(e *apimodel.Entity) docnode.Node {
	text := ""
	switch e.Kind() {
	case apimodel.KindPackage:
		if e.FullName() == "" {
			return d.defaultPackageLink(e)
		}
		text = e.FullName()
	case apimodel.KindMethod:
		// the emitter synthesizes "Service.Method()"
	default:
		text = e.Name()
	}
	return docnode.CodeLink("."+e.FullName(), text)
}

// defaultPackageLink links the unnamed package by file name, since it has no
// name a reference could resolve
func (d *Documenter) defaultPackageLink(e *apimodel.Entity) docnode.Node {
	name, ok := d.FilenameForEntity(e)
	if !ok {
		return docnode.Text(defaultPackageLabel)
	}
	return docnode.URLLink(name, defaultPackageLabel)
}

// typeReference shows a field, request or response type, linked when the
// type has a page
func (d *Documenter) typeReference(display, ref string) docnode.Node {
	if ref != "" {
		if target, err := d.model.Lookup(ref); err == nil {
			if _, ok := d.FilenameForEntity(target); ok {
				return docnode.CodeLink("."+ref, display)
			}
		}
	}
	return docnode.Code(display)
}

func deprecationNote(e *apimodel.Entity) docnode.Node {
	return &docnode.NoteBox{Children: []docnode.Node{
		docnode.Para(
			docnode.Bold(docnode.Text("Deprecated:")),
			docnode.Text(" this "+e.Kind().String()+" is deprecated and may be removed."),
		),
	}}
}

func declaration(code string) docnode.Node {
	return &docnode.FencedCode{Language: "protobuf", Code: code}
}

func heading(level int, title string) docnode.Node {
	return &docnode.Heading{Level: level, Title: title}
}

// summaryCell is the description column of a member table
func summaryCell(e *apimodel.Entity) *docnode.TableCell {
	cell := &docnode.TableCell{}
	if e.Deprecated() {
		cell.Children = append(cell.Children, docnode.Italic(docnode.Text("Deprecated.")))
	}
	if summary := comment.Summary(comment.Parse(e.Comment())); summary != nil {
		if len(cell.Children) > 0 {
			cell.Children = append(cell.Children, docnode.Text(" "))
		}
		cell.Children = append(cell.Children, summary.Children...)
	}
	return cell
}

func (d *Documenter) packageContents(pkg *apimodel.Entity) []docnode.Node {
	var out []docnode.Node
	groups := []struct {
		title string
		kind  apimodel.Kind
	}{
		{"Services", apimodel.KindService},
		{"Messages", apimodel.KindMessage},
		{"Enums", apimodel.KindEnum},
	}
	for _, g := range groups {
		table := &docnode.Table{Header: docnode.TextRow("Name", "Description")}
		for _, child := range pkg.ChildrenOfKind(g.kind) {
			if _, ok := d.FilenameForEntity(child); !ok {
				continue
			}
			table.Rows = append(table.Rows, docnode.Row(docnode.Cell(d.entityLink(child)), summaryCell(child)))
		}
		if len(table.Rows) > 0 {
			out = append(out, heading(1, g.title), table)
		}
	}
	return out
}

func (d *Documenter) fieldTable(msg *apimodel.Entity) []docnode.Node {
	fields := msg.ChildrenOfKind(apimodel.KindField)
	if len(fields) == 0 {
		return nil
	}
	table := &docnode.Table{Header: docnode.TextRow("Field", "Type", "Label", "Number", "Description")}
	for _, f := range fields {
		table.Rows = append(table.Rows, docnode.Row(
			docnode.Cell(docnode.Code(f.Name())),
			docnode.Cell(d.typeReference(relativeType(f.TypeName, msg), f.TypeRef)),
			docnode.Cell(docnode.Text(fieldLabel(f))),
			docnode.Cell(docnode.Text(strconv.Itoa(f.Number))),
			summaryCell(f),
		))
	}
	return []docnode.Node{heading(1, "Fields"), table}
}

func (d *Documenter) nestedTypeTable(msg *apimodel.Entity) []docnode.Node {
	table := &docnode.Table{Header: docnode.TextRow("Name", "Kind", "Description")}
	for _, child := range msg.Children() {
		if child.Kind() != apimodel.KindMessage && child.Kind() != apimodel.KindEnum {
			continue
		}
		table.Rows = append(table.Rows, docnode.Row(
			docnode.Cell(d.entityLink(child)),
			docnode.Cell(docnode.Text(child.Kind().String())),
			summaryCell(child),
		))
	}
	if len(table.Rows) == 0 {
		return nil
	}
	return []docnode.Node{heading(1, "Nested Types"), table}
}

func valueTable(enum *apimodel.Entity) []docnode.Node {
	values := enum.ChildrenOfKind(apimodel.KindEnumValue)
	if len(values) == 0 {
		return nil
	}
	table := &docnode.Table{Header: docnode.TextRow("Name", "Number", "Description")}
	for _, v := range values {
		table.Rows = append(table.Rows, docnode.Row(
			docnode.Cell(docnode.Code(v.Name())),
			docnode.Cell(docnode.Text(strconv.Itoa(v.Number))),
			summaryCell(v),
		))
	}
	return []docnode.Node{heading(1, "Values"), table}
}

func (d *Documenter) methodTable(svc *apimodel.Entity) []docnode.Node {
	methods := svc.ChildrenOfKind(apimodel.KindMethod)
	if len(methods) == 0 {
		return nil
	}
	table := &docnode.Table{Header: docnode.TextRow("Method", "Request", "Response", "Description")}
	for _, m := range methods {
		table.Rows = append(table.Rows, docnode.Row(
			docnode.Cell(d.entityLink(m)),
			d.streamCell(m.ClientStreaming, m.InputType, svc),
			d.streamCell(m.ServerStreaming, m.OutputType, svc),
			summaryCell(m),
		))
	}
	return []docnode.Node{heading(1, "Methods"), table}
}

func (d *Documenter) streamCell(stream bool, typeName string, scope *apimodel.Entity) *docnode.TableCell {
	cell := &docnode.TableCell{}
	if stream {
		cell.Children = append(cell.Children, docnode.Text("stream "))
	}
	cell.Children = append(cell.Children, d.typeReference(relativeType(typeName, scope), typeName))
	return cell
}

// methodSection documents one method under its own heading
func (d *Documenter) methodSection(m *apimodel.Entity) []docnode.Node {
	out := []docnode.Node{heading(2, m.Name())}
	if m.Deprecated() {
		out = append(out, deprecationNote(m))
	}
	out = append(out, declaration(methodSignature(m, m.Parent())))
	out = append(out, comment.Parse(m.Comment()).Children...)
	return out
}

func fieldLabel(f *apimodel.Entity) string {
	if f.OneofName != "" {
		return "oneof " + f.OneofName
	}
	return f.Label
}

// relativeType shortens a fully qualified type name to the form used inside
// the package of scope
func relativeType(typeName string, scope *apimodel.Entity) string {
	pkg := scope.Package().FullName()
	if pkg == "" {
		return typeName
	}
	return strings.ReplaceAll(typeName, pkg+".", "")
}

func messageSignature(msg *apimodel.Entity) string {
	var b strings.Builder
	b.WriteString("message " + msg.Name() + " {\n")
	written := make(map[string]bool)
	fields := msg.ChildrenOfKind(apimodel.KindField)
	for _, f := range fields {
		if f.OneofName == "" {
			b.WriteString("  " + fieldDeclaration(f, msg) + "\n")
			continue
		}
		if written[f.OneofName] {
			continue
		}
		written[f.OneofName] = true
		b.WriteString("  oneof " + f.OneofName + " {\n")
		for _, member := range fields {
			if member.OneofName == f.OneofName {
				b.WriteString("    " + fieldDeclaration(member, msg) + "\n")
			}
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}")
	return b.String()
}

func fieldDeclaration(f, scope *apimodel.Entity) string {
	decl := relativeType(f.TypeName, scope) + " " + f.Name() + " = " + strconv.Itoa(f.Number)
	switch f.Label {
	case "repeated", "optional", "required":
		decl = f.Label + " " + decl
	}
	if f.Deprecated() {
		decl += " [deprecated = true]"
	}
	return decl + ";"
}

func enumSignature(enum *apimodel.Entity) string {
	var b strings.Builder
	b.WriteString("enum " + enum.Name() + " {\n")
	for _, v := range enum.ChildrenOfKind(apimodel.KindEnumValue) {
		decl := v.Name() + " = " + strconv.Itoa(v.Number)
		if v.Deprecated() {
			decl += " [deprecated = true]"
		}
		b.WriteString("  " + decl + ";\n")
	}
	b.WriteString("}")
	return b.String()
}

func serviceSignature(svc *apimodel.Entity) string {
	var b strings.Builder
	b.WriteString("service " + svc.Name() + " {\n")
	for _, m := range svc.ChildrenOfKind(apimodel.KindMethod) {
		b.WriteString("  " + methodSignature(m, svc) + "\n")
	}
	b.WriteString("}")
	return b.String()
}

func methodSignature(m, scope *apimodel.Entity) string {
	in := relativeType(m.InputType, scope)
	if m.ClientStreaming {
		in = "stream " + in
	}
	out := relativeType(m.OutputType, scope)
	if m.ServerStreaming {
		out = "stream " + out
	}
	return "rpc " + m.Name() + "(" + in + ") returns (" + out + ");"
}
