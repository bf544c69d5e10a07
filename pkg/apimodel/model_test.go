package apimodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greeterProto = `syntax = "proto3";

// Greeting APIs.
package acme.greet.v1;

import "google/protobuf/timestamp.proto";

// Greeter says hello.
service Greeter {
  // SayHello greets one person.
  rpc SayHello(HelloRequest) returns (HelloReply);
  rpc Chat(stream HelloRequest) returns (stream HelloReply) {
    option deprecated = true;
  }
}

// HelloRequest names the person to greet.
message HelloRequest {
  // The person's name.
  string name = 1;
  repeated string tags = 2;
  map<string, Mood> moods = 3;
  optional int32 count = 4;
  oneof target {
    string email = 5;
    string phone = 6;
  }

  message Options {
    bool loud = 1;
  }
  Options options = 7;
}

message HelloReply {
  string message = 1 [deprecated = true];
  google.protobuf.Timestamp sent_at = 2;
}

// Mood of the greeting.
enum Mood {
  MOOD_UNSPECIFIED = 0;
  // Happy mood.
  MOOD_HAPPY = 1;
}
`

func loadGreeter(t *testing.T) *Model {
	t.Helper()
	m, err := Load(context.Background(), LoadOptions{
		Files:   []string{"acme/greet/v1/greeter.proto"},
		Sources: map[string]string{"acme/greet/v1/greeter.proto": greeterProto},
	})
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	m := loadGreeter(t)

	pkg, err := m.Lookup("acme.greet.v1")
	require.NoError(t, err)
	assert.Equal(t, KindPackage, pkg.Kind())
	assert.Equal(t, "Greeting APIs.", pkg.Comment())
	assert.False(t, pkg.Imported())

	svc, err := m.Lookup("acme.greet.v1.Greeter")
	require.NoError(t, err)
	assert.Equal(t, "Greeter says hello.", svc.Comment())
	require.Len(t, svc.Children(), 2)

	sayHello := svc.Child("SayHello")
	require.NotNil(t, sayHello)
	assert.Equal(t, "acme.greet.v1.HelloRequest", sayHello.InputType)
	assert.Equal(t, "acme.greet.v1.HelloReply", sayHello.OutputType)
	assert.Equal(t, "Greeter.SayHello()", sayHello.ScopedNameWithinPackage())

	chat := svc.Child("Chat")
	assert.True(t, chat.ClientStreaming)
	assert.True(t, chat.ServerStreaming)
	assert.True(t, chat.Deprecated())
}

func TestLoad_Fields(t *testing.T) {
	m := loadGreeter(t)

	req, err := m.Lookup("acme.greet.v1.HelloRequest")
	require.NoError(t, err)

	tests := []struct {
		name     string
		typeName string
		typeRef  string
		label    string
		oneof    string
	}{
		{"name", "string", "", "", ""},
		{"tags", "string", "", "repeated", ""},
		{"moods", "map<string, acme.greet.v1.Mood>", "acme.greet.v1.Mood", "map", ""},
		{"count", "int32", "", "optional", ""},
		{"email", "string", "", "", "target"},
		{"options", "acme.greet.v1.HelloRequest.Options", "acme.greet.v1.HelloRequest.Options", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := req.Child(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, KindField, f.Kind())
			assert.Equal(t, tt.typeName, f.TypeName)
			assert.Equal(t, tt.typeRef, f.TypeRef)
			assert.Equal(t, tt.label, f.Label)
			assert.Equal(t, tt.oneof, f.OneofName)
		})
	}

	assert.Equal(t, "The person's name.", req.Child("name").Comment())
	assert.Len(t, req.ChildrenOfKind(KindOneof), 1)
	assert.Len(t, req.ChildrenOfKind(KindMessage), 1)
}

func TestLoad_ImportedEntities(t *testing.T) {
	m := loadGreeter(t)

	ts, err := m.Lookup("google.protobuf.Timestamp")
	require.NoError(t, err)
	assert.True(t, ts.Imported())

	reply, err := m.Lookup("acme.greet.v1.HelloReply")
	require.NoError(t, err)
	assert.False(t, reply.Imported())
	assert.True(t, reply.Child("message").Deprecated())
}

func TestLoad_UnnamedPackage(t *testing.T) {
	m, err := Load(context.Background(), LoadOptions{
		Files:   []string{"thing.proto"},
		Sources: map[string]string{"thing.proto": `syntax = "proto3"; message Thing {}`},
	})
	require.NoError(t, err)

	pkg, err := m.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, KindPackage, pkg.Kind())
	assert.False(t, pkg.Imported())

	entities := m.Entities()
	require.Len(t, entities, 2)
	assert.Same(t, pkg, entities[0])
	assert.Equal(t, "Thing", entities[1].FullName())
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := Load(context.Background(), LoadOptions{})
	assert.Error(t, err)
}

func TestLoad_CompileError(t *testing.T) {
	_, err := Load(context.Background(), LoadOptions{
		Files:   []string{"bad.proto"},
		Sources: map[string]string{"bad.proto": `syntax = "proto3"; message {`},
	})
	assert.Error(t, err)
}

func TestResolveReference(t *testing.T) {
	m := loadGreeter(t)
	req, _ := m.Lookup("acme.greet.v1.HelloRequest")
	sayHello, _ := m.Lookup("acme.greet.v1.Greeter.SayHello")

	tests := []struct {
		name string
		ref  string
		from *Entity
		want string
	}{
		{"fully qualified", ".acme.greet.v1.HelloReply", nil, "acme.greet.v1.HelloReply"},
		{"full name without dot", "acme.greet.v1.Mood", nil, "acme.greet.v1.Mood"},
		{"sibling type", "HelloReply", req, "acme.greet.v1.HelloReply"},
		{"nested type from parent", "Options", req, "acme.greet.v1.HelloRequest.Options"},
		{"member of scope", "name", req, "acme.greet.v1.HelloRequest.name"},
		{"method call syntax", "Greeter.Chat()", sayHello, "acme.greet.v1.Greeter.Chat"},
		{"enum value in protobuf scope", "MOOD_HAPPY", req, "acme.greet.v1.Mood.MOOD_HAPPY"},
		{"enum value under enum", "Mood.MOOD_HAPPY", req, "acme.greet.v1.Mood.MOOD_HAPPY"},
		{"imported type", "google.protobuf.Timestamp", req, "google.protobuf.Timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.ResolveReference(tt.ref, tt.from)
			require.NotNil(t, res.Entity, res.ErrorMessage)
			assert.Empty(t, res.ErrorMessage)
			assert.Equal(t, tt.want, res.Entity.FullName())
		})
	}
}

func TestResolveReference_Failure(t *testing.T) {
	m := loadGreeter(t)
	req, _ := m.Lookup("acme.greet.v1.HelloRequest")

	res := m.ResolveReference("Missing", req)
	assert.Nil(t, res.Entity)
	assert.Contains(t, res.ErrorMessage, "Missing")
	assert.Contains(t, res.ErrorMessage, "acme.greet.v1.HelloRequest")

	res = m.ResolveReference("  ", nil)
	assert.Nil(t, res.Entity)
	assert.Equal(t, "empty reference", res.ErrorMessage)
}

func TestScopedNameWithinPackage(t *testing.T) {
	pkg := NewPackage("acme.v1")
	msg := pkg.AddChild(KindMessage, "Outer")
	inner := msg.AddChild(KindMessage, "Inner")
	field := inner.AddChild(KindField, "id")
	svc := pkg.AddChild(KindService, "Svc")
	method := svc.AddChild(KindMethod, "Do")

	assert.Equal(t, "", pkg.ScopedNameWithinPackage())
	assert.Equal(t, "Outer.Inner", inner.ScopedNameWithinPackage())
	assert.Equal(t, "Outer.Inner.id", field.ScopedNameWithinPackage())
	assert.Equal(t, "Svc.Do()", method.ScopedNameWithinPackage())
	assert.Equal(t, "acme.v1.Outer.Inner.id", field.FullName())
	assert.Same(t, pkg, field.Package())
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "first\n  indented\nlast", Dedent(" first\n   indented\n last\n"))
	assert.Equal(t, "", Dedent("  \n \n"))
	assert.Equal(t, "a\n\nb", Dedent("\n a\n\n b\n"))
}
