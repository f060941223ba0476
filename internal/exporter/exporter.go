// Package exporter serializes a resolved model as a protobuf message
// for downstream tooling. The schema is an embedded .proto compiled at
// runtime; no generated protobuf code is checked in.
package exporter

import (
	_ "embed"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/weldkit/weld/internal/model"
)

//go:embed model.proto
var modelProto string

const schemaFile = "weld/model.proto"

// Exporter builds protobuf messages from resolved models.
type Exporter struct {
	fd *desc.FileDescriptor
}

// New compiles the embedded schema.
func New() (*Exporter, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			schemaFile: modelProto,
		}),
	}
	fds, err := parser.ParseFiles(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded schema: %w", err)
	}
	return &Exporter{fd: fds[0]}, nil
}

// Export builds the weld.Model message for a resolved model.
func (e *Exporter) Export(mod *model.Model) (*dynamic.Message, error) {
	root, err := e.message("weld.Model")
	if err != nil {
		return nil, err
	}
	if err := setField(root, "package", mod.Package); err != nil {
		return nil, err
	}
	if err := setField(root, "output", mod.Output); err != nil {
		return nil, err
	}
	if err := setField(root, "fingerprint", mod.Fingerprint); err != nil {
		return nil, err
	}

	domain, err := e.exportDomain(&mod.Domain)
	if err != nil {
		return nil, err
	}
	if err := setField(root, "domain", domain); err != nil {
		return nil, err
	}

	composites := make([]interface{}, 0, len(mod.Composites))
	for ci := range mod.Composites {
		comp, err := e.exportComposite(&mod.Composites[ci])
		if err != nil {
			return nil, err
		}
		composites = append(composites, comp)
	}
	if err := setField(root, "composites", composites); err != nil {
		return nil, err
	}
	return root, nil
}

// Marshal renders the model in binary protobuf form.
func (e *Exporter) Marshal(mod *model.Model) ([]byte, error) {
	msg, err := e.Export(mod)
	if err != nil {
		return nil, err
	}
	data, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshaling model: %w", err)
	}
	return data, nil
}

// MarshalJSON renders the model in protobuf JSON form.
func (e *Exporter) MarshalJSON(mod *model.Model) ([]byte, error) {
	msg, err := e.Export(mod)
	if err != nil {
		return nil, err
	}
	data, err := msg.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling model: %w", err)
	}
	return data, nil
}

// DescriptorSet returns the schema as a serialized FileDescriptorSet,
// for consumers that decode the export without this package.
func (e *Exporter) DescriptorSet() ([]byte, error) {
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{e.fd.AsFileDescriptorProto()},
	}
	data, err := proto.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshaling descriptor set: %w", err)
	}
	return data, nil
}

// Schema returns the compiled schema descriptor.
func (e *Exporter) Schema() *desc.FileDescriptor {
	return e.fd
}

func (e *Exporter) exportDomain(d *model.Domain) (*dynamic.Message, error) {
	msg, err := e.message("weld.Domain")
	if err != nil {
		return nil, err
	}
	if err := setField(msg, "name", d.Name); err != nil {
		return nil, err
	}
	if err := setField(msg, "external", d.External); err != nil {
		return nil, err
	}

	identities := make([]interface{}, 0, len(d.Identities))
	for _, id := range d.Identities {
		idMsg, err := e.message("weld.Identity")
		if err != nil {
			return nil, err
		}
		if err := setField(idMsg, "name", id.Name); err != nil {
			return nil, err
		}
		if err := setField(idMsg, "const_name", id.ConstName); err != nil {
			return nil, err
		}
		if err := setField(idMsg, "ordinal", id.Ordinal); err != nil {
			return nil, err
		}
		identities = append(identities, idMsg)
	}
	if err := setField(msg, "identities", identities); err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Exporter) exportComposite(c *model.Composite) (*dynamic.Message, error) {
	msg, err := e.message("weld.Composite")
	if err != nil {
		return nil, err
	}
	if err := setField(msg, "name", c.Name); err != nil {
		return nil, err
	}

	elements := make([]interface{}, 0, len(c.Elements))
	for ei := range c.Elements {
		el := &c.Elements[ei]
		elMsg, err := e.message("weld.Element")
		if err != nil {
			return nil, err
		}
		if err := setField(elMsg, "identity", el.Identity.Name); err != nil {
			return nil, err
		}
		if err := setField(elMsg, "type", el.TypeExpr); err != nil {
			return nil, err
		}
		if err := setField(elMsg, "position", uint32(el.Position)); err != nil {
			return nil, err
		}
		labels := make([]interface{}, 0, len(el.Labels))
		for _, label := range el.Labels {
			labels = append(labels, label)
		}
		if err := setField(elMsg, "labels", labels); err != nil {
			return nil, err
		}
		elements = append(elements, elMsg)
	}
	if err := setField(msg, "elements", elements); err != nil {
		return nil, err
	}

	ops := make([]interface{}, 0, len(c.Ops))
	for oi := range c.Ops {
		opMsg, err := e.exportOp(&c.Ops[oi])
		if err != nil {
			return nil, err
		}
		ops = append(ops, opMsg)
	}
	if err := setField(msg, "ops", ops); err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Exporter) exportOp(op *model.Op) (*dynamic.Message, error) {
	msg, err := e.message("weld.Op")
	if err != nil {
		return nil, err
	}
	if err := setField(msg, "name", op.Name); err != nil {
		return nil, err
	}
	if err := setField(msg, "method", op.Method); err != nil {
		return nil, err
	}
	if err := setField(msg, "call", op.Call); err != nil {
		return nil, err
	}
	if err := setField(msg, "returns_error", op.ReturnsError); err != nil {
		return nil, err
	}
	if err := setField(msg, "doc", op.Doc); err != nil {
		return nil, err
	}
	if err := setField(msg, "filter_desc", op.FilterDesc); err != nil {
		return nil, err
	}

	args := make([]interface{}, 0, len(op.Args))
	for _, a := range op.Args {
		argMsg, err := e.message("weld.Arg")
		if err != nil {
			return nil, err
		}
		if err := setField(argMsg, "name", a.Name); err != nil {
			return nil, err
		}
		if err := setField(argMsg, "type", a.Type); err != nil {
			return nil, err
		}
		args = append(args, argMsg)
	}
	if err := setField(msg, "args", args); err != nil {
		return nil, err
	}

	selected := make([]interface{}, 0, len(op.Selected))
	for _, p := range op.Selected {
		selected = append(selected, uint32(p))
	}
	if err := setField(msg, "selected", selected); err != nil {
		return nil, err
	}
	return msg, nil
}

func (e *Exporter) message(name string) (*dynamic.Message, error) {
	md := e.fd.FindMessage(name)
	if md == nil {
		return nil, fmt.Errorf("schema has no message %s", name)
	}
	return dynamic.NewMessage(md), nil
}

func setField(msg *dynamic.Message, name string, value interface{}) error {
	fd := msg.GetMessageDescriptor().FindFieldByName(name)
	if fd == nil {
		return fmt.Errorf("%s has no field %s", msg.GetMessageDescriptor().GetFullyQualifiedName(), name)
	}
	if err := msg.TrySetField(fd, value); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}
