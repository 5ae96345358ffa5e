package topology

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/flowerr"
	"github.com/pothosware/flowcore/port"
)

// documentSchema fixes the topology JSON grammar of spec.md §6: a "blocks"
// array of {id, path, args, calls} and a "connections" array of 4-string
// tuples.
const documentSchema = `{
  "type": "object",
  "required": ["blocks", "connections"],
  "properties": {
    "blocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "path"],
        "properties": {
          "id": {"type": "string"},
          "path": {"type": "string"},
          "args": {"type": "array"},
          "calls": {
            "type": "array",
            "items": {"type": "array", "minItems": 1}
          }
        }
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": "string"},
        "minItems": 4,
        "maxItems": 4
      }
    }
  }
}`

// BlockSpec is one "blocks" entry: a unique id, a plugin-registry path (out
// of this package's scope to resolve -- spec.md §1), constructor args, and
// post-construction opaque calls to issue before activation.
type BlockSpec struct {
	ID    string  `json:"id"`
	Path  string  `json:"path"`
	Args  []any   `json:"args,omitempty"`
	Calls [][]any `json:"calls,omitempty"`
}

// ConnectionSpec is one "connections" entry.
type ConnectionSpec struct {
	SrcID, SrcPort, DstID, DstPort string
}

// Document is a parsed topology JSON description.
type Document struct {
	Blocks      []BlockSpec
	Connections []ConnectionSpec
}

type rawDocument struct {
	Blocks []struct {
		ID    string  `json:"id"`
		Path  string  `json:"path"`
		Args  []any   `json:"args"`
		Calls [][]any `json:"calls"`
	} `json:"blocks"`
	Connections [][]string `json:"connections"`
}

// ParseJSON validates data against the topology document schema and decodes
// it. Violations raise flowerr.DataFormatError naming the offending index,
// per spec.md §6 "Parse errors raise DataFormatException naming the
// offending index".
func ParseJSON(data []byte) (*Document, error) {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, flowerr.DataFormatError(0, err.Error())
	}
	if !result.Valid() {
		desc := result.Errors()
		reason := "schema violation"
		if len(desc) > 0 {
			reason = desc[0].String()
		}
		return nil, flowerr.DataFormatError(0, reason)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, flowerr.DataFormatError(0, err.Error())
	}

	doc := &Document{}
	for _, b := range raw.Blocks {
		doc.Blocks = append(doc.Blocks, BlockSpec{ID: b.ID, Path: b.Path, Args: b.Args, Calls: b.Calls})
	}
	for i, c := range raw.Connections {
		if len(c) != 4 {
			return nil, flowerr.DataFormatError(i, fmt.Sprintf("connection has %d elements, want 4", len(c)))
		}
		doc.Connections = append(doc.Connections, ConnectionSpec{SrcID: c[0], SrcPort: c[1], DstID: c[2], DstPort: c[3]})
	}
	return doc, nil
}

// BlockFactory constructs the actor.Worker named by a BlockSpec's path and
// args. Resolving path against the dynamic plugin registry is out of this
// package's scope (spec.md §1); callers supply the mapping.
type BlockFactory func(spec BlockSpec) (*actor.Worker, error)

// LoadDocument populates t from a parsed Document: constructs each block via
// factory, issues its pre-activation opaque calls, then records every
// connection (including self-alias pass-throughs). It does not call Commit.
func (t *Topology) LoadDocument(doc *Document, factory BlockFactory) error {
	for i, spec := range doc.Blocks {
		if isSelfAlias(spec.ID) {
			continue // aliases the enclosing topology; nothing to construct
		}
		w, err := factory(spec)
		if err != nil {
			return flowerr.DataFormatError(i, err.Error())
		}
		if err := t.AddBlock(spec.ID, spec.Path, "", w); err != nil {
			return flowerr.DataFormatError(i, err.Error())
		}
		for _, call := range spec.Calls {
			if len(call) == 0 {
				continue
			}
			name, ok := call[0].(string)
			if !ok {
				return flowerr.DataFormatError(i, "call name must be a string")
			}
			if _, err := w.OpaqueCall(name, call[1:]...); err != nil {
				return flowerr.DataFormatError(i, err.Error())
			}
		}
	}
	for i, c := range doc.Connections {
		if err := t.Connect(c.SrcID, port.Name(c.SrcPort), c.DstID, port.Name(c.DstPort)); err != nil {
			return flowerr.DataFormatError(i, err.Error())
		}
	}
	return nil
}
