package blocks

import "github.com/agenthands/blockvoice/internal/core/model"

// Literal describes the one field a voice "set value" command may write.
type Literal struct {
	Field string
	Kind  model.ValueKind
}

var literals = map[string]Literal{
	"text":        {Field: "TEXT", Kind: model.ValueText},
	"math_number": {Field: "NUM", Kind: model.ValueNumber},
}

// LiteralFor reports the settable field of blockType, if it holds a literal.
func LiteralFor(blockType string) (Literal, bool) {
	l, ok := literals[blockType]
	return l, ok
}
