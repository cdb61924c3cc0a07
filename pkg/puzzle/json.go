package puzzle

import (
	"encoding/json"
	"fmt"

	"github.com/hexvalor/sudokucore/pkg/engine"
)

// File is the on-disk fixture format the CLI reads: a shape plus a
// flat list of tagged constraint nodes. Each element of Constraints
// carries its own "tag" field naming which concrete struct in
// constraints.go it decodes into.
type File struct {
	Shape       Shape             `json:"shape"`
	Constraints []json.RawMessage `json:"constraints"`
}

// tagEnvelope reads just the discriminator field every constraint
// fixture element carries, ahead of decoding the rest of the element
// into its concrete type.
type tagEnvelope struct {
	Tag string `json:"tag"`
}

// childEnvelope is the wire shape of Or/And/Set, whose Children must
// be decoded recursively rather than directly into []Constraint (an
// interface slice encoding/json cannot populate on its own).
type childEnvelope struct {
	Name     string            `json:"name"`
	Children []json.RawMessage `json:"children"`
}

// ParseConstraints decodes a fixture's raw constraint list into the
// tagged-union tree Build consumes.
func ParseConstraints(raw []json.RawMessage) ([]Constraint, error) {
	out := make([]Constraint, 0, len(raw))
	for _, r := range raw {
		c, err := parseOne(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseOne(raw json.RawMessage) (Constraint, error) {
	var env tagEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed constraint node: %v", engine.ErrInvalidConstraint, err)
	}

	switch env.Tag {
	case "FixedValues":
		var c FixedValues
		return c, unmarshalInto(raw, &c)
	case "Given":
		var c Given
		return c, unmarshalInto(raw, &c)
	case "AllDifferent":
		var c AllDifferent
		return c, unmarshalInto(raw, &c)
	case "Jigsaw":
		var c Jigsaw
		return c, unmarshalInto(raw, &c)
	case "Diagonal":
		var c Diagonal
		return c, unmarshalInto(raw, &c)
	case "AntiKnight":
		return AntiKnight{}, nil
	case "AntiKing":
		return AntiKing{}, nil
	case "AntiConsecutive":
		return AntiConsecutive{}, nil
	case "NoBoxes":
		return NoBoxes{}, nil
	case "Windoku":
		var c Windoku
		return c, unmarshalInto(raw, &c)
	case "Shape":
		var c Shape
		return c, unmarshalInto(raw, &c)
	case "RegionSize":
		var c RegionSize
		return c, unmarshalInto(raw, &c)
	case "Cage":
		var c Cage
		return c, unmarshalInto(raw, &c)
	case "Thermo":
		var c Thermo
		return c, unmarshalInto(raw, &c)
	case "Arrow":
		var c Arrow
		return c, unmarshalInto(raw, &c)
	case "DoubleArrow":
		var c DoubleArrow
		return c, unmarshalInto(raw, &c)
	case "PillArrow":
		var c PillArrow
		return c, unmarshalInto(raw, &c)
	case "Whisper":
		var c Whisper
		return c, unmarshalInto(raw, &c)
	case "GermanWhispers":
		var c GermanWhispers
		return c, unmarshalInto(raw, &c)
	case "Palindrome":
		var c Palindrome
		return c, unmarshalInto(raw, &c)
	case "Renban":
		var c Renban
		return c, unmarshalInto(raw, &c)
	case "Between":
		var c Between
		return c, unmarshalInto(raw, &c)
	case "Lockout":
		var c Lockout
		return c, unmarshalInto(raw, &c)
	case "LittleKiller":
		var c LittleKiller
		return c, unmarshalInto(raw, &c)
	case "Sandwich":
		var c Sandwich
		return c, unmarshalInto(raw, &c)
	case "Skyscraper":
		var c Skyscraper
		return c, unmarshalInto(raw, &c)
	case "Lunchbox":
		var c Lunchbox
		return c, unmarshalInto(raw, &c)
	case "Kropki":
		var c Kropki
		return c, unmarshalInto(raw, &c)
	case "XV":
		var c XV
		return c, unmarshalInto(raw, &c)
	case "GreaterThan":
		var c GreaterThan
		return c, unmarshalInto(raw, &c)
	case "Quadruple":
		var c Quadruple
		return c, unmarshalInto(raw, &c)
	case "CountingCircles":
		var c CountingCircles
		return c, unmarshalInto(raw, &c)
	case "Indexing":
		var c Indexing
		return c, unmarshalInto(raw, &c)
	case "ValueIndexing":
		var c ValueIndexing
		return c, unmarshalInto(raw, &c)
	case "RegionSumLine":
		var c RegionSumLine
		return c, unmarshalInto(raw, &c)
	case "SumLine":
		var c SumLine
		return c, unmarshalInto(raw, &c)
	case "ModularLine":
		var c ModularLine
		return c, unmarshalInto(raw, &c)
	case "EntropicLine":
		var c EntropicLine
		return c, unmarshalInto(raw, &c)
	case "ZipperLine":
		var c ZipperLine
		return c, unmarshalInto(raw, &c)
	case "SameValue":
		var c SameValue
		return c, unmarshalInto(raw, &c)
	case "EqualityCage":
		var c EqualityCage
		return c, unmarshalInto(raw, &c)
	case "DutchFlatmates":
		var c DutchFlatmates
		return c, unmarshalInto(raw, &c)
	case "FullRank":
		var c FullRank
		return c, unmarshalInto(raw, &c)
	case "Regex":
		var c Regex
		return c, unmarshalInto(raw, &c)
	case "NFA":
		var c NFA
		return c, unmarshalInto(raw, &c)
	case "OrGivens":
		var c OrGivens
		return c, unmarshalInto(raw, &c)
	case "Or":
		children, err := parseChildren(raw)
		if err != nil {
			return nil, err
		}
		return Or{Children: children}, nil
	case "And":
		children, err := parseChildren(raw)
		if err != nil {
			return nil, err
		}
		return And{Children: children}, nil
	case "Set":
		var env childEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: malformed Set node: %v", engine.ErrInvalidConstraint, err)
		}
		children, err := ParseConstraints(env.Children)
		if err != nil {
			return nil, err
		}
		return Set{Name: env.Name, Children: children}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized constraint tag %q", engine.ErrInvalidConstraint, env.Tag)
	}
}

func parseChildren(raw json.RawMessage) ([]Constraint, error) {
	var env childEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed Or/And node: %v", engine.ErrInvalidConstraint, err)
	}
	return ParseConstraints(env.Children)
}

func unmarshalInto(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrInvalidConstraint, err)
	}
	return nil
}
