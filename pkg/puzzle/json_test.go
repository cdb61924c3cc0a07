package puzzle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConstraintsSimpleTags(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"tag":"Given","cell":5,"value":3}`),
		json.RawMessage(`{"tag":"AllDifferent","cells":[0,1,2,3]}`),
		json.RawMessage(`{"tag":"AntiKnight"}`),
	}
	out, err := ParseConstraints(raw)
	require.NoError(t, err)
	require.Len(t, out, 3)

	given, ok := out[0].(Given)
	require.True(t, ok)
	require.Equal(t, 5, given.Cell)
	require.Equal(t, 3, given.Value)

	ad, ok := out[1].(AllDifferent)
	require.True(t, ok)
	require.Equal(t, []int{0, 1, 2, 3}, ad.Cells)

	_, ok = out[2].(AntiKnight)
	require.True(t, ok)
}

func TestParseConstraintsCage(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"tag":"Cage","cells":[0,1,2],"sum":10}`),
	}
	out, err := ParseConstraints(raw)
	require.NoError(t, err)
	cage, ok := out[0].(Cage)
	require.True(t, ok)
	require.Equal(t, []int{0, 1, 2}, cage.Cells)
	require.Equal(t, 10, cage.Sum)
}

func TestParseConstraintsRejectsUnknownTag(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`{"tag":"NotARealConstraint"}`)}
	_, err := ParseConstraints(raw)
	require.Error(t, err)
}

func TestParseConstraintsRejectsMalformedJSON(t *testing.T) {
	raw := []json.RawMessage{json.RawMessage(`not json`)}
	_, err := ParseConstraints(raw)
	require.Error(t, err)
}

func TestParseConstraintsOrWithNestedChildren(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"tag":"Or","name":"branch","children":[
			{"tag":"Given","cell":0,"value":1},
			{"tag":"Given","cell":0,"value":2}
		]}`),
	}
	out, err := ParseConstraints(raw)
	require.NoError(t, err)
	or, ok := out[0].(Or)
	require.True(t, ok)
	require.Len(t, or.Children, 2)

	g0, ok := or.Children[0].(Given)
	require.True(t, ok)
	require.Equal(t, 1, g0.Value)
}

func TestParseConstraintsSetRecursesChildren(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"tag":"Set","name":"group","children":[
			{"tag":"Given","cell":1,"value":4},
			{"tag":"AllDifferent","cells":[1,2]}
		]}`),
	}
	out, err := ParseConstraints(raw)
	require.NoError(t, err)
	set, ok := out[0].(Set)
	require.True(t, ok)
	require.Equal(t, "group", set.Name)
	require.Len(t, set.Children, 2)
}

func TestFileUnmarshalsShapeAndConstraints(t *testing.T) {
	data := []byte(`{
		"shape": {"num_rows":4,"num_cols":4,"num_values":4,"box_height":2,"box_width":2},
		"constraints": [{"tag":"Given","cell":0,"value":1}]
	}`)
	var f File
	require.NoError(t, json.Unmarshal(data, &f))
	require.Equal(t, 4, f.Shape.NumRows)
	require.Equal(t, 2, f.Shape.BoxHeight)
	require.Len(t, f.Constraints, 1)

	constraints, err := ParseConstraints(f.Constraints)
	require.NoError(t, err)
	require.Len(t, constraints, 1)
}
