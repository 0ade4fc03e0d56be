package workflow_test

import (
	"testing"

	"github.com/n8nctl/n8nctl/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_KindAndAccessors(t *testing.T) {
	t.Run("Should round-trip through Raw for every primitive kind", func(t *testing.T) {
		v := workflow.NewValue(map[string]any{
			"s": "hello",
			"n": 2.5,
			"b": true,
			"a": []any{1.0, 2.0},
			"o": map[string]any{"x": "y"},
			"z": nil,
		})
		obj, ok := v.Object()
		require.True(t, ok)
		assert.Equal(t, workflow.KindString, obj["s"].Kind())
		assert.Equal(t, workflow.KindNumber, obj["n"].Kind())
		assert.Equal(t, workflow.KindBool, obj["b"].Kind())
		assert.Equal(t, workflow.KindArray, obj["a"].Kind())
		assert.Equal(t, workflow.KindObject, obj["o"].Kind())
		assert.Equal(t, workflow.KindNull, obj["z"].Kind())

		raw := v.Raw().(map[string]any)
		assert.Equal(t, "hello", raw["s"])
	})
}

func TestParsePath(t *testing.T) {
	t.Run("Should parse dotted and indexed segments", func(t *testing.T) {
		path, err := workflow.ParsePath("parameters.rules[2].value")
		require.NoError(t, err)
		require.Len(t, path, 4)
		assert.Equal(t, "parameters", path[0].Field)
		assert.Equal(t, "rules", path[1].Field)
		assert.True(t, path[2].IsIdx)
		assert.Equal(t, 2, path[2].Index)
		assert.Equal(t, "value", path[3].Field)
	})

	t.Run("Should error on an unterminated index", func(t *testing.T) {
		_, err := workflow.ParsePath("rules[2")
		assert.Error(t, err)
	})
}

func TestValue_Navigate(t *testing.T) {
	t.Run("Should walk a nested object/array tree", func(t *testing.T) {
		v := workflow.NewValue(map[string]any{
			"rules": []any{
				map[string]any{"value": "first"},
				map[string]any{"value": "second"},
			},
		})
		path, err := workflow.ParsePath("rules[1].value")
		require.NoError(t, err)
		got, ok := v.Navigate(path)
		require.True(t, ok)
		s, _ := got.String()
		assert.Equal(t, "second", s)
	})

	t.Run("Should report missing paths as not-found", func(t *testing.T) {
		v := workflow.NewValue(map[string]any{"a": 1.0})
		path, err := workflow.ParsePath("missing.field")
		require.NoError(t, err)
		_, ok := v.Navigate(path)
		assert.False(t, ok)
	})
}

func TestValue_Depth(t *testing.T) {
	t.Run("Should not crash on deeply nested input up to MaxDepth", func(t *testing.T) {
		var nested any = "leaf"
		for i := 0; i < workflow.MaxDepth+5; i++ {
			nested = map[string]any{"child": nested}
		}
		v := workflow.NewValue(nested)
		assert.GreaterOrEqual(t, v.Depth(), workflow.MaxDepth)
	})
}

func TestMergeValues(t *testing.T) {
	t.Run("Should recursively merge nested object keys, keeping untouched siblings", func(t *testing.T) {
		dst := workflow.NewValue(map[string]any{
			"errorWorkflow": map[string]any{"id": "123", "name": "old"},
			"timezone":      "UTC",
		})
		src := workflow.NewValue(map[string]any{
			"errorWorkflow": map[string]any{"name": "new"},
		})
		merged := workflow.MergeValues(dst, src)

		obj, ok := merged.Object()
		require.True(t, ok)
		tz, _ := obj["timezone"].String()
		assert.Equal(t, "UTC", tz, "keys absent from the patch survive untouched")

		errorWorkflow, ok := obj["errorWorkflow"].Object()
		require.True(t, ok)
		name, _ := errorWorkflow["name"].String()
		assert.Equal(t, "new", name)
		id, _ := errorWorkflow["id"].String()
		assert.Equal(t, "123", id, "sibling key under the merged object must survive")
	})

	t.Run("Should replace non-object values wholesale instead of merging", func(t *testing.T) {
		dst := workflow.NewValue(map[string]any{"tags": []any{"a", "b"}})
		src := workflow.NewValue(map[string]any{"tags": []any{"c"}})
		merged := workflow.MergeValues(dst, src)

		obj, ok := merged.Object()
		require.True(t, ok)
		arr, ok := obj["tags"].Array()
		require.True(t, ok)
		require.Len(t, arr, 1)
		s, _ := arr[0].String()
		assert.Equal(t, "c", s)
	})

	t.Run("Should return src unchanged when src is not an object", func(t *testing.T) {
		dst := workflow.NewValue(map[string]any{"x": 1.0})
		src := workflow.NewValue("scalar")
		merged := workflow.MergeValues(dst, src)
		s, ok := merged.String()
		require.True(t, ok)
		assert.Equal(t, "scalar", s)
	})
}
