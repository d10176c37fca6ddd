package automation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type tagSettings struct {
	TagName string `json:"tagName"`
	Count   int    `json:"count"`
}

func TestActionRegistry(t *testing.T) {
	first := succeed("add_tag")
	second := succeed("add_tag")
	registry := NewActionRegistry(first, succeed("send_sms"), second)

	require.Equal(t, []string{"add_tag", "send_sms"}, registry.Types())
	handler, ok := registry.Lookup("add_tag")
	require.True(t, ok)
	require.Same(t, second, handler)

	_, ok = registry.Lookup("noop_xyz")
	require.False(t, ok)

	registry.Register(succeed("create_task"))
	require.Len(t, registry.Types(), 3)
}

func TestTypedActionFunction(t *testing.T) {
	handler := TypedActionFunction("add_tag", func(ctx context.Context, settings tagSettings, record Record) (ActionResult, error) {
		if settings.TagName == "" {
			return Failed("Tag name is required"), nil
		}
		return Succeeded("Tag added", map[string]any{"tagName": settings.TagName, "count": settings.Count}), nil
	})
	require.Equal(t, "add_tag", handler.Type())
	ctx := context.Background()

	result, err := handler.Handle(ctx, map[string]any{"tagName": "VIP", "count": 2.0}, Record{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, map[string]any{"tagName": "VIP", "count": 2}, result.Data)

	result, err = handler.Handle(ctx, nil, Record{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "Tag name is required", result.Message)

	// Settings of the wrong shape are a failed result, not an error
	result, err = handler.Handle(ctx, map[string]any{"tagName": 7}, Record{})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "Invalid add_tag settings")
}

func TestActionResults(t *testing.T) {
	require.Equal(t, ActionResult{Success: true, Message: "ok"}, Succeeded("ok", nil))
	require.Equal(t, ActionResult{Success: false, Message: "bad"}, Failed("bad"))
}
