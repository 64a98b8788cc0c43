package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testDescription() Description {
	return Description{
		Arguments: []Argument{
			{Name: "drone_id", Default: "drone0"},
			{Name: "base_frame", Default: "base_link"},
		},
		Nodes: []NodeSpec{
			{
				Package:    "demo",
				Executable: "demo_node",
				Name:       "demo",
				Namespace:  Configuration("drone_id"),
				Parameters: []Param{
					{Name: "base_frame", Value: Configuration("base_frame")},
					{Name: "mode", Value: Text("fast")},
				},
				Output: OutputScreen,
			},
		},
	}
}

func TestNewContext_DefaultsAndOverrides(t *testing.T) {
	desc := testDescription()

	ctx, err := NewContext(desc, nil)
	require.NoError(t, err)
	v, ok := ctx.Lookup("drone_id")
	require.True(t, ok)
	require.Equal(t, "drone0", v)

	ctx, err = NewContext(desc, map[string]string{"drone_id": "drone7"})
	require.NoError(t, err)
	v, _ = ctx.Lookup("drone_id")
	require.Equal(t, "drone7", v)
	v, _ = ctx.Lookup("base_frame")
	require.Equal(t, "base_link", v)
}

func TestNewContext_UnknownOverrideFails(t *testing.T) {
	_, err := NewContext(testDescription(), map[string]string{"altitude": "10"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "altitude")
}

func TestResolve_LateBinding(t *testing.T) {
	desc := testDescription()
	ctx, err := NewContext(desc, map[string]string{"base_frame": "body"})
	require.NoError(t, err)

	plan, err := desc.Resolve(ctx)
	require.NoError(t, err)
	require.Len(t, plan.Nodes, 1)

	n := plan.Nodes[0]
	require.Equal(t, "drone0", n.Namespace)
	require.Equal(t, []ResolvedParam{
		{Name: "base_frame", Value: "body"},
		{Name: "mode", Value: "fast"},
	}, n.Parameters)
}

func TestResolve_UndeclaredConfigurationFails(t *testing.T) {
	desc := testDescription()
	desc.Nodes[0].Parameters = append(desc.Nodes[0].Parameters,
		Param{Name: "extra", Value: Configuration("missing")})

	ctx, err := NewContext(desc, nil)
	require.NoError(t, err)
	_, err = desc.Resolve(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestResolve_Idempotent(t *testing.T) {
	desc := testDescription()
	overrides := map[string]string{"drone_id": "drone3"}

	ctx1, err := NewContext(desc, overrides)
	require.NoError(t, err)
	plan1, err := desc.Resolve(ctx1)
	require.NoError(t, err)

	ctx2, err := NewContext(desc, overrides)
	require.NoError(t, err)
	plan2, err := desc.Resolve(ctx2)
	require.NoError(t, err)

	require.Equal(t, plan1, plan2)
}

func TestPlan_HasScreenNodes(t *testing.T) {
	require.False(t, Plan{}.HasScreenNodes())
	require.False(t, Plan{Nodes: []ResolvedNode{{Output: OutputLog}}}.HasScreenNodes())
	require.True(t, Plan{Nodes: []ResolvedNode{{Output: OutputLog}, {Output: OutputScreen}}}.HasScreenNodes())
}

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides([]string{"drone_id=drone2", "base_frame=body"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"drone_id": "drone2", "base_frame": "body"}, got)

	_, err = ParseOverrides([]string{"no-equals-sign"})
	require.Error(t, err)

	_, err = ParseOverrides([]string{"=value"})
	require.Error(t, err)

	_, err = ParseOverrides([]string{"a=1", "a=2"})
	require.Error(t, err)

	got, err = ParseOverrides([]string{"key=a=b"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"key": "a=b"}, got)
}
