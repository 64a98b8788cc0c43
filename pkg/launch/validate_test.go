package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_OK(t *testing.T) {
	require.NoError(t, testDescription().Validate())
}

func TestValidate_DuplicateArgument(t *testing.T) {
	desc := testDescription()
	desc.Arguments = append(desc.Arguments, Argument{Name: "drone_id", Default: "x"})
	err := desc.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate argument")
}

func TestValidate_MissingNodeFields(t *testing.T) {
	desc := testDescription()
	desc.Nodes[0].Executable = ""
	require.Error(t, desc.Validate())

	desc = testDescription()
	desc.Nodes[0].Package = ""
	require.Error(t, desc.Validate())

	desc = testDescription()
	desc.Nodes[0].Name = ""
	require.Error(t, desc.Validate())
}

func TestValidate_UnsupportedOutput(t *testing.T) {
	desc := testDescription()
	desc.Nodes[0].Output = "both"
	err := desc.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported output")
}

func TestValidate_UndeclaredReference(t *testing.T) {
	desc := testDescription()
	desc.Nodes[0].Namespace = Configuration("fleet_id")
	err := desc.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "fleet_id")
}

func TestValidate_DuplicateParameter(t *testing.T) {
	desc := testDescription()
	desc.Nodes[0].Parameters = append(desc.Nodes[0].Parameters,
		Param{Name: "mode", Value: Text("slow")})
	err := desc.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate parameter")
}
