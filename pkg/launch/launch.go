// Package launch models declarative launch descriptions: argument
// declarations plus node records, resolved against command-line overrides
// immediately before process creation.
package launch

// Argument declares a named, overridable string input. The default is used
// when the invoking command line supplies no override.
type Argument struct {
	Name    string `json:"name"`
	Default string `json:"default"`
}

// Param binds a parameter name to a possibly late-bound value. Parameter
// order is preserved through resolution.
type Param struct {
	Name  string
	Value Substitution
}

// Output routing for a spawned node.
const (
	OutputScreen = "screen"
	OutputLog    = "log"
)

// NodeSpec describes one process to start: the package and executable that
// identify the binary, the instance name, the namespace the node runs
// under, and the parameters forwarded to it.
type NodeSpec struct {
	Package    string
	Executable string
	Name       string
	Namespace  Substitution
	Parameters []Param
	Output     string // "screen" | "log"
	EmulateTTY bool
}

// Description is an ordered launch description: argument declarations
// first, then node records. It is pure data; building one has no side
// effects and starts nothing. The runner resolves and spawns it.
type Description struct {
	Arguments []Argument
	Nodes     []NodeSpec
}
