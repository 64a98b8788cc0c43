package launch

import (
	"strings"

	"github.com/pkg/errors"
)

// Context holds the argument values for one launch session: declared
// defaults overlaid with command-line overrides.
type Context struct {
	values map[string]string
}

// NewContext builds a resolution context for the description. Override keys
// that do not name a declared argument are an error.
func NewContext(desc Description, overrides map[string]string) (*Context, error) {
	values := make(map[string]string, len(desc.Arguments))
	for _, a := range desc.Arguments {
		values[a.Name] = a.Default
	}
	for k, v := range overrides {
		if _, ok := values[k]; !ok {
			return nil, errors.Errorf("unknown launch argument %q", k)
		}
		values[k] = v
	}
	return &Context{values: values}, nil
}

func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Values returns a copy of the resolved argument values.
func (c *Context) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// ParseOverrides parses command-line key=value pairs.
func ParseOverrides(args []string) (map[string]string, error) {
	out := map[string]string{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("malformed override %q (want key=value)", a)
		}
		if _, dup := out[k]; dup {
			return nil, errors.Errorf("duplicate override %q", k)
		}
		out[k] = v
	}
	return out, nil
}

// ResolvedParam is a parameter binding after substitution.
type ResolvedParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResolvedNode is a node record with every substitution resolved, ready to
// hand to the runner.
type ResolvedNode struct {
	Package    string          `json:"package"`
	Executable string          `json:"executable"`
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace,omitempty"`
	Parameters []ResolvedParam `json:"parameters,omitempty"`
	Output     string          `json:"output"`
	EmulateTTY bool            `json:"emulate_tty"`
}

// Plan is a fully resolved launch description.
type Plan struct {
	Nodes []ResolvedNode `json:"nodes"`
}

// HasScreenNodes reports whether any node routes output to the console.
// Such nodes need the launcher to stay attached: their output streams have
// no life of their own once the launcher is gone.
func (p Plan) HasScreenNodes() bool {
	for _, n := range p.Nodes {
		if n.Output == OutputScreen {
			return true
		}
	}
	return false
}

// Resolve substitutes every late-bound value in the description against the
// context. The same description and context always produce a structurally
// identical plan.
func (d Description) Resolve(ctx *Context) (Plan, error) {
	plan := Plan{Nodes: make([]ResolvedNode, 0, len(d.Nodes))}
	for _, n := range d.Nodes {
		rn := ResolvedNode{
			Package:    n.Package,
			Executable: n.Executable,
			Name:       n.Name,
			Output:     n.Output,
			EmulateTTY: n.EmulateTTY,
		}
		if n.Namespace != nil {
			ns, err := n.Namespace.Resolve(ctx)
			if err != nil {
				return Plan{}, errors.Wrapf(err, "node %q namespace", n.Name)
			}
			rn.Namespace = ns
		}
		for _, p := range n.Parameters {
			v, err := p.Value.Resolve(ctx)
			if err != nil {
				return Plan{}, errors.Wrapf(err, "node %q parameter %q", n.Name, p.Name)
			}
			rn.Parameters = append(rn.Parameters, ResolvedParam{Name: p.Name, Value: v})
		}
		plan.Nodes = append(plan.Nodes, rn)
	}
	return plan, nil
}
