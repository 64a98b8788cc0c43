package launch

import "github.com/pkg/errors"

// Validate checks the static shape of a description: unique argument
// names, complete node records, and that every Configuration reference
// names a declared argument.
func (d Description) Validate() error {
	declared := map[string]struct{}{}
	for i, a := range d.Arguments {
		if a.Name == "" {
			return errors.Errorf("arguments[%d] missing name", i)
		}
		if _, ok := declared[a.Name]; ok {
			return errors.Errorf("duplicate argument name %q", a.Name)
		}
		declared[a.Name] = struct{}{}
	}

	seenNodes := map[string]struct{}{}
	for i, n := range d.Nodes {
		if n.Package == "" {
			return errors.Errorf("nodes[%d] missing package", i)
		}
		if n.Executable == "" {
			return errors.Errorf("nodes[%d] missing executable", i)
		}
		if n.Name == "" {
			return errors.Errorf("nodes[%d] missing name", i)
		}
		if _, ok := seenNodes[n.Name]; ok {
			return errors.Errorf("duplicate node name %q", n.Name)
		}
		seenNodes[n.Name] = struct{}{}

		switch n.Output {
		case OutputScreen, OutputLog:
		default:
			return errors.Errorf("node %q unsupported output %q", n.Name, n.Output)
		}

		if err := checkReference(declared, n.Namespace); err != nil {
			return errors.Wrapf(err, "node %q namespace", n.Name)
		}
		seenParams := map[string]struct{}{}
		for _, p := range n.Parameters {
			if p.Name == "" {
				return errors.Errorf("node %q has a parameter without a name", n.Name)
			}
			if _, ok := seenParams[p.Name]; ok {
				return errors.Errorf("node %q duplicate parameter %q", n.Name, p.Name)
			}
			seenParams[p.Name] = struct{}{}
			if p.Value == nil {
				return errors.Errorf("node %q parameter %q missing value", n.Name, p.Name)
			}
			if err := checkReference(declared, p.Value); err != nil {
				return errors.Wrapf(err, "node %q parameter %q", n.Name, p.Name)
			}
		}
	}
	return nil
}

func checkReference(declared map[string]struct{}, s Substitution) error {
	c, ok := s.(Configuration)
	if !ok {
		return nil
	}
	if _, ok := declared[string(c)]; !ok {
		return errors.Errorf("references undeclared argument %q", string(c))
	}
	return nil
}
