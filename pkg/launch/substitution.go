package launch

import "github.com/pkg/errors"

// Substitution is a late-bound string value. Descriptions store
// substitutions instead of resolved strings; the runner resolves them in a
// single pass against a Context right before spawning.
type Substitution interface {
	Resolve(ctx *Context) (string, error)
}

// Text is a literal substitution.
type Text string

func (t Text) Resolve(*Context) (string, error) { return string(t), nil }

// Configuration resolves to the value of the named launch argument.
type Configuration string

func (c Configuration) Resolve(ctx *Context) (string, error) {
	v, ok := ctx.Lookup(string(c))
	if !ok {
		return "", errors.Errorf("substitution references undeclared argument %q", string(c))
	}
	return v, nil
}
