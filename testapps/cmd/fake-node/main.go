// fake-node implements the node runtime contract for manual testing:
// install it as <root>/lib/<package>/<executable> and point skylaunch at it.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

type paramList []string

func (p *paramList) String() string { return fmt.Sprint(*p) }
func (p *paramList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var name, namespace string
	var params paramList
	flag.StringVar(&name, "node-name", "", "Node instance name")
	flag.StringVar(&namespace, "namespace", "/", "Node namespace")
	flag.Var(&params, "param", "Parameter binding key=value (repeatable)")
	flag.Parse()

	_, _ = fmt.Fprintf(os.Stdout, "node %s up in namespace %s\n", name, namespace)
	for _, p := range params {
		_, _ = fmt.Fprintf(os.Stdout, "param %s\n", p)
	}

	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for range t.C {
		_, _ = fmt.Fprintf(os.Stdout, "%s: tick\n", name)
	}
}
