package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowmodel"
	"github.com/common-fate/flowmodel/pkg/condition"
	"github.com/common-fate/flowmodel/pkg/document"
	"github.com/common-fate/flowmodel/pkg/noderr"
	"github.com/urfave/cli/v2"
)

var fileFlag = &cli.PathFlag{Name: "file", Aliases: []string{"f"}, Usage: "the process model YAML file", Required: true}

var compilerFlags = []cli.Flag{
	&cli.BoolFlag{Name: "lenient", Usage: "generate missing ids and drop dangling references instead of failing"},
	&cli.BoolFlag{Name: "check-conditions", Usage: "type-check condition expressions"},
}

// load reads and compiles the process model given by the --file flag.
// If compilation fails because of a particular node, the node's
// YAML source is printed to stderr.
func load(c *cli.Context) (*flowmodel.RootModel, error) {
	f := c.Path("file")

	data, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}

	doc, err := document.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	compiler := flowmodel.Compiler{Lenient: c.Bool("lenient")}
	if c.Bool("check-conditions") {
		compiler.Conditions, err = condition.NewEnv()
		if err != nil {
			return nil, err
		}
	}

	m, err := doc.Compile(&compiler)

	var ne *noderr.NodeError
	if errors.As(err, &ne) && ne.Path != "" {
		clio.Infof("node error at: %s", ne.Path)
		source, printErr := ne.PrettyPrint(data)
		if printErr != nil {
			clio.Errorf("error pretty printing YAML path: %s", printErr)
		}
		fmt.Fprintf(os.Stderr, "%s\n", source)
	}

	if err != nil {
		return nil, err
	}
	return m, nil
}
