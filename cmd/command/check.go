package command

import (
	"github.com/common-fate/clio"
	"github.com/urfave/cli/v2"
)

var Check = cli.Command{
	Name:  "check",
	Usage: "check that a process model compiles",
	Flags: append([]cli.Flag{fileFlag}, compilerFlags...),
	Action: func(c *cli.Context) error {
		m, err := load(c)
		if err != nil {
			clio.Error("process model is invalid")
			return err
		}

		clio.Successf("%s is valid: %d nodes, %d child models", m.Name(), m.Len(), len(m.ChildModels()))
		for _, cm := range m.ChildModels() {
			clio.Debugf("child model %s: %d nodes", cm.ID(), cm.Len())
		}
		return nil
	},
}
