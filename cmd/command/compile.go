package command

import (
	"os"

	"github.com/common-fate/flowmodel/pkg/document"
	"github.com/urfave/cli/v2"
)

var Compile = cli.Command{
	Name:  "compile",
	Usage: "compile a process model and print it in normalized form",
	Flags: append([]cli.Flag{
		fileFlag,
		&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the normalized model to a file instead of stdout"},
	}, compilerFlags...),
	Action: func(c *cli.Context) error {
		m, err := load(c)
		if err != nil {
			return err
		}

		out, err := document.Marshal(m)
		if err != nil {
			return err
		}

		if o := c.Path("out"); o != "" {
			return os.WriteFile(o, out, 0644)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}
