package command

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowmodel"
	"github.com/common-fate/flowmodel/pkg/identifier"
	"github.com/dominikbraun/graph/draw"
	"github.com/goccy/go-graphviz"
	"github.com/urfave/cli/v2"
)

var Render = cli.Command{
	Name:  "render",
	Usage: "draw the process model graph",
	Flags: append([]cli.Flag{
		fileFlag,
		&cli.StringFlag{Name: "child", Usage: "draw a child model instead of the root model"},
		&cli.StringFlag{Name: "format", Value: "dot", Usage: "the output format: dot, svg or png"},
		&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "the output file; required for svg and png"},
	}, compilerFlags...),
	Action: func(c *cli.Context) error {
		m, err := load(c)
		if err != nil {
			return err
		}

		pm := &m.ProcessModel
		if child := c.String("child"); child != "" {
			cm, ok := m.ChildModel(identifier.ID(child))
			if !ok {
				return fmt.Errorf("model %s has no child model %s", m.Name(), child)
			}
			pm = &cm.ProcessModel
		}

		var buf bytes.Buffer
		err = DOT(pm, &buf)
		if err != nil {
			return err
		}

		format := c.String("format")
		out := c.Path("out")

		if format == "dot" {
			if out == "" {
				_, err = os.Stdout.Write(buf.Bytes())
				return err
			}
			return os.WriteFile(out, buf.Bytes(), 0644)
		}

		if out == "" {
			return fmt.Errorf("--out is required for the %s format", format)
		}
		err = RenderFile(buf.Bytes(), graphviz.Format(format), out)
		if err != nil {
			return err
		}
		clio.Successf("rendered %s", out)
		return nil
	},
}

// DOT writes a process model graph in DOT format.
func DOT(m *flowmodel.ProcessModel, w io.Writer) error {
	g, err := m.Graph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}

// RenderFile renders a DOT graph to a file with graphviz.
func RenderFile(dot []byte, format graphviz.Format, filename string) error {
	switch format {
	case graphviz.SVG, graphviz.PNG:
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return err
	}
	gv := graphviz.New()
	defer gv.Close()

	return gv.RenderFilename(graph, format, filename)
}
