package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/common-fate/clio"
	"github.com/common-fate/flowmodel"
	"github.com/common-fate/flowmodel/cmd/command"
	"github.com/common-fate/flowmodel/pkg/document"
	"github.com/goccy/go-graphviz"
)

func main() {
	err := run()
	if err != nil {
		log.Fatal(err)
	}
}

func run() error {
	exampleFolder := "docs/examples"
	outputFolder := "docs/img"

	files, err := os.ReadDir(exampleFolder)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".yml" {
			clio.Infof("skipping %s: not a model file", file.Name())
			continue
		}
		name := strings.TrimSuffix(file.Name(), ".yml")

		data, err := os.ReadFile(filepath.Join(exampleFolder, file.Name()))
		if err != nil {
			return err
		}

		doc, err := document.Unmarshal(data)
		if err != nil {
			return err
		}

		m, err := doc.Compile(&flowmodel.Compiler{})
		if err != nil {
			return err
		}

		err = render(&m.ProcessModel, filepath.Join(outputFolder, name+".svg"))
		if err != nil {
			return err
		}

		for _, cm := range m.ChildModels() {
			err = render(&cm.ProcessModel, filepath.Join(outputFolder, name+"-"+cm.ID().String()+".svg"))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func render(m *flowmodel.ProcessModel, outfile string) error {
	var buf bytes.Buffer

	err := command.DOT(m, &buf)
	if err != nil {
		return err
	}

	err = command.RenderFile(buf.Bytes(), graphviz.SVG, outfile)
	if err != nil {
		return err
	}
	clio.Successf("rendered %s", outfile)
	return nil
}
