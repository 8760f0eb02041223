package main

import (
	"log"
	"os"

	"github.com/common-fate/flowmodel/cmd/command"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "flowmodel",
		Usage: "compile and check process models",
		Commands: []*cli.Command{
			&command.Compile,
			&command.Check,
			&command.Render,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
