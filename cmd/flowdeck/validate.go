package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowdeck/flowdeck/internal/workflow"
)

var validateCmd = &cobra.Command{
	Use:         "validate FILE...",
	Short:       "Check workflow definition files without touching the database.",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationStructuredLog: "false"},
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				cmd.PrintErrf("%s: %v\n", path, err)
				failed++
				continue
			}
			def, err := workflow.Parse(raw)
			if err != nil {
				cmd.PrintErrf("%s: %v\n", path, err)
				failed++
				continue
			}
			cmd.Printf("%s: ok (%s, %d steps)\n", path, def.Name, len(def.Steps))
		}
		if failed > 0 {
			return &exitError{code: 1, err: fmt.Errorf("%d of %d files invalid", failed, len(args)), silent: true}
		}
		return nil
	},
}
