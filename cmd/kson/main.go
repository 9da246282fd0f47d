// Command kson is a thin demo entry point over the public API in
// pkg/kson. It is not part of the specified surface (§1 marks CLI front
// ends an external collaborator); it exists only the way the teacher's
// own cmd/conduit exists — a minimal wrapper with no logic of its own —
// so the library is runnable from a shell during development.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kson-org/kson-sub001/internal/kson/messages"
	"github.com/kson-org/kson-sub001/pkg/kson"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kson",
		Short: "Parse and validate KSON documents",
	}
	root.AddCommand(newParseCmd())
	root.AddCommand(newValidateCmd())
	return root
}

func newParseCmd() *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a KSON document and print any diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result := kson.Parse(string(src), kson.Options{})
			sink := messages.New()
			sink.Add(result.Messages...)
			sink.Fprint(cmd.OutOrStdout(), !noColor)
			if sink.HasErrors() {
				return fmt.Errorf("%d diagnostic(s)", len(result.Messages))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "validate <document> <schema>",
		Short: "Validate a KSON document against a JSON-Schema-Draft-7 schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docSrc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			schemaSrc, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			parsed := kson.Parse(string(docSrc), kson.Options{})
			sink := messages.New()
			sink.Add(parsed.Messages...)
			if sink.HasErrors() {
				sink.Fprint(cmd.OutOrStdout(), !noColor)
				return fmt.Errorf("document failed to parse")
			}

			s, lookup, schemaMsgs := kson.ParseSchema(string(schemaSrc), kson.Options{})
			sink.Add(schemaMsgs...)
			if s == nil {
				sink.Fprint(cmd.OutOrStdout(), !noColor)
				return fmt.Errorf("schema failed to parse")
			}

			sink.Add(kson.Validate(parsed.Value, s, lookup)...)
			sink.Fprint(cmd.OutOrStdout(), !noColor)
			if sink.HasErrors() {
				return fmt.Errorf("%d diagnostic(s)", len(sink.Messages()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized diagnostic output")
	return cmd
}
