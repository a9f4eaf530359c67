// Command mustach reads a data file and renders each template argument
// against it, writing the result to the output stream.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Inkimera/mustach"
	"github.com/Inkimera/mustach/jsonprovider"
	"github.com/Inkimera/mustach/yamlprovider"
)

var (
	useYAML    bool
	outputPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mustach DATA-FILE TEMPLATE...",
		Short: "Render Mustache templates against a JSON or YAML data file",
		Long: "mustach reads DATA-FILE (JSON by default, or YAML with --yaml;\n" +
			"\"-\" reads standard input) and renders each TEMPLATE file argument\n" +
			"in turn to standard output, or to -o's file.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runMustach,
	}
	cmd.Flags().BoolVar(&useYAML, "yaml", false, "parse DATA-FILE as YAML instead of JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write rendered output to FILE instead of stdout")
	return cmd
}

func runMustach(cmd *cobra.Command, args []string) error {
	dataPath := args[0]
	templatePaths := args[1:]

	data, err := readFileOrStdin(dataPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dataPath, err)
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	provider, err := newProvider(data)
	if err != nil {
		return diagnose(err)
	}
	provider.WithPartials(&mustach.FilePartials{Paths: []string{dirOf(dataPath)}})

	for _, tp := range templatePaths {
		tmpl, err := os.ReadFile(tp)
		if err != nil {
			return fmt.Errorf("reading %s: %w", tp, err)
		}
		if err := mustach.FProcess(string(tmpl), provider, out, 0); err != nil {
			return diagnose(err)
		}
	}
	return nil
}

// newProvider parses data as YAML or JSON, per the --yaml flag, into the
// shared jsonprovider.Provider backend (yamlprovider.Parse normalizes
// YAML's decode shape and hands back the same concrete type).
func newProvider(data []byte) (*jsonprovider.Provider, error) {
	if useYAML {
		return yamlprovider.Parse(data)
	}
	return jsonprovider.Parse(data)
}

func dirOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "."
}

func readFileOrStdin(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// diagnose maps a mustach numeric Code to its fixed English message,
// writing nothing itself (cobra prints the returned error) but ensuring
// the text matches the closed taxonomy.
func diagnose(err error) error {
	code := mustach.CodeOf(err)
	return fmt.Errorf("%s (code %d)", code.Message(), int(code))
}
