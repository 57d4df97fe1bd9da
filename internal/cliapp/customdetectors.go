package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d-oit/code-guardian/internal/cgerrors"
	"github.com/d-oit/code-guardian/internal/config"
	"github.com/d-oit/code-guardian/internal/detector"
	"github.com/d-oit/code-guardian/internal/match"
	"github.com/d-oit/code-guardian/internal/profile"
)

func newCustomDetectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom-detectors",
		Short: "Manage user-defined detector documents",
	}
	cmd.AddCommand(newCustomDetectorsCreateExamplesCommand())
	cmd.AddCommand(newCustomDetectorsListCommand())
	cmd.AddCommand(newCustomDetectorsLoadCommand())
	cmd.AddCommand(newCustomDetectorsTestCommand())
	return cmd
}

func newCustomDetectorsCreateExamplesCommand() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "create-examples",
		Short: "Write an example custom-detector document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := exampleCustomDetectorsYAML
			if outputPath == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			return os.WriteFile(outputPath, []byte(doc), 0644)
		},
	}
	cmd.Flags().StringVar(&outputPath, "output", "", "write the example to this file instead of stdout")
	return cmd
}

const exampleCustomDetectorsYAML = `# Example custom-detector document. Each entry compiles into a regex
# detector merged with the built-in registry for any scan that enables
# Custom(<name>).
detectors:
  - name: no-console-log
    description: flags leftover console.log calls
    pattern: 'console\.log\('
    file_extensions: [".js", ".ts"]
    case_sensitive: true
    multiline: false
    severity: low
    category: code_quality
    enabled: true
`

func newCustomDetectorsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in detector names and profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := detector.Builtins()
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "built-in detectors:")
			for _, d := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", d.Descriptor().Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "profiles:")
			for _, p := range profile.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
			return nil
		},
	}
}

func newCustomDetectorsLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Validate and list the detectors in a custom-detector document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadCustomDetectorFile(args[0])
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			for _, d := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.Name, d.Severity, d.Category)
			}
			return nil
		},
	}
}

func newCustomDetectorsTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <detectors-file> <target-file>",
		Short: "Run every detector in a custom-detector document against a single file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := loadCustomDetectorFile(args[0])
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return exitWith(exitConfigOrIO, cgerrors.ReadFailed(args[1], err))
			}

			for _, d := range docs {
				if !d.Enabled {
					continue
				}
				sev := d.Severity
				if sev == "" {
					sev = match.SeverityMedium
				}
				cat := d.Category
				if cat == "" {
					cat = match.CategoryCustom
				}
				desc := detector.Descriptor{
					Name:            d.Name,
					DefaultSeverity: sev,
					DefaultCategory: cat,
					CaseSensitive:   d.CaseSensitive,
					Multiline:       d.Multiline,
				}
				rd, err := detector.NewRegexDetector(desc, d.Pattern)
				if err != nil {
					return exitWith(exitConfigOrIO, cgerrors.InvalidPattern(d.Name, err.Error()))
				}
				matches, err := rd.Detect(args[1], content)
				if err != nil {
					return exitWith(exitConfigOrIO, err)
				}
				for _, m := range matches {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d: [%s] %s\n", m.FilePath, m.Line, m.Column, m.Severity, d.Name)
				}
			}
			return nil
		},
	}
}

func loadCustomDetectorFile(path string) ([]config.CustomDetectorDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cgerrors.ReadFailed(path, err)
	}
	return config.LoadCustomDetectorDocs(data, config.DetectFormat(path))
}
