package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/docx"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/forms"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/preview"
)

// input selects a template and its fields.
type input struct {
	template   string
	form       string
	fields     []string
	fieldsFile string
	output     string
	strict     bool
}

func (in *input) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&in.template, "template", "t", "", "template file (YAML)")
	flags.StringVar(&in.form, "form", "", "built-in form name (default from FORMDOC_FORM)")
	flags.StringArrayVarP(&in.fields, "field", "f", nil, "field value as key=value (repeatable)")
	flags.StringVar(&in.fieldsFile, "fields", "", "YAML file mapping field names to values")
	flags.StringVarP(&in.output, "output", "o", "", "output file, - for stdout")
	flags.BoolVar(&in.strict, "strict", false, "fail when a referenced field is missing")
	cmd.MarkFlagsMutuallyExclusive("template", "form")
}

// source is a loaded template with its default output name.
type source struct {
	template *formdoc.Template
	title    string
	fileName string
}

func (in *input) load(a *app) (*source, error) {
	if in.template != "" {
		tmpl, err := a.engine.LoadTemplateFile(in.template)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(in.template), filepath.Ext(in.template))
		return &source{template: tmpl, title: tmpl.Name, fileName: base + ".docx"}, nil
	}

	name := in.form
	if name == "" {
		name = a.config.Form
	}
	form, err := forms.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(forms.Names(), ", "))
	}
	return &source{template: form.Template, title: form.Title, fileName: form.FileName}, nil
}

// fieldMap merges the fields file with --field flags; flags win.
func (in *input) fieldMap() (formdoc.Fields, error) {
	fields := formdoc.Fields{}
	if in.fieldsFile != "" {
		loaded, err := readFieldsFile(in.fieldsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			fields[k] = v
		}
	}
	for _, kv := range in.fields {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: want key=value", kv)
		}
		fields[key] = value
	}
	return fields, nil
}

// readFieldsFile reads a YAML mapping of field values. Scalars of any type
// are used as text; null values leave the field unset.
func readFieldsFile(path string) (formdoc.Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fields: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fields %s: %w", path, err)
	}
	fields := formdoc.Fields{}
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("parse fields %s: field %q is not a scalar", path, k)
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields, nil
}

func (in *input) checkWarnings(cmd *cobra.Command, warnings []formdoc.UnresolvedFieldWarning) error {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	if in.strict && len(warnings) > 0 {
		names := warningNames(warnings)
		return fmt.Errorf("%d unresolved field(s): %s", len(names), strings.Join(names, ", "))
	}
	return nil
}

func warningNames(warnings []formdoc.UnresolvedFieldWarning) []string {
	names := make([]string, 0, len(warnings))
	for _, w := range warnings {
		names = append(names, w.Field)
	}
	sort.Strings(names)
	return names
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func newRenderCmd(a *app) *cobra.Command {
	in := &input{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template to DOCX",
		Example: `  formdoc render --field client_name="Acme Corp" -o form.docx
  formdoc render --template my_form.yaml --fields values.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := in.load(a)
			if err != nil {
				return err
			}
			fields, err := in.fieldMap()
			if err != nil {
				return err
			}

			res, err := a.engine.Render(cmd.Context(), src.template, fields, docx.NewSerializer())
			if err != nil {
				return err
			}
			if err := in.checkWarnings(cmd, res.Warnings); err != nil {
				return err
			}

			out := in.output
			if out == "" {
				out = src.fileName
			}
			return writeOutput(cmd, out, res.Bytes)
		},
	}
	in.register(cmd)
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	in := &input{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a template to an HTML preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := in.load(a)
			if err != nil {
				return err
			}
			fields, err := in.fieldMap()
			if err != nil {
				return err
			}

			doc, warnings, err := a.engine.Build(cmd.Context(), src.template, fields)
			if err != nil {
				return err
			}
			if err := in.checkWarnings(cmd, warnings); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := preview.Render(&buf, doc, preview.Options{Title: src.title, Warnings: warnings}); err != nil {
				return err
			}
			out := in.output
			if out == "" {
				out = "-"
			}
			return writeOutput(cmd, out, buf.Bytes())
		},
	}
	in.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "formdoc %s\n", version)
		},
	}
}
