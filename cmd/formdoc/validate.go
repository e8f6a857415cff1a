package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/docx"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/forms"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		templates []string
		packages  []string
		builtin   bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check template files and DOCX packages",
		Long: `Validate loads each template, builds it with no fields and reports the
fields it references. Each DOCX package is opened, its parts are listed and
its structure is checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(templates) == 0 && len(packages) == 0 && !builtin {
				return errors.New("nothing to validate: pass --template, --docx or --builtin")
			}

			errs := &formdoc.MultiError{}
			if builtin {
				for _, name := range forms.Names() {
					form, err := forms.Lookup(name)
					if err != nil {
						errs.Append(err)
						continue
					}
					errs.Append(checkTemplate(cmd, a, "form "+name, form.Template))
				}
			}
			for _, path := range templates {
				tmpl, err := a.engine.LoadTemplateFile(path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n", path)
					errs.Append(err)
					continue
				}
				errs.Append(checkTemplate(cmd, a, path, tmpl))
			}
			for _, path := range packages {
				errs.Append(checkPackage(cmd, path))
			}
			return errs.ErrorOrNil()
		},
	}

	cmd.Flags().StringArrayVarP(&templates, "template", "t", nil, "template file to validate (repeatable)")
	cmd.Flags().StringArrayVar(&packages, "docx", nil, "DOCX package to inspect (repeatable)")
	cmd.Flags().BoolVar(&builtin, "builtin", false, "validate the built-in forms")
	return cmd
}

func checkTemplate(cmd *cobra.Command, a *app, name string, tmpl *formdoc.Template) error {
	_, _, err := a.engine.Build(cmd.Context(), tmpl, formdoc.Fields{})
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n", name)
		return fmt.Errorf("%s: %w", name, err)
	}
	fields := tmpl.FieldNames()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d sections, %d fields)\n", name, len(tmpl.Sections), len(fields))
	for _, field := range fields {
		fmt.Fprintf(cmd.OutOrStdout(), "  field %s\n", field)
	}
	return nil
}

func checkPackage(cmd *cobra.Command, path string) error {
	pkg, err := docx.OpenFile(path)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n", path)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := pkg.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: FAIL\n", path)
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	for _, part := range pkg.Names() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", part)
	}
	return nil
}
