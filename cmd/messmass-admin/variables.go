package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ettle/strcase"

	admin "github.com/goliatone/go-messmass/components/admin"
)

type variablesCmd struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a variable definition to a manifest."`
	Lint     lintCmd     `cmd:"" help:"Validate one or more variable manifests."`
}

type scaffoldCmd struct {
	ManifestPath string `name:"manifest" required:"" type:"path" help:"Manifest YAML file to update (created when missing)."`
	Label        string `required:"" help:"Display label of the variable."`
	Name         string `help:"Identifier used in formulas (defaults to the camel cased label)."`
	Category     string `required:"" help:"Category the variable is grouped under."`
	Type         string `default:"count" enum:"count,numeric,percentage,currency,text" help:"Value type."`
	Formula      string `help:"Formula over other variables; makes the variable derived."`
	Description  string `help:"Optional description."`
	Clicker      bool   `help:"Show the variable in the clicker."`
	Manual       bool   `help:"Allow manual editing of the variable."`
	Overwrite    bool   `help:"Replace an existing definition with the same name."`

	out io.Writer
}

func (cmd *scaffoldCmd) Run() error {
	path, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("messmass-admin: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}
	def := cmd.definition()
	replaced := false
	for i := range doc.Variables {
		if doc.Variables[i].Name != def.Name {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("messmass-admin: manifest already defines %s (use --overwrite to replace)", def.Name)
		}
		def.ClickerOrder = doc.Variables[i].ClickerOrder
		doc.Variables[i] = def
		replaced = true
	}
	if !replaced {
		doc.Variables = append(doc.Variables, def)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "✓ Added %s to %s\n", def.Name, path)
	return nil
}

func (cmd *scaffoldCmd) definition() admin.VariableDefinition {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = strcase.ToCamel(cmd.Label)
	}
	def := admin.VariableDefinition{
		Name:        name,
		Label:       cmd.Label,
		Type:        admin.VariableType(cmd.Type),
		Category:    cmd.Category,
		Description: cmd.Description,
		Derived:     strings.TrimSpace(cmd.Formula) != "",
		Formula:     cmd.Formula,
		IsCustom:    true,
		Flags: admin.VariableFlags{
			VisibleInClicker: cmd.Clicker,
			EditableInManual: cmd.Manual,
		},
	}
	return def.Normalized()
}

func (cmd *scaffoldCmd) writer() io.Writer {
	if cmd.out != nil {
		return cmd.out
	}
	return os.Stdout
}

func loadOrInitManifest(path string) (*admin.VariableManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &admin.VariableManifest{Version: admin.ManifestVersion, Name: strcase.ToKebab(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))}, nil
		}
		return nil, fmt.Errorf("messmass-admin: stat manifest: %w", err)
	}
	return admin.ReadVariableManifest(path)
}

func writeManifest(path string, doc *admin.VariableManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("messmass-admin: create manifest dir: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("messmass-admin: write manifest: %w", err)
	}
	if err := doc.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type lintCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"Manifest files to validate."`

	out io.Writer
}

func (cmd *lintCmd) Run() error {
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	failed := 0
	for _, path := range cmd.Paths {
		doc, err := admin.ReadVariableManifest(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		derived := 0
		for _, def := range doc.Variables {
			if def.Derived {
				derived++
			}
		}
		fmt.Fprintf(out, "✓ %s: %d variables (%d derived)\n", path, len(doc.Variables), derived)
	}
	if failed > 0 {
		return fmt.Errorf("messmass-admin: %d of %d manifests failed validation", failed, len(cmd.Paths))
	}
	return nil
}
