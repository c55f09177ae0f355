package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	admin "github.com/goliatone/go-messmass/components/admin"
)

func TestScaffoldCreatesManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom-vars.yaml")
	var out bytes.Buffer
	cmd := &scaffoldCmd{ManifestPath: path, Label: "Vip Guests", Category: "Fans", Type: "count", Clicker: true, out: &out}
	if err := cmd.Run(); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	doc, err := admin.ReadVariableManifest(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if doc.Name != "custom-vars" || len(doc.Variables) != 1 {
		t.Fatalf("unexpected manifest %+v", doc)
	}
	def := doc.Variables[0]
	if def.Name != "vipGuests" || !def.Flags.VisibleInClicker || !def.IsCustom {
		t.Fatalf("unexpected definition %+v", def)
	}
	if !strings.Contains(out.String(), "vipGuests") {
		t.Fatalf("expected confirmation, got %q", out.String())
	}
}

func TestScaffoldDerivedAndDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	run := func(cmd *scaffoldCmd) error {
		cmd.ManifestPath = path
		cmd.out = &bytes.Buffer{}
		if cmd.Type == "" {
			cmd.Type = "count"
		}
		return cmd.Run()
	}
	if err := run(&scaffoldCmd{Label: "Home Fans", Category: "Fans", Manual: true}); err != nil {
		t.Fatalf("scaffold base: %v", err)
	}
	if err := run(&scaffoldCmd{Label: "Home Share", Name: "homeShare", Category: "Fans", Type: "percentage", Formula: "[homeFans] / 2"}); err != nil {
		t.Fatalf("scaffold derived: %v", err)
	}
	if err := run(&scaffoldCmd{Label: "Home Fans", Category: "Fans"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := run(&scaffoldCmd{Label: "Away Share", Category: "Fans", Formula: "[awayFans] / 2"}); err == nil {
		t.Fatalf("expected unknown formula reference error")
	}
	if err := run(&scaffoldCmd{Label: "Home Fans", Category: "Supporters", Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	doc, err := admin.ReadVariableManifest(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(doc.Variables) != 2 || doc.Variables[0].Category != "Supporters" {
		t.Fatalf("unexpected manifest %+v", doc.Variables)
	}
	if !doc.Variables[1].Derived || doc.Variables[1].Flags.EditableInManual {
		t.Fatalf("derived variables carry no flags: %+v", doc.Variables[1])
	}
}

func TestLintReportsEachManifest(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("version: \"1\"\nvariables:\n  - name: fans\n    label: Fans\n    type: count\n    category: Fans\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("version: \"1\"\nvariables:\n  - name: share\n    label: Share\n    type: count\n    category: Fans\n    derived: true\n    formula: \"[missing] * 2\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := (&lintCmd{Paths: []string{good}, out: &out}).Run(); err != nil {
		t.Fatalf("lint good: %v", err)
	}
	if !strings.Contains(out.String(), "1 variables (0 derived)") {
		t.Fatalf("unexpected lint output %q", out.String())
	}

	out.Reset()
	if err := (&lintCmd{Paths: []string{good, bad}, out: &out}).Run(); err == nil {
		t.Fatalf("expected lint failure")
	}
	if !strings.Contains(out.String(), "✗ "+bad) {
		t.Fatalf("expected failure line for %s, got %q", bad, out.String())
	}
}
