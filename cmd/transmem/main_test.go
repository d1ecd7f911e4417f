package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/transmem/internal/models"
	"github.com/hyperjump/transmem/internal/transmem"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"Open", "file", "-lang", "fr"},
			expected: []string{"-lang", "fr", "Open", "file"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-lang", "fr", "Open file"},
			expected: []string{"-lang", "fr", "Open file"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"Open file"},
			expected: []string{"Open file"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "double dash stops reordering",
			args:     []string{"--", "-x", "-lang"},
			expected: []string{"--", "-x", "-lang"},
		},
		{
			name:     "lone dash is positional",
			args:     []string{"-", "b", "-lang", "fr"},
			expected: []string{"-lang", "fr", "-", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
	if got := splitList(" fr, ,pt_BR "); !reflect.DeepEqual(got, []string{"fr", "pt_BR"}) {
		t.Errorf("splitList = %v", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  root_path: "./TM"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, resolved, err := loadConfig("~/.config/transmem/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Chdir(t.TempDir())

	cfg, resolved, err := loadConfig("~/.config/transmem/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if want := filepath.Join(home, "data", "transmem", "TM"); cfg.Storage.RootPath != want {
		t.Errorf("root = %s, want %s", cfg.Storage.RootPath, want)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "transmem.toml")
	content := `
[storage]
root_path = "/srv/tm"
backend = "sqlite"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Storage.RootPath != "/srv/tm" || cfg.Storage.Backend != "sqlite" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
}

// writeConfig writes a config rooted in a fresh temp dir and returns its path
// and the memory root.
func writeConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "TM")
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  root_path: \"" + root + "\"\n" + extra
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path, root
}

func run(t *testing.T, fn func([]string, *bytes.Buffer) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := fn(args, &out); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func store(args []string, out *bytes.Buffer) error   { return runStore(args, out) }
func lookup(args []string, out *bytes.Buffer) error  { return runLookup(args, out) }
func export(args []string, out *bytes.Buffer) error  { return runExport(args, out) }
func imports(args []string, out *bytes.Buffer) error { return runImport(args, out) }
func status(args []string, out *bytes.Buffer) error  { return runStatus(args, out) }
func migrate(args []string, out *bytes.Buffer) error { return runMigrate(args, out) }

func TestStoreAndLookup(t *testing.T) {
	cfg, _ := writeConfig(t, "")

	if got := run(t, store, "-config", cfg, "-lang", "fr", "Open the file", "Ouvrir le fichier"); got != "created\n" {
		t.Errorf("first store = %q", got)
	}
	if got := run(t, store, "Open the file", "Ouvrir le fichier", "-config", cfg, "-lang", "fr"); got != "unchanged\n" {
		t.Errorf("repeated store = %q", got)
	}
	if got := run(t, store, "-config", cfg, "-lang", "fr", "Open the file", "Ouvre le fichier"); got != "appended\n" {
		t.Errorf("new translation = %q", got)
	}

	got := run(t, lookup, "-config", cfg, "-lang", "fr", "Open", "the", "file")
	want := "Exact match (score 100)\n  Ouvrir le fichier\n  Ouvre le fichier\n"
	if got != want {
		t.Errorf("exact lookup = %q, want %q", got, want)
	}

	var res models.LookupResult
	out := run(t, lookup, "-config", cfg, "-lang", "fr", "-output", "json", "Open the file please")
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("lookup json: %v\n%s", err, out)
	}
	if res.Match != models.MatchFuzzy || res.Score != 55 || res.Omits != 1 {
		t.Errorf("fuzzy lookup = %+v", res)
	}

	out = run(t, lookup, "-config", cfg, "-lang", "fr", "-max-omits", "0", "Open the file please")
	if !strings.HasPrefix(out, "No match for") {
		t.Errorf("lookup without omits = %q", out)
	}
}

func TestStore_usage(t *testing.T) {
	cfg, _ := writeConfig(t, "")
	var out bytes.Buffer
	if err := runStore([]string{"-config", cfg, "only-one"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("runStore with missing args: got %v, want errUsage", err)
	}
	if err := runLookup([]string{"-config", cfg, "-lang", "fr"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("runLookup without query: got %v, want errUsage", err)
	}
	if err := runExport([]string{"-config", cfg, "-format", "po"}, &out); !errors.Is(err, errUsage) {
		t.Errorf("runExport with bad format: got %v, want errUsage", err)
	}
}

func TestExportImportStatus(t *testing.T) {
	cfg, root := writeConfig(t, "")
	run(t, store, "-config", cfg, "-lang", "fr", "Open the file", "Ouvrir le fichier")
	run(t, store, "-config", cfg, "-lang", "fr", "Save", "Enregistrer")
	run(t, store, "-config", cfg, "-lang", "pt_BR", "Save", "Salvar")

	text := run(t, export, "-config", cfg, "-lang", "fr", "-format", "text")
	if !strings.Contains(text, "# fr\n") || !strings.Contains(text, "Save\n\t-> Enregistrer\n") {
		t.Errorf("text export:\n%s", text)
	}

	tmxPath := filepath.Join(t.TempDir(), "all.tmx")
	run(t, export, "-config", cfg, "-o", tmxPath)
	data, err := os.ReadFile(tmxPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `xml:lang="pt-BR"`) {
		t.Errorf("tmx export missing pt-BR:\n%s", data)
	}

	other := filepath.Join(t.TempDir(), "TM")
	out := run(t, imports, "-config", cfg, "-root", other, tmxPath)
	if want := tmxPath + ": imported 3 units\n"; out != want {
		t.Errorf("import = %q, want %q", out, want)
	}

	var stats []transmem.Stats
	out = run(t, status, "-config", cfg, "-root", other, "-output", "json")
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("status json: %v\n%s", err, out)
	}
	if len(stats) != 2 {
		t.Fatalf("status = %+v, want fr and pt_BR", stats)
	}
	byLang := map[string]transmem.Stats{}
	for _, s := range stats {
		byLang[s.Language] = s
	}
	if byLang["fr"].Originals != 2 || byLang["pt_BR"].Originals != 1 {
		t.Errorf("status = %+v", stats)
	}

	out = run(t, status, "-config", cfg, "-metrics")
	if !strings.Contains(out, "fr") || !strings.Contains(out, "transmem_open_instances") {
		t.Errorf("status text with metrics:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "pt_BR")); err != nil {
		t.Errorf("pt_BR memory directory: %v", err)
	}
}

func TestImport_selectedLanguage(t *testing.T) {
	cfg, root := writeConfig(t, "")
	tmxPath := filepath.Join(t.TempDir(), "in.tmx")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<tmx version="1.4">
  <header srclang="en" datatype="PlainText" segtype="sentence" adminlang="en" creationtool="x" o-tmf="x"/>
  <body>
    <tu>
      <tuv xml:lang="en"><seg>Cancel</seg></tuv>
      <tuv xml:lang="de"><seg>Abbrechen</seg></tuv>
      <tuv xml:lang="fr"><seg>Annuler</seg></tuv>
    </tu>
  </body>
</tmx>`
	if err := os.WriteFile(tmxPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	out := run(t, imports, "-config", cfg, "-lang", "de", tmxPath)
	if !strings.HasSuffix(out, "imported 1 units\n") {
		t.Errorf("import = %q", out)
	}
	if !transmem.IsSupported("de", root) {
		t.Error("de memory should exist")
	}
	if transmem.IsSupported("fr", root) {
		t.Error("fr was not selected and should not exist")
	}

	got := run(t, lookup, "-config", cfg, "-lang", "de", "Cancel")
	if !strings.Contains(got, "Abbrechen") {
		t.Errorf("lookup after import = %q", got)
	}
}

func TestMigrate(t *testing.T) {
	legacy := filepath.Join(t.TempDir(), "legacy")
	cfg, root := writeConfig(t, "  legacy_path: \""+legacy+"\"\n")
	run(t, store, "-config", cfg, "-root", legacy, "-lang", "fr", "Close", "Fermer")

	out := run(t, migrate, "-config", cfg)
	if !strings.Contains(out, legacy) || !strings.Contains(out, root) {
		t.Errorf("migrate = %q", out)
	}
	if _, err := os.Stat(filepath.Join(legacy, "fr")); !os.IsNotExist(err) {
		t.Errorf("legacy fr should be gone, stat err = %v", err)
	}
	if got := run(t, lookup, "-config", cfg, "-lang", "fr", "Close"); !strings.Contains(got, "Fermer") {
		t.Errorf("lookup after migrate = %q", got)
	}
}
