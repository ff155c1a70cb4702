package ignore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMatcher_UserRulesAndNegation(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/file.go",
		"*.tmp",
		"# comment",
		"",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: "vendor/lib/a.go", isDir: false, ignored: true},
		{path: "vendor/keep/file.go", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "src/main.go", isDir: false, ignored: false},
		{path: "./src/tool.tmp", isDir: false, ignored: true},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path, tc.isDir)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"generated/",
		"!generated/include/",
	})

	if !m.ShouldIgnore("generated/out/file.go", false) {
		t.Fatalf("expected generated/out/file.go to be ignored")
	}
	if m.ShouldIgnore("generated/include/file.go", false) {
		t.Fatalf("expected generated/include/file.go to be included")
	}
	if !m.ShouldIgnore("generated", true) {
		t.Fatalf("expected the generated directory itself to be ignored")
	}
	if m.ShouldIgnore("generated", false) {
		t.Fatalf("directory-only rule must not match a file named generated")
	}
}

func TestMatcher_AnchoredRule(t *testing.T) {
	m := NewMatcher([]string{"/docs/*.md"})

	if !m.ShouldIgnore("docs/intro.md", false) {
		t.Fatalf("expected anchored rule to match at root")
	}
	if m.ShouldIgnore("pkg/docs/intro.md", false) {
		t.Fatalf("anchored rule must not match below root")
	}
}

func TestMatcher_EmptyNeverIgnores(t *testing.T) {
	var nilMatcher *Matcher
	if nilMatcher.ShouldIgnore("anything", false) {
		t.Fatalf("nil matcher must not ignore")
	}
	if !NewMatcher(nil).Empty() {
		t.Fatalf("expected matcher without rules to be empty")
	}
}

func TestMatcher_GitIgnore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nsecrets/\n"), 0o644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	m := NewMatcher(nil)
	if err := m.UseGitIgnore(root); err != nil {
		t.Fatalf("UseGitIgnore failed: %v", err)
	}
	if m.Empty() {
		t.Fatalf("expected gitignore rules to be loaded")
	}
	if !m.ShouldIgnore("server.log", false) {
		t.Fatalf("expected *.log to be ignored")
	}
	if !m.ShouldIgnore("secrets", true) {
		t.Fatalf("expected secrets/ directory to be ignored")
	}
	if m.ShouldIgnore("main.py", false) {
		t.Fatalf("did not expect main.py to be ignored")
	}
}

func TestMatcher_GitIgnoreMissingIsNoop(t *testing.T) {
	m := NewMatcher(nil)
	if err := m.UseGitIgnore(t.TempDir()); err != nil {
		t.Fatalf("expected missing .gitignore to be ignored, got %v", err)
	}
	if !m.Empty() {
		t.Fatalf("expected matcher to stay empty")
	}
}

func TestLoadRules(t *testing.T) {
	root := t.TempDir()
	rules, err := LoadRules(root)
	if err != nil || rules != nil {
		t.Fatalf("expected no rules for missing file, got %v, %v", rules, err)
	}

	content := "# generated code\nfixtures/\n\n  *.snap  \n"
	if err := os.WriteFile(filepath.Join(root, RulesFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	rules, err = LoadRules(root)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	if want := []string{"fixtures/", "*.snap"}; !reflect.DeepEqual(rules, want) {
		t.Fatalf("expected %v, got %v", want, rules)
	}
}
