package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Gradient Descent\ntags:\n  - ml\n  - optimization\n---\n# Heading\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Gradient Descent" {
		t.Errorf("title = %q, want %q", r.Title, "Gradient Descent")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "ml" || r.Tags[1] != "optimization" {
		t.Errorf("tags = %v, want [ml optimization]", r.Tags)
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, _ := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r, _ := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestTitleOr(t *testing.T) {
	r, _ := Parse([]byte("no heading here"))
	if got := r.TitleOr("Inbox/Loss Functions.md"); got != "Loss Functions" {
		t.Errorf("TitleOr = %q, want %q", got, "Loss Functions")
	}
}

func TestSplitRaw_TemplateFrontmatter(t *testing.T) {
	tpl := "---\ntitle: {{title}}\nrelated: {{related}}\n---\n# {{title}}\n{{summary}}\n"
	front, rest := SplitRaw(tpl)
	if front != "---\ntitle: {{title}}\nrelated: {{related}}\n---\n" {
		t.Errorf("front = %q", front)
	}
	if rest != "# {{title}}\n{{summary}}\n" {
		t.Errorf("rest = %q", rest)
	}
	if front+rest != tpl {
		t.Error("front+rest must reassemble the input")
	}
}

func TestSplitRaw_NoFrontmatter(t *testing.T) {
	front, rest := SplitRaw("# {{title}}")
	if front != "" || rest != "# {{title}}" {
		t.Errorf("front = %q, rest = %q", front, rest)
	}
	front, _ = SplitRaw("---\nunterminated")
	if front != "" {
		t.Errorf("unterminated block should not count as frontmatter, got %q", front)
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	links := ExtractLinks("See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again.")
	if len(links) != 2 || links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	if links := ExtractLinks("see [[ ]] and [[|alias]]"); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{"tags": []any{"alpha"}}
	tags := extractTags("Some text #beta and #alpha again.", fm)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	title := deriveTitle(map[string]any{"title": "FM Title"}, "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}
