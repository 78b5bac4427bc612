package markup

// Notes:
// - Tests go through Parse/Equations/Replace/Render only.
// - Serialized forms are asserted loosely (prefix/contains) because the
//   parser normalizes attribute quoting; the cache key only needs them to be
//   stable, which TestEquations_SerializedStable covers.

import (
	"strings"
	"testing"

	"github.com/alnah/go-htmlatex/internal/latex"
)

// ---------------------------------------------------------------------------
// TestEquations - Recognition
// ---------------------------------------------------------------------------

func TestEquations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		html         string
		wantKinds    []latex.Kind
		wantVariants []string
		wantContents []string
	}{
		{
			name:         "inline eq",
			html:         `<p>Area: <span class="eq">x^2</span></p>`,
			wantKinds:    []latex.Kind{latex.Inline},
			wantVariants: []string{"eq"},
			wantContents: []string{"x^2"},
		},
		{
			name:         "block numeq",
			html:         `<div class="numeq">E = mc^2</div>`,
			wantKinds:    []latex.Kind{latex.Block},
			wantVariants: []string{"numeq"},
			wantContents: []string{"E = mc^2"},
		},
		{
			name:         "document order",
			html:         `<div class="alignedeq">a</div><p><span class="det">b</span><span class="matrix">c</span></p>`,
			wantKinds:    []latex.Kind{latex.Block, latex.Inline, latex.Inline},
			wantVariants: []string{"alignedeq", "det", "matrix"},
			wantContents: []string{"a", "b", "c"},
		},
		{
			name:         "first recognized class token wins",
			html:         `<span class="highlight eq det">y</span>`,
			wantKinds:    []latex.Kind{latex.Inline},
			wantVariants: []string{"eq"},
			wantContents: []string{"y"},
		},
		{
			name:         "content trimmed and entities decoded",
			html:         "<span class=\"eq\">\n  a &lt; b &amp;&amp; c  \n</span>",
			wantKinds:    []latex.Kind{latex.Inline},
			wantVariants: []string{"eq"},
			wantContents: []string{"a < b && c"},
		},
		{
			name:         "nested markup flattened to text",
			html:         `<div class="numeq">a<b>+</b>b</div>`,
			wantKinds:    []latex.Kind{latex.Block},
			wantVariants: []string{"numeq"},
			wantContents: []string{"a+b"},
		},
		{
			name:         "inline span with block-only variant ignored",
			html:         `<span class="numeq">x</span>`,
			wantVariants: nil,
		},
		{
			name:         "other tags ignored",
			html:         `<p class="eq">x</p><code class="eq">y</code>`,
			wantVariants: nil,
		},
		{
			name:         "no class ignored",
			html:         `<span>x</span><div id="eq">y</div>`,
			wantVariants: nil,
		},
		{
			name:         "full document",
			html:         "<!DOCTYPE html><html><body><span class=\"eq\">z</span></body></html>",
			wantKinds:    []latex.Kind{latex.Inline},
			wantVariants: []string{"eq"},
			wantContents: []string{"z"},
		},
		{
			name:         "empty content",
			html:         `<span class="eq"></span>`,
			wantKinds:    []latex.Kind{latex.Inline},
			wantVariants: []string{"eq"},
			wantContents: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Parse(tt.html)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			nodes, err := doc.Equations()
			if err != nil {
				t.Fatalf("Equations() error = %v", err)
			}
			if len(nodes) != len(tt.wantVariants) {
				t.Fatalf("Equations() found %d, want %d", len(nodes), len(tt.wantVariants))
			}
			for i, n := range nodes {
				if n.Kind != tt.wantKinds[i] {
					t.Errorf("node %d Kind = %v, want %v", i, n.Kind, tt.wantKinds[i])
				}
				if n.Variant != tt.wantVariants[i] {
					t.Errorf("node %d Variant = %q, want %q", i, n.Variant, tt.wantVariants[i])
				}
				if n.Content != tt.wantContents[i] {
					t.Errorf("node %d Content = %q, want %q", i, n.Content, tt.wantContents[i])
				}
			}
		})
	}
}

func TestEquations_NestedEquationBelongsToOuter(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<div class="numeq">a <span class="eq">b</span></div>`)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := doc.Equations()
	if len(nodes) != 1 || nodes[0].Variant != "numeq" || nodes[0].Content != "a b" {
		t.Errorf("Equations() = %+v, want only the outer numeq", nodes)
	}
}

func TestEquations_SerializedStable(t *testing.T) {
	t.Parallel()

	parse := func(s string) *Node {
		doc, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		nodes, _ := doc.Equations()
		if len(nodes) != 1 {
			t.Fatalf("found %d nodes in %q", len(nodes), s)
		}
		return nodes[0]
	}

	a := parse(`<p><span class="eq">x^2</span></p>`)
	b := parse(`<div><span class='eq'>x^2</span> tail</div>`)
	if a.Serialized != b.Serialized {
		t.Errorf("same element serialized differently: %q vs %q", a.Serialized, b.Serialized)
	}
	if a.Serialized != `<span class="eq">x^2</span>` {
		t.Errorf("Serialized = %q", a.Serialized)
	}

	c := parse(`<span class="eq">x ^2</span>`)
	if c.Serialized == a.Serialized {
		t.Error("inner whitespace must change the serialized form")
	}
}

// ---------------------------------------------------------------------------
// TestReplace / TestRender - Rewriting
// ---------------------------------------------------------------------------

func TestReplaceAndRender_Fragment(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<p>Area: <span class="eq">x^2</span> units</p>`)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := doc.Equations()
	doc.Replace(nodes[0], "/images/a/abc.png")
	doc.Replace(nodes[0], "/images/b/other.png") // no-op

	got, err := doc.Render()
	if err != nil {
		t.Fatal(err)
	}
	want := `<p>Area: <img src="/images/a/abc.png" /> units</p>`
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestReplaceAndRender_Document(t *testing.T) {
	t.Parallel()

	src := "<!DOCTYPE html><html><head><title>T</title></head><body><div class=\"numeq\">a</div><p>text</p></body></html>"
	doc, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	nodes, _ := doc.Equations()
	doc.Replace(nodes[0], "/i/0/k.png")

	got, err := doc.Render()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "<title>T</title>", `<img src="/i/0/k.png" />`, "<p>text</p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "numeq") {
		t.Error("equation element still present after Replace")
	}
}

func TestRender_FragmentHasNoWrapper(t *testing.T) {
	t.Parallel()

	doc, err := Parse(`<p>hello</p>`)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := doc.Render()
	if got != "<p>hello</p>" {
		t.Errorf("Render() = %q, want fragment without html/body", got)
	}
}

func TestImageTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"/images/a/abc.png", `<img src="/images/a/abc.png" />`},
		{`/x"onerror="alert(1)`, `<img src="/x&#34;onerror=&#34;alert(1)" />`},
		{"/a?b=1&c=2", `<img src="/a?b=1&amp;c=2" />`},
	}
	for _, tt := range tests {
		if got := ImageTag(tt.src); got != tt.want {
			t.Errorf("ImageTag(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
