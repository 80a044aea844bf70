package cascade

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/unify/internal/resolver"
)

func compose(t *testing.T, files resolver.Map, pageHTML, pagePath string) (string, error) {
	t.Helper()
	o := New(files)
	return o.Compose(context.Background(), pageHTML, pagePath, nil)
}

func TestCompose_NoCompositionAttribute_ByteIdentical(t *testing.T) {
	input := "<html>\n<body>\n  <p>plain &amp; simple</p>\n</body>\n</html>\n"

	out, err := compose(t, resolver.Map{}, input, "page.html")
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestCompose_MarkerOnlyInComment_ByteIdentical(t *testing.T) {
	input := `<html><body><!-- data-unify="x" --><p>hi</p></body></html>`

	out, err := compose(t, resolver.Map{}, input, "page.html")
	require.NoError(t, err)
	require.Equal(t, input, out)
}

func TestCompose_ScenarioA_LayoutContentSlot(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><body><main class="unify-content">placeholder</main></body></html>`,
	}
	page := `<html data-unify="layout.html"><body><div class="unify-content"><p>Hi</p></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, "<main")
	require.Contains(t, out, "<p>Hi</p>")
	require.NotContains(t, out, "placeholder")
	require.NotContains(t, out, "data-unify")
}

func TestCompose_ScenarioB_ComponentSplice(t *testing.T) {
	files := resolver.Map{
		"card.html": `<article><h3 class="unify-title">Default</h3></article>`,
	}
	page := `<html><body><div data-unify="card.html"></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, "<article>")
	require.Contains(t, out, "Default")
	require.NotContains(t, out, "data-unify")
}

func TestCompose_ComponentHostAreaOverride(t *testing.T) {
	files := resolver.Map{
		"card.html": `<article><h3 class="unify-title">Default</h3></article>`,
	}
	page := `<html><body><div data-unify="card.html"><span class="unify-title">Custom</span></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, "Custom")
	require.NotContains(t, out, "Default")
	// The component keeps its own tag for the overridden slot.
	require.Contains(t, out, "<h3")
}

func TestCompose_ComponentCommentsStripped(t *testing.T) {
	files := resolver.Map{
		"card.html": `<article><!-- internal note --><p>text</p></article>`,
	}
	page := `<html><body><div data-unify="card.html"></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)
	require.NotContains(t, out, "internal note")
}

func TestCompose_LayoutChain_TwoLevels(t *testing.T) {
	files := resolver.Map{
		"inner.html": `<html data-unify="outer.html"><head><meta name="level" content="inner"></head>` +
			`<body><div class="unify-content"><nav>inner nav</nav><div class="unify-page">slot</div></div></body></html>`,
		"outer.html": `<html><head><title>Outer</title></head>` +
			`<body><main class="unify-content">outer default</main></body></html>`,
	}
	page := `<html data-unify="inner.html"><body><div class="unify-page"><p>page content</p></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, "page content")
	require.Contains(t, out, "inner nav")
	require.NotContains(t, out, "outer default")
	// Middle layout metadata visible in the final head.
	require.Contains(t, out, `content="inner"`)
	require.Contains(t, out, "<title>Outer</title>")
}

func TestCompose_HeadPrecedence_PageMetaWins(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><head><meta name="description" content="L"></head>` +
			`<body><main class="unify-content"></main></body></html>`,
	}
	page := `<html data-unify="layout.html"><head><meta name="description" content="P"></head>` +
		`<body><div class="unify-content">x</div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, `content="P"`)
	require.NotContains(t, out, `content="L"`)
}

func TestCompose_Determinism(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><head><title>T</title><link rel="stylesheet" href="a.css"></head>` +
			`<body><header>H</header><main class="unify-content">d</main></body></html>`,
		"card.html": `<style>.card{}</style><article><h3 class="unify-title">Default</h3></article>`,
	}
	page := `<html data-unify="layout.html"><head><meta name="k" content="v"></head>` +
		`<body><div class="unify-content"><div data-unify="card.html"></div><p>text</p></div></body></html>`

	first, err := compose(t, files, page, "page.html")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := compose(t, files, page, "page.html")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCompose_CircularLayoutChain_Fails(t *testing.T) {
	files := resolver.Map{
		"a.html": `<html data-unify="b.html"><body><main class="unify-content"></main></body></html>`,
		"b.html": `<html data-unify="a.html"><body><main class="unify-content"></main></body></html>`,
	}
	page := `<html data-unify="a.html"><body><div class="unify-content">x</div></body></html>`

	_, err := compose(t, files, page, "page.html")
	require.Error(t, err)
	require.True(t, IsCircularDependency(err))

	var cdErr *CircularDependencyError
	require.ErrorAs(t, err, &cdErr)
	require.Equal(t, "a.html", cdErr.Path)
}

func TestCompose_SelfReferencingLayout_Fails(t *testing.T) {
	files := resolver.Map{
		"a.html": `<html data-unify="a.html"><body><main class="unify-content"></main></body></html>`,
	}
	page := `<html data-unify="a.html"><body><div class="unify-content">x</div></body></html>`

	_, err := compose(t, files, page, "page.html")
	require.True(t, IsCircularDependency(err))
}

func TestCompose_DepthExceeded_NonCyclicChain(t *testing.T) {
	files := resolver.Map{}
	for i := 0; i < 5; i++ {
		next := ""
		if i < 4 {
			next = ` data-unify="l` + string(rune('1'+i)) + `.html"`
		}
		files["l"+string(rune('0'+i))+".html"] = `<html` + next + `><body><main class="unify-content"></main></body></html>`
	}
	page := `<html data-unify="l0.html"><body><div class="unify-content">x</div></body></html>`

	o := New(files)
	o.MaxDepth = 3
	_, err := o.Compose(context.Background(), page, "page.html", nil)

	var de *DepthExceededError
	require.ErrorAs(t, err, &de)
	require.Equal(t, 3, de.Limit)
}

func TestCompose_MissingLayout_NamesFileAndPath(t *testing.T) {
	page := `<html data-unify="missing.html"><body><div class="unify-content">x</div></body></html>`

	_, err := compose(t, resolver.Map{}, page, "page.html")
	require.Error(t, err)
	require.True(t, resolver.IsNotFound(err))
	require.Contains(t, err.Error(), "missing.html")
	require.Contains(t, err.Error(), "page.html")
}

func TestCompose_CircularComponent_Fails(t *testing.T) {
	// A component whose splice re-introduces its own placeholder loops
	// until the iteration ceiling trips.
	files := resolver.Map{
		"a.html": `<div><div data-unify="a.html"></div></div>`,
	}
	page := `<html><body><div data-unify="a.html"></div></body></html>`

	o := New(files)
	o.MaxIterations = 10
	_, err := o.Compose(context.Background(), page, "page.html", nil)

	var ple *PlaceholderLoopError
	require.ErrorAs(t, err, &ple)
}

func TestCompose_ComponentReferencingActiveLayout_Circular(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><body><main class="unify-content"></main></body></html>`,
		"widget.html": `<div data-unify="layout.html"></div>`,
	}
	page := `<html data-unify="layout.html"><body><div class="unify-content">` +
		`<div data-unify="widget.html"></div></div></body></html>`

	_, err := compose(t, files, page, "page.html")
	require.True(t, IsCircularDependency(err))
}

func TestCompose_SharedStackAcrossFiles_SpuriousCycle(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><body><main class="unify-content">d</main></body></html>`,
	}
	page := `<html data-unify="layout.html"><body><div class="unify-content">x</div></body></html>`

	o := New(files)
	stack := NewProcessingStack()
	_, err := o.Compose(context.Background(), page, "one.html", stack)
	require.NoError(t, err)

	// A fresh stack composes fine; reusing one across unrelated files
	// must be the caller's bug, not silently tolerated.
	_, err = o.Compose(context.Background(), page, "two.html", stack)
	require.NoError(t, err) // entries were popped after the first call

	stack.Push("layout.html") // simulate a stuck entry from a bad caller
	_, err = o.Compose(context.Background(), page, "three.html", stack)
	require.True(t, IsCircularDependency(err))
}

func TestCompose_ComponentHeadContribution_MergedOnce(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><head><title>T</title></head><body><main class="unify-content"></main></body></html>`,
		"card.html":   `<style>.card{}</style><article>c</article>`,
	}
	page := `<html data-unify="layout.html"><body><div class="unify-content">` +
		`<div data-unify="card.html"></div><div data-unify="card.html"></div></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	// Two splices, one deduped style.
	require.Equal(t, 2, strings.Count(out, "<article>"), out)
	require.Equal(t, 1, strings.Count(out, ".card{}"), out)
}

func TestCompose_ComponentsOnlyWithoutHeadData_HeadUntouched(t *testing.T) {
	files := resolver.Map{
		"card.html": `<article>c</article>`,
	}
	page := `<html><head><meta name="x" content="1"><title>Keep</title></head>` +
		`<body><div data-unify="card.html"></div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, `<meta name="x" content="1">`)
	require.Contains(t, out, "<title>Keep</title>")
	require.Contains(t, out, "<article>c</article>")
}

func TestCompose_HeadPlaceholder_SplicedAfterMerge(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><head><title>T</title><script data-unify="analytics.html"></script></head>` +
			`<body><main class="unify-content"></main></body></html>`,
		"analytics.html": `<script src="https://example.org/a.js"></script>`,
	}
	page := `<html data-unify="layout.html"><body><div class="unify-content">x</div></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, `src="https://example.org/a.js"`)
	require.NotContains(t, out, "data-unify")
}

func TestCompose_HeadOnlyPlaceholderWithoutLayout_Spliced(t *testing.T) {
	files := resolver.Map{
		"analytics.html": `<script src="https://example.org/a.js"></script>`,
	}
	page := `<html><head><title>T</title><script data-unify="analytics.html"></script></head>` +
		`<body><p>hi</p></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, `src="https://example.org/a.js"`)
	require.Contains(t, out, "<title>T</title>")
	require.Contains(t, out, "<p>hi</p>")
	require.NotContains(t, out, "data-unify")
}

func TestCompose_LandmarkFallback_EndToEnd(t *testing.T) {
	files := resolver.Map{
		"layout.html": `<html><body><header>layout header</header><main>layout main</main><footer>layout footer</footer></body></html>`,
	}
	page := `<html data-unify="layout.html"><body><header><h1>Page</h1></header><main><p>content</p></main></body></html>`

	out, err := compose(t, files, page, "page.html")
	require.NoError(t, err)

	require.Contains(t, out, "<h1>Page</h1>")
	require.Contains(t, out, "<p>content</p>")
	require.Contains(t, out, "layout footer")
	require.NotContains(t, out, "layout main")
}

func TestCompose_FailureNamesOffendingSource(t *testing.T) {
	page := `<html data-unify="nope.html"><body></body></html>`

	_, err := compose(t, resolver.Map{}, page, "pages/deep/page.html")
	require.Error(t, err)
	require.Contains(t, err.Error(), "pages/deep/page.html")
	require.Contains(t, err.Error(), "nope.html")
}
