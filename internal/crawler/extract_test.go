package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body><div class="-paxs row _no-g _4cl-3cm-shs">
<article class="prd _fb col c-prd">
	<a class="core" href="/defacto-puffer-jacket-123.html">
		<div class="img-c"><img class="img" data-src="https://img.example.com/puffer.jpg" src="data:image/gif;base64,R0lGOD"></div>
		<div class="info">
			<h3 class="name"> DeFacto Puffer Jacket </h3>
			<div class="prc">EGP 499</div>
			<div class="s-prc-w"><div class="old">EGP 899</div><div class="bdg _dsct _sm">44%</div></div>
		</div>
	</a>
</article>
<article class="prd _fb col c-prd">
	<a class="core" href="/defacto-slim-jeans-456.html">
		<h3 class="name">DeFacto Slim JEANS</h3>
		<div class="prc">EGP 300</div>
	</a>
</article>
<article class="prd _fb col c-prd">
	<a class="core" href="/defacto-parka-789.html">
		<img class="img" src="https://img.example.com/parka.jpg">
		<h3 class="name">DeFacto Parka</h3>
		<div class="prc">EGP 1,250 - EGP 1,400</div>
	</a>
</article>
<article class="prd _fb col c-prd">
	<a class="core" href="/defacto-coat-000.html">
		<h3 class="name">DeFacto Wool Coat</h3>
		<div class="prc">EGP 700</div>
		<div class="bdg _oos _xs">Out of stock</div>
	</a>
</article>
<article class="prd _fb col c-prd">
	<a class="core" href="/missing-price.html"><h3 class="name">No Price Jacket</h3></a>
</article>
<article class="prd _fb col c-prd">
	<div class="prc">EGP 100</div><h3 class="name">No Link Jacket</h3>
</article>
<article class="prd _fb col c-prd">
	<a class="core" href="https://other.example.com/absolute.html">
		<h3 class="name">Bomber Jacket</h3>
		<div class="prc">EGP 620</div>
	</a>
</article>
</div></body></html>`

func newTestExtractor() *Extractor {
	return NewExtractor(JumiaSelectors, "https://www.jumia.com.eg/ar", []string{"jean", " T-Shirt "})
}

func TestExtract(t *testing.T) {
	products, err := newTestExtractor().Extract(strings.NewReader(listingHTML))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, Product{
		Name:       "DeFacto Puffer Jacket",
		Price:      "EGP 499",
		Discount:   "EGP 899",
		Percentage: "44%",
		Image:      "https://img.example.com/puffer.jpg",
		Link:       "https://www.jumia.com.eg/ar/defacto-puffer-jacket-123.html",
	}, products[0])

	// no discount badge and no lazy-load attribute
	assert.Equal(t, Product{
		Name:  "DeFacto Parka",
		Price: "EGP 1,250 - EGP 1,400",
		Image: "https://img.example.com/parka.jpg",
		Link:  "https://www.jumia.com.eg/ar/defacto-parka-789.html",
	}, products[1])

	assert.Equal(t, "Bomber Jacket", products[2].Name)
	assert.Equal(t, "https://other.example.com/absolute.html", products[2].Link)
	assert.Empty(t, products[2].Image)
}

func TestExtractSkipsKeywordsCaseInsensitively(t *testing.T) {
	html := `<article class="prd"><a class="core" href="/a"><h3 class="name">Basic t-shirt</h3><div class="prc">EGP 99</div></a></article>
<article class="prd"><a class="core" href="/b"><h3 class="name">Denim Jacket</h3><div class="prc">EGP 199</div></a></article>`

	products, err := newTestExtractor().Extract(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Denim Jacket", products[0].Name)
}

func TestExtractEmptyPage(t *testing.T) {
	products, err := newTestExtractor().Extract(strings.NewReader(`<html><body><p>No results</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestExtractRequiresNonEmptyNameAndHref(t *testing.T) {
	html := `<article class="prd"><a class="core" href="/a"><h3 class="name">   </h3><div class="prc">EGP 99</div></a></article>
<article class="prd"><a class="core"><h3 class="name">Coat</h3><div class="prc">EGP 99</div></a></article>`

	products, err := newTestExtractor().Extract(strings.NewReader(html))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestResolveURL(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, "https://www.jumia.com.eg/ar/x.html", e.ResolveURL("/x.html"))
	assert.Equal(t, "https://cdn.example.com/x.html", e.ResolveURL("//cdn.example.com/x.html"))
	assert.Equal(t, "http://a.example.com/x", e.ResolveURL("http://a.example.com/x"))
}
