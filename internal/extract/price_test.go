package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionprobe/probe-cli/internal/model"
)

func TestPriceMetaTierWinsOverJSONLD(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="19.99">
		<meta property="product:price:currency" content="USD">
		<script type="application/ld+json">
			{"@type":"Product","offers":{"price":"15.00","priceCurrency":"EUR"}}
		</script>
	</head><body></body></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, model.PriceSourceMeta, p.Source)
	assert.Equal(t, "19.99", p.Amount)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "USD 19.99", p.Display)
}

func TestPriceJSONLDTier(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
		{"@type":"Product","name":"Widget","offers":{"priceCurrency":"EUR","price":"49.50"}}
	</script></head></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, model.PriceSourceJSONLD, p.Source)
	assert.Equal(t, "49.50", p.Amount)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "EUR 49.50", p.Display)
}

func TestPriceJSONLDNumericPrice(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
		{"offers":{"price":1299.5,"priceCurrency":"USD"}}
	</script></head></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, "1299.5", p.Amount)
	assert.Equal(t, model.PriceSourceJSONLD, p.Source)
}

func TestPriceJSONLDPrefersOffersSubtree(t *testing.T) {
	// A price field outside offers must not shadow the offer price.
	html := `<html><head><script type="application/ld+json">
		{"price":"1.00","offers":{"price":"89.00","priceCurrency":"GBP"}}
	</script></head></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, model.PriceSourceJSONLD, p.Source)
	assert.Equal(t, "89.00", p.Amount)
	assert.Equal(t, "GBP", p.Currency)
}

func TestPriceRegexTier(t *testing.T) {
	html := `<html><body><span class="deal">Now only $1,299.00 while stocks last</span></body></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, model.PriceSourceRegex, p.Source)
	assert.Equal(t, "1,299.00", p.Amount)
	assert.Equal(t, "$1,299.00", p.Display)
	assert.Empty(t, p.Currency)
}

func TestPriceRegexRupee(t *testing.T) {
	p := Price(`<p>MRP ₹499</p>`)
	require.NotNil(t, p)
	assert.Equal(t, "499", p.Amount)
	assert.Equal(t, "₹499", p.Display)
}

func TestPriceNoPatternReturnsNil(t *testing.T) {
	html := `<html><body><h1>A page about gardening</h1><p>No numbers with symbols here.</p></body></html>`
	assert.Nil(t, Price(html))
	assert.Nil(t, Price(""))
}

func TestPriceMalformedJSONLDIgnored(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{not json at all</script>
	</head><body>costs €12.50 today</body></html>`

	p := Price(html)
	require.NotNil(t, p)
	assert.Equal(t, model.PriceSourceRegex, p.Source)
	assert.Equal(t, "12.50", p.Amount)
}
