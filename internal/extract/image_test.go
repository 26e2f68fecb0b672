package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageOGMetaTier(t *testing.T) {
	html := `<html><head>
		<meta property="og:image" content="https://cdn.example.com/widget.jpg">
		<script type="application/ld+json">{"image":"https://other.example.com/ld.jpg"}</script>
	</head><body><img src="/fallback.png"></body></html>`

	assert.Equal(t, "https://cdn.example.com/widget.jpg", Image(html, "https://shop.example.com/p/1"))
}

func TestImageTwitterMetaFallback(t *testing.T) {
	html := `<html><head>
		<meta name="twitter:image" content="https://cdn.example.com/card.png">
	</head></html>`

	assert.Equal(t, "https://cdn.example.com/card.png", Image(html, ""))
}

func TestImageJSONLDStringAndObject(t *testing.T) {
	str := `<html><head><script type="application/ld+json">
		{"@type":"Product","image":"https://cdn.example.com/ld.jpg"}
	</script></head></html>`
	assert.Equal(t, "https://cdn.example.com/ld.jpg", Image(str, ""))

	obj := `<html><head><script type="application/ld+json">
		{"@type":"Product","image":{"@type":"ImageObject","url":"https://cdn.example.com/obj.jpg"}}
	</script></head></html>`
	assert.Equal(t, "https://cdn.example.com/obj.jpg", Image(obj, ""))

	arr := `<html><head><script type="application/ld+json">
		{"@type":"Product","image":["https://cdn.example.com/a.jpg","https://cdn.example.com/b.jpg"]}
	</script></head></html>`
	assert.Equal(t, "https://cdn.example.com/a.jpg", Image(arr, ""))
}

func TestImageImgTagTier(t *testing.T) {
	html := `<html><body><div><img src="/assets/hero.webp" alt=""></div></body></html>`
	assert.Equal(t, "https://shop.example.com/assets/hero.webp",
		Image(html, "https://shop.example.com/p/widget"))
}

func TestImageProtocolRelative(t *testing.T) {
	html := `<html><head><meta property="og:image" content="//cdn.example.com/pr.jpg"></head></html>`
	assert.Equal(t, "https://cdn.example.com/pr.jpg", Image(html, "http://shop.example.com"))
}

func TestImageRelativePathResolution(t *testing.T) {
	html := `<html><body><img src="../img/cam.png"></body></html>`
	assert.Equal(t, "https://shop.example.com/catalog/img/cam.png",
		Image(html, "https://shop.example.com/catalog/cameras/x100"))
}

func TestImageNoneFound(t *testing.T) {
	assert.Empty(t, Image(`<html><body><p>text only</p></body></html>`, "https://x.example.com"))
	assert.Empty(t, Image("", "https://x.example.com"))
}
