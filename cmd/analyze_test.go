package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes is a minimal buffer that sniffs as image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

// jpegBytes is a minimal buffer that sniffs as image/jpeg.
func jpegBytes() []byte {
	return append([]byte("\xff\xd8\xff"), bytes.Repeat([]byte{0}, 64)...)
}

func TestValidateImagePNG(t *testing.T) {
	img, err := validateImage(pngBytes())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.NotEmpty(t, img.Base64)
}

func TestValidateImageJPEG(t *testing.T) {
	img, err := validateImage(jpegBytes())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)
}

func TestValidateImageWEBP(t *testing.T) {
	data := append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), bytes.Repeat([]byte{0}, 64)...)
	img, err := validateImage(data)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MediaType)
}

func TestValidateImageEmpty(t *testing.T) {
	_, err := validateImage(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestValidateImageTooLarge(t *testing.T) {
	data := append(pngBytes(), bytes.Repeat([]byte{0}, maxImageBytes)...)
	_, err := validateImage(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 MB limit")
}

func TestValidateImageUnsupportedType(t *testing.T) {
	_, err := validateImage([]byte("GIF89a lots of pixels here"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image type")
}
