package validator

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func errorCodes(r *ValidationResult) []string {
	codes := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestValidateContentAcceptsPNG(t *testing.T) {
	v := NewDocumentValidator(nil, nil)
	data := pngOf(t, 100, 60)

	r := v.ValidateContent("scan.PNG", data)
	require.True(t, r.IsValid, r.Errors)
	assert.NoError(t, r.Err())
	assert.Equal(t, ".png", r.FileInfo.Extension)
	assert.Equal(t, "image/png", r.FileInfo.MimeType)
	assert.Len(t, r.FileInfo.Hash, 64)
	assert.Equal(t, 100, r.FileInfo.Metadata["width"])

	again := v.ValidateContent("other.png", data)
	assert.Equal(t, r.FileInfo.Hash, again.FileInfo.Hash)
}

func TestValidateContentRejects(t *testing.T) {
	v := NewDocumentValidator(nil, nil)

	cases := []struct {
		name     string
		filename string
		data     []byte
		code     string
	}{
		{"empty", "a.png", nil, "EMPTY_FILE"},
		{"extension", "a.docx", []byte("hello"), "INVALID_FILE_TYPE"},
		{"mime mismatch", "a.pdf", pngOf(t, 100, 100), "INVALID_MIME_TYPE"},
		{"too small", "a.png", pngOf(t, 10, 100), "IMAGE_TOO_SMALL"},
		{"bad pdf", "a.pdf", []byte("%PDF-1.4 truncated"), "INVALID_PDF"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := v.ValidateContent(tc.filename, tc.data)
			assert.False(t, r.IsValid)
			assert.Contains(t, errorCodes(r), tc.code)
			assert.Error(t, r.Err())
		})
	}
}

func TestValidateContentSizeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = 10
	r := NewDocumentValidator(nil, cfg).ValidateContent("a.png", pngOf(t, 100, 100))
	assert.Contains(t, errorCodes(r), "FILE_TOO_LARGE")
}

func TestValidateFiles(t *testing.T) {
	v := NewDocumentValidator(nil, nil)
	headers := []*multipart.FileHeader{
		fileHeader(t, "good.png", pngOf(t, 80, 80)),
		fileHeader(t, "bad.txt", []byte("text")),
	}

	results, err := v.ValidateFiles(headers)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsValid)
	assert.False(t, results[1].IsValid)

	r, data, err := v.ValidateFile(headers[0])
	require.NoError(t, err)
	assert.True(t, r.IsValid)
	assert.NotEmpty(t, data)
}
