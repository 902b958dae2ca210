package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docintel/internal/models"
)

type mimeStub struct {
	name  string
	mimes map[string]bool
}

func (s *mimeStub) Name() string                    { return s.name }
func (s *mimeStub) CanProcess(mimeType string) bool { return s.mimes[mimeType] }
func (s *mimeStub) Close() error                    { return nil }

func (s *mimeStub) ExtractText(context.Context, models.Document) (*models.TextExtraction, error) {
	return &models.TextExtraction{Provider: s.name}, nil
}

func TestMimeTypeOf(t *testing.T) {
	cases := map[string]string{
		"scan.PDF":  "application/pdf",
		"photo.jpg": "image/jpeg",
		"tiff":      "image/tiff",
		".png":      "image/png",
	}
	for in, want := range cases {
		got, ok := MimeTypeOf(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := MimeTypeOf("notes.txt")
	assert.False(t, ok)
}

func TestProcessorFactoryRouting(t *testing.T) {
	pdfs := &mimeStub{name: "pdf", mimes: map[string]bool{"application/pdf": true}}
	images := &mimeStub{name: "images", mimes: map[string]bool{"image/png": true, "image/jpeg": true, "application/pdf": true}}
	f := NewProcessorFactoryWith(nil, pdfs, images)

	p, err := f.GetProcessor("application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", p.Name())

	p, err = f.GetProcessor("upload.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "images", p.Name())

	_, err = f.GetProcessor("image/tiff")
	assert.Error(t, err)
	_, err = f.GetProcessor("doc.docx")
	assert.Error(t, err)

	out, err := f.ExtractText(context.Background(), models.Document{Filename: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "images", out.Provider)

	assert.True(t, f.CanProcess("IMAGE/PNG"))
	assert.Equal(t, "router", f.Name())
	assert.NoError(t, f.Close())
}
