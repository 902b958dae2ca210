package validator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/docintel/pkg/logger"
)

type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64
	AllowedTypes map[string][]string // extension to accepted sniffed MIME types
	MinDimension int
	MaxDimension int
	MaxPageCount int
}

type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string                 `json:"filename"`
	Size      int64                  `json:"size"`
	MimeType  string                 `json:"mimeType"`
	Extension string                 `json:"extension"`
	Hash      string                 `json:"hash"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize: 50 * 1024 * 1024,
		AllowedTypes: map[string][]string{
			".pdf":  {"application/pdf"},
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
			".tif":  {"image/tiff", "application/octet-stream"},
			".tiff": {"image/tiff", "application/octet-stream"},
		},
		MinDimension: 50,
		MaxDimension: 20000,
		MaxPageCount: 3000,
	}
}

func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &DocumentValidator{
		logger: log,
		config: config,
	}
}

func (v *DocumentValidator) ValidateFile(file *multipart.FileHeader) (*ValidationResult, []byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, v.config.MaxFileSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return v.ValidateContent(file.Filename, data), data, nil
}

// ValidateContent checks size, extension, sniffed MIME type and the
// format specific limits. The hash is the SHA-256 of data.
func (v *DocumentValidator) ValidateContent(filename string, data []byte) *ValidationResult {
	hash := sha256.Sum256(data)
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      int64(len(data)),
			Extension: strings.ToLower(filepath.Ext(filename)),
			MimeType:  http.DetectContentType(data),
			Hash:      hex.EncodeToString(hash[:]),
			Metadata:  make(map[string]interface{}),
		},
	}

	result.add(v.performBasicValidation(result.FileInfo)...)
	if result.IsValid {
		result.add(v.validateMimeType(result.FileInfo)...)
	}
	if result.IsValid {
		result.add(v.performTypeSpecificValidation(data, &result.FileInfo)...)
	}

	if !result.IsValid {
		v.logger.Debug("File rejected",
			logger.String("filename", filename),
			logger.Any("errors", result.Errors),
		)
	}
	return result
}

func (v *DocumentValidator) ValidateFiles(files []*multipart.FileHeader) ([]*ValidationResult, error) {
	results := make([]*ValidationResult, len(files))
	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			result, _, err := v.ValidateFile(file)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Err joins the validation messages, nil when valid
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return fmt.Errorf("invalid file %s: %s", r.FileInfo.Filename, strings.Join(msgs, "; "))
}

func (r *ValidationResult) add(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.IsValid = false
	r.Errors = append(r.Errors, errs...)
}

func (v *DocumentValidator) performBasicValidation(fileInfo FileInfo) []ValidationError {
	var errors []ValidationError

	if fileInfo.Size == 0 {
		errors = append(errors, ValidationError{
			Code:    "EMPTY_FILE",
			Message: "File is empty",
			Field:   "size",
		})
	}
	if fileInfo.Size > v.config.MaxFileSize {
		errors = append(errors, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}
	if _, ok := v.config.AllowedTypes[fileInfo.Extension]; !ok {
		errors = append(errors, ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: fmt.Sprintf("File type %s is not allowed", fileInfo.Extension),
			Field:   "extension",
		})
	}

	return errors
}

func (v *DocumentValidator) validateMimeType(fileInfo FileInfo) []ValidationError {
	for _, mime := range v.config.AllowedTypes[fileInfo.Extension] {
		if mime == fileInfo.MimeType {
			return nil
		}
	}
	return []ValidationError{{
		Code:    "INVALID_MIME_TYPE",
		Message: fmt.Sprintf("Invalid MIME type %s for extension %s", fileInfo.MimeType, fileInfo.Extension),
		Field:   "mimeType",
	}}
}

func (v *DocumentValidator) performTypeSpecificValidation(data []byte, fileInfo *FileInfo) []ValidationError {
	switch fileInfo.Extension {
	case ".pdf":
		return v.validatePDF(data, fileInfo)
	default:
		return v.validateImage(data, fileInfo)
	}
}

func (v *DocumentValidator) validatePDF(data []byte, fileInfo *FileInfo) []ValidationError {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return []ValidationError{{
			Code:    "INVALID_PDF",
			Message: fmt.Sprintf("PDF cannot be opened: %v", err),
		}}
	}

	pages := reader.NumPage()
	fileInfo.Metadata["pages"] = pages
	if v.config.MaxPageCount > 0 && pages > v.config.MaxPageCount {
		return []ValidationError{{
			Code:    "TOO_MANY_PAGES",
			Message: fmt.Sprintf("PDF has %d pages, limit is %d", pages, v.config.MaxPageCount),
			Field:   "pages",
		}}
	}
	return nil
}

func (v *DocumentValidator) validateImage(data []byte, fileInfo *FileInfo) []ValidationError {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return []ValidationError{{
			Code:    "INVALID_IMAGE",
			Message: fmt.Sprintf("Image cannot be decoded: %v", err),
		}}
	}

	fileInfo.Metadata["format"] = format
	fileInfo.Metadata["width"] = cfg.Width
	fileInfo.Metadata["height"] = cfg.Height
	if format == "tiff" {
		fileInfo.MimeType = "image/tiff"
	}

	var errors []ValidationError
	if cfg.Width < v.config.MinDimension || cfg.Height < v.config.MinDimension {
		errors = append(errors, ValidationError{
			Code:    "IMAGE_TOO_SMALL",
			Message: fmt.Sprintf("Image %dx%d is below the minimum of %d pixels", cfg.Width, cfg.Height, v.config.MinDimension),
			Field:   "dimensions",
		})
	}
	if cfg.Width > v.config.MaxDimension || cfg.Height > v.config.MaxDimension {
		errors = append(errors, ValidationError{
			Code:    "IMAGE_TOO_LARGE",
			Message: fmt.Sprintf("Image %dx%d exceeds the maximum of %d pixels", cfg.Width, cfg.Height, v.config.MaxDimension),
			Field:   "dimensions",
		})
	}
	return errors
}
