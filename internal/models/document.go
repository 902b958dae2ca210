package models

import (
	"time"
)

// FileType file category
type FileType string

const (
	PDF   FileType = "pdf"
	Image FileType = "image"
)

// Document is the raw input handed to a text extractor
type Document struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	MimeType string   `json:"mimeType"`
	FileType FileType `json:"fileType"`
	Content  []byte   `json:"-"`
}

type ProcessingTask struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"documentId"`
	Status     ProcessingStatus  `json:"status"`
	Type       string            `json:"type"`
	Priority   int               `json:"priority"`
	Progress   float64           `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusRunning    ProcessingStatus = "running"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
	StatusCancelled  ProcessingStatus = "cancelled"
	StatusSuperseded ProcessingStatus = "superseded"
)
