package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tztgracious/Jobify/internal/apperr"
)

var pdfMagic = []byte("%PDF-")

// StoredFile is where an upload landed.
type StoredFile struct {
	FileName     string
	Path         string
	OriginalName string
}

type StorageService interface {
	SaveResume(file *multipart.FileHeader) (*StoredFile, error)
	Save(originalName string, size int64, src io.Reader) (*StoredFile, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath  string
	maxFileSize int64
}

func NewStorageService(uploadPath string, maxFileSize int64) StorageService {
	return &storageService{
		uploadPath:  uploadPath,
		maxFileSize: maxFileSize,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveResume stores an uploaded résumé PDF under a unique name.
func (s *storageService) SaveResume(file *multipart.FileHeader) (*StoredFile, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.Save(file.Filename, file.Size, src)
}

// Save validates and writes src. Rejections carry the apperr.ErrValidation marker.
func (s *storageService) Save(originalName string, size int64, src io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext != ".pdf" {
		return nil, apperr.Validation("invalid file extension %q: only .pdf is accepted", ext)
	}

	if s.maxFileSize > 0 && size > s.maxFileSize {
		return nil, apperr.Validation("file too large: %d bytes exceeds limit of %d", size, s.maxFileSize)
	}

	header := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(src, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if !bytes.Equal(header[:n], pdfMagic) {
		return nil, apperr.Validation("file content is not a PDF document")
	}

	uniqueFilename := fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(header[:n]), src)); err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StoredFile{
		FileName:     uniqueFilename,
		Path:         filePath,
		OriginalName: filepath.Base(originalName),
	}, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
