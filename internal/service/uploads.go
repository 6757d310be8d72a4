package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/ids"
	"github.com/noah-isme/civic-portal-api/pkg/storage"
)

type fileStorage interface {
	SaveStream(filename string, r io.Reader, maxBytes int64) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// Upload is a file received from a multipart form.
type Upload struct {
	FileName string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadPolicy restricts accepted attachments.
type UploadPolicy struct {
	AllowedExtensions []string
	MaxFileSizeBytes  int64
}

func (p UploadPolicy) allows(ext string) bool {
	if len(p.AllowedExtensions) == 0 {
		return true
	}
	for _, allowed := range p.AllowedExtensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if allowed == ext {
			return true
		}
	}
	return false
}

// storeUploads writes every upload under a generated name and returns the
// document rows to insert. The returned cleanup removes the stored files and
// is meant for callers whose database write fails afterwards.
func storeUploads(store fileStorage, policy UploadPolicy, uploads []Upload) ([]models.Document, func(), error) {
	documents := make([]models.Document, 0, len(uploads))
	cleanup := func() {
		for _, doc := range documents {
			_ = store.Delete(doc.FilePath)
		}
	}
	if len(uploads) == 0 {
		return documents, cleanup, nil
	}
	if store == nil {
		return nil, cleanup, appErrors.Clone(appErrors.ErrValidation, "file uploads are not enabled")
	}

	for _, upload := range uploads {
		doc, err := storeUpload(store, policy, upload)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		documents = append(documents, *doc)
	}
	return documents, cleanup, nil
}

func storeUpload(store fileStorage, policy UploadPolicy, upload Upload) (*models.Document, error) {
	original := filepath.Base(strings.TrimSpace(upload.FileName))
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || !policy.allows(ext) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", ext))
	}
	if policy.MaxFileSizeBytes > 0 && upload.Size > policy.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds the maximum file size", original))
	}
	if upload.Open == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "upload is not readable")
	}

	reader, err := upload.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	defer reader.Close()

	name := ids.FileName(ext)
	written, err := store.SaveStream(name, reader, policy.MaxFileSizeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds the maximum file size", original))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	return &models.Document{
		FilePath:         name,
		OriginalFileName: original,
		FileType:         strings.TrimPrefix(ext, "."),
		SizeBytes:        written,
	}, nil
}
