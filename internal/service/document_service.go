package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type documentRepository interface {
	Add(ctx context.Context, requestID string, documents []models.Document) error
	ListByRequest(ctx context.Context, requestID string) ([]models.Document, error)
	FindByID(ctx context.Context, requestID, documentID string) (*models.Document, error)
}

type linkSigner interface {
	Sign(documentID, fileName string) (string, time.Time, error)
	Verify(token string) (string, string, error)
}

// DocumentServiceParams groups the collaborators of DocumentService.
type DocumentServiceParams struct {
	Documents documentRepository
	Requests  requestFinder
	Storage   fileStorage
	Signer    linkSigner
	Uploads   UploadPolicy
	BasePath  string
	Logger    *zap.Logger
}

// DocumentService manages request attachments and their download links.
type DocumentService struct {
	documents documentRepository
	requests  requestFinder
	storage   fileStorage
	signer    linkSigner
	uploads   UploadPolicy
	basePath  string
	policy    Policy
	logger    *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &DocumentService{
		documents: params.Documents,
		requests:  params.Requests,
		storage:   params.Storage,
		signer:    params.Signer,
		uploads:   params.Uploads,
		basePath:  params.BasePath,
		logger:    params.Logger,
	}
}

// List returns the documents of a request visible to the caller.
func (s *DocumentService) List(ctx context.Context, actor models.Identity, requestID string) ([]models.Document, error) {
	if _, err := s.visible(ctx, actor, requestID); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Add stores new files on a request owned by the caller.
func (s *DocumentService) Add(ctx context.Context, actor models.Identity, requestID string, uploads []Upload) ([]models.Document, error) {
	detail, err := s.visible(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAttachDocuments(actor, detail.CitizenID) {
		return nil, forbidden("only the request owner can add documents")
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one document is required")
	}

	docs, cleanup, err := storeUploads(s.storage, s.uploads, uploads)
	if err != nil {
		return nil, err
	}
	if err := s.documents.Add(ctx, requestID, docs); err != nil {
		cleanup()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save documents")
	}
	s.logger.Info("documents added", zap.String("request_id", requestID), zap.Int("count", len(docs)))
	return docs, nil
}

// Link issues a time-limited download URL for a document visible to the caller.
func (s *DocumentService) Link(ctx context.Context, actor models.Identity, requestID, documentID string) (*models.DocumentLink, error) {
	if _, err := s.visible(ctx, actor, requestID); err != nil {
		return nil, err
	}
	doc, err := s.find(ctx, requestID, documentID)
	if err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "document links are not configured")
	}
	token, expiresAt, err := s.signer.Sign(doc.ID, doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign document link")
	}
	link := fmt.Sprintf("%s/requests/%s/documents/%s/download?token=%s", s.basePath, url.PathEscape(requestID), url.PathEscape(doc.ID), url.QueryEscape(token))
	return &models.DocumentLink{DocumentID: doc.ID, URL: link, ExpiresAt: expiresAt}, nil
}

// Download opens the stored file for a signed link. The caller closes the file.
func (s *DocumentService) Download(ctx context.Context, requestID, documentID, token string) (*os.File, *models.Document, error) {
	if s.signer == nil || token == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token is required")
	}
	signedID, fileName, err := s.signer.Verify(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "download link is invalid or expired")
	}
	if signedID != documentID {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}

	doc, err := s.find(ctx, requestID, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath != fileName {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}

	file, err := s.storage.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document file is missing")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return file, doc, nil
}

func (s *DocumentService) visible(ctx context.Context, actor models.Identity, requestID string) (*models.RequestDetail, error) {
	detail, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !s.policy.CanViewRequest(actor, detail.CitizenID, detail.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return detail, nil
}

func (s *DocumentService) find(ctx context.Context, requestID, documentID string) (*models.Document, error) {
	doc, err := s.documents.FindByID(ctx, requestID, documentID)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}
