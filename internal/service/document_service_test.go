package service

import (
	"context"
	"database/sql"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/storage"
)

type mockDocumentRepo struct {
	docs map[string][]models.Document
}

func (m *mockDocumentRepo) Add(ctx context.Context, requestID string, documents []models.Document) error {
	for i := range documents {
		documents[i].ID = "doc-" + documents[i].OriginalFileName
		documents[i].RequestID = requestID
	}
	m.docs[requestID] = append(m.docs[requestID], documents...)
	return nil
}

func (m *mockDocumentRepo) ListByRequest(ctx context.Context, requestID string) ([]models.Document, error) {
	return m.docs[requestID], nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, requestID, documentID string) (*models.Document, error) {
	for _, d := range m.docs[requestID] {
		if d.ID == documentID {
			copied := d
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newDocumentFixture(t *testing.T) (*DocumentService, *mockDocumentRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	requests := &mockRequestRepo{requests: map[string]*models.RequestDetail{
		"r1": {Request: models.Request{ID: "r1", CitizenID: "citizen-1"}, DepartmentID: "dept-a"},
	}}
	repo := &mockDocumentRepo{docs: map[string][]models.Document{}}
	svc := NewDocumentService(DocumentServiceParams{
		Documents: repo,
		Requests:  requests,
		Storage:   store,
		Signer:    storage.NewLinkSigner("link-secret", time.Minute),
		Uploads:   UploadPolicy{AllowedExtensions: []string{"pdf", "png"}, MaxFileSizeBytes: 1 << 20},
		BasePath:  "/api",
	})
	return svc, repo
}

func TestDocumentServiceAddLinkDownload(t *testing.T) {
	svc, _ := newDocumentFixture(t)
	ctx := context.Background()

	docs, err := svc.Add(ctx, testCitizen, "r1", []Upload{textUpload("id.png", "PNGDATA")})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	listed, err := svc.List(ctx, testOfficer, "r1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	link, err := svc.Link(ctx, testOfficer, "r1", docs[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "/api/requests/r1/documents/"+docs[0].ID+"/download?token="))

	parsed, err := url.Parse(link.URL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")

	file, doc, err := svc.Download(ctx, "r1", docs[0].ID, token)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(body))
	assert.Equal(t, "id.png", doc.OriginalFileName)
}

func TestDocumentServiceAccessRules(t *testing.T) {
	svc, repo := newDocumentFixture(t)
	ctx := context.Background()
	repo.docs["r1"] = []models.Document{{ID: "d1", RequestID: "r1", FilePath: "stored.pdf"}}

	_, err := svc.Add(ctx, testOfficer, "r1", []Upload{textUpload("a.pdf", "x")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	stranger := models.Identity{UserID: "citizen-9", Role: models.RoleCitizen}
	_, err = svc.List(ctx, stranger, "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Link(ctx, stranger, "r1", "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Download(ctx, "r1", "d1", "forged.token.value.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	link, err := svc.Link(ctx, testCitizen, "r1", "d1")
	require.NoError(t, err)
	parsed, _ := url.Parse(link.URL)
	_, _, err = svc.Download(ctx, "r1", "other-doc", parsed.Query().Get("token"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Download(ctx, "r1", "d1", parsed.Query().Get("token"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
