package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/storage"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/google/uuid"
)

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// DocumentService accepts the signed lease and business permit once an application is paid
type DocumentService struct {
	store repository.Store
	files storage.Store
	now   func() time.Time
}

func NewDocumentService(store repository.Store, files storage.Store) *DocumentService {
	return &DocumentService{store: store, files: files, now: time.Now}
}

// DetectDocumentType checks the extension and the first bytes agree on an accepted type
func DetectDocumentType(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := documentTypes[ext]
	if !ok {
		return "", utils.NewValidationError("Only PDF, JPG, JPEG and PNG files are accepted")
	}
	detected := http.DetectContentType(head)
	if detected != want {
		return "", utils.NewValidationError(fmt.Sprintf("File content does not match %s", ext))
	}
	return detected, nil
}

// Upload stores one document and completes the application when every required kind is present
func (s *DocumentService) Upload(ctx context.Context, userID, applicationID int64, docType, filename string, size int64, body io.Reader) (*models.Document, error) {
	if !isRequiredDocument(docType) {
		return nil, utils.NewValidationError(fmt.Sprintf("Unknown document type %q", docType))
	}
	if size <= 0 {
		return nil, utils.NewValidationError("File is empty")
	}
	if size > utils.MaxDocumentSize {
		return nil, utils.NewValidationError("File exceeds the 5 MB limit")
	}

	app, err := s.store.Repos().Applications.GetOwned(ctx, applicationID, userID, false)
	if err != nil {
		return nil, lookupError(err, "Application")
	}
	if err := checkAcceptsDocuments(app.Status); err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, utils.NewValidationError("Failed to read file")
	}
	head = head[:n]
	contentType, err := DetectDocumentType(filename, head)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("applications/%d/%d_%s_%s%s", applicationID, applicationID, docType, uuid.New().String(), ext)
	path, err := s.files.Save(ctx, key, io.MultiReader(bytes.NewReader(head), body), size, contentType)
	if err != nil {
		return nil, utils.NewTransientError("Failed to store document", err)
	}

	doc := &models.Document{
		ApplicationID: applicationID,
		DocumentType:  docType,
		FilePath:      path,
		OriginalName:  utils.CleanFileName(filepath.Base(filename)),
		FileSize:      size,
		UploadedAt:    s.now(),
	}
	err = s.store.RunInTx(ctx, func(r *repository.Repositories) error {
		app, err := r.Applications.GetOwned(ctx, applicationID, userID, true)
		if err != nil {
			return lookupError(err, "Application")
		}
		if err := checkAcceptsDocuments(app.Status); err != nil {
			return err
		}
		if err := r.Applications.UpsertDocument(ctx, doc); err != nil {
			return err
		}
		docs, err := r.Applications.ListDocuments(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != models.ApplicationPaid || len(missingDocuments(docs)) > 0 {
			return nil
		}

		ok, err := r.Applications.TransitionStatus(ctx, applicationID, models.ApplicationDocumentsSubmitted, models.ApplicationPaid)
		if err != nil || !ok {
			return err
		}
		return r.Audit.Append(ctx, &models.AuditLog{
			ActorID:      userID,
			Action:       "documents_submitted",
			EntityType:   "applications",
			EntityID:     fmt.Sprint(applicationID),
			BeforeStatus: models.ApplicationPaid,
			AfterStatus:  models.ApplicationDocumentsSubmitted,
			CreatedAt:    doc.UploadedAt,
		})
	})
	if err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			log.Printf("[documents] failed to remove orphaned %s: %v", key, delErr)
		}
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.NewTransientError(utils.ErrFailedToStore, err)
	}

	log.Printf("[documents] application %d uploaded %s", applicationID, docType)
	return doc, nil
}

// List returns the uploaded documents of an owned application and what is still missing
func (s *DocumentService) List(ctx context.Context, userID, applicationID int64) (*models.DocumentStatus, error) {
	repos := s.store.Repos()
	app, err := repos.Applications.GetOwned(ctx, applicationID, userID, false)
	if err != nil {
		return nil, lookupError(err, "Application")
	}
	docs, err := repos.Applications.ListDocuments(ctx, applicationID)
	if err != nil {
		return nil, utils.NewTransientError(utils.ErrFailedToRetrieve, err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &models.DocumentStatus{
		ApplicationID: applicationID,
		Status:        app.Status,
		Documents:     docs,
		Missing:       missingDocuments(docs),
	}, nil
}

func checkAcceptsDocuments(status string) error {
	switch status {
	case models.ApplicationPaid, models.ApplicationDocumentsSubmitted:
		return nil
	default:
		return utils.NewConflictError("Documents can only be uploaded after the application fee is paid")
	}
}

func isRequiredDocument(docType string) bool {
	for _, t := range models.RequiredDocuments {
		if t == docType {
			return true
		}
	}
	return false
}

func missingDocuments(docs []models.Document) []string {
	have := make(map[string]bool, len(docs))
	for _, d := range docs {
		have[d.DocumentType] = true
	}
	missing := []string{}
	for _, t := range models.RequiredDocuments {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
