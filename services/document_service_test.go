package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/storage"
	"github.com/fadhlanhapp/egov-portal/testutil"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pdfBody = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\n"

func newDocumentFixture(t *testing.T, status string) (*DocumentService, *testutil.MemStore, string) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddApplication(models.Application{ID: appID, UserID: citizenID, StallID: stallID, Status: status})
	dir := t.TempDir()
	files, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	return NewDocumentService(store, files), store, dir
}

func upload(svc *DocumentService, userID int64, docType, name, body string) (*models.Document, error) {
	return svc.Upload(context.Background(), userID, appID, docType, name, int64(len(body)), strings.NewReader(body))
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	})
	require.NoError(t, err)
	return files
}

func TestDocumentService_CompletesApplication(t *testing.T) {
	svc, store, dir := newDocumentFixture(t, models.ApplicationPaid)

	doc, err := upload(svc, citizenID, models.DocumentLeaseContract, "signed lease.pdf", pdfBody)
	require.NoError(t, err)
	assert.Equal(t, "signed_lease.pdf", doc.OriginalName)
	assert.Contains(t, filepath.Base(doc.FilePath), "10_lease_contract_")
	assert.Equal(t, models.ApplicationPaid, store.Application(appID).Status)

	status, err := svc.List(context.Background(), citizenID, appID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DocumentBusinessPermit}, status.Missing)

	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	_, err = upload(svc, citizenID, models.DocumentBusinessPermit, "permit.png", png)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationDocumentsSubmitted, store.Application(appID).Status)

	logs := store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "documents_submitted", logs[0].Action)

	// replacing a document keeps one row per kind
	_, err = upload(svc, citizenID, models.DocumentLeaseContract, "lease-v2.pdf", pdfBody)
	require.NoError(t, err)
	assert.Len(t, store.Documents(appID), 2)
	assert.Len(t, storedFiles(t, dir), 3)
}

func TestDocumentService_RequiresPaidApplication(t *testing.T) {
	svc, _, dir := newDocumentFixture(t, models.ApplicationApproved)

	_, err := upload(svc, citizenID, models.DocumentLeaseContract, "lease.pdf", pdfBody)
	assertCode(t, err, utils.CodeConflict)
	assert.Empty(t, storedFiles(t, dir))
}

func TestDocumentService_OwnershipIsolation(t *testing.T) {
	svc, _, _ := newDocumentFixture(t, models.ApplicationPaid)

	_, err := upload(svc, strangerID, models.DocumentLeaseContract, "lease.pdf", pdfBody)
	assertCode(t, err, utils.CodeNotFound)

	_, err = svc.List(context.Background(), strangerID, appID)
	assertCode(t, err, utils.CodeNotFound)
}

func TestDocumentService_RejectsBadFiles(t *testing.T) {
	svc, _, dir := newDocumentFixture(t, models.ApplicationPaid)

	cases := map[string]struct {
		docType string
		name    string
		body    string
	}{
		"unknown type":      {"barangay_clearance", "clearance.pdf", pdfBody},
		"bad extension":     {models.DocumentLeaseContract, "lease.docx", pdfBody},
		"content mismatch":  {models.DocumentLeaseContract, "lease.pdf", "<html><script>alert(1)</script></html>"},
		"png claiming jpeg": {models.DocumentBusinessPermit, "permit.jpg", "\x89PNG\r\n\x1a\n"},
		"empty":             {models.DocumentLeaseContract, "lease.pdf", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := upload(svc, citizenID, tc.docType, tc.name, tc.body)
			assertCode(t, err, utils.CodeValidation)
		})
	}

	_, err := svc.Upload(context.Background(), citizenID, appID, models.DocumentLeaseContract, "lease.pdf",
		utils.MaxDocumentSize+1, strings.NewReader(pdfBody))
	assertCode(t, err, utils.CodeValidation)
	assert.Empty(t, storedFiles(t, dir))
}

func TestDocumentService_DatabaseFailureRemovesFile(t *testing.T) {
	svc, store, dir := newDocumentFixture(t, models.ApplicationPaid)
	store.Fail("documents.upsert", errors.New("disk full"))

	_, err := upload(svc, citizenID, models.DocumentLeaseContract, "lease.pdf", pdfBody)
	assertCode(t, err, utils.CodeTransient)
	assert.Empty(t, storedFiles(t, dir))
	assert.Empty(t, store.Documents(appID))
}

func TestDetectDocumentType(t *testing.T) {
	mime, err := DetectDocumentType("LEASE.PDF", []byte(pdfBody))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	mime, err = DetectDocumentType("permit.jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
}
