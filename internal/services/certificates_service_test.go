package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/types"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, row *types.User) (*types.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return false, errors.New("not implemented")
}

type fakeCertificateRepo struct {
	rows []*types.Certificate
}

func (f *fakeCertificateRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Certificate) (*types.Certificate, error) {
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeCertificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certificate, error) {
	for _, c := range f.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCertificateRepo) GetBySerial(ctx context.Context, tx *gorm.DB, serial string) (*types.Certificate, error) {
	for _, c := range f.rows {
		if c.Serial == serial {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCertificateRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error) {
	for _, c := range f.rows {
		if c.UserID == userID && c.CourseID == courseID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func certificateServiceFixture(t *testing.T, ledger EntitlementService) (CertificateService, *fakeCertificateRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	user := &types.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	course := &types.Course{ID: uuid.New(), AuthorID: uuid.New(), Title: "Intro to Analytical Engines", Slug: "intro"}
	version := &types.CourseVersion{
		ID:            uuid.New(),
		CourseID:      course.ID,
		VersionNumber: 1,
		Status:        types.VersionStatusPublished,
	}
	certRepo := &fakeCertificateRepo{}
	svc := NewCertificateService(
		nil,
		testLogger(t),
		certRepo,
		&fakeUserRepo{users: map[uuid.UUID]*types.User{user.ID: user}},
		&fakeCourseRepo{courses: map[uuid.UUID]*types.Course{course.ID: course}},
		&fakeVersionRepo{versions: []*types.CourseVersion{version}},
		&fakeVideoRepo{byVersion: map[uuid.UUID][]*types.Video{
			version.ID: {video(1, false), video(1, false), video(1, true)},
		}},
		ledger,
		"CourseVault",
	)
	return svc, certRepo, user.ID, course.ID
}

func TestIssueCertificate(t *testing.T) {
	svc, _, userID, courseID := certificateServiceFixture(t, &fakeLedger{ent: activeEntitlement()})

	cert, err := svc.IssueCertificate(context.Background(), userID, courseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert.StudentName != "Ada Lovelace" {
		t.Errorf("student name: got %q", cert.StudentName)
	}
	if cert.CompletedLessons != 3 || cert.TotalLessons != 3 {
		t.Errorf("lesson counts: got %d/%d", cert.CompletedLessons, cert.TotalLessons)
	}
	if cert.Serial == "" || cert.VerificationHash == "" {
		t.Fatal("expected serial and verification hash to be set")
	}
	if cert.VerificationHash != certificateFingerprint(cert) {
		t.Fatal("stored hash does not match the stored fields")
	}

	// Re-issuing returns the existing certificate instead of minting another.
	again, err := svc.IssueCertificate(context.Background(), userID, courseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != cert.ID || again.Serial != cert.Serial {
		t.Fatalf("expected the original certificate back, got serial %s", again.Serial)
	}
}

func TestVerifyCertificateDetectsTampering(t *testing.T) {
	svc, certRepo, userID, courseID := certificateServiceFixture(t, &fakeLedger{ent: activeEntitlement()})

	cert, err := svc.IssueCertificate(context.Background(), userID, courseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid, got, err := svc.VerifyCertificate(context.Background(), cert.Serial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid {
		t.Fatal("freshly issued certificate must verify")
	}
	if got.ID != cert.ID {
		t.Fatal("verify returned a different record")
	}

	// Inflate the completion count behind the hash's back.
	certRepo.rows[0].CompletedLessons++

	valid, got, err = svc.VerifyCertificate(context.Background(), cert.Serial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid {
		t.Fatal("altered certificate must not verify")
	}
	if got == nil {
		t.Fatal("verify should still return the record for inspection")
	}
}

func TestIssueCertificateRequiresEntitlement(t *testing.T) {
	svc, certRepo, userID, courseID := certificateServiceFixture(t, &fakeLedger{ent: nil})

	if _, err := svc.IssueCertificate(context.Background(), userID, courseID); !errors.Is(err, ErrNotEntitled) {
		t.Fatalf("expected ErrNotEntitled, got %v", err)
	}
	if len(certRepo.rows) != 0 {
		t.Fatalf("no certificate may be minted without an entitlement, found %d", len(certRepo.rows))
	}
}

func TestIssueCertificateLedgerFailurePropagates(t *testing.T) {
	svc, certRepo, userID, courseID := certificateServiceFixture(t,
		&fakeLedger{err: fmt.Errorf("%w: timeout", ErrLedgerUnavailable)})

	if _, err := svc.IssueCertificate(context.Background(), userID, courseID); !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
	if len(certRepo.rows) != 0 {
		t.Fatal("a failing ledger read must not mint a certificate")
	}
}

func TestVerifyCertificateUnknownSerial(t *testing.T) {
	svc, _, _, _ := certificateServiceFixture(t, &fakeLedger{ent: activeEntitlement()})

	if _, _, err := svc.VerifyCertificate(context.Background(), "CV-DEADBEEF0000"); !errors.Is(err, ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}
}
