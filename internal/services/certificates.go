package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/repos"
	"github.com/coursevault/coursevault-backend/internal/types"
)

// fingerprintVersion is baked into the digest so the field layout can evolve
// without old certificates verifying against the wrong scheme.
const fingerprintVersion = "v1"

// certificateFingerprint digests the certificate's display fields in a fixed,
// explicit order. Field order is part of the contract — serializing a map or
// struct reflection here would silently break reproducibility.
func certificateFingerprint(c *types.Certificate) string {
	fields := []string{
		fingerprintVersion,
		c.StudentName,
		c.CourseTitle,
		c.CompletedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(c.CompletedLessons),
		strconv.Itoa(c.TotalLessons),
		c.PlatformName,
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

type CertificateService interface {
	// IssueCertificate creates (or returns the already issued) completion
	// certificate for the user and course, hash included.
	IssueCertificate(ctx context.Context, userID, courseID uuid.UUID) (*types.Certificate, error)
	// VerifyCertificate recomputes the fingerprint over the stored fields and
	// compares. false means the record was altered after issuance.
	VerifyCertificate(ctx context.Context, serial string) (bool, *types.Certificate, error)
}

type certificateService struct {
	db              *gorm.DB
	log             *logger.Logger
	certificateRepo repos.CertificateRepo
	userRepo        repos.UserRepo
	courseRepo      repos.CourseRepo
	versionRepo     repos.CourseVersionRepo
	videoRepo       repos.VideoRepo
	entitlements    EntitlementService
	platformName    string
}

func NewCertificateService(
	db *gorm.DB,
	log *logger.Logger,
	certificateRepo repos.CertificateRepo,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	versionRepo repos.CourseVersionRepo,
	videoRepo repos.VideoRepo,
	entitlements EntitlementService,
	platformName string,
) CertificateService {
	if platformName == "" {
		platformName = "CourseVault"
	}
	return &certificateService{
		db:              db,
		log:             log.With("service", "CertificateService"),
		certificateRepo: certificateRepo,
		userRepo:        userRepo,
		courseRepo:      courseRepo,
		versionRepo:     versionRepo,
		videoRepo:       videoRepo,
		entitlements:    entitlements,
		platformName:    platformName,
	}
}

func (s *certificateService) IssueCertificate(ctx context.Context, userID, courseID uuid.UUID) (*types.Certificate, error) {
	if existing, err := s.certificateRepo.GetByUserAndCourse(ctx, nil, userID, courseID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing certificate: %w", err)
	}

	// A certificate attests completion of purchased content; without an active
	// entitlement there is nothing to attest. Ledger failures propagate — a
	// broken read must not refuse (or grant) issuance on its own.
	ent, err := s.entitlements.ActiveEntitlement(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, ErrNotEntitled
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}

	version, err := s.versionRepo.GetLatestPublished(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	videos, err := s.videoRepo.ListByVersionID(ctx, nil, version.ID)
	if err != nil {
		return nil, fmt.Errorf("load videos: %w", err)
	}

	serial, err := newCertificateSerial()
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	cert := &types.Certificate{
		ID:               uuid.New(),
		Serial:           serial,
		UserID:           userID,
		CourseID:         courseID,
		StudentName:      strings.TrimSpace(user.FirstName + " " + user.LastName),
		CourseTitle:      course.Title,
		CompletedAt:      time.Now().UTC(),
		CompletedLessons: len(videos),
		TotalLessons:     len(videos),
		PlatformName:     s.platformName,
	}
	cert.VerificationHash = certificateFingerprint(cert)

	if _, err := s.certificateRepo.Create(ctx, nil, cert); err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	s.log.Info("certificate issued", "serial", cert.Serial, "user_id", userID, "course_id", courseID)
	return cert, nil
}

func (s *certificateService) VerifyCertificate(ctx context.Context, serial string) (bool, *types.Certificate, error) {
	cert, err := s.certificateRepo.GetBySerial(ctx, nil, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, ErrCertificateNotFound
		}
		return false, nil, fmt.Errorf("load certificate %q: %w", serial, err)
	}

	if certificateFingerprint(cert) != cert.VerificationHash {
		// Tampering signal, not a user error: the stored fields no longer
		// match the hash minted at issuance. Loud log, no auto-repair.
		s.log.Error("certificate verification hash mismatch",
			"serial", cert.Serial,
			"certificate_id", cert.ID,
			"user_id", cert.UserID,
			"course_id", cert.CourseID,
		)
		return false, cert, nil
	}
	return true, cert, nil
}

func newCertificateSerial() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "CV-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
