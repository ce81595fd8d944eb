package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/types"
)

func sampleCertificate() *types.Certificate {
	return &types.Certificate{
		ID:               uuid.New(),
		Serial:           "CV-0011223344",
		UserID:           uuid.New(),
		CourseID:         uuid.New(),
		StudentName:      "Ada Lovelace",
		CourseTitle:      "Intro to Analytical Engines",
		CompletedAt:      time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		CompletedLessons: 12,
		TotalLessons:     12,
		PlatformName:     "CourseVault",
	}
}

func TestCertificateFingerprintIsStable(t *testing.T) {
	cert := sampleCertificate()
	first := certificateFingerprint(cert)
	for i := 0; i < 10; i++ {
		if got := certificateFingerprint(cert); got != first {
			t.Fatalf("fingerprint drifted on call %d: want=%s got=%s", i, first, got)
		}
	}
	// Two independently constructed records with the same field values must
	// collide — the digest covers values, not identity or call time.
	other := sampleCertificate()
	other.ID = uuid.New()
	other.UserID = cert.UserID
	other.CourseID = cert.CourseID
	if got := certificateFingerprint(other); got != first {
		t.Fatalf("fingerprint depends on record identity: want=%s got=%s", first, got)
	}
}

func TestCertificateFingerprintChangesPerField(t *testing.T) {
	base := certificateFingerprint(sampleCertificate())

	mutations := map[string]func(c *types.Certificate){
		"student name":      func(c *types.Certificate) { c.StudentName = "Eve Mallory" },
		"course title":      func(c *types.Certificate) { c.CourseTitle = "Other Course" },
		"completion date":   func(c *types.Certificate) { c.CompletedAt = c.CompletedAt.Add(24 * time.Hour) },
		"completed lessons": func(c *types.Certificate) { c.CompletedLessons++ },
		"total lessons":     func(c *types.Certificate) { c.TotalLessons++ },
		"platform name":     func(c *types.Certificate) { c.PlatformName = "OtherPlatform" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cert := sampleCertificate()
			mutate(cert)
			if got := certificateFingerprint(cert); got == base {
				t.Fatalf("mutating %s did not change the fingerprint", name)
			}
		})
	}
}

func TestCertificateFingerprintIgnoresFieldConcatenationAmbiguity(t *testing.T) {
	// "ab"+"c" vs "a"+"bc" across adjacent fields must not collide; the
	// separator byte is what guarantees that.
	a := sampleCertificate()
	a.StudentName = "ab"
	a.CourseTitle = "c"
	b := sampleCertificate()
	b.StudentName = "a"
	b.CourseTitle = "bc"
	if certificateFingerprint(a) == certificateFingerprint(b) {
		t.Fatal("adjacent fields collide under concatenation")
	}
}
