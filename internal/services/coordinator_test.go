package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/clients/gcp"
	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

type fakeVersions struct {
	version *types.CourseVersion
	videos  []*types.Video
	err     error
}

func (f *fakeVersions) ResolveVersion(ctx context.Context, courseID uuid.UUID, sel VersionSelector, privileged bool) (*types.CourseVersion, []*types.Video, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.version, f.videos, nil
}

type fakeLedger struct {
	ent *types.Entitlement
	err error
}

func (f *fakeLedger) ActiveEntitlement(ctx context.Context, userID, courseID uuid.UUID) (*types.Entitlement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ent, nil
}

func (f *fakeLedger) ConfirmPurchase(ctx context.Context, conf PurchaseConfirmation) (*types.Entitlement, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (f *fakeLedger) RevokeEntitlement(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (f *fakeLedger) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.Entitlement, error) {
	return nil, errors.New("not implemented")
}

// fakeBucket satisfies gcp.MediaBucket so the real signer service runs in
// tests without GCS.
type fakeBucket struct {
	missing map[string]bool
	down    bool
}

func (f *fakeBucket) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if f.down {
		return "", time.Time{}, errors.New("connection refused")
	}
	if f.missing[key] {
		return "", time.Time{}, fmt.Errorf("%w: %s", gcp.ErrObjectNotFound, key)
	}
	return "https://signed.example/" + key, time.Now().Add(ttl), nil
}

func (f *fakeBucket) UploadObject(ctx context.Context, key string, r io.Reader) error { return nil }

func (f *fakeBucket) DeleteObject(ctx context.Context, key string) error { return nil }

func (f *fakeBucket) ObjectExists(ctx context.Context, key string) (bool, error) {
	return !f.missing[key], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func contentFixture(unitCount int, freePreviewAt int) (*types.CourseVersion, []*types.Video) {
	courseID := uuid.New()
	version := &types.CourseVersion{
		ID:            uuid.New(),
		CourseID:      courseID,
		VersionNumber: 2,
		Status:        types.VersionStatusPublished,
	}
	videos := make([]*types.Video, 0, unitCount)
	for i := 0; i < unitCount; i++ {
		videos = append(videos, &types.Video{
			ID:              uuid.New(),
			CourseID:        courseID,
			CourseVersionID: version.ID,
			VersionNumber:   version.VersionNumber,
			Title:           fmt.Sprintf("video %d", i+1),
			StorageKey:      fmt.Sprintf("videos/%d.mp4", i+1),
			FreePreview:     i == freePreviewAt,
			Position:        i + 1,
		})
	}
	return version, videos
}

func newAccessService(t *testing.T, versions VersionService, ledger EntitlementService, bucket gcp.MediaBucket) AccessService {
	t.Helper()
	log := testLogger(t)
	signer := NewURLSignerService(log, bucket, 5*time.Minute)
	return NewAccessService(log, versions, ledger, signer)
}

func TestGetAccessibleContentFullAccess(t *testing.T) {
	version, videos := contentFixture(5, -1)
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: activeEntitlement()},
		&fakeBucket{},
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(res.Items))
	}
	for i, item := range res.Items {
		if item.Video.ID != videos[i].ID {
			t.Errorf("item %d out of order", i)
		}
		if !item.Decision.HasAccess {
			t.Errorf("item %d: expected access", i)
		}
		if item.DelegatedURL == nil {
			t.Fatalf("item %d: expected a delegated url", i)
		}
		if !item.DelegatedURL.ExpiresAt.After(time.Now()) {
			t.Errorf("item %d: url already expired", i)
		}
		if item.URLIssue != URLIssueNone {
			t.Errorf("item %d: unexpected url issue %q", i, item.URLIssue)
		}
	}
}

func TestGetAccessibleContentNoEntitlement(t *testing.T) {
	version, videos := contentFixture(5, -1)
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: nil},
		&fakeBucket{},
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, item := range res.Items {
		if item.Decision.HasAccess {
			t.Errorf("item %d: expected locked", i)
		}
		if item.Decision.LockReason != LockReasonNotPurchased {
			t.Errorf("item %d: lock_reason want=%s got=%s", i, LockReasonNotPurchased, item.Decision.LockReason)
		}
		if item.DelegatedURL != nil {
			t.Errorf("item %d: locked item must not carry a url", i)
		}
	}
}

func TestGetAccessibleContentFreePreviewOnly(t *testing.T) {
	version, videos := contentFixture(5, 2)
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: nil},
		&fakeBucket{},
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, item := range res.Items {
		wantAccess := i == 2
		if item.Decision.HasAccess != wantAccess {
			t.Errorf("item %d: has_access want=%v got=%v", i, wantAccess, item.Decision.HasAccess)
		}
		if wantAccess && item.DelegatedURL == nil {
			t.Errorf("item %d: free preview should carry a url", i)
		}
		if !wantAccess && item.DelegatedURL != nil {
			t.Errorf("item %d: locked item must not carry a url", i)
		}
	}
}

func TestGetAccessibleContentPartialIssuanceFailure(t *testing.T) {
	version, videos := contentFixture(3, -1)
	bucket := &fakeBucket{missing: map[string]bool{videos[1].StorageKey: true}}
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: activeEntitlement()},
		bucket,
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("one unit's issuance failure must not fail the request: %v", err)
	}
	for i, item := range res.Items {
		if !item.Decision.HasAccess {
			t.Errorf("item %d: expected access", i)
		}
		if i == 1 {
			if item.DelegatedURL != nil {
				t.Error("item 1: expected no url for dangling key")
			}
			if item.URLIssue != URLIssueNoKey {
				t.Errorf("item 1: url_issue want=%s got=%s", URLIssueNoKey, item.URLIssue)
			}
			continue
		}
		if item.DelegatedURL == nil {
			t.Errorf("item %d: neighbor failure leaked", i)
		}
	}
}

func TestGetAccessibleContentMissingStorageKey(t *testing.T) {
	version, videos := contentFixture(2, -1)
	videos[0].StorageKey = ""
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: activeEntitlement()},
		&fakeBucket{},
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items[0].URLIssue != URLIssueNoKey {
		t.Errorf("url_issue want=%s got=%s", URLIssueNoKey, res.Items[0].URLIssue)
	}
	if res.Items[1].DelegatedURL == nil {
		t.Error("item 1 should still get its url")
	}
}

func TestGetAccessibleContentStorageDownDegrades(t *testing.T) {
	version, videos := contentFixture(2, -1)
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{ent: activeEntitlement()},
		&fakeBucket{down: true},
	)

	res, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if err != nil {
		t.Fatalf("signed-url outage must degrade per unit, not fail the request: %v", err)
	}
	for i, item := range res.Items {
		if item.URLIssue != URLIssueUnavailable {
			t.Errorf("item %d: url_issue want=%s got=%s", i, URLIssueUnavailable, item.URLIssue)
		}
		if item.DelegatedURL != nil {
			t.Errorf("item %d: expected no url", i)
		}
	}
}

func TestGetAccessibleContentLedgerFailurePropagates(t *testing.T) {
	version, videos := contentFixture(2, -1)
	svc := newAccessService(t,
		&fakeVersions{version: version, videos: videos},
		&fakeLedger{err: fmt.Errorf("%w: timeout", ErrLedgerUnavailable)},
		&fakeBucket{},
	)

	_, err := svc.GetAccessibleContent(context.Background(), uuid.New(), version.CourseID, SelectLatest(), false)
	if !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestGetAccessibleContentVersionNotFoundPropagates(t *testing.T) {
	svc := newAccessService(t,
		&fakeVersions{err: ErrVersionNotFound},
		&fakeLedger{ent: activeEntitlement()},
		&fakeBucket{},
	)

	_, err := svc.GetAccessibleContent(context.Background(), uuid.New(), uuid.New(), SelectNumber(7), false)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}
