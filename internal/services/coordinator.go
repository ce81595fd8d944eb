package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/coursevault/coursevault-backend/internal/platform/logger"
	"github.com/coursevault/coursevault-backend/internal/types"
)

const (
	issueTimeout    = 5 * time.Second
	maxIssueWorkers = 8
)

// URLIssueCode reports, per video, why a delegated URL is absent even though
// access was granted. Empty means the URL is present (or the video is locked,
// which is not an issuance failure).
type URLIssueCode string

const (
	URLIssueNone        URLIssueCode = ""
	URLIssueNoKey       URLIssueCode = "no_storage_key"
	URLIssueUnavailable URLIssueCode = "storage_unavailable"
)

type VideoAccess struct {
	Video        *types.Video   `json:"video"`
	Decision     AccessDecision `json:"decision"`
	DelegatedURL *DelegatedURL  `json:"delegated_url,omitempty"`
	URLIssue     URLIssueCode   `json:"url_issue,omitempty"`
}

type ContentResult struct {
	CourseID      uuid.UUID     `json:"course_id"`
	VersionNumber int           `json:"version_number"`
	VersionStatus string        `json:"version_status"`
	Items         []VideoAccess `json:"items"`
}

// AccessService is the single entry point the transport layer calls to answer
// "which videos can this user watch right now, and through which links".
type AccessService interface {
	GetAccessibleContent(ctx context.Context, userID, courseID uuid.UUID, sel VersionSelector, privileged bool) (*ContentResult, error)
}

type accessService struct {
	log          *logger.Logger
	versions     VersionService
	entitlements EntitlementService
	signer       URLSignerService
	tracer       trace.Tracer
}

func NewAccessService(
	log *logger.Logger,
	versions VersionService,
	entitlements EntitlementService,
	signer URLSignerService,
) AccessService {
	return &accessService{
		log:          log.With("service", "AccessService"),
		versions:     versions,
		entitlements: entitlements,
		signer:       signer,
		tracer:       otel.Tracer("coursevault/access"),
	}
}

// GetAccessibleContent runs resolve-version and check-entitlement
// concurrently (neither depends on the other), joins, evaluates the access
// rule table, then fans out URL issuance per accessible video. A single
// video's issuance failure degrades that one item; it never fails the
// request. Transient ledger or storage-of-record failures do fail the
// request — a broken read must not masquerade as "not purchased".
func (s *accessService) GetAccessibleContent(ctx context.Context, userID, courseID uuid.UUID, sel VersionSelector, privileged bool) (*ContentResult, error) {
	ctx, span := s.tracer.Start(ctx, "access.get_accessible_content",
		trace.WithAttributes(attribute.String("course_id", courseID.String())),
	)
	defer span.End()

	var (
		version *types.CourseVersion
		videos  []*types.Video
		ent     *types.Entitlement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rctx, rspan := s.tracer.Start(gctx, "access.resolve_version")
		defer rspan.End()
		v, vids, err := s.versions.ResolveVersion(rctx, courseID, sel, privileged)
		if err != nil {
			return err
		}
		version, videos = v, vids
		return nil
	})
	g.Go(func() error {
		ectx, espan := s.tracer.Start(gctx, "access.check_entitlement")
		defer espan.End()
		e, err := s.entitlements.ActiveEntitlement(ectx, userID, courseID)
		if err != nil {
			return err
		}
		ent = e
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decisions := EvaluateAccess(videos, ent)

	items := make([]VideoAccess, len(videos))
	for i := range videos {
		items[i] = VideoAccess{Video: videos[i], Decision: decisions[i]}
	}

	s.issueURLs(ctx, items)

	return &ContentResult{
		CourseID:      courseID,
		VersionNumber: version.VersionNumber,
		VersionStatus: version.Status,
		Items:         items,
	}, nil
}

// issueURLs mints a delegated URL for every accessible item, each as an
// independent task. Items share no mutable state (each worker writes only its
// own index), so failures stay isolated and no locks are needed. Issuance has
// no persisted side effects, so cancellation simply abandons in-flight work.
func (s *accessService) issueURLs(ctx context.Context, items []VideoAccess) {
	ctx, span := s.tracer.Start(ctx, "access.issue_urls",
		trace.WithAttributes(attribute.Int("item_count", len(items))),
	)
	defer span.End()

	g := new(errgroup.Group)
	g.SetLimit(maxIssueWorkers)
	for i := range items {
		if !items[i].Decision.HasAccess {
			continue
		}
		i := i
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(ctx, issueTimeout)
			defer cancel()

			url, err := s.signer.Issue(ictx, items[i].Video.ID, items[i].Video.StorageKey, 0)
			if err != nil {
				items[i].URLIssue = classifyIssueError(err)
				s.log.Warn("delegated url issuance failed",
					"video_id", items[i].Video.ID,
					"code", items[i].URLIssue,
					"error", err,
				)
				return nil
			}
			items[i].DelegatedURL = url
			return nil
		})
	}
	_ = g.Wait()
}

func classifyIssueError(err error) URLIssueCode {
	switch {
	case errors.Is(err, ErrNoStorageKey):
		return URLIssueNoKey
	default:
		return URLIssueUnavailable
	}
}
