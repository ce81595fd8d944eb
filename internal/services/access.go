package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/types"
)

// LockReason is the closed set of reasons a video can be locked. Keeping it a
// dedicated type (not free-form strings) keeps the decision table checkable.
type LockReason string

const (
	LockReasonNone         LockReason = "NONE"
	LockReasonNotPurchased LockReason = "NOT_PURCHASED"
	LockReasonWrongVersion LockReason = "WRONG_VERSION"
	LockReasonPreviewOnly  LockReason = "PREVIEW_ONLY"
)

// AccessDecision is derived per video, never persisted. HasAccess and Locked
// are always exact complements; both are carried so API consumers don't have
// to re-derive one from the other.
type AccessDecision struct {
	VideoID       uuid.UUID  `json:"video_id"`
	HasAccess     bool       `json:"has_access"`
	Locked        bool       `json:"locked"`
	LockReason    LockReason `json:"lock_reason"`
	IsFreePreview bool       `json:"is_free_preview"`
}

// DelegatedURL is a short-lived signed link to one video's binary. Only minted
// for videos whose decision grants access.
type DelegatedURL struct {
	VideoID   uuid.UUID `json:"video_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EvaluateAccess computes one decision per video, in input order. Pure and
// total: no I/O, no errors, identical output for identical input.
//
// Rule table, first match wins:
//  1. free preview        -> open (overrides entitlement state entirely)
//  2. no active entitlement -> NOT_PURCHASED
//  3. entitlement bound to another version and upgrades not allowed -> WRONG_VERSION
//  4. otherwise           -> open
func EvaluateAccess(videos []*types.Video, ent *types.Entitlement) []AccessDecision {
	decisions := make([]AccessDecision, 0, len(videos))
	for _, v := range videos {
		decisions = append(decisions, evaluateOne(v, ent))
	}
	return decisions
}

func evaluateOne(v *types.Video, ent *types.Entitlement) AccessDecision {
	d := AccessDecision{VideoID: v.ID}

	switch {
	case v.FreePreview:
		d.HasAccess = true
		d.IsFreePreview = true
		d.LockReason = LockReasonNone
	case ent == nil || ent.Revoked:
		d.Locked = true
		d.LockReason = LockReasonNotPurchased
	case ent.BoundVersion != nil && *ent.BoundVersion != v.VersionNumber && !ent.AllowVersionUpgrade:
		d.Locked = true
		d.LockReason = LockReasonWrongVersion
	default:
		d.HasAccess = true
		d.LockReason = LockReasonNone
	}
	return d
}
