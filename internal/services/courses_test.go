package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/coursevault/coursevault-backend/internal/types"
)

func TestListVersionsAuthorOnly(t *testing.T) {
	course := &types.Course{ID: uuid.New(), AuthorID: uuid.New(), Title: "History of Computing", Slug: "history"}
	versions := []*types.CourseVersion{
		{ID: uuid.New(), CourseID: course.ID, VersionNumber: 1, Status: types.VersionStatusPublished},
		{ID: uuid.New(), CourseID: course.ID, VersionNumber: 2, Status: types.VersionStatusDraft},
	}
	svc := NewCourseService(
		nil,
		testLogger(t),
		&fakeCourseRepo{courses: map[uuid.UUID]*types.Course{course.ID: course}},
		&fakeVersionRepo{versions: versions},
		&fakeVideoRepo{},
	)

	got, err := svc.ListVersions(context.Background(), course.AuthorID, course.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the full history including drafts, got %d versions", len(got))
	}

	if _, err := svc.ListVersions(context.Background(), uuid.New(), course.ID); !errors.Is(err, ErrNotCourseAuthor) {
		t.Fatalf("expected ErrNotCourseAuthor, got %v", err)
	}
	if _, err := svc.ListVersions(context.Background(), course.AuthorID, uuid.New()); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}
