package testutil

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/coursevault/coursevault-backend/internal/types"
)

var (
	dbOnce        sync.Once
	sharedDB      *gorm.DB
	dbErr         error
	errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")
)

// DB opens (once per test binary) the Postgres pointed at by
// TEST_POSTGRES_DSN and migrates the schema. Tests are skipped when the DSN
// is not set so the suite stays runnable without infrastructure.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dbOnce.Do(func() {
		dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			dbErr = err
			return
		}
		if err := autoMigrateAll(gdb); err != nil {
			dbErr = err
			return
		}
		sharedDB = gdb
	})
	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return sharedDB
}

// Tx hands out a transaction that rolls back when the test finishes, so tests
// never see each other's rows.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&types.Course{},
		&types.CourseVersion{},
		&types.Video{},
		&types.Entitlement{},
		&types.Certificate{},
	); err != nil {
		return err
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_entitlement_active
		 ON entitlement (user_id, course_id)
		 WHERE revoked = false`,
	).Error
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID uuid.UUID, slug string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:       uuid.New(),
		AuthorID: authorID,
		Title:    "course",
		Slug:     slug,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, number int, status string) *types.CourseVersion {
	tb.Helper()
	now := time.Now().UTC()
	v := &types.CourseVersion{
		ID:            uuid.New(),
		CourseID:      courseID,
		VersionNumber: number,
		Status:        status,
	}
	if status == types.VersionStatusPublished {
		v.PublishedAt = &now
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed course version: %v", err)
	}
	return v
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, v *types.CourseVersion, position int, storageKey string, freePreview bool) *types.Video {
	tb.Helper()
	row := &types.Video{
		ID:              uuid.New(),
		CourseID:        v.CourseID,
		CourseVersionID: v.ID,
		VersionNumber:   v.VersionNumber,
		Title:           "video",
		StorageKey:      storageKey,
		FreePreview:     freePreview,
		Position:        position,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return row
}
