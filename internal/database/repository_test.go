package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/link-health/internal/database"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

var (
	feedColumns    = []string{"id", "url", "category", "name", "active"}
	healthColumns  = []string{"feed_id", "status", "total_items", "valid_items", "average_response_time_ms", "uptime_percentage", "last_checked_at", "errors"}
	contentColumns = []string{"feed_id", "title", "description", "link", "category", "pub_date", "expires_at"}
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFeedRepository_ListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewFeedRepository(db)

	mock.ExpectQuery("SELECT .+ FROM content_feeds WHERE active = TRUE").
		WillReturnRows(sqlmock.NewRows(feedColumns).
			AddRow("f1", "https://a.example/rss", "research", "A", true).
			AddRow("f2", "https://b.example/atom", "industry", "B", true))

	feeds, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(feeds))
	}
	if feeds[1].URL != "https://b.example/atom" || feeds[1].Category != "industry" {
		t.Errorf("unexpected feed: %+v", feeds[1])
	}

	expectationsMet(t, mock)
}

func TestFeedRepository_ListActive_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewFeedRepository(db)

	mock.ExpectQuery("SELECT .+ FROM content_feeds").WillReturnRows(sqlmock.NewRows(feedColumns))

	feeds, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if feeds == nil || len(feeds) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", feeds)
	}

	expectationsMet(t, mock)
}

func TestFeedRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewFeedRepository(db)

	mock.ExpectQuery("SELECT .+ FROM content_feeds WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(feedColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, database.ErrFeedNotFound) {
		t.Fatalf("expected ErrFeedNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestHealthRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewHealthRepository(db)

	checked := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h := domain.FeedHealth{
		FeedID:                "f1",
		Status:                domain.StatusWarning,
		TotalItems:            10,
		ValidItems:            7,
		AverageResponseTimeMs: 240,
		UptimePercentage:      70,
		LastCheckedAt:         checked,
		Errors:                []string{"https://a.example/x: HTTP 404"},
	}

	mock.ExpectExec("INSERT INTO feed_health .+ ON CONFLICT \\(feed_id\\) DO UPDATE").
		WithArgs("f1", "warning", 10, 7, int64(240), 70.0, checked, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), h); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestHealthRepository_Upsert_NoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewHealthRepository(db)

	mock.ExpectExec("INSERT INTO feed_health").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Upsert(context.Background(), domain.FeedHealth{FeedID: "f1"}); err == nil {
		t.Fatal("expected error when no row is written")
	}

	expectationsMet(t, mock)
}

func TestHealthRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewHealthRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM feed_health").
		WillReturnRows(sqlmock.NewRows(healthColumns).
			AddRow("f2", "offline", 0, 0, 0, 0.0, now, `{"feed parse_error: EOF"}`).
			AddRow("f1", "healthy", 10, 10, 120, 100.0, now, "{}"))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].Status != domain.StatusOffline || len(list[0].Errors) != 1 {
		t.Errorf("unexpected first record: %+v", list[0])
	}
	if list[1].Errors == nil || len(list[1].Errors) != 0 {
		t.Errorf("expected empty non-nil errors, got %v", list[1].Errors)
	}

	expectationsMet(t, mock)
}

func TestContentRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContentRepository(db)

	expires := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	entries := []domain.ContentCacheEntry{
		{FeedID: "f1", Title: "One", Link: "https://a.example/1", Category: "research", ExpiresAt: expires},
		{FeedID: "f1", Title: "Two", Link: "https://web.archive.org/web/2024/https://a.example/2", ExpiresAt: expires},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content_cache .+ ON CONFLICT \\(feed_id, title\\)").
		WithArgs("f1", "One", "", "https://a.example/1", "research", sqlmock.AnyArg(), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO content_cache").
		WithArgs("f1", "Two", "", "https://web.archive.org/web/2024/https://a.example/2", "", sqlmock.AnyArg(), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Upsert(context.Background(), entries); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestContentRepository_Upsert_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content_cache").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), []domain.ContentCacheEntry{{FeedID: "f1", Title: "One"}})
	if err == nil {
		t.Fatal("expected error")
	}

	expectationsMet(t, mock)
}

func TestContentRepository_Upsert_EmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)

	if err := database.NewContentRepository(db).Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestContentRepository_ListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContentRepository(db)

	pub := time.Now().Add(-time.Hour)
	expires := time.Now().Add(5 * time.Hour)
	mock.ExpectQuery("SELECT .+ FROM content_cache WHERE expires_at > NOW\\(\\)").
		WithArgs("research").
		WillReturnRows(sqlmock.NewRows(contentColumns).
			AddRow("f1", "One", "desc", "https://a.example/1", "research", pub, expires))

	entries, err := repo.ListActive(context.Background(), "research")
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(entries) != 1 || entries[0].PubDate == nil {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	expectationsMet(t, mock)
}

func TestContentRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContentRepository(db)

	mock.ExpectExec("DELETE FROM content_cache WHERE expires_at <= NOW\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deleted, got %d", n)
	}

	expectationsMet(t, mock)
}
