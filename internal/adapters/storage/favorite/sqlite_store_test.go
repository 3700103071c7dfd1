package favorite_test

import (
	"context"
	"testing"
	"time"

	favoriteStore "formations/internal/adapters/storage/favorite"
	"formations/internal/adapters/storage/storagetest"
	domain "formations/internal/domain/favorite"
)

func TestSQLiteStore_AddRemove(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	for _, q := range []string{
		`INSERT INTO account (id, email, display_name, role, created_at) VALUES ('a1', 'a1@x.fr', 'A1', 'user', '2026-01-01T00:00:00Z')`,
		`INSERT INTO course (id, title, description, domain, status, created_at) VALUES ('c1', 'T', 'D', 'Langage oral', 'published', '2026-01-01T00:00:00Z')`,
		`INSERT INTO course (id, title, description, domain, status, created_at) VALUES ('c2', 'T', 'D', 'Langage oral', 'published', '2026-01-01T00:00:00Z')`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatal(err)
		}
	}
	store := favoriteStore.NewSQLiteStore(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Add(ctx, domain.Favorite{AccountID: "a1", CourseID: "c1", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	// Second add of the same pair is ignored.
	if err := store.Add(ctx, domain.Favorite{AccountID: "a1", CourseID: "c1", CreatedAt: now}); err != nil {
		t.Fatalf("duplicate Add: %v", err)
	}
	if err := store.Add(ctx, domain.Favorite{AccountID: "a1", CourseID: "c2", CreatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}

	favs, err := store.ListByAccount(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 2 || favs[0].CourseID != "c2" {
		t.Fatalf("favorites = %+v", favs)
	}

	if err := store.Remove(ctx, "a1", "c2"); err != nil {
		t.Fatal(err)
	}
	ok, err := store.Exists(ctx, "a1", "c2")
	if err != nil || ok {
		t.Errorf("Exists after Remove = %v, %v", ok, err)
	}
	ok, _ = store.Exists(ctx, "a1", "c1")
	if !ok {
		t.Error("c1 should still be a favorite")
	}
}
