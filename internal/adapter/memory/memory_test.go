package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sahinseyfi/TombistenFite-sub001/internal/domain"
)

func TestMeasurementRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	_, _ = db.AddMeasurement(ctx, 1, 80, "kg", base.AddDate(0, 0, 2))
	_, _ = db.AddMeasurement(ctx, 1, 81, "kg", base)
	_, _ = db.AddMeasurement(ctx, 1, 79.5, "kg", base.AddDate(0, 0, 2).Add(3*time.Hour))
	_, _ = db.AddMeasurement(ctx, 2, 60, "kg", base.AddDate(0, 0, 2))

	items, err := db.ListRecentMeasurements(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListRecentMeasurements: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Value != 79.5 || items[1].Value != 80 || items[2].Value != 81 {
		t.Errorf("expected day desc then createdAt desc, got %+v", items)
	}
	if items[0].Day != "2026-03-12" {
		t.Errorf("expected day from createdAt, got %s", items[0].Day)
	}

	latest, err := db.LatestMeasurementForLocalDay(ctx, 1, "2026-03-12")
	if err != nil {
		t.Fatalf("LatestMeasurementForLocalDay: %v", err)
	}
	if latest == nil || latest.Value != 79.5 {
		t.Errorf("expected 79.5, got %+v", latest)
	}
	none, _ := db.LatestMeasurementForLocalDay(ctx, 1, "2026-03-11")
	if none != nil {
		t.Errorf("expected nil for empty day, got %+v", none)
	}

	since, _ := db.ListMeasurementsSince(ctx, 1, "2026-03-11")
	if len(since) != 2 {
		t.Errorf("expected 2 since 2026-03-11, got %d", len(since))
	}

	deleted, err := db.DeleteLatestMeasurement(ctx, 1)
	if err != nil || !deleted {
		t.Fatalf("DeleteLatestMeasurement: %v %v", deleted, err)
	}
	latest, _ = db.LatestMeasurementForLocalDay(ctx, 1, "2026-03-12")
	if latest == nil || latest.Value != 80 {
		t.Errorf("expected 80 after undo, got %+v", latest)
	}
	other, _ := db.ListRecentMeasurements(ctx, 2, 10)
	if len(other) != 1 {
		t.Errorf("undo must not touch other users, got %d", len(other))
	}

	empty := New()
	if deleted, _ := empty.DeleteLatestMeasurement(ctx, 1); deleted {
		t.Error("expected nothing to delete")
	}
}

func TestTreatRepositories(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	a, _ := db.AddTreatItem(ctx, domain.TreatItem{UserID: 1, Name: "Baklava"})
	b, _ := db.AddTreatItem(ctx, domain.TreatItem{UserID: 1, Name: "Lokum"})
	_, _ = db.AddTreatItem(ctx, domain.TreatItem{UserID: 2, Name: "Sutlac"})

	items, _ := db.ListTreatItems(ctx, 1)
	if len(items) != 2 || items[0].ID != a || items[1].ID != b {
		t.Fatalf("expected creation order, got %+v", items)
	}
	if other, _ := db.ListTreatItems(ctx, 2); len(other) != 1 || other[0].Name != "Sutlac" {
		t.Errorf("items must be scoped to their owner, got %+v", other)
	}

	old, _ := db.CreateSpin(ctx, domain.TreatSpin{UserID: 1, TreatItemID: &a, TreatName: "Baklava", CreatedAt: now.AddDate(0, 0, -10)})
	recent, _ := db.CreateSpin(ctx, domain.TreatSpin{UserID: 1, TreatItemID: &b, TreatName: "Lokum", BonusMinutes: 15, CreatedAt: now.AddDate(0, 0, -2)})

	last, _ := db.LatestSpin(ctx, 1)
	if last == nil || last.ID != recent {
		t.Fatalf("expected latest spin %d, got %+v", recent, last)
	}
	week, _ := db.ListSpinsSince(ctx, 1, now.AddDate(0, 0, -7))
	if len(week) != 1 || week[0].ID != recent {
		t.Errorf("expected only the recent spin, got %+v", week)
	}
	all, _ := db.ListRecentSpins(ctx, 1, 10)
	if len(all) != 2 || all[1].ID != old {
		t.Errorf("expected newest first, got %+v", all)
	}

	ok, _ := db.SetBonusCompleted(ctx, 1, recent, true)
	if !ok {
		t.Fatal("SetBonusCompleted returned false")
	}
	if s, _ := db.GetSpin(ctx, 1, recent); s == nil || !s.BonusCompleted {
		t.Errorf("expected completed bonus, got %+v", s)
	}
	if ok, _ := db.SetBonusCompleted(ctx, 2, recent, true); ok {
		t.Error("other users must not update the spin")
	}

	deleted, _ := db.DeleteTreatItem(ctx, 1, b)
	if !deleted {
		t.Fatal("expected item deleted")
	}
	s, _ := db.GetSpin(ctx, 1, recent)
	if s.TreatItemID != nil || s.TreatName != "Lokum" {
		t.Errorf("spin should keep its snapshot and drop the reference, got %+v", s)
	}
	if deleted, _ := db.DeleteTreatItem(ctx, 1, b); deleted {
		t.Error("second delete should report false")
	}
}

func TestNotificationRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	first, _ := db.AddNotification(ctx, domain.Notification{UserID: 1, Kind: "k", Title: "one", CreatedAt: now})
	_, _ = db.AddNotification(ctx, domain.Notification{UserID: 1, Kind: "k", Title: "two", CreatedAt: now.Add(time.Minute)})
	_, _ = db.AddNotification(ctx, domain.Notification{UserID: 2, Kind: "k", Title: "other", CreatedAt: now})

	list, _ := db.ListRecentNotifications(ctx, 1, 10)
	if len(list) != 2 || list[0].Title != "two" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if c, _ := db.UnreadNotificationCount(ctx, 1); c != 2 {
		t.Errorf("expected 2 unread, got %d", c)
	}

	n, _ := db.MarkNotificationsRead(ctx, 1, []int64{first}, now)
	if n != 1 {
		t.Errorf("expected 1 changed, got %d", n)
	}
	n, _ = db.MarkNotificationsRead(ctx, 1, []int64{first}, now)
	if n != 0 {
		t.Errorf("re-marking must not count, got %d", n)
	}
	n, _ = db.MarkNotificationsRead(ctx, 1, nil, now)
	if n != 1 {
		t.Errorf("expected the remaining one marked, got %d", n)
	}
	if c, _ := db.UnreadNotificationCount(ctx, 2); c != 1 {
		t.Errorf("other user's notifications must stay unread, got %d", c)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "bob", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "bob" {
		t.Errorf("expected bob, got %s", u.Username)
	}
	if _, err := db.Create(ctx, "bob", "hash"); err == nil {
		t.Error("expected duplicate username to fail")
	}

	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}
	if missing, _ := db.GetByID(ctx, 999); missing != nil {
		t.Error("expected nil for unknown id")
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()

	err := repo.Create(ctx, 1, "token123", "ua/1", "127.0.0.1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, 1, "stale", "ua/1", "", time.Now().Add(-time.Hour))

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil || sess.UserAgent != "ua/1" {
		t.Errorf("expected session bound to ua/1, got %+v", sess)
	}

	_ = repo.DeleteExpired(ctx)
	if s, _ := repo.GetByToken(ctx, "stale"); s != nil {
		t.Error("expected expired session pruned")
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
