package memory

import (
	"context"
	"testing"
	"time"
)

func TestPlantRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	species := "Ficus lyrata"
	now := time.Now()
	fig, err := db.CreatePlant(ctx, "a", "Fig", &species, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("CreatePlant: %v", err)
	}
	// Mutating the caller's value must not leak into the store.
	species = "changed"
	if fig.Species == nil || *fig.Species != "Ficus lyrata" {
		t.Fatalf("expected stored species, got %v", fig.Species)
	}
	if _, err := db.CreatePlant(ctx, "b", "Aloe", nil, now); err != nil {
		t.Fatalf("CreatePlant: %v", err)
	}

	plants, err := db.ListPlants(ctx)
	if err != nil {
		t.Fatalf("ListPlants: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("expected 2 plants, got %d", len(plants))
	}
	if plants[0].ID != "b" || plants[1].ID != "a" {
		t.Errorf("expected newest first, got %s, %s", plants[0].ID, plants[1].ID)
	}

	day := time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	watered, err := db.WaterPlant(ctx, "a", day)
	if err != nil {
		t.Fatalf("WaterPlant: %v", err)
	}
	if watered == nil || watered.LastWatered == nil || *watered.LastWatered != "2024-01-01" {
		t.Fatalf("expected last_watered 2024-01-01, got %+v", watered)
	}
	if watered.Name != "Fig" {
		t.Errorf("water changed name to %q", watered.Name)
	}

	updated, err := db.UpdatePlant(ctx, "a", "Fiddle Fig", nil)
	if err != nil {
		t.Fatalf("UpdatePlant: %v", err)
	}
	if updated.Name != "Fiddle Fig" || updated.Species != nil {
		t.Errorf("unexpected update result %+v", updated)
	}
	if updated.LastWatered == nil || *updated.LastWatered != "2024-01-01" {
		t.Error("update must keep last_watered")
	}

	// Missing ids are zero-row acknowledgments.
	if p, err := db.UpdatePlant(ctx, "nope", "x", nil); err != nil || p != nil {
		t.Errorf("UpdatePlant missing: got %v, %v", p, err)
	}
	if p, err := db.WaterPlant(ctx, "nope", day); err != nil || p != nil {
		t.Errorf("WaterPlant missing: got %v, %v", p, err)
	}
	if ok, err := db.DeletePlant(ctx, "nope"); err != nil || ok {
		t.Errorf("DeletePlant missing: got %v, %v", ok, err)
	}

	ok, err := db.DeletePlant(ctx, "b")
	if err != nil || !ok {
		t.Fatalf("DeletePlant: %v, %v", ok, err)
	}
	plants, _ = db.ListPlants(ctx)
	if len(plants) != 1 || plants[0].ID != "a" {
		t.Errorf("expected only plant a, got %+v", plants)
	}
}

func TestListReturnsCopies(t *testing.T) {
	db := New()
	ctx := context.Background()
	_, _ = db.CreatePlant(ctx, "a", "Fig", nil, time.Now())

	plants, _ := db.ListPlants(ctx)
	plants[0].Name = "mutated"

	again, _ := db.ListPlants(ctx)
	if again[0].Name != "Fig" {
		t.Errorf("store mutated through list result: %q", again[0].Name)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	if err := db.CreateSession(ctx, "tok", "owner", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := db.CreateSession(ctx, "old", "owner", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	s, err := db.GetSession(ctx, "tok")
	if err != nil || s == nil {
		t.Fatalf("GetSession: %v, %v", s, err)
	}
	if s.Subject != "owner" {
		t.Errorf("expected subject owner, got %q", s.Subject)
	}

	if err := db.DeleteExpiredSessions(ctx); err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if s, _ := db.GetSession(ctx, "old"); s != nil {
		t.Error("expected expired session to be removed")
	}

	if err := db.DeleteSession(ctx, "tok"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if s, _ := db.GetSession(ctx, "tok"); s != nil {
		t.Error("expected session to be deleted")
	}
}
