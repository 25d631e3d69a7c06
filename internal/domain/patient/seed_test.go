package patient

import (
	"context"
	"testing"
)

func TestSeed_CreatesDemoUsers(t *testing.T) {
	repo := newMockRepo()

	created, err := Seed(context.Background(), repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created users, got %d", len(created))
	}

	pat, err := repo.GetByRun(context.Background(), "11111111-1")
	if err != nil {
		t.Fatalf("seeded patient missing: %v", err)
	}
	if pat.Anticoagulacion == nil || pat.Anticoagulacion.Medicamento != MedAcenocumarol {
		t.Errorf("expected configured anticoagulation profile, got %+v", pat.Anticoagulacion)
	}
	if _, err := repo.GetByRun(context.Background(), "22222222-2"); err != nil {
		t.Errorf("seeded doctor missing: %v", err)
	}
}

func TestSeed_SkipsExistingRuns(t *testing.T) {
	repo := newMockRepo()
	seedPatient(repo, "11111111-1")

	created, err := Seed(context.Background(), repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected only the doctor to be created, got %d", len(created))
	}
	if created[0].Run != "22222222-2" {
		t.Errorf("unexpected created user: %s", created[0].Run)
	}

	// The existing patient keeps their record untouched.
	pat, _ := repo.GetByRun(context.Background(), "11111111-1")
	if pat.Nombre != "María" || pat.Anticoagulacion != nil {
		t.Errorf("existing user was replaced: %+v", pat)
	}
}
