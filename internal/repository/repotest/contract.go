// Package repotest holds the behaviour every ReportRepository must share.
package repotest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/domain"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
)

var base = time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)

func report(id, reportType string, offset time.Duration, payload string) *domain.Report {
	return &domain.Report{
		ID:        id,
		Type:      reportType,
		Reporter:  "inspector",
		Payload:   json.RawMessage(payload),
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	}
}

// Run exercises repo against the ReportRepository contract. newRepo must
// return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) repository.ReportRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		want := report("11111111-1111-1111-1111-111111111111", "qcs_raw_material", 0, `{"header":{"invoiceNo":"INV-1"}}`)
		if err := repo.Create(ctx, want); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := repo.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Type != want.Type || got.Reporter != want.Reporter {
			t.Errorf("got %+v, want %+v", got, want)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
		assertPayload(t, got.Payload, `{"header":{"invoiceNo":"INV-1"}}`)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.Get(ctx, "22222222-2222-2222-2222-222222222222"); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list by type is ordered", func(t *testing.T) {
		repo := newRepo(t)
		seed := []*domain.Report{
			report("33333333-3333-3333-3333-333333333333", "a", 2*time.Hour, `{}`),
			report("11111111-1111-1111-1111-111111111111", "a", time.Hour, `{}`),
			report("22222222-2222-2222-2222-222222222222", "a", time.Hour, `{}`),
			report("44444444-4444-4444-4444-444444444444", "b", 0, `{}`),
		}
		for _, r := range seed {
			if err := repo.Create(ctx, r); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		got, err := repo.ListByType(ctx, "a")
		if err != nil {
			t.Fatalf("ListByType failed: %v", err)
		}
		want := []string{
			"11111111-1111-1111-1111-111111111111",
			"22222222-2222-2222-2222-222222222222",
			"33333333-3333-3333-3333-333333333333",
		}
		if len(got) != len(want) {
			t.Fatalf("got %d reports, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].ID != want[i] {
				t.Errorf("position %d = %s, want %s", i, got[i].ID, want[i])
			}
		}

		empty, err := repo.ListByType(ctx, "missing")
		if err != nil {
			t.Fatalf("ListByType failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("got %d reports for unknown type", len(empty))
		}
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		r := report("55555555-5555-5555-5555-555555555555", "a", 0, `{"status":"draft"}`)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := repo.Update(ctx, r.ID, json.RawMessage(`{"status":"final"}`))
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		assertPayload(t, got.Payload, `{"status":"final"}`)
		if got.Type != "a" || !got.CreatedAt.Equal(r.CreatedAt) {
			t.Errorf("update changed identity fields: %+v", got)
		}
		if got.UpdatedAt.Before(r.UpdatedAt) {
			t.Errorf("UpdatedAt went backwards: %v", got.UpdatedAt)
		}

		if _, err := repo.Update(ctx, "66666666-6666-6666-6666-666666666666", json.RawMessage(`{}`)); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("Update missing error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		r := report("77777777-7777-7777-7777-777777777777", "a", 0, `{}`)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.Delete(ctx, r.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("Get after delete error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("second Delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list types", func(t *testing.T) {
		repo := newRepo(t)
		ids := []string{
			"88888888-8888-8888-8888-888888888881",
			"88888888-8888-8888-8888-888888888882",
			"88888888-8888-8888-8888-888888888883",
		}
		for i, reportType := range []string{"qcs_temp", "qcs_raw_material", "qcs_temp"} {
			if err := repo.Create(ctx, report(ids[i], reportType, 0, `{}`)); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		got, err := repo.ListTypes(ctx)
		if err != nil {
			t.Fatalf("ListTypes failed: %v", err)
		}
		if len(got) != 2 || got[0] != "qcs_raw_material" || got[1] != "qcs_temp" {
			t.Errorf("ListTypes = %v", got)
		}
	})
}

func assertPayload(t *testing.T, got json.RawMessage, want string) {
	t.Helper()
	g, err := domain.DecodeObject(got)
	if err != nil {
		t.Fatalf("decode payload %s: %v", got, err)
	}
	w, _ := domain.DecodeObject([]byte(want))
	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if string(gb) != string(wb) {
		t.Errorf("payload = %s, want %s", gb, wb)
	}
}
