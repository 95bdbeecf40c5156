package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
)

func TestAreaService_CreateNormalizes(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAreaService(db, repo.AreaStore{})

	// decomposed e + U+0301 is stored as the precomposed U+00E9
	a, err := svc.Create(context.Background(), "u1", AreaInput{Name: "  Cafe\u0301   Time ", Color: "#AbCdEf", Icon: " mug "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Name != "Caf\u00e9 Time" || a.Color != "#abcdef" || a.Icon != "mug" || a.UserID != "u1" {
		t.Fatalf("unexpected area: %+v", a)
	}

	// The precomposed spelling now collides on the unique index.
	_, err = svc.Create(context.Background(), "u1", AreaInput{Name: "Caf\u00e9 Time", Color: "#000000"})
	if got := (apperr.Classifier{}).Classify(err); got.Code != apperr.CodeDuplicateResource {
		t.Fatalf("expected DUPLICATE_RESOURCE, got %s (%v)", got.Code, err)
	}
}

func TestAreaService_BlankName(t *testing.T) {
	svc := NewAreaService(newServiceDB(t), repo.AreaStore{})
	_, err := svc.Create(context.Background(), "u1", AreaInput{Name: " \t ", Color: "#000000"})
	if kindOf(t, err) != apperr.KindUnprocessable {
		t.Fatalf("expected Unprocessable, got %v", err)
	}
	blank := "   "
	_, err = svc.Update(context.Background(), "u1", "any", AreaPatch{Name: &blank})
	if kindOf(t, err) != apperr.KindUnprocessable {
		t.Fatalf("expected Unprocessable on update, got %v", err)
	}
}

func TestAreaService_GetUpdateDelete_Ownership(t *testing.T) {
	db := newServiceDB(t)
	svc := NewAreaService(db, repo.AreaStore{})
	ctx := context.Background()
	a := mustCreateArea(t, db, "u1", "Health")

	if _, err := svc.Get(ctx, "u2", a.ID); kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("foreign Get: %v", err)
	}

	name, order := "Fitness", 4
	got, err := svc.Update(ctx, "u1", a.ID, AreaPatch{Name: &name, SortOrder: &order})
	if err != nil || got.Name != "Fitness" || got.SortOrder != 4 {
		t.Fatalf("Update = %+v, %v", got, err)
	}
	if _, err := svc.Update(ctx, "u2", a.ID, AreaPatch{Name: &name}); kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("foreign Update: %v", err)
	}

	if err := svc.Delete(ctx, "u2", a.ID); kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("foreign Delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Fatalf("List after delete = %+v, %v", list, err)
	}
}

type failingAreaRepo struct{ repo.AreaStore }

func (failingAreaRepo) GetArea(context.Context, *gorm.DB, string, string) (*domain.LifeArea, error) {
	return nil, errors.New("connection reset")
}

func TestAreaService_Get_PropagatesStoreErrors(t *testing.T) {
	svc := NewAreaService(newServiceDB(t), failingAreaRepo{})
	_, err := svc.Get(context.Background(), "u1", "a1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := apperr.As(err); ok {
		t.Fatalf("store failures must stay unclassified, got %v", err)
	}
}
