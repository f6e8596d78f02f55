package service

import (
	"context"
	"strings"
	"testing"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
)

func TestCategoryCreate(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	svc := NewCategoryService(db, nil)
	ctx := context.Background()

	cat, err := svc.Create(ctx, CategoryInput{
		Name:        "Web Development",
		Description: "All <b>web</b> things",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if cat.Slug != "web-development" {
		t.Errorf("Slug = %q", cat.Slug)
	}
	if !cat.Description.Valid || strings.Contains(cat.Description.String, "<b>") {
		t.Errorf("Description not plain-sanitized: %v", cat.Description)
	}
}

func TestCategoryValidation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	svc := NewCategoryService(db, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CategoryInput{Name: "x"})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctx, CategoryInput{Name: strings.Repeat("a", 51)})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Create(ctx, CategoryInput{Name: "OK", Description: strings.Repeat("d", 501)})
	wantKind(t, err, apperr.KindValidation)
}

func TestCategoryDuplicates(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	svc := NewCategoryService(db, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CategoryInput{Name: "Tutorials"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same name, different case.
	_, err := svc.Create(ctx, CategoryInput{Name: "TUTORIALS"})
	wantKind(t, err, apperr.KindConflict)

	// Distinct name colliding on the derived slug.
	_, err = svc.Create(ctx, CategoryInput{Name: "Tutorials!"})
	wantKind(t, err, apperr.KindConflict)
}

func TestCategoryUpdateAndDelete(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	svc := NewCategoryService(db, nil)
	ctx := context.Background()

	cat, err := svc.Create(ctx, CategoryInput{Name: "News"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The slug follows the name on rename.
	updated, err := svc.Update(ctx, cat.ID, CategoryInput{Name: "Press Releases"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "press-releases" {
		t.Errorf("Slug = %q", updated.Slug)
	}

	// Updating with its own name is not a conflict.
	if _, err := svc.Update(ctx, cat.ID, CategoryInput{Name: "Press Releases"}); err != nil {
		t.Errorf("self-update: %v", err)
	}

	if err := svc.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err = svc.Get(ctx, "press-releases")
	wantKind(t, err, apperr.KindNotFound)

	err = svc.Delete(ctx, cat.ID)
	wantKind(t, err, apperr.KindNotFound)

	_, err = svc.Update(ctx, cat.ID, CategoryInput{Name: "Ghost"})
	wantKind(t, err, apperr.KindNotFound)
}

func TestCategoryList(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	svc := NewCategoryService(db, nil)
	ctx := context.Background()

	for _, name := range []string{"Go", "Databases", "Deployment"} {
		if _, err := svc.Create(ctx, CategoryInput{Name: name}); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}
	// Ordered by name.
	if all[0].Name != "Databases" {
		t.Errorf("first = %q", all[0].Name)
	}

	matched, err := svc.List(ctx, "de")
	if err != nil {
		t.Fatalf("List with search: %v", err)
	}
	if len(matched) != 1 || matched[0].Name != "Deployment" {
		t.Errorf("search results = %v", matched)
	}
}
