// internal/app/features/assignments/engine_test.go
package assignments

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/wardsync/wardsync/internal/app/system/apierr"
	"github.com/wardsync/wardsync/internal/domain/models"
	"github.com/wardsync/wardsync/internal/testutil"
)

func TestCreateAssignsBedsAndFlipsFirstLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2", "B3")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")

	a, user, err := engine.Create(ctx, Actor{ID: intern.ID, Role: intern.Role}, AssignmentParams{
		DepartmentID: dept.ID,
		WardName:     "ICU",
		Beds:         []string{"B1", "B2"},
		DeptExpiry:   testutil.FutureTime(24 * 30),
		Note:         "rotation block 3",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID.IsZero() {
		t.Fatal("assignment should have an ID")
	}
	if !a.IsActive {
		t.Fatal("new assignment should be active")
	}
	if len(a.Beds) != 2 {
		t.Fatalf("assignment has %d beds, want 2", len(a.Beds))
	}
	if !user.FirstLoginDone {
		t.Fatal("first assignment should flip FirstLoginDone")
	}

	// Bed markers point at the intern; the untouched bed stays free.
	got, err := engine.departments.GetByID(ctx, dept.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	ward := got.Ward("ICU")
	for _, label := range []string{"B1", "B2"} {
		bed := ward.Bed(label)
		if bed.AssignedUser == nil || *bed.AssignedUser != intern.ID {
			t.Fatalf("bed %s not held by intern", label)
		}
	}
	if ward.Bed("B3").AssignedUser != nil {
		t.Fatal("bed B3 should be unassigned")
	}
}

func TestCreateRejectsUnknownTargets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	tests := []struct {
		name   string
		params AssignmentParams
	}{
		{"unknown department", AssignmentParams{DepartmentID: primitive.NewObjectID(), WardName: "ICU", Beds: []string{"B1"}}},
		{"unknown ward", AssignmentParams{DepartmentID: dept.ID, WardName: "Recovery", Beds: []string{"B1"}}},
		{"unknown bed", AssignmentParams{DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B9"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := engine.Create(ctx, actor, tt.params)
			var nf *apierr.NotFound
			if !errors.As(err, &nf) {
				t.Fatalf("err = %v, want NotFound", err)
			}
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := engine.Create(ctx, actor, AssignmentParams{DepartmentID: dept.ID, WardName: "ICU"})
		var v *apierr.Validation
		if !errors.As(err, &v) {
			t.Fatalf("err = %v, want Validation", err)
		}
	})
}

func TestCreateOverwritesOccupiedBed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1")
	first := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	second := fx.CreateIntern(ctx, "Ben Ito", "ben@example.org")

	p := AssignmentParams{DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"}}
	if _, _, err := engine.Create(ctx, Actor{ID: first.ID, Role: first.Role}, p); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, _, err := engine.Create(ctx, Actor{ID: second.ID, Role: second.Role}, p); err != nil {
		t.Fatalf("second Create: %v", err)
	}

	got, err := engine.departments.GetByID(ctx, dept.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	bed := got.Ward("ICU").Bed("B1")
	if bed.AssignedUser == nil || *bed.AssignedUser != second.ID {
		t.Fatal("latest grant should win the bed marker")
	}
}

func TestCreateSanitizesNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")

	a, _, err := engine.Create(ctx, Actor{ID: intern.ID, Role: intern.Role}, AssignmentParams{
		DepartmentID: dept.ID,
		WardName:     "ICU",
		Beds:         []string{"B1"},
		Note:         `<script>alert(1)</script>night shift`,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Note != "night shift" {
		t.Fatalf("note = %q, want script stripped", a.Note)
	}
}

func TestUpdateCollapsesHistoryAndMovesBeds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	surgery := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	cardio := fx.CreateDepartment(ctx, "Cardiology", "CCU", "C1")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	// Two assignments across two departments.
	a1, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: surgery.ID, WardName: "ICU", Beds: []string{"B1", "B2"},
	})
	if err != nil {
		t.Fatalf("Create a1: %v", err)
	}
	if _, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: cardio.ID, WardName: "CCU", Beds: []string{"C1"},
	}); err != nil {
		t.Fatalf("Create a2: %v", err)
	}

	// Full replace onto a single bed in Surgery, editing a1.
	updated, err := engine.Update(ctx, actor, a1.ID, AssignmentParams{
		DepartmentID: surgery.ID, WardName: "ICU", Beds: []string{"B2"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Beds) != 1 || updated.Beds[0] != "B2" {
		t.Fatalf("updated beds = %v, want [B2]", updated.Beds)
	}

	// Exactly one record survives.
	remaining, err := engine.assignments.ListByUser(ctx, intern.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != a1.ID {
		t.Fatalf("remaining = %d records, want only the edited one", len(remaining))
	}

	// Old holds everywhere are released; only B2 is held.
	s, _ := engine.departments.GetByID(ctx, surgery.ID)
	if s.Ward("ICU").Bed("B1").AssignedUser != nil {
		t.Fatal("B1 should have been freed")
	}
	if bed := s.Ward("ICU").Bed("B2"); bed.AssignedUser == nil || *bed.AssignedUser != intern.ID {
		t.Fatal("B2 should be held by the intern")
	}
	c, _ := engine.departments.GetByID(ctx, cardio.ID)
	if c.Ward("CCU").Bed("C1").AssignedUser != nil {
		t.Fatal("C1 in the other department should have been freed")
	}
}

func TestUpdateRequiresOwnershipUnlessAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	owner := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	other := fx.CreateIntern(ctx, "Ben Ito", "ben@example.org")
	admin := fx.CreateAdmin(ctx, "Root Admin", "admin@example.org")

	a, _, err := engine.Create(ctx, Actor{ID: owner.ID, Role: owner.Role}, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p := AssignmentParams{DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B2"}}

	_, err = engine.Update(ctx, Actor{ID: other.ID, Role: other.Role}, a.ID, p)
	var unauth *apierr.Unauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("non-owner err = %v, want Unauthorized", err)
	}

	// Admin edits on behalf of the original owner, not themselves.
	updated, err := engine.Update(ctx, Actor{ID: admin.ID, Role: admin.Role}, a.ID, p)
	if err != nil {
		t.Fatalf("admin Update: %v", err)
	}
	if updated.UserID != owner.ID {
		t.Fatal("admin update should keep the original owner")
	}

	got, _ := engine.departments.GetByID(ctx, dept.ID)
	if bed := got.Ward("ICU").Bed("B2"); bed.AssignedUser == nil || *bed.AssignedUser != owner.ID {
		t.Fatal("B2 should be held by the original owner")
	}
}

func TestUpdateBedNotFoundLeavesFreedBedsFreed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	a, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = engine.Update(ctx, actor, a.ID, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B9"},
	})
	var nf *apierr.NotFound
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFound", err)
	}

	// Freed beds are not rolled back on failure.
	got, _ := engine.departments.GetByID(ctx, dept.ID)
	if got.Ward("ICU").Bed("B1").AssignedUser != nil {
		t.Fatal("B1 stays freed after a failed update")
	}
}

func TestUpdateExpiryPatchesRaw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	a, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newExpiry := testutil.FutureTime(24 * 60)
	ghostDept := primitive.NewObjectID()
	ghostWard := "NoSuchWard"
	updated, err := engine.UpdateExpiry(ctx, actor, a.ID, ExpiryPatch{
		DeptExpiry:   newExpiry,
		DepartmentID: &ghostDept,
		Ward:         &ghostWard,
		Beds:         []string{"Z9"},
	})
	if err != nil {
		t.Fatalf("UpdateExpiry: %v", err)
	}
	if updated.DeptExpiry == nil || !updated.DeptExpiry.Equal(*newExpiry) {
		t.Fatal("deptExpiry not applied")
	}
	// The renewal path replaces location fields without existence checks.
	if updated.DepartmentID != ghostDept || updated.Ward != ghostWard || updated.Beds[0] != "Z9" {
		t.Fatal("patch fields should be applied verbatim")
	}

	// The original bed marker is untouched by the renewal path.
	got, _ := engine.departments.GetByID(ctx, dept.ID)
	if bed := got.Ward("ICU").Bed("B1"); bed.AssignedUser == nil || *bed.AssignedUser != intern.ID {
		t.Fatal("renewal must not touch bed markers")
	}
}

func TestAddBedsIdempotentAndPartialSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2", "B3")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	rival := fx.CreateIntern(ctx, "Ben Ito", "ben@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	a, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Rival takes B3.
	if _, _, err := engine.Create(ctx, Actor{ID: rival.ID, Role: rival.Role}, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B3"},
	}); err != nil {
		t.Fatalf("rival Create: %v", err)
	}

	// B1 already on the assignment, B2 free, B3 held by the rival.
	updated, conflicts, err := engine.AddBeds(ctx, actor, a.ID, []string{"B1", "B2", "B3"})
	if err != nil {
		t.Fatalf("AddBeds: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0] != "B3" {
		t.Fatalf("conflicts = %v, want [B3]", conflicts)
	}
	if len(updated.Beds) != 2 {
		t.Fatalf("beds = %v, want [B1 B2]", updated.Beds)
	}
	if !updated.HasBed("B1") || !updated.HasBed("B2") {
		t.Fatalf("beds = %v, want B1 and B2", updated.Beds)
	}

	// The rival keeps the conflicted bed.
	got, _ := engine.departments.GetByID(ctx, dept.ID)
	if bed := got.Ward("ICU").Bed("B3"); bed.AssignedUser == nil || *bed.AssignedUser != rival.ID {
		t.Fatal("conflicted bed must stay with its holder")
	}
}

func TestAddBedsUnknownBedFailsWholeCall(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	a, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, _, err = engine.AddBeds(ctx, actor, a.ID, []string{"B2", "B9"})
	var nf *apierr.NotFound
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFound", err)
	}

	// Nothing was persisted.
	got, _ := engine.assignments.GetByID(ctx, a.ID)
	if len(got.Beds) != 1 {
		t.Fatalf("beds = %v, want unchanged [B1]", got.Beds)
	}
	d, _ := engine.departments.GetByID(ctx, dept.ID)
	if d.Ward("ICU").Bed("B2").AssignedUser != nil {
		t.Fatal("B2 marker should be unchanged after a failed add")
	}
}

func TestRemoveBedsSkipsAndDeletesOnEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	a, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1", "B2"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// One real bed, one unknown label: the unknown is silently skipped.
	updated, deleted, err := engine.RemoveBeds(ctx, actor, a.ID, []string{"B1", "B9"})
	if err != nil {
		t.Fatalf("RemoveBeds: %v", err)
	}
	if deleted {
		t.Fatal("assignment with a remaining bed must not be deleted")
	}
	if len(updated.Beds) != 1 || updated.Beds[0] != "B2" {
		t.Fatalf("beds = %v, want [B2]", updated.Beds)
	}

	got, _ := engine.departments.GetByID(ctx, dept.ID)
	if got.Ward("ICU").Bed("B1").AssignedUser != nil {
		t.Fatal("B1 should be released")
	}

	// Removing the last bed deletes the record.
	_, deleted, err = engine.RemoveBeds(ctx, actor, a.ID, []string{"B2"})
	if err != nil {
		t.Fatalf("RemoveBeds (last): %v", err)
	}
	if !deleted {
		t.Fatal("removing the last bed should delete the assignment")
	}
	if _, err := engine.assignments.GetByID(ctx, a.ID); err == nil {
		t.Fatal("assignment record should be gone")
	}
}

func TestMyAssignmentsJoinsLiveBedsAndToleratesDangling(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	if _, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1", "B2"},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// A stale record pointing at a department that never existed.
	fx.CreateAssignment(ctx, models.Assignment{
		UserID:       intern.ID,
		DepartmentID: primitive.NewObjectID(),
		Ward:         "Ghost",
		Beds:         []string{"X1"},
		IsActive:     true,
		CreatedBy:    intern.ID,
	})
	// Inactive records are excluded.
	fx.CreateAssignment(ctx, models.Assignment{
		UserID:       intern.ID,
		DepartmentID: dept.ID,
		Ward:         "ICU",
		Beds:         []string{"B1"},
		IsActive:     false,
		CreatedBy:    intern.ID,
	})

	views, err := engine.MyAssignments(ctx, intern.ID)
	if err != nil {
		t.Fatalf("MyAssignments: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2 active", len(views))
	}
	for _, v := range views {
		switch v.Ward {
		case "ICU":
			if len(v.Beds) != 2 {
				t.Fatalf("ICU view has %d joined beds, want 2", len(v.Beds))
			}
			for _, bed := range v.Beds {
				if bed.AssignedUser == nil || *bed.AssignedUser != intern.ID {
					t.Fatal("joined beds should reflect live holders")
				}
			}
		case "Ghost":
			if len(v.Beds) != 0 {
				t.Fatal("dangling reference should join to zero beds")
			}
		default:
			t.Fatalf("unexpected ward %q", v.Ward)
		}
	}
}

func TestExpiryForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")

	info, err := engine.ExpiryForUser(ctx, intern.ID)
	if err != nil {
		t.Fatalf("ExpiryForUser: %v", err)
	}
	if info != nil {
		t.Fatal("user with no assignments should get nil")
	}

	older := time.Now().UTC().Add(-2 * time.Hour)
	fx.CreateAssignment(ctx, models.Assignment{
		UserID: intern.ID, DepartmentID: primitive.NewObjectID(), Ward: "A",
		Beds: []string{"B1"}, DeptExpiry: testutil.FutureTime(1),
		IsActive: true, CreatedAt: older, CreatedBy: intern.ID,
	})
	want := testutil.FutureTime(48)
	fx.CreateAssignment(ctx, models.Assignment{
		UserID: intern.ID, DepartmentID: primitive.NewObjectID(), Ward: "B",
		Beds: []string{"B2"}, DeptExpiry: want, WardExpiry: testutil.FutureTime(24),
		IsActive: true, CreatedAt: time.Now().UTC(), CreatedBy: intern.ID,
	})

	info, err = engine.ExpiryForUser(ctx, intern.ID)
	if err != nil {
		t.Fatalf("ExpiryForUser: %v", err)
	}
	if info == nil || info.DeptExpiry == nil || !info.DeptExpiry.Equal(*want) {
		t.Fatal("should report the most recent assignment's expiry")
	}
}

func TestSweepExpiredDeactivatesAndReleases(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	engine := NewEngine(db, zap.NewNop())

	dept := fx.CreateDepartment(ctx, "Surgery", "ICU", "B1", "B2")
	intern := fx.CreateIntern(ctx, "Ana Ruiz", "ana@example.org")
	fresh := fx.CreateIntern(ctx, "Ben Ito", "ben@example.org")
	actor := Actor{ID: intern.ID, Role: intern.Role}

	expired, _, err := engine.Create(ctx, actor, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B1"},
		WardExpiry: testutil.PastTime(1),
	})
	if err != nil {
		t.Fatalf("Create expired: %v", err)
	}
	alive, _, err := engine.Create(ctx, Actor{ID: fresh.ID, Role: fresh.Role}, AssignmentParams{
		DepartmentID: dept.ID, WardName: "ICU", Beds: []string{"B2"},
		DeptExpiry: testutil.FutureTime(24),
	})
	if err != nil {
		t.Fatalf("Create alive: %v", err)
	}
	// An expired record whose department vanished: still deactivated.
	dangling := fx.CreateAssignment(ctx, models.Assignment{
		UserID: intern.ID, DepartmentID: primitive.NewObjectID(), Ward: "Ghost",
		Beds: []string{"X1"}, DeptExpiry: testutil.PastTime(2),
		IsActive: true, CreatedBy: intern.ID,
	})

	swept, err := engine.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if swept != 2 {
		t.Fatalf("swept = %d, want 2", swept)
	}

	for _, id := range []primitive.ObjectID{expired.ID, dangling.ID} {
		got, err := engine.assignments.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.IsActive {
			t.Fatalf("assignment %s should be inactive", id.Hex())
		}
	}
	got, _ := engine.assignments.GetByID(ctx, alive.ID)
	if !got.IsActive {
		t.Fatal("unexpired assignment must stay active")
	}

	d, _ := engine.departments.GetByID(ctx, dept.ID)
	if d.Ward("ICU").Bed("B1").AssignedUser != nil {
		t.Fatal("expired assignment's bed should be released")
	}
	if bed := d.Ward("ICU").Bed("B2"); bed.AssignedUser == nil || *bed.AssignedUser != fresh.ID {
		t.Fatal("live assignment's bed must keep its holder")
	}

	// Running again is a no-op.
	swept, err = engine.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("second SweepExpired: %v", err)
	}
	if swept != 0 {
		t.Fatalf("second sweep swept %d, want 0", swept)
	}
}
