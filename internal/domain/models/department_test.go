package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptrID(id primitive.ObjectID) *primitive.ObjectID { return &id }

func testDepartment() Department {
	return Department{
		ID:   primitive.NewObjectID(),
		Name: "Surgery",
		Wards: []Ward{
			{
				ID:   primitive.NewObjectID(),
				Name: "ICU",
				Beds: []Bed{
					{ID: primitive.NewObjectID(), Label: "B1", Status: "available"},
					{ID: primitive.NewObjectID(), Label: "B2", Status: "available"},
				},
			},
			{
				ID:   primitive.NewObjectID(),
				Name: "Recovery",
				Beds: []Bed{
					{ID: primitive.NewObjectID(), Label: "R1", Status: "available"},
				},
			},
		},
	}
}

func TestDepartment_Ward(t *testing.T) {
	d := testDepartment()

	w := d.Ward("ICU")
	if w == nil {
		t.Fatal("expected ICU ward to be found")
	}
	if w.Name != "ICU" {
		t.Errorf("Name: got %q, want %q", w.Name, "ICU")
	}

	if d.Ward("Oncology") != nil {
		t.Error("expected missing ward lookup to return nil")
	}
}

func TestDepartment_Ward_ReturnsMutablePointer(t *testing.T) {
	d := testDepartment()

	w := d.Ward("ICU")
	w.Beds = append(w.Beds, Bed{ID: primitive.NewObjectID(), Label: "B3"})

	if len(d.Wards[0].Beds) != 3 {
		t.Errorf("beds after append: got %d, want 3", len(d.Wards[0].Beds))
	}
}

func TestWard_Bed(t *testing.T) {
	d := testDepartment()
	w := d.Ward("ICU")

	b := w.Bed("B2")
	if b == nil {
		t.Fatal("expected B2 to be found")
	}
	if b.Label != "B2" {
		t.Errorf("Label: got %q, want %q", b.Label, "B2")
	}

	if w.Bed("B9") != nil {
		t.Error("expected missing bed lookup to return nil")
	}
}

func TestWard_Bed_DuplicateLabelsResolveFirst(t *testing.T) {
	user := primitive.NewObjectID()
	w := Ward{
		Beds: []Bed{
			{ID: primitive.NewObjectID(), Label: "B1", AssignedUser: ptrID(user)},
			{ID: primitive.NewObjectID(), Label: "B1"},
		},
	}

	b := w.Bed("B1")
	if b == nil {
		t.Fatal("expected a bed")
	}
	if !b.HeldBy(user) {
		t.Error("expected lookup to resolve the first matching bed")
	}
}

func TestDepartment_RemoveWard(t *testing.T) {
	d := testDepartment()
	wardID := d.Wards[0].ID

	if !d.RemoveWard(wardID) {
		t.Fatal("expected RemoveWard to report true")
	}
	if len(d.Wards) != 1 {
		t.Errorf("wards: got %d, want 1", len(d.Wards))
	}
	if d.Ward("ICU") != nil {
		t.Error("expected ICU to be gone")
	}

	if d.RemoveWard(wardID) {
		t.Error("expected second removal to report false")
	}
}

func TestWard_RemoveBed(t *testing.T) {
	d := testDepartment()
	w := d.Ward("ICU")
	bedID := w.Beds[0].ID

	if !w.RemoveBed(bedID) {
		t.Fatal("expected RemoveBed to report true")
	}
	if len(w.Beds) != 1 {
		t.Errorf("beds: got %d, want 1", len(w.Beds))
	}
	if w.RemoveBed(bedID) {
		t.Error("expected second removal to report false")
	}
}

func TestDepartment_ReleaseBedsHeldBy(t *testing.T) {
	d := testDepartment()
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()

	// User holds one bed in each ward; another user holds a third bed.
	d.Wards[0].Beds[0].AssignedUser = ptrID(user)
	d.Wards[0].Beds[1].AssignedUser = ptrID(other)
	d.Wards[1].Beds[0].AssignedUser = ptrID(user)

	released := d.ReleaseBedsHeldBy(user)
	if released != 2 {
		t.Errorf("released: got %d, want 2", released)
	}
	if d.Wards[0].Beds[0].AssignedUser != nil {
		t.Error("expected user's ICU bed to be released")
	}
	if d.Wards[1].Beds[0].AssignedUser != nil {
		t.Error("expected user's Recovery bed to be released")
	}
	if d.Wards[0].Beds[1].AssignedUser == nil || *d.Wards[0].Beds[1].AssignedUser != other {
		t.Error("expected the other user's bed to be untouched")
	}
}

func TestBed_HeldBy(t *testing.T) {
	user := primitive.NewObjectID()

	b := Bed{Label: "B1"}
	if b.HeldBy(user) {
		t.Error("unassigned bed should not be held")
	}

	b.AssignedUser = ptrID(user)
	if !b.HeldBy(user) {
		t.Error("expected bed to be held by user")
	}
	if b.HeldBy(primitive.NewObjectID()) {
		t.Error("bed should not be held by a different user")
	}
}
