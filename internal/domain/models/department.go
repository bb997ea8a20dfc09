// internal/domain/models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department is the aggregate root of the facility catalog. Wards and beds
// are embedded, so every bed-state change is persisted as a full replace of
// the department document.
type Department struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Wards []Ward             `bson:"wards" json:"wards"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Ward is a sub-unit of a department. Ward names are unique within a
// department by convention only; nothing enforces it.
type Ward struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Beds []Bed              `bson:"beds" json:"beds"`
}

// Bed is the smallest assignable unit.
//
// Label is the user-facing bed identifier ("B1", "ICU-03", ...) that
// assignments reference; it is distinct from the generated storage ID.
// Status is display-only and never gates assignment. AssignedUser marks
// which user currently holds the bed for rotation notifications.
type Bed struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	Label        string              `bson:"label" json:"bedId"`
	Status       string              `bson:"status" json:"status"`
	AssignedUser *primitive.ObjectID `bson:"assigned_user,omitempty" json:"assignedUser,omitempty"`
}

// Ward returns a pointer into the department's ward slice for the ward with
// the given name, or nil if absent. The pointer stays valid until the slice
// is reallocated, so callers mutate the ward in place and then persist the
// whole department.
func (d *Department) Ward(name string) *Ward {
	for i := range d.Wards {
		if d.Wards[i].Name == name {
			return &d.Wards[i]
		}
	}
	return nil
}

// WardByID returns a pointer to the embedded ward with the given storage ID,
// or nil if absent.
func (d *Department) WardByID(id primitive.ObjectID) *Ward {
	for i := range d.Wards {
		if d.Wards[i].ID == id {
			return &d.Wards[i]
		}
	}
	return nil
}

// RemoveWard deletes the embedded ward with the given storage ID.
// It reports whether a ward was removed. Assignments referencing the ward
// are not touched; dangling references are tolerated by readers and by the
// expiry sweep.
func (d *Department) RemoveWard(id primitive.ObjectID) bool {
	for i := range d.Wards {
		if d.Wards[i].ID == id {
			d.Wards = append(d.Wards[:i], d.Wards[i+1:]...)
			return true
		}
	}
	return false
}

// ReleaseBedsHeldBy clears AssignedUser on every bed in the department that
// is currently held by the given user, across all wards. Returns the number
// of beds released.
func (d *Department) ReleaseBedsHeldBy(userID primitive.ObjectID) int {
	released := 0
	for wi := range d.Wards {
		for bi := range d.Wards[wi].Beds {
			b := &d.Wards[wi].Beds[bi]
			if b.AssignedUser != nil && *b.AssignedUser == userID {
				b.AssignedUser = nil
				released++
			}
		}
	}
	return released
}

// Bed returns a pointer into the ward's bed slice for the first bed with the
// given user-facing label, or nil if absent. Duplicate labels are permitted
// by the data model; lookups always resolve to the first match.
func (w *Ward) Bed(label string) *Bed {
	for i := range w.Beds {
		if w.Beds[i].Label == label {
			return &w.Beds[i]
		}
	}
	return nil
}

// BedByID returns a pointer to the embedded bed with the given storage ID,
// or nil if absent.
func (w *Ward) BedByID(id primitive.ObjectID) *Bed {
	for i := range w.Beds {
		if w.Beds[i].ID == id {
			return &w.Beds[i]
		}
	}
	return nil
}

// RemoveBed deletes the embedded bed with the given storage ID and reports
// whether a bed was removed. As with RemoveWard, assignments referencing the
// bed label are left alone.
func (w *Ward) RemoveBed(id primitive.ObjectID) bool {
	for i := range w.Beds {
		if w.Beds[i].ID == id {
			w.Beds = append(w.Beds[:i], w.Beds[i+1:]...)
			return true
		}
	}
	return false
}

// HeldBy reports whether the bed is currently held by the given user.
func (b *Bed) HeldBy(userID primitive.ObjectID) bool {
	return b.AssignedUser != nil && *b.AssignedUser == userID
}
