// internal/app/features/assignments/engine.go
package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	assignmentstore "github.com/wardsync/wardsync/internal/app/store/assignments"
	departmentstore "github.com/wardsync/wardsync/internal/app/store/departments"
	userstore "github.com/wardsync/wardsync/internal/app/store/users"
	"github.com/wardsync/wardsync/internal/app/system/apierr"
	"github.com/wardsync/wardsync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Engine owns every mutation of assignment records and the bed ownership
// markers they control. All operations follow the same shape: read the
// department document, mutate the embedded ward/bed structure in memory,
// write the whole document back, then write the assignment. The two writes
// are separate and non-transactional; readers see either the pre- or
// post-mutation department, and cross-document consistency is eventual.
type Engine struct {
	departments *departmentstore.Store
	assignments *assignmentstore.Store
	users       *userstore.Store
	notes       *bluemonday.Policy
	log         *zap.Logger
}

// NewEngine constructs the assignment engine over the given database.
func NewEngine(db *mongo.Database, logger *zap.Logger) *Engine {
	return &Engine{
		departments: departmentstore.New(db),
		assignments: assignmentstore.New(db),
		users:       userstore.New(db),
		notes:       bluemonday.StrictPolicy(),
		log:         logger,
	}
}

// Actor is the authenticated user an operation runs as.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

// canActOn reports whether the actor may operate on an assignment owned by
// ownerID: admins on anyone's, everyone else only on their own.
func (a Actor) canActOn(ownerID primitive.ObjectID) bool {
	return a.isAdmin() || a.ID == ownerID
}

// AssignmentParams carries the fields of a create or full-update request.
type AssignmentParams struct {
	DepartmentID primitive.ObjectID
	WardName     string
	Beds         []string
	DeptExpiry   *time.Time
	WardExpiry   *time.Time
	Note         string
}

func (p AssignmentParams) validate() error {
	if p.DepartmentID.IsZero() {
		return &apierr.Validation{Field: "deptId"}
	}
	if p.WardName == "" {
		return &apierr.Validation{Field: "wardName"}
	}
	if len(p.Beds) == 0 {
		return &apierr.Validation{Field: "beds"}
	}
	return nil
}

// Create allocates the requested beds to the actor and records a new active
// assignment.
//
// Bed existence is checked; occupancy deliberately is not. A bed already
// held by another user is simply overwritten, because multiple staff rotate
// through the same physical bed and the marker tracks the latest grant.
// The actor's FirstLoginDone flag is flipped on their first assignment.
func (e *Engine) Create(ctx context.Context, actor Actor, p AssignmentParams) (models.Assignment, models.User, error) {
	var none models.Assignment

	if err := p.validate(); err != nil {
		return none, models.User{}, err
	}

	dept, err := e.departments.GetByID(ctx, p.DepartmentID)
	if err != nil {
		return none, models.User{}, notFoundOr(err, "department", p.DepartmentID.Hex())
	}
	ward := dept.Ward(p.WardName)
	if ward == nil {
		return none, models.User{}, &apierr.NotFound{Resource: "ward", ID: p.WardName}
	}

	for _, label := range p.Beds {
		bed := ward.Bed(label)
		if bed == nil {
			return none, models.User{}, &apierr.NotFound{Resource: "bed", ID: label}
		}
		holder := actor.ID
		bed.AssignedUser = &holder
	}

	if _, err := e.departments.Update(ctx, dept); err != nil {
		return none, models.User{}, fmt.Errorf("persist department: %w", err)
	}

	a, err := e.assignments.Create(ctx, models.Assignment{
		UserID:       actor.ID,
		DepartmentID: p.DepartmentID,
		Ward:         p.WardName,
		Beds:         p.Beds,
		DeptExpiry:   p.DeptExpiry,
		WardExpiry:   p.WardExpiry,
		Note:         e.notes.Sanitize(p.Note),
		CreatedBy:    actor.ID,
	})
	if err != nil {
		return none, models.User{}, fmt.Errorf("persist assignment: %w", err)
	}

	user, err := e.users.FindByID(ctx, actor.ID)
	if err != nil {
		return none, models.User{}, notFoundOr(err, "user", actor.ID.Hex())
	}
	if !user.FirstLoginDone {
		if err := e.users.MarkFirstLoginDone(ctx, user.ID); err != nil {
			return none, models.User{}, fmt.Errorf("mark first login: %w", err)
		}
		user.FirstLoginDone = true
	}

	return a, user, nil
}

// Update is a destructive full replace: afterwards the target user has
// exactly one assignment, holding exactly the requested beds.
//
// Admins act on the assignment's original owner; everyone else may only
// update their own assignment. The step order matters and is preserved:
// free every bed the target holds across all their assignments, collapse
// their history to the one record being edited, then claim the new beds.
// A bed-not-found failure after the freeing step does not roll the freed
// beds back; that gap is inherited behavior, kept deliberately.
func (e *Engine) Update(ctx context.Context, actor Actor, assignmentID primitive.ObjectID, p AssignmentParams) (models.Assignment, error) {
	var none models.Assignment

	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return none, notFoundOr(err, "assignment", assignmentID.Hex())
	}

	target := actor.ID
	if actor.isAdmin() {
		target = a.UserID
	} else if a.UserID != actor.ID {
		return none, &apierr.Unauthorized{}
	}

	if err := p.validate(); err != nil {
		return none, err
	}

	// Validate the destination before touching anything.
	destDept, err := e.departments.GetByID(ctx, p.DepartmentID)
	if err != nil {
		return none, notFoundOr(err, "department", p.DepartmentID.Hex())
	}
	if destDept.Ward(p.WardName) == nil {
		return none, &apierr.NotFound{Resource: "ward", ID: p.WardName}
	}

	// Free every bed the target currently holds, across all of their
	// assignments and whichever departments those point at.
	existing, err := e.assignments.ListByUser(ctx, target)
	if err != nil {
		return none, fmt.Errorf("list assignments: %w", err)
	}
	for _, prev := range existing {
		if err := e.releaseAssignmentBeds(ctx, prev, target); err != nil {
			return none, err
		}
	}

	// Collapse history: the edited record becomes the only one.
	if _, err := e.assignments.DeleteByUserExcept(ctx, target, a.ID); err != nil {
		return none, fmt.Errorf("collapse assignments: %w", err)
	}

	// Re-read the destination; the freeing pass may have rewritten it.
	destDept, err = e.departments.GetByID(ctx, p.DepartmentID)
	if err != nil {
		return none, notFoundOr(err, "department", p.DepartmentID.Hex())
	}
	destWard := destDept.Ward(p.WardName)
	if destWard == nil {
		return none, &apierr.NotFound{Resource: "ward", ID: p.WardName}
	}
	for _, label := range p.Beds {
		bed := destWard.Bed(label)
		if bed == nil {
			// Beds freed above stay freed. Inherited atomicity gap.
			return none, &apierr.NotFound{Resource: "bed", ID: label}
		}
		holder := target
		bed.AssignedUser = &holder
	}
	if _, err := e.departments.Update(ctx, destDept); err != nil {
		return none, fmt.Errorf("persist department: %w", err)
	}

	a.UserID = target
	a.DepartmentID = p.DepartmentID
	a.Ward = p.WardName
	a.Beds = p.Beds
	a.DeptExpiry = p.DeptExpiry
	a.WardExpiry = p.WardExpiry
	a.Note = e.notes.Sanitize(p.Note)

	a, err = e.assignments.Update(ctx, a)
	if err != nil {
		return none, fmt.Errorf("persist assignment: %w", err)
	}
	return a, nil
}

// releaseAssignmentBeds clears the target's hold on every bed the given
// assignment references, skipping departments, wards, and beds that no
// longer resolve.
func (e *Engine) releaseAssignmentBeds(ctx context.Context, a models.Assignment, target primitive.ObjectID) error {
	dept, err := e.departments.GetByID(ctx, a.DepartmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil
		}
		return fmt.Errorf("load department: %w", err)
	}
	ward := dept.Ward(a.Ward)
	if ward == nil {
		return nil
	}

	changed := false
	for _, label := range a.Beds {
		bed := ward.Bed(label)
		if bed != nil && bed.HeldBy(target) {
			bed.AssignedUser = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if _, err := e.departments.Update(ctx, dept); err != nil {
		return fmt.Errorf("persist department: %w", err)
	}
	return nil
}

// ExpiryPatch carries the optional fields of an expiry-renewal request.
// Nil fields are left untouched.
type ExpiryPatch struct {
	DeptExpiry   *time.Time
	WardExpiry   *time.Time
	DepartmentID *primitive.ObjectID
	Ward         *string
	Beds         []string
}

// UpdateExpiry overwrites whichever fields of the assignment are present in
// the patch. This is the lightweight renewal path: unlike Update the
// department, ward, and beds replacements are applied raw, with no existence
// checks and no bed-state side effects. The asymmetry with the full-update
// path is inherited behavior, kept deliberately.
func (e *Engine) UpdateExpiry(ctx context.Context, actor Actor, assignmentID primitive.ObjectID, p ExpiryPatch) (models.Assignment, error) {
	var none models.Assignment

	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return none, notFoundOr(err, "assignment", assignmentID.Hex())
	}
	if !actor.canActOn(a.UserID) {
		return none, &apierr.Unauthorized{}
	}

	if p.DeptExpiry != nil {
		a.DeptExpiry = p.DeptExpiry
	}
	if p.WardExpiry != nil {
		a.WardExpiry = p.WardExpiry
	}
	if p.DepartmentID != nil {
		a.DepartmentID = *p.DepartmentID
	}
	if p.Ward != nil {
		a.Ward = *p.Ward
	}
	if p.Beds != nil {
		a.Beds = p.Beds
	}

	a, err = e.assignments.Update(ctx, a)
	if err != nil {
		return none, fmt.Errorf("persist assignment: %w", err)
	}
	return a, nil
}

// AddBeds adds the requested beds to an existing assignment.
//
// A bed that does not exist in the assignment's ward fails the whole call.
// A bed held by a different user is recorded as a conflict and skipped; the
// remaining beds are still added and persisted, so the result is a partial
// success reported alongside the conflict list. Adding a bed already on the
// assignment is idempotent.
func (e *Engine) AddBeds(ctx context.Context, actor Actor, assignmentID primitive.ObjectID, labels []string) (models.Assignment, []string, error) {
	var none models.Assignment

	if len(labels) == 0 {
		return none, nil, &apierr.Validation{Field: "beds"}
	}

	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return none, nil, notFoundOr(err, "assignment", assignmentID.Hex())
	}
	if !actor.canActOn(a.UserID) {
		return none, nil, &apierr.Unauthorized{}
	}

	dept, err := e.departments.GetByID(ctx, a.DepartmentID)
	if err != nil {
		return none, nil, notFoundOr(err, "department", a.DepartmentID.Hex())
	}
	ward := dept.Ward(a.Ward)
	if ward == nil {
		return none, nil, &apierr.NotFound{Resource: "ward", ID: a.Ward}
	}

	var conflicts []string
	for _, label := range labels {
		bed := ward.Bed(label)
		if bed == nil {
			return none, nil, &apierr.NotFound{Resource: "bed", ID: label}
		}
		if bed.AssignedUser != nil && *bed.AssignedUser != a.UserID {
			conflicts = append(conflicts, label)
			continue
		}
		holder := a.UserID
		bed.AssignedUser = &holder
		if !a.HasBed(label) {
			a.Beds = append(a.Beds, label)
		}
	}

	if _, err := e.departments.Update(ctx, dept); err != nil {
		return none, nil, fmt.Errorf("persist department: %w", err)
	}
	a, err = e.assignments.Update(ctx, a)
	if err != nil {
		return none, nil, fmt.Errorf("persist assignment: %w", err)
	}

	return a, conflicts, nil
}

// RemoveBeds releases the requested beds from an assignment. Beds that do
// not resolve in the ward, or are not currently held by the assignment's
// owner, are silently skipped. When the last bed is removed the assignment
// record is deleted outright and deleted=true is returned.
func (e *Engine) RemoveBeds(ctx context.Context, actor Actor, assignmentID primitive.ObjectID, labels []string) (models.Assignment, bool, error) {
	var none models.Assignment

	if len(labels) == 0 {
		return none, false, &apierr.Validation{Field: "beds"}
	}

	a, err := e.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return none, false, notFoundOr(err, "assignment", assignmentID.Hex())
	}
	if !actor.canActOn(a.UserID) {
		return none, false, &apierr.Unauthorized{}
	}

	dept, err := e.departments.GetByID(ctx, a.DepartmentID)
	if err != nil {
		return none, false, notFoundOr(err, "department", a.DepartmentID.Hex())
	}
	ward := dept.Ward(a.Ward)
	if ward == nil {
		return none, false, &apierr.NotFound{Resource: "ward", ID: a.Ward}
	}

	for _, label := range labels {
		bed := ward.Bed(label)
		if bed == nil || !bed.HeldBy(a.UserID) {
			continue
		}
		bed.AssignedUser = nil
		a.DropBed(label)
	}

	if _, err := e.departments.Update(ctx, dept); err != nil {
		return none, false, fmt.Errorf("persist department: %w", err)
	}

	if len(a.Beds) == 0 {
		if err := e.assignments.Delete(ctx, a.ID); err != nil {
			return none, false, fmt.Errorf("delete assignment: %w", err)
		}
		return none, true, nil
	}

	a, err = e.assignments.Update(ctx, a)
	if err != nil {
		return none, false, fmt.Errorf("persist assignment: %w", err)
	}
	return a, false, nil
}

// AssignmentView is an assignment joined with the live bed objects its
// labels currently resolve to, so displays reflect current bed status even
// though the record only stores label strings. Labels that no longer
// resolve are omitted.
type AssignmentView struct {
	ID         primitive.ObjectID `json:"_id"`
	Department primitive.ObjectID `json:"department"`
	Ward       string             `json:"ward"`
	Beds       []models.Bed       `json:"beds"`
	DeptExpiry *time.Time         `json:"deptExpiry,omitempty"`
	WardExpiry *time.Time         `json:"wardExpiry,omitempty"`
	Note       string             `json:"note"`
	CreatedBy  primitive.ObjectID `json:"createdBy"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// MyAssignments returns the user's active assignments joined with live bed
// state.
func (e *Engine) MyAssignments(ctx context.Context, userID primitive.ObjectID) ([]AssignmentView, error) {
	list, err := e.assignments.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	deptCache := map[primitive.ObjectID]*models.Department{}
	views := make([]AssignmentView, 0, len(list))
	for _, a := range list {
		view := AssignmentView{
			ID:         a.ID,
			Department: a.DepartmentID,
			Ward:       a.Ward,
			Beds:       []models.Bed{},
			DeptExpiry: a.DeptExpiry,
			WardExpiry: a.WardExpiry,
			Note:       a.Note,
			CreatedBy:  a.CreatedBy,
			CreatedAt:  a.CreatedAt,
		}

		dept, ok := deptCache[a.DepartmentID]
		if !ok {
			d, err := e.departments.GetByID(ctx, a.DepartmentID)
			if err != nil {
				if !errors.Is(err, mongo.ErrNoDocuments) {
					return nil, fmt.Errorf("load department: %w", err)
				}
				dept = nil
			} else {
				dept = &d
			}
			deptCache[a.DepartmentID] = dept
		}

		if dept != nil {
			if ward := dept.Ward(a.Ward); ward != nil {
				for _, label := range a.Beds {
					if bed := ward.Bed(label); bed != nil {
						view.Beds = append(view.Beds, *bed)
					}
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ExpiryInfo is the expiry pair of a user's most recent assignment.
type ExpiryInfo struct {
	DeptExpiry *time.Time `json:"deptExpiry"`
	WardExpiry *time.Time `json:"wardExpiry"`
}

// ExpiryForUser returns the expiry pair of the user's most recently created
// assignment, or nil when the user has none. Clients use this to decide
// whether to force the renewal flow.
func (e *Engine) ExpiryForUser(ctx context.Context, userID primitive.ObjectID) (*ExpiryInfo, error) {
	a, err := e.assignments.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	return &ExpiryInfo{DeptExpiry: a.DeptExpiry, WardExpiry: a.WardExpiry}, nil
}

// SweepExpired deactivates every active assignment whose department- or
// ward-level expiry has passed and releases its beds. Assignments whose
// department or ward no longer exists are still deactivated; their
// bed-release step is skipped. A failure on one assignment is logged and
// does not abort the sweep for the rest. Returns the number of assignments
// deactivated.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := e.assignments.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired assignments: %w", err)
	}

	swept := 0
	for _, a := range expired {
		if err := e.sweepOne(ctx, a); err != nil {
			e.log.Error("expiry sweep: assignment failed",
				zap.String("assignment_id", a.ID.Hex()),
				zap.String("user_id", a.UserID.Hex()),
				zap.Error(err))
			continue
		}
		swept++
	}
	return swept, nil
}

func (e *Engine) sweepOne(ctx context.Context, a models.Assignment) error {
	dept, err := e.departments.GetByID(ctx, a.DepartmentID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		// Dangling department reference: nothing to release.
		e.log.Debug("expiry sweep: department gone, skipping bed release",
			zap.String("assignment_id", a.ID.Hex()),
			zap.String("department_id", a.DepartmentID.Hex()))
	case err != nil:
		return fmt.Errorf("load department: %w", err)
	default:
		if ward := dept.Ward(a.Ward); ward != nil {
			changed := false
			for _, label := range a.Beds {
				if bed := ward.Bed(label); bed != nil && bed.HeldBy(a.UserID) {
					bed.AssignedUser = nil
					changed = true
				}
			}
			if changed {
				if _, err := e.departments.Update(ctx, dept); err != nil {
					return fmt.Errorf("persist department: %w", err)
				}
			}
		}
	}

	if err := e.assignments.Deactivate(ctx, a.ID); err != nil {
		return fmt.Errorf("deactivate assignment: %w", err)
	}
	return nil
}

// notFoundOr maps ErrNoDocuments onto the API taxonomy and passes other
// store errors through for generic handling.
func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &apierr.NotFound{Resource: resource, ID: id}
	}
	return fmt.Errorf("load %s: %w", resource, err)
}
