// internal/app/features/facility/handler.go
package facility

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	departmentstore "github.com/wardsync/wardsync/internal/app/store/departments"
	"github.com/wardsync/wardsync/internal/app/system/apierr"
	"github.com/wardsync/wardsync/internal/app/system/timeouts"
	"github.com/wardsync/wardsync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler exposes the facility catalog: departments, their wards, and the
// beds within them. Mutations here never touch assignment records; removing
// a ward or bed can leave assignments pointing at entries that no longer
// resolve, and the assignment read paths and the expiry sweep tolerate that.
type Handler struct {
	departments *departmentstore.Store
	log         *zap.Logger
}

// NewHandler constructs a facility Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		departments: departmentstore.New(db),
		log:         logger,
	}
}

type departmentRequest struct {
	Name string `json:"name"`
}

type wardRequest struct {
	Name string `json:"name"`
}

type bedRequest struct {
	BedID  string `json:"bedId"`
	Status string `json:"status"`
}

type bedStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.Status(err) == http.StatusInternalServerError {
		h.log.Error("facility operation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	apierr.Write(w, err)
}

// HandleList handles GET /departments.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	depts, err := h.departments.List(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, depts)
}

// HandleGet handles GET /departments/{deptID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	apierr.JSON(w, http.StatusOK, dept)
}

// HandleCreate handles POST /departments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apierr.Write(w, &apierr.Validation{Field: "name"})
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.Create(ctx, models.Department{Name: req.Name})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusCreated, map[string]any{
		"message":    "department created",
		"department": dept,
	})
}

// HandleRename handles PATCH /departments/{deptID}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apierr.Write(w, &apierr.Validation{Field: "name"})
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	dept.Name = req.Name
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "department updated",
		"department": dept,
	})
}

// HandleDelete handles DELETE /departments/{deptID}. Assignments referencing
// the department are left as-is.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	if _, err := h.departments.GetByID(ctx, deptID); err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	if err := h.departments.Delete(ctx, deptID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{"message": "department removed"})
}

// HandleAddWard handles POST /departments/{deptID}/wards. Ward names are not
// checked for uniqueness within the department.
func (h *Handler) HandleAddWard(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	var req wardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apierr.Write(w, &apierr.Validation{Field: "name"})
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	dept.Wards = append(dept.Wards, models.Ward{
		ID:   primitive.NewObjectID(),
		Name: req.Name,
		Beds: []models.Bed{},
	})
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusCreated, map[string]any{
		"message":    "ward added",
		"department": dept,
	})
}

// HandleRemoveWard handles DELETE /departments/{deptID}/wards/{wardID}.
// Assignments referencing the ward by name keep their now-dangling
// references.
func (h *Handler) HandleRemoveWard(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	wardID, err := objectIDParam(r, "wardID")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	if !dept.RemoveWard(wardID) {
		apierr.Write(w, &apierr.NotFound{Resource: "ward", ID: wardID.Hex()})
		return
	}
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "ward removed",
		"department": dept,
	})
}

// HandleAddBed handles POST /departments/{deptID}/wards/{wardID}/beds. The
// bed starts unassigned. When bedId is omitted a label is generated.
// Duplicate labels within a ward are permitted; label lookups resolve to the
// first match.
func (h *Handler) HandleAddBed(w http.ResponseWriter, r *http.Request) {
	deptID, err := objectIDParam(r, "deptID")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	wardID, err := objectIDParam(r, "wardID")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	var req bedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}

	label := strings.TrimSpace(req.BedID)
	if label == "" {
		label = uuid.NewString()
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "available"
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	ward := dept.WardByID(wardID)
	if ward == nil {
		apierr.Write(w, &apierr.NotFound{Resource: "ward", ID: wardID.Hex()})
		return
	}
	ward.Beds = append(ward.Beds, models.Bed{
		ID:     primitive.NewObjectID(),
		Label:  label,
		Status: status,
	})
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusCreated, map[string]any{
		"message":    "bed added",
		"department": dept,
	})
}

// HandleRemoveBed handles DELETE /departments/{deptID}/wards/{wardID}/beds/{bedID}.
// Assignments listing the bed's label keep it; their read paths simply stop
// resolving it.
func (h *Handler) HandleRemoveBed(w http.ResponseWriter, r *http.Request) {
	deptID, wardID, bedID, err := bedParams(r)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	ward := dept.WardByID(wardID)
	if ward == nil {
		apierr.Write(w, &apierr.NotFound{Resource: "ward", ID: wardID.Hex()})
		return
	}
	if !ward.RemoveBed(bedID) {
		apierr.Write(w, &apierr.NotFound{Resource: "bed", ID: bedID.Hex()})
		return
	}
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "bed removed",
		"department": dept,
	})
}

// HandleBedStatus handles PATCH /departments/{deptID}/wards/{wardID}/beds/{bedID}.
// Status is a display string; it never gates assignment.
func (h *Handler) HandleBedStatus(w http.ResponseWriter, r *http.Request) {
	deptID, wardID, bedID, err := bedParams(r)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	var req bedStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		apierr.Write(w, &apierr.Validation{Field: "status"})
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	dept, err := h.departments.GetByID(ctx, deptID)
	if err != nil {
		h.writeErr(w, r, notFoundOr(err, "department", deptID.Hex()))
		return
	}
	ward := dept.WardByID(wardID)
	if ward == nil {
		apierr.Write(w, &apierr.NotFound{Resource: "ward", ID: wardID.Hex()})
		return
	}
	bed := ward.BedByID(bedID)
	if bed == nil {
		apierr.Write(w, &apierr.NotFound{Resource: "bed", ID: bedID.Hex()})
		return
	}
	bed.Status = req.Status
	dept, err = h.departments.Update(ctx, dept)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "bed updated",
		"department": dept,
	})
}

func bedParams(r *http.Request) (deptID, wardID, bedID primitive.ObjectID, err error) {
	if deptID, err = objectIDParam(r, "deptID"); err != nil {
		return
	}
	if wardID, err = objectIDParam(r, "wardID"); err != nil {
		return
	}
	bedID, err = objectIDParam(r, "bedID")
	return
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, &apierr.Validation{Field: name}
	}
	return id, nil
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &apierr.NotFound{Resource: resource, ID: id}
	}
	return err
}
