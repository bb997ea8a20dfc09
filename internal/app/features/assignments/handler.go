// internal/app/features/assignments/handler.go
package assignments

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wardsync/wardsync/internal/app/system/apierr"
	"github.com/wardsync/wardsync/internal/app/system/authz"
	"github.com/wardsync/wardsync/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler exposes the assignment engine over HTTP.
type Handler struct {
	engine *Engine
	log    *zap.Logger
}

// NewHandler constructs an assignments Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		engine: NewEngine(db, logger),
		log:    logger,
	}
}

// assignmentRequest is the body of POST /assignments and PUT /assignments/{id}.
type assignmentRequest struct {
	DeptID     string     `json:"deptId"`
	WardName   string     `json:"wardName"`
	Beds       []string   `json:"beds"`
	DeptExpiry *time.Time `json:"deptExpiry"`
	WardExpiry *time.Time `json:"wardExpiry"`
	Note       string     `json:"note"`
}

// expiryRequest is the body of PATCH /assignments/{id}/expiry. Every field
// is optional; present fields are applied raw (see Engine.UpdateExpiry).
type expiryRequest struct {
	DeptExpiry *time.Time `json:"deptExpiry"`
	WardExpiry *time.Time `json:"wardExpiry"`
	Department *string    `json:"department"`
	Ward       *string    `json:"ward"`
	Beds       []string   `json:"beds"`
}

// bedsRequest is the body of the add-beds and remove-beds patches.
type bedsRequest struct {
	Beds []string `json:"beds"`
}

// actor resolves the acting user from the request context. Routes are
// mounted behind RequireSignedIn, so a missing user means middleware
// misconfiguration; fail closed either way.
func actor(r *http.Request) (Actor, bool) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: userID, Role: role}, true
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if apierr.Status(err) == http.StatusInternalServerError {
		h.log.Error("assignment operation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	apierr.Write(w, err)
}

// HandleCreate handles POST /assignments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	params, err := req.params()
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	a, user, err := h.engine.Create(ctx, act, params)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apierr.JSON(w, http.StatusCreated, map[string]any{
		"message":    "assignment created",
		"assignment": a,
		"user":       user.Public(),
	})
}

// HandleUpdate handles PUT /assignments/{id}: the destructive full replace.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}
	params, err := req.params()
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	a, err := h.engine.Update(ctx, act, id, params)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "assignment updated",
		"assignment": a,
	})
}

// HandleUpdateExpiry handles PATCH /assignments/{id}/expiry.
func (h *Handler) HandleUpdateExpiry(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	var req expiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}

	patch := ExpiryPatch{
		DeptExpiry: req.DeptExpiry,
		WardExpiry: req.WardExpiry,
		Ward:       req.Ward,
		Beds:       req.Beds,
	}
	if req.Department != nil {
		deptID, err := primitive.ObjectIDFromHex(*req.Department)
		if err != nil {
			apierr.Write(w, &apierr.Validation{Field: "department"})
			return
		}
		patch.DepartmentID = &deptID
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	a, err := h.engine.UpdateExpiry(ctx, act, id, patch)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "assignment updated",
		"assignment": a,
	})
}

// HandleAddBeds handles PATCH /assignments/{id}/add-beds. Conflicting beds
// produce a 400 that still reflects the partially applied result.
func (h *Handler) HandleAddBeds(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	var req bedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	a, conflicts, err := h.engine.AddBeds(ctx, act, id, req.Beds)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	if len(conflicts) > 0 {
		apierr.JSON(w, http.StatusBadRequest, map[string]any{
			"message":    "some beds are already assigned to another user",
			"conflicts":  conflicts,
			"assignment": a,
		})
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "beds added",
		"assignment": a,
	})
}

// HandleRemoveBeds handles PATCH /assignments/{id}/remove-beds.
func (h *Handler) HandleRemoveBeds(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	var req bedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, &apierr.Validation{Field: "body"})
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	a, deleted, err := h.engine.RemoveBeds(ctx, act, id, req.Beds)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	if deleted {
		apierr.JSON(w, http.StatusOK, map[string]any{
			"message": "assignment deleted",
		})
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]any{
		"message":    "beds removed",
		"assignment": a,
	})
}

// HandleMyAssignments handles GET /assignments/my. Responds 404 when the
// user has no active assignments.
func (h *Handler) HandleMyAssignments(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apierr.Write(w, &apierr.Unauthorized{})
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	views, err := h.engine.MyAssignments(ctx, userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(views) == 0 {
		apierr.Write(w, &apierr.NotFound{Resource: "assignment"})
		return
	}
	apierr.JSON(w, http.StatusOK, views)
}

// HandleUserExpiry handles GET /assignments/user/{userID}/expiry. Responds
// with the expiry pair of the user's latest assignment, or JSON null.
func (h *Handler) HandleUserExpiry(w http.ResponseWriter, r *http.Request) {
	userID, err := objectIDParam(r, "userID")
	if err != nil {
		apierr.Write(w, err)
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	info, err := h.engine.ExpiryForUser(ctx, userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if info == nil {
		apierr.JSON(w, http.StatusOK, nil)
		return
	}
	apierr.JSON(w, http.StatusOK, info)
}

func (req assignmentRequest) params() (AssignmentParams, error) {
	var p AssignmentParams
	if req.DeptID == "" {
		return p, &apierr.Validation{Field: "deptId"}
	}
	deptID, err := primitive.ObjectIDFromHex(req.DeptID)
	if err != nil {
		return p, &apierr.Validation{Field: "deptId"}
	}
	return AssignmentParams{
		DepartmentID: deptID,
		WardName:     req.WardName,
		Beds:         req.Beds,
		DeptExpiry:   req.DeptExpiry,
		WardExpiry:   req.WardExpiry,
		Note:         req.Note,
	}, nil
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, &apierr.Validation{Field: name}
	}
	return id, nil
}
