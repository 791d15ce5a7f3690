package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spots/internal/auth"
	"github.com/ovaphlow/pitchfork/service-spots/internal/schema"
	spotentity "github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	"github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

// Service is the part of UserService the HTTP layer depends on.
type Service interface {
	Create(ctx context.Context, in schema.UserCreate) (*entity.User, error)
	ListActive(ctx context.Context) ([]entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	Update(ctx context.Context, id int64, patch schema.UserUpdate) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
	Spots(ctx context.Context, userID int64) ([]spotentity.Spot, error)
	AddSpot(ctx context.Context, userID, spotID int64) error
}

// Handler exposes HTTP endpoints for user operations.
type Handler struct {
	svc    Service
	logger *zap.SugaredLogger
}

func NewHandler(svc Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req schema.UserCreate
	if errs := utilities.DecodeJSON(r, &req); errs != nil {
		h.logger.Debugw("invalid user payload", "errors", errs)
		utilities.WriteValidationError(w, errs)
		return
	}
	req.Normalize()
	if errs := utilities.ValidateStruct(req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	u, err := h.svc.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			utilities.WriteError(w, http.StatusConflict, fmt.Sprintf("User with %s already exists", req.Email))
			return
		}
		h.fail(w, "create user", err)
		return
	}
	h.logger.Infow("user created", "user_id", u.ID)
	utilities.WriteJSON(w, http.StatusCreated, schema.NewUserOut(u))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListActive(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoActiveUsers) {
			utilities.WriteError(w, http.StatusNotFound, "No users found in database")
			return
		}
		h.fail(w, "list users", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewUserOuts(users))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, "get user", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewUserOut(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	var req schema.UserUpdate
	if errs := utilities.DecodeJSON(r, &req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	req.Normalize()
	if errs := utilities.ValidateStruct(req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	u, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			utilities.WriteError(w, http.StatusConflict, "User with this data already exists")
			return
		}
		h.writeLookupError(w, id, "update user", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewUserOut(u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, id, "delete user", err)
		return
	}
	h.logger.Infow("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// MySpots returns the caller together with the spots they added. Requires auth.RequireUser.
func (h *Handler) MySpots(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r.Context())
	if !ok {
		utilities.WriteInternalError(w)
		return
	}
	spots, err := h.svc.Spots(r.Context(), u.ID)
	if err != nil {
		h.fail(w, "list user spots", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewUserWithSpots(u, spots))
}

// AddSpot associates the spot in the path with the caller. Requires auth.RequireUser.
func (h *Handler) AddSpot(w http.ResponseWriter, r *http.Request) {
	spotID, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	u, ok := auth.CurrentUser(r.Context())
	if !ok {
		utilities.WriteInternalError(w)
		return
	}
	err := h.svc.AddSpot(r.Context(), u.ID, spotID)
	switch {
	case err == nil:
		utilities.WriteJSON(w, http.StatusCreated, map[string]string{"detail": fmt.Sprintf("Spot with ID %d added", spotID)})
	case errors.Is(err, ErrSpotNotFound):
		utilities.WriteError(w, http.StatusNotFound, fmt.Sprintf("Spot with ID %d not found", spotID))
	case errors.Is(err, ErrSpotAlreadyAdded):
		utilities.WriteError(w, http.StatusConflict, fmt.Sprintf("Spot with ID %d already added", spotID))
	default:
		h.fail(w, "add user spot", err)
	}
}

func (h *Handler) writeLookupError(w http.ResponseWriter, id int64, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		utilities.WriteError(w, http.StatusNotFound, fmt.Sprintf("User with ID %d not found in database.", id))
		return
	}
	h.fail(w, op, err)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw(op, "err", err)
	utilities.WriteInternalError(w)
}
