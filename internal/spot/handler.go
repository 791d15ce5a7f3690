package spot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spots/internal/schema"
	"github.com/ovaphlow/pitchfork/service-spots/internal/spot/entity"
	userentity "github.com/ovaphlow/pitchfork/service-spots/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-spots/pkg/utilities"
)

type Service interface {
	Create(ctx context.Context, in schema.SpotIn) (*entity.Spot, error)
	List(ctx context.Context) ([]entity.Spot, error)
	Get(ctx context.Context, id int64) (*entity.Spot, error)
	Update(ctx context.Context, id int64, patch schema.SpotUpdate) (*entity.Spot, error)
	Delete(ctx context.Context, id int64) error
	Users(ctx context.Context, id int64) ([]userentity.User, error)
}

// Handler exposes the spot endpoints. Every route is mounted behind auth.RequireUser.
type Handler struct {
	svc    Service
	logger *zap.SugaredLogger
}

func NewHandler(svc Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req schema.SpotIn
	if errs := utilities.DecodeJSON(r, &req); errs != nil {
		h.logger.Debugw("invalid spot payload", "errors", errs)
		utilities.WriteValidationError(w, errs)
		return
	}
	req.Normalize()
	if errs := utilities.ValidateStruct(req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	sp, err := h.svc.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			utilities.WriteError(w, http.StatusConflict, fmt.Sprintf("Spot with %s already exists", req.Name))
			return
		}
		h.fail(w, "create spot", err)
		return
	}
	h.logger.Infow("spot created", "spot_id", sp.ID)
	utilities.WriteJSON(w, http.StatusCreated, schema.NewSpotOut(sp))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, "list spots", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewSpotOuts(spots))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	sp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, "get spot", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewSpotOut(sp))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	var req schema.SpotUpdate
	if errs := utilities.DecodeJSON(r, &req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	req.Normalize()
	if errs := utilities.ValidateStruct(req); errs != nil {
		utilities.WriteValidationError(w, errs)
		return
	}
	sp, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			utilities.WriteError(w, http.StatusConflict, "Spot with this data already exists")
			return
		}
		h.writeLookupError(w, id, "update spot", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewSpotOut(sp))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, id, "delete spot", err)
		return
	}
	h.logger.Infow("spot deleted", "spot_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Users lists the users that added the spot.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	id, ok := utilities.PathID(w, r, "id")
	if !ok {
		return
	}
	users, err := h.svc.Users(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, "list spot users", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, schema.NewUserOuts(users))
}

func (h *Handler) writeLookupError(w http.ResponseWriter, id int64, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		utilities.WriteError(w, http.StatusNotFound, fmt.Sprintf("Spot with ID %d not found", id))
		return
	}
	h.fail(w, op, err)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw(op, "err", err)
	utilities.WriteInternalError(w)
}
