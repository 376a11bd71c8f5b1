package insights

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=insights_test

type service interface {
	Get(ctx context.Context, id int) (*Report, error)
	Page(ctx context.Context, page, size int) (*ReportsPage, error)
}

// Handler serves the admin view of the stored reports.
type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.insights.page")
	defer span.End()

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		http.Error(w, "invalid page param", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		http.Error(w, "invalid size param", http.StatusBadRequest)
		return
	}

	reportsPage, err := h.service.Page(ctx, page, size)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("get reports page: %s", err)
		http.Error(w, "failed to get reports", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, reportsPage)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.insights.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id param", http.StatusBadRequest)
		return
	}

	report, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		log.Errorf("get report %d: %s", id, err)
		http.Error(w, "failed to get report", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, report)
}
