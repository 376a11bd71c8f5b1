package coach

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/fitcoach/internal/genai"
	"github.com/2beens/fitcoach/internal/health"
	"github.com/2beens/fitcoach/internal/middleware"
	"github.com/2beens/fitcoach/internal/retrieval"
	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/videosearch"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=coach_test

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type questionAnswerer interface {
	Ask(ctx context.Context, topic retrieval.Topic, question string) (*retrieval.Answer, error)
}

type videoFinder interface {
	VideoID(ctx context.Context, exercise string) (string, error)
}

type reportRecorder interface {
	Record(
		ctx context.Context,
		profile health.Profile,
		summary health.WeeklySummary,
		targets health.Targets,
		response string,
	) (int, error)
}

type Handler struct {
	generator   generator
	qa          questionAnswerer
	videos      videoFinder
	reports     reportRecorder
	metrics     *metrics.Manager
	versionInfo string
}

// HandlerParams carries the handler dependencies. A nil QA, Videos or Reports
// disables the corresponding feature.
type HandlerParams struct {
	Generator   generator
	QA          questionAnswerer
	Videos      videoFinder
	Reports     reportRecorder
	Metrics     *metrics.Manager
	VersionInfo string
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		generator:   params.Generator,
		qa:          params.QA,
		videos:      params.Videos,
		reports:     params.Reports,
		metrics:     params.Metrics,
		versionInfo: params.VersionInfo,
	}
}

// SetupRoutes registers the coach routes. The legacy paths of the first app
// release are kept as aliases. Routes calling the paid upstream APIs are rate limited.
func (h *Handler) SetupRoutes(
	r *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	r.HandleFunc("/", h.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	r.HandleFunc("/version", h.handleVersion).Methods("GET").Name("version")
	r.HandleFunc("/summary", h.HandleSummary).Methods("POST", "OPTIONS").Name("summary")

	limited := func(name string, handlerFunc http.HandlerFunc) http.Handler {
		return middleware.RateLimit(rateLimiter, name, allowedPerMin, h.metrics)(handlerFunc)
	}

	r.Handle("/insights", limited("insights", h.HandleInsights)).Methods("POST", "OPTIONS").Name("insights")
	r.Handle("/get_data", limited("insights", h.HandleInsights)).Methods("GET", "POST", "OPTIONS").Name("insights-legacy")

	if h.qa != nil {
		r.Handle("/ask", limited("ask", h.HandleAsk)).Methods("POST", "OPTIONS").Name("ask")
		r.Handle("/request", limited("ask", h.HandleAsk)).Methods("POST", "OPTIONS").Name("ask-legacy")
	} else {
		log.Info("retrieval QA disabled, /ask not registered")
	}

	if h.videos != nil {
		r.Handle("/video", limited("video", h.HandleVideo)).Methods("POST", "OPTIONS").Name("video")
		r.Handle("/get_video_id", limited("video", h.HandleVideo)).Methods("POST", "OPTIONS").Name("video-legacy")
	} else {
		log.Info("video search disabled, /video not registered")
	}
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "Keep moving, I'm OK ;)")
}

func (h *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, h.versionInfo)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.summary")
	defer span.End()

	profile, week, err := h.readWeek(w, r)
	if err != nil {
		writeSummaryError(w, err)
		return
	}

	summary, targets, err := health.ComputeSummary(profile, week)
	if err != nil {
		writeSummaryError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, summaryResponse{
		Summary: summary,
		Targets: targets,
	})
}

func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.insights")
	defer span.End()

	profile, week, err := h.readWeek(w, r)
	if err != nil {
		h.metrics.CounterInsights.WithLabelValues(metrics.OutcomeError).Inc()
		writeSummaryError(w, err)
		return
	}

	summary, targets, err := health.ComputeSummary(profile, week)
	if err != nil {
		h.metrics.CounterInsights.WithLabelValues(metrics.OutcomeError).Inc()
		writeSummaryError(w, err)
		return
	}

	response, err := h.generator.Generate(ctx, health.InsightsPrompt(summary, targets))
	if err != nil {
		h.metrics.CounterInsights.WithLabelValues(metrics.OutcomeError).Inc()
		log.Errorf("generate insights: %s", err)
		writeUpstreamError(w, err, "failed to generate insights")
		return
	}
	h.metrics.CounterInsights.WithLabelValues(metrics.OutcomeOK).Inc()

	if h.reports != nil {
		if id, err := h.reports.Record(ctx, profile, summary, targets, response); err != nil {
			log.Errorf("record insights report: %s", err)
		} else {
			span.SetAttributes(attribute.Int("report-id", id))
		}
	}

	pkg.WriteJSONResponse(w, http.StatusOK, insightsResponse{
		Response: response,
		Summary:  summary,
		Targets:  targets,
	})
}

func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.ask")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	query := strings.TrimSpace(r.Form.Get("query"))
	if query == "" {
		http.Error(w, "query must be set", http.StatusBadRequest)
		return
	}
	topic := retrieval.ParseTopic(r.Form.Get("choice"))
	span.SetAttributes(attribute.String("topic", string(topic)))

	answer, err := h.qa.Ask(ctx, topic, query)
	if err != nil {
		log.Errorf("ask [%s]: %s", topic, err)
		writeUpstreamError(w, err, "failed to answer the question")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, answer)
}

func (h *Handler) HandleVideo(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.video")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	exercise := strings.TrimSpace(r.Form.Get("Exercise"))
	if exercise == "" {
		http.Error(w, "exercise must be set", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("exercise", exercise))

	videoID, err := h.videos.VideoID(ctx, exercise)
	if err != nil {
		if errors.Is(err, videosearch.ErrNotFound) {
			http.Error(w, "no video found", http.StatusNotFound)
			return
		}
		log.Errorf("video id for [%s]: %s", exercise, err)
		http.Error(w, "video search failed", http.StatusBadGateway)
		return
	}

	pkg.WriteTextResponseOK(w, videoID)
}

func (h *Handler) readWeek(w http.ResponseWriter, r *http.Request) (health.Profile, []health.DailyMetrics, error) {
	if contentType := r.Header.Get("Content-Type"); contentType != "" && !strings.HasPrefix(contentType, pkg.ContentType.JSON) {
		return health.Profile{}, nil, errInvalidContentType
	}
	return parseWeekRequest(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
}

var errInvalidContentType = errors.New("invalid content type")

func writeSummaryError(w http.ResponseWriter, err error) {
	var insufficientData *health.InsufficientDataError
	switch {
	case errors.As(err, &insufficientData):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, errRequestTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, health.ErrInvalidInput), errors.Is(err, errInvalidContentType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("compute summary: %s", err)
		http.Error(w, "failed to compute summary", http.StatusInternalServerError)
	}
}

func writeUpstreamError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, genai.ErrUpstream):
		http.Error(w, message, http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, message, http.StatusGatewayTimeout)
	default:
		http.Error(w, message, http.StatusInternalServerError)
	}
}
