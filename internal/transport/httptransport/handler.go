package httptransport

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/transport/diagnosisdto"
)

type Handler struct {
	svc    app.DiagnoseService
	logger *zap.Logger
}

func NewHandler(svc app.DiagnoseService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers /diagnose and /healthz on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/diagnose", h.Diagnose)
	mux.HandleFunc("/healthz", h.Healthz)
	return mux
}

func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in diagnosisdto.DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()})
		return
	}

	out, err := h.svc.Diagnose(in.Evidence, in.Options())
	if err != nil {
		status := diagnosisdto.ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("diagnose failed", zap.Error(err))
		}
		writeJSON(w, status, diagnosisdto.ErrorBody(err, out))
		return
	}
	writeJSON(w, http.StatusOK, diagnosisdto.NewDiagnoseResponse(out))
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
