package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
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

// Diagnose assume que o API Gateway já roteou POST /diagnose.
func (h *Handler) Diagnose(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid body", "details": err.Error()}), nil
	}

	var in diagnosisdto.DiagnoseRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return jsonResp(http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()}), nil
	}

	out, err := h.svc.Diagnose(in.Evidence, in.Options())
	if err != nil {
		status := diagnosisdto.ErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("diagnose failed",
				zap.String("request_id", req.RequestContext.RequestID),
				zap.Error(err),
			)
		}
		return jsonResp(status, diagnosisdto.ErrorBody(err, out)), nil
	}
	return jsonResp(http.StatusOK, diagnosisdto.NewDiagnoseResponse(out)), nil
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
