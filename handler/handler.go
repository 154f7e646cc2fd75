package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shop-assistant/internal/domain"
	"shop-assistant/internal/integrations/line"
	"shop-assistant/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// replyTimeout bounds the reply call, which runs detached from the request
// context so a slow turn still gets its answer sent.
const replyTimeout = 10 * time.Second

type TurnHandler interface {
	HandleTurn(ctx context.Context, in usecase.TurnInput) (usecase.TurnOutput, error)
}

type Replier interface {
	Reply(ctx context.Context, replyToken string, replies []domain.Reply) error
}

type SignatureVerifier interface {
	Verify(ctx context.Context, body []byte, signature string) error
}

type Handler struct {
	turns    TurnHandler
	replier  Replier
	verifier SignatureVerifier
	logger   *zap.Logger
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHandler(turns TurnHandler, replier Replier, verifier SignatureVerifier, logger *zap.Logger) (*Handler, error) {
	if turns == nil {
		return nil, errors.New("handler: turn handler must not be nil")
	}
	if replier == nil {
		return nil, errors.New("handler: replier must not be nil")
	}
	if verifier == nil {
		return nil, errors.New("handler: signature verifier must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{turns: turns, replier: replier, verifier: verifier, logger: logger}, nil
}

// Handle processes one webhook delivery. Every text message event in it is
// answered; a failed event is logged and does not fail the delivery.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(event.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	log := h.logger.With(zap.String("correlation_id", corrID))

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return errorResult(corrID, usecase.NewError(usecase.ErrorInvalidInput, "body_not_base64", err)), nil
		}
		body = decoded
	}

	if err := h.verifier.Verify(ctx, body, headerValue(event.Headers, line.SignatureHeader)); err != nil {
		if errors.Is(err, line.ErrInvalidSignature) {
			log.Warn("rejected webhook with invalid signature")
			return errorResult(corrID, usecase.NewError(usecase.ErrorInvalidSignature, "invalid_signature", err)), nil
		}
		log.Error("signature verification failed", zap.Error(err))
		return errorResult(corrID, usecase.NewError(usecase.ErrorInternal, "credentials_error", err)), nil
	}

	wh, err := line.ParseWebhook(body)
	if err != nil {
		return errorResult(corrID, usecase.NewError(usecase.ErrorInvalidInput, "invalid_json", err)), nil
	}

	for _, msg := range wh.TextMessages() {
		h.answer(ctx, log, msg)
	}
	return jsonResponse(http.StatusOK, corrID, statusResponse{Status: "OK"}), nil
}

func (h *Handler) answer(ctx context.Context, log *zap.Logger, msg line.TextMessage) {
	log = log.With(zap.String("user_id", msg.UserID), zap.String("event_id", msg.EventID))

	out, err := h.turns.HandleTurn(ctx, usecase.TurnInput{UserID: msg.UserID, Text: msg.Text})
	if err != nil {
		code, _ := usecase.CodeOf(err)
		log.Warn("turn failed", zap.String("code", string(code)), zap.Error(err))
		return
	}
	if len(out.Replies) == 0 {
		return
	}
	replyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancel()
	if err := h.replier.Reply(replyCtx, msg.ReplyToken, out.Replies); err != nil {
		log.Warn("reply failed", zap.Int("replies", len(out.Replies)), zap.Error(err))
		return
	}
	log.Info("turn answered", zap.Int("replies", len(out.Replies)))
}

func errorResult(corrID string, err error) events.APIGatewayProxyResponse {
	status := http.StatusInternalServerError
	code := usecase.ErrorInternal
	if c, ok := usecase.CodeOf(err); ok {
		code = c
	}
	switch code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidSignature:
		status = http.StatusBadRequest
	case usecase.ErrorUpstream:
		status = http.StatusBadGateway
	}
	return jsonResponse(status, corrID, errorResponse{Error: string(code), Message: errorMessage(code)})
}

func errorMessage(code usecase.ErrorCode) string {
	switch code {
	case usecase.ErrorInvalidSignature:
		return "Invalid signature!"
	case usecase.ErrorInvalidInput:
		return "Malformed webhook body."
	case usecase.ErrorUpstream:
		return "Upstream service failed."
	default:
		return "Internal error."
	}
}

func jsonResponse(status int, corrID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR","message":"Internal error."}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(body),
	}
}

// headerValue looks a header up case-insensitively; API Gateway passes them
// through as sent.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
