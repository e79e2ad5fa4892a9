package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"formrelay/pkg/core"
	"formrelay/pkg/discord"
)

const defaultDeliveryTimeout = 10 * time.Second

// Notifier delivers an outbound notification. Implemented by
// *discord.Client; faked in tests.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, msg discord.Message) error
}

// Options configures a Handler.
type Options struct {
	Notifier Notifier
	Logger   *log.Logger
	// MaxBodyBytes caps the request body; zero disables the cap.
	MaxBodyBytes int64
	// SenderName is the display name on outbound notifications.
	SenderName string
	// EnforceSecret enables the shared-secret check against SecretHeader.
	EnforceSecret bool
	Secret        string
	SecretHeader  string
	// SurfaceFailures maps delivery failures to 502 instead of
	// swallowing them.
	SurfaceFailures bool
	// DeliveryTimeout bounds the outbound call; zero means 10s.
	DeliveryTimeout time.Duration
}

// Handler relays contact-form submissions to the configured notifier.
// Each accepted request produces at most one outbound call.
type Handler struct {
	notifier        Notifier
	logger          *log.Logger
	validate        *validator.Validate
	maxBody         int64
	senderName      string
	enforceSecret   bool
	secret          string
	secretHeader    string
	surfaceFailures bool
	deliveryTimeout time.Duration
}

// NewHandler creates a Handler.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if opts.EnforceSecret && strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("secret enforcement enabled without a secret")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	secretHeader := strings.TrimSpace(opts.SecretHeader)
	if secretHeader == "" {
		secretHeader = "X-Secret"
	}
	timeout := opts.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Handler{
		notifier:        opts.Notifier,
		logger:          logger,
		validate:        newValidator(),
		maxBody:         opts.MaxBodyBytes,
		senderName:      opts.SenderName,
		enforceSecret:   opts.EnforceSecret,
		secret:          opts.Secret,
		secretHeader:    secretHeader,
		surfaceFailures: opts.SurfaceFailures,
		deliveryTimeout: timeout,
	}, nil
}

type ackResponse struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id,omitempty"`
	Delivered bool   `json:"delivered"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// ServeHTTP handles one form submission.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Detail: "method not allowed"})
		return
	}
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := core.WithRequestID(h.logger, reqID)

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Printf("payload rejected: body exceeds %d bytes", tooLarge.Limit)
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "request body too large"})
			return
		}
		logger.Printf("payload decode failed: %v", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}

	if h.enforceSecret && !secretMatches(r.Header.Get(h.secretHeader), h.secret) {
		logger.Printf("secret rejected header=%s", h.secretHeader)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "unauthorized"})
		return
	}

	if err := h.validate.Struct(&payload); err != nil {
		detail := validationDetail(err)
		logger.Printf("payload rejected: %s", detail)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: detail})
		return
	}

	msg := BuildMessage(payload, h.senderName)

	if !h.notifier.Configured() {
		logger.Printf("delivery skipped: webhook url not configured")
		writeJSON(w, http.StatusOK, ackResponse{OK: true, RequestID: reqID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deliveryTimeout)
	defer cancel()
	if err := h.notifier.Send(ctx, msg); err != nil {
		logger.Printf("delivery failed: %v", err)
		if h.surfaceFailures {
			writeJSON(w, http.StatusBadGateway, errorResponse{Detail: "notification relay failed"})
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{OK: true, RequestID: reqID})
		return
	}

	logger.Printf("delivered prerendered=%t", payload.DiscordMessage != "")
	writeJSON(w, http.StatusOK, ackResponse{OK: true, RequestID: reqID, Delivered: true})
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func requestID(r *http.Request) string {
	if r == nil {
		return uuid.NewString()
	}
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Correlation-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
