package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"paylink/backend/internal/config"
	"paylink/backend/internal/integrations"
	"paylink/backend/internal/integrations/toss"
	"paylink/backend/internal/models"
	"paylink/backend/internal/rate"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// TokenStore is the persistence surface the handlers need. It is implemented
// by *repository.Repository; the narrow interface keeps handlers off the
// pool directly and lets tests substitute a fake.
type TokenStore interface {
	CreatePayLinkToken(ctx context.Context, params models.CreatePayLinkTokenParams) (models.PayLinkToken, error)
	GetPayLinkTokenByHash(ctx context.Context, tokenHash string) (models.PayLinkToken, error)
	GetPayLinkTokenByOrderID(ctx context.Context, orderID string) (models.PayLinkToken, error)
	ConsumePayLinkToken(ctx context.Context, orderID string) (models.PayLinkToken, error)
	ListPayLinkTokens(ctx context.Context, limit int) ([]models.PayLinkToken, error)
}

type Handler struct {
	store        TokenStore
	gateway      *toss.Client
	notifier     *integrations.MerchantNotifier
	s3           *integrations.S3Client
	cfg          *config.Config
	logger       *slog.Logger
	validator    *validator.Validate
	issueLimiter *rate.WindowLimiter
	now          func() time.Time
}

func New(store TokenStore, gateway *toss.Client, notifier *integrations.MerchantNotifier, s3 *integrations.S3Client, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:        store,
		gateway:      gateway,
		notifier:     notifier,
		s3:           s3,
		cfg:          cfg,
		logger:       logger,
		validator:    validator.New(),
		issueLimiter: rate.NewWindowLimiter(60, time.Minute),
		now:          time.Now,
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}
