package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

type Service struct {
	repo      Repository
	sender    Sender
	publicKey string
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewService builds the push service. A nil sender disables delivery while
// keeping subscriptions.
func NewService(repo Repository, sender Sender, publicKey string, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, sender: sender, publicKey: publicKey, log: log.Named("push"), now: time.Now}
}

func (s *Service) PublicKey() string {
	return s.publicKey
}

func (s *Service) Subscribe(ctx context.Context, userID int, sub Subscription) (Subscription, error) {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	if !strings.HasPrefix(sub.Endpoint, "https://") {
		return Subscription{}, fmt.Errorf("%w: endpoint must be an https URL", apperr.ErrInvalidArgument)
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return Subscription{}, fmt.Errorf("%w: subscription keys are required", apperr.ErrInvalidArgument)
	}
	sub.UserID = userID
	sub.CreatedAt = s.now().UTC().Format(time.RFC3339)
	return s.repo.Save(ctx, sub)
}

func (s *Service) Unsubscribe(ctx context.Context, userID int, endpoint string) error {
	return s.repo.Delete(ctx, userID, strings.TrimSpace(endpoint))
}

// Notify sends n to every subscription of userID and returns how many were
// accepted. Delivery failures are logged, not returned; endpoints the push
// service reports as gone are removed.
func (s *Service) Notify(ctx context.Context, userID int, n Notification) int {
	if s.sender == nil {
		return 0
	}

	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Warnw("list subscriptions failed", "user_id", userID, "error", err)
		return 0
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.log.Errorw("encode notification failed", "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		status, err := s.sender.Send(ctx, sub, payload)
		switch {
		case err != nil:
			s.log.Warnw("push delivery failed", "user_id", userID, "subscription_id", sub.ID, "error", err)
		case status == http.StatusNotFound || status == http.StatusGone:
			if err := s.repo.DeleteEndpoint(ctx, sub.Endpoint); err != nil {
				s.log.Warnw("remove expired subscription failed", "subscription_id", sub.ID, "error", err)
			} else {
				s.log.Infow("expired subscription removed", "user_id", userID, "subscription_id", sub.ID)
			}
		case status >= 200 && status < 300:
			delivered++
		default:
			s.log.Warnw("push service rejected notification", "user_id", userID, "subscription_id", sub.ID, "status", status)
		}
	}
	return delivered
}
