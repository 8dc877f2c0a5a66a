package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/common/metrics"
)

// PromoExpiryScheduler deactivates promo codes whose valid_until has passed.
// Redemption already rejects expired codes; the sweep keeps is_active honest
// for listings and reports.
type PromoExpiryScheduler struct {
	db       *sql.DB
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// NewPromoExpiryScheduler creates a new scheduler
func NewPromoExpiryScheduler(conn *sql.DB, interval time.Duration) *PromoExpiryScheduler {
	return &PromoExpiryScheduler{
		db:       conn,
		interval: interval,
		now:      time.Now,
		log:      logger.Default().With("component", "promo_expiry"),
	}
}

// Run sweeps once immediately, then every interval until ctx is done.
func (s *PromoExpiryScheduler) Run(ctx context.Context) error {
	s.log.Info("[SCHEDULER] promo expiry sweep started (every %v)", s.interval)

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-ctx.Done():
			s.log.Info("[SCHEDULER] promo expiry sweep stopped")
			return nil
		}
	}
}

func (s *PromoExpiryScheduler) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.WithError(err).Error("[SCHEDULER] promo expiry sweep failed")
		return
	}
	if n > 0 {
		s.log.Info("[SCHEDULER] deactivated %d expired promo codes", n)
	}
}

// Sweep deactivates every active code that expired before now.
func (s *PromoExpiryScheduler) Sweep(ctx context.Context) (int64, error) {
	query := `
		UPDATE promo_codes
		SET is_active = FALSE
		WHERE is_active = TRUE
		  AND valid_until IS NOT NULL
		  AND valid_until < ?
	`
	res, err := s.db.ExecContext(ctx, query, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired promo codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate expired promo codes: %w", err)
	}
	metrics.PromoCodesExpired(n)
	return n, nil
}
