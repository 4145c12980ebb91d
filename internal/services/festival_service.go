package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/festivals"
	"github.com/tbourn/retail-chat-dashboard/internal/observability"
)

// FestivalService lists upcoming festivals from a calendar.
type FestivalService struct {
	Calendar  *festivals.Calendar
	DaysAhead int
	Now       func() time.Time
}

// Upcoming returns festivals within daysAhead days (negative means the
// configured default). The result is never nil.
func (s *FestivalService) Upcoming(ctx context.Context, daysAhead int) ([]domain.Festival, error) {
	_, span := otel.Tracer("services/FestivalService").Start(ctx, "Upcoming")
	defer span.End()

	if daysAhead < 0 {
		daysAhead = s.DaysAhead
		if daysAhead <= 0 {
			daysAhead = festivals.DefaultDaysAhead
		}
	}
	if daysAhead > 366 {
		return nil, ErrInvalidWindow
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	out := s.Calendar.Upcoming(now, daysAhead)

	span.SetAttributes(attribute.Int("festivals.days_ahead", daysAhead), attribute.Int("festivals.count", len(out)))
	result := "none"
	if len(out) > 0 {
		result = "some"
	}
	observability.FestivalLookups.WithLabelValues(result).Inc()
	return out, nil
}
