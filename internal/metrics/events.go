package metrics

import (
	"github.com/asaskevich/EventBus"

	"github.com/iliyamo/job-board/internal/events"
)

// SubscribeEvents counts application events published on bus.
func SubscribeEvents(bus EventBus.Bus) error {
	if err := bus.Subscribe(events.ApplicationSubmittedTopic, func(events.ApplicationEvent) {
		ApplicationsSubmitted.Inc()
	}); err != nil {
		return err
	}
	return bus.Subscribe(events.ApplicationReviewedTopic, func(ev events.ApplicationEvent) {
		ApplicationsReviewed.WithLabelValues(ev.Status).Inc()
	})
}
