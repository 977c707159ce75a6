package service

import (
	"time"

	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock 覆寫時間來源，測試用
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// requireOrganizer 只有活動主辦方可以操作
func requireOrganizer(event *model.Event, actorID int) error {
	if event.OrganizerID != actorID {
		return apperrors.ErrNotEventOrganizer
	}
	return nil
}
