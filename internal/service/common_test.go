package service_test

import (
	"context"
	"sync"
	"time"

	"campus-events/internal/model"
	"campus-events/internal/queue"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// passThroughTx 直接執行 fn，交易內的 repository 呼叫由 mock 驗證
type passThroughTx struct{}

func (passThroughTx) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeLock struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (l *fakeLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

type recordingQueue struct {
	mu      sync.Mutex
	notices []*model.EventNotice
	err     error
}

func (q *recordingQueue) PublishNotice(ctx context.Context, notice *model.EventNotice) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.notices = append(q.notices, notice)
	return nil
}

func (q *recordingQueue) SubscribeNotices(ctx context.Context) (<-chan queue.Delivery, error) {
	return make(chan queue.Delivery), nil
}

func intPtr(v int) *int { return &v }

// 報名中的 NORMAL 活動：截止在一週後、活動在兩週後
func openNormalEvent(organizerID int) *model.Event {
	return &model.Event{
		ID:          7,
		EventID:     uuid.New(),
		OrganizerID: organizerID,
		Name:        "Hackathon",
		Type:        model.EventTypeNormal,
		Status:      model.EventStatusPublished,
		RegDeadline: fixedNow.Add(7 * 24 * time.Hour),
		StartDate:   fixedNow.Add(14 * 24 * time.Hour),
		EndDate:     fixedNow.Add(15 * 24 * time.Hour),
		RegLimit:    intPtr(50),
		Normal: &model.NormalConfig{Fields: []model.FormField{
			{Name: "student_id", Label: "Student ID", Required: true},
			{Name: "diet", Label: "Dietary needs"},
		}},
	}
}

func openMerchEvent(organizerID int) *model.Event {
	return &model.Event{
		ID:          8,
		EventID:     uuid.New(),
		OrganizerID: organizerID,
		Name:        "Club Hoodies",
		Type:        model.EventTypeMerch,
		Status:      model.EventStatusPublished,
		RegDeadline: fixedNow.Add(7 * 24 * time.Hour),
		StartDate:   fixedNow.Add(14 * 24 * time.Hour),
		EndDate:     fixedNow.Add(15 * 24 * time.Hour),
		Merch: &model.MerchConfig{
			PurchaseLimit: 3,
			Variants: []model.MerchVariant{
				{ID: 81, EventID: 8, SKU: "HOODIE-M", PriceCents: 45000, Stock: 10},
			},
		},
	}
}
