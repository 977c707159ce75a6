package integration_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campus-events/internal/cache"
	"campus-events/internal/model"
	apperrors "campus-events/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendance_ScanIsIdempotent(t *testing.T) {
	s := newStack(t, cache.NewLocalAdmissionLock(time.Second))
	ctx := context.Background()

	organizer := s.createUser(t, "organizer", model.UserRoleOrganizer)
	event := s.publishNormal(t, organizer, 5)
	userID := s.createParticipants(t, 1)[0]

	admitted, err := s.admission.TryAdmit(ctx, event.EventID, userID, normalRequest())
	require.NoError(t, err)
	ticket := admitted.Ticket
	require.NotNil(t, ticket)

	first, err := s.attendanceSv.MarkByScan(ctx, event.EventID, ticket.QRPayload)
	require.NoError(t, err)
	assert.False(t, first.AlreadyMarked)
	assert.Equal(t, admitted.Participation.ID, first.ParticipationID)

	// 第二次以票券 id 掃描
	second, err := s.attendanceSv.MarkByScan(ctx, event.EventID, ticket.TicketID.String())
	require.NoError(t, err)
	assert.True(t, second.AlreadyMarked)

	entries, err := s.attendance.ListAudit(ctx, admitted.Participation.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AttendanceActionScanPresent, entries[0].Action)
	assert.Equal(t, model.AttendanceStateUnmarked, entries[0].PreviousState)
	assert.Equal(t, model.AttendanceStatePresent, entries[0].NextState)

	summary, err := s.attendanceSv.Summary(ctx, event.EventID, organizer)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Confirmed)
	assert.Equal(t, 1, summary.Present)
}

func TestAttendance_ConcurrentScansMarkOnce(t *testing.T) {
	s := newStack(t, cache.NewLocalAdmissionLock(time.Second))
	ctx := context.Background()

	organizer := s.createUser(t, "organizer", model.UserRoleOrganizer)
	event := s.publishNormal(t, organizer, 5)
	userID := s.createParticipants(t, 1)[0]

	admitted, err := s.admission.TryAdmit(ctx, event.EventID, userID, normalRequest())
	require.NoError(t, err)
	require.NotNil(t, admitted.Ticket)

	// 多個驗票口同時掃同一張票
	const scanners = 10
	var marked, already, failed int32
	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.attendanceSv.MarkByScan(ctx, event.EventID, admitted.Ticket.QRPayload)
			switch {
			case err != nil:
				t.Logf("unexpected scan error: %v", err)
				atomic.AddInt32(&failed, 1)
			case res.AlreadyMarked:
				atomic.AddInt32(&already, 1)
			default:
				atomic.AddInt32(&marked, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), marked)
	assert.Equal(t, int32(scanners-1), already)
	assert.Zero(t, failed)

	entries, err := s.attendance.ListAudit(ctx, admitted.Participation.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AttendanceActionScanPresent, entries[0].Action)
}

func TestAttendance_ScanRejectsOtherEventTicket(t *testing.T) {
	s := newStack(t, cache.NewLocalAdmissionLock(time.Second))
	ctx := context.Background()

	organizer := s.createUser(t, "organizer", model.UserRoleOrganizer)
	event := s.publishNormal(t, organizer, 5)
	other := s.publishNormal(t, organizer, 5)
	userID := s.createParticipants(t, 1)[0]

	admitted, err := s.admission.TryAdmit(ctx, event.EventID, userID, normalRequest())
	require.NoError(t, err)

	_, err = s.attendanceSv.MarkByScan(ctx, other.EventID, admitted.Ticket.QRPayload)
	assert.ErrorIs(t, err, apperrors.ErrTicketWrongEvent)

	entries, err := s.attendance.ListAudit(ctx, admitted.Participation.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttendance_Override(t *testing.T) {
	s := newStack(t, cache.NewLocalAdmissionLock(time.Second))
	ctx := context.Background()

	organizer := s.createUser(t, "organizer", model.UserRoleOrganizer)
	event := s.publishNormal(t, organizer, 5)
	userID := s.createParticipants(t, 1)[0]

	admitted, err := s.admission.TryAdmit(ctx, event.EventID, userID, normalRequest())
	require.NoError(t, err)
	pid := admitted.Participation.ID

	t.Run("ShortReasonWritesNothing", func(t *testing.T) {
		_, err := s.attendanceSv.Override(ctx, event.EventID, organizer, pid, true, " ok ")
		assert.ErrorIs(t, err, apperrors.ErrOverrideReasonTooShort)

		entries, err := s.attendance.ListAudit(ctx, pid)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("NotOrganizer", func(t *testing.T) {
		_, err := s.attendanceSv.Override(ctx, event.EventID, userID, pid, true, "badge checked")
		assert.ErrorIs(t, err, apperrors.ErrNotEventOrganizer)
	})

	t.Run("MarkPresentThenAbsent", func(t *testing.T) {
		res, err := s.attendanceSv.Override(ctx, event.EventID, organizer, pid, true, "badge checked")
		require.NoError(t, err)
		assert.False(t, res.AlreadyInState)

		res, err = s.attendanceSv.Override(ctx, event.EventID, organizer, pid, true, "badge checked again")
		require.NoError(t, err)
		assert.True(t, res.AlreadyInState)

		res, err = s.attendanceSv.Override(ctx, event.EventID, organizer, pid, false, "left before roll call")
		require.NoError(t, err)
		assert.False(t, res.AlreadyInState)

		entries, err := s.attendanceSv.AuditLog(ctx, event.EventID, organizer, pid)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, model.AttendanceActionManualPresent, entries[0].Action)
		assert.Equal(t, model.AttendanceActionManualAbsent, entries[1].Action)
		assert.Equal(t, model.AttendanceStatePresent, entries[1].PreviousState)
		require.NotNil(t, entries[1].Reason)
		assert.Equal(t, "left before roll call", *entries[1].Reason)
		require.NotNil(t, entries[1].ActorID)
		assert.Equal(t, organizer, *entries[1].ActorID)
	})
}
