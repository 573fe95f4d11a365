package events

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/infrastructure/logging"
)

func TestJournal_VersionsPerStream(t *testing.T) {
	journal := NewJournal(nil)
	record := entities.DemandRecord{Period: 2, Quantities: entities.VariantQuantities{Single: 5}}

	require.NoError(t, journal.Publish(NewDemandRecordedEvent(record)))
	require.NoError(t, journal.Publish(NewDemandUpdatedEvent(record, record)))
	require.NoError(t, journal.Publish(NewDayCloseRefusedEvent(3, entities.Materials{})))

	stream := journal.Stream("period-2", 0)
	require.Len(t, stream, 2)
	assert.Equal(t, 1, stream[0].Version)
	assert.Equal(t, 2, stream[1].Version)
	assert.Equal(t, DemandUpdatedEvent, stream[1].Type)
	assert.NotEqual(t, stream[0].ID, stream[1].ID)

	assert.Len(t, journal.Stream("period-2", 2), 1)
	assert.Equal(t, 1, journal.Stream(PeriodStream(3), 0)[0].Version)

	since := journal.Since(2)
	require.Len(t, since, 1)
	assert.Equal(t, DayCloseRefusedEvent, since[0].Type)
	assert.Empty(t, journal.Since(3))
}

func TestJournal_RejectsUntypedEvents(t *testing.T) {
	journal := NewJournal(nil)
	assert.Error(t, journal.Publish(Event{Stream: "period-1"}))
	assert.Error(t, journal.Publish(Event{Type: DayClosedEvent}))
	assert.Empty(t, journal.Since(0))
}

func TestJournal_NotifiesSynchronously(t *testing.T) {
	journal := NewJournal(logging.Discard())
	var seen []string
	cancel := journal.Subscribe(HandlerFunc(func(e Event) error {
		seen = append(seen, e.Type)
		return errors.New("handler errors do not fail the publish")
	}), DayClosedEvent)

	require.NoError(t, journal.Publish(NewDayClosedEvent(DayClosed{Closed: 1})))
	require.NoError(t, journal.Publish(NewDayCloseRefusedEvent(1, entities.Materials{})))
	assert.Equal(t, []string{DayClosedEvent}, seen)

	cancel()
	require.NoError(t, journal.Publish(NewDayClosedEvent(DayClosed{Closed: 2})))
	assert.Len(t, seen, 1)
}

func TestAuditHandler_LogsEvents(t *testing.T) {
	var buf bytes.Buffer
	journal := NewJournal(nil)
	journal.Subscribe(NewAuditHandler(slog.New(slog.NewTextHandler(&buf, nil))), AllEventTypes()...)

	require.NoError(t, journal.Publish(NewDayCloseRefusedEvent(4, entities.Materials{})))
	assert.Contains(t, buf.String(), "event_type=day.close_refused")
	assert.Contains(t, buf.String(), "stream=period-4")
	assert.Contains(t, buf.String(), "version=1")
}
