package queue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/job-board/internal/events"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable)
	return amqp.Queue{Name: name}, a.Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(key, msg).Error(0)
}

func (m *mockChannel) Close() error { return nil }

func sampleEvent() events.ApplicationEvent {
	reviewer := "emp-1"
	return events.ApplicationEvent{
		Type:          events.ApplicationReviewedTopic,
		ApplicationID: "app-1",
		JobID:         "job-1",
		JobTitle:      "Go Engineer",
		ApplicantID:   "seeker-1",
		EmployerID:    "emp-1",
		Status:        "shortlisted",
		ReviewedBy:    &reviewer,
		OccurredAt:    time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func Test_Publisher_Publish_ShouldSendPersistentJSON(t *testing.T) {
	ch := &mockChannel{}
	ch.On("QueueDeclare", "applications", true).Return(nil).Once()
	ch.On("PublishWithContext", "applications", mock.MatchedBy(func(msg amqp.Publishing) bool {
		return msg.DeliveryMode == amqp.Persistent &&
			msg.ContentType == "application/json" &&
			strings.Contains(string(msg.Body), `"application_id":"app-1"`)
	})).Return(nil).Twice()

	dials := 0
	p := NewPublisher("applications", func() (channel, func() error, error) {
		dials++
		return ch, nil, nil
	})

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, 1, dials)
	ch.AssertExpectations(t)
}

func Test_Publisher_WhenPublishFails_ShouldRedialNextTime(t *testing.T) {
	broken := &mockChannel{}
	broken.On("QueueDeclare", "applications", true).Return(nil)
	broken.On("PublishWithContext", "applications", mock.Anything).Return(errors.New("channel closed"))
	healthy := &mockChannel{}
	healthy.On("QueueDeclare", "applications", true).Return(nil)
	healthy.On("PublishWithContext", "applications", mock.Anything).Return(nil)

	chans := []channel{broken, healthy}
	p := NewPublisher("applications", func() (channel, func() error, error) {
		ch := chans[0]
		chans = chans[1:]
		return ch, nil, nil
	})

	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
}

func Test_Publisher_WhenDialFails_ShouldReturnError(t *testing.T) {
	p := NewPublisher("applications", func() (channel, func() error, error) {
		return nil, nil, errors.New("connection refused")
	})
	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
}

func Test_Publisher_Subscribe_ShouldForwardBusEvents(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	ch := &mockChannel{}
	ch.On("QueueDeclare", "applications", true).Return(nil)
	ch.On("PublishWithContext", "applications", mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		keys = append(keys, args.Get(1).(amqp.Publishing).Type)
		mu.Unlock()
	}).Return(nil)

	bus := EventBus.New()
	p := NewPublisher("applications", func() (channel, func() error, error) { return ch, nil, nil })
	require.NoError(t, p.Subscribe(bus))

	ev := sampleEvent()
	ev.Type = events.ApplicationSubmittedTopic
	bus.Publish(events.ApplicationSubmittedTopic, ev)
	bus.Publish(events.ApplicationReviewedTopic, sampleEvent())
	bus.WaitAsync()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{events.ApplicationSubmittedTopic, events.ApplicationReviewedTopic}, keys)
}

func Test_FormatLine(t *testing.T) {
	line := FormatLine(sampleEvent())
	assert.Equal(t,
		`[2025-03-04T10:00:00Z] Application reviewed | application_id=app-1 | job_id=job-1 | job="Go Engineer" | applicant_id=seeker-1 | employer_id=emp-1 | status=shortlisted | reviewed_by=emp-1`+"\n",
		line)

	ev := sampleEvent()
	ev.Type = events.ApplicationSubmittedTopic
	ev.ReviewedBy = nil
	assert.NotContains(t, FormatLine(ev), "reviewed_by")
	assert.Contains(t, FormatLine(ev), "Application submitted")
}

func Test_Consumer_Handle_ShouldAppendLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "applications.log")
	c := NewConsumer("amqp://unused", "applications", path)

	body := []byte(`{"type":"application.submitted","application_id":"a1","job_id":"j1","status":"pending","occurred_at":"2025-03-04T10:00:00Z"}`)
	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "application_id=a1"))
}

func Test_Consumer_Handle_WhenBodyInvalid_ShouldFail(t *testing.T) {
	c := NewConsumer("amqp://unused", "applications", filepath.Join(t.TempDir(), "a.log"))
	assert.Error(t, c.Handle([]byte("not json")))
	assert.Error(t, c.Handle([]byte(`{"type":"application.submitted"}`)))
}

func Test_Consumer_Run_ShouldStopOnCancel(t *testing.T) {
	c := NewConsumer("amqp://127.0.0.1:1/", "applications", filepath.Join(t.TempDir(), "a.log"))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.NoError(t, c.Run(ctx))
}
