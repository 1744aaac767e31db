package task

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type stubTask struct {
	id      uuid.UUID
	payload []byte
	run     func(ctx context.Context) error
}

func newStubTask(run func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), payload: []byte(`{}`), run: run}
}

func (t *stubTask) ID() uuid.UUID      { return t.id }
func (t *stubTask) Type() string       { return "stub" }
func (t *stubTask) Payload() []byte    { return t.payload }
func (t *stubTask) Status() TaskStatus { return TaskStatusPending }

func (t *stubTask) Execute(ctx context.Context) error {
	if t.run == nil {
		return nil
	}
	return t.run(ctx)
}

type resultStubTask struct {
	*stubTask
	result []byte
}

func (t *resultStubTask) Result() []byte { return t.result }

type factoryFunc func(rec Record) (Task, error)

func (f factoryFunc) FromRecord(rec Record) (Task, error) { return f(rec) }

// stubFactory rebuilds every record as a stub task that reports on done.
func stubFactory(done chan<- uuid.UUID) factoryFunc {
	return func(rec Record) (Task, error) {
		t := newStubTask(func(context.Context) error {
			done <- rec.ID
			return nil
		})
		t.id = rec.ID
		t.payload = rec.Payload
		return t, nil
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
