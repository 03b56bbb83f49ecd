package fsm

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var record map[string]any

		require.NoError(t, json.Unmarshal([]byte(line), &record))

		records = append(records, record)
	}

	return records
}

func TestDefaultLoggerRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	machine := newTestMachine(t, WithName("logged"), WithSlog(logger))
	machine.RegisterTransition("a", "go", Always("go"), "b")
	machine.RegisterTransition("b", "boom", NewAction("boom", func(context.Context, *Object) error {
		panic("boom")
	}), "c")

	obj := NewObject("a", WithObjectID("obj-1"))
	ctx := context.Background()

	machine.ProcessEvent(ctx, "go", obj)
	machine.ProcessEvent(ctx, "go", obj)
	machine.ProcessEvent(ctx, "boom", obj)

	records := decodeRecords(t, &buf)

	messages := make([]string, 0, len(records))
	for _, record := range records {
		messages = append(messages, record["msg"].(string)) //nolint:forcetypeassert
	}

	assert.Equal(t, []string{
		"Transition registered",
		"Transition registered",
		"Processing event",
		"Transition completed",
		"Processing event",
		"Transition failed",
		"Processing event",
		"Transition faulted",
	}, messages)

	completed := records[3]
	assert.Equal(t, "INFO", completed["level"])
	assert.Equal(t, "logged", completed["machine"])
	assert.Equal(t, "obj-1", completed["object_id"])
	assert.Equal(t, "a", completed["from"])
	assert.Equal(t, "b", completed["to"])

	failed := records[5]
	assert.Equal(t, "WARN", failed["level"])
	assert.Equal(t, ReasonUnknownTransition, failed["reason"])

	faulted := records[7]
	assert.Equal(t, "ERROR", faulted["level"])
	assert.Equal(t, ReasonActionFault, faulted["reason"])
}

func TestRegistrationLoggingDisabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	machine := newTestMachine(t, WithSlog(logger), WithRegistrationLogging(false))
	machine.RegisterTransition("a", "go", Always("go"), "b")

	assert.Empty(t, buf.String())
}

func TestNoLoggerIsSilent(t *testing.T) {
	t.Parallel()

	machine := newTestMachine(t)
	machine.RegisterTransition("a", "go", Always("go"), "b")

	assert.True(t, machine.ProcessEvent(context.Background(), "go", NewObject("a")))

	machine.SetLogger(NopLogger{})
	assert.False(t, machine.ProcessEvent(context.Background(), "go", NewObject("z")))
}

func TestSlogtLogger(t *testing.T) {
	t.Parallel()

	machine := newTestMachine(t, WithLogger(NewSlogLogger(slogt.New(t))))
	machine.RegisterTransition("a", "go", Always("go"), "b")

	assert.True(t, machine.ProcessEvent(context.Background(), "go", NewObject("a")))
	assert.NotNil(t, NewSlogLogger(nil))
}

type panickingLogger struct{}

func (panickingLogger) TransitionRegistered(context.Context, string, string, string, string) {
	panic("logger broke")
}

func (panickingLogger) EventReceived(context.Context, string, string, string, string) {
	panic("logger broke")
}

func (panickingLogger) TransitionSucceeded(context.Context, string, string, string, string, string, time.Duration) {
	panic("logger broke")
}

func (panickingLogger) TransitionFailed(context.Context, string, string, string, string, error) {
	panic("logger broke")
}

func (panickingLogger) HookPanicked(context.Context, string, string, string, error) {
	panic("logger broke")
}

func TestPanickingLoggerDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	machine := newTestMachine(t, WithLogger(panickingLogger{}))

	require.NotPanics(t, func() {
		machine.RegisterTransition("s", "e", Always("e"), "t")
	})

	obj := NewObject("s")
	ctx := context.Background()

	var accepted, refused bool

	require.NotPanics(t, func() {
		accepted = machine.ProcessEvent(ctx, "e", obj)
		refused = machine.ProcessEvent(ctx, "e", obj)
	})

	assert.True(t, accepted)
	assert.False(t, refused)
	assert.Equal(t, "t", obj.CurrentState())
	assert.Equal(t, Stats{Processed: 2, Succeeded: 1, Unknown: 1}, machine.Stats())
}

func TestPanickingLoggerWithPanickingHook(t *testing.T) {
	t.Parallel()

	machine := newTestMachine(t, WithLogger(panickingLogger{}), WithHook(func(context.Context, Outcome) {
		panic("hook broke")
	}))
	machine.RegisterTransition("s", "e", Always("e"), "t")

	obj := NewObject("s")

	require.NotPanics(t, func() {
		assert.True(t, machine.ProcessEvent(context.Background(), "e", obj))
	})
	assert.Equal(t, "t", obj.CurrentState())
}

func TestHookPanicIsLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))

	machine := newTestMachine(t, WithSlog(logger), WithHook(func(context.Context, Outcome) {
		panic("hook broke")
	}))
	machine.RegisterTransition("s", "e", Always("e"), "t")

	obj := NewObject("s", WithObjectID("obj-1"))
	assert.True(t, machine.ProcessEvent(context.Background(), "e", obj))

	records := decodeRecords(t, &buf)
	require.Len(t, records, 1)

	assert.Equal(t, "Dispatch hook panicked", records[0]["msg"])
	assert.Equal(t, "obj-1", records[0]["object_id"])
	assert.Equal(t, "e", records[0]["event"])
	assert.Contains(t, records[0]["error"], "hook broke")
}
