package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
)

type errStub string

func TestScenario(t *testing.T) {
	attr := log.Scenario("happy path")
	assertAttrEqual(t, attr, "scenario", "happy path")
}

func TestInstanceID(t *testing.T) {
	attr := log.InstanceID(api.InstanceID("pi-123"))
	assertAttrEqual(t, attr, "instance_id", "pi-123")
}

func TestActivityID(t *testing.T) {
	attr := log.ActivityID("doSomething")
	assertAttrEqual(t, attr, "activity_id", "doSomething")
}

func TestTaskID(t *testing.T) {
	attr := log.TaskID("task-1")
	assertAttrEqual(t, attr, "task_id", "task-1")
}

func TestMessage(t *testing.T) {
	attr := log.Message("order.placed")
	assertAttrEqual(t, attr, "message", "order.placed")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
