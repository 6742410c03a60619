package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	name      string
	dependsOn []string
	failTimes int
	calls     int
	log       *[]string
}

func (d *fakeDependency) GetName() string     { return d.name }
func (d *fakeDependency) DependsOn() []string { return d.dependsOn }

func (d *fakeDependency) Start(_ context.Context) error {
	d.calls++
	if d.calls <= d.failTimes {
		return errors.New(d.name + " unavailable")
	}
	*d.log = append(*d.log, "start:"+d.name)
	return nil
}

func (d *fakeDependency) Stop(_ context.Context) error {
	*d.log = append(*d.log, "stop:"+d.name)
	return nil
}

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartup_StartsInDependencyOrder(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "http", dependsOn: []string{"kafka", "tracing"}, log: &log})
	s.AddDependency(&fakeDependency{name: "kafka", dependsOn: []string{"tracing"}, log: &log})
	s.AddDependency(&fakeDependency{name: "tracing", log: &log})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:tracing", "start:kafka", "start:http"}, log)
	assert.Equal(t, StartupStatusStarted, s.Status("http"))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:http", "stop:kafka", "stop:tracing"}, log[3:])
	assert.Equal(t, StartupStatusStopped, s.Status("tracing"))
}

func TestStartup_UnregisteredDependencyIsSkipped(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "http", dependsOn: []string{"kafka"}, log: &log})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:http"}, log)
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	var log []string
	s := newTestStartup(3)
	flaky := &fakeDependency{name: "kafka", failTimes: 2, log: &log}
	s.AddDependency(flaky)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, flaky.calls)
}

func TestStartup_GivesUp(t *testing.T) {
	var log []string
	s := newTestStartup(2)
	s.AddDependency(&fakeDependency{name: "kafka", failTimes: 5, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartup_DetectsCycles(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "a", dependsOn: []string{"b"}, log: &log})
	s.AddDependency(&fakeDependency{name: "b", dependsOn: []string{"a"}, log: &log})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}
