package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bpmspec/internal/config"
	"github.com/kode4food/bpmspec/internal/fakerest"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/trace"
)

type (
	// TestEnv holds all the components needed for scenario testing
	TestEnv struct {
		Engine   *memengine.Engine
		Recorder *trace.Recorder
		Config   *config.Config
		Cleanup  func()
	}

	// RedisEnv is an in-memory Redis server and a client connected to it
	RedisEnv struct {
		Server *miniredis.Miniredis
		Client *redis.Client
	}
)

const (
	// DefaultPollInterval keeps job polling fast in tests
	DefaultPollInterval = time.Millisecond

	// DefaultJobTimeout bounds job draining in tests
	DefaultJobTimeout = time.Second
)

// NewTestConfig creates a default configuration with debug logging enabled
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.PollInterval = DefaultPollInterval
	return cfg
}

// NewTestEnv creates an in-memory engine with the standard models and a
// trace recorder
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		Engine:   NewTestMemEngine(),
		Recorder: trace.NewRecorder(),
		Config:   NewTestConfig(),
		Cleanup:  func() {},
	}
}

// Scenario creates a scenario bound to the env's engine and recorder.
// Failures are left for the test to inspect through Err
func (e *TestEnv) Scenario(name string, opts ...spec.Option) *spec.Scenario {
	opts = append([]spec.Option{spec.WithSink(e.Recorder)}, opts...)
	return spec.New(e.Engine, name, opts...)
}

// WithTestEnv creates a test environment, executes the provided function
// with it, and ensures cleanup happens automatically
func WithTestEnv(t *testing.T, fn func(*TestEnv)) {
	t.Helper()
	env := NewTestEnv(t)
	defer env.Cleanup()
	fn(env)
}

// WithFakeServer serves the env's engine over the Flowable REST subset and
// passes the server's base URL to fn
func WithFakeServer(t *testing.T, fn func(env *TestEnv, baseURL string)) {
	t.Helper()
	WithTestEnv(t, func(env *TestEnv) {
		srv := httptest.NewServer(fakerest.NewServer(env.Engine).Handler())
		defer srv.Close()
		fn(env, srv.URL+fakerest.BasePath)
	})
}

// WithRedis starts an in-memory Redis server for the duration of fn
func WithRedis(t *testing.T, fn func(*RedisEnv)) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer func() { _ = client.Close() }()

	fn(&RedisEnv{
		Server: server,
		Client: client,
	})
}
