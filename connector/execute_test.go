package connector

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/connector/command"
	"github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/resilience"
)

func TestExecute_Success(t *testing.T) {
	c := newTestConnector(t)
	cmd := okCommand("OK")

	res := Execute(context.Background(), c, stringCall(testEndpoint("orders"), cmd))
	if !res.IsSuccess() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.Value != "OK" || res.Raw != "OK" || res.FromCache {
		t.Errorf("result = %+v", res)
	}
	if res.Code() != "" {
		t.Errorf("Code() = %q, want empty", res.Code())
	}
	if v, err := res.Get(); err != nil || v != "OK" {
		t.Errorf("Get() = %q, %v", v, err)
	}
}

type order struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

func TestExecute_JSONDeserializer(t *testing.T) {
	c := newTestConnector(t)
	res := Execute(context.Background(), c, Descriptor[order]{
		Endpoint:     testEndpoint("orders"),
		Deserializer: JSON[order](),
		Command:      okCommand(`{"id":7,"state":"paid"}`),
	})
	if !res.IsSuccess() || res.Value.ID != 7 || res.Value.State != "paid" {
		t.Errorf("result = %+v", res)
	}
}

func TestExecute_DeserializationFailure(t *testing.T) {
	c := newTestConnector(t)
	res := Execute(context.Background(), c, Descriptor[order]{
		Endpoint:     testEndpoint("orders"),
		Deserializer: JSON[order](),
		Command:      okCommand("not json"),
	})
	if res.Code() != errors.ErrCodeDeserialization {
		t.Fatalf("code = %s, want %s", res.Code(), errors.ErrCodeDeserialization)
	}
	if _, err := res.Get(); err == nil {
		t.Error("Get() should return the failure")
	}
}

func TestExecute_CommandFailure(t *testing.T) {
	c := newTestConnector(t)
	res := Execute(context.Background(), c, stringCall(testEndpoint("orders"), failingCommand()))
	if res.Code() != errors.ErrCodeCommandFailed {
		t.Fatalf("code = %s", res.Code())
	}
	if !stderrors.Is(res.Err, errBoom) {
		t.Error("origin error should be reachable through Unwrap")
	}
	if res.Value != "" {
		t.Errorf("value = %q, want zero", res.Value)
	}
}

func TestExecute_InvalidDescriptor(t *testing.T) {
	c := newTestConnector(t)
	tests := []struct {
		name string
		d    Descriptor[string]
	}{
		{"no name", Descriptor[string]{Deserializer: String(), Command: okCommand("x")}},
		{"no command", Descriptor[string]{Endpoint: testEndpoint("e"), Deserializer: String()}},
		{"no deserializer", Descriptor[string]{Endpoint: testEndpoint("e"), Command: okCommand("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Execute(context.Background(), c, tt.d)
			if res.Code() != errors.ErrCodeInvalidInput {
				t.Errorf("code = %s", res.Code())
			}
		})
	}
}

func TestExecute_CommandPanicIsRecovered(t *testing.T) {
	c := newTestConnector(t)
	cmd := command.Func(func(ctx context.Context) (string, error) { panic("kaboom") })

	res := Execute(context.Background(), c, stringCall(testEndpoint("orders"), cmd))
	if res.Code() != errors.ErrCodeCommandFailed {
		t.Fatalf("code = %s", res.Code())
	}
	if !stderrors.Is(res.Err, resilience.ErrPanic) {
		t.Error("expected ErrPanic in chain")
	}
}

func TestExecute_DeserializerPanicIsRecovered(t *testing.T) {
	c := newTestConnector(t)
	res := Execute(context.Background(), c, Descriptor[int]{
		Endpoint:     testEndpoint("orders"),
		Deserializer: DeserializerFunc[int](func(string) (int, error) { panic("bad") }),
		Command:      okCommand("1"),
	})
	if res.Code() != errors.ErrCodeDeserialization {
		t.Errorf("code = %s", res.Code())
	}
}

func TestExecute_TimeoutCompletesWithinBound(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("slow")
	cfg.Timeout = 50 * time.Millisecond

	// Ignores cancellation on purpose.
	cmd := command.Func(func(ctx context.Context) (string, error) {
		time.Sleep(2 * time.Second)
		return "late", nil
	})

	start := time.Now()
	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	elapsed := time.Since(start)

	if res.Code() != errors.ErrCodeTimeout {
		t.Fatalf("code = %s, want TIMEOUT", res.Code())
	}
	if !stderrors.Is(res.Err, resilience.ErrTimeout) {
		t.Error("expected ErrTimeout in chain")
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("took %v, want close to 50ms", elapsed)
	}
}

func TestExecute_RetryAttempts(t *testing.T) {
	tests := []struct {
		name    string
		retries int
	}{
		{"no retries", 0},
		{"one retry", 1},
		{"three retries", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConnector(t)
			cfg := testEndpoint("retry")
			cfg.Retries = tt.retries
			cmd := failingCommand()

			res := Execute(context.Background(), c, stringCall(cfg, cmd))
			if res.IsSuccess() {
				t.Fatal("expected failure")
			}
			if got := int(cmd.calls.Load()); got != tt.retries+1 {
				t.Errorf("attempts = %d, want %d", got, tt.retries+1)
			}
			// One breaker outcome for the whole sequence.
			m := c.Registry().ResourcesFor(cfg).CircuitBreaker.Metrics()
			if m.BufferedCalls != 1 || m.FailedCalls != 1 {
				t.Errorf("breaker metrics = %+v", m)
			}
		})
	}
}

func TestExecute_RetryRecovers(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("flaky")
	cfg.Retries = 2
	cfg.RetryBackoff = 5 * time.Millisecond

	var mu sync.Mutex
	attempts := 0
	cmd := command.Func(func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return "", errBoom
		}
		return "third time", nil
	})

	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	if !res.IsSuccess() || res.Value != "third time" {
		t.Fatalf("result = %+v", res)
	}
}

func TestExecute_RetriesTimedOutAttempts(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("slow")
	cfg.Timeout = 20 * time.Millisecond
	cfg.Retries = 2
	cmd := &countingCommand{delay: time.Second, value: "late"}

	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	if res.Code() != errors.ErrCodeTimeout {
		t.Fatalf("code = %s", res.Code())
	}
	if got := cmd.calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestExecute_CircuitOpensAfterWindow(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("flaky")
	cfg.CircuitBreakerWindowSize = 3
	cmd := failingCommand()

	var codes []errors.ErrorCode
	for i := 0; i < 5; i++ {
		codes = append(codes, Execute(context.Background(), c, stringCall(cfg, cmd)).Code())
	}

	want := []errors.ErrorCode{
		errors.ErrCodeCommandFailed, errors.ErrCodeCommandFailed, errors.ErrCodeCommandFailed,
		errors.ErrCodeCircuitOpen, errors.ErrCodeCircuitOpen,
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("call %d: code = %s, want %s", i+1, codes[i], want[i])
		}
	}
	if got := cmd.calls.Load(); got != 3 {
		t.Errorf("command ran %d times, want 3", got)
	}
}

func TestExecute_CircuitOpensOnTimeouts(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("slow")
	cfg.CircuitBreakerWindowSize = 2
	cfg.Timeout = 20 * time.Millisecond
	cmd := &countingCommand{delay: time.Second}

	for i := 0; i < 2; i++ {
		if code := Execute(context.Background(), c, stringCall(cfg, cmd)).Code(); code != errors.ErrCodeTimeout {
			t.Fatalf("call %d: code = %s", i+1, code)
		}
	}
	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	if res.Code() != errors.ErrCodeCircuitOpen || !stderrors.Is(res.Err, resilience.ErrCircuitOpen) {
		t.Errorf("third call = %v", res.Err)
	}
}

func TestExecute_HalfOpenTrials(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("recovering")
	cfg.CircuitBreakerWindowSize = 2
	cfg.HalfOpenCalls = 1
	cfg.CircuitBreakerWait = 50 * time.Millisecond

	failing := failingCommand()
	for i := 0; i < 2; i++ {
		Execute(context.Background(), c, stringCall(cfg, failing))
	}
	cb := c.Registry().ResourcesFor(cfg).CircuitBreaker
	if cb.State() != resilience.StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	time.Sleep(80 * time.Millisecond)
	res := Execute(context.Background(), c, stringCall(cfg, okCommand("back")))
	if !res.IsSuccess() {
		t.Fatalf("trial failed: %v", res.Err)
	}
	if cb.State() != resilience.StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestExecute_LateOutcomeDoesNotDecideHalfOpenTrial(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("recovering")
	cfg.CircuitBreakerWindowSize = 2
	cfg.HalfOpenCalls = 1
	cfg.CircuitBreakerWait = 30 * time.Millisecond
	cb := c.Registry().ResourcesFor(cfg).CircuitBreaker

	// admitted while closed, finishes after the trial has started
	slow := &countingCommand{delay: 150 * time.Millisecond, value: "late"}
	late := ExecuteAsync(context.Background(), c, stringCall(cfg, slow))
	for slow.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	failing := failingCommand()
	for i := 0; i < 2; i++ {
		Execute(context.Background(), c, stringCall(cfg, failing))
	}
	if cb.State() != resilience.StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	time.Sleep(50 * time.Millisecond)
	trialCmd := &countingCommand{delay: 200 * time.Millisecond, err: errBoom}
	trial := ExecuteAsync(context.Background(), c, stringCall(cfg, trialCmd))
	for trialCmd.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if res := <-late; !res.IsSuccess() {
		t.Fatalf("late call = %v, want success", res.Err)
	}
	if cb.State() != resilience.StateHalfOpen {
		t.Errorf("state after late success = %s, want half-open", cb.State())
	}

	if res := <-trial; res.Code() != errors.ErrCodeCommandFailed {
		t.Fatalf("trial code = %s, want COMMAND_FAILED", res.Code())
	}
	if cb.State() != resilience.StateOpen {
		t.Errorf("state after failed trial = %s, want open", cb.State())
	}
}

func TestExecute_RejectionsAreNotRetried(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("guarded")
	cfg.CircuitBreakerWindowSize = 1
	cfg.Retries = 5

	Execute(context.Background(), c, stringCall(cfg, failingCommand()))

	cmd := okCommand("x")
	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	if res.Code() != errors.ErrCodeCircuitOpen {
		t.Fatalf("code = %s", res.Code())
	}
	if cmd.calls.Load() != 0 {
		t.Error("command must not run while the circuit is open")
	}
}

func TestExecute_BulkheadEndToEnd(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("limited")
	cfg.ConcurrencyLimit = 2
	cfg.Timeout = 5 * time.Second
	cmd := &countingCommand{delay: 300 * time.Millisecond, value: "OK"}

	ds := []Descriptor[string]{stringCall(cfg, cmd), stringCall(cfg, cmd), stringCall(cfg, cmd)}
	start := time.Now()
	var results []Result[string]
	var firstAt time.Duration
	for r := range ExecuteAll(context.Background(), c, ds) {
		if len(results) == 0 {
			firstAt = time.Since(start)
		}
		results = append(results, r)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Code() != errors.ErrCodeBulkheadFull {
		t.Errorf("first result = %v, want BULKHEAD_FULL", results[0].Err)
	}
	if firstAt > 150*time.Millisecond {
		t.Errorf("rejection took %v, want immediate", firstAt)
	}
	for _, r := range results[1:] {
		if !r.IsSuccess() || r.Value != "OK" {
			t.Errorf("result = %+v, want OK", r)
		}
	}
	if got := cmd.calls.Load(); got != 2 {
		t.Errorf("command ran %d times, want 2", got)
	}
	if inUse := c.Registry().ResourcesFor(cfg).Bulkhead.InUse(); inUse != 0 {
		t.Errorf("permits leaked: %d in use", inUse)
	}

	// permits are back: a full round of L calls is admitted again
	again := []Descriptor[string]{stringCall(cfg, cmd), stringCall(cfg, cmd)}
	for r := range ExecuteAll(context.Background(), c, again) {
		if !r.IsSuccess() || r.Value != "OK" {
			t.Errorf("second round result = %+v, want OK", r)
		}
	}
	if got := cmd.calls.Load(); got != 4 {
		t.Errorf("command ran %d times, want 4", got)
	}
}

func TestExecute_RateLimited(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("metered")
	cfg.RateLimit = RateLimitConfig{Enabled: true, PermitsPerPeriod: 1, Period: time.Hour, MaxWait: -1}
	cfg.Retries = 3
	cmd := okCommand("x")

	if res := Execute(context.Background(), c, stringCall(cfg, cmd)); !res.IsSuccess() {
		t.Fatalf("first call failed: %v", res.Err)
	}
	res := Execute(context.Background(), c, stringCall(cfg, cmd))
	if res.Code() != errors.ErrCodeRateLimited || !stderrors.Is(res.Err, resilience.ErrRateLimited) {
		t.Errorf("second call = %v", res.Err)
	}
	if cmd.calls.Load() != 1 {
		t.Errorf("command ran %d times, want 1", cmd.calls.Load())
	}
	if inUse := c.Registry().ResourcesFor(cfg).Bulkhead.InUse(); inUse != 0 {
		t.Errorf("permits leaked: %d in use", inUse)
	}
}

func TestExecute_CallerCancellationDoesNotCountAgainstEndpoint(t *testing.T) {
	c := newTestConnector(t)
	cfg := testEndpoint("cancelled")
	cfg.CircuitBreakerWindowSize = 1

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	res := Execute(ctx, c, stringCall(cfg, &countingCommand{delay: time.Second}))
	if res.IsSuccess() {
		t.Fatal("expected failure")
	}

	m := c.Registry().ResourcesFor(cfg).CircuitBreaker.Metrics()
	if m.BufferedCalls != 0 || m.State != resilience.StateClosed {
		t.Errorf("breaker = %+v, want untouched", m)
	}
	if inUse := c.Registry().ResourcesFor(cfg).Bulkhead.InUse(); inUse != 0 {
		t.Errorf("permits leaked: %d in use", inUse)
	}
}

func TestExecute_BlockingCommandOnPool(t *testing.T) {
	c := newTestConnector(t)
	pool := command.NewPool(2)
	cmd := command.Blocking(pool, func() (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "done", nil
	})

	res := Execute(context.Background(), c, stringCall(testEndpoint("blocking"), cmd))
	if !res.IsSuccess() || res.Value != "done" {
		t.Errorf("result = %+v", res)
	}
}

func TestExecuteAsync(t *testing.T) {
	c := newTestConnector(t)
	ch := ExecuteAsync(context.Background(), c, stringCall(testEndpoint("async"), okCommand("v")))

	res, ok := <-ch
	if !ok || res.Value != "v" {
		t.Fatalf("result = %+v, ok = %v", res, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after one result")
	}
}

func TestCollectAll_IndependentResults(t *testing.T) {
	c := newTestConnector(t)
	ds := []Descriptor[string]{
		stringCall(testEndpoint("a"), okCommand("a")),
		stringCall(testEndpoint("b"), failingCommand()),
		stringCall(testEndpoint("c"), okCommand("c")),
	}

	results := CollectAll(context.Background(), c, ds)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	var ok, failed int
	for _, r := range results {
		if r.IsSuccess() {
			ok++
		} else {
			failed++
		}
	}
	if ok != 2 || failed != 1 {
		t.Errorf("ok = %d, failed = %d", ok, failed)
	}
}

func TestCollectAllFor(t *testing.T) {
	c := newTestConnector(t)
	cmds := []command.Command{okCommand("1"), okCommand("2"), okCommand("3")}

	results := CollectAllFor(context.Background(), c, testEndpoint("batch"), String(), cmds)
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Value] = true
	}
	if len(seen) != 3 || !seen["1"] || !seen["2"] || !seen["3"] {
		t.Errorf("values = %v", seen)
	}
}

func TestCollectAll_Empty(t *testing.T) {
	c := newTestConnector(t)
	if got := CollectAll[string](context.Background(), c, nil); len(got) != 0 {
		t.Errorf("results = %d", len(got))
	}
}
