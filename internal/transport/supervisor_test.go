package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// countingFactory hands each endpoint its own fake engine and remembers them
// in creation order.
type countingFactory struct {
	engines []*fakeEngine
	fail    map[int]error // creation index -> start error
}

func (c *countingFactory) build(Config, map[uint8]*SlaveDatastore, *zap.Logger) Engine {
	engine := &fakeEngine{}
	if err, ok := c.fail[len(c.engines)]; ok {
		engine.startErr = err
	}
	c.engines = append(c.engines, engine)
	return engine
}

func TestAddTransportEnforcesUniqueName(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())

	if _, err := sup.AddTransport("main", Config{Kind: KindTCP}, nil); err != nil {
		t.Fatalf("first AddTransport failed: %v", err)
	}

	_, err := sup.AddTransport("main", Config{Kind: KindRTU}, nil)
	var dup *DuplicateTransportError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateTransportError, got %v", err)
	}
	if dup.Name != "main" {
		t.Errorf("expected name in error, got %q", dup.Name)
	}
}

func TestStartAllStartsEveryEndpoint(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("tcp", Config{Kind: KindTCP}, nil)
	sup.AddTransport("rtu", Config{Kind: KindRTU}, nil)

	if err := sup.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if !sup.IsRunning() {
		t.Error("supervisor must report running after StartAll")
	}
	for i, engine := range factory.engines {
		if engine.starts != 1 {
			t.Errorf("engine %d started %d times, expected 1", i, engine.starts)
		}
	}
}

func TestStartAllToleratesPartialFailure(t *testing.T) {
	factory := &countingFactory{fail: map[int]error{0: errors.New("port in use")}}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("bad", Config{Kind: KindTCP}, nil)
	sup.AddTransport("good", Config{Kind: KindTCP, Port: 1503}, nil)

	err := sup.StartAll(context.Background())
	if err == nil {
		t.Fatal("expected aggregate error from StartAll")
	}
	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Errorf("aggregate error must carry the bind failure, got %v", err)
	}

	// The failure of one endpoint must not prevent the other from serving.
	good, _ := sup.GetTransport("good")
	if !good.IsRunning() {
		t.Error("healthy endpoint must still be serving")
	}
	// Mixed serving/failed still counts as running.
	if !sup.IsRunning() {
		t.Error("supervisor with one serving endpoint must report running")
	}
}

func TestStartAllWithAllEndpointsFailing(t *testing.T) {
	factory := &countingFactory{fail: map[int]error{0: errors.New("port in use")}}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("main", Config{Kind: KindTCP}, nil)

	if err := sup.StartAll(context.Background()); err == nil {
		t.Fatal("expected error when the only endpoint fails to bind")
	}
	if sup.IsRunning() {
		t.Error("supervisor must not report running when nothing serves")
	}

	// The flag was cleared, so a second StartAll is permitted to retry.
	factory.engines[0].startErr = nil
	// Endpoint stays Failed; retry goes through a fresh transport.
}

func TestStartAllWhileRunningIsNoOp(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("main", Config{Kind: KindTCP}, nil)

	sup.StartAll(context.Background())
	if err := sup.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll must not error, got %v", err)
	}
	if factory.engines[0].starts != 1 {
		t.Errorf("engine started %d times, expected 1", factory.engines[0].starts)
	}
}

func TestStopAllStopsEverything(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("tcp", Config{Kind: KindTCP}, nil)
	sup.AddTransport("rtu", Config{Kind: KindRTU}, nil)

	sup.StartAll(context.Background())
	if err := sup.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if sup.IsRunning() {
		t.Error("supervisor must not report running after StopAll")
	}
	for i, engine := range factory.engines {
		if engine.stops != 1 {
			t.Errorf("engine %d stopped %d times, expected 1", i, engine.stops)
		}
	}

	// StopAll while stopped is a no-op.
	if err := sup.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll on stopped supervisor must not error, got %v", err)
	}
}

func TestRemoveTransport(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("main", Config{Kind: KindTCP}, nil)

	if err := sup.RemoveTransport("main"); err != nil {
		t.Fatalf("RemoveTransport failed: %v", err)
	}

	var unknown *UnknownTransportError
	if err := sup.RemoveTransport("main"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownTransportError, got %v", err)
	}
	if _, err := sup.GetTransport("main"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownTransportError from get, got %v", err)
	}
}

func TestRemoveServingTransportStopsFireAndForget(t *testing.T) {
	gate := make(chan struct{})
	engine := &fakeEngine{stopGate: gate}
	sup := NewSupervisorWithFactory(fakeFactory(engine), zap.NewNop())
	sup.AddTransport("main", Config{Kind: KindTCP}, nil)
	sup.StartAll(context.Background())

	// Removal returns while the stop is still blocked on the gate.
	done := make(chan error, 1)
	go func() { done <- sup.RemoveTransport("main") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RemoveTransport failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RemoveTransport must not wait for the stop to complete")
	}

	if len(sup.ListTransports()) != 0 {
		t.Error("transport still listed after removal")
	}

	close(gate)
	deadline := time.Now().Add(time.Second)
	for engine.Active() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if engine.Active() {
		t.Error("scheduled stop never ran")
	}
}

func TestListTransportsPreservesRegistrationOrder(t *testing.T) {
	factory := &countingFactory{}
	sup := NewSupervisorWithFactory(factory.build, zap.NewNop())
	sup.AddTransport("b", Config{Kind: KindTCP}, nil)
	sup.AddTransport("a", Config{Kind: KindTCP, Port: 1503}, nil)

	names := sup.ListTransports()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("unexpected order: %v", names)
	}
}
