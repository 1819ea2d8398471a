package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestEngineTickLoop(t *testing.T) {
	var ticks atomic.Int64
	e := NewEngine(WithTickRate(500)).(*engine)
	e.SetTickCallback(func(dt float32) {
		if dt < 0 {
			t.Errorf("tick delta = %v, want >= 0", dt)
		}
		ticks.Add(1)
	})

	e.handle()
	defer e.wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	e.Quit()

	if ticks.Load() < 3 {
		t.Errorf("tick callback fired %d times, want >= 3", ticks.Load())
	}
}

func TestEngineQuitIdempotent(t *testing.T) {
	e := NewEngine().(*engine)
	e.handle()

	e.Quit()
	e.Quit()
	e.wg.Wait()
}

func TestEngineSceneRegistry(t *testing.T) {
	e := NewEngine()

	if e.Scene(0) != nil {
		t.Error("expected no scene at key 0 on a fresh engine")
	}

	e.AddScene(2, nil)
	scenes := e.Scenes()
	if len(scenes) != 1 {
		t.Fatalf("expected 1 registered scene, got %d", len(scenes))
	}

	// Scenes returns a copy: mutating it must not affect the engine.
	delete(scenes, 2)
	if len(e.Scenes()) != 1 {
		t.Error("mutating the Scenes copy changed the engine's registry")
	}

	e.RemoveScene(2)
	if len(e.Scenes()) != 0 {
		t.Errorf("expected empty registry after RemoveScene, got %d", len(e.Scenes()))
	}
}
