package websocket

import (
	"testing"
	"time"
)

func TestConnectionSendAfterClose(t *testing.T) {
	conn := NewConnection(nil, 4)
	if err := conn.Send([]byte("ok")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	conn.Close()
	if err := conn.Send([]byte("late")); err != ErrConnectionClosed {
		t.Errorf("error = %v, want ErrConnectionClosed", err)
	}

	select {
	case <-conn.Done():
	default:
		t.Error("Done() should be closed after Close()")
	}

	// Close is idempotent.
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestTakeAliveSemantics(t *testing.T) {
	conn := NewConnection(nil, 1)

	// Fresh connections count as alive; the first sweep only arms the probe.
	if !conn.TakeAlive() {
		t.Error("fresh connection should be alive")
	}
	// No pong since: the second take reports the missed probe.
	if conn.TakeAlive() {
		t.Error("unanswered probe should read as not alive")
	}

	conn.MarkAlive()
	if !conn.TakeAlive() {
		t.Error("pong should restore liveness")
	}
}

func TestRequestPingCoalesces(t *testing.T) {
	conn := NewConnection(nil, 1)
	conn.RequestPing()
	conn.RequestPing()

	if len(conn.PingRequests()) != 1 {
		t.Errorf("pending pings = %d, want coalesced to 1", len(conn.PingRequests()))
	}
}

func TestMonitorTerminatesUnresponsiveConnection(t *testing.T) {
	registry := NewRegistry(0)

	responsive := NewConnection(nil, 1)
	silent := NewConnection(nil, 1)
	registry.Add(responsive)
	registry.Add(silent)

	monitor := NewMonitor(registry, 10*time.Millisecond)
	monitor.Start()
	defer monitor.Stop()

	// Answer every probe for one connection; let the other go silent.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-responsive.PingRequests():
				responsive.MarkAlive()
			case <-responsive.Done():
				return
			case <-time.After(time.Second):
				return
			}
		}
	}()

	deadline := time.After(time.Second)
	for !silent.Closed() {
		select {
		case <-deadline:
			t.Fatal("silent connection was never terminated")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if responsive.Closed() {
		t.Error("responsive connection must survive the sweeps")
	}

	responsive.Close()
	<-done
}

func TestMonitorStopWaitsForLoopExit(t *testing.T) {
	monitor := NewMonitor(NewRegistry(0), time.Millisecond)
	monitor.Start()

	stopDone := make(chan struct{})
	go func() {
		monitor.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}
}
