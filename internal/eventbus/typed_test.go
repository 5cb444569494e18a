package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
	if bus.Subscribers() != 0 {
		t.Fatalf("expected no subscribers")
	}
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestTypedBusPublishDoesNotBlock(t *testing.T) {
	bus := NewTypedWithBuffer[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if v := <-ch; v != 1 {
		t.Fatalf("expected first event kept, got %d", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %d", v)
	default:
	}
}

func TestTypedBusConsume(t *testing.T) {
	bus := NewTyped[int]()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan int, 2)
	done := make(chan struct{})
	go func() {
		bus.Consume(ctx, func(v int) { got <- v })
		close(done)
	}()
	deadline := time.Now().Add(time.Second)
	for bus.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("consumer never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	bus.Publish(7)
	if v := <-got; v != 7 {
		t.Fatalf("expected 7 got %d", v)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not stop")
	}
}

func TestTypedBusStartSubscribesImmediately(t *testing.T) {
	bus := NewTyped[int]()
	var got []int
	done := bus.Start(context.Background(), func(v int) { got = append(got, v) })
	if n := bus.Subscribers(); n != 1 {
		t.Fatalf("expected 1 subscriber got %d", n)
	}
	bus.Publish(1)
	bus.Publish(2)
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after close")
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2] got %v", got)
	}
}
