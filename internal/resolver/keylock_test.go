package resolver

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedLockSerializesSameKey(t *testing.T) {
	kl := newKeyedLock()

	var inSection int
	var max int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := kl.acquire(context.Background(), "same")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inSection++
			if inSection > max {
				max = inSection
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inSection--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", max)
	}
}

func TestKeyedLockIndependentKeys(t *testing.T) {
	kl := newKeyedLock()

	releaseA, err := kl.acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	// A held lock on "a" must not block "b".
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := kl.acquire(ctx, "b")
	if err != nil {
		t.Fatalf("acquire b while a held: %v", err)
	}
	releaseB()
}

func TestKeyedLockContextTimeout(t *testing.T) {
	kl := newKeyedLock()

	release, err := kl.acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := kl.acquire(ctx, "k"); err == nil {
		t.Fatal("second acquire should fail while lock held")
	}

	// After release the key is acquirable again.
	release()
	release2, err := kl.acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}

func TestKeyedLockCleansUpIdleKeys(t *testing.T) {
	kl := newKeyedLock()

	release, err := kl.acquire(context.Background(), "ephemeral")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	kl.mu.Lock()
	n := len(kl.locks)
	kl.mu.Unlock()
	if n != 0 {
		t.Fatalf("idle key entries = %d, want 0", n)
	}
}
