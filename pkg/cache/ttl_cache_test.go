package cache

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache hit")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get = %d, %v", v, ok)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still present")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, int](20*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	if n := c.Len(); n != 0 {
		t.Errorf("Len = %d after janitor, want 0", n)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update("n", func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	if v, _ := c.Get("n"); v != 50 {
		t.Errorf("n = %d, want 50", v)
	}
}

func TestDeleteFuncAndClear(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()
	c.Set("u1:a", 1)
	c.Set("u1:b", 2)
	c.Set("u2:a", 3)

	c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "u1:") })
	if c.Len() != 1 {
		t.Errorf("Len = %d after DeleteFunc", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
	c.Close()
}
