package service

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRetriable(t *testing.T) {
	i := 0
	ctx := context.Background()
	tim := time.Now()
	err := Retriable(ctx, func() error {
		i++
		return fmt.Errorf("%d", i)
	}, time.Microsecond, 3)

	if time.Since(tim) < 2*time.Microsecond {
		t.Errorf("err: excepted at least 2µs got %v", time.Since(tim))
	}

	if err == nil {
		t.Error("err: excepted 3 got nil")
	}
	if err.Error() != "3" {
		t.Error("err: excepted 3 got " + err.Error())
	}
}

func TestRetriableImmediateSuccess(t *testing.T) {
	tim := time.Now()
	err := Retriable(context.Background(), func() error { return nil }, time.Hour, 3)
	if err != nil {
		t.Errorf("err: excepted nil got %v", err)
	}
	if time.Since(tim) > time.Second {
		t.Error("expecting no sleep before the first attempt")
	}
}

func TestRetriableFatal(t *testing.T) {
	i := 0
	err := Retriable(context.Background(), func() error {
		i++
		return MakeFatal(fmt.Errorf("%d", i))
	}, time.Microsecond, 3)

	if i != 1 {
		t.Errorf("expecting 1 attempt, got %d", i)
	}
	if err == nil || !Fatal(err) {
		t.Errorf("expecting a fatal error, got %v", err)
	}
}

func TestTemporary(t *testing.T) {
	if Temporary(fmt.Errorf("plain")) {
		t.Error("plain error should not be temporary")
	}
	if !Temporary(MakeTemporary(fmt.Errorf("tmp"))) {
		t.Error("marked error should be temporary")
	}
	if !Temporary(fmt.Errorf("wrap: %w", MakeTemporary(fmt.Errorf("tmp")))) {
		t.Error("wrapped marked error should be temporary")
	}
	if !Temporary(context.Canceled) {
		t.Error("context.Canceled should be temporary")
	}
	if Fatal(MakeTemporary(fmt.Errorf("tmp"))) {
		t.Error("temporary error should not be fatal")
	}
	if !Fatal(MakeFatal(fmt.Errorf("fatal"))) {
		t.Error("marked error should be fatal")
	}
}
