package registry

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestStatic(t *testing.T) {
	r := NewStatic("win", "lose", "draw", "penalty", "win")
	labels, err := r.CurrentOutcomeLabels(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := Sorted(labels); !reflect.DeepEqual(got, []string{"draw", "lose", "penalty", "win"}) {
		t.Fatalf("labels=%v", got)
	}
	if _, ok := labels["abandoned"]; ok {
		t.Fatalf("unexpected label")
	}
}

type countingLoader struct {
	calls  int
	labels map[string]struct{}
}

func (l *countingLoader) CurrentOutcomeLabels(context.Context) (map[string]struct{}, error) {
	l.calls++
	return l.labels, nil
}

func TestCached_FallsBackToOriginWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	origin := &countingLoader{labels: toSet([]string{"win", "lose"})}
	c := NewCached(rdb, origin, time.Minute, zap.NewNop())

	labels, err := c.CurrentOutcomeLabels(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := Sorted(labels); !reflect.DeepEqual(got, []string{"lose", "win"}) {
		t.Fatalf("labels=%v", got)
	}
	if origin.calls != 1 {
		t.Fatalf("origin calls=%d", origin.calls)
	}
}
