package repository

import (
	"context"
	"fmt"
	"testing"

	model "github.com/okian/eventrank/internal/domain/model"
)

func seeded(b *testing.B, n int) *TreapStore {
	b.Helper()
	ctx := context.Background()
	store := NewTreapStore()
	batch := make([]model.Record, n)
	for i := range batch {
		batch[i] = rec(fmt.Sprintf("evt-%d", i), i%101, model.NewDate(2025, 1, 1+i%365))
	}
	if _, err := store.Upsert(ctx, batch...); err != nil {
		b.Fatalf("seed: %v", err)
	}
	return store
}

func BenchmarkTreapStore_Upsert(b *testing.B) {
	ctx := context.Background()
	store := seeded(b, 10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("evt-%d", i%10000)
		_, _ = store.Upsert(ctx, rec(id, i%101, model.Date{}))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	store := seeded(b, 10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.TopN(ctx, 20)
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := seeded(b, 10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Rank(ctx, fmt.Sprintf("evt-%d", i%10000))
	}
}

func BenchmarkTreapStore_Parallel(b *testing.B) {
	ctx := context.Background()
	store := seeded(b, 10000)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%10 == 0 {
				_, _ = store.Upsert(ctx, rec(fmt.Sprintf("evt-%d", i%10000), i%101, model.Date{}))
			} else {
				_, _ = store.TopN(ctx, 10)
			}
			i++
		}
	})
}
