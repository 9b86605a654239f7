package worker

import (
	"context"
	"hash/fnv"
	"sort"
)

// PartitionOf maps key onto one of n partitions. Equal keys always land in
// the same partition, so work grouped by key is never split.
func PartitionOf(key string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Partition splits keys into at most n buckets by PartitionOf. Buckets keep
// the relative order of keys and empty buckets are dropped.
func Partition(keys []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	buckets := make([][]string, n)
	for _, k := range keys {
		i := PartitionOf(k, n)
		buckets[i] = append(buckets[i], k)
	}
	out := buckets[:0]
	for _, b := range buckets {
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// FuncJob adapts a plain function to the Job interface
type FuncJob func(ctx context.Context) Result

// Execute runs the function
func (f FuncJob) Execute(ctx context.Context) Result {
	return f(ctx)
}

// BatchProcessor runs keyed work partitions concurrently
type BatchProcessor struct {
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{concurrency: concurrency}
}

// Concurrency returns the number of workers used per batch
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}

// ProcessPartitions partitions keys, runs fn once per partition on the pool,
// and returns the results in partition order so the output does not depend
// on scheduling. A cancelled ctx may leave partitions without a result.
func (b *BatchProcessor) ProcessPartitions(ctx context.Context, keys []string, fn func(ctx context.Context, keys []string) Result) []Result {
	if len(keys) == 0 {
		return []Result{}
	}

	parts := Partition(keys, b.concurrency)
	if len(parts) == 1 {
		return []Result{fn(ctx, parts[0])}
	}

	jobs := make([]Job, len(parts))
	for i, part := range parts {
		part := part
		jobs[i] = &partitionJob{index: i, keys: part, fn: fn}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	raw := pool.Run(jobs)

	indexed := make([]*partitionResult, 0, len(raw))
	for _, r := range raw {
		indexed = append(indexed, r.(*partitionResult))
	}
	sort.Slice(indexed, func(i, j int) bool { return indexed[i].index < indexed[j].index })

	results := make([]Result, len(indexed))
	for i, r := range indexed {
		results[i] = r.Result
	}
	return results
}

type partitionJob struct {
	index int
	keys  []string
	fn    func(ctx context.Context, keys []string) Result
}

func (j *partitionJob) Execute(ctx context.Context) Result {
	return &partitionResult{index: j.index, Result: j.fn(ctx, j.keys)}
}

type partitionResult struct {
	Result
	index int
}
