package tasks

import "sync"

// ExecutionContext holds the runtime counters that drive scheduling
// decisions: how many times each task is queued, how many currently-
// running tasks carry each tag, and how many queued-but-unfinished tasks
// carry each tag.
//
// Per spec §5, TaskStart and TaskFinish may be called concurrently from
// worker goroutines provided the counter arrays are protected; this
// implementation takes a single mutex across all four operations, which
// also gives ListAvailable the consistent-snapshot view spec §5 requires.
type ExecutionContext struct {
	mu sync.Mutex

	queued     []uint32 // per task
	running    []uint32 // per tag
	incomplete []uint32 // per tag
}

// NewExecutionContext allocates zeroed counters sized for tags.
func NewExecutionContext(tags *TaskTags) *ExecutionContext {
	return &ExecutionContext{
		queued:     make([]uint32, tags.TaskCount()),
		running:    make([]uint32, tags.TagCount()),
		incomplete: make([]uint32, tags.TagCount()),
	}
}

// Queued returns the current queued count for task.
func (e *ExecutionContext) Queued(task TaskId) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queued[task]
}

// Running returns the current running count for tag.
func (e *ExecutionContext) Running(tag TagId) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running[tag]
}

// Incomplete returns the current incomplete count for tag.
func (e *ExecutionContext) Incomplete(tag TagId) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.incomplete[tag]
}
