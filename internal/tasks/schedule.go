package tasks

import "github.com/stellarforge/spacesim/internal/simcore"

// Enqueue requests that every task whose tags intersect query be run.
// Only the 0→1 transition of a task's queued count touches tag counters,
// so re-enqueueing an already-queued task is a no-op: this is the
// idempotent re-enqueue property required by spec §4.6 and §8.
//
// query must be exactly tags.WordsPerTask() words long, or
// GeometryShapeMismatch is returned.
func Enqueue(tags *TaskTags, exec *ExecutionContext, query []uint64) error {
	if len(query) != tags.wordsPerTask {
		return simcore.New(simcore.GeometryShapeMismatch, "query has %d words, want %d", len(query), tags.wordsPerTask)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()

	for task := 0; task < tags.taskCount; task++ {
		if exec.queued[task] != 0 {
			continue // already queued; reentrant enqueue must not double-count
		}

		taskWords := tags.taskTagWords(TaskId(task))
		if !simcore.IntersectsAny(query, taskWords) {
			continue
		}

		exec.queued[task] = 1
		for _, tag := range simcore.Ones(taskWords, tags.tagCount) {
			exec.incomplete[tag]++
		}
	}
	return nil
}

// ListAvailable returns every task presently eligible to run: queued and
// with every carried tag "allowed". A tag is allowed iff all of its
// declared dependencies have zero incomplete count.
func ListAvailable(tags *TaskTags, exec *ExecutionContext) ([]TaskId, error) {
	exec.mu.Lock()
	defer exec.mu.Unlock()

	// 1 = allowed (default), 0 = not allowed. All of a task's tag bits
	// must be allowed for the task to be eligible.
	mask := make([]uint64, tags.wordsPerTask)
	for i := range mask {
		mask[i] = ^uint64(0)
	}

	for tag := 0; tag < tags.tagCount; tag++ {
		satisfied := true
		for _, dep := range tags.dependsOf(TagId(tag)) {
			if dep == NullTag {
				break
			}
			if exec.incomplete[dep] != 0 {
				satisfied = false
				break
			}
		}
		if !satisfied {
			simcore.ClearBit(mask, tag)
		}
	}

	var out []TaskId
	for task := 0; task < tags.taskCount; task++ {
		if exec.queued[task] == 0 {
			continue
		}
		taskWords := tags.taskTagWords(TaskId(task))
		if simcore.ContainsAll(mask, taskWords) {
			out = append(out, TaskId(task))
		}
	}
	return out, nil
}

// TaskStart records that task has begun running: for every tag it
// carries, its running count is incremented. The scheduler does not
// otherwise track which specific tasks are running.
func TaskStart(tags *TaskTags, exec *ExecutionContext, task TaskId) error {
	if int(task) < 0 || int(task) >= tags.taskCount {
		return simcore.New(simcore.InvariantViolation, "task %d out of range [0,%d)", task, tags.taskCount)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()

	taskWords := tags.taskTagWords(task)
	for _, tag := range simcore.Ones(taskWords, tags.tagCount) {
		exec.running[tag]++
	}
	return nil
}

// TaskFinish records that task has completed: its queued count drops by
// one, and for every tag it carries, running and incomplete both drop by
// one. Underflow (finish without a matching start/enqueue) is a hard
// InvariantViolation.
func TaskFinish(tags *TaskTags, exec *ExecutionContext, task TaskId) error {
	if int(task) < 0 || int(task) >= tags.taskCount {
		return simcore.New(simcore.InvariantViolation, "task %d out of range [0,%d)", task, tags.taskCount)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()

	if exec.queued[task] == 0 {
		return simcore.New(simcore.InvariantViolation, "finish of task %d with queued count already zero", task)
	}
	exec.queued[task]--

	taskWords := tags.taskTagWords(task)
	for _, tag := range simcore.Ones(taskWords, tags.tagCount) {
		if exec.running[tag] == 0 {
			return simcore.New(simcore.InvariantViolation, "running underflow for tag %d on finish of task %d", tag, task)
		}
		if exec.incomplete[tag] == 0 {
			return simcore.New(simcore.InvariantViolation, "incomplete underflow for tag %d on finish of task %d", tag, task)
		}
		exec.running[tag]--
		exec.incomplete[tag]--
	}
	return nil
}
