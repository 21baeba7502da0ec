// Package tasks implements the tag-based task scheduler: a static
// TaskTags description (tags, dependencies, per-task tag membership) and
// an ExecutionContext of runtime counters, driven by Enqueue,
// ListAvailable, TaskStart, and TaskFinish.
//
// The scheduler itself builds no explicit task graph; eligibility is
// recomputed from tag dependency counters on every ListAvailable call.
// See original_source/src/osp/tasks/execute_simple.cpp for the reference
// this package is translated from.
package tasks

import "github.com/stellarforge/spacesim/internal/simcore"

// TagId is a dense handle for a tag. Distinct from TaskId even though
// both are uint32: the two id spaces are never interchangeable.
type TagId uint32

// TaskId is a dense handle for a task.
type TaskId uint32

// NullTag is the sentinel "no tag" value, used to terminate a tag's
// dependency list before tagDependsPerTag slots are used.
const NullTag TagId = TagId(simcore.NullID)

// TaskTags is the static, offline-populated description consumed by the
// scheduler: how many tags and tasks exist, which tags each task carries,
// and which tags each tag depends on.
type TaskTags struct {
	tagCount         int
	taskCount        int
	wordsPerTask     int
	taskTagBits      []uint64 // taskCount * wordsPerTask, row-major
	tagDependsPerTag int
	tagDepends       []TagId // tagCount * tagDependsPerTag, null-terminated per tag
}

// NewTaskTags allocates a TaskTags description for tagCount tags and
// taskCount tasks, with up to tagDependsPerTag dependencies declarable
// per tag. Per spec §6, the per-task bitset word size is fixed at 64
// bits and packed row-major: task t's bits occupy words
// [t*W, (t+1)*W) where W = ceil(tagCount/64).
func NewTaskTags(tagCount, taskCount, tagDependsPerTag int) *TaskTags {
	w := simcore.WordsFor(tagCount)
	tt := &TaskTags{
		tagCount:         tagCount,
		taskCount:        taskCount,
		wordsPerTask:     w,
		taskTagBits:      make([]uint64, taskCount*w),
		tagDependsPerTag: tagDependsPerTag,
		tagDepends:       make([]TagId, tagCount*tagDependsPerTag),
	}
	for i := range tt.tagDepends {
		tt.tagDepends[i] = NullTag
	}
	return tt
}

// TagCount returns the number of tags this description was built for.
func (t *TaskTags) TagCount() int { return t.tagCount }

// TaskCount returns the number of tasks this description was built for.
func (t *TaskTags) TaskCount() int { return t.taskCount }

// WordsPerTask returns W, the number of 64-bit words used to pack one
// task's tag-membership bitset. Callers constructing a query bitset for
// Enqueue must size it to exactly this many words, or GeometryShapeMismatch
// is returned.
func (t *TaskTags) WordsPerTask() int { return t.wordsPerTask }

// taskTagWords returns the mutable slice of words backing task's tag
// membership bitset.
func (t *TaskTags) taskTagWords(task TaskId) []uint64 {
	off := int(task) * t.wordsPerTask
	return t.taskTagBits[off : off+t.wordsPerTask]
}

// SetTaskTags declares the full set of tags task carries, replacing any
// previously-set membership. Each tag id must be less than TagCount(),
// or InvariantViolation is returned.
func (t *TaskTags) SetTaskTags(task TaskId, tagIds ...TagId) error {
	if int(task) < 0 || int(task) >= t.taskCount {
		return simcore.New(simcore.InvariantViolation, "task %d out of range [0,%d)", task, t.taskCount)
	}
	words := t.taskTagWords(task)
	for i := range words {
		words[i] = 0
	}
	for _, tag := range tagIds {
		if int(tag) < 0 || int(tag) >= t.tagCount {
			return simcore.New(simcore.InvariantViolation, "tag %d out of range [0,%d)", tag, t.tagCount)
		}
		simcore.SetBit(words, int(tag))
	}
	return nil
}

// TaskTagBits reports, for task, which tags it carries.
func (t *TaskTags) TaskTagBits(task TaskId) []TagId {
	words := t.taskTagWords(task)
	ones := simcore.Ones(words, t.tagCount)
	out := make([]TagId, len(ones))
	for i, v := range ones {
		out[i] = TagId(v)
	}
	return out
}

// SetTagDepends declares that tag depends on each of depends: tag cannot
// be "allowed" in ListAvailable while any task carrying a dependency tag
// is still incomplete. len(depends) must not exceed tagDependsPerTag, and
// every dependency must be an existing tag, or InvariantViolation is
// returned.
func (t *TaskTags) SetTagDepends(tag TagId, depends ...TagId) error {
	if int(tag) < 0 || int(tag) >= t.tagCount {
		return simcore.New(simcore.InvariantViolation, "tag %d out of range [0,%d)", tag, t.tagCount)
	}
	if len(depends) > t.tagDependsPerTag {
		return simcore.New(simcore.InvariantViolation, "tag %d declares %d dependencies, max is %d", tag, len(depends), t.tagDependsPerTag)
	}
	for _, d := range depends {
		if int(d) < 0 || int(d) >= t.tagCount {
			return simcore.New(simcore.InvariantViolation, "dependency tag %d out of range [0,%d)", d, t.tagCount)
		}
	}

	off := int(tag) * t.tagDependsPerTag
	slot := t.tagDepends[off : off+t.tagDependsPerTag]
	for i := range slot {
		if i < len(depends) {
			slot[i] = depends[i]
		} else {
			slot[i] = NullTag
		}
	}
	return nil
}

// dependsOf returns the (possibly shorter than tagDependsPerTag, null
// terminated) dependency list for tag.
func (t *TaskTags) dependsOf(tag TagId) []TagId {
	off := int(tag) * t.tagDependsPerTag
	return t.tagDepends[off : off+t.tagDependsPerTag]
}
