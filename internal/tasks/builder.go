package tasks

import "github.com/stellarforge/spacesim/internal/simcore"

// QueryFor builds an Enqueue query word-slice selecting every task that
// carries any of the given tags, the same bit-packing an external loader
// would otherwise have to hand-roll against WordsPerTask.
func QueryFor(tags *TaskTags, tagIds ...TagId) []uint64 {
	words := make([]uint64, tags.WordsPerTask())
	for _, t := range tagIds {
		simcore.SetBit(words, int(t))
	}
	return words
}

// Builder offers an ergonomic way for an external loader to populate a
// TaskTags description without hand-packing bitset words, mirroring the
// defaults-then-overrides layering internal/config uses for Config. The
// resulting TaskTags has exactly the wire layout spec §6 mandates; this
// type only changes how it gets built, not what it contains.
type Builder struct {
	tagNames  []string
	taskTags  map[int][]TagId
	tagDepend map[TagId][]TagId
}

// NewBuilder starts a TaskTags description with no tags or tasks yet.
func NewBuilder() *Builder {
	return &Builder{
		taskTags:  make(map[int][]TagId),
		tagDepend: make(map[TagId][]TagId),
	}
}

// Tag declares a new tag and returns its id. Names are carried only for
// diagnostics; the scheduler itself is unaware of them.
func (b *Builder) Tag(name string) TagId {
	id := TagId(len(b.tagNames))
	b.tagNames = append(b.tagNames, name)
	return id
}

// DependsOn records that tag depends on each of on.
func (b *Builder) DependsOn(tag TagId, on ...TagId) {
	b.tagDepend[tag] = append(b.tagDepend[tag], on...)
}

// Task declares a new task carrying the given tags and returns its id.
func (b *Builder) Task(tagIds ...TagId) TaskId {
	id := TaskId(len(b.taskTags))
	b.taskTags[int(id)] = tagIds
	return id
}

// Build computes the widest dependency list across all declared tags and
// produces the finished TaskTags.
func (b *Builder) Build() (*TaskTags, error) {
	tagCount := len(b.tagNames)
	taskCount := len(b.taskTags)

	dependsPerTag := 0
	for _, deps := range b.tagDepend {
		if len(deps) > dependsPerTag {
			dependsPerTag = len(deps)
		}
	}
	if dependsPerTag == 0 {
		dependsPerTag = 1 // keep a null-terminator slot even with no dependencies declared
	}

	tt := NewTaskTags(tagCount, taskCount, dependsPerTag)

	for tag, deps := range b.tagDepend {
		if err := tt.SetTagDepends(tag, deps...); err != nil {
			return nil, err
		}
	}
	for task, tagIds := range b.taskTags {
		if err := tt.SetTaskTags(TaskId(task), tagIds...); err != nil {
			return nil, err
		}
	}
	return tt, nil
}

// TagNames returns the names passed to Tag, indexed by TagId, for
// diagnostics and logging.
func (b *Builder) TagNames() []string {
	return append([]string(nil), b.tagNames...)
}
