package things

// Kind is the record type Things stores in a single table: ordinary to-dos,
// projects, and the headings that group to-dos inside a project.
type Kind int

const (
	KindTodo Kind = iota
	KindProject
	KindHeading
)

// Status is the three-way task status vocabulary.
type Status int

const (
	StatusIncomplete Status = iota
	StatusCompleted
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	default:
		return "incomplete"
	}
}

// Task is one record from the Things database. UUID is the stable identity
// a task keeps across its whole life; it is the correlation key stored on
// the remote side.
type Task struct {
	UUID         string
	Title        string
	Kind         Kind
	Status       Status
	StartDate    Date
	Deadline     Date
	ProjectRef   string
	ProjectTitle string
	HeadingRef   string
	Today        bool
	// Modified is an opaque change token: two values compare equal iff the
	// task has not been edited between the reads that produced them.
	Modified string
}

// HeadingInfo carries the project a heading belongs to, so a to-do nested
// under a heading can be attributed to that heading's project.
type HeadingInfo struct {
	ProjectRef   string
	ProjectTitle string
}

// BuildHeadingLookup maps heading uuid to its owning project across the full
// task set. Rebuilt from scratch every run.
func BuildHeadingLookup(tasks []Task) map[string]HeadingInfo {
	lookup := make(map[string]HeadingInfo)
	for _, t := range tasks {
		if t.Kind == KindHeading {
			lookup[t.UUID] = HeadingInfo{
				ProjectRef:   t.ProjectRef,
				ProjectTitle: t.ProjectTitle,
			}
		}
	}
	return lookup
}
