package taskgraph

// TaskList is a convenience wrapper over a single serial chain of
// Tasks in a Graph, exposing the ordered-list operations a plant
// procedure needs directly: appendTask, addTaskBefore, addTaskAfter,
// removeTask. Branching topologies and Synchronizers are built
// straight against the Graph; TaskList only manages the common case
// of one linear procedure.
type TaskList struct {
	graph *Graph
	tasks []*Task
}

// NewTaskList creates an empty TaskList backed by graph.
func NewTaskList(graph *Graph) *TaskList {
	return &TaskList{graph: graph}
}

// Tasks returns the chain in order.
func (l *TaskList) Tasks() []*Task {
	return append([]*Task(nil), l.tasks...)
}

// AppendTask adds t to the end of the chain, connecting it after the
// current last task if one exists.
func (l *TaskList) AppendTask(t *Task) {
	l.graph.Register(t)
	if len(l.tasks) > 0 {
		l.graph.Connect(l.tasks[len(l.tasks)-1], t)
	}
	l.tasks = append(l.tasks, t)
}

// AddTaskBefore inserts newTask immediately before existing in the
// chain.
func (l *TaskList) AddTaskBefore(existing, newTask *Task) {
	idx := l.indexOf(existing)
	if idx < 0 {
		return
	}
	l.graph.InsertBefore(existing, newTask)
	l.tasks = append(l.tasks, nil)
	copy(l.tasks[idx+1:], l.tasks[idx:])
	l.tasks[idx] = newTask
}

// AddTaskAfter inserts newTask immediately after existing in the
// chain.
func (l *TaskList) AddTaskAfter(existing, newTask *Task) {
	idx := l.indexOf(existing)
	if idx < 0 {
		return
	}
	l.graph.InsertAfter(existing, newTask)
	l.tasks = append(l.tasks, nil)
	copy(l.tasks[idx+2:], l.tasks[idx+1:])
	l.tasks[idx+1] = newTask
}

// RemoveTask removes t from the chain and the underlying graph.
func (l *TaskList) RemoveTask(t *Task) {
	idx := l.indexOf(t)
	if idx < 0 {
		return
	}
	l.graph.Remove(t)
	l.tasks = append(l.tasks[:idx], l.tasks[idx+1:]...)
}

func (l *TaskList) indexOf(t *Task) int {
	for i, existing := range l.tasks {
		if existing == t {
			return i
		}
	}
	return -1
}
