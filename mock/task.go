// Package mock provides in-memory implementations of the tp repositories.
package mock

import (
	"sort"
	"sync"

	"github.com/jeja2023/tp"
)

type TaskRepository struct {
	mu sync.Mutex
	db map[int]*tp.Task
}

func (r *TaskRepository) Get(ids ...int) ([]*tp.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tasks []*tp.Task
	for _, id := range ids {
		if task, ok := r.db[id]; ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r *TaskRepository) List() ([]*tp.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*tp.Task, 0, len(r.db))
	for _, task := range r.db {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *TaskRepository) Upsert(task *tp.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		r.db = make(map[int]*tp.Task)
	}
	r.db[task.ID] = task
	return nil
}

func (r *TaskRepository) Delete(id int) error {
	r.mu.Lock()
	delete(r.db, id)
	r.mu.Unlock()
	return nil
}
