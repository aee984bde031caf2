package bolt

import (
	"encoding/json"

	"github.com/boltdb/bolt"

	"github.com/jeja2023/tp"
)

// TaskStore caches the tasks returned by the backend so they can be searched offline.
type TaskStore struct {
	Driver *Driver
}

// Get retrieves the tasks defined by ids. Unknown ids are skipped.
func (s *TaskStore) Get(ids ...int) ([]*tp.Task, error) {
	tasks := make([]*tp.Task, 0, len(ids))
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(taskBucket)

		for _, id := range ids {
			data := bucket.Get(itob(id))
			if data == nil {
				continue
			}

			var task tp.Task
			if err := json.Unmarshal(data, &task); err != nil {
				return err
			}
			tasks = append(tasks, &task)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Upsert stores task under its backend id.
func (s *TaskStore) Upsert(task *tp.Task) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(task)
		if err != nil {
			return err
		}

		return tx.Bucket(taskBucket).Put(itob(task.ID), data)
	})
}

func (s *TaskStore) Delete(id int) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(taskBucket).Delete(itob(id))
	})
}

func (s *TaskStore) List() ([]*tp.Task, error) {
	var tasks []*tp.Task

	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(taskBucket).Cursor()
		for id, data := c.First(); id != nil; id, data = c.Next() {
			var task tp.Task
			if err := json.Unmarshal(data, &task); err != nil {
				return err
			}
			tasks = append(tasks, &task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}
