package mock

import (
	"sync"

	"github.com/jeja2023/tp"
)

type FileRepository struct {
	mu sync.Mutex
	db map[int][]tp.GeneratedFile
}

func (r *FileRepository) List(taskID int) ([]tp.GeneratedFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]tp.GeneratedFile(nil), r.db[taskID]...), nil
}

func (r *FileRepository) Upsert(taskID int, file tp.GeneratedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		r.db = make(map[int][]tp.GeneratedFile)
	}
	for i, f := range r.db[taskID] {
		if f.Filename == file.Filename {
			r.db[taskID][i] = file
			return nil
		}
	}
	r.db[taskID] = append(r.db[taskID], file)
	return nil
}

func (r *FileRepository) Delete(taskID int, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []tp.GeneratedFile
	for _, f := range r.db[taskID] {
		if f.Filename != filename {
			kept = append(kept, f)
		}
	}
	r.db[taskID] = kept
	return nil
}

func (r *FileRepository) Clear(taskID int) error {
	r.mu.Lock()
	delete(r.db, taskID)
	r.mu.Unlock()
	return nil
}
