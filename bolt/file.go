package bolt

import (
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/jeja2023/tp"
)

// FileStore keeps the generated files of every task under the key task_{id}_files.
type FileStore struct {
	Driver *Driver
}

func fileKey(taskID int) []byte {
	return []byte(fmt.Sprintf("task_%d_files", taskID))
}

func (s *FileStore) List(taskID int) ([]tp.GeneratedFile, error) {
	var files []tp.GeneratedFile
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		var err error
		files, err = readFiles(tx.Bucket(fileBucket), taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (s *FileStore) Upsert(taskID int, file tp.GeneratedFile) error {
	return s.update(taskID, func(files []tp.GeneratedFile) []tp.GeneratedFile {
		for i, f := range files {
			if f.Filename == file.Filename {
				files[i] = file
				return files
			}
		}
		return append(files, file)
	})
}

func (s *FileStore) Delete(taskID int, filename string) error {
	return s.update(taskID, func(files []tp.GeneratedFile) []tp.GeneratedFile {
		kept := files[:0]
		for _, f := range files {
			if f.Filename != filename {
				kept = append(kept, f)
			}
		}
		return kept
	})
}

func (s *FileStore) Clear(taskID int) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fileBucket).Delete(fileKey(taskID))
	})
}

func (s *FileStore) update(taskID int, f func([]tp.GeneratedFile) []tp.GeneratedFile) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(fileBucket)

		files, err := readFiles(bucket, taskID)
		if err != nil {
			return err
		}

		data, err := json.Marshal(f(files))
		if err != nil {
			return err
		}
		return bucket.Put(fileKey(taskID), data)
	})
}

func readFiles(bucket *bolt.Bucket, taskID int) ([]tp.GeneratedFile, error) {
	data := bucket.Get(fileKey(taskID))
	if data == nil {
		return nil, nil
	}

	var files []tp.GeneratedFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, err
	}
	return files, nil
}
