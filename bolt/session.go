package bolt

import (
	"github.com/boltdb/bolt"

	"github.com/jeja2023/tp"
)

var (
	tokenKey    = []byte("token")
	usernameKey = []byte("username")
)

// SessionStore persists the token and username, like the browser local storage
// entries of the same names.
type SessionStore struct {
	Driver *Driver
}

func (s *SessionStore) Get() (tp.Session, error) {
	var session tp.Session
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		session.Token = string(bucket.Get(tokenKey))
		session.Username = string(bucket.Get(usernameKey))
		return nil
	})
	return session, err
}

func (s *SessionStore) Save(session tp.Session) error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		if err := bucket.Put(tokenKey, []byte(session.Token)); err != nil {
			return err
		}
		return bucket.Put(usernameKey, []byte(session.Username))
	})
}

func (s *SessionStore) Clear() error {
	return s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		if err := bucket.Delete(tokenKey); err != nil {
			return err
		}
		return bucket.Delete(usernameKey)
	})
}
