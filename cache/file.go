package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	filePerm os.FileMode = 0600
	dirPerm  os.FileMode = 0700
)

// NewFileBackend returns a backend persisted as a single JSON document at filePath.
// The file and its parent directory are created when missing.
func NewFileBackend(filePath string) (Backend, error) {
	if filePath == "" {
		return nil, errors.New("cache file path is empty")
	}
	dir := filepath.Dir(filePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, errors.Wrap(err, "failed to create cache dir")
		}
	}

	b := &fileBackend{
		filePath: filePath,
		data:     make(map[string]*Entry),
		m:        &sync.Mutex{},
	}
	if err := b.ensureFile(); err != nil {
		return nil, err
	}
	if err := b.read(); err != nil {
		return nil, err
	}

	return b, nil
}

type fileBackend struct {
	filePath string
	data     map[string]*Entry
	m        *sync.Mutex
}

func (b *fileBackend) Read(key string) (*Entry, error) {
	b.m.Lock()
	defer b.m.Unlock()

	e, ok := b.data[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	c := *e
	return &c, nil
}

func (b *fileBackend) Write(key string, e *Entry) error {
	b.m.Lock()
	defer b.m.Unlock()

	c := *e
	b.data[key] = &c
	return b.save()
}

func (b *fileBackend) Delete(key string) error {
	b.m.Lock()
	defer b.m.Unlock()

	if _, ok := b.data[key]; !ok {
		return nil
	}
	delete(b.data, key)
	return b.save()
}

func (b *fileBackend) Keys() ([]string, error) {
	b.m.Lock()
	defer b.m.Unlock()

	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// save writes the current data to the backend file.
// Make sure to execute this when the backend is locked
func (b *fileBackend) save() error {
	data, err := json.MarshalIndent(b.data, "", "\t")
	if err != nil {
		return errors.Wrap(err, "failed to marshal cache data to json")
	}

	tmp := b.tempFileName()
	err = os.WriteFile(tmp, data, filePerm)
	if err != nil {
		return errors.Wrap(err, "failed to write temporary cache file")
	}
	err = os.Rename(tmp, b.filePath)
	if err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to replace cache file")
	}
	return nil
}

// read reads the backend file into memory.
// An unparseable file is moved aside to <path>.corrupt and the backend starts
// empty.
func (b *fileBackend) read() error {
	data, err := os.ReadFile(b.filePath)
	if err != nil {
		return errors.Wrap(err, "failed to read cache file")
	}

	if string(data) == "" || string(data) == "{}" {
		return nil
	}
	err = json.Unmarshal(data, &b.data)
	if err != nil {
		log.Warnf("Discarding unreadable cache file %s: %s", b.filePath, err)
		b.data = make(map[string]*Entry)
		if rerr := os.Rename(b.filePath, b.corruptFileName()); rerr != nil {
			log.Warnf("Failed to move aside cache file %s: %s", b.filePath, rerr)
		}
		return b.ensureFile()
	}

	return nil
}

func (b *fileBackend) corruptFileName() string {
	return b.filePath + ".corrupt"
}

// ensureFile ensures that the backend file exists
func (b *fileBackend) ensureFile() error {
	file, err := os.OpenFile(b.filePath, os.O_RDONLY|os.O_CREATE, filePerm)
	if err != nil {
		return errors.Wrap(err, "something went wrong creating/reading cache file")
	}

	return file.Close()
}

// tempFileName generates a sibling file name used for atomic writes
func (b *fileBackend) tempFileName() string {
	return fmt.Sprintf("%s.%s.tmp", b.filePath, generateID(10))
}
