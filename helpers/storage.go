package helpers

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/Mohdjariullah/Vlad-AJ-simplified/cache"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Flat-file document store. One JSON file per logical name, writes go to
// a temporary sibling first and get renamed over the target, so a reader
// only ever observes a complete old or complete new file. A per-name
// mutex serializes access from concurrent workers inside this process,
// cross-process access is not supported.

var (
	storageDir = "data"

	storageLocks     = make(map[string]*sync.Mutex)
	storageLocksLock sync.Mutex
)

// SetStorageDir changes where documents get stored and creates the folder
func SetStorageDir(dir string) error {
	if dir == "" {
		return errors.New("empty storage dir submitted")
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrap(err, "unable to create storage dir")
	}

	storageDir = dir
	return nil
}

func getStorageLock(name string) *sync.Mutex {
	storageLocksLock.Lock()
	defer storageLocksLock.Unlock()

	lock, ok := storageLocks[name]
	if !ok {
		lock = new(sync.Mutex)
		storageLocks[name] = lock
	}

	return lock
}

func storagePath(name string) string {
	return filepath.Join(storageDir, name+".json")
}

// WriteDocument marshals $document and atomically replaces the file for
// $name. On failure the temporary file gets cleaned up and the previous
// content stays untouched.
func WriteDocument(name string, document interface{}) error {
	lock := getStorageLock(name)
	lock.Lock()
	defer lock.Unlock()

	data, err := jsoniter.MarshalIndent(document, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal document "+name)
	}

	target := storagePath(name)
	temp := target + ".tmp"

	err = ioutil.WriteFile(temp, data, 0644)
	if err != nil {
		os.Remove(temp)
		return errors.Wrap(err, "unable to write document "+name)
	}

	err = os.Rename(temp, target)
	if err != nil {
		os.Remove(temp)
		return errors.Wrap(err, "unable to replace document "+name)
	}

	return nil
}

// ReadDocument unmarshals the file for $name into $document. Returns
// false if no document exists. Unreadable or corrupt files degrade to
// absent, they get logged and the next write replaces them.
func ReadDocument(name string, document interface{}) (found bool) {
	lock := getStorageLock(name)
	lock.Lock()
	defer lock.Unlock()

	data, err := ioutil.ReadFile(storagePath(name))
	if err != nil {
		if !os.IsNotExist(err) {
			cache.GetLogger().WithField("module", "storage").Error(
				"failed to read document " + name + ": " + err.Error())
		}
		return false
	}

	err = jsoniter.Unmarshal(data, document)
	if err != nil {
		cache.GetLogger().WithField("module", "storage").Error(
			"corrupt document " + name + ", treating as absent: " + err.Error())
		return false
	}

	return true
}
