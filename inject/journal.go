package inject

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/mtraver/base91"
	"github.com/vmihailenco/msgpack/v5"
)

const journalKeyPrefix = "file"

// JournalEntry records the authored content of one rewritten file.
type JournalEntry struct {
	Path string `msgpack:"p"`
	// Original is the zstd compressed authored source.
	Original []byte `msgpack:"o"`
	// Fingerprint identifies the rewritten content, so edits made after injection can be detected.
	Fingerprint string   `msgpack:"f"`
	Keys        []string `msgpack:"k"`
}

// Journal keeps the authored content of every file an injection run overwrote.
type Journal struct {
	store Storage
}

// OpenJournal opens the persistent journal stored in dir. debug enables storage diagnostics.
func OpenJournal(dir string, maxMemMB int, debug bool) (*Journal, error) {
	store, err := NewBadgerStorage(dir, maxMemMB, debug)
	if err != nil {
		return nil, err
	}
	return &Journal{store: KeyPrefixStorage(store, journalKeyPrefix)}, nil
}

// NewMemJournal returns a journal that lives only as long as the process.
func NewMemJournal() *Journal {
	return &Journal{store: KeyPrefixStorage(NewMemStorage(), journalKeyPrefix)}
}

func fingerprint(content []byte) string {
	sha := sha1.Sum(content)
	return base91.StdEncoding.EncodeToString(sha[:])
}

// Record stores original as the authored content of path before it is replaced by rewritten. When path
// is already journaled the first original is kept, a second run over an injected file must not lose it.
func (j *Journal) Record(path string, original, rewritten []byte, keys []string) error {
	entry, found, err := j.load(path)
	if err != nil {
		return err
	} else if found {
		entry.Fingerprint = fingerprint(rewritten)
		for _, k := range keys {
			if !slices.Contains(entry.Keys, k) {
				entry.Keys = append(entry.Keys, k)
			}
		}
	} else {
		entry = &JournalEntry{
			Path:        path,
			Original:    zstdCompress(nil, original),
			Fingerprint: fingerprint(rewritten),
			Keys:        keys,
		}
	}

	b, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry %s: %w", path, err)
	}
	return j.store.Save(path, b)
}

func (j *Journal) load(path string) (*JournalEntry, bool, error) {
	b, found, err := j.store.Load(path)
	if err != nil || !found {
		return nil, false, err
	}
	var entry JournalEntry
	if err := msgpack.Unmarshal(b, &entry); err != nil {
		return nil, false, fmt.Errorf("decode journal entry %s: %w", path, err)
	}
	return &entry, true, nil
}

// Entry returns the journal entry for path.
func (j *Journal) Entry(path string) (*JournalEntry, bool, error) {
	return j.load(path)
}

// Paths returns every journaled file path.
func (j *Journal) Paths() ([]string, error) {
	paths, err := j.store.ListKeysPrefix("")
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

// Source returns the decompressed authored content of an entry.
func (e *JournalEntry) Source() ([]byte, error) {
	return zstdDecompress(nil, e.Original)
}

// RestoreFile writes the journaled original of path back and removes its entry. A file whose content no
// longer matches what injection wrote is restored all the same, with a warning, since the edits made
// after injection are lost.
func (j *Journal) RestoreFile(path string) error {
	entry, found, err := j.load(path)
	if err != nil {
		return err
	} else if !found {
		return fmt.Errorf("no journal entry for %s", path)
	}
	original, err := entry.Source()
	if err != nil {
		return fmt.Errorf("decompress journal entry %s: %w", path, err)
	}

	if current, err := os.ReadFile(path); err == nil {
		if fingerprint(current) != entry.Fingerprint {
			log.Printf("WARN: %s changed since injection, edits will be lost", path)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := writeFileReplace(path, original); err != nil {
		return err
	}
	return j.store.Delete(path)
}

// Restore writes back every journaled file. Failures are collected so one unwritable file does not
// prevent the rest from being restored.
func (j *Journal) Restore() (int, error) {
	paths, err := j.Paths()
	if err != nil {
		return 0, err
	}
	var restored int
	var errs []error
	for _, path := range paths {
		if err := j.RestoreFile(path); err != nil {
			errs = append(errs, err)
		} else {
			restored++
		}
	}
	return restored, errors.Join(errs...)
}

func (j *Journal) Close() error {
	return j.store.Close()
}
