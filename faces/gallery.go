package faces

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Entry struct {
	Label      string
	Descriptor Descriptor
}

// Gallery holds the reference descriptors of all known identities.
// Reads dominate; writes only happen on identity registration
type Gallery struct {
	mutex       sync.RWMutex
	entries     []Entry
	perLabel    map[string]int
	maxPerLabel int
}

func NewGallery(maxPerLabel int) *Gallery {
	return &Gallery{
		perLabel:    map[string]int{},
		maxPerLabel: maxPerLabel,
	}
}

// Add registers one reference descriptor. Returns false when the label
// already carries the maximum number of references
func (g *Gallery) Add(label string, desc Descriptor) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.perLabel[label] >= g.maxPerLabel {
		return false
	}
	g.perLabel[label]++
	g.entries = append(g.entries, Entry{Label: label, Descriptor: desc})
	return true
}

// Entries returns a snapshot of all (label, descriptor) pairs
func (g *Gallery) Entries() []Entry {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	result := make([]Entry, len(g.entries))
	copy(result, g.entries)
	return result
}

func (g *Gallery) Labels() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	result := make([]string, 0, len(g.perLabel))
	for label := range g.perLabel {
		result = append(result, label)
	}
	return result
}

func (g *Gallery) CountFor(label string) int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.perLabel[label]
}

func (g *Gallery) Size() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.entries)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// LoadGallery builds the gallery from a labeled-images directory: one
// sub-directory per identity label, reference images directly inside.
// Per-label and per-image failures are logged and skipped; labels that yield
// no usable descriptor are excluded. Only an unreadable root is fatal
func LoadGallery(extractor Extractor, root string, maxPerLabel int) (*Gallery, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading labeled images dir %s: %w", root, err)
	}
	gallery := NewGallery(maxPerLabel)
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		label := dir.Name()
		files, err := os.ReadDir(filepath.Join(root, label))
		if err != nil {
			log.Printf("Skipping label %s: %v", label, err)
			continue
		}
		added := 0
		for _, file := range files {
			if added >= maxPerLabel {
				break
			}
			if file.IsDir() || !IsImageFile(file.Name()) {
				continue
			}
			path := filepath.Join(root, label, file.Name())
			desc, _, err := extractor.Extract(path)
			if errors.Is(err, ErrNoFace) {
				log.Printf("No face detected in %s/%s, skipping", label, file.Name())
				continue
			}
			if err != nil {
				log.Printf("Error processing %s/%s: %v", label, file.Name(), err)
				continue
			}
			gallery.Add(label, desc)
			added++
		}
		if added == 0 {
			log.Printf("Label %s yielded no usable reference images, excluded from gallery", label)
		}
	}
	log.Printf("Gallery loaded: %d identities, %d reference descriptors", len(gallery.Labels()), gallery.Size())
	return gallery, nil
}
