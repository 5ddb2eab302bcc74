package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"attendance/config"
	"attendance/db"
)

type StorageSpecificAPI interface {
	GetFullPath(path string) string
	EnsureDirExists(dir string) error
	UpdateRemoteFile(path, mimeType string) error
	ReleaseLocalFile(path string)
	GetFreeSpace() uint64
}

type StorageAPI interface {
	StorageSpecificAPI

	Save(path string, reader io.Reader) (int64, error)
	Delete(path string) error
	GetBucket() *Bucket
}

type Storage struct {
	StorageAPI
	specifics StorageAPI
	Bucket    Bucket
}

var (
	cachedStorage []StorageAPI
)

func Init() {
	if err := db.Instance.AutoMigrate(&Bucket{}); err != nil {
		log.Fatalf("Auto-migrate error: %v", err)
	}
	var buckets []Bucket
	if err := db.Instance.Find(&buckets).Error; err != nil {
		panic(err)
	}
	if len(buckets) == 0 && config.ARCHIVE_SNAPSHOTS {
		// First run with archiving on - create the default disk bucket
		bucket := Bucket{
			Name:        "archive",
			StorageType: StorageTypeFile,
			Path:        config.ARCHIVE_DIR,
		}
		if err := bucket.Create(); err != nil {
			panic(err)
		}
		buckets = append(buckets, bucket)
	}
	cachedStorage = []StorageAPI{}
	for _, bucket := range buckets {
		switch bucket.StorageType {
		case StorageTypeFile:
			cachedStorage = append(cachedStorage, NewDiskStorage(&bucket))
		case StorageTypeS3:
			cachedStorage = append(cachedStorage, NewS3Storage(&bucket))
		default:
			panic(fmt.Sprintf("Storage type unavailable for Bucket %d", bucket.ID))
		}
	}
	log.Printf("Storage buckets found: %d", len(cachedStorage))
}

func (s *Storage) GetBucket() *Bucket {
	return &s.Bucket
}

// GetDefaultStorage returns the archive target, preferring local disk
func GetDefaultStorage() StorageAPI {
	for _, s := range cachedStorage {
		if s.GetBucket().StorageType == StorageTypeFile {
			return s
		}
	}
	for _, s := range cachedStorage {
		return s
	}
	return nil
}

//
// NOTE: All the functions below work on a local file
//

func (s *Storage) Save(path string, reader io.Reader) (int64, error) {
	fileName := s.GetFullPath(path)
	if err := s.EnsureDirExists(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	result, err := io.Copy(file, reader)
	file.Close()
	return result, err
}

func (s *Storage) Delete(path string) error {
	return os.Remove(s.GetFullPath(path))
}

//
// Proxy methods
//

func (s *Storage) GetFullPath(path string) string {
	return s.specifics.GetFullPath(path)
}
func (s *Storage) EnsureDirExists(dir string) error {
	return s.specifics.EnsureDirExists(dir)
}
func (s *Storage) UpdateRemoteFile(path, mimeType string) error {
	return s.specifics.UpdateRemoteFile(path, mimeType)
}
func (s *Storage) ReleaseLocalFile(path string) {
	s.specifics.ReleaseLocalFile(path)
}
func (s *Storage) GetFreeSpace() uint64 {
	return s.specifics.GetFreeSpace()
}
