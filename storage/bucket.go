package storage

import (
	"os"

	"attendance/db"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

// Bucket describes where archived check-in snapshots live - a local
// directory or an S3 bucket
type Bucket struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	CreatedAt     int64  `json:"-"`
	UpdatedAt     int64  `json:"-"`
	Name          string      `gorm:"type:varchar(200)" json:"name"`
	StorageType   StorageType `json:"type"`
	Path          string      `json:"path"` // Directory on disk or a prefix in the S3 bucket
	S3Key         string      `json:"s3key"`
	S3Secret      string      `json:"s3secret"`
	Region        string      `json:"region"`
	Endpoint      string      `json:"endpoint"` // Leave empty for AWS
	SSEEncryption string      `json:"sse"`      // E.g. "AES256"; empty disables SSE
}

func (b *Bucket) CreateSVC() *s3.S3 {
	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentials(b.S3Key, b.S3Secret, ""),
		Region:      aws.String(b.Region),
	}
	if b.Endpoint != "" {
		cfg.Endpoint = aws.String(b.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	return s3.New(session.Must(session.NewSession(&cfg)))
}

// GetRemotePath prefixes the object key with the bucket path, if any
func (b *Bucket) GetRemotePath(path string) string {
	if b.Path == "" {
		return path
	}
	return b.Path + "/" + path
}

func (b *Bucket) Create() error {
	if err := db.Instance.Create(b).Error; err != nil {
		return err
	}
	if b.StorageType == StorageTypeFile {
		// Pre-create the archive location on disk
		if err := os.MkdirAll(b.Path, 0o777); err != nil {
			return err
		}
	}
	return nil
}
