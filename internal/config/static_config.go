package config

import "strings"

const (
	StaticDir = "dir"
	StaticS3  = "s3"
)

type StaticConfig interface {
	GetStaticBackend() string
	GetStaticDir() string
	GetS3Bucket() string
	GetS3Region() string
	GetS3Endpoint() string
	GetS3Prefix() string
	GetS3AccessKey() string
	GetS3SecretKey() string
}

type Static struct {
	src *source
}

var _ StaticConfig = Static{}

func (s Static) GetStaticBackend() string {
	return strings.ToLower(s.src.get("STATIC_BACKEND", StaticDir))
}

func (s Static) GetStaticDir() string {
	return s.src.get("STATIC_DIR", "./site")
}

func (s Static) GetS3Bucket() string {
	return s.src.get("S3_BUCKET", "")
}

func (s Static) GetS3Region() string {
	return s.src.get("S3_REGION", "us-east-1")
}

// GetS3Endpoint overrides the S3 endpoint, e.g. for MinIO. Empty uses AWS.
func (s Static) GetS3Endpoint() string {
	return s.src.get("S3_ENDPOINT", "")
}

func (s Static) GetS3Prefix() string {
	return strings.Trim(s.src.get("S3_PREFIX", ""), "/")
}

// GetS3AccessKey and GetS3SecretKey select static credentials. When unset the
// default AWS credential chain is used.
func (s Static) GetS3AccessKey() string {
	return s.src.get("S3_ACCESS_KEY", "")
}

func (s Static) GetS3SecretKey() string {
	return s.src.get("S3_SECRET_KEY", "")
}
