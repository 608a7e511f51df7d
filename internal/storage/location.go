package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

const objectScheme = "s3://"

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Location is a dataset address: either a local file path or an object key
// inside a bucket.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

func (l Location) Remote() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.Remote() {
		return objectScheme + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation accepts "s3://bucket/key" or a filesystem path.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("dataset location is required")
	}
	if !strings.HasPrefix(raw, objectScheme) {
		return Location{Path: raw}, nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(raw, objectScheme), "/")
	if !ok || strings.TrimSpace(key) == "" {
		return Location{}, fmt.Errorf("invalid object location %q: expected s3://bucket/key", raw)
	}
	if !bucketPattern.MatchString(bucket) {
		return Location{}, fmt.Errorf("invalid bucket name: %q", bucket)
	}
	cleaned := path.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return Location{}, fmt.Errorf("invalid object key: %q", key)
	}
	return Location{Bucket: bucket, Key: cleaned}, nil
}
