package storage

import "testing"

func TestParseLocationObject(t *testing.T) {
	location, err := ParseLocation("s3://clipquery-datasets/2025/11/videos.json")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	if !location.Remote() {
		t.Fatal("expected remote location")
	}
	if location.Bucket != "clipquery-datasets" || location.Key != "2025/11/videos.json" {
		t.Fatalf("location = %+v", location)
	}
	if location.String() != "s3://clipquery-datasets/2025/11/videos.json" {
		t.Fatalf("String() = %q", location.String())
	}
}

func TestParseLocationFile(t *testing.T) {
	location, err := ParseLocation(" ./data/videos.json ")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	if location.Remote() || location.Path != "./data/videos.json" {
		t.Fatalf("location = %+v", location)
	}
}

func TestParseLocationRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "s3://bucket", "s3://bucket/", "s3://B!/key", "s3://bucket/../etc/passwd"} {
		if _, err := ParseLocation(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
