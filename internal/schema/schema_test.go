package schema

import (
	"strings"
	"testing"
)

func TestVideosDescribesExactlyTwoTables(t *testing.T) {
	d := Videos()
	names := d.TableNames()
	if len(names) != 2 || names[0] != VideosTable || names[1] != SnapshotsTable {
		t.Fatalf("TableNames() = %v", names)
	}
	if d.Relation.String() != "videos.id = video_snapshots.video_id" {
		t.Fatalf("Relation = %q", d.Relation.String())
	}
}

func TestHasColumn(t *testing.T) {
	d := Videos()
	cases := []struct {
		table, column string
		want          bool
	}{
		{VideosTable, "creator_id", true},
		{VideosTable, "views_count", true},
		{VideosTable, "delta_views_count", false},
		{SnapshotsTable, "delta_views_count", true},
		{SnapshotsTable, "delta_reports_count", true},
		{SnapshotsTable, "creator_id", false},
		{"users", "id", false},
	}
	for _, tc := range cases {
		if got := d.HasColumn(tc.table, tc.column); got != tc.want {
			t.Fatalf("HasColumn(%q, %q) = %v, want %v", tc.table, tc.column, got, tc.want)
		}
	}
}

func TestDDLRendersForeignKeyAndColumns(t *testing.T) {
	ddl := Videos().DDL()
	for _, fragment := range []string{
		"CREATE TABLE videos (",
		"CREATE TABLE video_snapshots (",
		"id VARCHAR(64) PRIMARY KEY",
		"video_id VARCHAR(64) NOT NULL REFERENCES videos (id)",
		"delta_likes_count BIGINT NOT NULL",
	} {
		if !strings.Contains(ddl, fragment) {
			t.Fatalf("DDL missing %q:\n%s", fragment, ddl)
		}
	}
	if strings.Contains(ddl, "99") {
		t.Fatalf("DDL must not carry numeric corrections:\n%s", ddl)
	}
}
