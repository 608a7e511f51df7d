// Package schema describes the two relations the analytics pipeline is allowed
// to read: videos and their hourly video_snapshots.
package schema

import (
	"fmt"
	"strings"
)

const (
	VideosTable    = "videos"
	SnapshotsTable = "video_snapshots"
)

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Comment  string `json:"comment,omitempty"`
}

type Table struct {
	Name        string   `json:"table_name"`
	Description string   `json:"description"`
	PrimaryKey  string   `json:"primary_key"`
	Columns     []Column `json:"columns"`
}

// Relation is the only join the generator may emit.
type Relation struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

func (r Relation) String() string {
	return fmt.Sprintf("%s.%s = %s.%s", r.FromTable, r.FromColumn, r.ToTable, r.ToColumn)
}

type Descriptor struct {
	Tables   []Table  `json:"tables"`
	Relation Relation `json:"relation"`
}

var counterColumns = []string{"views_count", "likes_count", "comments_count", "reports_count"}

// Videos returns the static descriptor used across the service.
func Videos() Descriptor {
	videos := Table{
		Name:        VideosTable,
		Description: "Final cumulative statistics per video.",
		PrimaryKey:  "id",
		Columns: []Column{
			{Name: "id", Type: "VARCHAR(64)", Comment: "video identifier"},
			{Name: "creator_id", Type: "VARCHAR(64)", Comment: "owner (creator) identifier"},
			{Name: "video_created_at", Type: "TIMESTAMP", Comment: "publication time, UTC"},
		},
	}
	for _, name := range counterColumns {
		videos.Columns = append(videos.Columns, Column{Name: name, Type: "BIGINT", Comment: "cumulative total"})
	}
	videos.Columns = append(videos.Columns,
		Column{Name: "created_at", Type: "TIMESTAMP", Comment: "row insertion time, UTC"},
		Column{Name: "updated_at", Type: "TIMESTAMP", Comment: "row update time, UTC"},
	)

	snapshots := Table{
		Name:        SnapshotsTable,
		Description: "Hourly measurements per video; append-only.",
		PrimaryKey:  "id",
		Columns: []Column{
			{Name: "id", Type: "BIGSERIAL", Comment: "snapshot identifier"},
			{Name: "video_id", Type: "VARCHAR(64)", Comment: "references videos(id)"},
			{Name: "created_at", Type: "TIMESTAMP", Comment: "capture time, UTC"},
		},
	}
	for _, name := range counterColumns {
		snapshots.Columns = append(snapshots.Columns,
			Column{Name: name, Type: "BIGINT", Comment: "cumulative value at capture time"},
			Column{Name: "delta_" + name, Type: "BIGINT", Comment: "change since the previous snapshot"},
		)
	}

	return Descriptor{
		Tables: []Table{videos, snapshots},
		Relation: Relation{
			FromTable:  VideosTable,
			FromColumn: "id",
			ToTable:    SnapshotsTable,
			ToColumn:   "video_id",
		},
	}
}

func (d Descriptor) Table(name string) (Table, bool) {
	for _, table := range d.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}

func (d Descriptor) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, table := range d.Tables {
		names = append(names, table.Name)
	}
	return names
}

func (d Descriptor) HasColumn(tableName, column string) bool {
	table, ok := d.Table(tableName)
	if !ok {
		return false
	}
	for _, candidate := range table.Columns {
		if candidate.Name == column {
			return true
		}
	}
	return false
}

// DDL renders the descriptor as annotated CREATE TABLE statements for prompts.
func (d Descriptor) DDL() string {
	var b strings.Builder
	for i, table := range d.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "-- %s\nCREATE TABLE %s (\n", table.Description, table.Name)
		for j, column := range table.Columns {
			b.WriteString("    ")
			b.WriteString(column.Name)
			b.WriteString(" ")
			b.WriteString(column.Type)
			if column.Name == table.PrimaryKey {
				b.WriteString(" PRIMARY KEY")
			} else if !column.Nullable {
				b.WriteString(" NOT NULL")
			}
			if table.Name == d.Relation.ToTable && column.Name == d.Relation.ToColumn {
				fmt.Fprintf(&b, " REFERENCES %s (%s)", d.Relation.FromTable, d.Relation.FromColumn)
			}
			if j < len(table.Columns)-1 {
				b.WriteString(",")
			}
			if column.Comment != "" {
				b.WriteString(" -- ")
				b.WriteString(column.Comment)
			}
			b.WriteString("\n")
		}
		b.WriteString(");\n")
	}
	return b.String()
}
