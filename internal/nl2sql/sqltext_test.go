package nl2sql

import "testing"

func TestStripMarkdownSQL(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"sql fence":          {in: "```sql\nSELECT 1;\n```", want: "SELECT 1;"},
		"postgresql fence":   {in: "```postgresql\nSELECT COUNT(*) FROM videos;\n```", want: "SELECT COUNT(*) FROM videos;"},
		"bare fence":         {in: "```\nSELECT 2;\n```", want: "SELECT 2;"},
		"single line fence":  {in: "```sql SELECT 3;```", want: "SELECT 3;"},
		"no fence":           {in: "  SELECT 4;  ", want: "SELECT 4;"},
		"prose around fence": {in: "Here you go:\n```sql\nSELECT 5;\n```\nEnjoy.", want: "SELECT 5;"},
		"unterminated fence": {in: "```sql\nSELECT 6;", want: "SELECT 6;"},
		"select on tag line": {in: "```SELECT 7;\n```", want: "SELECT 7;"},
		"empty":              {in: "   ", want: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := stripMarkdownSQL(tc.in); got != tc.want {
				t.Fatalf("stripMarkdownSQL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsSingleReadStatement(t *testing.T) {
	cases := map[string]bool{
		"SELECT COUNT(*) FROM videos;":                                true,
		"select sum(delta_views_count) from video_snapshots":          true,
		"WITH t AS (SELECT 1) SELECT COUNT(*) FROM t;":                true,
		"SELECT COUNT(*) FROM videos WHERE id = 'a;b';":               true,
		"SELECT COUNT(*) FROM videos WHERE id = 'it''s';":             true,
		"SELECT 1; DROP TABLE videos;":                                false,
		"DELETE FROM videos;":                                         false,
		"INSERT INTO videos (id) VALUES ('x');":                       false,
		"SELECT 1;;":                                                  false,
		"SELECT 'unterminated":                                        false,
		"":                                                            false,
		"EXPLAIN SELECT 1;":                                           false,
		"SELECT COUNT(*) FROM videos; -- total":                       true,
		"-- creator's videos\nSELECT COUNT(*) FROM videos":            true,
		"SELECT COUNT(*) FROM videos -- creator's videos":             true,
		"(SELECT COUNT(*) FROM videos)":                               true,
		"/* views */ SELECT SUM(views_count) FROM videos; /* done */": true,
		"SELECT '--not a comment;' FROM videos":                       true,
		"SELECT 1; -- x\nDROP TABLE videos":                           false,
		"/* unterminated SELECT 1":                                    false,
		"-- SELECT 1\nDELETE FROM videos":                             false,
		"selection FROM videos":                                       false,
	}
	for sqlText, want := range cases {
		if got := isSingleReadStatement(sqlText); got != want {
			t.Fatalf("isSingleReadStatement(%q) = %v, want %v", sqlText, got, want)
		}
	}
}
