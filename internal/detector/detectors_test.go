package detector

import (
	"testing"

	"github.com/example/secure-scanner/internal/finding"
)

type wantFinding struct {
	category finding.Category
	severity finding.Severity
	line     int
}

func TestDetectors(t *testing.T) {
	tests := []struct {
		name     string
		detector Detector
		src      string
		want     []wantFinding
	}{
		{
			name:     "bare eval",
			detector: NewDangerousFunctionDetector(),
			src:      "import os\n\nresult = eval(user_input)\n",
			want:     []wantFinding{{finding.CategoryDangerousFunction, finding.SeverityHigh, 3}},
		},
		{
			name:     "bare exec",
			detector: NewDangerousFunctionDetector(),
			src:      "exec(code)\n",
			want:     []wantFinding{{finding.CategoryDangerousFunction, finding.SeverityHigh, 1}},
		},
		{
			name:     "attribute eval is not a bare call",
			detector: NewDangerousFunctionDetector(),
			src:      "df.eval('a + b')\n",
		},
		{
			name:     "pickle loads",
			detector: NewUnsafeDeserializationDetector(),
			src:      "import pickle\nobj = pickle.loads(blob)\n",
			want:     []wantFinding{{finding.CategoryUnsafeDeserialization, finding.SeverityCritical, 2}},
		},
		{
			name:     "yaml load with safe loader is still reported",
			detector: NewUnsafeDeserializationDetector(),
			src:      "import yaml\n\n\ncfg = yaml.load(fh, Loader=yaml.SafeLoader)\n",
			want:     []wantFinding{{finding.CategoryUnsafeDeserialization, finding.SeverityHigh, 4}},
		},
		{
			name:     "yaml safe_load",
			detector: NewUnsafeDeserializationDetector(),
			src:      "cfg = yaml.safe_load(fh)\n",
		},
		{
			name:     "aliased pickle is not resolved",
			detector: NewUnsafeDeserializationDetector(),
			src:      "import pickle as pk\npk.loads(blob)\n",
		},
		{
			name:     "f-string query",
			detector: NewSQLInjectionDetector(),
			src:      "def find(cursor, user_input):\n    cursor.execute(f\"SELECT * FROM users WHERE name = '{user_input}'\")\n",
			want:     []wantFinding{{finding.CategorySQLInjectionRisk, finding.SeverityHigh, 2}},
		},
		{
			name:     "executemany f-string",
			detector: NewSQLInjectionDetector(),
			src:      "conn.executemany(f\"INSERT INTO {table} VALUES (?)\", rows)\n",
			want:     []wantFinding{{finding.CategorySQLInjectionRisk, finding.SeverityHigh, 1}},
		},
		{
			name:     "literal query",
			detector: NewSQLInjectionDetector(),
			src:      "cursor.execute(\"select 1\")\n",
		},
		{
			name:     "parameterized query",
			detector: NewSQLInjectionDetector(),
			src:      "cursor.execute(\"select * from t where id = %s\", (uid,))\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.detector.Scan(parse(t, tt.src))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d findings, got %d: %#v", len(tt.want), len(got), got)
			}
			for i, w := range tt.want {
				if got[i].Category != w.category {
					t.Errorf("category: expected %s, got %s", w.category, got[i].Category)
				}
				if got[i].Severity != w.severity {
					t.Errorf("severity: expected %s, got %s", w.severity, got[i].Severity)
				}
				if got[i].Location.Line != w.line {
					t.Errorf("line: expected %d, got %d", w.line, got[i].Location.Line)
				}
			}
		})
	}
}

func TestDetectorsAreIndependentPerRun(t *testing.T) {
	d := NewDangerousFunctionDetector()
	tree := parse(t, "eval(a)\n")

	first := d.Scan(tree)
	second := d.Scan(tree)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one finding per run, got %d and %d", len(first), len(second))
	}
}
