//go:build blackbox

package blackbox

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

func f64(x float64) string {
	// stable formatting, enough precision for FX prices
	return fmt.Sprintf("%.6f", x)
}

// writeCandlesCSV writes n one-minute bars for asset ending a few minutes
// before now, oscillating around mid.
func writeCandlesCSV(t *testing.T, dir, asset string, n int, mid float64) {
	t.Helper()

	end := time.Now().UTC().Truncate(time.Minute).Add(-2 * time.Minute)
	var b strings.Builder
	b.WriteString("time,open,high,low,close\n")
	for i := 0; i < n; i++ {
		ts := end.Add(time.Duration(i-n) * time.Minute)
		p := mid + 0.0005*math.Sin(float64(i)/7)
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n", ts.Format(time.RFC3339), f64(p), f64(p+0.0002), f64(p-0.0002), f64(p+0.0001))
	}
	if err := os.WriteFile(filepath.Join(dir, asset+".csv"), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeConfig(t *testing.T, dir, csvDir, dbPath string) string {
	t.Helper()

	path := filepath.Join(dir, "binscan.yaml")
	body := fmt.Sprintf(`scanner:
  asset_basket: [EURUSD, GBPUSD]
broker:
  data: csv
  csv_dir: %s
journal:
  type: sqlite
  db_path: %s
metrics:
  addr: ""
log:
  level: warn
`, csvDir, dbPath)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
