package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStore points every command at a fresh bolt file
func withStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PRINTCENTER_STORE_DRIVER", "bolt")
	t.Setenv("PRINTCENTER_STORE_PATH", filepath.Join(dir, "printcenter.db"))
	t.Setenv("PRINTCENTER_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeed_IsIdempotent(t *testing.T) {
	withStore(t)

	out, err := execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seed applied")
	assert.Contains(t, out, "inventory:       4 created, 0 updated")

	out, err = execute(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "inventory:       0 created, 4 updated")
}

func TestSeed_MissingFile(t *testing.T) {
	dir := withStore(t)

	_, err := execute(t, "seed", "--file", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestJobs_ListAndRun(t *testing.T) {
	withStore(t)

	out, err := execute(t, "jobs", "list")
	require.NoError(t, err)
	for _, name := range []string{
		"cancel_overdue_bookings",
		"check_confirmation_deadlines",
		"check_expired_confirmations",
		"check_low_stock",
		"check_overdue_orders",
		"notify_ready_for_delivery",
	} {
		assert.Contains(t, out, name)
	}

	_, err = execute(t, "seed")
	require.NoError(t, err)

	out, err = execute(t, "jobs", "run", "check_low_stock", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Job,Processed,Notified\n"), out)
	assert.Contains(t, out, "check_low_stock,")

	_, err = execute(t, "jobs", "run", "no_such_job")
	assert.Error(t, err)
}

func TestReport_ROICSV(t *testing.T) {
	withStore(t)
	_, err := execute(t, "seed")
	require.NoError(t, err)

	out, err := execute(t, "report", "roi", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Service,Orders,Internal,External,Savings\n"), out)
	assert.Contains(t, out, "total,0,")
}

func TestReport_UnknownFormat(t *testing.T) {
	withStore(t)

	_, err := execute(t, "report", "inventory", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestReport_ProductivityText(t *testing.T) {
	withStore(t)

	out, err := execute(t, "report", "productivity", "--date", "2025-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Productivity 2025-03-01")

	_, err = execute(t, "report", "productivity", "--date", "01/03/2025")
	assert.Error(t, err)
}

func TestInventory_ExportImportRoundTrip(t *testing.T) {
	dir := withStore(t)
	_, err := execute(t, "seed")
	require.NoError(t, err)

	file := filepath.Join(dir, "stock.csv")
	_, err = execute(t, "inventory", "export", "--output", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PAPER-A4-WHITE")

	out, err := execute(t, "inventory", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "0 created, 4 updated")

	extra := filepath.Join(dir, "extra.csv")
	require.NoError(t, os.WriteFile(extra, []byte(
		"name,sku,category,unit,current_quantity,minimum_threshold,min_quantity,maximum_threshold,reorder_point,notes\n"+
			"Glossy Photo Paper,PAPER-PHOTO,paper,sheet,200,50,50,1000,80,\n"), 0o644))
	out, err = execute(t, "inventory", "import", extra)
	require.NoError(t, err)
	assert.Contains(t, out, "1 created, 0 updated")

	out, err = execute(t, "inventory", "list", "--search", "photo")
	require.NoError(t, err)
	assert.Contains(t, out, "PAPER-PHOTO")
	assert.NotContains(t, out, "PAPER-A4-WHITE")
}

func TestUser_Create(t *testing.T) {
	withStore(t)

	out, err := execute(t, "user", "create",
		"--email", "Ops@Example.edu", "--name", "Ops Lead",
		"--password", "correct-horse-battery", "--role", "print_manager")
	require.NoError(t, err)
	assert.Contains(t, out, "Created ops@example.edu (print_manager)")

	tests := []struct {
		name string
		args []string
	}{
		{"duplicate email", []string{"--email", "ops@example.edu", "--password", "correct-horse-battery"}},
		{"short password", []string{"--email", "new@example.edu", "--password", "short"}},
		{"unknown role", []string{"--email", "new@example.edu", "--password", "correct-horse-battery", "--role", "janitor"}},
		{"missing password", []string{"--email", "new@example.edu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"user", "create"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}
