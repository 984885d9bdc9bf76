package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(dir, "cli.db"))
	t.Setenv("LEDGER_CURRENCY", "KES")
	t.Setenv("LEDGER_SERVICE_FEE_FLAT", "2")
	t.Setenv("LOG_FORMAT", "json")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := NewRootCmd(&out, &logs)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestLedgerctl_EndToEnd(t *testing.T) {
	dir := setupEnv(t)
	user := uuid.NewString()

	assert.Contains(t, mustRun(t, "migrate"), "schema up to date")
	out := mustRun(t, "provision", "--user", user)
	assert.Contains(t, out, "settlement")
	assert.Contains(t, out, "provisioned")

	payload := filepath.Join(dir, "ipn.json")
	body := fmt.Sprintf(`{"status":"COMPLETED","amount":1000,"reference":"IPN-1","meta":{"user_id":%q}}`, user)
	require.NoError(t, os.WriteFile(payload, []byte(body), 0o600))

	metricsFile := filepath.Join(dir, "metrics.prom")
	out = mustRun(t, "deposit", "--provider", "pesapal", "--file", payload, "--metrics-file", metricsFile)
	assert.Contains(t, out, "posted KES 1000.00")
	assert.Contains(t, out, "399.20")
	assert.Contains(t, out, "199.60")
	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `smartledger_deposits_total{outcome="posted",provider="pesapal"} 1`)

	out = mustRun(t, "deposit", "--provider", "pesapal", "--file", payload)
	assert.Contains(t, out, "duplicate")

	out = mustRun(t, "balances", "--user", user)
	assert.Contains(t, out, "-1000.00")
	assert.Contains(t, out, "trial balance: 0.00")

	out = mustRun(t, "bills", "create", "--user", user, "--name", "Rent", "--amount", "100",
		"--due-day", "5", "--auto-pay", "--first-due", "2000-01-01")
	assert.Contains(t, out, "created")
	assert.Contains(t, mustRun(t, "bills", "run"), "1 bills paid")
	assert.NotContains(t, mustRun(t, "bills", "pending"), "reconciliation")
	assert.Contains(t, mustRun(t, "bills", "list", "--user", user), "Rent")

	out = mustRun(t, "transactions", "--user", user, "--limit", "0")
	assert.Contains(t, out, "2 transactions")
	assert.Contains(t, out, "IPN-1")
}

func TestLedgerctl_RulesAndRoundup(t *testing.T) {
	setupEnv(t)
	user := uuid.NewString()
	mustRun(t, "migrate")
	mustRun(t, "provision", "--user", user)

	out := mustRun(t, "rules", "set", "--user", user, "bills=50", "savings=30", "main=20")
	assert.Contains(t, out, "3 rules active")
	assert.Contains(t, out, "50.00")

	_, err := run(t, "rules", "set", "--user", user, "bills=50", "main=20")
	assert.ErrorIs(t, err, allocation.ErrAllocationInvariantViolation)
	assert.Contains(t, mustRun(t, "rules", "list", "--user", user), "30.00")

	_, err = run(t, "roundup", "configure", "--user", user, "--round-to", "20")
	assert.Error(t, err)
	out = mustRun(t, "roundup", "configure", "--user", user, "--round-to", "50", "--monthly-limit", "500")
	assert.Contains(t, out, "nearest 50 enabled")
	assert.Contains(t, mustRun(t, "roundup", "configure", "--user", user, "--disable"), "disabled")
}

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestLedgerctl_BillUpdates(t *testing.T) {
	setupEnv(t)
	user := uuid.NewString()
	mustRun(t, "migrate")
	mustRun(t, "provision", "--user", user)

	out := mustRun(t, "bills", "create", "--user", user, "--name", "Rent", "--amount", "100", "--due-day", "20")
	billID := uuidPattern.FindString(out)
	require.NotEmpty(t, billID, out)

	out = mustRun(t, "bills", "update", billID, "--name", "Flat rent", "--amount", "150", "--auto-pay")
	assert.Contains(t, out, "updated")
	out = mustRun(t, "bills", "list", "--user", user)
	assert.Contains(t, out, "Flat rent")
	assert.Contains(t, out, "150.00")

	_, err := run(t, "bills", "update", billID, "--frequency", "daily")
	assert.Error(t, err)

	assert.Contains(t, mustRun(t, "bills", "deactivate", billID), "deactivated")
	_, err = run(t, "bills", "pay", billID)
	assert.ErrorIs(t, err, bill.ErrBillInactive)

	assert.Contains(t, mustRun(t, "bills", "update", billID, "--active"), "active true")
}

func TestLedgerctl_WebhookInbox(t *testing.T) {
	dir := setupEnv(t)
	user := uuid.NewString()
	mustRun(t, "migrate")
	mustRun(t, "provision", "--user", user)

	anonymous := filepath.Join(dir, "anonymous.json")
	require.NoError(t, os.WriteFile(anonymous, []byte(`{"status":"COMPLETED","amount":500,"reference":"IPN-9"}`), 0o600))

	out, err := run(t, "deposit", "--provider", "pesapal", "--file", anonymous)
	require.ErrorIs(t, err, provider.ErrMissingUser)
	assert.Contains(t, out, "held as webhook")
	heldID := uuidPattern.FindString(out)
	require.NotEmpty(t, heldID, out)

	out = mustRun(t, "webhooks", "list")
	assert.Contains(t, out, "1 failed webhooks")
	assert.Contains(t, out, heldID)

	assert.Contains(t, mustRun(t, "webhooks", "retry"), "1 webhooks retried: 0 processed, 1 failed")

	out = mustRun(t, "deposit", "--provider", "pesapal", "--file", anonymous, "--user", user)
	assert.Contains(t, out, "posted KES 500.00")
	assert.Contains(t, mustRun(t, "webhooks", "list", "--status", "processed"), "1 processed webhooks")

	_, err = run(t, "webhooks", "list", "--status", "lost")
	assert.Error(t, err)
	_, err = run(t, "webhooks", "process", uuid.NewString())
	assert.Error(t, err)
}

func TestLedgerctl_InputErrors(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate")

	_, err := run(t, "balances")
	assert.ErrorContains(t, err, "--user is required")

	_, err = run(t, "bills", "pay", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid bill id")

	_, err = run(t, "deposit", "--provider", "stripe", "--file", "missing.json")
	assert.Error(t, err)
}

func TestParseRuleArgs(t *testing.T) {
	inputs, err := parseRuleArgs([]string{"bills=40", "savings=39.5"})
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "savings", inputs[1].Slug)
	assert.Equal(t, "39.5", inputs[1].Percent.String())

	_, err = parseRuleArgs([]string{"bills"})
	assert.Error(t, err)
	_, err = parseRuleArgs([]string{"bills=forty"})
	assert.Error(t, err)
}
