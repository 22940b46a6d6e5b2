package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/danbauman77/reginfo-monitor/internal/config"
	"github.com/danbauman77/reginfo-monitor/internal/types"
)

func testEmailNotifier(t *testing.T) *EmailNotifier {
	t.Helper()
	n, err := NewEmailNotifier(&config.EmailConfig{
		Enabled:    true,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "monitor@example.com",
		Password:   "secret",
		From:       "RegInfo Monitor <monitor@example.com>",
		To:         []string{"admin@example.com"},
	}, "https://www.reginfo.gov", zaptest.NewLogger(t))
	require.NoError(t, err)
	return n
}

func changedReport() types.ChangeReport {
	return types.ChangeReport{
		RIN:            "2060-AV54",
		Classification: types.ClassChanged,
		DetectedAt:     time.Date(2024, 10, 7, 14, 30, 0, 0, time.UTC),
		Previous: &types.Record{
			RIN:           "2060-AV54",
			PublicationID: "202404",
			Fields:        map[string]string{types.FieldStage: "Proposed Rule"},
		},
		Current: types.Record{
			RIN:           "2060-AV54",
			PublicationID: "202410",
			Fields: map[string]string{
				types.FieldTitle: "National Emission Standards Review",
				types.FieldStage: "Final Rule",
			},
		},
		Diffs: []types.FieldDiff{
			{Field: types.FieldStage, Old: "Proposed Rule", New: "Final Rule"},
		},
	}
}

func firstSeenReport() types.ChangeReport {
	return types.ChangeReport{
		RIN:            "0910-AI39",
		Classification: types.ClassFirstSeen,
		Current: types.Record{
			RIN:           "0910-AI39",
			PublicationID: "202410",
			Fields:        map[string]string{types.FieldTitle: "Food Labeling Update"},
		},
	}
}

func TestNewEmailNotifierDisabled(t *testing.T) {
	_, err := NewEmailNotifier(&config.EmailConfig{Enabled: false}, "", zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestRenderChangedReport(t *testing.T) {
	n := testEmailNotifier(t)

	body, err := n.render([]types.ChangeReport{changedReport()})
	require.NoError(t, err)

	assert.Contains(t, body, "RIN 2060-AV54")
	assert.Contains(t, body, "National Emission Standards Review")
	assert.Contains(t, body, "Rule Stage")
	assert.Contains(t, body, "Proposed Rule")
	assert.Contains(t, body, "Final Rule")
	assert.Contains(t, body,
		"https://www.reginfo.gov/public/do/eAgendaViewRule?pubId=202404&amp;RIN=2060-AV54&amp;operation=OPERATION_EXPORT_XML")
	assert.Contains(t, body,
		"https://www.reginfo.gov/public/do/eAgendaViewRule?pubId=202410&amp;RIN=2060-AV54&amp;operation=OPERATION_EXPORT_XML")
}

func TestRenderStampsDetectionTime(t *testing.T) {
	n := testEmailNotifier(t)

	older := firstSeenReport()
	older.DetectedAt = time.Date(2024, 10, 7, 14, 29, 58, 0, time.UTC)

	body, err := n.render([]types.ChangeReport{older, changedReport()})
	require.NoError(t, err)

	// The newest detection time in the batch, not the render time.
	assert.Contains(t, body, "2024-10-07 14:30:00 UTC")
}

func TestRenderWithCustomTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.html")
	require.NoError(t, os.WriteFile(path,
		[]byte(`<p>{{range .Reports}}{{.RIN}} changed at {{formatTime $.Timestamp}}{{end}}</p>`), 0644))

	n, err := NewEmailNotifier(&config.EmailConfig{
		Enabled:      true,
		SMTPServer:   "smtp.example.com",
		From:         "monitor@example.com",
		To:           []string{"admin@example.com"},
		TemplateFile: path,
	}, "https://www.reginfo.gov", zaptest.NewLogger(t))
	require.NoError(t, err)

	body, err := n.render([]types.ChangeReport{changedReport()})
	require.NoError(t, err)
	assert.Equal(t, "<p>2060-AV54 changed at 2024-10-07 14:30:00 UTC</p>", body)
}

func TestNewEmailNotifierBadTemplateFile(t *testing.T) {
	_, err := NewEmailNotifier(&config.EmailConfig{
		Enabled:      true,
		TemplateFile: filepath.Join(t.TempDir(), "missing.html"),
	}, "", zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestRenderFirstSeenReport(t *testing.T) {
	n := testEmailNotifier(t)

	body, err := n.render([]types.ChangeReport{firstSeenReport()})
	require.NoError(t, err)

	assert.Contains(t, body, "RIN 0910-AI39")
	assert.Contains(t, body, "First time this RIN was seen")
	assert.Contains(t, body, "publication 202410")
	assert.NotContains(t, body, "Previous XML")
}

func TestRenderBatchesReportsInOrder(t *testing.T) {
	n := testEmailNotifier(t)

	body, err := n.render([]types.ChangeReport{changedReport(), firstSeenReport()})
	require.NoError(t, err)

	first := strings.Index(body, "RIN 2060-AV54")
	second := strings.Index(body, "RIN 0910-AI39")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestBuildEmailMessage(t *testing.T) {
	msg := string(buildEmailMessage(
		"RegInfo Monitor <monitor@example.com>",
		[]string{"Admin <admin@example.com>", "ops@example.com"},
		"RegInfo Monitor: 2 notable change(s)",
		"<html><body>hi</body></html>"))

	head, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)

	lines := strings.Split(head, "\r\n")
	assert.Equal(t, "From: monitor@example.com", lines[0])
	assert.Equal(t, "To: admin@example.com, ops@example.com", lines[1])
	assert.Equal(t, "Subject: RegInfo Monitor: 2 notable change(s)", lines[2])
	assert.Contains(t, head, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, body, "<html><body>hi</body></html>")
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(nil, []types.ChangeReport{changedReport()}))
}
