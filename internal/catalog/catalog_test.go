package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

var catalogIDs = []string{
	"academic-stress", "adhd-screener", "bai", "bdi-ii", "burnout", "cognitive", "erq",
	"gad-7", "ies-r", "isi", "mood-mdq", "personality-bfi10", "phq-4", "phq-9", "psqi",
	"pss-10", "pss-4", "rses", "sdq", "suicide-risk", "who-5",
}

const miniYAML = `
id: mini
title: Mini
questions:
  - {id: q1, index: 0, text: One}
  - {id: q2, index: 1, text: Two}
response_scale: {min: 0, max: 3}
scoring:
  method: sum
  bands:
    - {label: Low, min: 0, max: 2, severity: 0}
    - {label: High, min: 3, max: 6, severity: 1}
non_diagnostic_disclaimer: Not a diagnosis.
`

const miniJSON = `{
  "id": "mini-json",
  "title": "Mini JSON",
  "questions": [{"id": "q1", "index": 0, "text": "One"}],
  "response_scale": {"min": 0, "max": 1, "labels": {"0": "No", "1": "Yes"}},
  "scoring": {
    "method": "sum",
    "bands": [
      {"label": "Clear", "min": 0, "max": 0, "severity": 0},
      {"label": "Flagged", "min": 1, "max": 1, "severity": 1}
    ]
  },
  "non_diagnostic_disclaimer": "Not a diagnosis."
}`

func TestDefaultCatalog(t *testing.T) {
	instruments, err := Default()
	require.NoError(t, err)
	require.Len(t, instruments, len(catalogIDs))

	for i, inst := range instruments {
		assert.Equal(t, catalogIDs[i], inst.ID)
		assert.NotEmpty(t, inst.Title, inst.ID)
		assert.NotEmpty(t, inst.Disclaimer, inst.ID)
	}
}

func TestDefaultCatalogQuestionCounts(t *testing.T) {
	instruments, err := Default()
	require.NoError(t, err)

	expected := map[string]int{
		"phq-4": 4, "phq-9": 9, "gad-7": 7, "who-5": 5, "isi": 7, "bai": 21, "bdi-ii": 21,
		"pss-10": 10, "pss-4": 4, "rses": 10, "erq": 10, "academic-stress": 15,
		"adhd-screener": 18, "burnout": 22, "personality-bfi10": 10, "sdq": 25,
		"suicide-risk": 6, "mood-mdq": 15, "cognitive": 11, "psqi": 18, "ies-r": 22,
	}
	for _, inst := range instruments {
		assert.Equal(t, expected[inst.ID], inst.QuestionCount(), inst.ID)
	}
}

func TestDefaultCatalogReportsClean(t *testing.T) {
	instruments, err := Default()
	require.NoError(t, err)

	for _, inst := range instruments {
		report := Report(inst)
		for _, issue := range report.Issues {
			assert.NotEqual(t, IssueError, issue.Severity, "%s: %s %s", inst.ID, issue.Field, issue.Message)
			assert.NotEqual(t, IssueWarning, issue.Severity, "%s: %s %s", inst.ID, issue.Field, issue.Message)
		}
		assert.True(t, report.BandsCovered, inst.ID)
		assert.False(t, report.NeedsReview, inst.ID)
		assert.Equal(t, 1.0, report.Confidence, inst.ID)
	}
}

func TestRestrictedTermsHoldInCatalog(t *testing.T) {
	instruments, err := Default()
	require.NoError(t, err)

	restricted := map[string][]string{}
	for _, inst := range instruments {
		if len(inst.RestrictedTerms) > 0 {
			restricted[inst.ID] = inst.RestrictedTerms
		}
	}
	assert.Equal(t, []string{"suicide", "suicidal"}, restricted["suicide-risk"])
	assert.Equal(t, []string{"bipolar"}, restricted["mood-mdq"])
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a/mini.yaml":      {Data: []byte(miniYAML)},
		"b/mini-json.json": {Data: []byte(miniJSON)},
		"README.md":        {Data: []byte("not an instrument")},
	}

	instruments, err := LoadFS(fsys, "")
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	assert.Equal(t, "mini", instruments[0].ID)
	assert.Equal(t, "mini-json", instruments[1].ID)
	assert.Equal(t, "Yes", instruments[1].Scale.Labels[1])
}

func TestLoadFSErrors(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		fsys := fstest.MapFS{
			"one.yaml": {Data: []byte(miniYAML)},
			"two.yaml": {Data: []byte(miniYAML)},
		}
		_, err := LoadFS(fsys, "*.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already defined")
	})

	t.Run("misconfigured bands", func(t *testing.T) {
		broken := []byte(miniYAML + "\n")
		inst, err := Decode("mini.yaml", broken)
		require.NoError(t, err)
		inst.Scoring.Bands[1].Min = 4

		err = inst.Validate()
		require.Error(t, err)
		var ce *domain.ConfigError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		fsys := fstest.MapFS{"bad.yaml": {Data: []byte("id: [unterminated")}}
		_, err := LoadFS(fsys, "*.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse bad.yaml")
	})

	t.Run("no matches", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{}, "*.yaml")
		require.Error(t, err)
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "mini.yml"), []byte(miniYAML), 0o644))

	instruments, err := LoadDir(dir, DefaultPattern)
	require.NoError(t, err)
	require.Len(t, instruments, 1)
	assert.Equal(t, "mini", instruments[0].ID)

	_, err = LoadDir(filepath.Join(dir, "missing"), DefaultPattern)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	instruments, err := Load(domain.CatalogConfig{})
	require.NoError(t, err)
	assert.Len(t, instruments, len(catalogIDs))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mini.yaml"), []byte(miniYAML), 0o644))
	instruments, err = Load(domain.CatalogConfig{Dir: dir})
	require.NoError(t, err)
	require.Len(t, instruments, 1)
	assert.Equal(t, "mini", instruments[0].ID)

	_, err = Load(domain.CatalogConfig{Dir: dir, Pattern: "*.json"})
	assert.Error(t, err)
}

func TestReportFlagsGaps(t *testing.T) {
	inst, err := Decode("mini.yaml", []byte(miniYAML))
	require.NoError(t, err)
	inst.Disclaimer = ""
	inst.Questions[0].HighRisk = true
	inst.Scoring.Bands[1].Max = 5

	report := Report(inst)
	assert.True(t, report.NeedsReview)
	assert.False(t, report.BandsCovered)
	assert.Less(t, report.Confidence, 1.0)
	assert.Equal(t, 2, report.QuestionCount)
	assert.Equal(t, domain.Range{Min: 0, Max: 3}, report.ScaleRange)

	severities := map[IssueSeverity]int{}
	for _, issue := range report.Issues {
		severities[issue.Severity]++
	}
	assert.Equal(t, 1, severities[IssueError])
	assert.Equal(t, 2, severities[IssueWarning])
}
