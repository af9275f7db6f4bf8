package batchfile

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/fraud"
)

const jsonRecord = `{"name":"Jane Smith","email":"jane@acmewidgets.com","local_time":"09:00","network_time":"09:00","item_urls":["https://acmewidgets.com"]}`

func TestDecode_JSON(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		items, err := Decode(strings.NewReader("["+jsonRecord+", 42, "+jsonRecord+"]"), FormatJSON)
		require.NoError(t, err)
		require.Len(t, items, 3)

		assert.Equal(t, 1, items[0].RowID)
		require.NotNil(t, items[0].Record)
		assert.Equal(t, "Jane Smith", items[0].Record.Name)

		assert.Nil(t, items[1].Record)
		assert.True(t, errors.IsType(items[1].Err, errors.ErrorTypeValidation))
		assert.Equal(t, 3, items[2].RowID)
	})

	t.Run("single object", func(t *testing.T) {
		items, err := Decode(strings.NewReader("\n  "+jsonRecord+"\n"), FormatJSON)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.NoError(t, items[0].Err)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`"text"`), FormatJSON)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("malformed array", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"name":`), FormatJSON)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestDecode_JSONL(t *testing.T) {
	input := jsonRecord + "\n\n{broken\n" + jsonRecord
	items, err := Decode(strings.NewReader(input), FormatJSONL)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
	assert.Equal(t, 2, items[1].RowID)
	assert.NoError(t, items[2].Err)
	assert.Equal(t, 3, items[2].RowID)
}

func TestDecode_CSV(t *testing.T) {
	input := "\ufeffname,email,local_time,network_time,item_urls,ip_addresses,ml_score\n" +
		"Jane Smith,jane@acmewidgets.com,09:00,09:00,https://acmewidgets.com|https://acmewidgets.com/shop,203.0.113.7,12\n" +
		"Bad Score,bad@example.com,09:00,09:00,,,high\n" +
		"Short Row,short@example.com\n"

	items, err := Decode(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	require.NoError(t, first.Err)
	assert.Equal(t, "Jane Smith", first.Record.Name)
	assert.Equal(t, []string{"https://acmewidgets.com", "https://acmewidgets.com/shop"}, first.Record.ItemURLs)
	assert.Equal(t, []string{"203.0.113.7"}, first.Record.IPAddresses)
	require.NotNil(t, first.Record.MLScore)
	assert.Equal(t, 12.0, *first.Record.MLScore)
	assert.Equal(t, "Jane Smith", first.Raw["name"])

	assert.True(t, errors.IsType(items[1].Err, errors.ErrorTypeValidation))
	assert.Equal(t, "Bad Score", items[1].Raw["name"])

	require.NoError(t, items[2].Err)
	assert.Equal(t, "short@example.com", items[2].Record.Email)
	assert.Empty(t, items[2].Record.LocalTime)
}

func TestDecode_EmptyCSV(t *testing.T) {
	items, err := Decode(strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadAccounts(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ReadAccounts(filepath.Join(dir, "accounts.xml"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadAccounts(filepath.Join(dir, "absent.json"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("extension is case-insensitive", func(t *testing.T) {
		path := filepath.Join(dir, "accounts.JSONL")
		require.NoError(t, os.WriteFile(path, []byte(jsonRecord+"\n"), 0o644))

		items, err := ReadAccounts(path)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestWriteQueue(t *testing.T) {
	score := 12.0
	rows := []fraud.BatchRow{
		{
			RowID:  1,
			Record: &account.Record{Name: "Jane Smith", Email: "jane@acmewidgets.com", CompanyName: "Acme Widgets", MLScore: &score},
			Result: &fraud.Result{
				Verdict:         review.VerdictApprove,
				ConfidenceScore: 85,
				Confidence:      review.ConfidenceHigh,
				Tags:            []string{"APPROVE", "LOW_SIGNAL"},
				FinalReason:     "Clean profile",
			},
		},
		{
			RowID: 2,
			Raw:   map[string]string{"name": "Bad Score", "email": "bad@example.com", "ml_score": "high"},
			Err:   errors.NewValidationError("ml_score", "ml_score must be a number"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteQueue(&buf, rows))

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, QueueColumns, lines[0])
	assert.Equal(t, []string{"1", "Jane Smith", "jane@acmewidgets.com", "Acme Widgets", "12",
		"Approve", "85", "high", "APPROVE|LOW_SIGNAL", "Clean profile", ""}, lines[1])
	assert.Equal(t, "2", lines[2][0])
	assert.Equal(t, "Bad Score", lines[2][1])
	assert.Equal(t, "high", lines[2][4])
	assert.Empty(t, lines[2][5])
	assert.Contains(t, lines[2][10], "ml_score must be a number")
}

func TestWriteQueueFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "queue.csv")
	require.NoError(t, WriteQueueFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(QueueColumns, ",")+"\n", string(data))
}
