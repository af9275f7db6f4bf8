// Package batchfile reads account batches and writes the reviewer queue.
package batchfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/fraud"
)

// Input formats, selected by file extension.
const (
	FormatJSON  = ".json"
	FormatJSONL = ".jsonl"
	FormatCSV   = ".csv"
)

// QueueColumns is the header of the reviewer queue.
var QueueColumns = []string{
	"row_id",
	"name",
	"email",
	"company_name",
	"ml_score",
	"verdict",
	"confidence_score",
	"confidence_level",
	"tags",
	"final_reason",
	"error",
}

// ReadAccounts opens path and decodes it by extension. A row that cannot be
// decoded becomes an item carrying the error so the rest of the batch
// still runs. Row ids start at 1.
func ReadAccounts(path string) ([]fraud.BatchItem, error) {
	format := strings.ToLower(filepath.Ext(path))
	switch format {
	case FormatJSON, FormatJSONL, FormatCSV:
	default:
		return nil, errors.NewValidationError("input", "supported input formats: .json, .jsonl, .csv")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewNotFoundError("input file").WithCause(err)
	}
	defer f.Close()

	return Decode(f, format)
}

// Decode reads accounts from r in the given format.
func Decode(r io.Reader, format string) ([]fraud.BatchItem, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatJSONL:
		return decodeJSONL(r)
	case FormatCSV:
		return decodeCSV(r)
	}
	return nil, errors.NewValidationError("format", fmt.Sprintf("unknown input format %q", format))
}

func decodeJSON(r io.Reader) ([]fraud.BatchItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewInternalError("failed to read input").WithCause(err)
	}
	data = bytes.TrimSpace(data)

	var raws []json.RawMessage
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, errors.NewValidationError("input", "JSON input must be an array of objects").WithCause(err)
		}
	case len(data) > 0 && data[0] == '{':
		raws = []json.RawMessage{data}
	default:
		return nil, errors.NewValidationError("input", "JSON input must be an object or array of objects")
	}

	items := make([]fraud.BatchItem, len(raws))
	for i, raw := range raws {
		items[i] = decodeRecord(i+1, raw)
	}
	return items, nil
}

func decodeJSONL(r io.Reader) ([]fraud.BatchItem, error) {
	var items []fraud.BatchItem
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			items = append(items, decodeRecord(len(items)+1, line))
		}
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, errors.NewInternalError("failed to read input").WithCause(err)
		}
	}
}

func decodeRecord(rowID int, raw []byte) fraud.BatchItem {
	var rec account.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fraud.BatchItem{
			RowID: rowID,
			Err:   errors.NewValidationError("record", "row is not a JSON account object").WithCause(err),
		}
	}
	return fraud.BatchItem{RowID: rowID, Record: &rec}
}

func decodeCSV(r io.Reader) ([]fraud.BatchItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewValidationError("input", "CSV header could not be read").WithCause(err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var items []fraud.BatchItem
	for {
		cols, err := reader.Read()
		if err == io.EOF {
			return items, nil
		}
		rowID := len(items) + 1
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				items = append(items, fraud.BatchItem{
					RowID: rowID,
					Err:   errors.NewValidationError("record", "row is not valid CSV").WithCause(err),
				})
				continue
			}
			return nil, errors.NewInternalError("failed to read input").WithCause(err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cols) {
				fields[name] = cols[i]
			}
		}

		item := fraud.BatchItem{RowID: rowID, Raw: fields}
		item.Record, item.Err = account.FromFields(fields)
		items = append(items, item)
	}
}

// WriteQueue writes the reviewer queue CSV, one line per row. Failed rows
// keep their identity columns and carry the error text.
func WriteQueue(w io.Writer, rows []fraud.BatchRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(QueueColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(queueLine(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteQueueFile writes the queue to path, creating parent directories.
func WriteQueueFile(path string, rows []fraud.BatchRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewInternalError("failed to create output directory").WithCause(err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInternalError("failed to create queue file").WithCause(err)
	}
	if err := WriteQueue(f, rows); err != nil {
		f.Close()
		return errors.NewInternalError("failed to write queue file").WithCause(err)
	}
	return f.Close()
}

func queueLine(row fraud.BatchRow) []string {
	line := make([]string, len(QueueColumns))
	line[0] = strconv.Itoa(row.RowID)

	if rec := row.Record; rec != nil {
		line[1], line[2], line[3] = rec.Name, rec.Email, rec.CompanyName
		if rec.MLScore != nil {
			line[4] = formatFloat(*rec.MLScore)
		}
	} else if raw := row.Raw; raw != nil {
		line[1], line[2], line[3], line[4] = raw["name"], raw["email"], raw["company_name"], raw["ml_score"]
	}

	if res := row.Result; res != nil {
		line[5] = string(res.Verdict)
		line[6] = formatFloat(res.ConfidenceScore)
		line[7] = string(res.Confidence)
		line[8] = strings.Join(res.Tags, account.ListSeparator)
		line[9] = res.FinalReason
	}
	if row.Err != nil {
		line[10] = row.Err.Error()
	}
	return line
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
