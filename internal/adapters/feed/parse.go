// Package feed reads score records from the colon-delimited line format or
// JSON, from files, stdin or a Kafka topic.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/graphboard/internal/domain/dedupe"
	"github.com/okian/graphboard/internal/domain/model"
)

const (
	lineFields    = 4
	maxLineBytes  = 1 << 20
	commentPrefix = "#"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Batch is the outcome of reading a feed.
type Batch struct {
	Records    []model.ScoreRecord
	Malformed  []*MalformedRecordError
	Duplicates int
}

func (b *Batch) add(rec model.ScoreRecord, seen dedupe.Deduper) {
	if seen.SeenAndRecord(context.Background(), recordKey(rec)) {
		b.Duplicates++
		return
	}
	b.Records = append(b.Records, rec)
}

func (b *Batch) merge(other Batch) {
	b.Records = append(b.Records, other.Records...)
	b.Malformed = append(b.Malformed, other.Malformed...)
	b.Duplicates += other.Duplicates
}

// recordKey identifies an exact repeat of a record.
func recordKey(r model.ScoreRecord) string {
	return strings.Join([]string{
		r.Team,
		strconv.FormatFloat(r.ChallengeAcc, 'g', -1, 64),
		strconv.FormatFloat(r.OriginalAcc, 'g', -1, 64),
		strconv.FormatFloat(r.Gap, 'g', -1, 64),
	}, ":")
}

// ParseLine parses "team:challenge_acc:original_acc:gap".
func ParseLine(line string) (model.ScoreRecord, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) != lineFields {
		return model.ScoreRecord{}, &MalformedRecordError{
			Raw:    line,
			Reason: fmt.Sprintf("expected %d fields, got %d", lineFields, len(parts)),
		}
	}

	var vals [3]float64
	names := [3]string{"challenge_acc", "original_acc", "gap"}
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return model.ScoreRecord{}, &MalformedRecordError{
				Raw:    line,
				Reason: fmt.Sprintf("%s is not a number", names[i]),
				Err:    err,
			}
		}
		vals[i] = v
	}

	rec := model.ScoreRecord{
		Team:         strings.TrimSpace(parts[0]),
		ChallengeAcc: vals[0],
		OriginalAcc:  vals[1],
		Gap:          vals[2],
	}
	if err := check(rec, line); err != nil {
		return model.ScoreRecord{}, err
	}
	return rec, nil
}

// jsonRecord accepts both "gap" and the evaluator's "accuracy_gap".
type jsonRecord struct {
	Team         string   `json:"team"`
	ChallengeAcc *float64 `json:"challenge_acc"`
	OriginalAcc  *float64 `json:"original_acc"`
	Gap          *float64 `json:"gap"`
	AccuracyGap  *float64 `json:"accuracy_gap"`
}

// ParseJSON parses one JSON score object. A missing gap is derived from the
// accuracies.
func ParseJSON(raw []byte) (model.ScoreRecord, error) {
	var jr jsonRecord
	if err := json.Unmarshal(raw, &jr); err != nil {
		return model.ScoreRecord{}, &MalformedRecordError{Raw: string(raw), Reason: "invalid JSON", Err: err}
	}
	if jr.ChallengeAcc == nil || jr.OriginalAcc == nil {
		return model.ScoreRecord{}, &MalformedRecordError{Raw: string(raw), Reason: "challenge_acc and original_acc are required"}
	}

	rec := model.ScoreRecord{
		Team:         strings.TrimSpace(jr.Team),
		ChallengeAcc: *jr.ChallengeAcc,
		OriginalAcc:  *jr.OriginalAcc,
	}
	switch {
	case jr.Gap != nil:
		rec.Gap = *jr.Gap
	case jr.AccuracyGap != nil:
		rec.Gap = *jr.AccuracyGap
	default:
		rec.Gap = rec.ChallengeAcc - rec.OriginalAcc
		if rec.Gap < 0 {
			rec.Gap = -rec.Gap
		}
	}
	if err := check(rec, string(raw)); err != nil {
		return model.ScoreRecord{}, err
	}
	return rec, nil
}

// check applies the field constraints declared on model.ScoreRecord.
func check(rec model.ScoreRecord, raw string) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return &MalformedRecordError{Raw: raw, Reason: reason}
	}
	return &MalformedRecordError{Raw: raw, Reason: "validation failed", Err: err}
}

// Decode reads a whole feed. Each line is either a colon record or a JSON
// object; a feed whose first non-space byte is '[' is read as one JSON array.
// Blank lines and lines starting with '#' are ignored. Malformed records are
// collected in the batch rather than returned as errors; only I/O failures
// abort.
func Decode(r io.Reader) (Batch, error) {
	return decode(r, "feed", dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0)))
}

func decode(r io.Reader, origin string, seen dedupe.Deduper) (Batch, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Batch{}, nil
		}
		return Batch{}, fmt.Errorf("read %s: %w", origin, err)
	}
	if first == '[' {
		return decodeArray(br, origin, seen)
	}
	return decodeLines(br, origin, seen)
}

// peekNonSpace returns the first non-whitespace byte without consuming
// input, so line numbers stay accurate.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for n := 1; ; n++ {
		buf, err := br.Peek(n)
		if len(buf) < n {
			if errors.Is(err, bufio.ErrBufferFull) {
				return 0, nil
			}
			if err == nil {
				err = io.EOF
			}
			return 0, err
		}
		switch c := buf[n-1]; c {
		case ' ', '\t', '\r', '\n':
		default:
			return c, nil
		}
	}
}

func decodeLines(r io.Reader, origin string, seen dedupe.Deduper) (Batch, error) {
	var b Batch
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		var (
			rec model.ScoreRecord
			err error
		)
		if strings.HasPrefix(line, "{") {
			rec, err = ParseJSON([]byte(line))
		} else {
			rec, err = ParseLine(line)
		}
		if err != nil {
			b.Malformed = append(b.Malformed, locate(err, origin, lineNo, line))
			continue
		}
		b.add(rec, seen)
	}
	if err := sc.Err(); err != nil {
		return b, fmt.Errorf("read %s: %w", origin, err)
	}
	return b, nil
}

func decodeArray(r io.Reader, origin string, seen dedupe.Deduper) (Batch, error) {
	var b Batch
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		// A broken array is one malformed record, not an I/O failure.
		b.Malformed = append(b.Malformed, &MalformedRecordError{
			Origin: origin, Line: 1, Reason: "invalid JSON array", Err: err,
		})
		return b, nil
	}
	for i, raw := range items {
		rec, err := ParseJSON(bytes.TrimSpace(raw))
		if err != nil {
			b.Malformed = append(b.Malformed, locate(err, origin, i+1, string(raw)))
			continue
		}
		b.add(rec, seen)
	}
	return b, nil
}

func locate(err error, origin string, line int, raw string) *MalformedRecordError {
	var me *MalformedRecordError
	if !errors.As(err, &me) {
		me = &MalformedRecordError{Reason: "unparsable", Err: err}
	}
	me.Origin = origin
	me.Line = line
	if me.Raw == "" {
		me.Raw = raw
	}
	return me
}
