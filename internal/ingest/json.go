package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"lendscore/internal/domain"
)

// ReadJSON parses a ledger export from r. Both a top-level JSON array and
// newline-delimited JSON objects are accepted. Rows that are not valid JSON
// objects are skipped; valid rows are never rejected for missing fields.
func ReadJSON(r io.Reader) ([]*domain.Transaction, error) {
	br := bufio.NewReader(r)

	first, err := firstNonSpaceByte(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if first == '[' {
		return readJSONArray(br)
	}
	return readJSONLines(br)
}

func firstNonSpaceByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

func readJSONArray(r io.Reader) ([]*domain.Transaction, error) {
	dec := json.NewDecoder(r)

	// Consume opening bracket, then stream elements one by one; full-array
	// decoding would hold two copies of a large ledger in memory.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read ledger array: %w", err)
	}

	var txs []*domain.Transaction
	for dec.More() {
		var raw rawRecord
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode ledger entry %d: %w", len(txs), err)
		}
		txs = append(txs, raw.toTransaction())
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read ledger array close: %w", err)
	}
	return txs, nil
}

func readJSONLines(r io.Reader) ([]*domain.Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var txs []*domain.Transaction
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw rawRecord
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			// Malformed line, skip rather than abort the whole export.
			continue
		}
		txs = append(txs, raw.toTransaction())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger lines: %w", err)
	}
	return txs, nil
}
