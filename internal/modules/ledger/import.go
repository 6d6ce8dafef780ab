package ledger

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight/finsight/internal/database"
	"github.com/finsight/finsight/internal/domain"
)

// ImportError describes one rejected statement line
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a statement import
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// statementDateLayouts are the date formats accepted in bank statement exports
var statementDateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006", "02.01.2006"}

// ImportStatement parses a bank-statement CSV (date, description, amount,
// optional category) and records each line as a bill. The amount sign decides
// income vs expense. Bad lines are reported per line and skipped; all valid
// lines are inserted in one transaction.
func (s *Service) ImportStatement(userID string, reader io.Reader) (*ImportResult, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	result := &ImportResult{}
	var bills []Bill

	line := 0
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: line, Reason: fmt.Sprintf("malformed CSV: %v", err)})
			continue
		}

		// Tolerate a header row in first position
		if line == 1 && looksLikeHeader(record) {
			continue
		}

		bill, err := parseStatementLine(record)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: line, Reason: err.Error()})
			continue
		}
		bill.UserID = userID
		bills = append(bills, bill)
	}

	if len(bills) > 0 {
		err := database.WithTransaction(s.repo.db, func(tx *sql.Tx) error {
			for i := range bills {
				if err := s.repo.InsertTx(tx, &bills[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store imported bills: %w", err)
		}
	}

	result.Imported = len(bills)

	s.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Statement import finished")

	return result, nil
}

func looksLikeHeader(record []string) bool {
	if len(record) < 3 {
		return false
	}
	// A header's amount column carries no digits
	return !strings.ContainsAny(record[2], "0123456789")
}

func parseStatementLine(record []string) (Bill, error) {
	if len(record) < 3 {
		return Bill{}, fmt.Errorf("expected at least 3 columns (date, description, amount), got %d", len(record))
	}

	date, err := parseStatementDate(strings.TrimSpace(record[0]))
	if err != nil {
		return Bill{}, err
	}

	description := strings.TrimSpace(record[1])

	amountStr := strings.TrimSpace(record[2])
	// Strip thousands separators and stray spaces before exact parsing
	amountStr = strings.ReplaceAll(amountStr, ",", "")
	amountStr = strings.ReplaceAll(amountStr, " ", "")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Bill{}, fmt.Errorf("unparseable amount %q", record[2])
	}
	if amount.IsZero() {
		return Bill{}, fmt.Errorf("zero amount")
	}

	billType := domain.BillTypeIncome
	if amount.IsNegative() {
		billType = domain.BillTypeExpense
	}

	category := "other"
	if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
		category = strings.TrimSpace(record[3])
		if !domain.ValidBillCategory(billType, category) {
			return Bill{}, fmt.Errorf("category %q is not valid for %s bills", category, billType)
		}
	}

	return Bill{
		Type:        billType,
		Category:    category,
		Amount:      amount.Abs().Round(2).InexactFloat64(),
		Description: description,
		Date:        date,
	}, nil
}

func parseStatementDate(s string) (string, error) {
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", s)
}
