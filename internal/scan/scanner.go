package scan

import "rowstore/internal/store"

// Scanner iterates the rows of a chain of ScanControllers, applying
// each controller's RowEvaluator and stopping early when the
// evaluator reports its stop column failed.
type Scanner struct {
	txn     store.Transaction
	current *ScanController
	cur     store.Cursor
	args    []any

	row     map[string]any
	err     error
	stopped bool
}

// NewScanner starts a scanner over the first controller in the chain.
func NewScanner(first *ScanController, txn store.Transaction, args []any) *Scanner {
	return &Scanner{current: first, txn: txn, args: args}
}

// Next advances to the next matching row, returning false when the
// scan is exhausted, stopped via the stop-column shortcut, or failed
// (check Err in that case).
func (s *Scanner) Next() bool {
	for {
		if s.stopped || s.err != nil {
			return false
		}
		if s.current == nil {
			return false
		}
		if s.cur == nil {
			cur, err := s.current.NewCursor(s.txn)
			if err != nil {
				s.err = err
				return false
			}
			s.cur = cur
		}

		key := s.cur.Key()
		if key == nil || s.current.outOfRange(key) {
			s.current = s.current.Next
			s.cur = nil
			continue
		}
		value := s.cur.Value()

		s.current.Evaluator.Bind(key, value, s.args)
		pass, stopped, err := s.current.Evaluator.Evaluate()
		if err != nil {
			s.err = err
			return false
		}
		if stopped {
			s.stopped = true
			return false
		}

		if advanceErr := s.advance(); advanceErr != nil {
			s.err = advanceErr
			return false
		}

		if pass {
			row, err := s.current.Evaluator.Row()
			if err != nil {
				s.err = err
				return false
			}
			s.row = row
			return true
		}
	}
}

func (s *Scanner) advance() error {
	if s.current.Reverse {
		return s.cur.Prev()
	}
	return s.cur.Next()
}

// Row returns the most recently yielded row.
func (s *Scanner) Row() map[string]any { return s.row }

// Err returns the first error encountered, if any.
func (s *Scanner) Err() error { return s.err }

// Stopped reports whether the scan ended via the stop-column shortcut
// rather than exhaustion (spec.md §8, law 8).
func (s *Scanner) Stopped() bool { return s.stopped }
