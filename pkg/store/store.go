// Package store owns every file the scanner reads or writes: per-symbol
// strike catalogs, the per-expiry resume cursor, the growing rate log,
// and the dated snapshot copies. All writes are appends except the
// cursor, which is a single overwritten integer.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// File names are part of the on-disk contract shared with the operator
// tooling that predates this scanner; do not rename.
const (
	indexFileName   = "索引.txt"
	rateFilePrefix  = "期权利率_"
	snapshotDirName = "利率"
)

type ResultStore struct {
	root   string
	logger *logrus.Logger
	now    func() time.Time
}

func NewResultStore(root string, logger *logrus.Logger) *ResultStore {
	return &ResultStore{root: root, logger: logger, now: time.Now}
}

func (s *ResultStore) expiryDir(expiry string) string {
	return filepath.Join(s.root, expiry)
}

func (s *ResultStore) rateFile(expiry string) string {
	return filepath.Join(s.root, rateFilePrefix+expiry+".txt")
}

func (s *ResultStore) snapshotFile(expiry string) string {
	day := s.now().Format("20060102")
	return filepath.Join(s.root, snapshotDirName, expiry, expiry+"_"+day+".txt")
}

func (s *ResultStore) strikeFile(expiry, symbol string) string {
	return filepath.Join(s.root, expiry, symbol+".txt")
}

// EnsureExpiryDirs creates the per-expiry directory tree and the rate
// log so appends never race directory creation mid-run.
func (s *ResultStore) EnsureExpiryDirs(expiry string) error {
	if err := os.MkdirAll(s.expiryDir(expiry), 0o755); err != nil {
		return fmt.Errorf("failed to create expiry dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.root, snapshotDirName, expiry), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	f, err := os.OpenFile(s.rateFile(expiry), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create rate file: %w", err)
	}
	return f.Close()
}

// AppendRate writes one result line to the growing per-expiry log and to
// today's snapshot. Rate is rendered with exactly two decimals; the
// strike keeps its shortest representation.
func (s *ResultStore) AppendRate(expiry, symbol string, strike, rate float64) error {
	line := fmt.Sprintf("%s,%s,%s\n",
		symbol,
		strconv.FormatFloat(strike, 'g', -1, 64),
		decimal.NewFromFloat(rate).StringFixed(2))

	if err := appendLine(s.rateFile(expiry), line); err != nil {
		return fmt.Errorf("failed to append rate: %w", err)
	}
	if err := appendLine(s.snapshotFile(expiry), line); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

// ReadIndex returns the resume cursor for an expiry: how many symbols of
// the universe have been catalogued. Missing or unreadable files count
// as zero, not as errors.
func (s *ResultStore) ReadIndex(expiry string) int {
	data, err := os.ReadFile(filepath.Join(s.expiryDir(expiry), indexFileName))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		s.logger.WithField("expiry", expiry).Warn("Unreadable resume cursor, starting from zero")
		return 0
	}
	return n
}

// WriteIndex overwrites the resume cursor. Cursor values only ever move
// forward during a run; the caller passes symbolIndex+1.
func (s *ResultStore) WriteIndex(expiry string, n int) error {
	path := filepath.Join(s.expiryDir(expiry), indexFileName)
	if err := os.WriteFile(path, []byte(strconv.Itoa(n)), 0o644); err != nil {
		return fmt.Errorf("failed to write resume cursor: %w", err)
	}
	return nil
}

// EnsureStrikeFile creates an empty per-symbol strike file if absent, so
// a symbol with no listed puts still shows up as "catalogued, empty".
func (s *ResultStore) EnsureStrikeFile(expiry, symbol string) error {
	f, err := os.OpenFile(s.strikeFile(expiry, symbol), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create strike file: %w", err)
	}
	return f.Close()
}

// AppendStrike records one discovered put strike for (expiry, symbol).
func (s *ResultStore) AppendStrike(expiry, symbol string, strike float64) error {
	line := strconv.FormatFloat(strike, 'g', -1, 64) + "\n"
	if err := appendLine(s.strikeFile(expiry, symbol), line); err != nil {
		return fmt.Errorf("failed to append strike: %w", err)
	}
	return nil
}

// ReadStrikes loads the catalogued strikes for (expiry, symbol), sorted
// ascending. A missing file means no data, not an error; unparseable
// lines are skipped.
func (s *ResultStore) ReadStrikes(expiry, symbol string) ([]float64, error) {
	f, err := os.Open(s.strikeFile(expiry, symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open strike file: %w", err)
	}
	defer f.Close()

	var strikes []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		strikes = append(strikes, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read strike file: %w", err)
	}
	sort.Float64s(strikes)
	return strikes, nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
