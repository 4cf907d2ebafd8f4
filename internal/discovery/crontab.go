package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/model"
)

// ErrUnsafePath is returned when a scan target contains a ".." path segment.
var ErrUnsafePath = errors.New("path contains a '..' segment")

// userCrontabTimeout bounds the `crontab -l` subprocess.
const userCrontabTimeout = 10 * time.Second

// Scanner discovers cron jobs from crontab files and the invoking user's
// crontab. Command strings are redacted before they leave the scanner.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a new scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		logger: logger.Named("discovery"),
	}
}

// ParseCrontab parses crontab text into job records. System format carries a
// user column between the schedule and the command; user format does not.
// Comments, blank lines, and environment assignments are skipped.
func ParseCrontab(text, source string, system bool) []model.JobRecord {
	var jobs []model.JobRecord
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// SHELL=/bin/bash, MAILTO=... and friends. A schedule field never
		// contains '='.
		if first := strings.Fields(line); strings.Contains(first[0], "=") {
			continue
		}

		if strings.HasPrefix(line, "@") {
			if job, ok := parseMacroLine(line, source, system); ok {
				jobs = append(jobs, job)
			}
			continue
		}

		need := 6
		if system {
			need = 7
		}
		parts := splitTokens(line, need)
		if len(parts) < need {
			continue
		}

		job := model.JobRecord{
			Source:   source,
			Schedule: strings.Join(parts[:5], " "),
			Command:  Redact(parts[need-1]),
		}
		if system {
			job.User = parts[5]
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// parseMacroLine handles @reboot/@daily style lines, where the whole schedule
// is a single token.
func parseMacroLine(line, source string, system bool) (model.JobRecord, bool) {
	need := 2
	if system {
		need = 3
	}
	parts := splitTokens(line, need)
	if len(parts) < need {
		return model.JobRecord{}, false
	}

	job := model.JobRecord{
		Source:   source,
		Schedule: parts[0],
		Command:  Redact(parts[need-1]),
	}
	if system {
		job.User = parts[1]
	}
	return job, true
}

// splitTokens splits on whitespace into at most n tokens, leaving the
// remainder intact in the final token so command strings keep their internal
// spacing.
func splitTokens(s string, n int) []string {
	var tokens []string
	rest := strings.TrimSpace(s)
	for len(tokens) < n-1 && rest != "" {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			break
		}
		tokens = append(tokens, rest[:idx])
		rest = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)
	}
	if rest != "" {
		tokens = append(tokens, rest)
	}
	return tokens
}

// ScanFile reads and parses one crontab file. Paths containing a ".." segment
// are rejected, and read failures propagate; both are fatal to the scan.
func (s *Scanner) ScanFile(path string, system bool) ([]model.JobRecord, error) {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if segment == ".." {
			return nil, fmt.Errorf("%w: %s", ErrUnsafePath, path)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crontab %s: %w", path, err)
	}

	jobs := ParseCrontab(string(data), abs, system)
	s.logger.Info("Scanned crontab file",
		zap.String("path", abs),
		zap.Bool("system", system),
		zap.Int("jobs", len(jobs)))
	return jobs, nil
}

// ScanUserCrontab lists the invoking user's crontab via `crontab -l`. A
// missing crontab is an empty result, not an error.
func (s *Scanner) ScanUserCrontab(ctx context.Context) ([]model.JobRecord, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, userCrontabTimeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, "crontab", "-l").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(string(exitErr.Stderr), "no crontab") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list user crontab: %w", err)
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "?"
	}

	jobs := ParseCrontab(string(output), "user:"+user, false)
	s.logger.Info("Scanned user crontab",
		zap.String("user", user),
		zap.Int("jobs", len(jobs)))
	return jobs, nil
}
