package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	if len(v.Problems) == 1 {
		return v.Problems[0]
	}
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

// ParseWildcard accepts exactly one character. Anything else is reported as
// a *ValidationError so callers can present it like any config problem.
func ParseWildcard(token string) (rune, error) {
	r, err := parseWildcard(token)
	if err != nil {
		v := &ValidationError{}
		v.Add("wildcard %q invalid: %v", token, err)
		return 0, v
	}
	return r, nil
}

func parseWildcard(token string) (rune, error) {
	if token == "" {
		return 0, errors.New("must be a single character, got none")
	}
	if !utf8.ValidString(token) {
		return 0, errors.New("must be valid UTF-8")
	}
	if n := utf8.RuneCountInString(token); n != 1 {
		return 0, fmt.Errorf("must be a single character, got %d", n)
	}
	r, _ := utf8.DecodeRuneInString(token)
	return r, nil
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if err := validateListen(c.Server.Listen); err != nil {
		v.Add("server.listen invalid: %v", err)
	}

	if c.Metrics.Enabled {
		if err := validateListen(c.Metrics.Listen); err != nil {
			v.Add("metrics.listen invalid: %v", err)
		} else if c.Metrics.Listen == c.Server.Listen {
			v.Add("metrics.listen must differ from server.listen")
		}
	}

	if c.Limits.MaxBodyBytes <= 0 {
		v.Add("limits.maxBodyBytes must be > 0")
	}
	if c.Limits.MaxPatterns <= 0 {
		v.Add("limits.maxPatterns must be > 0")
	}
	if c.Limits.Timeout <= 0 {
		v.Add("limits.timeout must be > 0")
	}

	if _, err := parseWildcard(c.Wildcard.Symbol); err != nil {
		v.Add("wildcard.symbol invalid: %v", err)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			v.Add("rateLimit.rps must be > 0")
		}
		if c.RateLimit.Burst <= 0 {
			v.Add("rateLimit.burst must be > 0")
		}
		if c.RateLimit.StatusCode != 0 && (c.RateLimit.StatusCode < 400 || c.RateLimit.StatusCode > 599) {
			v.Add("rateLimit.statusCode must be a 4xx or 5xx code")
		}
	}

	for name, path := range map[string]string{
		"logging.requestLog": c.Logging.RequestLog,
		"logging.traceLog":   c.Logging.TraceLog,
	} {
		if path == "" || path == "-" {
			continue
		}
		if err := ensureWritable(c.resolvePath(path)); err != nil {
			v.Add("%s invalid: %v", name, err)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateListen(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return err
	}
	return nil
}

func ensureWritable(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	file, err := os.CreateTemp(dir, "caaa-validate-*")
	if err != nil {
		return err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
