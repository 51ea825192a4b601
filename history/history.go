// Package history reads the tail of the user's shell history file.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ResolvePath picks the most recently modified history file among
// $HISTFILE, ~/.zsh_history and ~/.bash_history. It returns "" when none
// exists.
func ResolvePath() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, ".zsh_history"),
		filepath.Join(home, ".bash_history"),
	}

	if hf := os.Getenv("HISTFILE"); hf != "" {
		candidates = append([]string{hf}, candidates...)
	}

	var bestPath string
	var bestTime time.Time

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(bestTime) {
			bestTime = info.ModTime()
			bestPath = path
		}
	}

	return bestPath
}

// Recent returns the last n commands recorded in the history file at path,
// oldest first. A missing file or empty path yields no commands.
func Recent(path string, n int) ([]string, error) {
	if path == "" || n <= 0 {
		return nil, nil
	}
	lines, err := readLastLines(path, n)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	cmds := make([]string, 0, len(lines))
	for _, line := range lines {
		if cmd := parseLine(line); cmd != "" {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) > n {
		cmds = cmds[len(cmds)-n:]
	}
	return cmds, nil
}

// parseLine strips shell-specific prefixes from a history line.
// Zsh extended history format: ": 1234567890:0;actual command"
// Bash format: just the command. Bash timestamp comments ("#1700000000")
// and zsh continuation lines are skipped.
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if strings.HasPrefix(line, ": ") {
		if idx := strings.Index(line, ";"); idx != -1 {
			line = strings.TrimSpace(line[idx+1:])
		}
	} else if strings.HasPrefix(line, "#") {
		return ""
	}
	if strings.HasSuffix(line, "\\") {
		return ""
	}
	return line
}

func readLastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// Estimate 100 bytes per line; fall back to a full read when short.
	estimatedBytes := int64(n) * 100
	if estimatedBytes < info.Size() {
		if _, err := f.Seek(-estimatedBytes, io.SeekEnd); err == nil {
			reader := bufio.NewReader(f)
			// Skip partial first line
			reader.ReadString('\n')
			lines, err := scanLines(reader)
			if err != nil {
				return nil, err
			}
			if len(lines) >= n {
				return lines[len(lines)-n:], nil
			}
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	lines, err := scanLines(f)
	if err != nil {
		return nil, err
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
