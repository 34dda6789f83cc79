package ldns

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
)

// HostsLoader provides the lines of a hosts file.
type HostsLoader interface {
	Load() ([]string, error)
}

// DefaultHostsFile returns the location of the system's hosts file.
func DefaultHostsFile() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// FileLoader reads hosts entries from a local file.
type FileLoader struct {
	filename string
}

var _ HostsLoader = &FileLoader{}

func NewFileLoader(filename string) *FileLoader {
	return &FileLoader{filename}
}

func (l *FileLoader) Load() ([]string, error) {
	log := Log.WithField("file", l.filename)
	log.Debug("loading hosts file")

	f, err := os.Open(l.filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.WithField("lines", len(lines)).Debug("completed loading hosts file")
	return lines, nil
}

// StaticLoader holds fixed hosts entries in memory.
type StaticLoader struct {
	lines []string
}

var _ HostsLoader = &StaticLoader{}

func NewStaticLoader(lines []string) *StaticLoader {
	return &StaticLoader{lines}
}

func (l *StaticLoader) Load() ([]string, error) {
	return l.lines, nil
}
