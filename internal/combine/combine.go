// Package combine concatenates downloaded price files into one CSV that
// keeps only the first file's header.
package combine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"
)

type Result struct {
	Output string
	Files  int
	Rows   int
}

// Dir combines every *.csv in dir in lexical order.
func Dir(dir, output string) (Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return Result{}, fmt.Errorf("error listing CSV files: %w", err)
	}
	slices.Sort(paths)
	return Files(paths, output)
}

// Files writes the header of the first non-empty file followed by the data
// rows of every file, in the given order.
func Files(paths []string, output string) (Result, error) {
	res := Result{Output: output}
	if len(paths) == 0 {
		return res, errors.New("no CSV files to combine")
	}
	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".part*")
	if err != nil {
		return res, fmt.Errorf("error creating output file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	headerWritten := false
	for _, path := range paths {
		rows, wroteHeader, err := appendFile(w, path, !headerWritten)
		if err != nil {
			tmp.Close()
			return res, err
		}
		if rows == 0 && !wroteHeader {
			log.Debug().Str("op", "combine").Msgf("Skipping empty file %s", path)
			continue
		}
		headerWritten = headerWritten || wroteHeader
		res.Files++
		res.Rows += rows
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return res, fmt.Errorf("error writing output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("error closing output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return res, fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, output); err != nil {
		return res, fmt.Errorf("error renaming (finalizing) output file: %w", err)
	}
	log.Info().Str("op", "combine").Msgf("Combined %d files (%d rows) into %s", res.Files, res.Rows, output)
	return res, nil
}

// appendFile copies one file, writing its first line only when withHeader is
// set. It returns the number of data rows copied.
func appendFile(w *bufio.Writer, path string, withHeader bool) (int, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	rows := 0
	wroteHeader := false
	for lineNo := 0; ; lineNo++ {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if line[len(line)-1] != '\n' {
				line += "\n"
			}
			switch {
			case lineNo > 0:
				rows++
				if _, werr := w.WriteString(line); werr != nil {
					return rows, wroteHeader, fmt.Errorf("error writing output file: %w", werr)
				}
			case withHeader:
				wroteHeader = true
				if _, werr := w.WriteString(line); werr != nil {
					return rows, wroteHeader, fmt.Errorf("error writing output file: %w", werr)
				}
			}
		}
		if err == io.EOF {
			return rows, wroteHeader, nil
		}
		if err != nil {
			return rows, wroteHeader, fmt.Errorf("error reading %s: %w", path, err)
		}
	}
}
