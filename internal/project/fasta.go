package project

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FastaRecord is one sequence record. ID is the first whitespace-separated
// token of the header line.
type FastaRecord struct {
	ID  string
	Seq string
}

// ReadFasta parses a FASTA file, preserving record order.
func ReadFasta(filePath string) ([]FastaRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []FastaRecord
	var current *FastaRecord
	var seq strings.Builder

	flush := func() {
		if current != nil {
			current.Seq = seq.String()
			records = append(records, *current)
			seq.Reset()
		}
	}

	scanner := bufio.NewScanner(file)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimSpace(line[1:])
			if header == "" {
				return nil, fmt.Errorf("%s:%d: empty FASTA header", filePath, lineNum)
			}
			id := strings.Fields(header)[0]
			current = &FastaRecord{ID: id}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%s:%d: sequence data before first header", filePath, lineNum)
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return records, nil
}

// ReadIDFile reads a newline-separated list of IDs. Blank lines and lines
// starting with "#" are skipped.
func ReadIDFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
