package thesaurus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// WordNetFiles are the data files of a WordNet database directory.
var WordNetFiles = []string{"data.noun", "data.verb", "data.adj", "data.adv"}

const maxWordNetLine = 1 << 20

// Adjective lemmas may carry a syntactic marker: (a), (p) or (ip).
var adjectiveMarker = regexp.MustCompile(`\((?:a|p|ip)\)$`)

// IsWordNet reports whether path names a WordNet data file or a directory
// holding WordNet data files.
func IsWordNet(path string) bool {
	base := filepath.Base(path)
	for _, name := range WordNetFiles {
		if base == name {
			return true
		}
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadWordNet loads synsets from a single WordNet data file or from every
// data file found in a WordNet dict directory.
func ReadWordNet(path string) ([]Synset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordnet %q: %w", path, err)
	}
	if !info.IsDir() {
		return readWordNetFile(path)
	}

	var synsets []Synset
	found := 0
	for _, name := range WordNetFiles {
		file := filepath.Join(path, name)
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		loaded, err := readWordNetFile(file)
		if err != nil {
			return nil, err
		}
		found++
		synsets = append(synsets, loaded...)
	}
	if found == 0 {
		return nil, fmt.Errorf("reading wordnet %q: no data files (%s)", path, strings.Join(WordNetFiles, ", "))
	}
	return synsets, nil
}

func readWordNetFile(path string) ([]Synset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordnet %q: %w", path, err)
	}
	defer f.Close()

	synsets, err := ParseWordNet(f)
	if err != nil {
		return nil, fmt.Errorf("parsing wordnet %q: %w", path, err)
	}
	return synsets, nil
}

// ParseWordNet decodes a WordNet data file. License lines are skipped, and so
// are synsets with a single lemma since they add no synonyms.
func ParseWordNet(r io.Reader) ([]Synset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxWordNetLine)

	var synsets []Synset
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, " ") {
			continue
		}

		s, err := parseWordNetLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(s.Lemmas) > 1 {
			synsets = append(synsets, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return synsets, nil
}

// parseWordNetLine reads "offset lex_filenum ss_type w_cnt word lex_id ... | gloss".
func parseWordNetLine(line string) (Synset, error) {
	data, gloss, _ := strings.Cut(line, "|")
	fields := strings.Fields(data)
	if len(fields) < 4 {
		return Synset{}, fmt.Errorf("too few fields: %q", line)
	}

	count, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		return Synset{}, fmt.Errorf("word count %q: %w", fields[3], err)
	}
	words := fields[4:]
	if len(words) < int(count)*2 {
		return Synset{}, fmt.Errorf("expected %d words, got %q", count, strings.Join(words, " "))
	}

	s := Synset{Gloss: strings.TrimSpace(gloss)}
	seen := make(map[string]struct{}, count)
	for i := 0; i < int(count); i++ {
		lemma := lemmaKey(adjectiveMarker.ReplaceAllString(words[i*2], ""))
		if lemma == "" {
			continue
		}
		if _, ok := seen[lemma]; ok {
			continue
		}
		seen[lemma] = struct{}{}
		s.Lemmas = append(s.Lemmas, lemma)
	}
	return s, nil
}
