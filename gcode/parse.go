package gcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Word is a letter and its value, such as G1 or X-2.5.
type Word struct {
	Letter rune
	Value  float64
}

func (w Word) String() string {
	return string(w.Letter) + strconv.FormatFloat(w.Value, 'f', -1, 64)
}

// Block is the words of one line. Line counts from 1.
type Block struct {
	Line  int
	Words []Word
}

// Get returns the value of the last word with the given letter.
func (b Block) Get(letter rune) (float64, bool) {
	for i := len(b.Words) - 1; i >= 0; i-- {
		if b.Words[i].Letter == letter {
			return b.Words[i].Value, true
		}
	}
	return 0, false
}

func isDigit(c rune) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// parseLine splits one line into words. Letters are upper-cased.
// Characters that can't start a word, such as a *checksum, #parameter
// or [expression], are dropped up to the next letter or comment. A
// letter they follow directly is dropped with them.
func parseLine(line string, n int) (Block, error) {
	const (
		normal = iota
		comment
		word
		skip
	)
	b := Block{Line: n}
	state := normal
	var (
		letter rune
		value  strings.Builder
	)
	endWord := func() error {
		f, err := strconv.ParseFloat(value.String(), 64)
		if err != nil {
			return fmt.Errorf("line %d: bad value %q for %c", n, value.String(), letter)
		}
		b.Words = append(b.Words, Word{letter, f})
		value.Reset()
		state = normal
		return nil
	}
	for i, c := range line {
		switch state {
		case comment:
			if c == ')' {
				state = normal
			}
			continue
		case skip:
			if !isLetter(c) && c != '(' && c != ';' {
				continue
			}
			state = normal
		case word:
			if isDigit(c) {
				value.WriteRune(c)
				continue
			}
			if value.Len() == 0 {
				if c == ' ' || c == '\t' {
					continue
				}
				if !isLetter(c) && c != '(' && c != ';' {
					state = skip
					continue
				}
			}
			if err := endWord(); err != nil {
				return Block{}, err
			}
		}
		switch {
		case c == '/' && i == 0:
			// Block delete: the line is skipped.
			return Block{Line: n}, nil
		case c == '(':
			state = comment
		case c == ';':
			return b, nil
		case c == '%' || c == ' ' || c == '\t' || c == '\r':
		case c >= 'a' && c <= 'z':
			letter, state = c-'a'+'A', word
		case c >= 'A' && c <= 'Z':
			letter, state = c, word
		default:
			state = skip
		}
	}
	switch state {
	case comment:
		return Block{}, fmt.Errorf("line %d: unterminated comment", n)
	case word:
		if err := endWord(); err != nil {
			return Block{}, err
		}
	}
	return b, nil
}

// Parse reads a G-code program into blocks, one per line that has any
// words. Comments, program markers and block-deleted lines are dropped.
func Parse(r io.Reader) ([]Block, error) {
	var blocks []Block
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		b, err := parseLine(sc.Text(), n)
		if err != nil {
			return nil, err
		}
		if len(b.Words) > 0 {
			blocks = append(blocks, b)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}
