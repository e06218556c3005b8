// Package gcode writes toolpaths as G-code and reads G-code back into
// motion for simulation.
package gcode

import (
	"bufio"
	"io"
	"strings"
)

// Program is a G-code program, one command per line.
// Lines are only ever appended.
type Program struct {
	lines []string
}

func (p *Program) put(line string) {
	p.lines = append(p.lines, line)
}

// Lines returns a copy of the program's lines.
func (p *Program) Lines() []string {
	return append([]string(nil), p.lines...)
}

// Len returns the number of lines.
func (p *Program) Len() int {
	return len(p.lines)
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, l := range p.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes the program text to w.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, l := range p.lines {
		m, err := bw.WriteString(l)
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}
