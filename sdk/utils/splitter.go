// SPDX-FileCopyrightText: © 2025 CleverMaps
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// CSVPart is one slice of a split CSV file. Only the first part carries the
// header line, so concatenating all parts in order restores the original file.
type CSVPart struct {
	Number int
	Data   []byte
}

type SplitOptions struct {
	// PartSize is the target size of a part in bytes.
	PartSize int64
	// NumParts is the most parts SplitCSV emits.
	NumParts int
	// Separator and Quote default to ',' and '"'.
	Separator byte
	Quote     byte
}

// SplitCSV cuts r into at most opts.NumParts parts of roughly opts.PartSize
// bytes each. Cuts happen on record boundaries, quoted fields spanning several
// lines are kept whole. A quoted field still open after PartSize bytes is
// treated as malformed and the record ends at the next line break. The last
// part absorbs whatever is left once NumParts is reached.
// It returns the number of parts passed to fn.
func SplitCSV(r io.Reader, opts SplitOptions, fn func(CSVPart) error) (int, error) {
	if opts.PartSize <= 0 {
		return 0, errors.New("part size must be positive")
	}
	if opts.NumParts < 1 {
		return 0, errors.New("number of parts must be at least 1")
	}
	rr := &recordReader{
		br:    bufio.NewReaderSize(r, 1024*1024),
		sep:   opts.Separator,
		quote: opts.Quote,
		limit: opts.PartSize,
	}
	if rr.sep == 0 {
		rr.sep = ','
	}
	if rr.quote == 0 {
		rr.quote = '"'
	}

	header, err := rr.next()
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if len(header) == 0 {
		return 0, errors.New("csv file is empty")
	}
	headerSize := int64(len(header))

	part := 1
	buf := &bytes.Buffer{}
	buf.Write(header)
	size := headerSize
	rows := 0

	emit := func() error {
		if err := fn(CSVPart{Number: part, Data: buf.Bytes()}); err != nil {
			return err
		}
		buf = &bytes.Buffer{}
		size = headerSize
		rows = 0
		return nil
	}

	for {
		rec, err := rr.next()
		if len(rec) > 0 {
			recSize := int64(len(rec))
			if size+recSize > opts.PartSize && part < opts.NumParts && rows > 0 {
				if err := emit(); err != nil {
					return part - 1, err
				}
				part++
			}
			buf.Write(rec)
			size += recSize
			rows++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return part - 1, err
		}
	}

	if err := emit(); err != nil {
		return part - 1, err
	}
	return part, nil
}

type recordReader struct {
	br    *bufio.Reader
	sep   byte
	quote byte
	limit int64
}

// next returns the next record including its line terminator. A quote opens a
// quoted field only at the start of a field, a doubled quote inside one is
// an escaped quote.
func (rr *recordReader) next() ([]byte, error) {
	var rec []byte
	inQuotes := false
	fieldStart := true
	for {
		line, err := rr.br.ReadBytes('\n')
		rec = append(rec, line...)
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case inQuotes:
				if c == rr.quote {
					if i+1 < len(line) && line[i+1] == rr.quote {
						i++
					} else {
						inQuotes = false
					}
				}
			case c == rr.quote && fieldStart:
				inQuotes = true
				fieldStart = false
			default:
				fieldStart = c == rr.sep
			}
		}
		if err != nil {
			return rec, err
		}
		if !inQuotes || int64(len(rec)) >= rr.limit {
			return rec, nil
		}
	}
}
