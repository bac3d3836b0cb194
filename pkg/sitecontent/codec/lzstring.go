package codec

import (
	"unicode/utf16"
	"unicode/utf8"
)

// LZString is the LZ-String "compressToUTF16" format: an LZW stream packed
// 15 bits per UTF-16 code unit, each unit offset by 32, terminated by a
// single space. Rows written by earlier versions of the site use it.
type LZString struct{}

const (
	lzBitsPerChar = 15
	lzCharOffset  = 32
	lzResetValue  = 1 << (lzBitsPerChar - 1)
	lzMaxUnit     = lzCharOffset + 1<<lzBitsPerChar - 1
	lzPad         = ' '
)

func (LZString) Name() string { return "lzstring" }

func (LZString) Encode(plain string) string {
	if !utf8.ValidString(plain) {
		return plain
	}
	return safeEncode("lzstring", plain, func(s string) string {
		units := compressUnits(utf16.Encode([]rune(s)))
		units = append(units, lzPad)
		return string(utf16.Decode(units))
	})
}

func (LZString) Decode(maybeEncoded string) string {
	if maybeEncoded == "" || !utf8.ValidString(maybeEncoded) {
		return ""
	}
	return safeDecode(maybeEncoded, func(s string) string {
		units := utf16.Encode([]rune(s))
		out, ok := decompressUnits(units)
		if !ok || !wellFormed(out) {
			return ""
		}
		return string(utf16.Decode(out))
	})
}

type bitWriter struct {
	out      []uint16
	val      int
	position int
}

// write emits the low n bits of value, least significant first.
func (w *bitWriter) write(value, n int) {
	for i := 0; i < n; i++ {
		w.val = w.val<<1 | value&1
		if w.position == lzBitsPerChar-1 {
			w.out = append(w.out, uint16(w.val+lzCharOffset))
			w.position = 0
			w.val = 0
		} else {
			w.position++
		}
		value >>= 1
	}
}

func (w *bitWriter) flush() {
	for {
		w.val <<= 1
		if w.position == lzBitsPerChar-1 {
			w.out = append(w.out, uint16(w.val+lzCharOffset))
			return
		}
		w.position++
	}
}

type phrase struct {
	prefix int
	unit   uint16
}

func compressUnits(in []uint16) []uint16 {
	var (
		singles   = make(map[uint16]int)
		phrases   = make(map[phrase]int)
		unwritten = make(map[uint16]bool)
		enlargeIn = 2
		dictSize  = 3
		numBits   = 2
		bw        bitWriter

		// current phrase: its code, and its unit when it is one unit long
		wCode   = -1
		wUnit   uint16
		wSingle bool
	)

	grow := func() {
		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	emit := func() {
		if wSingle && unwritten[wUnit] {
			if wUnit < 256 {
				bw.write(0, numBits)
				bw.write(int(wUnit), 8)
			} else {
				bw.write(1, numBits)
				bw.write(int(wUnit), 16)
			}
			grow()
			delete(unwritten, wUnit)
		} else {
			bw.write(wCode, numBits)
		}
		grow()
	}

	for _, c := range in {
		if _, ok := singles[c]; !ok {
			singles[c] = dictSize
			dictSize++
			unwritten[c] = true
		}
		if wCode < 0 {
			wCode, wUnit, wSingle = singles[c], c, true
			continue
		}
		if code, ok := phrases[phrase{wCode, c}]; ok {
			wCode, wSingle = code, false
			continue
		}
		emit()
		phrases[phrase{wCode, c}] = dictSize
		dictSize++
		wCode, wUnit, wSingle = singles[c], c, true
	}
	if wCode >= 0 {
		emit()
	}

	bw.write(2, numBits)
	bw.flush()
	return bw.out
}

type bitReader struct {
	units    []uint16
	index    int
	val      int
	position int
}

// read consumes n bits, least significant first. Reading into the padding
// unit fails.
func (r *bitReader) read(n int) (int, bool) {
	bits := 0
	for power := 1; power != 1<<n; power <<= 1 {
		if r.index >= len(r.units)-1 {
			return 0, false
		}
		if r.val&r.position != 0 {
			bits |= power
		}
		r.position >>= 1
		if r.position == 0 {
			r.position = lzResetValue
			r.index++
			r.val = 0
			if r.index < len(r.units) {
				r.val = int(r.units[r.index]) - lzCharOffset
			}
		}
	}
	return bits, true
}

// atEnd reports whether the stream stopped on its last data unit with only
// zero padding bits left.
func (r *bitReader) atEnd() bool {
	switch r.index {
	case len(r.units) - 1:
		return true
	case len(r.units) - 2:
		return r.val&(r.position*2-1) == 0
	default:
		return false
	}
}

func decompressUnits(in []uint16) ([]uint16, bool) {
	if len(in) < 2 || in[len(in)-1] != lzPad {
		return nil, false
	}
	for _, u := range in {
		if u < lzCharOffset || u > lzMaxUnit {
			return nil, false
		}
	}

	r := &bitReader{units: in, val: int(in[0]) - lzCharOffset, position: lzResetValue}
	readLiteral := func(kind int) ([]uint16, bool) {
		width := 8
		if kind == 1 {
			width = 16
		}
		b, ok := r.read(width)
		if !ok {
			return nil, false
		}
		return []uint16{uint16(b)}, true
	}

	first, ok := r.read(2)
	if !ok || first == 2 {
		return nil, false
	}
	w, ok := readLiteral(first)
	if !ok {
		return nil, false
	}

	dict := [][]uint16{nil, nil, nil, w}
	enlargeIn, numBits := 4, 3
	result := append([]uint16(nil), w...)

	for {
		code, ok := r.read(numBits)
		if !ok {
			return nil, false
		}
		switch code {
		case 0, 1:
			lit, ok := readLiteral(code)
			if !ok {
				return nil, false
			}
			dict = append(dict, lit)
			code = len(dict) - 1
			enlargeIn--
		case 2:
			if !r.atEnd() {
				return nil, false
			}
			return result, true
		}
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16
		switch {
		case code < len(dict):
			entry = dict[code]
		case code == len(dict):
			entry = append(w[:len(w):len(w)], w[0])
		default:
			return nil, false
		}
		result = append(result, entry...)
		dict = append(dict, append(w[:len(w):len(w)], entry[0]))
		enlargeIn--
		w = entry
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}

// wellFormed rejects unpaired surrogates.
func wellFormed(units []uint16) bool {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return false
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return true
}
