package bundle

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// https://numpy.org/doc/stable/reference/generated/numpy.lib.format.html
const (
	npyMagic     = "\x93NUMPY"
	npyAlignment = 64
)

const (
	DtypeInt8    = "|i1"
	DtypeInt16   = "<i2"
	DtypeFloat16 = "<f2"
	DtypeFloat32 = "<f4"
)

// largest finite binary16, 65504
const maxHalf = 0x7bff

type array struct {
	name  string
	descr string
	shape []int
	data  any // little endian slice accepted by binary.Write
}

func npyHeader(descr string, shape []int) []byte {

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, tuple)

	// magic(6) + version(2) + header length(2) + dict + padding + \n
	prefix := len(npyMagic) + 2 + 2
	total := prefix + len(dict) + 1
	if rem := total % npyAlignment; rem != 0 {
		dict += strings.Repeat(" ", npyAlignment-rem)
	}
	dict += "\n"

	header := make([]byte, prefix, prefix+len(dict))
	copy(header, npyMagic)
	header[6] = 1 // major
	header[7] = 0 // minor
	binary.LittleEndian.PutUint16(header[8:], uint16(len(dict)))

	return append(header, dict...)
}

func (a *array) writeTo(w io.Writer) error {

	if _, err := w.Write(npyHeader(a.descr, a.shape)); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, a.data)
}
