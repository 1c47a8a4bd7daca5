package meshio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// blockSize is the uncompressed size of each zlib block written.
const blockSize = 1 << 15

// codec describes how binary arrays of one file are laid out.
type codec struct {
	order      binary.ByteOrder
	headerSize int // 4 for UInt32 headers, 8 for UInt64
	compressed bool
}

func newCodec(byteOrder, headerType, compressor string) (codec, error) {
	c := codec{order: binary.LittleEndian, headerSize: 4}
	switch byteOrder {
	case "", "LittleEndian":
	case "BigEndian":
		c.order = binary.BigEndian
	default:
		return c, fmt.Errorf("%w: byte order %q", ErrUnsupportedFormat, byteOrder)
	}
	switch headerType {
	case "", "UInt32":
	case "UInt64":
		c.headerSize = 8
	default:
		return c, fmt.Errorf("%w: header type %q", ErrUnsupportedFormat, headerType)
	}
	switch compressor {
	case "":
	case "vtkZLibDataCompressor":
		c.compressed = true
	default:
		return c, fmt.Errorf("%w: compressor %q", ErrUnsupportedFormat, compressor)
	}
	return c, nil
}

func (c codec) header(b []byte) uint64 {
	if c.headerSize == 8 {
		return c.order.Uint64(b)
	}
	return uint64(c.order.Uint32(b))
}

// readRaw decodes one array stored as raw bytes starting at data[0].
func (c codec) readRaw(data []byte) ([]byte, error) {
	hs := c.headerSize
	if len(data) < hs {
		return nil, io.ErrUnexpectedEOF
	}
	if !c.compressed {
		n := c.header(data)
		if uint64(len(data)-hs) < n {
			return nil, io.ErrUnexpectedEOF
		}
		return data[hs : hs+int(n)], nil
	}
	if len(data) < 3*hs {
		return nil, io.ErrUnexpectedEOF
	}
	nblocks := int(c.header(data))
	if len(data) < (3+nblocks)*hs {
		return nil, io.ErrUnexpectedEOF
	}
	hdr := data[:(3+nblocks)*hs]
	return c.inflate(hdr, data[len(hdr):])
}

// readBase64 decodes one array stored as base64 text. Uncompressed arrays
// encode header and payload together; compressed ones encode the block
// header separately from the compressed blocks.
func (c codec) readBase64(text []byte) ([]byte, error) {
	text = bytes.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, text)
	enc := base64.StdEncoding
	hs := c.headerSize

	decodePrefix := func(nbytes int) ([]byte, int, error) {
		nchars := (nbytes + 2) / 3 * 4
		if len(text) < nchars {
			return nil, 0, io.ErrUnexpectedEOF
		}
		out := make([]byte, enc.DecodedLen(nchars))
		n, err := enc.Decode(out, text[:nchars])
		if err != nil {
			return nil, 0, err
		}
		return out[:n], nchars, nil
	}

	if !c.compressed {
		head, _, err := decodePrefix(hs)
		if err != nil {
			return nil, err
		}
		n := int(c.header(head))
		all, _, err := decodePrefix(hs + n)
		if err != nil {
			return nil, err
		}
		return all[hs : hs+n], nil
	}

	head, _, err := decodePrefix(3 * hs)
	if err != nil {
		return nil, err
	}
	nblocks := int(c.header(head))
	hdr, used, err := decodePrefix((3 + nblocks) * hs)
	if err != nil {
		return nil, err
	}
	var total int
	for i := 0; i < nblocks; i++ {
		total += int(c.header(hdr[(3+i)*hs:]))
	}
	rest := text[used:]
	nchars := (total + 2) / 3 * 4
	if len(rest) < nchars {
		return nil, io.ErrUnexpectedEOF
	}
	blocks := make([]byte, enc.DecodedLen(nchars))
	n, err := enc.Decode(blocks, rest[:nchars])
	if err != nil {
		return nil, err
	}
	return c.inflate(hdr[:(3+nblocks)*hs], blocks[:n])
}

func (c codec) inflate(hdr, blocks []byte) ([]byte, error) {
	hs := c.headerSize
	nblocks := int(c.header(hdr))
	usize := c.header(hdr[hs:])
	psize := c.header(hdr[2*hs:])

	var out bytes.Buffer
	off := 0
	for i := 0; i < nblocks; i++ {
		csize := int(c.header(hdr[(3+i)*hs:]))
		if off+csize > len(blocks) {
			return nil, io.ErrUnexpectedEOF
		}
		want := usize
		if i == nblocks-1 && psize != 0 {
			want = psize
		}
		zr, err := zlib.NewReader(bytes.NewReader(blocks[off : off+csize]))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		n, err := io.Copy(&out, zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if uint64(n) != want {
			return nil, fmt.Errorf("block %d inflated to %d bytes, want %d", i, n, want)
		}
		off += csize
	}
	return out.Bytes(), nil
}

// scalarSize returns the byte width of a VTK scalar type.
func scalarSize(typ string) (int, error) {
	switch typ {
	case "Int8", "UInt8":
		return 1, nil
	case "Int16", "UInt16":
		return 2, nil
	case "Int32", "UInt32", "Float32":
		return 4, nil
	case "Int64", "UInt64", "Float64":
		return 8, nil
	}
	return 0, fmt.Errorf("%w: data type %q", ErrUnsupportedFormat, typ)
}

// toFloat64 converts raw little/big endian values of typ to float64.
func toFloat64(b []byte, typ string, order binary.ByteOrder) ([]float64, error) {
	size, err := scalarSize(typ)
	if err != nil {
		return nil, err
	}
	if len(b)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %s values", len(b), typ)
	}
	out := make([]float64, len(b)/size)
	for i := range out {
		v := b[i*size : (i+1)*size]
		switch typ {
		case "Int8":
			out[i] = float64(int8(v[0]))
		case "UInt8":
			out[i] = float64(v[0])
		case "Int16":
			out[i] = float64(int16(order.Uint16(v)))
		case "UInt16":
			out[i] = float64(order.Uint16(v))
		case "Int32":
			out[i] = float64(int32(order.Uint32(v)))
		case "UInt32":
			out[i] = float64(order.Uint32(v))
		case "Int64":
			out[i] = float64(int64(order.Uint64(v)))
		case "UInt64":
			out[i] = float64(order.Uint64(v))
		case "Float32":
			out[i] = float64(math.Float32frombits(order.Uint32(v)))
		case "Float64":
			out[i] = math.Float64frombits(order.Uint64(v))
		}
	}
	return out, nil
}

func parseASCII(text string) ([]float64, error) {
	fields := strings.Fields(text)
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// fromFloat64 encodes values as little-endian typ.
func fromFloat64(values []float64, typ string) []byte {
	size, _ := scalarSize(typ)
	out := make([]byte, len(values)*size)
	le := binary.LittleEndian
	for i, v := range values {
		b := out[i*size:]
		switch typ {
		case "UInt8":
			b[0] = uint8(v)
		case "Int64":
			le.PutUint64(b, uint64(int64(v)))
		case "Float64":
			le.PutUint64(b, math.Float64bits(v))
		}
	}
	return out
}

// encodeBase64 writes payload the way the reader expects it with UInt64
// headers: one base64 run for uncompressed data, or a base64 block header
// followed by the base64 zlib blocks.
func encodeBase64(payload []byte, compress bool) (string, error) {
	enc := base64.StdEncoding
	le := binary.LittleEndian
	if !compress {
		buf := make([]byte, 8+len(payload))
		le.PutUint64(buf, uint64(len(payload)))
		copy(buf[8:], payload)
		return enc.EncodeToString(buf), nil
	}

	nblocks := (len(payload) + blockSize - 1) / blockSize
	hdr := make([]byte, (3+nblocks)*8)
	le.PutUint64(hdr, uint64(nblocks))
	le.PutUint64(hdr[8:], blockSize)
	if rem := len(payload) % blockSize; rem != 0 {
		le.PutUint64(hdr[16:], uint64(rem))
	}
	var blocks bytes.Buffer
	for i := 0; i < nblocks; i++ {
		end := (i + 1) * blockSize
		if end > len(payload) {
			end = len(payload)
		}
		var cb bytes.Buffer
		zw := zlib.NewWriter(&cb)
		if _, err := zw.Write(payload[i*blockSize : end]); err != nil {
			return "", err
		}
		if err := zw.Close(); err != nil {
			return "", err
		}
		le.PutUint64(hdr[(3+i)*8:], uint64(cb.Len()))
		blocks.Write(cb.Bytes())
	}
	return enc.EncodeToString(hdr) + enc.EncodeToString(blocks.Bytes()), nil
}
