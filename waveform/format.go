package waveform

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

const (
	OpInsert uint8 = 1
)

// Magic opens every waveform file.
const Magic = "WAVESET1"

// Header (17 bytes) = OpCode(1) + ID(8) + Length(4) + CRC32(4)
const headerSize = 17

var crcTable = crc32.MakeTable(crc32.Castagnoli)

type header struct {
	op     uint8
	id     int64
	length uint32
	crc    uint32
}

func (h header) encode() []byte {
	b := make([]byte, headerSize)
	b[0] = h.op
	binary.LittleEndian.PutUint64(b[1:], uint64(h.id))
	binary.LittleEndian.PutUint32(b[9:], h.length)
	binary.LittleEndian.PutUint32(b[13:], h.crc)
	return b
}

func decodeHeader(b []byte) header {
	return header{
		op:     b[0],
		id:     int64(binary.LittleEndian.Uint64(b[1:9])),
		length: binary.LittleEndian.Uint32(b[9:13]),
		crc:    binary.LittleEndian.Uint32(b[13:17]),
	}
}

// Payload = NameLen(2) + Name + Channels(4) + Samples(4) + float32 samples
func encodePayload(name string, w Waveform) []byte {

	b := make([]byte, 2+len(name)+8+4*len(w.Data))
	binary.LittleEndian.PutUint16(b, uint16(len(name)))
	n := 2 + copy(b[2:], name)
	binary.LittleEndian.PutUint32(b[n:], uint32(w.Channels))
	binary.LittleEndian.PutUint32(b[n+4:], uint32(w.Samples))
	n += 8
	for _, v := range w.Data {
		binary.LittleEndian.PutUint32(b[n:], math.Float32bits(v))
		n += 4
	}

	return b
}

func decodeName(payload []byte) (string, error) {
	if len(payload) < 2 {
		return "", fmt.Errorf("payload too short: %d bytes", len(payload))
	}
	l := int(binary.LittleEndian.Uint16(payload))
	if len(payload) < 2+l+8 {
		return "", fmt.Errorf("payload too short for name of %d bytes", l)
	}
	return string(payload[2 : 2+l]), nil
}

func decodePayload(payload []byte) (string, Waveform, error) {

	name, err := decodeName(payload)
	if err != nil {
		return "", Waveform{}, err
	}

	n := 2 + len(name)
	channels := int(binary.LittleEndian.Uint32(payload[n:]))
	samples := int(binary.LittleEndian.Uint32(payload[n+4:]))
	n += 8

	if len(payload)-n != 4*channels*samples {
		return "", Waveform{}, fmt.Errorf("'%s': shape %dx%d does not match %d data bytes", name, channels, samples, len(payload)-n)
	}

	w := New(channels, samples)
	for i := range w.Data {
		w.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[n:]))
		n += 4
	}

	return name, w, nil
}
