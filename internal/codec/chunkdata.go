// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec implements the external wire/persistence formats from spec
// §6: the fixed 4104-byte ChunkData encoding and the self-describing mesh
// blob format used as the mesh cache's stored value.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ramonfueglister/roma-aeterna/internal/gen"
	"github.com/ramonfueglister/roma-aeterna/internal/mesh"
	"github.com/ramonfueglister/roma-aeterna/world"
)

const (
	magic   uint16 = 0x494D // 'I','M'
	version uint8  = 1

	headerSize    = 8
	arraySize     = world.TilesPerChunk
	ChunkDataSize = headerSize + 4*arraySize // 4104
)

// DecodeError is returned by DecodeChunkData for malformed input, per spec §7.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "chunkdata: decode error: " + e.Reason }

// EncodeChunkData writes the fixed little-endian format from spec §6.1.
// Output is always exactly ChunkDataSize (4104) bytes.
func EncodeChunkData(data gen.ChunkData) []byte {
	buf := make([]byte, ChunkDataSize)

	binary.LittleEndian.PutUint16(buf[0:2], magic)
	buf[2] = version
	buf[3] = 0 // reserved

	binary.LittleEndian.PutUint16(buf[4:6], uint16(int16(data.Coord.CX)))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(int16(data.Coord.CY)))

	copy(buf[8:8+arraySize], data.Heights[:])
	copy(buf[8+arraySize:8+2*arraySize], data.Biomes[:])
	copy(buf[8+2*arraySize:8+3*arraySize], data.Flags[:])
	copy(buf[8+3*arraySize:8+4*arraySize], data.Provinces[:])

	return buf
}

// DecodeChunkData parses the fixed little-endian format from spec §6.1.
// Fails (P4, spec §6.1) if total size != 4104, magic != 0x494D, or any
// height > 127.
func DecodeChunkData(buf []byte) (gen.ChunkData, error) {
	var data gen.ChunkData

	if len(buf) != ChunkDataSize {
		return data, &DecodeError{Reason: fmt.Sprintf("expected %d bytes, got %d", ChunkDataSize, len(buf))}
	}
	if got := binary.LittleEndian.Uint16(buf[0:2]); got != magic {
		return data, &DecodeError{Reason: fmt.Sprintf("bad magic 0x%04x", got)}
	}
	if buf[2] != version {
		return data, &DecodeError{Reason: fmt.Sprintf("unsupported version %d", buf[2])}
	}

	data.Coord.CX = int32(int16(binary.LittleEndian.Uint16(buf[4:6])))
	data.Coord.CY = int32(int16(binary.LittleEndian.Uint16(buf[6:8])))

	copy(data.Heights[:], buf[8:8+arraySize])
	copy(data.Biomes[:], buf[8+arraySize:8+2*arraySize])
	copy(data.Flags[:], buf[8+2*arraySize:8+3*arraySize])
	copy(data.Provinces[:], buf[8+3*arraySize:8+4*arraySize])

	for _, h := range data.Heights {
		if h > world.MaxHeight {
			return gen.ChunkData{}, &DecodeError{Reason: fmt.Sprintf("height %d exceeds MaxHeight", h)}
		}
	}

	return data, nil
}

// EncodeMeshBlob writes the self-describing mesh-cache value format (spec
// §6.2): four length-prefixed little-endian arrays.
func EncodeMeshBlob(buf mesh.Buffers) []byte {
	var out []byte
	out = appendFloats(out, buf.Positions)
	out = appendFloats(out, buf.Normals)
	out = appendFloats(out, buf.Colors)
	out = appendUint32s(out, buf.Indices)
	return out
}

// DecodeMeshBlob parses the format written by EncodeMeshBlob.
func DecodeMeshBlob(data []byte) (mesh.Buffers, error) {
	var buf mesh.Buffers
	rest := data
	var err error

	if buf.Positions, rest, err = readFloats(rest); err != nil {
		return buf, err
	}
	if buf.Normals, rest, err = readFloats(rest); err != nil {
		return buf, err
	}
	if buf.Colors, rest, err = readFloats(rest); err != nil {
		return buf, err
	}
	if buf.Indices, _, err = readUint32s(rest); err != nil {
		return buf, err
	}
	return buf, nil
}

var errTruncated = errors.New("meshblob: truncated")

func appendFloats(out []byte, vals []float32) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(vals)))
	out = append(out, lenBuf[:]...)
	for _, v := range vals {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		out = append(out, b[:]...)
	}
	return out
}

func appendUint32s(out []byte, vals []uint32) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(vals)))
	out = append(out, lenBuf[:]...)
	for _, v := range vals {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}
	return out
}

func readFloats(data []byte) ([]float32, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errTruncated
	}
	n := binary.LittleEndian.Uint32(data[0:4])
	data = data[4:]
	need := int(n) * 4
	if len(data) < need {
		return nil, nil, errTruncated
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return out, data[need:], nil
}

func readUint32s(data []byte) ([]uint32, []byte, error) {
	if len(data) < 4 {
		return nil, nil, errTruncated
	}
	n := binary.LittleEndian.Uint32(data[0:4])
	data = data[4:]
	need := int(n) * 4
	if len(data) < need {
		return nil, nil, errTruncated
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out, data[need:], nil
}
