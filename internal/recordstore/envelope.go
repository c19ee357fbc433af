package recordstore

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// envelopeVersion is the wire version written into every envelope.
const envelopeVersion byte = 1

// flagChunked marks a placeholder envelope whose payload lives in the
// blob-chunk subspace instead of inline.
const flagChunked byte = 1 << 0

// inlineEnvelope builds the inline wire format: version | flags | payload.
func inlineEnvelope(payload []byte) []byte {
	out := make([]byte, 0, 2+len(payload))
	out = append(out, envelopeVersion, 0)
	return append(out, payload...)
}

// chunkedEnvelope builds the chunked placeholder: version | flags(bit0) |
// totalLength(u64 BE) | chunkCount(u32 BE) | checksum(u64 BE, xxhash-64
// of the full unchunked payload).
func chunkedEnvelope(payload []byte, chunkSize int) []byte {
	total := uint64(len(payload))
	chunkCount := uint32((len(payload) + chunkSize - 1) / chunkSize)
	checksum := xxhash.Sum64(payload)

	out := make([]byte, 0, 2+8+4+8)
	out = append(out, envelopeVersion, flagChunked)
	out = binary.BigEndian.AppendUint64(out, total)
	out = binary.BigEndian.AppendUint32(out, chunkCount)
	out = binary.BigEndian.AppendUint64(out, checksum)
	return out
}

// decodedEnvelope is the parsed form of either envelope shape.
type decodedEnvelope struct {
	chunked    bool
	payload    []byte // set only when !chunked
	totalLen   uint64
	chunkCount uint32
	checksum   uint64
}

func decodeEnvelope(data []byte) (decodedEnvelope, error) {
	if len(data) < 2 {
		return decodedEnvelope{}, fmt.Errorf("recordstore: envelope too short")
	}
	flags := data[1]
	if flags&flagChunked == 0 {
		return decodedEnvelope{payload: data[2:]}, nil
	}
	if len(data) < 2+8+4+8 {
		return decodedEnvelope{}, fmt.Errorf("recordstore: chunked placeholder truncated")
	}
	rest := data[2:]
	total := binary.BigEndian.Uint64(rest[0:8])
	count := binary.BigEndian.Uint32(rest[8:12])
	checksum := binary.BigEndian.Uint64(rest[12:20])
	return decodedEnvelope{
		chunked:    true,
		totalLen:   total,
		chunkCount: count,
		checksum:   checksum,
	}, nil
}

// chunkPayload splits payload into chunkSize-sized fragments, in order.
func chunkPayload(payload []byte, chunkSize int) [][]byte {
	var chunks [][]byte
	for i := 0; i < len(payload); i += chunkSize {
		end := i + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[i:end])
	}
	return chunks
}

// verifyChecksum reports whether reassembled matches the checksum
// recorded in a chunked envelope.
func verifyChecksum(reassembled []byte, checksum uint64) bool {
	return xxhash.Sum64(reassembled) == checksum
}
