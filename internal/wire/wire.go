package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	// WordSize is the wire width of one payload value.
	WordSize = 4
	// SeqHeaderLen is the fixed width of the sequence length prefix.
	SeqHeaderLen = 8
)

var (
	ErrPeerClosed       = errors.New("wire: peer closed mid-transfer")
	ErrSequenceTooLarge = errors.New("wire: sequence too large")
	ErrMisalignedLength = errors.New("wire: sequence byte length not word aligned")
)

// Limits constrains receive-side memory use. The sequence length arrives
// from the wire, so the allocation it drives must be bounded.
type Limits struct {
	MaxSequenceBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxSequenceBytes: 8 * 1024 * 1024,
	}
}

// writeExact loops until all of b is written or the underlying write
// reports an unrecoverable error. It never logs and never retries past
// the current call.
func writeExact(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// readExact is the symmetric read loop. A peer that closes before the
// full count arrives is a failed transfer, not a clean end of stream.
func readExact(r io.Reader, b []byte) error {
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrPeerClosed
		}
		return err
	}
	return nil
}

// WriteWord writes one u32 in native order and reports the bytes written.
func WriteWord(w io.Writer, v uint32) (int, error) {
	var buf [WordSize]byte
	binary.NativeEndian.PutUint32(buf[:], v)
	if err := writeExact(w, buf[:]); err != nil {
		return 0, err
	}
	return WordSize, nil
}

// ReadWord reads one u32 in native order.
func ReadWord(r io.Reader) (uint32, error) {
	var buf [WordSize]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(buf[:]), nil
}

// WriteSequence frames words as [u64 byte length][payload] and reports
// the bytes written including the prefix.
func WriteSequence(w io.Writer, words []uint32, limits Limits) (int, error) {
	byteLen := uint64(len(words)) * WordSize
	if byteLen > limits.MaxSequenceBytes {
		return 0, ErrSequenceTooLarge
	}
	buf := make([]byte, SeqHeaderLen+byteLen)
	binary.NativeEndian.PutUint64(buf[:SeqHeaderLen], byteLen)
	encodeWords(buf[SeqHeaderLen:], words)
	if err := writeExact(w, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// ReadSequence reads one framed sequence. Whatever byte length arrives on
// the wire determines the allocation; the caller contributes nothing.
func ReadSequence(r io.Reader, limits Limits) ([]uint32, error) {
	var head [SeqHeaderLen]byte
	if err := readExact(r, head[:]); err != nil {
		return nil, err
	}
	byteLen := binary.NativeEndian.Uint64(head[:])
	if byteLen > limits.MaxSequenceBytes {
		return nil, ErrSequenceTooLarge
	}
	if byteLen%WordSize != 0 {
		return nil, ErrMisalignedLength
	}
	payload := make([]byte, byteLen)
	if err := readExact(r, payload); err != nil {
		return nil, err
	}
	return decodeWords(payload), nil
}

// WriteBlock writes words unframed. Both peers must agree on the arity
// out of band; a mismatch is undefined behavior, not a guarded error.
func WriteBlock(w io.Writer, words []uint32) (int, error) {
	buf := make([]byte, len(words)*WordSize)
	encodeWords(buf, words)
	if err := writeExact(w, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// ReadBlock fills words from exactly len(words) unframed wire values.
func ReadBlock(r io.Reader, words []uint32) error {
	buf := make([]byte, len(words)*WordSize)
	if err := readExact(r, buf); err != nil {
		return err
	}
	copy(words, decodeWords(buf))
	return nil
}

func encodeWords(dst []byte, words []uint32) {
	for i, v := range words {
		binary.NativeEndian.PutUint32(dst[i*WordSize:], v)
	}
}

func decodeWords(src []byte) []uint32 {
	words := make([]uint32, len(src)/WordSize)
	for i := range words {
		words[i] = binary.NativeEndian.Uint32(src[i*WordSize:])
	}
	return words
}

// FormatWords renders a run of values for log messages. Never used on
// the wire.
func FormatWords(words []uint32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	b.WriteByte(']')
	return b.String()
}
