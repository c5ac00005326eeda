package compression

import (
	"fmt"

	"github.com/golang/snappy"
)

// MaxSheetSize bounds the decoded size of a stored sheet. A snappy block
// header claiming more than this is treated as corrupt rather than allocated.
const MaxSheetSize = 256 << 20

// SnappyCompressor stores sheets as a single snappy block.
type SnappyCompressor struct{}

func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

// Compress encodes data as one block. Empty input stays empty.
func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data) > MaxSheetSize {
		return nil, fmt.Errorf("sheet of %d bytes exceeds %d", len(data), MaxSheetSize)
	}
	return snappy.Encode(make([]byte, snappy.MaxEncodedLen(len(data))), data), nil
}

// Decompress decodes a block after checking its declared length.
func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy header: %v", ErrCorrupt, err)
	}
	if n > MaxSheetSize {
		return nil, fmt.Errorf("%w: declared sheet size %d exceeds %d", ErrCorrupt, n, MaxSheetSize)
	}
	out, err := snappy.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy decode: %v", ErrCorrupt, err)
	}
	return out, nil
}

func (s *SnappyCompressor) Algorithm() Algorithm {
	return Snappy
}
