package rangetiff

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	classicHeaderSize = 8
	bigTiffHeaderSize = 16

	classicEntrySize = 12
	bigTiffEntrySize = 20

	classicVersion = 42
	bigTiffVersion = 43
)

// FileHeader is the result of sniffing a TIFF file's first bytes: its
// endianness, whether it's BigTIFF, and the offset of the first IFD.
type FileHeader struct {
	Endianness     Endianness
	BigTiff        bool
	FirstIFDOffset uint64
}

// ReadHeader reads and validates the 8 (classic) or 16 (BigTIFF) byte
// header at the start of the file.
func ReadHeader(ctx context.Context, source ByteSource) (*FileHeader, error) {
	raw, err := source.Fetch(ctx, Range{Start: 0, End: classicHeaderSize})
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(raw) < classicHeaderSize {
		return nil, EndOfFileError{Requested: classicHeaderSize, Got: len(raw)}
	}

	var endianness Endianness
	switch {
	case raw[0] == 'I' && raw[1] == 'I':
		endianness = LittleEndian
	case raw[0] == 'M' && raw[1] == 'M':
		endianness = BigEndian
	default:
		return nil, TiffSignatureInvalidError{Got: [2]byte{raw[0], raw[1]}}
	}
	order := endianness.ByteOrder()
	version := order.Uint16(raw[2:4])

	switch version {
	case classicVersion:
		firstIFD := uint64(order.Uint32(raw[4:8]))
		return &FileHeader{Endianness: endianness, BigTiff: false, FirstIFDOffset: firstIFD}, nil
	case bigTiffVersion:
		full, err := source.Fetch(ctx, Range{Start: 0, End: bigTiffHeaderSize})
		if err != nil {
			return nil, fmt.Errorf("read bigtiff header: %w", err)
		}
		if len(full) < bigTiffHeaderSize {
			return nil, EndOfFileError{Requested: bigTiffHeaderSize, Got: len(full)}
		}
		offsetSize := order.Uint16(full[4:6])
		constant := order.Uint16(full[6:8])
		if offsetSize != 8 || constant != 0 {
			return nil, TiffSignatureNotFoundError{OffsetSize: offsetSize, Constant: constant}
		}
		firstIFD := order.Uint64(full[8:16])
		return &FileHeader{Endianness: endianness, BigTiff: true, FirstIFDOffset: firstIFD}, nil
	default:
		return nil, TiffSignatureInvalidError{Got: [2]byte{raw[0], raw[1]}, Version: version}
	}
}

// ReadIFDs walks the IFD chain starting at header.FirstIFDOffset,
// decoding every directory with FromTags. The walk stops at a next-IFD
// offset of 0 or at an offset already visited, so a cyclic chain
// terminates instead of looping forever.
func ReadIFDs(ctx context.Context, source ByteSource, header *FileHeader, logger *zap.Logger) ([]*ImageFileDirectory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var ifds []*ImageFileDirectory
	visited := map[uint64]struct{}{}
	offset := header.FirstIFDOffset

	for offset != 0 {
		if _, seen := visited[offset]; seen {
			logger.Debug("IFD chain revisits an offset, stopping", zap.Uint64("offset", offset))
			break
		}
		visited[offset] = struct{}{}

		tags, next, err := readOneIFD(ctx, source, header.Endianness, offset, header.BigTiff)
		if err != nil {
			return nil, fmt.Errorf("read IFD at offset %d: %w", offset, err)
		}
		ifd, err := FromTags(tags)
		if err != nil {
			return nil, fmt.Errorf("decode IFD at offset %d: %w", offset, err)
		}
		if next != 0 {
			n := next
			ifd.NextIFDOffset = &n
		}

		logger.Debug("read IFD",
			zap.Uint64("offset", offset),
			zap.Uint64("width", ifd.ImageWidth),
			zap.Uint64("height", ifd.ImageHeight),
			zap.Bool("tiled", ifd.IsTiled()),
			zap.Uint64("next_offset", next),
		)

		ifds = append(ifds, ifd)
		offset = next
	}
	return ifds, nil
}

// readOneIFD reads the entry count, every (tag, value) entry, and the
// next-IFD offset of the directory at offset. Duplicate tags within one
// directory resolve last-wins, matching the convention most TIFF readers
// use in practice (see SPEC_FULL.md §9).
func readOneIFD(ctx context.Context, source ByteSource, endianness Endianness, offset uint64, bigtiff bool) (map[Tag]Value, uint64, error) {
	cursor := NewEndianCursorAt(source, endianness, offset)

	var entryCount uint64
	if bigtiff {
		v, err := cursor.ReadU64(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("read entry count: %w", err)
		}
		entryCount = v
	} else {
		v, err := cursor.ReadU16(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("read entry count: %w", err)
		}
		entryCount = uint64(v)
	}

	entrySize := uint64(classicEntrySize)
	if bigtiff {
		entrySize = bigTiffEntrySize
	}

	tags := make(map[Tag]Value, entryCount)
	for i := uint64(0); i < entryCount; i++ {
		entryOffset := cursor.Offset()
		tag, value, err := ReadTag(ctx, source, endianness, entryOffset, bigtiff)
		if err != nil {
			return nil, 0, fmt.Errorf("entry %d: %w", i, err)
		}
		tags[tag] = value
		cursor.Advance(entrySize)
	}

	var next uint64
	if bigtiff {
		v, err := cursor.ReadU64(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("read next IFD offset: %w", err)
		}
		next = v
	} else {
		v, err := cursor.ReadU32(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("read next IFD offset: %w", err)
		}
		next = uint64(v)
	}
	return tags, next, nil
}
