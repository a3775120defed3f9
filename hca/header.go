package hca

import (
	"fmt"
	"math"

	"github.com/nicks96432/libcgss/streams"
)

// ReadInfo reads and parses the stream prologue. The stream is left
// positioned at the first compressed block.
func ReadInfo(s streams.Stream) (*Info, error) {
	r := streams.NewBinaryReader(s)
	probe, err := r.PeekBytes(0, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if streams.ToUint32BE(probe)&tagMask != tagHCA {
		return nil, fmt.Errorf("%w: missing HCA signature", ErrInvalidFormat)
	}
	headerSize := int(probe[6])<<8 | int(probe[7])
	if headerSize < 8 {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidFormat, headerSize)
	}

	header, err := r.PeekBytes(0, headerSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	info, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	if err := s.SetPosition(int64(info.DataOffset)); err != nil {
		return nil, err
	}
	return info, nil
}

// parseHeader walks the chunk sequence of a complete header blob.
func parseHeader(header []byte) (*Info, error) {
	if checksum(header) != 0 {
		return nil, fmt.Errorf("%w: header CRC", ErrChecksum)
	}

	info := &Info{}
	br := newBitReader(header)

	br.Skip(32) // signature, validated by the caller
	info.Version = uint16(br.Read(16))
	info.HeaderSize = uint16(br.Read(16))

	switch info.Version {
	case version101, version102, version103, version200, version300:
	default:
		return nil, fmt.Errorf("%w: version 0x%04X", ErrUnsupported, info.Version)
	}

	size := len(header) - 0x08

	// fmt chunk is mandatory.
	if size >= 0x10 && br.Peek(32)&tagMask == tagFmt {
		br.Skip(32)
		info.ChannelCount = br.Read(8)
		info.SamplingRate = br.Read(24)
		info.BlockCount = br.Read(32)
		info.EncoderDelay = uint16(br.Read(16))
		info.EncoderPadding = uint16(br.Read(16))

		if info.ChannelCount < minChannels || info.ChannelCount > maxChannels {
			return nil, fmt.Errorf("%w: channel count %d", ErrInvalidFormat, info.ChannelCount)
		}
		if info.SamplingRate < minSampleRate || info.SamplingRate > maxSampleRate {
			return nil, fmt.Errorf("%w: sampling rate %d", ErrInvalidFormat, info.SamplingRate)
		}
		if info.BlockCount == 0 {
			return nil, fmt.Errorf("%w: zero block count", ErrInvalidFormat)
		}
		size -= 0x10
	} else {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrInvalidFormat)
	}

	// comp and dec are alternate encodings of the band layout.
	if size >= 0x10 && br.Peek(32)&tagMask == tagComp {
		br.Skip(32)
		info.BlockSize = uint16(br.Read(16))
		info.MinResolution = uint8(br.Read(8))
		info.MaxResolution = uint8(br.Read(8))
		info.TrackCount = uint8(br.Read(8))
		info.ChannelConfig = uint8(br.Read(8))
		info.TotalBandCount = uint8(br.Read(8))
		info.BaseBandCount = uint8(br.Read(8))
		info.StereoBandCount = uint8(br.Read(8))
		info.BandsPerHfrGroup = uint8(br.Read(8))
		info.MsStereo = uint8(br.Read(8))
		br.Skip(8) // reserved
		size -= 0x10
	} else if size >= 0x0C && br.Peek(32)&tagMask == tagDec {
		br.Skip(32)
		info.BlockSize = uint16(br.Read(16))
		info.MinResolution = uint8(br.Read(8))
		info.MaxResolution = uint8(br.Read(8))
		info.TotalBandCount = uint8(br.Read(8)) + 1
		info.BaseBandCount = uint8(br.Read(8)) + 1
		info.TrackCount = uint8(br.Read(4))
		info.ChannelConfig = uint8(br.Read(4))
		stereoType := br.Read(8)
		if stereoType == 0 {
			info.BaseBandCount = info.TotalBandCount
		}
		info.StereoBandCount = info.TotalBandCount - info.BaseBandCount
		info.BandsPerHfrGroup = 0
		size -= 0x0C
	} else {
		return nil, fmt.Errorf("%w: missing comp/dec chunk", ErrInvalidFormat)
	}

	if size >= 0x08 && br.Peek(32)&tagMask == tagVbr {
		br.Skip(32)
		info.VbrMaxBlockSize = uint16(br.Read(16))
		info.VbrNoiseLevel = uint16(br.Read(16))
		if !(info.BlockSize == 0 && info.VbrMaxBlockSize > 8 && info.VbrMaxBlockSize <= 0x1FF) {
			return nil, fmt.Errorf("%w: inconsistent VBR parameters", ErrInvalidFormat)
		}
		size -= 0x08
	}

	if size >= 0x06 && br.Peek(32)&tagMask == tagAth {
		br.Skip(32)
		info.AthType = uint16(br.Read(16))
		size -= 0x06
	} else if info.Version < version200 {
		info.AthType = 1
	}

	if size >= 0x10 && br.Peek(32)&tagMask == tagLoop {
		br.Skip(32)
		info.LoopStart = br.Read(32)
		info.LoopEnd = br.Read(32)
		info.LoopPlayCount = uint16(br.Read(16))
		info.LoopPadding = uint16(br.Read(16))
		info.LoopExists = true
		if !(info.LoopStart <= info.LoopEnd && info.LoopEnd < info.BlockCount) {
			return nil, fmt.Errorf("%w: loop range [%d, %d] outside %d blocks",
				ErrInvalidFormat, info.LoopStart, info.LoopEnd, info.BlockCount)
		}
		size -= 0x10
	}

	if size >= 0x06 && br.Peek(32)&tagMask == tagCiph {
		br.Skip(32)
		info.CipherType = uint16(br.Read(16))
		if t := info.CipherType; t != 0 && t != 1 && t != 56 {
			return nil, fmt.Errorf("%w: cipher type %d", ErrInvalidFormat, t)
		}
		size -= 0x06
	}

	info.RvaVolume = 1.0
	if size >= 0x08 && br.Peek(32)&tagMask == tagRva {
		br.Skip(32)
		info.RvaVolume = math.Float32frombits(br.Read(32))
		size -= 0x08
	}

	if size >= 0x05 && br.Peek(32)&tagMask == tagComm {
		br.Skip(32)
		commentLen := int(br.Read(8))
		if commentLen > size-0x05 {
			return nil, fmt.Errorf("%w: comment length %d", ErrInvalidFormat, commentLen)
		}
		comment := make([]byte, commentLen)
		for i := range comment {
			comment[i] = byte(br.Read(8))
		}
		info.Comment = string(comment)
	}

	if br.Overrun() {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidFormat)
	}

	return info, validateInfo(info)
}

func validateInfo(info *Info) error {
	if info.BlockSize < minBlockSize {
		return fmt.Errorf("%w: block size %d", ErrInvalidFormat, info.BlockSize)
	}
	if info.Version <= version200 {
		if info.MinResolution != 1 || info.MaxResolution != 15 {
			return fmt.Errorf("%w: resolution range %d..%d", ErrInvalidFormat,
				info.MinResolution, info.MaxResolution)
		}
	} else if info.MinResolution > info.MaxResolution || info.MaxResolution > 15 {
		return fmt.Errorf("%w: resolution range %d..%d", ErrInvalidFormat,
			info.MinResolution, info.MaxResolution)
	}

	if info.TrackCount == 0 {
		info.TrackCount = 1
	}
	if uint32(info.TrackCount) > info.ChannelCount {
		return fmt.Errorf("%w: %d tracks for %d channels", ErrInvalidFormat,
			info.TrackCount, info.ChannelCount)
	}

	total := uint32(info.TotalBandCount)
	base := uint32(info.BaseBandCount)
	stereo := uint32(info.StereoBandCount)
	if total > samplesPerSubframe || base > samplesPerSubframe ||
		base+stereo > total ||
		uint32(info.BandsPerHfrGroup) > samplesPerSubframe {
		return fmt.Errorf("%w: band layout %d/%d/%d", ErrInvalidFormat, total, base, stereo)
	}

	info.HfrGroupCount = ceilDiv(total-base-stereo, uint32(info.BandsPerHfrGroup))
	if base+stereo+info.HfrGroupCount > samplesPerSubframe {
		return fmt.Errorf("%w: band layout leaves no room for HFR scales", ErrInvalidFormat)
	}

	if info.MsStereo != 0 {
		return fmt.Errorf("%w: MS stereo", ErrUnsupported)
	}

	info.DataOffset = uint32(info.HeaderSize)
	return nil
}
