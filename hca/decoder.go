package hca

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nicks96432/libcgss/streams"
)

// Decoder is a random-access byte-stream view over the decoded audio:
// an optional synthesized WAVE header followed by PCM, with the loop
// region virtually repeated when looping is enabled. A Decoder is not safe
// for concurrent use.
type Decoder struct {
	stream     streams.Stream
	ownsStream bool
	info       *Info
	config     DecoderConfig

	cipher   *Cipher
	ath      *ath
	channels []*channel

	blockBuf []byte
	cache    BlockCache

	waveHeader     []byte
	waveHeaderSize uint32
	waveBlockSize  uint32

	position int64
}

// NewDecoder parses the stream prologue and prepares the decode state. The
// stream is borrowed; the caller keeps managing its lifetime. Use OpenFile
// for a decoder that owns its input.
func NewDecoder(s streams.Stream, config DecoderConfig) (*Decoder, error) {
	return newDecoder(s, config, false)
}

// OpenFile opens path and returns a decoder that owns the file.
func OpenFile(path string, config DecoderConfig) (*Decoder, error) {
	fs, err := streams.OpenFileStream(path)
	if err != nil {
		return nil, err
	}
	d, err := newDecoder(fs, config, true)
	if err != nil {
		fs.Close()
		return nil, err
	}
	return d, nil
}

func newDecoder(s streams.Stream, config DecoderConfig, ownsStream bool) (*Decoder, error) {
	info, err := ReadInfo(s)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		stream:     s,
		ownsStream: ownsStream,
		info:       info,
		config:     config,
		blockBuf:   make([]byte, info.BlockSize),
		cache:      newMapBlockCache(),
	}

	d.ath, err = newAth(info.AthType, info.SamplingRate)
	if err != nil {
		return nil, err
	}

	cipherCfg := config.Cipher
	if !config.ForceCipherType {
		cipherCfg.Type = CipherType(info.CipherType)
	}
	d.cipher, err = NewCipher(cipherCfg)
	if err != nil {
		return nil, err
	}

	if err := d.initChannels(); err != nil {
		return nil, err
	}

	d.waveBlockSize = samplesPerBlock * config.bytesPerSample() * info.ChannelCount
	return d, nil
}

// SetBlockCache replaces the decoded-block cache; pass nil to restore the
// default unbounded map.
func (d *Decoder) SetBlockCache(c BlockCache) {
	if c == nil {
		c = newMapBlockCache()
	}
	d.cache = c
}

// Info returns the parsed stream descriptor.
func (d *Decoder) Info() *Info { return d.info }

// Close releases the underlying stream when the decoder owns it.
func (d *Decoder) Close() error {
	if d.ownsStream && d.stream != nil {
		return d.stream.Close()
	}
	return nil
}

// initChannels derives each channel's role from the stereo-expansion
// layout. Groups of 6 and 7 deliberately fall through to the 8-wide
// assignments; the format assigns those slots either way.
func (d *Decoder) initChannels() error {
	info := d.info
	types := make([]int, maxChannels)

	groupSize := info.ChannelCount / uint32(info.TrackCount)
	if info.StereoBandCount > 0 && groupSize > 1 {
		for g := uint32(0); g < uint32(info.TrackCount); g++ {
			c := types[g*groupSize:]
			switch groupSize {
			case 2, 3:
				c[0], c[1] = channelStereoPrimary, channelStereoSecondary
			case 4:
				c[0], c[1] = channelStereoPrimary, channelStereoSecondary
				if info.ChannelConfig == 0 {
					c[2], c[3] = channelStereoPrimary, channelStereoSecondary
				}
			case 5:
				c[0], c[1] = channelStereoPrimary, channelStereoSecondary
				if info.ChannelConfig <= 2 {
					c[3], c[4] = channelStereoPrimary, channelStereoSecondary
				}
			case 6, 7:
				c[0], c[1] = channelStereoPrimary, channelStereoSecondary
				c[4], c[5] = channelStereoPrimary, channelStereoSecondary
				fallthrough
			case 8:
				c[6], c[7] = channelStereoPrimary, channelStereoSecondary
			default:
				return fmt.Errorf("%w: channel group size %d", ErrInvalidArgument, groupSize)
			}
		}
	}

	base := uint32(info.BaseBandCount)
	stereo := uint32(info.StereoBandCount)
	d.channels = make([]*channel, info.ChannelCount)
	for i := range d.channels {
		ch := &channel{
			chType:        types[i],
			hfrScaleIndex: base + stereo,
			codedCount:    base,
		}
		if ch.chType != channelStereoSecondary {
			ch.codedCount += stereo
		}
		d.channels[i] = ch
	}
	return nil
}

// DecodeBlock returns the decoded PCM for one block, decoding and caching
// it on first use. The returned slice is owned by the cache; callers must
// not modify or retain it past the decoder's lifetime.
func (d *Decoder) DecodeBlock(blockIndex uint32) ([]byte, error) {
	if pcm, ok := d.cache.Get(blockIndex); ok {
		return pcm, nil
	}

	info := d.info
	if blockIndex >= info.BlockCount {
		return nil, fmt.Errorf("%w: block %d of %d", ErrInvalidArgument, blockIndex, info.BlockCount)
	}

	blockSize := int(info.BlockSize)
	offset := int64(info.DataOffset) + int64(blockSize)*int64(blockIndex)
	if err := d.stream.SetPosition(offset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	n, err := d.stream.Read(d.blockBuf, 0, blockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if n < blockSize {
		return nil, fmt.Errorf("%w: short read of block %d", ErrDecodeFailed, blockIndex)
	}

	if checksum(d.blockBuf) != 0 {
		return nil, fmt.Errorf("%w: block %d", ErrChecksum, blockIndex)
	}

	d.cipher.Decrypt(d.blockBuf)

	br := newBitReader(d.blockBuf)
	if br.Read(16) != 0xFFFF {
		return nil, fmt.Errorf("%w: bad sync in block %d", ErrDecodeFailed, blockIndex)
	}

	packedNoiseLevel := int32(br.Read(9))<<8 - int32(br.Read(7))
	for _, ch := range d.channels {
		err := ch.unpackBlockHeader(br, info.HfrGroupCount, packedNoiseLevel, d.ath,
			info.MinResolution, info.MaxResolution)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d", err, blockIndex)
		}
	}

	base := uint32(info.BaseBandCount)
	total := uint32(info.TotalBandCount)
	startBand := base + uint32(info.StereoBandCount)
	for subframe := 0; subframe < subframesPerBlock; subframe++ {
		for _, ch := range d.channels {
			ch.dequantizeSpectra(br)
		}
		for _, ch := range d.channels {
			ch.reconstructHighFrequency(info.HfrGroupCount, uint32(info.BandsPerHfrGroup), startBand, total)
		}
		if info.StereoBandCount > 0 {
			for i := 0; i+1 < len(d.channels); i++ {
				applyIntensityStereo(d.channels[i], d.channels[i+1], subframe, base, total)
			}
		}
		for _, ch := range d.channels {
			ch.synthesize(subframe)
		}
	}

	if br.Overrun() {
		return nil, fmt.Errorf("%w: block %d overruns its bit stream", ErrDecodeFailed, blockIndex)
	}

	pcm := make([]byte, d.waveBlockSize)
	convert := d.config.converter()
	cursor := 0
	volume := info.RvaVolume
	for subframe := 0; subframe < subframesPerBlock; subframe++ {
		for sample := 0; sample < samplesPerSubframe; sample++ {
			for _, ch := range d.channels {
				f := ch.wave[subframe][sample] * volume
				if f > 1 {
					f = 1
				} else if f < -1 {
					f = -1
				}
				cursor = convert(f, pcm, cursor)
			}
		}
	}

	d.cache.Put(blockIndex, pcm)
	return pcm, nil
}

// WaveBlockSize returns the size in bytes of one decoded block.
func (d *Decoder) WaveBlockSize() uint32 { return d.waveBlockSize }

// Position returns the current linear read position.
func (d *Decoder) Position() int64 { return d.position }

// SetPosition moves the linear read position. Values past the logical end
// are allowed and yield empty reads.
func (d *Decoder) SetPosition(v int64) { d.position = v }

// loopGeometry returns the block counts before, inside and after the loop
// region.
func (d *Decoder) loopGeometry() (before, in, after int64) {
	info := d.info
	if info.LoopStart > 1 {
		before = int64(info.LoopStart) - 1
	}
	in = int64(info.LoopEnd) - int64(info.LoopStart) + 1
	if info.LoopEnd < info.BlockCount-1 {
		after = int64(info.BlockCount) - 1 - int64(info.LoopEnd)
	}
	return before, in, after
}

// mapLoopedPosition converts a linear output position into a physical one.
// Positions inside the header or before the end of the first loop pass map
// to themselves; later positions are folded back into the loop region.
// After the fold, the header size is subtracted, so the result addresses
// audio bytes directly.
func (d *Decoder) mapLoopedPosition(linearPosition int64) (int64, error) {
	headerSize := int64(0)
	if d.config.WaveHeaderEnabled {
		headerSize = int64(d.WaveHeaderSize())
	}
	info := d.info
	if !info.LoopExists || !d.config.LoopEnabled {
		return linearPosition, nil
	}

	wbs := int64(d.waveBlockSize)
	before, in, _ := d.loopGeometry()
	if linearPosition <= headerSize+(before+in)*wbs {
		return linearPosition, nil
	}

	if d.config.LoopCount == 0 {
		return 0, fmt.Errorf("%w: looping enabled with zero loop count", ErrInvalidArgument)
	}
	loops := (linearPosition - headerSize - before*wbs) / (in * wbs)
	if loops > int64(d.config.LoopCount) {
		loops = int64(d.config.LoopCount)
	}
	return linearPosition - loops*in*wbs - headerSize, nil
}

// Length returns the total number of bytes the decoder will produce.
func (d *Decoder) Length() (int64, error) {
	info := d.info
	headerSize := int64(0)
	if d.config.WaveHeaderEnabled {
		headerSize = int64(d.WaveHeaderSize())
	}
	wbs := int64(d.waveBlockSize)

	if !info.LoopExists || !d.config.LoopEnabled {
		return headerSize + wbs*int64(info.BlockCount), nil
	}
	if d.config.LoopCount == 0 {
		return 0, fmt.Errorf("%w: looping enabled with zero loop count", ErrInvalidArgument)
	}
	before, in, after := d.loopGeometry()
	total := headerSize
	total += (before + after) * wbs
	total += in * int64(d.config.LoopCount) * wbs
	return total, nil
}

// Read copies up to count bytes of the logical output into
// buffer[offset:], starting at the current position, and advances the
// position by the number of bytes copied. A zero return means the position
// is at or past the logical end.
func (d *Decoder) Read(buffer []byte, offset, count int) (int, error) {
	if buffer == nil {
		return 0, fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}
	if offset < 0 || offset > len(buffer) || count < 0 {
		return 0, fmt.Errorf("%w: offset %d count %d", ErrInvalidArgument, offset, count)
	}
	if count > len(buffer)-offset {
		count = len(buffer) - offset
	}
	if count == 0 {
		return 0, nil
	}

	length, err := d.Length()
	if err != nil {
		return 0, err
	}
	mapped, err := d.mapLoopedPosition(d.position)
	if err != nil {
		return 0, err
	}
	if d.position >= length {
		return 0, nil
	}

	headerSize := int64(0)
	if d.config.WaveHeaderEnabled {
		headerSize = int64(d.WaveHeaderSize())
	}

	totalRead := 0
	if mapped < headerSize {
		header := d.generateWaveHeader()
		n := copy(buffer[offset:offset+count], header[mapped:])
		d.position += int64(n)
		offset += n
		count -= n
		totalRead += n
		if count == 0 {
			return totalRead, nil
		}
		mapped, err = d.mapLoopedPosition(d.position)
		if err != nil {
			return totalRead, err
		}
	}

	wbs := int64(d.waveBlockSize)
	for count > 0 && d.position < length {
		// A folded position already has the header subtracted; an
		// unfolded one is returned unchanged and still includes it.
		audio := mapped
		if mapped == d.position {
			audio -= headerSize
		}
		if audio < 0 {
			break
		}
		blockIndex := uint32(audio / wbs)
		blockOffset := audio % wbs

		pcm, err := d.DecodeBlock(blockIndex)
		if err != nil {
			return totalRead, err
		}

		copyLen := wbs - blockOffset
		if int64(count) < copyLen {
			copyLen = int64(count)
		}
		if length-d.position < copyLen {
			copyLen = length - d.position
		}

		copy(buffer[offset:], pcm[blockOffset:blockOffset+copyLen])
		d.position += copyLen
		offset += int(copyLen)
		count -= int(copyLen)
		totalRead += int(copyLen)

		mapped, err = d.mapLoopedPosition(d.position)
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// DecodeToWav streams the whole logical output into w, independent of the
// current read position.
func (d *Decoder) DecodeToWav(w io.Writer) error {
	saved := d.position
	defer func() { d.position = saved }()

	d.position = 0
	buf := make([]byte, 64*1024)
	for {
		n, err := d.Read(buf, 0, len(buf))
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// WaveHeaderSize returns the size of the synthesized WAVE header.
func (d *Decoder) WaveHeaderSize() uint32 {
	if d.waveHeaderSize != 0 {
		return d.waveHeaderSize
	}
	info := d.info
	size := uint32(waveRiffSectionSize)
	if info.LoopExists && !d.config.SoftLoop {
		size += waveSampleSectionSize
	}
	if len(info.Comment) > 0 {
		size += 8 + noteChunkSize(len(info.Comment))
	}
	size += waveDataSectionSize
	d.waveHeaderSize = size
	return size
}

const (
	waveRiffSectionSize   = 36
	waveSampleSectionSize = 68
	waveDataSectionSize   = 8
)

// noteChunkSize is the note payload: a 4-byte name field, the comment, its
// terminator, padded to a multiple of four.
func noteChunkSize(commentLen int) uint32 {
	size := uint32(4 + commentLen + 1)
	if size&3 != 0 {
		size += 4 - size&3
	}
	return size
}

// generateWaveHeader lazily builds the header buffer once.
func (d *Decoder) generateWaveHeader() []byte {
	if d.waveHeader != nil {
		return d.waveHeader
	}

	info := d.info
	headerSize := d.WaveHeaderSize()
	buf := make([]byte, headerSize)

	fmtType := uint16(1) // PCM
	if d.config.SampleFormat == SampleFormatFloat32 {
		fmtType = 3 // IEEE float
	}
	bitCount := uint16(d.config.bytesPerSample() * 8)
	samplingSize := uint32(bitCount/8) * info.ChannelCount
	// Sample rate times frame size: a bytes-per-second quantity. The field
	// layout follows the original header writer for byte compatibility.
	samplesPerSec := info.SamplingRate * samplingSize

	var smplLoopStart, smplLoopEnd uint32
	emitSmpl := info.LoopExists && !d.config.SoftLoop
	if info.LoopExists {
		smplLoopStart = info.LoopStart*samplesPerBlock + uint32(info.EncoderPadding)
		smplLoopEnd = info.LoopEnd * samplesPerBlock
	} else if d.config.SoftLoop {
		smplLoopStart = 0
		smplLoopEnd = info.BlockCount * samplesPerBlock
	}

	dataSize := samplingSize * (info.BlockCount*samplesPerBlock +
		(smplLoopEnd-smplLoopStart)*d.config.LoopCount)

	riffSize := uint32(0x1C) + waveDataSectionSize + dataSize
	if emitSmpl {
		riffSize += waveSampleSectionSize
	}
	if len(info.Comment) > 0 {
		riffSize += 8 + noteChunkSize(len(info.Comment))
	}

	le := binary.LittleEndian
	cursor := 0
	put32 := func(v uint32) { le.PutUint32(buf[cursor:], v); cursor += 4 }
	put16 := func(v uint16) { le.PutUint16(buf[cursor:], v); cursor += 2 }
	putTag := func(tag string) { copy(buf[cursor:], tag); cursor += 4 }

	putTag("RIFF")
	put32(riffSize)
	putTag("WAVE")
	putTag("fmt ")
	put32(0x10)
	put16(fmtType)
	put16(uint16(info.ChannelCount))
	put32(info.SamplingRate)
	put32(samplesPerSec)
	put16(uint16(samplingSize))
	put16(bitCount)

	if emitSmpl {
		putTag("smpl")
		put32(0x3C)
		put32(0) // manufacturer
		put32(0) // product
		put32(uint32(1e9 / float64(info.SamplingRate)))
		put32(0x3C) // MIDI unity note
		put32(0)    // MIDI pitch fraction
		put32(0)    // SMPTE format
		put32(0)    // SMPTE offset
		put32(1)    // loop count
		put32(0x18) // sampler data
		put32(0)    // loop identifier
		put32(0)    // loop type
		put32(smplLoopStart)
		put32(smplLoopEnd)
		put32(0) // fraction
		playCount := uint32(info.LoopPlayCount)
		if playCount == 0x80 {
			playCount = 0
		}
		put32(playCount)
	}

	if len(info.Comment) > 0 {
		noteSize := noteChunkSize(len(info.Comment))
		putTag("note")
		put32(noteSize)
		put32(0) // name
		copy(buf[cursor:], info.Comment)
		cursor += int(noteSize) - 4
	}

	putTag("data")
	put32(dataSize)

	d.waveHeader = buf
	return buf
}
