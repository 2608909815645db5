package audio

import (
	"encoding/binary"
	"os"
)

// wavWriter streams 16-bit PCM into a WAV file. The 44-byte header is
// written up front with zero sizes and patched on Close, so a crash
// mid-recording leaves an obviously truncated file rather than a lying one.
type wavWriter struct {
	f        *os.File
	dataSize uint32
}

func newWAVWriter(path string, sampleRate, channels int) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	header := make([]byte, WAVHeaderSize)
	copy(header[0:4], "RIFF")
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*2)) // block align
	binary.LittleEndian.PutUint16(header[34:36], 16)                 // bits per sample
	copy(header[36:40], "data")

	if _, err := f.Write(header); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return &wavWriter{f: f}, nil
}

func (w *wavWriter) Write(pcm []byte) error {
	n, err := w.f.Write(pcm)
	w.dataSize += uint32(n)
	return err
}

func (w *wavWriter) Close() error {
	sizes := make([]byte, 4)

	binary.LittleEndian.PutUint32(sizes, uint32(WAVHeaderSize-8)+w.dataSize)
	if _, err := w.f.WriteAt(sizes, 4); err != nil {
		w.f.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizes, w.dataSize)
	if _, err := w.f.WriteAt(sizes, 40); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
