// Package snapshot implements the looper's on-disk save/load format: a
// versioned little-endian binary layout of scalar track records, each
// followed by the recorded float32 PCM of both channels.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	clone "github.com/huandu/go-clone/generic"

	"github.com/chriskillpack/boocli/engine"
)

var (
	magic = [4]byte{'B', 'O', 'O', 'C'}

	// ErrSnapshotMagic is returned by Load when the file does not begin
	// with the expected magic bytes.
	ErrSnapshotMagic = errors.New("snapshot: bad magic")

	// ErrSnapshotTrackCount is returned by Load when the header's track
	// count is zero or negative.
	ErrSnapshotTrackCount = errors.New("snapshot: invalid track count")

	// ErrSnapshotTrackRecord is returned by Load when a track record
	// carries a negative end cursor.
	ErrSnapshotTrackRecord = errors.New("snapshot: invalid track record")
)

const formatVersion = 1

// header is the fixed-size preamble of a snapshot file.
type header struct {
	Magic         [4]byte
	Version       uint32
	NumTracks     int32
	TimesignIndex int32
}

// trackRecord is the scalar-only per-track payload; the sample arrays
// follow immediately after in the stream and are not part of this struct
// so that encoding/binary can (de)serialize it with a single Read/Write.
// Transient pad status (PLAY/RECORD/MUTE/...) is deliberately not part of
// this record - every pad is reset to OFF on load, so there is nothing to
// persist.
type trackRecord struct {
	RecordCursorL, RecordCursorR int32
	RecordBarL, RecordBarR       int32
	PlayCursorL, PlayCursorR     int32
	PlayBarL, PlayBarR           int32
	EndCursorL, EndCursorR       int32
	EndBarL, EndBarR             int32
	Volume                       float32
	RecordBars                   int32
}

// Save writes a point-in-time copy of eng's state to w. A deep clone is
// taken before any I/O so the realtime thread can keep mutating the live
// engine concurrently with the (potentially slow) write.
func Save(w io.Writer, eng *engine.Engine) error {
	snap := clone.Clone(eng)

	hdr := header{
		Magic:         magic,
		Version:       formatVersion,
		NumTracks:     int32(len(snap.Tracks)),
		TimesignIndex: int32(snap.BBT.SignatureIndex()),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	for _, t := range snap.Tracks {
		rec := trackRecordFromTrack(t)
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("snapshot: write track %d: %w", t.Index, err)
		}

		left, right := t.EndSamples()
		if len(left) > 0 {
			if err := binary.Write(w, binary.LittleEndian, left); err != nil {
				return fmt.Errorf("snapshot: write track %d left samples: %w", t.Index, err)
			}
		}
		if len(right) > 0 {
			if err := binary.Write(w, binary.LittleEndian, right); err != nil {
				return fmt.Errorf("snapshot: write track %d right samples: %w", t.Index, err)
			}
		}
	}
	return nil
}

// Load reads a snapshot from r and applies it onto eng in place, preserving
// eng's existing audio buffer backing arrays (copying samples into them
// rather than replacing the slices). Tracks whose file record shows no
// recording in either channel are left untouched, so an empty slot in the
// file never overwrites a track already holding audio in memory. Every
// track restored from the file has its transient status reset to OFF and
// its volume set to 1.0; skipped tracks, and tracks beyond the file's
// track count, keep their status and volume.
func Load(r io.Reader, eng *engine.Engine) error {
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("snapshot: read header: %w", err)
	}
	if hdr.Magic != magic {
		return ErrSnapshotMagic
	}
	if hdr.NumTracks <= 0 {
		return ErrSnapshotTrackCount
	}

	numTracks := int(hdr.NumTracks)
	if numTracks > len(eng.Tracks) {
		numTracks = len(eng.Tracks)
	}

	eng.BBT.SetSignatureIndex(int(hdr.TimesignIndex))

	for i := 0; i < numTracks; i++ {
		var rec trackRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("snapshot: read track %d: %w", i, err)
		}
		if rec.EndCursorL < 0 || rec.EndCursorR < 0 {
			return fmt.Errorf("%w: track %d", ErrSnapshotTrackRecord, i)
		}

		left := make([]float32, rec.EndCursorL)
		right := make([]float32, rec.EndCursorR)
		if rec.EndCursorL != 0 {
			if err := binary.Read(r, binary.LittleEndian, left); err != nil {
				return fmt.Errorf("snapshot: read track %d left samples: %w", i, err)
			}
		}
		if rec.EndCursorR != 0 {
			if err := binary.Read(r, binary.LittleEndian, right); err != nil {
				return fmt.Errorf("snapshot: read track %d right samples: %w", i, err)
			}
		}

		if rec.EndCursorL == 0 && rec.EndCursorR == 0 {
			continue
		}

		eng.Tracks[i].ApplySnapshot(engine.TrackSnapshot{
			RecordCursorL: int(rec.RecordCursorL), RecordCursorR: int(rec.RecordCursorR),
			RecordBarL: int(rec.RecordBarL), RecordBarR: int(rec.RecordBarR),
			PlayCursorL: int(rec.PlayCursorL), PlayCursorR: int(rec.PlayCursorR),
			PlayBarL: int(rec.PlayBarL), PlayBarR: int(rec.PlayBarR),
			EndCursorL: int(rec.EndCursorL), EndCursorR: int(rec.EndCursorR),
			EndBarL: int(rec.EndBarL), EndBarR: int(rec.EndBarR),
			Volume: 1.0, RecordBars: int(rec.RecordBars),
			Left: left, Right: right,
		})
	}

	return nil
}

func trackRecordFromTrack(t *engine.Track) trackRecord {
	s := t.Snapshot()
	return trackRecord{
		RecordCursorL: int32(s.RecordCursorL), RecordCursorR: int32(s.RecordCursorR),
		RecordBarL: int32(s.RecordBarL), RecordBarR: int32(s.RecordBarR),
		PlayCursorL: int32(s.PlayCursorL), PlayCursorR: int32(s.PlayCursorR),
		PlayBarL: int32(s.PlayBarL), PlayBarR: int32(s.PlayBarR),
		EndCursorL: int32(s.EndCursorL), EndCursorR: int32(s.EndCursorR),
		EndBarL: int32(s.EndBarL), EndBarR: int32(s.EndBarR),
		Volume: t.Volume, RecordBars: int32(t.RecordBars),
	}
}

// Bytes serializes eng into a standalone []byte, for tests and for the
// CLI's -snapshot path when buffering before an atomic file rename.
func Bytes(eng *engine.Engine) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(&buf, eng); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
