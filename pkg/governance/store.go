/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store.go
Description: Fixed-layout binary codec for proposal accounts. Translates the
externally-stored account representation into a structured Proposal view and
back. All integers are little-endian; strings are u32 length-prefixed with
bounded maximum sizes. A vote list that overruns the buffer degrades to an
empty list with a warning instead of failing the whole decode.
*/

package governance

import (
	"encoding/binary"

	"github.com/glitchgremlin/glitch-sdk/pkg/interfaces"
	"github.com/sirupsen/logrus"
)

const (
	// MaxTitleLen bounds the proposal title in bytes
	MaxTitleLen = 64
	// MaxDescriptionLen bounds the proposal description in bytes
	MaxDescriptionLen = 256

	// voteRecordSize is the encoded size of one vote record:
	// voter (32) + support (1) + weight (4) + timestamp (8)
	voteRecordSize = 32 + 1 + 4 + 8

	// minProposalSize is the encoded size of a proposal with empty strings
	// and no vote records: two u32 string lengths, proposer key, three i64
	// timestamps, three u32 vote counters, u32 quorum, executed flag, state
	// tag, and the u32 vote list length.
	minProposalSize = 4 + 4 + 32 + 3*8 + 3*4 + 4 + 1 + 1 + 4
)

// ProposalStore encodes and decodes proposal account buffers
type ProposalStore struct {
	log *logrus.Logger
}

// NewProposalStore creates a proposal codec. A nil logger falls back to the
// logrus standard logger.
func NewProposalStore(log *logrus.Logger) *ProposalStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProposalStore{log: log}
}

// bufReader walks a buffer with bounds checking. After any failed read the
// ok flag stays false and subsequent reads return zero values.
type bufReader struct {
	buf []byte
	off int
	ok  bool
}

func newBufReader(buf []byte) *bufReader {
	return &bufReader{buf: buf, ok: true}
}

func (r *bufReader) u8() uint8 {
	if !r.ok || r.off+1 > len(r.buf) {
		r.ok = false
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *bufReader) u32() uint32 {
	if !r.ok || r.off+4 > len(r.buf) {
		r.ok = false
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *bufReader) i64() int64 {
	if !r.ok || r.off+8 > len(r.buf) {
		r.ok = false
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}

func (r *bufReader) bytes(n int) []byte {
	if !r.ok || n < 0 || r.off+n > len(r.buf) {
		r.ok = false
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *bufReader) address() interfaces.Address {
	var addr interfaces.Address
	copy(addr[:], r.bytes(32))
	return addr
}

// Decode parses a proposal account buffer. It fails with ErrMalformedData
// when the fixed-field region is truncated or a string exceeds its bound.
// The variable-length vote list is decoded on a best-effort basis: an
// overrun there logs a warning and yields an empty vote list.
func (s *ProposalStore) Decode(buf []byte) (*Proposal, error) {
	if len(buf) < minProposalSize {
		return nil, ErrMalformedData.WithMessagef("buffer too short: %d bytes, need at least %d", len(buf), minProposalSize)
	}

	r := newBufReader(buf)

	titleLen := r.u32()
	if !r.ok || titleLen > MaxTitleLen {
		return nil, ErrMalformedData.WithMessagef("title length %d exceeds maximum %d", titleLen, MaxTitleLen)
	}
	title := r.bytes(int(titleLen))

	descLen := r.u32()
	if !r.ok || descLen > MaxDescriptionLen {
		return nil, ErrMalformedData.WithMessagef("description length %d exceeds maximum %d", descLen, MaxDescriptionLen)
	}
	desc := r.bytes(int(descLen))

	proposer := r.address()
	startTime := r.i64()
	endTime := r.i64()
	timeLockEnd := r.i64()
	yes := r.u32()
	no := r.u32()
	abstain := r.u32()
	quorum := r.u32()
	executed := r.u8()
	stateTag := r.u8()

	if !r.ok {
		return nil, ErrMalformedData.WithMessagef("fixed fields truncated at offset %d", r.off)
	}

	state := ProposalState(stateTag)
	if stateTag > uint8(StateCancelled) {
		// Out-of-range tags are surfaced explicitly instead of being
		// silently treated as Draft.
		state = StateUnknown
	}

	proposal := &Proposal{
		Title:       string(title),
		Description: string(desc),
		Proposer:    proposer,
		StartTime:   startTime,
		EndTime:     endTime,
		TimeLockEnd: timeLockEnd,
		Votes:       VoteCounts{Yes: yes, No: no, Abstain: abstain},
		Quorum:      quorum,
		Executed:    executed != 0,
		State:       state,
	}

	proposal.VoteRecords = s.decodeVoteList(r)
	return proposal, nil
}

// decodeVoteList parses the trailing vote records. Recoverable by design:
// any overrun abandons the list rather than the whole proposal.
func (s *ProposalStore) decodeVoteList(r *bufReader) []VoteRecord {
	count := r.u32()
	if !r.ok {
		s.log.WithField("offset", r.off).Warn("Vote list header truncated, continuing with empty vote list")
		return nil
	}

	if int(count)*voteRecordSize > len(r.buf)-r.off {
		s.log.WithFields(logrus.Fields{
			"declared_votes":  count,
			"remaining_bytes": len(r.buf) - r.off,
		}).Warn("Vote list overruns account buffer, continuing with empty vote list")
		return nil
	}

	records := make([]VoteRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		rec := VoteRecord{
			Voter:     r.address(),
			Support:   VoteSupport(r.u8()),
			Weight:    r.u32(),
			Timestamp: r.i64(),
		}
		if !r.ok {
			s.log.WithField("record", i).Warn("Vote record truncated, continuing with empty vote list")
			return nil
		}
		records = append(records, rec)
	}
	return records
}

// Encode serializes a proposal into its account buffer form. Historical vote
// lists are written as-is; they are normally owned by the chain program, not
// by this component.
func (s *ProposalStore) Encode(p *Proposal) ([]byte, error) {
	if len(p.Title) > MaxTitleLen {
		return nil, ErrInvalidProposalParameters.WithMessagef("title exceeds %d bytes", MaxTitleLen)
	}
	if len(p.Description) > MaxDescriptionLen {
		return nil, ErrInvalidProposalParameters.WithMessagef("description exceeds %d bytes", MaxDescriptionLen)
	}

	size := minProposalSize + len(p.Title) + len(p.Description) + len(p.VoteRecords)*voteRecordSize
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Title)))
	buf = append(buf, p.Title...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Description)))
	buf = append(buf, p.Description...)
	buf = append(buf, p.Proposer[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.StartTime))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.EndTime))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.TimeLockEnd))
	buf = binary.LittleEndian.AppendUint32(buf, p.Votes.Yes)
	buf = binary.LittleEndian.AppendUint32(buf, p.Votes.No)
	buf = binary.LittleEndian.AppendUint32(buf, p.Votes.Abstain)
	buf = binary.LittleEndian.AppendUint32(buf, p.Quorum)
	if p.Executed {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(p.State))

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.VoteRecords)))
	for _, rec := range p.VoteRecords {
		buf = append(buf, rec.Voter[:]...)
		buf = append(buf, byte(rec.Support))
		buf = binary.LittleEndian.AppendUint32(buf, rec.Weight)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.Timestamp))
	}

	return buf, nil
}
