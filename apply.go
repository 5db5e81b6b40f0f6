package cardano

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Flat field widths and limits.
const (
	flatTermTagBits     = 4
	flatTypeTagBits     = 4
	flatTypeData        = 8
	flatBytesChunkLimit = 255
)

// ApplyParams applies each parameter, in order, to the program held by
// script: (((program p0) p1) ...). The program term is copied into the new
// program bit by bit, with the filler before every byte string re-aligned to
// its new offset.
func ApplyParams(script PlutusScript, params ...PlutusData) (applied PlutusScript, err error) {
	if len(params) == 0 {
		return script, nil
	}

	flat, err := script.Flat()
	if err != nil {
		return
	}

	version, term, err := splitFlatProgram(flat)
	if err != nil {
		return
	}

	args := make([][]byte, len(params))
	for i, p := range params {
		if p == nil {
			err = errors.Wrapf(ErrInvalidScript, "nil parameter at index %d", i)
			return
		}
		if args[i], err = p.MarshalCBOR(); err != nil {
			err = errors.Wrapf(err, "failed to encode parameter %d", i)
			return
		}
	}

	w := &bitWriter{}
	w.writeBytes(version)
	for range params {
		w.writeBits(flatApply, flatTermTagBits)
	}
	if err = w.writeTerm(term); err != nil {
		err = errors.Wrap(ErrInvalidScript, err.Error())
		return
	}
	for _, arg := range args {
		w.writeDataConstant(arg)
	}
	w.pad()

	code, err := cbor.Marshal(w.bytes())
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	return PlutusScript{Version: script.Version, Cbor: code}, nil
}

// splitFlatProgram returns the three version bytes and the term bits of a
// flat encoded program, excluding the trailing 0*1 padding. The padding
// cannot be told apart from trailing zero bits of the term, so the term is
// walked to find where it ends.
func splitFlatProgram(flat []byte) (version []byte, term bitString, err error) {
	// each version component is a natural; anything above 127 would not fit
	// one byte and no released language version needs that
	if len(flat) < 4 {
		err = errors.Wrapf(ErrInvalidScript, "flat program too short: %d bytes", len(flat))
		return
	}
	for _, b := range flat[:3] {
		if b&0x80 != 0 {
			err = errors.Wrap(ErrInvalidScript, "unsupported program version encoding")
			return
		}
	}

	body := flat[3:]
	r := &bitReader{data: body}
	if err = r.skipTerm(); err != nil {
		err = errors.Wrap(ErrInvalidScript, err.Error())
		return
	}
	length := r.pos

	if err = r.skipPad(); err != nil || r.pos != len(body)*8 {
		err = errors.Wrap(ErrInvalidScript, "flat program has trailing data after its term")
		return
	}

	return flat[:3], bitString{data: body, length: length}, nil
}

// Flat term tags.
const (
	flatVar = iota
	flatDelay
	flatLambda
	flatApply
	flatConstant
	flatForce
	flatError
	flatBuiltin
	flatConstr
	flatCase
)

// Flat constant type tags.
const (
	flatTypeInteger = iota
	flatTypeByteString
	flatTypeString
	flatTypeUnit
	flatTypeBool
	flatTypeList
	flatTypePair
	flatTypeApplication
)

const flatBuiltinTagBits = 7

// bitReader walks flat encoded terms. When out is set every bit read is
// written to it, except filler which is rewritten for out's own alignment.
type bitReader struct {
	data []byte
	pos  int
	out  *bitWriter
}

func (r *bitReader) bit() (bool, error) {
	if r.pos >= len(r.data)*8 {
		return false, errors.New("unexpected end of flat program")
	}
	set := r.data[r.pos/8]&(0x80>>(r.pos%8)) != 0
	r.pos++
	if r.out != nil {
		r.out.writeBit(set)
	}
	return set, nil
}

func (r *bitReader) bits(n int) (value uint64, err error) {
	for i := 0; i < n; i++ {
		set, err := r.bit()
		if err != nil {
			return 0, err
		}
		value <<= 1
		if set {
			value |= 1
		}
	}
	return
}

// skipNatural skips a variable length natural: 7 bit groups, each prefixed
// by a continuation bit.
func (r *bitReader) skipNatural() error {
	for {
		group, err := r.bits(8)
		if err != nil {
			return err
		}
		if group&0x80 == 0 {
			return nil
		}
	}
}

func (r *bitReader) skipPad() error {
	out := r.out
	r.out = nil
	defer func() {
		r.out = out
	}()

	for {
		set, err := r.bit()
		if err != nil {
			return err
		}
		if set {
			break
		}
	}
	if r.pos%8 != 0 {
		return errors.New("misaligned flat padding")
	}

	if out != nil {
		out.pad()
	}
	return nil
}

func (r *bitReader) skipByteString() error {
	if err := r.skipPad(); err != nil {
		return err
	}
	for {
		n, err := r.bits(8)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if r.pos+int(n)*8 > len(r.data)*8 {
			return errors.New("flat byte string runs past the end of the program")
		}
		for i := uint64(0); i < n; i++ {
			if _, err = r.bits(8); err != nil {
				return err
			}
		}
	}
}

// skipList calls item for every element of a flat list.
func (r *bitReader) skipList(item func() error) error {
	for {
		more, err := r.bit()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err = item(); err != nil {
			return err
		}
	}
}

func (r *bitReader) skipTerm() error {
	tag, err := r.bits(flatTermTagBits)
	if err != nil {
		return err
	}

	switch tag {
	case flatVar:
		return r.skipNatural()
	case flatDelay, flatLambda, flatForce:
		return r.skipTerm()
	case flatApply:
		if err = r.skipTerm(); err != nil {
			return err
		}
		return r.skipTerm()
	case flatConstant:
		return r.skipConstant()
	case flatError:
		return nil
	case flatBuiltin:
		_, err = r.bits(flatBuiltinTagBits)
		return err
	case flatConstr:
		if err = r.skipNatural(); err != nil {
			return err
		}
		return r.skipList(r.skipTerm)
	case flatCase:
		if err = r.skipTerm(); err != nil {
			return err
		}
		return r.skipList(r.skipTerm)
	default:
		return errors.Errorf("unknown flat term tag %d", tag)
	}
}

type flatType struct {
	tag  uint64
	args []flatType
}

func (r *bitReader) skipConstant() error {
	var tags []uint64
	err := r.skipList(func() error {
		tag, err := r.bits(flatTypeTagBits)
		tags = append(tags, tag)
		return err
	})
	if err != nil {
		return err
	}

	typ, rest, err := parseFlatType(tags)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing constant type tags")
	}
	return r.skipValue(typ)
}

func parseFlatType(tags []uint64) (typ flatType, rest []uint64, err error) {
	if len(tags) == 0 {
		err = errors.New("missing constant type")
		return
	}

	tag, rest := tags[0], tags[1:]
	switch tag {
	case flatTypeInteger, flatTypeByteString, flatTypeString, flatTypeUnit, flatTypeBool, flatTypeData:
		return flatType{tag: tag}, rest, nil
	case flatTypeApplication:
		if len(rest) > 0 && rest[0] == flatTypeList {
			var elem flatType
			if elem, rest, err = parseFlatType(rest[1:]); err != nil {
				return
			}
			return flatType{tag: flatTypeList, args: []flatType{elem}}, rest, nil
		}
		if len(rest) > 1 && rest[0] == flatTypeApplication && rest[1] == flatTypePair {
			var first, second flatType
			if first, rest, err = parseFlatType(rest[2:]); err != nil {
				return
			}
			if second, rest, err = parseFlatType(rest); err != nil {
				return
			}
			return flatType{tag: flatTypePair, args: []flatType{first, second}}, rest, nil
		}
	}

	err = errors.Errorf("unsupported constant type tag %d", tag)
	return
}

func (r *bitReader) skipValue(typ flatType) error {
	switch typ.tag {
	case flatTypeInteger:
		return r.skipNatural()
	case flatTypeByteString, flatTypeString, flatTypeData:
		return r.skipByteString()
	case flatTypeUnit:
		return nil
	case flatTypeBool:
		_, err := r.bit()
		return err
	case flatTypeList:
		return r.skipList(func() error { return r.skipValue(typ.args[0]) })
	case flatTypePair:
		if err := r.skipValue(typ.args[0]); err != nil {
			return err
		}
		return r.skipValue(typ.args[1])
	}
	return errors.Errorf("unsupported constant type tag %d", typ.tag)
}

type bitString struct {
	data   []byte
	length int
}

type bitWriter struct {
	buf  []byte
	used int
}

func (w *bitWriter) writeBit(bit bool) {
	if w.used%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit {
		w.buf[len(w.buf)-1] |= 0x80 >> (w.used % 8)
	}
	w.used++
}

func (w *bitWriter) writeBits(value uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.writeBit(value>>i&1 == 1)
	}
}

func (w *bitWriter) writeBytes(data []byte) {
	for _, b := range data {
		w.writeBits(uint64(b), 8)
	}
}

// writeTerm re-emits the term held by s at the writer's current offset.
func (w *bitWriter) writeTerm(s bitString) error {
	r := &bitReader{data: s.data, out: w}
	if err := r.skipTerm(); err != nil {
		return err
	}
	if r.pos != s.length {
		return errors.Errorf("term length mismatch: %d != %d bits", r.pos, s.length)
	}
	return nil
}

// pad writes zeros followed by a one so the stream ends on a byte boundary.
func (w *bitWriter) pad() {
	for w.used%8 != 7 {
		w.writeBit(false)
	}
	w.writeBit(true)
}

// writeDataConstant writes a constant term of type data holding the given
// cbor encoded plutus data.
func (w *bitWriter) writeDataConstant(encoded []byte) {
	w.writeBits(flatConstant, flatTermTagBits)

	// type tag list: one element (data)
	w.writeBit(true)
	w.writeBits(flatTypeData, flatTypeTagBits)
	w.writeBit(false)

	w.pad()
	for start := 0; start < len(encoded); start += flatBytesChunkLimit {
		chunk := encoded[start:min(start+flatBytesChunkLimit, len(encoded))]
		w.writeBits(uint64(len(chunk)), 8)
		w.writeBytes(chunk)
	}
	w.writeBits(0, 8)
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}
