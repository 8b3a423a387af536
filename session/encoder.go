package session

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/jhyun-dev/sessiongate/clientinfo"
)

const (
	formatVersionCurrent = 2
	formatVersionV1      = 1
)

const (
	memberFlagActive   = 1 << 0
	memberFlagWithdraw = 1 << 1

	clientFlagRobot = 1 << 0
)

// ErrCorruptSession is returned when a stored blob cannot be decoded.
var ErrCorruptSession = errors.New("corrupt session blob")

// Encode serializes a session to the current binary schema. The session id is
// not part of the blob; it is the store key.
//
// Layout (v2): version u8, memberID (len u8 + bytes, 0 = anonymous), then for
// attached members role/social/platform (len u8 + bytes each) and a flags
// byte, then createdAt/lastAccessAt as big-endian int64, then the client
// context (ip len u8 + bytes, device u8, flags u8). The member id offset is
// fixed so the Redis Lua scripts can read it without a full decode.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(formatVersionCurrent)

	if err := writeString(&buf, s.MemberID()); err != nil {
		return nil, err
	}

	if s.Member != nil {
		if err := writeString(&buf, s.Member.Role); err != nil {
			return nil, err
		}
		if err := writeString(&buf, s.Member.Social); err != nil {
			return nil, err
		}
		if err := writeString(&buf, s.Member.Platform); err != nil {
			return nil, err
		}

		var flags byte
		if s.Member.Active {
			flags |= memberFlagActive
		}
		if s.Member.Withdraw {
			flags |= memberFlagWithdraw
		}
		buf.WriteByte(flags)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastAccessAt); err != nil {
		return nil, err
	}

	if err := writeString(&buf, s.Client.IP); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(s.Client.Device))

	var clientFlags byte
	if s.Client.IsRobot {
		clientFlags |= clientFlagRobot
	}
	buf.WriteByte(clientFlags)

	return buf.Bytes(), nil
}

// Decode deserializes a session blob. v1 blobs (no client context) decode with
// a zero client context; the next save migrates them forward.
func Decode(data []byte) (*Session, error) {
	r := &blobReader{data: data}

	version, err := r.byte()
	if err != nil {
		return nil, ErrCorruptSession
	}
	if version < formatVersionV1 || version > formatVersionCurrent {
		return nil, ErrCorruptSession
	}

	s := &Session{}

	memberID, err := r.str()
	if err != nil {
		return nil, ErrCorruptSession
	}

	if memberID != "" {
		m := &Member{ID: memberID}
		if m.Role, err = r.str(); err != nil {
			return nil, ErrCorruptSession
		}
		if m.Social, err = r.str(); err != nil {
			return nil, ErrCorruptSession
		}
		if m.Platform, err = r.str(); err != nil {
			return nil, ErrCorruptSession
		}

		flags, err := r.byte()
		if err != nil {
			return nil, ErrCorruptSession
		}
		m.Active = flags&memberFlagActive != 0
		m.Withdraw = flags&memberFlagWithdraw != 0
		s.Member = m
	}

	if s.CreatedAt, err = r.int64(); err != nil {
		return nil, ErrCorruptSession
	}
	if s.LastAccessAt, err = r.int64(); err != nil {
		return nil, ErrCorruptSession
	}

	if version >= formatVersionCurrent {
		ip, err := r.str()
		if err != nil {
			return nil, ErrCorruptSession
		}
		device, err := r.byte()
		if err != nil {
			return nil, ErrCorruptSession
		}
		clientFlags, err := r.byte()
		if err != nil {
			return nil, ErrCorruptSession
		}

		s.Client = clientinfo.ClientContext{
			IP:      ip,
			Device:  clientinfo.Device(device),
			IsRobot: clientFlags&clientFlagRobot != 0,
		}
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, v string) error {
	if len(v) > 255 {
		return errors.New("session field too long")
	}
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)
	return nil
}

type blobReader struct {
	data []byte
	pos  int
}

func (r *blobReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrCorruptSession
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *blobReader) str() (string, error) {
	n, err := r.byte()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", ErrCorruptSession
	}
	v := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return v, nil
}

func (r *blobReader) int64() (int64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrCorruptSession
	}
	v := int64(binary.BigEndian.Uint64(r.data[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}
