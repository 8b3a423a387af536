package session

import (
	"errors"
	"testing"
	"time"

	"github.com/jhyun-dev/sessiongate/clientinfo"
)

func memberSession() *Session {
	now := time.Now()
	return &Session{
		ID: "sid-1",
		Member: &Member{
			ID:       "github_8412",
			Role:     "ADMIN_USER",
			Active:   true,
			Social:   "GITHUB",
			Platform: "github",
		},
		CreatedAt:    now.Unix(),
		LastAccessAt: now.Unix(),
		Client: clientinfo.ClientContext{
			IP:      "203.0.113.7",
			Device:  clientinfo.DeviceChrome,
			IsRobot: false,
		},
	}
}

func TestEncodeDecodeMemberSession(t *testing.T) {
	in := memberSession()

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out.ID = in.ID

	if out.Member == nil || out.Member.ID != in.Member.ID {
		t.Fatalf("member id = %+v, want %q", out.Member, in.Member.ID)
	}
	if out.Member.Role != "ADMIN_USER" || !out.Member.Active || out.Member.Withdraw {
		t.Fatalf("member fields lost: %+v", out.Member)
	}
	if out.Member.Platform != "github" || out.Member.Social != "GITHUB" {
		t.Fatalf("platform fields lost: %+v", out.Member)
	}
	if out.Client != in.Client {
		t.Fatalf("client context = %+v, want %+v", out.Client, in.Client)
	}
	if out.CreatedAt != in.CreatedAt || out.LastAccessAt != in.LastAccessAt {
		t.Fatalf("timestamps lost: %+v", out)
	}
}

func TestEncodeDecodeAnonymous(t *testing.T) {
	in := NewAnonymous(time.Now())
	in.Client = clientinfo.ClientContext{IP: "127.0.0.1"}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Member != nil {
		t.Fatalf("expected anonymous, got member %+v", out.Member)
	}
	if out.Authenticated() {
		t.Fatal("anonymous session must not report authenticated")
	}
}

func TestDecodeV1BlobMigratesForward(t *testing.T) {
	// A v2 blob truncated before the client context is exactly the v1 layout.
	in := memberSession()
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	v1 := make([]byte, len(data)-len(in.Client.IP)-3)
	copy(v1, data)
	v1[0] = formatVersionV1

	out, err := Decode(v1)
	if err != nil {
		t.Fatalf("decode v1: %v", err)
	}
	if out.Member == nil || out.Member.ID != in.Member.ID {
		t.Fatalf("member lost in v1 decode: %+v", out.Member)
	}
	if out.Client != (clientinfo.ClientContext{}) {
		t.Fatalf("v1 blob must decode with zero client context, got %+v", out.Client)
	}
}

func TestDecodeRejectsCorruptBlobs(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{9},             // unknown version
		{2, 200, 'a'},   // member length past end
		{2, 0, 1, 2, 3}, // truncated timestamps
	}

	for _, data := range cases {
		if _, err := Decode(data); !errors.Is(err, ErrCorruptSession) {
			t.Fatalf("Decode(%v) err = %v, want ErrCorruptSession", data, err)
		}
	}
}
