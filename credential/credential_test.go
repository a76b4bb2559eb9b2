package credential

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unkn0wn-root/idcache/log"
)

type memStore struct {
	mu    sync.Mutex
	m     map[string]string
	err   error
	reads int
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.m[name]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, name, value string, _ time.Duration) error {
	s.mu.Lock()
	s.m[name] = value
	s.mu.Unlock()
	return nil
}

func (s *memStore) Expire(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.m, name)
	s.mu.Unlock()
	return nil
}

type entry struct {
	level, msg string
	f          log.Fields
}

type recLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recLogger) add(level, msg string, f log.Fields) {
	l.mu.Lock()
	l.entries = append(l.entries, entry{level, msg, f})
	l.mu.Unlock()
}
func (l *recLogger) Debug(m string, f log.Fields) { l.add("debug", m, f) }
func (l *recLogger) Info(m string, f log.Fields)  { l.add("info", m, f) }
func (l *recLogger) Warn(m string, f log.Fields)  { l.add("warn", m, f) }
func (l *recLogger) Error(m string, f log.Fields) { l.add("error", m, f) }

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestJWTDecodesClaimsWithoutVerifying(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"id": "u1", "plan": "free"})

	got, err := JWT[map[string]any]{}.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got["id"] != "u1" || got["plan"] != "free" {
		t.Fatalf("claims=%v", got)
	}
}

// rawToken assembles a compact JWS from literal JSON segments.
func rawToken(header, payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload)) + ".c2ln"
}

func TestJWTIgnoresHeader(t *testing.T) {
	for name, header := range map[string]string{
		"unregistered alg": `{"alg":"ES256K","typ":"JWT"}`,
		"missing alg":      `{"typ":"JWT"}`,
		"alg none":         `{"alg":"none"}`,
		"header not json":  `not json`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := JWT[map[string]any]{}.Decode(rawToken(header, `{"id":"u1"}`))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(got) != 1 || got["id"] != "u1" {
				t.Fatalf("claims=%v", got)
			}
		})
	}
}

func TestJWTWrongSegmentCount(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "a.b.c.d"} {
		_, err := JWT[map[string]any]{}.Decode(tok)
		var de *DecodeError
		if !errors.As(err, &de) || de.Reason != "malformed" || !errors.Is(err, jwt.ErrTokenMalformed) {
			t.Errorf("Decode(%q) err=%v", tok, err)
		}
	}
}

func TestTokenReaderNullClaimsIsAbsent(t *testing.T) {
	s := newMemStore()
	_ = s.Set(context.Background(), DefaultName, rawToken(`{"alg":"HS256"}`, `null`), 0)
	r := &TokenReader[map[string]any]{Store: s}
	if v, ok := r.Read(context.Background()); ok || v != nil {
		t.Fatalf("Read=%v ok=%v", v, ok)
	}
}

func TestJWTDecodesIntoStruct(t *testing.T) {
	type session struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	tok := signed(t, jwt.MapClaims{"id": "u1", "email": "ada@example.com"})

	got, err := JWT[session]{}.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != (session{ID: "u1", Email: "ada@example.com"}) {
		t.Fatalf("got=%+v", got)
	}
}

func TestJWTRejectsMalformedAndBadClaims(t *testing.T) {
	_, err := JWT[map[string]any]{}.Decode("not.a.jwt")
	var de *DecodeError
	if !errors.As(err, &de) || de.Reason != "malformed" {
		t.Fatalf("expected malformed DecodeError, got %v", err)
	}

	type strict struct {
		ID int `json:"id"`
	}
	_, err = JWT[strict]{}.Decode(signed(t, jwt.MapClaims{"id": "not-a-number"}))
	if !errors.As(err, &de) || de.Reason != "claims" {
		t.Fatalf("expected claims DecodeError, got %v", err)
	}
}

func TestTokenReaderMissingSlotIsAbsent(t *testing.T) {
	lg := &recLogger{}
	r := &TokenReader[map[string]any]{Store: newMemStore(), Logger: lg}

	if v, ok := r.Read(context.Background()); ok || v != nil {
		t.Fatalf("expected absent, got %v ok=%v", v, ok)
	}
	if len(lg.entries) != 0 {
		t.Fatalf("missing slot must not log, got %v", lg.entries)
	}
}

func TestTokenReaderDecodesDefaultSlot(t *testing.T) {
	st := newMemStore()
	_ = st.Set(context.Background(), DefaultName, signed(t, jwt.MapClaims{"id": "u1"}), 0)
	r := &TokenReader[map[string]any]{Store: st}

	v, ok := r.Read(context.Background())
	if !ok || v["id"] != "u1" {
		t.Fatalf("Read=%v ok=%v", v, ok)
	}
}

func TestTokenReaderWarnsAndYieldsAbsentOnGarbage(t *testing.T) {
	st := newMemStore()
	_ = st.Set(context.Background(), "session", "garbage", 0)
	lg := &recLogger{}
	var reasons []string
	r := &TokenReader[map[string]any]{
		Store:    st,
		Name:     "session",
		Logger:   lg,
		OnReject: func(_, reason string) { reasons = append(reasons, reason) },
	}

	if _, ok := r.Read(context.Background()); ok {
		t.Fatalf("expected absent for garbage token")
	}
	if len(lg.entries) != 1 || lg.entries[0].level != "warn" {
		t.Fatalf("expected one warning, got %v", lg.entries)
	}
	if lg.entries[0].f["token"] == "garbage" {
		t.Fatalf("token must be redacted in logs")
	}
	if len(reasons) != 1 || reasons[0] != "malformed" {
		t.Fatalf("reasons=%v", reasons)
	}
}

func TestTokenReaderSwallowsStoreErrors(t *testing.T) {
	st := newMemStore()
	st.err = errors.New("jar unavailable")
	var reasons []string
	r := &TokenReader[map[string]any]{
		Store:    st,
		OnReject: func(_, reason string) { reasons = append(reasons, reason) },
	}

	if _, ok := r.Read(context.Background()); ok {
		t.Fatalf("expected absent on store error")
	}
	if len(reasons) != 1 || reasons[0] != "store_error" {
		t.Fatalf("reasons=%v", reasons)
	}
}

func TestTokenReaderCustomDecoder(t *testing.T) {
	st := newMemStore()
	_ = st.Set(context.Background(), DefaultName, "u42", 0)
	r := &TokenReader[string]{
		Store:   st,
		Decoder: DecoderFunc[string](func(tok string) (string, error) { return "user:" + tok, nil }),
	}
	if v, ok := r.Read(context.Background()); !ok || v != "user:u42" {
		t.Fatalf("Read=%q ok=%v", v, ok)
	}
}
